package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"scout/internal/config"
)

var (
	configPath string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "scout",
	Short: "Discover people worth connecting with",
	Long: `Scout runs a bounded discovery task through an external agent tool
(openclaw or clawdbot), recovers a structured result from its output,
validates it, and ships it to your vault workspace and to local files.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "",
		"path to config file (default ~/.scout/scout.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false,
		"enable debug logging")
}

// resolveConfigPath returns the explicit --config value or the default
func resolveConfigPath() string {
	if configPath != "" {
		return configPath
	}
	return config.DefaultPath()
}

// newLogger builds the structured sink threaded through every stage
func newLogger() *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
