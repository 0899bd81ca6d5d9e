package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/chzyer/readline"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"scout/internal/config"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Interactively create the scout configuration",
	Long: `Walk through the initial setup: workspace credentials, vault endpoint,
and the project profile that drives discovery. Writes the config file
(default ~/.scout/scout.yaml).`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runInit()
	},
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "overwrite an existing config file")
	rootCmd.AddCommand(initCmd)
}

func runInit() error {
	green := color.New(color.FgGreen).SprintFunc()
	cyan := color.New(color.FgCyan).SprintFunc()

	path := resolveConfigPath()
	if _, err := os.Stat(path); err == nil && !initForce {
		return fmt.Errorf("config already exists at %s (use --force to overwrite)", path)
	}

	rl, err := readline.NewEx(&readline.Config{Prompt: cyan("> ")})
	if err != nil {
		return fmt.Errorf("failed to open terminal: %w", err)
	}
	defer rl.Close()

	cfg := config.Default()

	fmt.Println("Workspace ID (from your vault account):")
	if cfg.WorkspaceID, err = readLine(rl); err != nil {
		return err
	}

	fmt.Printf("Workspace key (stored in the config; leave empty to use %s):\n", config.EnvWorkspaceKey)
	key, err := rl.ReadPassword(cyan("> "))
	if err != nil {
		return fmt.Errorf("failed to read workspace key: %w", err)
	}
	cfg.WorkspaceKey = strings.TrimSpace(string(key))

	fmt.Printf("Vault base URL [%s]:\n", cfg.VaultBaseURL)
	vaultURL, err := readLine(rl)
	if err != nil {
		return err
	}
	if vaultURL != "" {
		cfg.VaultBaseURL = vaultURL
	}

	fmt.Println("Project profile (one line, who you are looking to connect with):")
	if cfg.Profile, err = readLine(rl); err != nil {
		return err
	}

	if err := config.Save(path, cfg); err != nil {
		return err
	}

	fmt.Printf("\n%s Config written to %s\n", green("✓"), path)
	fmt.Println("Next steps:")
	fmt.Println("  scout doctor      verify agent tools and the environment")
	fmt.Println("  scout run --smoke check the pipeline end to end")
	fmt.Println("  scout run         run a real discovery")
	return nil
}

func readLine(rl *readline.Instance) (string, error) {
	line, err := rl.Readline()
	if err != nil {
		return "", fmt.Errorf("input aborted: %w", err)
	}
	return strings.TrimSpace(line), nil
}
