package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"scout/internal/config"
	"scout/internal/history"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent discovery runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(resolveConfigPath())
		if err != nil {
			return err
		}

		store, err := history.Open(filepath.Join(cfg.ArtifactsDir, "history.db"))
		if err != nil {
			return fmt.Errorf("opening run history: %w", err)
		}
		defer store.Close()

		records, err := store.Recent(context.Background(), historyLimit)
		if err != nil {
			return err
		}
		if len(records) == 0 {
			fmt.Println("No runs recorded yet.")
			return nil
		}

		green := color.New(color.FgGreen).SprintFunc()
		red := color.New(color.FgRed).SprintFunc()
		w := os.Stdout
		fmt.Fprintf(w, "%-22s %-6s %-10s %10s %10s  %s\n",
			"RUN", "MODE", "TOOL", "CANDIDATES", "DURATION", "OUTCOME")
		for _, rec := range records {
			outcome := rec.Outcome
			if outcome == "uploaded" {
				outcome = green(outcome)
			} else if outcome != "not_uploaded" {
				outcome = red(outcome)
			}
			fmt.Fprintf(w, "%-22s %-6s %-10s %10d %9.1fs  %s\n",
				rec.RunID, rec.Mode, rec.SourceTool, rec.Candidates,
				rec.DurationSeconds, outcome)
		}
		return nil
	},
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "number of runs to show")
	rootCmd.AddCommand(historyCmd)
}
