package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"scout/internal/agent"
	"scout/internal/archive"
	"scout/internal/config"
	"scout/internal/discovery"
	"scout/internal/history"
	"scout/internal/prompt"
	"scout/internal/types"
	"scout/internal/validate"
	"scout/internal/vault"
)

var (
	smokeFlag      bool
	skipUploadFlag bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Execute one discovery run",
	Long: `Run the full discovery pipeline once:

1. Compose the discovery job from your profile and avoid list
2. Execute it through the agent tool chain (serial fallback)
3. Recover and normalize the structured result
4. Write local run artifacts and rotate retention
5. Validate the brief and upload it to the vault
6. Fold surfaced candidates into the avoid list

With --smoke the pipeline runs end to end without real external lookups.`,
	Run: func(cmd *cobra.Command, args []string) {
		mode := types.ModeReal
		if smokeFlag {
			mode = types.ModeSmoke
		}
		os.Exit(runPipeline(mode))
	},
}

func init() {
	runCmd.Flags().BoolVar(&smokeFlag, "smoke", false, "run a pipeline check without real lookups")
	runCmd.Flags().BoolVar(&skipUploadFlag, "skip-upload", false, "write local artifacts but do not upload")
	rootCmd.AddCommand(runCmd)
}

func runPipeline(mode types.Mode) int {
	red := color.New(color.FgRed).SprintFunc()
	green := color.New(color.FgGreen).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()

	log := newLogger()
	cfgPath := resolveConfigPath()
	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s %v\n", red("✗"), err)
		return 1
	}
	if mode == types.ModeReal && cfg.Profile == "" {
		fmt.Fprintf(os.Stderr, "%s No profile configured. Run 'scout init' first.\n", red("✗"))
		return 1
	}

	chain, err := agent.ParseChain(cfg.ToolChain)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s %v\n", red("✗"), err)
		return 1
	}
	timeout, err := cfg.Timeout()
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s %v\n", red("✗"), err)
		return 1
	}

	job := prompt.Build(cfg, mode)
	orch := discovery.New(agent.NewSupervisor(log), chain, cfg.AgentID, timeout, log)

	ctx := context.Background()
	started := time.Now().UTC()
	result, err := orch.Discover(ctx, job)
	duration := time.Since(started)
	if err != nil {
		reason := discovery.Classify(err)
		fmt.Fprintf(os.Stderr, "%s Discovery failed (%s): %v\n", red("✗"), reason, err)
		fmt.Fprintf(os.Stderr, "  %s\n", reason.Hint())
		recordRun(ctx, cfg, log, history.Record{
			RunID:           started.Format(time.RFC3339),
			Mode:            string(mode),
			DurationSeconds: duration.Seconds(),
			Outcome:         "failed_" + string(reason),
		})
		return 1
	}

	brief := assembleBrief(cfg, mode, result, started)
	// Backfill the duration now that the run is over; the brief is not
	// mutated again once persistence begins
	brief.RunMetadata.DurationSeconds = duration.Seconds()

	arch := archive.New(cfg.ArtifactsDir, cfg.KeepRuns, log)
	jsonPath, reportPath, err := arch.Persist(brief)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s Failed to write run artifacts: %v\n", red("✗"), err)
		return 1
	}
	if err := arch.Prune(); err != nil {
		log.Warn("retention prune failed", "error", err)
	}
	fmt.Printf("%s Artifacts written: %s\n", green("✓"), jsonPath)

	outcome := "uploaded"
	exitCode := 0
	vaultURL := ""

	vres := validate.Brief(brief, cfg.MinEvidenceURLs)
	switch {
	case !vres.Valid:
		fmt.Fprintf(os.Stderr, "%s Brief failed validation; upload skipped:\n", red("✗"))
		for _, msg := range vres.Errors {
			fmt.Fprintf(os.Stderr, "  - %s\n", msg)
		}
		outcome = "validation_failed"
		exitCode = 1

	case skipUploadFlag:
		fmt.Printf("%s Upload skipped (--skip-upload)\n", yellow("⋯"))
		outcome = "not_uploaded"

	case cfg.WorkspaceID == "" || cfg.WorkspaceKey == "":
		fmt.Fprintf(os.Stderr, "%s No workspace credentials configured; upload skipped. Run 'scout init' or set %s.\n",
			yellow("⋯"), config.EnvWorkspaceKey)
		outcome = "not_uploaded"

	default:
		client := vault.NewClient(cfg.VaultBaseURL, log)
		receipt, err := client.Upload(ctx, brief, vault.Credentials{
			WorkspaceID:  cfg.WorkspaceID,
			WorkspaceKey: cfg.WorkspaceKey,
		})
		if err != nil {
			reason := discovery.Classify(err)
			fmt.Fprintf(os.Stderr, "%s Upload failed (%s): %v\n", red("✗"), reason, err)
			fmt.Fprintf(os.Stderr, "  Local artifacts are intact: %s\n", reportPath)
			outcome = "upload_failed"
			exitCode = 1
		} else {
			vaultURL = receipt.VaultURL
			fmt.Printf("%s Uploaded to vault: %s\n", green("✓"), receipt.VaultURL)
		}
	}

	// Avoid-list merge is best-effort: primary artifacts already succeeded
	if mode == types.ModeReal && len(brief.Candidates) > 0 {
		added, err := arch.UpdateAvoidList(brief, cfgPath)
		if err != nil {
			log.Warn("avoid-list merge failed", "error", err)
			fmt.Fprintf(os.Stderr, "%s Avoid-list update failed (run unaffected): %v\n", yellow("⚠"), err)
		} else if added > 0 {
			fmt.Printf("%s Avoid list updated (+%d)\n", green("✓"), added)
		}
	}

	recordRun(ctx, cfg, log, history.Record{
		RunID:           brief.RunID,
		Mode:            string(mode),
		SourceTool:      brief.RunMetadata.SourceTool,
		Candidates:      len(brief.Candidates),
		DurationSeconds: brief.RunMetadata.DurationSeconds,
		Outcome:         outcome,
		VaultURL:        vaultURL,
	})

	fmt.Printf("\n%s %s: %d candidate(s) via %s in %.1fs\n",
		green("✓"), brief.Summary.Headline, len(brief.Candidates),
		brief.RunMetadata.SourceTool, brief.RunMetadata.DurationSeconds)
	return exitCode
}

// assembleBrief builds the connection brief for one completed discovery
func assembleBrief(cfg *config.Config, mode types.Mode, result *types.DiscoveryResult, started time.Time) *types.ConnectionBrief {
	return &types.ConnectionBrief{
		WorkspaceID:        cfg.WorkspaceID,
		RunID:              started.Format(time.RFC3339),
		ProjectProfileHash: prompt.ProfileHash(cfg.Profile),
		RunMetadata: types.RunMetadata{
			Mode:                mode,
			SourceTool:          result.Source,
			StartedAt:           started,
			SearchesPerformed:   result.Metadata.SearchesPerformed,
			PagesFetched:        result.Metadata.PagesFetched,
			CandidatesEvaluated: result.Metadata.CandidatesEvaluated,
			Completed:           result.Metadata.Completed,
		},
		Candidates:  result.Candidates,
		NextActions: nextActions(result),
		Summary:     result.Summary,
	}
}

// nextActions derives follow-up suggestions from the result
func nextActions(result *types.DiscoveryResult) []string {
	if len(result.Candidates) == 0 {
		if result.Summary.Headline == "" {
			return nil
		}
		return []string{"No candidates this run; consider broadening the profile or waiting for new activity."}
	}
	actions := make([]string, 0, len(result.Candidates))
	for _, c := range result.Candidates {
		actions = append(actions, fmt.Sprintf("Reach out to %s", c.Name))
	}
	if !result.Metadata.Completed {
		actions = append(actions, "Run was cut short; rerun to cover the remaining venues.")
	}
	return actions
}

// recordRun appends to the local run history; failures never affect the run
func recordRun(ctx context.Context, cfg *config.Config, log *slog.Logger, rec history.Record) {
	store, err := history.Open(filepath.Join(cfg.ArtifactsDir, "history.db"))
	if err != nil {
		log.Warn("run history unavailable", "error", err)
		return
	}
	defer store.Close()
	if err := store.Add(ctx, rec); err != nil {
		log.Warn("failed to record run history", "error", err)
	}
}
