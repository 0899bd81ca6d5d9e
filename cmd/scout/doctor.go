package main

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/mod/semver"

	"scout/internal/agent"
	"scout/internal/config"
)

// minToolVersions are the oldest agent CLI versions whose --json envelope
// this parser understands
var minToolVersions = map[agent.Tool]string{
	agent.ToolOpenClaw: "v0.8.0",
	agent.ToolClawdbot: "v2.1.0",
}

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check scout installation and environment health",
	Long: `Run health checks to diagnose common configuration and environment issues.

This command checks for:
- Config file presence and validity
- Workspace credentials
- Agent tool executables and minimum versions
- Vault endpoint URL
- Artifacts directory permissions

Exit codes:
  0 - All checks passed
  1 - One or more checks failed (but not critical)
  2 - Critical failures that prevent scout from running`,
	Run: func(cmd *cobra.Command, args []string) {
		os.Exit(runDoctor())
	},
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}

func runDoctor() int {
	green := color.New(color.FgGreen).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()
	cyan := color.New(color.FgCyan).SprintFunc()

	fmt.Printf("Running scout health checks...\n\n")

	var warnings, failures, critical int

	// Check 1: config file
	cfgPath := resolveConfigPath()
	fmt.Printf("%s Config file\n", cyan("→"))
	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Printf("  %s Cannot load %s: %v\n", red("✗"), cfgPath, err)
		critical++
		cfg = config.Default()
	} else if _, statErr := os.Stat(cfgPath); statErr != nil {
		fmt.Printf("  %s No config at %s (run 'scout init')\n", yellow("⚠"), cfgPath)
		warnings++
	} else {
		fmt.Printf("  %s %s\n", green("✓"), cfgPath)
	}

	// Check 2: workspace credentials
	fmt.Printf("%s Workspace credentials\n", cyan("→"))
	switch {
	case cfg.WorkspaceID == "":
		fmt.Printf("  %s workspace_id not set; uploads will be skipped\n", yellow("⚠"))
		warnings++
	case cfg.WorkspaceKey == "":
		fmt.Printf("  %s workspace_key not set (config or %s); uploads will be skipped\n",
			yellow("⚠"), config.EnvWorkspaceKey)
		warnings++
	default:
		fmt.Printf("  %s workspace %s\n", green("✓"), cfg.WorkspaceID)
	}

	// Check 3: agent tools
	fmt.Printf("%s Agent tools\n", cyan("→"))
	chain, err := agent.ParseChain(cfg.ToolChain)
	if err != nil {
		fmt.Printf("  %s %v\n", red("✗"), err)
		critical++
		chain = nil
	}
	available := 0
	for _, tool := range chain {
		path, err := exec.LookPath(tool.Executable())
		if err != nil {
			fmt.Printf("  %s %s not found on PATH\n", yellow("⚠"), tool)
			continue
		}
		available++
		version := toolVersion(path)
		minimum := minToolVersions[tool]
		switch {
		case version == "":
			fmt.Printf("  %s %s at %s (version unknown)\n", yellow("⚠"), tool, path)
			warnings++
		case semver.Compare(version, minimum) < 0:
			fmt.Printf("  %s %s %s is older than the minimum %s\n", red("✗"), tool, version, minimum)
			failures++
		default:
			fmt.Printf("  %s %s %s\n", green("✓"), tool, version)
		}
	}
	if len(chain) > 0 && available == 0 {
		fmt.Printf("  %s No agent tool installed; discovery cannot run\n", red("✗"))
		critical++
	}

	// Check 4: vault endpoint
	fmt.Printf("%s Vault endpoint\n", cyan("→"))
	if u, err := url.Parse(cfg.VaultBaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		fmt.Printf("  %s vault_base_url %q is not a valid URL\n", red("✗"), cfg.VaultBaseURL)
		failures++
	} else if u.Scheme != "https" {
		fmt.Printf("  %s vault_base_url is not https; the workspace key would travel unencrypted\n", yellow("⚠"))
		warnings++
	} else {
		fmt.Printf("  %s %s\n", green("✓"), cfg.VaultBaseURL)
	}

	// Check 5: artifacts directory
	fmt.Printf("%s Artifacts directory\n", cyan("→"))
	if err := probeWritable(cfg.ArtifactsDir); err != nil {
		fmt.Printf("  %s %s is not writable: %v\n", red("✗"), cfg.ArtifactsDir, err)
		failures++
	} else {
		fmt.Printf("  %s %s\n", green("✓"), cfg.ArtifactsDir)
	}

	fmt.Println()
	switch {
	case critical > 0:
		fmt.Printf("%s Critical failures prevent scout from running\n", red("✗"))
		return 2
	case failures > 0 || warnings > 0:
		fmt.Printf("%s %d failure(s), %d warning(s)\n", yellow("⚠"), failures, warnings)
		return 1
	default:
		fmt.Printf("%s All checks passed\n", green("✓"))
		return 0
	}
}

// toolVersion asks the tool for its version and normalizes it to a
// semver string, or returns "" when it cannot be determined
func toolVersion(path string) string {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	out, err := exec.CommandContext(ctx, path, "--version").Output()
	if err != nil {
		return ""
	}
	return parseVersion(string(out))
}

// parseVersion extracts the first semver-looking token from version output
func parseVersion(out string) string {
	for _, field := range strings.Fields(out) {
		v := field
		if !strings.HasPrefix(v, "v") {
			v = "v" + v
		}
		if semver.IsValid(v) {
			return v
		}
	}
	return ""
}

// probeWritable verifies the directory exists (creating it if needed)
// and accepts writes
func probeWritable(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	probe := filepath.Join(dir, ".scout-doctor-probe")
	if err := os.WriteFile(probe, []byte("probe"), 0644); err != nil {
		return err
	}
	return os.Remove(probe)
}
