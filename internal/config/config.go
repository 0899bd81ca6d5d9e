// Package config loads and persists the scout configuration file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// EnvWorkspaceKey overrides the workspace key from the environment
	// so it can stay out of the config file
	EnvWorkspaceKey = "SCOUT_WORKSPACE_KEY"

	defaultVaultBaseURL     = "https://vault.scout.dev"
	defaultAgentID          = "conn-scout"
	defaultDiscoveryTimeout = 15 * time.Minute
	defaultMinEvidenceURLs  = 2
	defaultKeepRuns         = 30
)

// Config is the persisted configuration in ~/.scout/scout.yaml
type Config struct {
	WorkspaceID  string `yaml:"workspace_id"`
	WorkspaceKey string `yaml:"workspace_key,omitempty"`
	VaultBaseURL string `yaml:"vault_base_url"`

	// Profile describes who the operator wants to connect with; its
	// content drives the discovery prompt and its hash tracks changes
	// across runs
	Profile string `yaml:"profile"`

	// ToolChain is the agent tool fallback order (empty = default)
	ToolChain []string `yaml:"tool_chain,omitempty"`
	AgentID   string   `yaml:"agent_id"`

	// DiscoveryTimeout is a duration string like "15m"
	DiscoveryTimeout string `yaml:"discovery_timeout"`

	MinEvidenceURLs int    `yaml:"min_evidence_urls"`
	KeepRuns        int    `yaml:"keep_runs"`
	ArtifactsDir    string `yaml:"artifacts_dir"`

	// AvoidList holds identifiers of previously-surfaced candidates;
	// appended to by the archiver after each run
	AvoidList []string `yaml:"avoid_list,omitempty"`
}

// Default returns the configuration used when no file exists yet
func Default() *Config {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return &Config{
		VaultBaseURL:     defaultVaultBaseURL,
		AgentID:          defaultAgentID,
		DiscoveryTimeout: defaultDiscoveryTimeout.String(),
		MinEvidenceURLs:  defaultMinEvidenceURLs,
		KeepRuns:         defaultKeepRuns,
		ArtifactsDir:     filepath.Join(home, ".scout", "runs"),
	}
}

// DefaultPath returns the default config file location
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, ".scout", "scout.yaml")
}

// Load reads the config file, returning defaults when it does not exist.
// The workspace key may come from the environment instead of the file.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			applyEnv(cfg)
			return cfg, nil
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}
	fillDefaults(cfg)
	applyEnv(cfg)

	if _, err := cfg.Timeout(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the config file, creating the directory if needed
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}

// Timeout parses the configured discovery timeout
func (c *Config) Timeout() (time.Duration, error) {
	if c.DiscoveryTimeout == "" {
		return defaultDiscoveryTimeout, nil
	}
	d, err := time.ParseDuration(c.DiscoveryTimeout)
	if err != nil {
		return 0, fmt.Errorf("invalid discovery_timeout %q: %w", c.DiscoveryTimeout, err)
	}
	return d, nil
}

func fillDefaults(cfg *Config) {
	def := Default()
	if cfg.VaultBaseURL == "" {
		cfg.VaultBaseURL = def.VaultBaseURL
	}
	if cfg.AgentID == "" {
		cfg.AgentID = def.AgentID
	}
	if cfg.DiscoveryTimeout == "" {
		cfg.DiscoveryTimeout = def.DiscoveryTimeout
	}
	if cfg.MinEvidenceURLs <= 0 {
		cfg.MinEvidenceURLs = def.MinEvidenceURLs
	}
	if cfg.KeepRuns <= 0 {
		cfg.KeepRuns = def.KeepRuns
	}
	if cfg.ArtifactsDir == "" {
		cfg.ArtifactsDir = def.ArtifactsDir
	}
}

func applyEnv(cfg *Config) {
	if key := os.Getenv(EnvWorkspaceKey); key != "" {
		cfg.WorkspaceKey = key
	}
}
