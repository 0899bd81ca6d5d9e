package archive

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"scout/internal/config"
	"scout/internal/types"
)

// UpdateAvoidList folds the identifiers of the just-completed run's
// candidates into the configuration's avoid list. Deduplication is
// case-insensitive; original casing and insertion order are preserved.
// The prior configuration is backed up before the rewrite. Returns how
// many identifiers were added.
//
// The config file is read-modify-written without inter-process locking;
// concurrent invocations against the same path can race.
func (a *Archiver) UpdateAvoidList(brief *types.ConnectionBrief, configPath string) (int, error) {
	var cfg config.Config
	raw, err := os.ReadFile(configPath)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return 0, fmt.Errorf("parsing config for avoid-list merge: %w", err)
		}
	case os.IsNotExist(err):
		// First run against a fresh config: nothing to merge into
		raw = nil
	default:
		return 0, fmt.Errorf("reading config for avoid-list merge: %w", err)
	}

	merged, added := mergeIdentifiers(cfg.AvoidList, brief.Candidates)
	if added == 0 {
		a.log.Debug("avoid list unchanged", "entries", len(cfg.AvoidList))
		return 0, nil
	}

	if raw != nil {
		backupPath := configPath + ".backup." + strconv.FormatInt(time.Now().Unix(), 10)
		if err := os.WriteFile(backupPath, raw, 0600); err != nil {
			return 0, fmt.Errorf("writing config backup: %w", err)
		}
		a.log.Debug("config backed up", "path", backupPath)
	}

	cfg.AvoidList = merged
	data, err := yaml.Marshal(&cfg)
	if err != nil {
		return 0, fmt.Errorf("marshaling merged config: %w", err)
	}
	if err := os.WriteFile(configPath, data, 0600); err != nil {
		return 0, fmt.Errorf("rewriting config: %w", err)
	}

	a.log.Info("avoid list updated", "added", added, "total", len(merged))
	return added, nil
}

// mergeIdentifiers appends unseen candidate identifiers to the existing
// list, deduplicating case-insensitively while keeping the existing
// entries' casing and order intact
func mergeIdentifiers(existing []string, candidates []types.Candidate) ([]string, int) {
	seen := make(map[string]bool, len(existing))
	merged := make([]string, 0, len(existing))
	for _, id := range existing {
		key := strings.ToLower(strings.TrimSpace(id))
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		merged = append(merged, id)
	}

	added := 0
	for _, c := range candidates {
		for _, id := range c.Identifiers() {
			key := strings.ToLower(strings.TrimSpace(id))
			if key == "" || seen[key] {
				continue
			}
			seen[key] = true
			merged = append(merged, id)
			added++
		}
	}
	return merged, added
}
