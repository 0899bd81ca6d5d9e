// Package archive persists run artifacts to local files, rotates
// retention, and folds surfaced candidates back into the avoid list.
package archive

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"scout/internal/types"
)

// Archiver writes run artifacts under a single directory
type Archiver struct {
	dir  string
	keep int
	log  *slog.Logger
}

// New creates an archiver for the given artifacts directory, keeping at
// most keep prior runs
func New(dir string, keep int, log *slog.Logger) *Archiver {
	return &Archiver{dir: dir, keep: keep, log: log}
}

// Persist writes the timestamped JSON bundle and its human-readable
// rendering, then repoints the latest.* convenience files. The latest
// pointers are only touched after both run files are fully written, so a
// crash mid-persist never leaves them referencing a partial pair.
func (a *Archiver) Persist(brief *types.ConnectionBrief) (jsonPath, reportPath string, err error) {
	if err := os.MkdirAll(a.dir, 0755); err != nil {
		return "", "", fmt.Errorf("creating artifacts directory: %w", err)
	}

	base := "run-" + sanitizeRunID(brief.RunID)
	jsonPath = filepath.Join(a.dir, base+".json")
	reportPath = filepath.Join(a.dir, base+".md")

	data, err := json.MarshalIndent(brief, "", "  ")
	if err != nil {
		return "", "", fmt.Errorf("marshaling brief: %w", err)
	}
	if err := os.WriteFile(jsonPath, data, 0644); err != nil {
		return "", "", fmt.Errorf("writing run bundle: %w", err)
	}

	report := renderReport(brief)
	if err := os.WriteFile(reportPath, []byte(report), 0644); err != nil {
		return "", "", fmt.Errorf("writing run report: %w", err)
	}

	// Both artifacts exist; now atomically repoint latest.*
	if err := a.repointLatest("latest.json", data); err != nil {
		return "", "", err
	}
	if err := a.repointLatest("latest.md", []byte(report)); err != nil {
		return "", "", err
	}

	a.log.Info("run artifacts written",
		"json", jsonPath,
		"report", reportPath,
		"candidates", len(brief.Candidates))
	return jsonPath, reportPath, nil
}

// repointLatest writes a temp file and renames it into place so latest.*
// is never observed half-written
func (a *Archiver) repointLatest(name string, data []byte) error {
	target := filepath.Join(a.dir, name)
	tmp := target + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", name, err)
	}
	if err := os.Rename(tmp, target); err != nil {
		return fmt.Errorf("repointing %s: %w", name, err)
	}
	return nil
}

// Prune deletes run file pairs beyond the keep-count, oldest first
func (a *Archiver) Prune() error {
	entries, err := filepath.Glob(filepath.Join(a.dir, "run-*.json"))
	if err != nil {
		return fmt.Errorf("listing run files: %w", err)
	}
	if len(entries) <= a.keep {
		return nil
	}

	type runFile struct {
		path  string
		mtime int64
	}
	files := make([]runFile, 0, len(entries))
	for _, path := range entries {
		info, err := os.Stat(path)
		if err != nil {
			continue
		}
		files = append(files, runFile{path: path, mtime: info.ModTime().UnixNano()})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].mtime > files[j].mtime })

	for _, f := range files[a.keep:] {
		if err := os.Remove(f.path); err != nil {
			a.log.Warn("failed to prune run bundle", "path", f.path, "error", err)
			continue
		}
		// The paired rendering goes with it
		report := strings.TrimSuffix(f.path, ".json") + ".md"
		if err := os.Remove(report); err != nil && !os.IsNotExist(err) {
			a.log.Warn("failed to prune run report", "path", report, "error", err)
		}
		a.log.Debug("pruned old run", "path", f.path)
	}
	return nil
}

// sanitizeRunID makes an ISO-8601 run ID safe as a filename
func sanitizeRunID(runID string) string {
	return strings.ReplaceAll(runID, ":", "-")
}
