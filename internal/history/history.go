// Package history keeps a local record of past discovery runs.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	run_id           TEXT PRIMARY KEY,
	mode             TEXT NOT NULL,
	source_tool      TEXT,
	candidates       INTEGER NOT NULL DEFAULT 0,
	duration_seconds REAL NOT NULL DEFAULT 0,
	outcome          TEXT NOT NULL,
	vault_url        TEXT,
	created_at       DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at DESC);
`

// Record is one row of run history
type Record struct {
	RunID           string
	Mode            string
	SourceTool      string
	Candidates      int
	DurationSeconds float64
	Outcome         string
	VaultURL        string
	CreatedAt       time.Time
}

// Store is the sqlite-backed run history
type Store struct {
	db *sql.DB
}

// Open creates or opens the history database at path
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create history directory: %w", err)
	}

	// WAL keeps concurrent readers out of the writer's way
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping history database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize history schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database
func (s *Store) Close() error {
	return s.db.Close()
}

// Add records one completed (or failed) run
func (s *Store) Add(ctx context.Context, rec Record) error {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO runs
			(run_id, mode, source_tool, candidates, duration_seconds, outcome, vault_url, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.RunID, rec.Mode, rec.SourceTool, rec.Candidates,
		rec.DurationSeconds, rec.Outcome, rec.VaultURL, rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to record run: %w", err)
	}
	return nil
}

// Recent returns the most recent runs, newest first
func (s *Store) Recent(ctx context.Context, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT run_id, mode, source_tool, candidates, duration_seconds, outcome, vault_url, created_at
		FROM runs ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query run history: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var rec Record
		var sourceTool, vaultURL sql.NullString
		if err := rows.Scan(&rec.RunID, &rec.Mode, &sourceTool, &rec.Candidates,
			&rec.DurationSeconds, &rec.Outcome, &vaultURL, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan run row: %w", err)
		}
		rec.SourceTool = sourceTool.String
		rec.VaultURL = vaultURL.String
		records = append(records, rec)
	}
	return records, rows.Err()
}
