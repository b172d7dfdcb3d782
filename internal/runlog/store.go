// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package runlog keeps a SQLite record of pipeline runs: when each ran,
// whether it wrote live or fallback data, and why it fell back. It stores
// outcomes only, never artifact contents.
package runlog

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const defaultLimit = 20

// timeLayout is fixed-width so timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// Record is the outcome of one pipeline run.
type Record struct {
	ID             string    `json:"id" yaml:"id"`
	ProfileID      string    `json:"profile_id" yaml:"profile_id"`
	StartedAt      time.Time `json:"started_at" yaml:"started_at"`
	FinishedAt     time.Time `json:"finished_at" yaml:"finished_at"`
	Source         string    `json:"source,omitempty" yaml:"source,omitempty"`
	FailureKind    string    `json:"failure_kind,omitempty" yaml:"failure_kind,omitempty"`
	StatusCode     int       `json:"status_code,omitempty" yaml:"status_code,omitempty"`
	Message        string    `json:"message,omitempty" yaml:"message,omitempty"`
	TotalCitations int       `json:"total_citations" yaml:"total_citations"`
	OutputPath     string    `json:"output_path,omitempty" yaml:"output_path,omitempty"`
}

// Duration returns how long the run took.
func (r Record) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// Store manages the run log database.
type Store struct {
	db *sql.DB
}

// Open opens or creates the run log at path, creating its directory and
// schema if needed.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating run log directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			profile_id TEXT NOT NULL,
			started_at TEXT NOT NULL,
			finished_at TEXT NOT NULL,
			source TEXT,
			failure_kind TEXT,
			status_code INTEGER,
			message TEXT,
			total_citations INTEGER,
			output_path TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_profile_started ON runs(profile_id, started_at)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Record inserts rec, replacing any earlier row with the same id.
func (s *Store) Record(ctx context.Context, rec Record) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO runs
			(id, profile_id, started_at, finished_at, source, failure_kind, status_code, message, total_citations, output_path)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.ProfileID,
		rec.StartedAt.UTC().Format(timeLayout),
		rec.FinishedAt.UTC().Format(timeLayout),
		rec.Source, rec.FailureKind, rec.StatusCode, rec.Message,
		rec.TotalCitations, rec.OutputPath,
	)
	if err != nil {
		return fmt.Errorf("inserting run %s: %w", rec.ID, err)
	}
	return nil
}

// Recent returns up to limit runs, newest first. An empty profileID
// matches every profile; limit <= 0 means 20.
func (s *Store) Recent(ctx context.Context, profileID string, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = defaultLimit
	}

	query := `SELECT id, profile_id, started_at, finished_at, source, failure_kind, status_code, message, total_citations, output_path
		FROM runs`
	var args []any
	if profileID != "" {
		query += ` WHERE profile_id = ?`
		args = append(args, profileID)
	}
	query += ` ORDER BY started_at DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var (
			rec               Record
			started, finished string
			source, kind, msg sql.NullString
			status, total     sql.NullInt64
			output            sql.NullString
		)
		if err := rows.Scan(&rec.ID, &rec.ProfileID, &started, &finished, &source, &kind, &status, &msg, &total, &output); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		rec.StartedAt, _ = time.Parse(timeLayout, started)
		rec.FinishedAt, _ = time.Parse(timeLayout, finished)
		rec.Source = source.String
		rec.FailureKind = kind.String
		rec.StatusCode = int(status.Int64)
		rec.Message = msg.String
		rec.TotalCitations = int(total.Int64)
		rec.OutputPath = output.String
		out = append(out, rec)
	}
	return out, rows.Err()
}
