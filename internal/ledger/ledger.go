// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package ledger persists conversion runs and per-job outcomes in SQLite so
// earlier runs can be listed with `html2md history`.
package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/html2md/pkg/types"
)

// DefaultPath is where the CLI keeps the ledger when --ledger is given without a value.
const DefaultPath = ".html2md/ledger.db"

// Store manages the ledger database.
type Store struct {
	db *sql.DB
}

// Entry is one recorded job joined with its run.
type Entry struct {
	RunID        string
	Backend      string
	Model        string
	Input        string
	Output       string
	Status       types.JobStatus
	Error        string
	Bytes        int
	Duration     time.Duration
	OutputSHA256 string
	RecordedAt   time.Time
}

// Open opens or creates the ledger at path, creating parent directories and
// the schema as needed.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating ledger directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening ledger: %w", err)
	}
	// Workers record concurrently; one connection keeps SQLite writes serialized.
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating ledger schema: %w", err)
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
			input TEXT NOT NULL,
			output_dir TEXT NOT NULL,
			recursive INTEGER NOT NULL,
			backend TEXT NOT NULL,
			model TEXT,
			started_at TEXT NOT NULL,
			finished_at TEXT,
			converted INTEGER NOT NULL DEFAULT 0,
			unchanged INTEGER NOT NULL DEFAULT 0,
			failed INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE TABLE IF NOT EXISTS jobs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT NOT NULL REFERENCES runs(id),
			input TEXT NOT NULL,
			output TEXT NOT NULL,
			status TEXT NOT NULL,
			error TEXT,
			bytes INTEGER,
			duration_ms INTEGER,
			input_sha256 TEXT,
			output_sha256 TEXT,
			recorded_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_jobs_run_id ON jobs(run_id)`,
		`CREATE INDEX IF NOT EXISTS idx_jobs_input ON jobs(input)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// StartRun inserts the run row. Jobs may be recorded once it exists.
func (s *Store) StartRun(ctx context.Context, run types.Run) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, input, output_dir, recursive, backend, model, started_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Input, run.OutputDir, run.Recursive, string(run.Backend), run.Model,
		run.StartedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("inserting run %s: %w", run.ID, err)
	}
	return nil
}

// RecordJob appends one job outcome to runID.
func (s *Store) RecordJob(ctx context.Context, runID string, r types.JobResult) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO jobs (run_id, input, output, status, error, bytes, duration_ms, input_sha256, output_sha256, recorded_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		runID, r.Job.Input, r.Job.Output, string(r.Status), r.ErrMessage(), r.Bytes,
		r.Duration.Milliseconds(), r.InputSHA256, r.OutputSHA256,
		time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("recording job %s: %w", r.Job.Input, err)
	}
	return nil
}

// FinishRun stores the run's end time and outcome counts.
func (s *Store) FinishRun(ctx context.Context, run types.Run, converted, unchanged, failed int) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE runs SET finished_at = ?, converted = ?, unchanged = ?, failed = ? WHERE id = ?`,
		run.FinishedAt.UTC().Format(time.RFC3339Nano), converted, unchanged, failed, run.ID,
	)
	if err != nil {
		return fmt.Errorf("finishing run %s: %w", run.ID, err)
	}
	return nil
}

// Recent returns up to limit job entries, newest first. A non-empty input
// restricts the result to that input path.
func (s *Store) Recent(ctx context.Context, input string, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `SELECT j.run_id, r.backend, COALESCE(r.model, ''), j.input, j.output, j.status,
			COALESCE(j.error, ''), COALESCE(j.bytes, 0), COALESCE(j.duration_ms, 0),
			COALESCE(j.output_sha256, ''), j.recorded_at
		FROM jobs j JOIN runs r ON r.id = j.run_id`
	args := []any{}
	if input != "" {
		query += ` WHERE j.input = ?`
		args = append(args, input)
	}
	query += ` ORDER BY j.id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying ledger: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var status, recordedAt string
		var durationMS int64
		if err := rows.Scan(&e.RunID, &e.Backend, &e.Model, &e.Input, &e.Output, &status,
			&e.Error, &e.Bytes, &durationMS, &e.OutputSHA256, &recordedAt); err != nil {
			return nil, fmt.Errorf("scanning ledger row: %w", err)
		}
		e.Status = types.JobStatus(status)
		e.Duration = time.Duration(durationMS) * time.Millisecond
		e.RecordedAt, _ = time.Parse(time.RFC3339Nano, recordedAt)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
