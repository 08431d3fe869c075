// Package history records pipeline stage runs in the divscan database.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Run is one recorded stage execution
type Run struct {
	StartedAt  time.Time
	FinishedAt time.Time
	Stage      string
	Error      string
	ID         int64
	Processed  int
	Failed     int
}

// Finished reports whether the run has completed, successfully or not
func (r Run) Finished() bool {
	return !r.FinishedAt.IsZero()
}

// Duration is the wall time of a finished run
func (r Run) Duration() time.Duration {
	if !r.Finished() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// Result is the outcome reported when a run finishes
type Result struct {
	Err       error
	Processed int
	Failed    int
}

// Store persists runs
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// New creates a store on an already migrated database
func New(db *sql.DB) *Store {
	return &Store{db: db, now: time.Now}
}

// Start records the beginning of a stage and returns its run id
func (s *Store) Start(ctx context.Context, stage string) (int64, error) {
	result, err := s.db.ExecContext(ctx,
		"INSERT INTO runs (stage, started_at) VALUES (?, ?)", stage, s.now().UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("failed to record run start: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read run id: %w", err)
	}
	return id, nil
}

// Finish records the outcome of a run
func (s *Store) Finish(ctx context.Context, id int64, res Result) error {
	errText := ""
	if res.Err != nil {
		errText = res.Err.Error()
	}

	_, err := s.db.ExecContext(ctx,
		"UPDATE runs SET finished_at = ?, processed = ?, failed = ?, error = ? WHERE id = ?",
		s.now().UnixMilli(), res.Processed, res.Failed, errText, id)
	if err != nil {
		return fmt.Errorf("failed to record run finish: %w", err)
	}
	return nil
}

// Recent returns the latest runs, newest first
func (s *Store) Recent(ctx context.Context, limit int) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, stage, started_at, finished_at, processed, failed, error
		FROM runs ORDER BY started_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var runs []Run
	for rows.Next() {
		var (
			run      Run
			started  int64
			finished sql.NullInt64
		)
		if err := rows.Scan(&run.ID, &run.Stage, &started, &finished,
			&run.Processed, &run.Failed, &run.Error); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		run.StartedAt = time.UnixMilli(started)
		if finished.Valid {
			run.FinishedAt = time.UnixMilli(finished.Int64)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate runs: %w", err)
	}
	return runs, nil
}
