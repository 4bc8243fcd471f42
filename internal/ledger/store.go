package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"digitprep/internal/partition"
)

const runColumns = "id, root_dir, status, started_at, finished_at, train, validation, test, speakers, rejected, error_message"

// BeginRun inserts a running row for id.
func (s *Store) BeginRun(ctx context.Context, id, rootDir string) error {
	if strings.TrimSpace(id) == "" {
		return errors.New("run id is required")
	}
	now := time.Now().UTC()
	if _, err := s.execWithRetry(ctx,
		`INSERT INTO runs (id, root_dir, status, started_at) VALUES (?, ?, ?, ?)`,
		id, rootDir, StatusRunning, now.Format(time.RFC3339Nano),
	); err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// RecordPlacement stores one relocated clip at position seq of the run.
func (s *Store) RecordPlacement(ctx context.Context, runID string, seq int, p partition.Placement) error {
	if _, err := s.execWithRetry(ctx,
		`INSERT INTO placements (run_id, seq, split, path, label, speaker) VALUES (?, ?, ?, ?, ?, ?)`,
		runID, seq, p.Split.String(), p.Destination, p.Record.Label, p.Record.SpeakerID,
	); err != nil {
		return fmt.Errorf("insert placement %s: %w", p.Destination, err)
	}
	return nil
}

// FinishRun marks the run completed with its totals.
func (s *Store) FinishRun(ctx context.Context, runID string, counts RunCounts) error {
	now := time.Now().UTC()
	res, err := s.execWithRetry(ctx,
		`UPDATE runs SET status = ?, finished_at = ?, train = ?, validation = ?, test = ?, speakers = ?, rejected = ?
		WHERE id = ?`,
		StatusCompleted, now.Format(time.RFC3339Nano),
		counts.Train, counts.Validation, counts.Test, counts.Speakers, counts.Rejected,
		runID,
	)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	return requireRow(res, runID)
}

// FailRun marks the run failed with the error text.
func (s *Store) FailRun(ctx context.Context, runID string, cause error) error {
	message := ""
	if cause != nil {
		message = cause.Error()
	}
	now := time.Now().UTC()
	res, err := s.execWithRetry(ctx,
		`UPDATE runs SET status = ?, finished_at = ?, error_message = ? WHERE id = ?`,
		StatusFailed, now.Format(time.RFC3339Nano), nullableString(message), runID,
	)
	if err != nil {
		return fmt.Errorf("fail run: %w", err)
	}
	return requireRow(res, runID)
}

// GetRun returns the run with id.
func (s *Store) GetRun(ctx context.Context, id string) (*Run, error) {
	row := s.db.QueryRowContext(ensureContext(ctx), `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}
	return run, nil
}

// ListRuns returns the most recent runs first. A limit <= 0 returns all runs.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs ORDER BY rowid DESC`
	var args []any
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ensureContext(ctx), query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}

// Placements returns the clips relocated by a run in arrival order.
func (s *Store) Placements(ctx context.Context, runID string) ([]Placement, error) {
	rows, err := s.db.QueryContext(ensureContext(ctx),
		`SELECT run_id, seq, split, path, label, speaker FROM placements WHERE run_id = ? ORDER BY seq`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("list placements: %w", err)
	}
	defer rows.Close()

	var placements []Placement
	for rows.Next() {
		var (
			p        Placement
			splitStr string
		)
		if err := rows.Scan(&p.RunID, &p.Seq, &splitStr, &p.Path, &p.Label, &p.Speaker); err != nil {
			return nil, fmt.Errorf("scan placement: %w", err)
		}
		if p.Split, err = partition.ParseSplit(splitStr); err != nil {
			return nil, fmt.Errorf("placement %d: %w", p.Seq, err)
		}
		placements = append(placements, p)
	}
	return placements, rows.Err()
}
