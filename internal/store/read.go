package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/compneuro-ncu/order-task/internal/engine"
	"github.com/compneuro-ncu/order-task/internal/task"
)

// ErrNotFound is returned when a requested run does not exist.
var ErrNotFound = errors.New("run not found")

// GetRun fetches one run header by id.
func (s *Store) GetRun(ctx context.Context, id string) (Run, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, subject_id, variant, seed, started_at, finished_at, aborted
		FROM runs WHERE id = ?
	`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("get run %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return Run{}, fmt.Errorf("get run %s: %w", id, err)
	}
	return run, nil
}

// ListRuns returns run headers, newest first. An empty subjectID lists all
// subjects.
func (s *Store) ListRuns(ctx context.Context, subjectID string) ([]Run, error) {
	query := `
		SELECT id, subject_id, variant, seed, started_at, finished_at, aborted
		FROM runs
	`
	var args []any
	if subjectID != "" {
		query += " WHERE subject_id = ?"
		args = append(args, NormalizeSubjectID(subjectID))
	}
	query += " ORDER BY started_at DESC, id DESC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("list runs: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	return runs, nil
}

// Trials fetches the trial records of a run in execution order.
func (s *Store) Trials(ctx context.Context, runID string) ([]task.Record, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT condition, pair, block, stim_group,
		       digit_l, digit_c, digit_r, is_target, is_order, isi_seconds,
		       onset_fix_plan, onset_dig_plan,
		       onset_fix, onset_fix_glob, onset_dig, onset_dig_glob,
		       response_key, rt, correct
		FROM trials WHERE run_id = ? ORDER BY seq
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("trials %s: %w", runID, err)
	}
	defer rows.Close()

	var records []task.Record
	for rows.Next() {
		var r task.Record
		var cond string
		err := rows.Scan(
			&cond, &r.Pair, &r.Block, &r.Trial.Group,
			&r.Trial.DigitL, &r.Trial.DigitC, &r.Trial.DigitR,
			&r.Trial.IsTarget, &r.Trial.IsOrder, &r.Trial.ISISeconds,
			&r.Trial.OnsetFixPlan, &r.Trial.OnsetDigPlan,
			&r.OnsetFix, &r.OnsetFixGlob, &r.OnsetDig, &r.OnsetDigGlob,
			&r.Response.Key, &r.Response.RT, &r.Response.Correct,
		)
		if err != nil {
			return nil, fmt.Errorf("trials %s: scan: %w", runID, err)
		}
		r.Condition = task.Condition(cond)
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("trials %s: %w", runID, err)
	}
	return records, nil
}

// InfoMarks fetches a run's instruction-screen marks in order.
func (s *Store) InfoMarks(ctx context.Context, runID string) ([]task.InfoMark, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT condition, block, onset, onset_glob
		FROM info_marks WHERE run_id = ? ORDER BY seq
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("info marks %s: %w", runID, err)
	}
	defer rows.Close()

	var marks []task.InfoMark
	for rows.Next() {
		var m task.InfoMark
		var cond string
		if err := rows.Scan(&cond, &m.Block, &m.Onset, &m.OnsetGlob); err != nil {
			return nil, fmt.Errorf("info marks %s: scan: %w", runID, err)
		}
		m.Condition = task.Condition(cond)
		marks = append(marks, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("info marks %s: %w", runID, err)
	}
	return marks, nil
}

// Pulses fetches a run's scanner pulses in order.
func (s *Store) Pulses(ctx context.Context, runID string) ([]engine.Pulse, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT idx, onset, spacing
		FROM pulses WHERE run_id = ? ORDER BY idx
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("pulses %s: %w", runID, err)
	}
	defer rows.Close()

	var pulses []engine.Pulse
	for rows.Next() {
		var p engine.Pulse
		if err := rows.Scan(&p.Index, &p.Onset, &p.Spacing); err != nil {
			return nil, fmt.Errorf("pulses %s: scan: %w", runID, err)
		}
		pulses = append(pulses, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("pulses %s: %w", runID, err)
	}
	return pulses, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (Run, error) {
	var run Run
	var variant, started string
	var finished sql.NullString
	var aborted int
	if err := row.Scan(&run.ID, &run.SubjectID, &variant, &run.Seed, &started, &finished, &aborted); err != nil {
		return Run{}, err
	}
	run.Variant = Variant(variant)
	run.Aborted = aborted != 0

	t, err := time.Parse(timeFormat, started)
	if err != nil {
		return Run{}, fmt.Errorf("parse started_at: %w", err)
	}
	run.StartedAt = t
	if finished.Valid {
		t, err := time.Parse(timeFormat, finished.String)
		if err != nil {
			return Run{}, fmt.Errorf("parse finished_at: %w", err)
		}
		run.FinishedAt = t
	}
	return run, nil
}
