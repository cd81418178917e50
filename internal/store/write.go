package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/text/unicode/norm"

	"github.com/compneuro-ncu/order-task/internal/engine"
	"github.com/compneuro-ncu/order-task/internal/task"
)

// NewRunID returns a fresh run identifier. UUIDv7 keeps ids time-ordered,
// which makes run listings sort naturally.
func NewRunID() string {
	return uuid.Must(uuid.NewV7()).String()
}

// NormalizeSubjectID canonicalizes an operator-typed subject id: trimmed
// and NFC-normalized, so the same id typed on different keyboards (composed
// vs decomposed accents) always matches in queries and file names.
func NormalizeSubjectID(id string) string {
	return norm.NFC.String(strings.TrimSpace(id))
}

// SaveRun persists a completed (or aborted) run in a single transaction:
// the run row, every trial record, instruction marks, and scanner pulses.
//
// Uses ON CONFLICT(id) DO NOTHING on the run row for idempotency - saving
// the same run twice is a no-op, never a partial duplicate.
func (s *Store) SaveRun(ctx context.Context, run Run, log *task.RunLog, pulses []engine.Pulse) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("save run: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	var finished sql.NullString
	if !run.FinishedAt.IsZero() {
		finished = sql.NullString{String: run.FinishedAt.UTC().Format(timeFormat), Valid: true}
	}

	res, err := tx.ExecContext(ctx, `
		INSERT INTO runs
		(id, subject_id, variant, seed, started_at, finished_at, aborted)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		run.ID,
		NormalizeSubjectID(run.SubjectID),
		string(run.Variant),
		run.Seed,
		run.StartedAt.UTC().Format(timeFormat),
		finished,
		boolToInt(run.Aborted),
	)
	if err != nil {
		return fmt.Errorf("save run: insert run: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("save run: rows affected: %w", err)
	}
	if affected == 0 {
		// Run already saved; the earlier transaction wrote the children.
		return tx.Commit()
	}

	if err := insertTrials(ctx, tx, run.ID, log.Records); err != nil {
		return fmt.Errorf("save run: %w", err)
	}
	if err := insertInfoMarks(ctx, tx, run.ID, log.Info); err != nil {
		return fmt.Errorf("save run: %w", err)
	}
	if err := insertPulses(ctx, tx, run.ID, pulses); err != nil {
		return fmt.Errorf("save run: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("save run: commit: %w", err)
	}
	return nil
}

func insertTrials(ctx context.Context, tx *sql.Tx, runID string, records []task.Record) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO trials
		(run_id, seq, condition, pair, block, stim_group,
		 digit_l, digit_c, digit_r, is_target, is_order, isi_seconds,
		 onset_fix_plan, onset_dig_plan,
		 onset_fix, onset_fix_glob, onset_dig, onset_dig_glob,
		 response_key, rt, correct)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("prepare trials: %w", err)
	}
	defer stmt.Close()

	for seq, r := range records {
		_, err := stmt.ExecContext(ctx,
			runID, seq,
			string(r.Condition), r.Pair, r.Block, r.Trial.Group,
			r.Trial.DigitL, r.Trial.DigitC, r.Trial.DigitR,
			r.Trial.IsTarget, r.Trial.IsOrder, r.Trial.ISISeconds,
			r.Trial.OnsetFixPlan, r.Trial.OnsetDigPlan,
			r.OnsetFix, r.OnsetFixGlob, r.OnsetDig, r.OnsetDigGlob,
			r.Response.Key, r.Response.RT, r.Response.Correct,
		)
		if err != nil {
			return fmt.Errorf("insert trial %d: %w", seq, err)
		}
	}
	return nil
}

func insertInfoMarks(ctx context.Context, tx *sql.Tx, runID string, marks []task.InfoMark) error {
	for seq, m := range marks {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO info_marks
			(run_id, seq, condition, block, onset, onset_glob)
			VALUES (?, ?, ?, ?, ?, ?)
		`, runID, seq, string(m.Condition), m.Block, m.Onset, m.OnsetGlob)
		if err != nil {
			return fmt.Errorf("insert info mark %d: %w", seq, err)
		}
	}
	return nil
}

func insertPulses(ctx context.Context, tx *sql.Tx, runID string, pulses []engine.Pulse) error {
	for _, p := range pulses {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO pulses
			(run_id, idx, onset, spacing)
			VALUES (?, ?, ?, ?)
		`, runID, p.Index, p.Onset, p.Spacing)
		if err != nil {
			return fmt.Errorf("insert pulse %d: %w", p.Index, err)
		}
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
