package store

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/compneuro-ncu/order-task/internal/engine"
	"github.com/compneuro-ncu/order-task/internal/task"
)

// trialHeader is the wide behavioral CSV layout consumed by the analysis
// pipeline. One row per executed trial, planned and actual onsets side by
// side so quantization error is inspectable without joins.
var trialHeader = []string{
	"condition", "pair", "block", "group",
	"digit_l", "digit_c", "digit_r", "is_target", "is_order", "isi_seconds",
	"onset_fix_plan", "onset_dig_plan",
	"onset_fix", "onset_fix_glob", "onset_dig", "onset_dig_glob",
	"response_key", "rt", "correct",
}

var pulseHeader = []string{"index", "onset", "spacing"}

// WriteTrialsCSV writes trial records as behavioral CSV.
func WriteTrialsCSV(w io.Writer, records []task.Record) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(trialHeader); err != nil {
		return fmt.Errorf("write trials csv: %w", err)
	}
	for _, r := range records {
		row := []string{
			string(r.Condition),
			strconv.Itoa(r.Pair),
			strconv.Itoa(r.Block),
			strconv.Itoa(r.Trial.Group),
			r.Trial.DigitL, r.Trial.DigitC, r.Trial.DigitR,
			strconv.Itoa(r.Trial.IsTarget),
			strconv.Itoa(r.Trial.IsOrder),
			formatSeconds(r.Trial.ISISeconds),
			formatSeconds(r.Trial.OnsetFixPlan),
			formatSeconds(r.Trial.OnsetDigPlan),
			formatSeconds(r.OnsetFix),
			formatSeconds(r.OnsetFixGlob),
			formatSeconds(r.OnsetDig),
			formatSeconds(r.OnsetDigGlob),
			r.Response.Key,
			formatSeconds(r.Response.RT),
			strconv.Itoa(r.Response.Correct),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write trials csv: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WritePulsesCSV writes recorded scanner pulses as CSV.
func WritePulsesCSV(w io.Writer, pulses []engine.Pulse) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(pulseHeader); err != nil {
		return fmt.Errorf("write pulses csv: %w", err)
	}
	for _, p := range pulses {
		row := []string{
			strconv.Itoa(p.Index),
			formatSeconds(p.Onset),
			formatSeconds(p.Spacing),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write pulses csv: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// ExportRun writes a stored run to <dir>/<subject>_<variant>_<shortid>_beh.csv
// and ..._pulses.csv. Returns the two paths written.
func (s *Store) ExportRun(ctx context.Context, runID, dir string) (behPath, pulsePath string, err error) {
	run, err := s.GetRun(ctx, runID)
	if err != nil {
		return "", "", err
	}
	records, err := s.Trials(ctx, runID)
	if err != nil {
		return "", "", err
	}
	pulses, err := s.Pulses(ctx, runID)
	if err != nil {
		return "", "", err
	}

	prefix := ExportPrefix(run)
	behPath = filepath.Join(dir, prefix+"_beh.csv")
	pulsePath = filepath.Join(dir, prefix+"_pulses.csv")

	if err := writeFileCSV(behPath, func(w io.Writer) error {
		return WriteTrialsCSV(w, records)
	}); err != nil {
		return "", "", err
	}
	if err := writeFileCSV(pulsePath, func(w io.Writer) error {
		return WritePulsesCSV(w, pulses)
	}); err != nil {
		return "", "", err
	}
	return behPath, pulsePath, nil
}

// ExportPrefix returns the file-name stem for a run's export files.
func ExportPrefix(run Run) string {
	subject := sanitizeFileName(NormalizeSubjectID(run.SubjectID))
	if subject == "" {
		subject = "unknown"
	}
	short := run.ID
	if len(short) > 8 {
		short = short[:8]
	}
	return fmt.Sprintf("%s_%s_%s", subject, run.Variant, short)
}

// sanitizeFileName keeps subject ids filesystem-safe without losing
// identity: anything outside a conservative set becomes '-'.
func sanitizeFileName(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '-' || r == '_' || r == '.':
			return r
		default:
			return '-'
		}
	}, s)
}

func writeFileCSV(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("export: %w", err)
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("export: %w", err)
	}
	return nil
}

// formatSeconds renders timing floats with stable, minimal precision so
// exports diff cleanly across runs of the exporter.
func formatSeconds(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
