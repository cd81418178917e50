package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/compneuro-ncu/order-task/internal/config"
	"github.com/compneuro-ncu/order-task/internal/display"
	"github.com/compneuro-ncu/order-task/internal/engine"
	"github.com/compneuro-ncu/order-task/internal/stimulus"
	"github.com/compneuro-ncu/order-task/internal/store"
	"github.com/compneuro-ncu/order-task/internal/task"
	"github.com/compneuro-ncu/order-task/internal/timing"
)

// sessionOptions holds the flags shared by the run and train commands.
type sessionOptions struct {
	*RootOptions
	Config  string
	Subject string
	Seed    int64
	Stimuli string
}

func addSessionFlags(cmd *cobra.Command, opts *sessionOptions) {
	cmd.Flags().StringVar(&opts.Config, "config", "", "path to YAML config (defaults apply when omitted)")
	cmd.Flags().StringVar(&opts.Subject, "subject", "", "subject identifier (required)")
	cmd.Flags().Int64Var(&opts.Seed, "seed", 0, "randomization seed (0 derives one from the current time)")
	cmd.Flags().StringVar(&opts.Stimuli, "stimuli", "", "stimulus CSV path (overrides config)")
	_ = cmd.MarkFlagRequired("subject")
}

// loadSession resolves config, scheduling parameters, stimulus table and
// seed for a session command.
func loadSession(opts *sessionOptions) (*config.Config, task.Params, *stimulus.Table, int64, error) {
	var cfg *config.Config
	if opts.Config != "" {
		loaded, err := config.Load(opts.Config)
		if err != nil {
			return nil, task.Params{}, nil, 0, WrapExitError(ExitCommandError, "failed to load config", err)
		}
		cfg = loaded
	} else {
		cfg = config.Default()
		if err := cfg.Validate(); err != nil {
			return nil, task.Params{}, nil, 0, WrapExitError(ExitCommandError, "invalid default config", err)
		}
	}

	params, err := cfg.Params()
	if err != nil {
		return nil, task.Params{}, nil, 0, WrapExitError(ExitCommandError, "invalid timing parameters", err)
	}

	path := cfg.Task.StimulusFile
	if opts.Stimuli != "" {
		path = opts.Stimuli
	}
	table, err := stimulus.Load(path)
	if err != nil {
		return nil, task.Params{}, nil, 0, WrapExitError(ExitCommandError, "failed to load stimuli", err)
	}
	if err := table.Validate(params.NBlocks, params.NTrials); err != nil {
		return nil, task.Params{}, nil, 0, WrapExitError(ExitCommandError, "stimulus table does not fit the task", err)
	}

	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return cfg, params, table, seed, nil
}

// executeSession runs a prepared plan on the live display and flushes the
// run log afterwards. The flush happens even when the run was aborted:
// partial behavioral data from an interrupted scan is still data.
func executeSession(cmd *cobra.Command, cfg *config.Config, plan *task.Plan,
	mode engine.Mode, variant store.Variant, subject string, seed int64) error {

	engCfg := engine.Config{
		Mode:      mode,
		KeyYes:    cfg.Keys.Yes,
		KeyNo:     cfg.Keys.No,
		KeyPulse:  cfg.Keys.Pulse,
		KeyQuit:   cfg.Keys.Quit,
		TimeDigit: cfg.Timing.Digit,
		TimeInfo:  cfg.Timing.Info,
	}
	if mode == engine.ModeSelfPaced {
		engCfg.TimeFix = cfg.Training.Fix
		engCfg.TimeFeedback = cfg.Training.Feedback
		engCfg.Windows = cfg.Training.Windows
		engCfg.HoldToEnd = cfg.Training.HoldToEnd
	}

	pulses := engine.NewPulseLog()
	runner, err := engine.New(engCfg, plan, engine.Deps{
		Renderer: display.NewConsole(cmd.OutOrStdout(), cfg.Timing.RefreshRate),
		Keys:     display.NewKeyboard(cmd.InOrStdin()),
		Run:      timing.NewRunClock(),
		Glob:     timing.NewMonotonicClock(),
		Pulses:   pulses,
		Logger:   slog.Default(),
	})
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to set up run", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	started := time.Now().UTC()
	runErr := runner.Run(ctx)
	aborted := errors.Is(runErr, engine.ErrAborted) || errors.Is(runErr, context.Canceled)
	if runErr != nil && !aborted {
		return WrapExitError(ExitFailure, "run failed", runErr)
	}

	run := store.Run{
		ID:        store.NewRunID(),
		SubjectID: subject,
		Variant:   variant,
		Seed:      seed,
		StartedAt: started,
		Aborted:   aborted,
	}
	if !aborted {
		run.FinishedAt = time.Now().UTC()
	}
	if err := flushRun(cfg, run, runner.Log(), pulses); err != nil {
		slog.Error("failed to persist run", "run_id", run.ID, "error", err)
		return WrapExitError(ExitCommandError, "run finished but could not be saved", err)
	}

	slog.Info("run saved",
		"run_id", run.ID, "subject", subject,
		"trials", len(runner.Log().Records), "pulses", pulses.Len(),
		"aborted", aborted)

	if aborted {
		return ErrAborted
	}
	return nil
}

// flushRun persists the run to the database and writes the CSV exports.
func flushRun(cfg *config.Config, run store.Run, log *task.RunLog, pulses *engine.PulseLog) error {
	if dir := filepath.Dir(cfg.Paths.Database); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create database dir: %w", err)
		}
	}
	st, err := store.Open(cfg.Paths.Database)
	if err != nil {
		return err
	}
	defer st.Close()

	ctx := context.Background()
	if err := st.SaveRun(ctx, run, log, pulses.Snapshot()); err != nil {
		return err
	}

	if err := os.MkdirAll(cfg.Paths.LogDir, 0o755); err != nil {
		return fmt.Errorf("create log dir: %w", err)
	}
	behPath, pulsePath, err := st.ExportRun(ctx, run.ID, cfg.Paths.LogDir)
	if err != nil {
		return err
	}
	slog.Info("run exported", "behavioral", behPath, "pulses", pulsePath)
	return nil
}
