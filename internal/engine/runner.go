package engine

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/compneuro-ncu/order-task/internal/task"
	"github.com/compneuro-ncu/order-task/internal/timing"
)

// Mode selects how the executor paces trials.
type Mode int

const (
	// ModePlanned paces every event against the precomputed onset schedule
	// anchored to the first scanner pulse (fMRI variant).
	ModePlanned Mode = iota

	// ModeSelfPaced sets each deadline as the block unfolds: fixed fixation
	// duration, per-pair response windows, optional feedback screens
	// (training variant). Deadlines are still absolute run-clock targets
	// once set.
	ModeSelfPaced
)

// Participant-facing messages, matching the original study protocol.
const (
	msgReady  = "Gdy będziesz gotowy(-wa) naciśnij dowolny przycisk."
	msgBegin  = "Zadanie rozpocznie się za moment."
	msgThanks = "Dziękujemy za udział w badaniu!"
)

// Config parameterizes one executor run. One executor serves both task
// variants; the mode and the training-only fields select the behavior.
type Config struct {
	Mode Mode

	// Key bindings. Yes/No are the response keys, Pulse delivers scanner
	// pulses, Quit aborts unconditionally.
	KeyYes   string
	KeyNo    string
	KeyPulse string
	KeyQuit  string

	// TimeDigit is the digit display duration; in planned mode it is also
	// the response window. TimeInfo is the instruction-screen duration.
	TimeDigit float64
	TimeInfo  float64

	// Self-paced fields.
	TimeFix      float64   // fixation duration per trial
	TimeFeedback float64   // win/lose screen duration
	Windows      []float64 // response window per block pair (may be +Inf)
	HoldToEnd    []bool    // keep digits visible until window end
}

// Deps are the executor's external collaborators: the rendering/input
// boundary, the two clocks, and the pulse log.
type Deps struct {
	Renderer Renderer
	Keys     KeySource
	Run      ResettableClock
	Glob     timing.Clock
	Pulses   *PulseLog
	Logger   *slog.Logger
}

// Runner executes a plan. It owns the run log exclusively; the pulse log is
// shared (see PulseLog).
type Runner struct {
	cfg      Config
	plan     *task.Plan
	renderer Renderer
	keys     KeySource
	run      ResettableClock
	glob     timing.Clock
	pulses   *PulseLog
	adaptive *AdaptiveController
	logger   *slog.Logger
	log      task.RunLog
}

// New creates a Runner for the given plan.
func New(cfg Config, plan *task.Plan, deps Deps) (*Runner, error) {
	if plan == nil || len(plan.Blocks) == 0 {
		return nil, fmt.Errorf("plan is empty")
	}
	if deps.Renderer == nil || deps.Keys == nil || deps.Run == nil || deps.Glob == nil || deps.Pulses == nil {
		return nil, fmt.Errorf("all executor dependencies must be set")
	}
	if cfg.KeyYes == "" || cfg.KeyNo == "" || cfg.KeyQuit == "" {
		return nil, fmt.Errorf("yes, no and quit keys must be bound")
	}
	if cfg.Mode == ModePlanned && cfg.KeyPulse == "" {
		return nil, fmt.Errorf("planned mode requires a pulse key")
	}

	r := &Runner{
		cfg:      cfg,
		plan:     plan,
		renderer: deps.Renderer,
		keys:     deps.Keys,
		run:      deps.Run,
		glob:     deps.Glob,
		pulses:   deps.Pulses,
		logger:   deps.Logger,
	}
	if r.logger == nil {
		r.logger = slog.Default()
	}

	if cfg.Mode == ModeSelfPaced {
		pairs := len(plan.Blocks) / 2
		if len(cfg.Windows) < pairs || len(cfg.HoldToEnd) < pairs {
			return nil, fmt.Errorf("self-paced mode needs %d window and hold entries", pairs)
		}
		r.adaptive = NewAdaptiveController(plan.Params.NTrials)
	}
	return r, nil
}

// Log returns the run log accumulated so far. Valid after Run returns, even
// when the run was aborted: flushing partial data is the caller's job.
func (r *Runner) Log() *task.RunLog {
	return &r.log
}

// Adaptive returns the adaptive controller, or nil in planned mode.
func (r *Runner) Adaptive() *AdaptiveController {
	return r.adaptive
}

// Run executes the plan to completion, early termination, or abort.
func (r *Runner) Run(ctx context.Context) error {
	if err := r.awaitReady(ctx); err != nil {
		return err
	}

	if r.cfg.Mode == ModePlanned {
		if err := r.awaitFirstPulse(ctx); err != nil {
			return err
		}
		if err := r.runPlanned(ctx); err != nil {
			return err
		}
	} else {
		// No scanner in training: the run clock anchors to task start.
		r.run.Reset()
		if err := r.runSelfPaced(ctx); err != nil {
			return err
		}
	}

	// Thank-you screen, held for the instruction duration.
	return r.awaitDeadline(ctx, View{Kind: ViewText, Message: msgThanks}, r.run.Now()+r.cfg.TimeInfo)
}

// awaitReady blocks until the participant presses a response key. This is an
// intentional hard block on operator action; only the quit key cancels it.
func (r *Runner) awaitReady(ctx context.Context) error {
	view := View{Kind: ViewText, Message: msgReady}
	for {
		if err := r.pass(ctx, view); err != nil {
			return err
		}
		press, _, err := r.drain()
		if err != nil {
			return err
		}
		if press != task.PressNone {
			r.logger.Info("participant ready")
			return nil
		}
	}
}

// awaitFirstPulse blocks until the first scanner pulse and resets the run
// clock on it, synchronizing the whole onset schedule to acquisition start.
func (r *Runner) awaitFirstPulse(ctx context.Context) error {
	r.logger.Info("waiting for scanner trigger")
	view := View{Kind: ViewText, Message: msgBegin}
	seen := r.pulses.Len()
	for {
		if err := r.pass(ctx, view); err != nil {
			return err
		}
		if _, _, err := r.drain(); err != nil {
			return err
		}
		if r.pulses.Len() > seen {
			r.run.Reset()
			r.logger.Info("first pulse received, run clock anchored")
			return nil
		}
	}
}

func (r *Runner) runPlanned(ctx context.Context) error {
	for _, blk := range r.plan.Blocks {
		r.logger.Info("starting block",
			"pair", blk.Pair, "condition", string(blk.Condition), "group", blk.Group)

		r.log.AddInfo(task.InfoMark{
			Condition: blk.Condition,
			Block:     blk.Index,
			Onset:     r.run.Now(),
			OnsetGlob: r.glob.Now(),
		})

		// Instruction screen is held by polling against the block's first
		// planned fixation onset, not a fixed sleep.
		instr := View{Kind: ViewInstruction, Condition: blk.Condition}
		if err := r.awaitDeadline(ctx, instr, blk.Trials[0].OnsetFixPlan); err != nil {
			return err
		}

		for _, tr := range blk.Trials {
			if err := r.runPlannedTrial(ctx, blk, tr); err != nil {
				return err
			}
		}
	}
	return nil
}

func (r *Runner) runPlannedTrial(ctx context.Context, blk task.Block, tr task.Trial) error {
	rec := task.Record{Condition: blk.Condition, Pair: blk.Pair, Block: blk.Index, Trial: tr}

	// FIXATION: crosshair until the planned digit onset.
	rec.OnsetFix = r.run.Now()
	rec.OnsetFixGlob = r.glob.Now()
	if err := r.awaitDeadline(ctx, View{Kind: ViewFixation}, tr.OnsetDigPlan); err != nil {
		return err
	}

	// STIMULUS_VISIBLE / AWAIT_RESPONSE / HOLD_REMAINDER: the window and the
	// hold share one planned deadline, so a single loop serves both. The RT
	// reference is the run clock at stimulus onset, not poll start.
	rec.OnsetDig = r.run.Now()
	rec.OnsetDigGlob = r.glob.Now()
	press, key, rt, err := r.presentDigits(ctx, digitView(tr), rec.OnsetDig, tr.OnsetDigPlan+r.cfg.TimeDigit, true)
	if err != nil {
		return err
	}

	// SCORING.
	rec.Response = task.Score(blk.Condition, tr, press, key, rt)
	r.log.AddRecord(rec)
	r.logger.Info("trial done",
		"digits", tr.DigitL+" "+tr.DigitC+" "+tr.DigitR,
		"correct", rec.Response.Correct,
		"rt", rec.Response.RT,
		"key", rec.Response.Key)
	return nil
}

func (r *Runner) runSelfPaced(ctx context.Context) error {
	pairs := len(r.plan.Blocks) / 2
	for pair := 0; pair < pairs && !r.adaptive.ShouldStop(); pair++ {
		for _, blk := range r.plan.Blocks[2*pair : 2*pair+2] {
			if err := r.runSelfPacedBlock(ctx, blk, pair); err != nil {
				return err
			}
		}
	}
	return nil
}

func (r *Runner) runSelfPacedBlock(ctx context.Context, blk task.Block, pair int) error {
	r.logger.Info("starting block",
		"pair", blk.Pair, "condition", string(blk.Condition),
		"feedback", r.adaptive.FeedbackEnabled())

	r.log.AddInfo(task.InfoMark{
		Condition: blk.Condition,
		Block:     blk.Index,
		Onset:     r.run.Now(),
		OnsetGlob: r.glob.Now(),
	})

	instr := View{Kind: ViewInstruction, Condition: blk.Condition}
	if err := r.awaitDeadline(ctx, instr, r.run.Now()+r.cfg.TimeInfo); err != nil {
		return err
	}

	window := r.cfg.Windows[pair]
	hold := r.cfg.HoldToEnd[pair]
	corrSum := 0

	for _, tr := range blk.Trials {
		rec := task.Record{Condition: blk.Condition, Pair: blk.Pair, Block: blk.Index, Trial: tr}

		rec.OnsetFix = r.run.Now()
		rec.OnsetFixGlob = r.glob.Now()
		if err := r.awaitDeadline(ctx, View{Kind: ViewFixation}, r.run.Now()+r.cfg.TimeFix); err != nil {
			return err
		}

		rec.OnsetDig = r.run.Now()
		rec.OnsetDigGlob = r.glob.Now()
		deadline := math.Inf(1)
		if !math.IsInf(window, 1) {
			deadline = rec.OnsetDig + window
		}
		press, key, rt, err := r.presentDigits(ctx, digitView(tr), rec.OnsetDig, deadline, hold)
		if err != nil {
			return err
		}

		rec.Response = task.Score(blk.Condition, tr, press, key, rt)
		r.log.AddRecord(rec)
		r.logger.Info("trial done",
			"digits", tr.DigitL+" "+tr.DigitC+" "+tr.DigitR,
			"correct", rec.Response.Correct,
			"rt", rec.Response.RT,
			"key", rec.Response.Key)

		if r.adaptive.FeedbackEnabled() {
			fb := View{Kind: ViewFeedback, Win: rec.Response.Correct == 1}
			if err := r.awaitDeadline(ctx, fb, r.run.Now()+r.cfg.TimeFeedback); err != nil {
				return err
			}
		}
		if blk.Condition == task.ConditionOrder && rec.Response.Correct == 1 {
			corrSum++
		}
	}

	if blk.Condition == task.ConditionOrder {
		r.adaptive.Evaluate(corrSum, blk.Pair)
		r.logger.Info("adaptive check",
			"pair", blk.Pair, "correct", corrSum,
			"feedback", r.adaptive.FeedbackEnabled(),
			"stop", r.adaptive.ShouldStop())
	}
	return nil
}

// awaitDeadline renders view each pass until the run clock reaches target.
// A target already in the past exits without waiting. Keys pressed during the
// wait are drained (quit and pulse still act; stray response keys are
// discarded so they cannot leak into the next response window).
func (r *Runner) awaitDeadline(ctx context.Context, view View, target float64) error {
	for r.run.Now() < target {
		if err := r.pass(ctx, view); err != nil {
			return err
		}
		if _, _, err := r.drain(); err != nil {
			return err
		}
	}
	return nil
}

// presentDigits runs the stimulus phase: renders the digits, captures the
// first response key (timestamped against rtOnset on the run clock), and
// keeps the stimulus visible until the absolute deadline when hold is set.
// Without hold, the phase ends as soon as a response arrives. deadline may be
// +Inf (unlimited window), in which case a response is the only normal exit.
func (r *Runner) presentDigits(ctx context.Context, view View, rtOnset, deadline float64, hold bool) (task.Press, string, float64, error) {
	press := task.PressNone
	key := ""
	rt := 0.0

	for {
		if r.run.Now() >= deadline {
			break
		}
		if press != task.PressNone && !hold {
			break
		}
		if err := r.pass(ctx, view); err != nil {
			return press, key, rt, err
		}
		p, k, err := r.drain()
		if err != nil {
			return press, key, rt, err
		}
		if p != task.PressNone && press == task.PressNone {
			press, key = p, k
			rt = r.run.Now() - rtOnset
		}
	}
	return press, key, rt, nil
}

// pass renders one frame and checks for cancellation.
func (r *Runner) pass(ctx context.Context, view View) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := r.renderer.Render(view); err != nil {
		return fmt.Errorf("render: %w", err)
	}
	return nil
}

// drain empties the key source, dispatching global keys and returning the
// first response key seen this pass (later ones in the same pass are
// discarded).
func (r *Runner) drain() (task.Press, string, error) {
	press := task.PressNone
	key := ""
	for {
		k, ok := r.keys.Poll()
		if !ok {
			return press, key, nil
		}
		switch k {
		case r.cfg.KeyQuit:
			return press, key, ErrAborted
		case r.cfg.KeyPulse:
			// Pulses are stamped on the free-running clock, independent
			// of the trial loop's state.
			r.pulses.Append(r.glob.Now())
		case r.cfg.KeyYes:
			if press == task.PressNone {
				press, key = task.PressYes, k
			}
		case r.cfg.KeyNo:
			if press == task.PressNone {
				press, key = task.PressNo, k
			}
		}
	}
}

func digitView(tr task.Trial) View {
	return View{Kind: ViewDigits, DigitL: tr.DigitL, DigitC: tr.DigitC, DigitR: tr.DigitR}
}
