package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"time"

	"github.com/compneuro-ncu/order-task/internal/engine"
	"github.com/compneuro-ncu/order-task/internal/store"
	"github.com/compneuro-ncu/order-task/internal/task"
	"github.com/compneuro-ncu/order-task/internal/testutil"
	"github.com/compneuro-ncu/order-task/internal/timing"
)

// simLimitSeconds caps simulated time. A scenario whose script never
// satisfies a blocking wait would otherwise spin forever.
const simLimitSeconds = 3600.0

// Run executes a scenario on the simulated clock and evaluates its
// assertions. Execution errors (a malformed plan, the simulation cap) are
// returned; assertion failures and aborts land in the Result.
func Run(scenario *Scenario) (*Result, error) {
	plan, err := buildPlan(scenario)
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", scenario.Name, err)
	}

	clock := testutil.NewSimClock(1.0 / float64(scenario.RefreshRate))
	keys := testutil.NewScriptedKeys(clock.Glob(), toPresses(scenario.Script)...)
	recorder := &viewRecorder{clock: clock, limit: simLimitSeconds}
	pulses := engine.NewPulseLog()

	mode := engine.ModePlanned
	if scenario.Variant == VariantTraining {
		mode = engine.ModeSelfPaced
	}
	cfg := engine.Config{
		Mode:         mode,
		KeyYes:       scenario.Keys.Yes,
		KeyNo:        scenario.Keys.No,
		KeyPulse:     scenario.Keys.Pulse,
		KeyQuit:      scenario.Keys.Quit,
		TimeDigit:    scenario.Timing.Digit,
		TimeInfo:     scenario.Timing.Info,
		TimeFix:      scenario.Timing.Fix,
		TimeFeedback: scenario.Timing.Feedback,
		Windows:      scenario.Windows,
		HoldToEnd:    scenario.HoldToEnd,
	}
	runner, err := engine.New(cfg, plan, engine.Deps{
		Renderer: recorder,
		Keys:     keys,
		Run:      clock.Run(),
		Glob:     clock.Glob(),
		Pulses:   pulses,
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", scenario.Name, err)
	}

	result := NewResult(scenario.Name)
	switch err := runner.Run(context.Background()); {
	case errors.Is(err, engine.ErrAborted):
		result.Aborted = true
	case err != nil:
		return nil, fmt.Errorf("scenario %s: %w", scenario.Name, err)
	}

	result.Records = runner.Log().Records
	result.Info = runner.Log().Info
	result.Pulses = pulses.Snapshot()
	result.Views = recorder.views

	evaluate(scenario, result)

	if err := persistCheck(scenario, result, runner.Log()); err != nil {
		result.Fail("persistence round-trip: %v", err)
	}
	return result, nil
}

// buildPlan assembles the task plan directly from the scenario's explicit
// layout. No randomness: block order, trial order and ISI sequences are
// exactly as written.
func buildPlan(s *Scenario) (*task.Plan, error) {
	nTrials := len(s.Blocks[0].Trials)
	params := task.Params{
		NTrials:     nTrials,
		NBlocks:     len(s.Blocks) / 2,
		RefreshRate: s.RefreshRate,
		TimeDigit:   s.Timing.Digit,
		TimeInfo:    s.Timing.Info,
	}
	plan := &task.Plan{Params: params}

	var sched *timing.OnsetSchedule
	if s.Variant == VariantFMRI {
		isiSeconds := make([][]float64, len(s.Blocks))
		for i, b := range s.Blocks {
			row := make([]float64, len(b.ISIFrames))
			for k, f := range b.ISIFrames {
				row[k] = timing.FramesToSeconds(f, s.RefreshRate)
			}
			isiSeconds[i] = row
		}

		// Every block must occupy the same total duration, otherwise the
		// fixed inter-block padding of the onset schedule is meaningless.
		budget := sumFrames(s.Blocks[0].ISIFrames)
		for i, b := range s.Blocks {
			if sumFrames(b.ISIFrames) != budget {
				return nil, fmt.Errorf("blocks[%d]: isi_frames sum %d, block 0 has %d (blocks must have equal duration)",
					i, sumFrames(b.ISIFrames), budget)
			}
		}
		plan.TimeBlock = timing.FramesToSeconds(budget, s.RefreshRate) + float64(nTrials)*s.Timing.Digit

		var err error
		sched, err = timing.GenerateOnsets(isiSeconds, plan.TimeBlock, s.Timing.Info, s.Timing.Digit, nTrials)
		if err != nil {
			return nil, err
		}
	}

	for i, b := range s.Blocks {
		blk := task.Block{
			Index:     i,
			Pair:      i/2 + 1,
			Condition: task.Condition(b.Condition),
			Group:     b.Group,
			Trials:    make([]task.Trial, len(b.Trials)),
		}
		for k, tr := range b.Trials {
			blk.Trials[k] = task.Trial{
				Group:    b.Group,
				DigitL:   tr.DigitL,
				DigitC:   tr.DigitC,
				DigitR:   tr.DigitR,
				IsTarget: tr.IsTarget,
				IsOrder:  tr.IsOrder,
			}
			if sched != nil {
				blk.Trials[k].ISISeconds = timing.FramesToSeconds(b.ISIFrames[k], s.RefreshRate)
				blk.Trials[k].OnsetFixPlan = sched.Fixation[i][k]
				blk.Trials[k].OnsetDigPlan = sched.Digit[i][k]
			}
		}
		plan.Blocks = append(plan.Blocks, blk)
	}
	return plan, nil
}

// persistCheck round-trips the run log through an in-memory run database
// and verifies the counts survive.
func persistCheck(s *Scenario, result *Result, log *task.RunLog) error {
	st, err := store.Open(":memory:")
	if err != nil {
		return err
	}
	defer st.Close()

	ctx := context.Background()
	run := store.Run{
		ID:        store.NewRunID(),
		SubjectID: "harness",
		Variant:   store.Variant(s.Variant),
		StartedAt: time.Now().UTC().Truncate(time.Second),
		Aborted:   result.Aborted,
	}
	if err := st.SaveRun(ctx, run, log, result.Pulses); err != nil {
		return err
	}

	records, err := st.Trials(ctx, run.ID)
	if err != nil {
		return err
	}
	if len(records) != len(result.Records) {
		return fmt.Errorf("stored %d trials, run produced %d", len(records), len(result.Records))
	}
	pulses, err := st.Pulses(ctx, run.ID)
	if err != nil {
		return err
	}
	if len(pulses) != len(result.Pulses) {
		return fmt.Errorf("stored %d pulses, run produced %d", len(pulses), len(result.Pulses))
	}
	return nil
}

func toPresses(script []KeyStep) []testutil.KeyPress {
	out := make([]testutil.KeyPress, len(script))
	for i, s := range script {
		out[i] = testutil.KeyPress{At: s.At, Key: s.Key}
	}
	return out
}

func sumFrames(frames []int) int {
	total := 0
	for _, f := range frames {
		total += f
	}
	return total
}

// viewRecorder records every rendered view, advances the simulated clock
// one frame per pass, and fails the run if simulated time passes the cap.
type viewRecorder struct {
	clock *testutil.SimClock
	limit float64
	views []engine.View
}

func (r *viewRecorder) Render(v engine.View) error {
	if now := r.clock.Glob().Now(); now > r.limit || math.IsInf(now, 1) {
		return fmt.Errorf("simulation exceeded %.0fs, scenario script never unblocks the run", r.limit)
	}
	r.views = append(r.views, v)
	r.clock.Tick()
	return nil
}
