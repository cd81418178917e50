package engine

import (
	"context"
	"io"
	"log/slog"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/compneuro-ncu/order-task/internal/stimulus"
	"github.com/compneuro-ncu/order-task/internal/task"
	"github.com/compneuro-ncu/order-task/internal/testutil"
)

const frame = 1.0 / 60.0

// plannedTestPlan is a hand-scheduled two-block plan (one pair): control with
// ISIs 3s,5s then order with 5s,3s. timeBlock = 2*(4+2) = 12s, timeInfo = 4s.
func plannedTestPlan() *task.Plan {
	p := task.Params{
		NTrials: 2, NBlocks: 1, RefreshRate: 60,
		TimeDigit: 2, TimeInfo: 4,
		MinISIFrames: 180, MaxISIFrames: 300, ChunkFrames: 30,
	}
	return &task.Plan{
		Params:    p,
		TimeBlock: 12,
		Blocks: []task.Block{
			{
				Index: 0, Pair: 1, Condition: task.ConditionControl, Group: 1,
				Trials: []task.Trial{
					{Group: 1, DigitL: "1", DigitC: "2", DigitR: "3", IsTarget: 1, IsOrder: 1,
						ISISeconds: 3, OnsetFixPlan: 4, OnsetDigPlan: 7},
					{Group: 1, DigitL: "9", DigitC: "5", DigitR: "2", IsTarget: 0, IsOrder: 0,
						ISISeconds: 5, OnsetFixPlan: 9, OnsetDigPlan: 14},
				},
			},
			{
				Index: 1, Pair: 1, Condition: task.ConditionOrder, Group: 1,
				Trials: []task.Trial{
					{Group: 1, DigitL: "3", DigitC: "2", DigitR: "1", IsTarget: 0, IsOrder: -1,
						ISISeconds: 5, OnsetFixPlan: 20, OnsetDigPlan: 25},
					{Group: 1, DigitL: "4", DigitC: "4", DigitR: "4", IsTarget: 0, IsOrder: 0,
						ISISeconds: 3, OnsetFixPlan: 27, OnsetDigPlan: 30},
				},
			},
		},
	}
}

func plannedConfig() Config {
	return Config{
		Mode:   ModePlanned,
		KeyYes: "d", KeyNo: "a", KeyPulse: "s", KeyQuit: "q",
		TimeDigit: 2, TimeInfo: 4,
	}
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRunner_PlannedRun(t *testing.T) {
	clock := testutil.NewSimClock(frame)
	renderer := testutil.NewSimRenderer[View](clock)
	keys := testutil.NewScriptedKeys(clock.Glob(),
		testutil.KeyPress{At: 0, Key: "d"},    // ready check
		testutil.KeyPress{At: 0.5, Key: "s"},  // first pulse, anchors run clock at glob 0.5
		testutil.KeyPress{At: 3.0, Key: "s"},  // stray pulses during the instruction screen
		testutil.KeyPress{At: 4.0, Key: "s"},  //
		testutil.KeyPress{At: 8.0, Key: "d"},  // yes ~0.5s into trial 0 digits (dig onset run 7.0)
		testutil.KeyPress{At: 26.0, Key: "a"}, // no ~0.5s into order trial 0 (dig onset run 25.0)
		testutil.KeyPress{At: 31.0, Key: "a"}, // no ~0.5s into order trial 1 (dig onset run 30.0)
	)
	pulses := NewPulseLog()

	r, err := New(plannedConfig(), plannedTestPlan(), Deps{
		Renderer: renderer, Keys: keys,
		Run: clock.Run(), Glob: clock.Glob(),
		Pulses: pulses, Logger: quietLogger(),
	})
	require.NoError(t, err)

	require.NoError(t, r.Run(context.Background()))
	assert.Zero(t, keys.Pending(), "every scripted key should have been consumed")

	log := r.Log()
	require.Len(t, log.Records, 4)
	require.Len(t, log.Info, 2)

	// Trial 0: control, target present, yes pressed -> correct, rt ~0.5s.
	rec := log.Records[0]
	assert.Equal(t, task.ConditionControl, rec.Condition)
	assert.Equal(t, 1, rec.Response.Correct)
	assert.Equal(t, "d", rec.Response.Key)
	assert.InDelta(t, 0.5, rec.Response.RT, 0.1)

	// Trial 1: no response -> timeout sentinel.
	rec = log.Records[1]
	assert.Equal(t, -1, rec.Response.Correct)
	assert.Zero(t, rec.Response.RT)
	assert.Empty(t, rec.Response.Key)

	// Order trial 0: descending sequence, "no" -> incorrect.
	rec = log.Records[2]
	assert.Equal(t, task.ConditionOrder, rec.Condition)
	assert.Equal(t, 0, rec.Response.Correct)

	// Order trial 1: unordered, "no" -> correct.
	rec = log.Records[3]
	assert.Equal(t, 1, rec.Response.Correct)
	assert.Equal(t, "a", rec.Response.Key)

	// Actual digit onsets stay phase-locked to the plan.
	for i, want := range []float64{7, 14, 25, 30} {
		assert.InDelta(t, want, log.Records[i].OnsetDig, 3*frame, "record %d", i)
	}

	// Pulse log: first pulse plus the two strays, spacing from onsets.
	snap := pulses.Snapshot()
	require.Len(t, snap, 3)
	assert.InDelta(t, 0.5, snap[0].Onset, 2*frame)
	assert.Zero(t, snap[0].Spacing)
	assert.InDelta(t, 3.0, snap[1].Onset, 2*frame)
	assert.InDelta(t, 2.5, snap[1].Spacing, 4*frame)
	assert.InDelta(t, 4.0, snap[2].Onset, 2*frame)
}

func TestRunner_PlannedRun_ViewOrdering(t *testing.T) {
	clock := testutil.NewSimClock(frame)
	renderer := testutil.NewSimRenderer[View](clock)
	keys := testutil.NewScriptedKeys(clock.Glob(),
		testutil.KeyPress{At: 0, Key: "d"},
		testutil.KeyPress{At: 0.5, Key: "s"},
	)

	r, err := New(plannedConfig(), plannedTestPlan(), Deps{
		Renderer: renderer, Keys: keys,
		Run: clock.Run(), Glob: clock.Glob(),
		Pulses: NewPulseLog(), Logger: quietLogger(),
	})
	require.NoError(t, err)
	require.NoError(t, r.Run(context.Background()))

	// The state machine fixes the order: text, instruction, fixation,
	// digits. First occurrence of each kind must respect it.
	first := map[ViewKind]int{}
	for i, v := range renderer.Views() {
		if _, seen := first[v.Kind]; !seen {
			first[v.Kind] = i
		}
	}
	assert.Less(t, first[ViewText], first[ViewInstruction])
	assert.Less(t, first[ViewInstruction], first[ViewFixation])
	assert.Less(t, first[ViewFixation], first[ViewDigits])
}

func TestRunner_QuitKeyAborts(t *testing.T) {
	clock := testutil.NewSimClock(frame)
	renderer := testutil.NewSimRenderer[View](clock)
	keys := testutil.NewScriptedKeys(clock.Glob(),
		testutil.KeyPress{At: 0, Key: "d"},
		testutil.KeyPress{At: 0.5, Key: "s"},
		testutil.KeyPress{At: 2.0, Key: "q"}, // during the first instruction screen
	)

	r, err := New(plannedConfig(), plannedTestPlan(), Deps{
		Renderer: renderer, Keys: keys,
		Run: clock.Run(), Glob: clock.Glob(),
		Pulses: NewPulseLog(), Logger: quietLogger(),
	})
	require.NoError(t, err)

	err = r.Run(context.Background())
	require.ErrorIs(t, err, ErrAborted)

	// Partial data stays available for the best-effort flush.
	assert.Len(t, r.Log().Info, 1)
	assert.Empty(t, r.Log().Records)
}

func TestRunner_ContextCancellation(t *testing.T) {
	clock := testutil.NewSimClock(frame)
	renderer := testutil.NewSimRenderer[View](clock)
	keys := testutil.NewScriptedKeys(clock.Glob())

	r, err := New(plannedConfig(), plannedTestPlan(), Deps{
		Renderer: renderer, Keys: keys,
		Run: clock.Run(), Glob: clock.Glob(),
		Pulses: NewPulseLog(), Logger: quietLogger(),
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, r.Run(ctx), context.Canceled)
}

// slowRenderer simulates a display where every draw takes several frame
// periods. Non-slip timing must keep digit onsets locked to the plan instead
// of accumulating the delay.
type slowRenderer struct {
	clock *testutil.SimClock
	cost  float64
}

func (s *slowRenderer) Render(View) error {
	s.clock.Advance(s.cost)
	return nil
}

func TestRunner_SlowFramesDoNotAccumulateDrift(t *testing.T) {
	clock := testutil.NewSimClock(frame)
	renderer := &slowRenderer{clock: clock, cost: 5 * frame}
	keys := testutil.NewScriptedKeys(clock.Glob(),
		testutil.KeyPress{At: 0, Key: "d"},
		testutil.KeyPress{At: 0.5, Key: "s"},
	)

	r, err := New(plannedConfig(), plannedTestPlan(), Deps{
		Renderer: renderer, Keys: keys,
		Run: clock.Run(), Glob: clock.Glob(),
		Pulses: NewPulseLog(), Logger: quietLogger(),
	})
	require.NoError(t, err)
	require.NoError(t, r.Run(context.Background()))

	log := r.Log()
	require.Len(t, log.Records, 4)

	// Every onset is at most one slow draw behind its plan - including the
	// last trial, which would be ~20 frames late if delays accumulated.
	for i, want := range []float64{7, 14, 25, 30} {
		assert.GreaterOrEqual(t, log.Records[i].OnsetDig+1e-9, want, "record %d early", i)
		assert.InDelta(t, want, log.Records[i].OnsetDig, 6*frame, "record %d drifted", i)
	}
}

func selfPacedTable(t *testing.T) *stimulus.Table {
	t.Helper()
	table, err := stimulus.Read(strings.NewReader(
		"block,digit_l,digit_c,digit_r,is_target,is_order\n" +
			"1,1,2,3,1,1\n" +
			"1,9,5,2,0,0\n"))
	require.NoError(t, err)
	return table
}

func TestRunner_SelfPacedRun(t *testing.T) {
	p := task.Params{
		NTrials: 2, NBlocks: 1, RefreshRate: 60,
		TimeDigit: 2, TimeInfo: 1,
		MinISIFrames: 180, MaxISIFrames: 300, ChunkFrames: 30,
	}
	plan, err := task.BuildSelfPaced(p, selfPacedTable(t), testutil.Identity(), 2)
	require.NoError(t, err)

	clock := testutil.NewSimClock(frame)
	renderer := testutil.NewSimRenderer[View](clock)
	keys := testutil.NewScriptedKeys(clock.Glob(),
		testutil.KeyPress{At: 0, Key: "d"}, // ready check
		// Pair 1 has an unlimited window: the executor waits for each
		// response, so generous glob times are safe.
		testutil.KeyPress{At: 5, Key: "d"},  // control trial 0 (target)     -> correct
		testutil.KeyPress{At: 10, Key: "a"}, // control trial 1 (non-target) -> correct
		testutil.KeyPress{At: 15, Key: "d"}, // order trial 0 (ordered)      -> correct
		testutil.KeyPress{At: 20, Key: "a"}, // order trial 1 (unordered)    -> correct
		// Pair 2 (2s window): no responses, all timeouts.
	)

	cfg := Config{
		Mode:   ModeSelfPaced,
		KeyYes: "d", KeyNo: "a", KeyQuit: "q",
		TimeDigit: 2, TimeInfo: 1,
		TimeFix: 1, TimeFeedback: 1,
		Windows:   []float64{math.Inf(1), 2},
		HoldToEnd: []bool{false, true},
	}
	r, err := New(cfg, plan, Deps{
		Renderer: renderer, Keys: keys,
		Run: clock.Run(), Glob: clock.Glob(),
		Pulses: NewPulseLog(), Logger: quietLogger(),
	})
	require.NoError(t, err)
	require.NoError(t, r.Run(context.Background()))

	log := r.Log()
	require.Len(t, log.Records, 8, "2 pairs x 2 blocks x 2 trials")
	require.Len(t, log.Info, 4)

	for i := 0; i < 4; i++ {
		assert.Equal(t, 1, log.Records[i].Response.Correct, "pair 1 trial %d", i)
		assert.Positive(t, log.Records[i].Response.RT)
	}
	for i := 4; i < 8; i++ {
		assert.Equal(t, -1, log.Records[i].Response.Correct, "pair 2 trial %d", i)
		assert.Zero(t, log.Records[i].Response.RT)
	}

	// Perfect accuracy in the first order block is not enough to stop while
	// feedback is still on.
	assert.False(t, r.Adaptive().ShouldStop())

	// Feedback screens were shown (win for pair 1, lose for pair 2).
	var win, lose bool
	for _, v := range renderer.Views() {
		if v.Kind == ViewFeedback {
			if v.Win {
				win = true
			} else {
				lose = true
			}
		}
	}
	assert.True(t, win)
	assert.True(t, lose)
}

func TestNew_Validation(t *testing.T) {
	clock := testutil.NewSimClock(frame)
	deps := Deps{
		Renderer: testutil.NewSimRenderer[View](clock),
		Keys:     testutil.NewScriptedKeys(clock.Glob()),
		Run:      clock.Run(), Glob: clock.Glob(),
		Pulses: NewPulseLog(), Logger: quietLogger(),
	}

	t.Run("empty plan", func(t *testing.T) {
		_, err := New(plannedConfig(), &task.Plan{}, deps)
		assert.Error(t, err)
	})

	t.Run("missing pulse key in planned mode", func(t *testing.T) {
		cfg := plannedConfig()
		cfg.KeyPulse = ""
		_, err := New(cfg, plannedTestPlan(), deps)
		assert.Error(t, err)
	})

	t.Run("missing renderer", func(t *testing.T) {
		bad := deps
		bad.Renderer = nil
		_, err := New(plannedConfig(), plannedTestPlan(), bad)
		assert.Error(t, err)
	})

	t.Run("self-paced window schedule too short", func(t *testing.T) {
		p := task.Params{
			NTrials: 2, NBlocks: 1, RefreshRate: 60,
			TimeDigit: 2, TimeInfo: 1,
			MinISIFrames: 180, MaxISIFrames: 300, ChunkFrames: 30,
		}
		plan, err := task.BuildSelfPaced(p, selfPacedTable(t), testutil.Identity(), 2)
		require.NoError(t, err)

		cfg := Config{
			Mode:   ModeSelfPaced,
			KeyYes: "d", KeyNo: "a", KeyQuit: "q",
			TimeDigit: 2, TimeInfo: 1, TimeFix: 1, TimeFeedback: 1,
			Windows:   []float64{2},
			HoldToEnd: []bool{true},
		}
		_, err = New(cfg, plan, deps)
		assert.Error(t, err)
	})
}
