package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/compneuro-ncu/order-task/internal/task"
)

func loadAndRun(t *testing.T, path string) *Result {
	t.Helper()
	s, err := LoadScenario(path)
	require.NoError(t, err)
	result, err := Run(s)
	require.NoError(t, err)
	return result
}

func TestRun_PlannedSmoke(t *testing.T) {
	result := loadAndRun(t, "testdata/scenarios/planned_smoke.yaml")

	assert.Empty(t, result.Failures)
	assert.True(t, result.Passed())
	assert.False(t, result.Aborted)
	require.Len(t, result.Records, 4)
	assert.Len(t, result.Pulses, 3)
	assert.NotEmpty(t, result.Views)

	// Planned onsets carried into the records unchanged.
	assert.Equal(t, 7.0, result.Records[0].Trial.OnsetDigPlan)
	assert.Equal(t, 30.0, result.Records[3].Trial.OnsetDigPlan)

	// Actual onsets track the plan to within the render pass granularity.
	for _, rec := range result.Records {
		assert.InDelta(t, rec.Trial.OnsetDigPlan, rec.OnsetDig, 3.0/60.0)
	}
}

func TestRun_TrainingAdaptive(t *testing.T) {
	result := loadAndRun(t, "testdata/scenarios/training_adaptive.yaml")

	assert.Empty(t, result.Failures)
	assert.True(t, result.Passed())
	require.Len(t, result.Records, 8)
	assert.Len(t, result.Info, 4)

	// The second pair runs on a timed window; its timeouts carry no key.
	for _, rec := range result.Records[4:] {
		assert.Equal(t, -1, rec.Response.Correct)
		assert.Empty(t, rec.Response.Key)
		assert.Zero(t, rec.Response.RT)
	}
}

func TestRun_AbortedQuit(t *testing.T) {
	result := loadAndRun(t, "testdata/scenarios/aborted_quit.yaml")

	assert.True(t, result.Passed())
	assert.True(t, result.Aborted)
	assert.Empty(t, result.Records)
}

func TestRun_AssertionFailureReported(t *testing.T) {
	s, err := LoadScenario("testdata/scenarios/planned_smoke.yaml")
	require.NoError(t, err)
	s.Assertions = append(s.Assertions, Assertion{Type: AssertRecordCount, Count: 99})

	result, err := Run(s)
	require.NoError(t, err)
	assert.False(t, result.Passed())
	require.Len(t, result.Failures, 1)
	assert.Contains(t, result.Failures[0], "record_count")
}

func TestRun_UnequalBlockDurations(t *testing.T) {
	s, err := LoadScenario("testdata/scenarios/planned_smoke.yaml")
	require.NoError(t, err)
	s.Blocks[1].ISIFrames = []int{300, 240}

	_, err = Run(s)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "equal duration")
}

func TestBuildPlan_Planned(t *testing.T) {
	s, err := LoadScenario("testdata/scenarios/planned_smoke.yaml")
	require.NoError(t, err)

	plan, err := buildPlan(s)
	require.NoError(t, err)

	assert.Equal(t, 12.0, plan.TimeBlock)
	require.Len(t, plan.Blocks, 2)
	assert.Equal(t, task.ConditionControl, plan.Blocks[0].Condition)
	assert.Equal(t, task.ConditionOrder, plan.Blocks[1].Condition)

	// Hand-computed schedule: first block padded by one instruction
	// screen, second by two plus a full block.
	assert.Equal(t, 4.0, plan.Blocks[0].Trials[0].OnsetFixPlan)
	assert.Equal(t, 7.0, plan.Blocks[0].Trials[0].OnsetDigPlan)
	assert.Equal(t, 9.0, plan.Blocks[0].Trials[1].OnsetFixPlan)
	assert.Equal(t, 14.0, plan.Blocks[0].Trials[1].OnsetDigPlan)
	assert.Equal(t, 20.0, plan.Blocks[1].Trials[0].OnsetFixPlan)
	assert.Equal(t, 30.0, plan.Blocks[1].Trials[1].OnsetDigPlan)
}

func TestBuildPlan_TrainingHasNoOnsets(t *testing.T) {
	s, err := LoadScenario("testdata/scenarios/training_adaptive.yaml")
	require.NoError(t, err)

	plan, err := buildPlan(s)
	require.NoError(t, err)

	require.Len(t, plan.Blocks, 4)
	for _, blk := range plan.Blocks {
		for _, tr := range blk.Trials {
			assert.Zero(t, tr.OnsetFixPlan)
			assert.Zero(t, tr.OnsetDigPlan)
			assert.Zero(t, tr.ISISeconds)
		}
	}
}
