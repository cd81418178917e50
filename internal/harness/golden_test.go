package harness

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFormatPlan_PlannedGolden(t *testing.T) {
	s, err := LoadScenario("testdata/scenarios/planned_smoke.yaml")
	require.NoError(t, err)
	plan, err := buildPlan(s)
	require.NoError(t, err)

	AssertPlanGolden(t, "planned_plan", plan)
}

func TestFormatPlan_TrainingGolden(t *testing.T) {
	s, err := LoadScenario("testdata/scenarios/training_adaptive.yaml")
	require.NoError(t, err)
	plan, err := buildPlan(s)
	require.NoError(t, err)

	AssertPlanGolden(t, "training_plan", plan)
}
