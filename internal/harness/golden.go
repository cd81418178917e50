package harness

import (
	"fmt"
	"math"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/compneuro-ncu/order-task/internal/task"
)

// FormatPlan renders a plan as a stable, human-readable summary. Used by
// the plan preview command and compared against golden files in tests.
//
// Durations use fixed three-decimal formatting so the output is identical
// across platforms.
func FormatPlan(plan *task.Plan) []byte {
	var b strings.Builder

	fmt.Fprintf(&b, "blocks: %d (%d pairs), trials per block: %d\n",
		len(plan.Blocks), len(plan.Blocks)/2, plan.Params.NTrials)
	if plan.TimeBlock > 0 {
		fmt.Fprintf(&b, "block duration: %s\n", formatDur(plan.TimeBlock))
	}

	for _, blk := range plan.Blocks {
		fmt.Fprintf(&b, "block %d pair %d %s group %d\n",
			blk.Index+1, blk.Pair, blk.Condition, blk.Group)
		for k, tr := range blk.Trials {
			fmt.Fprintf(&b, "  trial %d: digits %s %s %s target=%d order=%d",
				k+1, tr.DigitL, tr.DigitC, tr.DigitR, tr.IsTarget, tr.IsOrder)
			if tr.OnsetDigPlan > 0 {
				fmt.Fprintf(&b, " isi=%s fix=%s dig=%s",
					formatDur(tr.ISISeconds), formatDur(tr.OnsetFixPlan), formatDur(tr.OnsetDigPlan))
			}
			b.WriteByte('\n')
		}
	}
	return []byte(b.String())
}

func formatDur(seconds float64) string {
	if math.IsInf(seconds, 1) {
		return "inf"
	}
	return fmt.Sprintf("%.3fs", seconds)
}

// AssertPlanGolden compares a plan's formatted summary against the golden
// file testdata/golden/{name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func AssertPlanGolden(t *testing.T, name string, plan *task.Plan) {
	t.Helper()
	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, FormatPlan(plan))
}
