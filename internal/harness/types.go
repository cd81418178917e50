package harness

import (
	"fmt"

	"github.com/compneuro-ncu/order-task/internal/engine"
	"github.com/compneuro-ncu/order-task/internal/task"
)

// Result is the outcome of one scenario execution: everything the run
// produced, plus assertion failures.
type Result struct {
	ScenarioName string

	// Records, Info and Pulses are the run log contents.
	Records []task.Record
	Info    []task.InfoMark
	Pulses  []engine.Pulse

	// Views is every view rendered, in order, one entry per render pass.
	Views []engine.View

	// Aborted reports that the run ended on the quit key. Not a failure by
	// itself; scenarios assert on it explicitly.
	Aborted bool

	Failures []string
}

// NewResult creates an empty result for the named scenario.
func NewResult(name string) *Result {
	return &Result{ScenarioName: name}
}

// Fail records an assertion failure.
func (r *Result) Fail(format string, args ...any) {
	r.Failures = append(r.Failures, fmt.Sprintf(format, args...))
}

// Passed reports whether every assertion held.
func (r *Result) Passed() bool {
	return len(r.Failures) == 0
}
