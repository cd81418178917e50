package engine

import (
	"github.com/compneuro-ncu/order-task/internal/task"
	"github.com/compneuro-ncu/order-task/internal/timing"
)

// ViewKind identifies what the renderer should be showing.
type ViewKind int

const (
	// ViewBlank shows nothing.
	ViewBlank ViewKind = iota

	// ViewText shows a centered operator/participant message.
	ViewText

	// ViewInstruction shows the per-condition instruction screen.
	ViewInstruction

	// ViewFixation shows the fixation crosshair.
	ViewFixation

	// ViewDigits shows the three-digit stimulus.
	ViewDigits

	// ViewFeedback shows the post-response win/lose image (training only).
	ViewFeedback
)

// View is the complete description of one rendered frame. The scheduler
// passes a View to the renderer once per poll pass; rendering the same view
// repeatedly must be cheap.
type View struct {
	Kind ViewKind

	// Message is set for ViewText.
	Message string

	// Condition is set for ViewInstruction.
	Condition task.Condition

	// DigitL, DigitC, DigitR are set for ViewDigits.
	DigitL string
	DigitC string
	DigitR string

	// Win is set for ViewFeedback: true for a correct response.
	Win bool
}

// Renderer draws the current view. Implementations own frame pacing: a real
// display blocks on the vertical refresh, the simulated renderer advances the
// simulated clock by one frame period.
//
// Render is called from the scheduler goroutine only.
type Renderer interface {
	Render(v View) error
}

// KeySource delivers pending keypresses without blocking.
//
// Poll returns the oldest undelivered key name, or false when none is
// pending. The scheduler drains the source once per pass, so every key is
// observed even during long waits; timestamps are taken by the scheduler
// against its own clocks at drain time.
type KeySource interface {
	Poll() (string, bool)
}

// ResettableClock is the scanner-anchored run clock: monotonic seconds with a
// single Reset at the first pulse. timing.RunClock implements it for real
// runs; testutil.SimRunClock for simulated ones.
type ResettableClock interface {
	timing.Clock
	Reset()
}
