package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAdaptiveController_StartsWithFeedback(t *testing.T) {
	a := NewAdaptiveController(12)
	assert.True(t, a.FeedbackEnabled())
	assert.False(t, a.ShouldStop())
}

func TestAdaptiveController_DisablesFeedbackFromSecondPair(t *testing.T) {
	a := NewAdaptiveController(12)

	// 58% in the first pair: threshold met but too early to disable.
	a.Evaluate(7, 1)
	assert.True(t, a.FeedbackEnabled())

	// Same accuracy in the second pair disables feedback.
	a.Evaluate(7, 2)
	assert.False(t, a.FeedbackEnabled())
	assert.False(t, a.ShouldStop())
}

func TestAdaptiveController_ReenablesFeedbackOnDrop(t *testing.T) {
	a := NewAdaptiveController(12)
	a.Evaluate(7, 2)
	assert.False(t, a.FeedbackEnabled())

	// 42% re-enables feedback.
	a.Evaluate(5, 3)
	assert.True(t, a.FeedbackEnabled())
}

func TestAdaptiveController_StopsOnlyWithoutFeedback(t *testing.T) {
	a := NewAdaptiveController(12)

	// 75% while feedback is still on: not a stop, just disables feedback.
	a.Evaluate(9, 2)
	assert.False(t, a.ShouldStop())
	assert.False(t, a.FeedbackEnabled())

	// 75% again, now without feedback: stop.
	a.Evaluate(9, 3)
	assert.True(t, a.ShouldStop())
}

func TestAdaptiveController_ExactThresholds(t *testing.T) {
	// 8/12 is exactly 2/3, 6/12 exactly 1/2; integer comparisons keep the
	// boundary cases inclusive.
	a := NewAdaptiveController(12)
	a.Evaluate(6, 2)
	assert.False(t, a.FeedbackEnabled())
	a.Evaluate(8, 3)
	assert.True(t, a.ShouldStop())
}
