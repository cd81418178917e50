package engine

// AdaptiveController adjusts feedback visibility and early termination in the
// training variant, evaluated once after every order-condition block.
//
// Policy, with ratio = corrSum/nTrials and block the 1-based pair counter:
//
//   - ratio >= 2/3 while feedback is already off: the participant performs
//     well without help, set the stop flag (run ends after the current pair)
//   - otherwise ratio >= 1/2 from the second pair on: disable feedback
//   - otherwise: (re-)enable feedback
//
// Feedback visibility only gates the post-response win/lose screen; it never
// affects scoring. Comparisons use integer arithmetic so threshold cases are
// exact.
type AdaptiveController struct {
	nTrials  int
	feedback bool
	stop     bool
}

// NewAdaptiveController creates a controller for blocks of nTrials trials.
// Feedback starts enabled.
func NewAdaptiveController(nTrials int) *AdaptiveController {
	return &AdaptiveController{nTrials: nTrials, feedback: true}
}

// Evaluate applies the policy after an order block with corrSum correct
// trials, block being the 1-based pair counter.
func (a *AdaptiveController) Evaluate(corrSum, block int) {
	switch {
	case 3*corrSum >= 2*a.nTrials && !a.feedback:
		a.stop = true
	case 2*corrSum >= a.nTrials && block >= 2:
		a.feedback = false
	default:
		a.feedback = true
	}
}

// FeedbackEnabled reports whether the win/lose screen is currently shown.
func (a *AdaptiveController) FeedbackEnabled() bool {
	return a.feedback
}

// ShouldStop reports whether the run terminates after the current pair.
func (a *AdaptiveController) ShouldStop() bool {
	return a.stop
}
