package timing

import "math"

// frameEpsilon absorbs float64 representation error when checking that a
// duration lands on an exact frame boundary. One nanosecond-scale slack is
// far below any real frame period.
const frameEpsilon = 1e-9

// SecondsToFrames converts a duration in seconds to an exact integer count of
// display frames at the given refresh rate.
//
// All durations in the system are frame-quantized so that visual presentation
// timing is exact and reproducible: a duration that does not divide evenly
// into frame periods cannot be presented faithfully and is rejected rather
// than rounded.
//
// Returns INVALID_ARGUMENT if refreshRate is not positive or seconds is
// negative, and PRECISION_ERROR if seconds is not an exact multiple of one
// frame period (1/refreshRate).
func SecondsToFrames(seconds float64, refreshRate int) (int, error) {
	if refreshRate <= 0 {
		return 0, NewInvalidArgument("refresh rate must be a positive integer, got %d", refreshRate)
	}
	if seconds < 0 {
		return 0, NewInvalidArgument("duration must be non-negative, got %g", seconds)
	}

	frames := seconds * float64(refreshRate)
	rounded := math.Round(frames)
	if math.Abs(frames-rounded) > frameEpsilon {
		return 0, NewPrecisionError(
			"duration %gs is not a multiple of the frame period 1/%d s", seconds, refreshRate)
	}
	return int(rounded), nil
}

// FramesToSeconds converts an integer frame count back to seconds.
//
// No validation: frame counts always originate from SecondsToFrames or
// GenerateISI, which only produce non-negative integers.
func FramesToSeconds(frames, refreshRate int) float64 {
	return float64(frames) / float64(refreshRate)
}
