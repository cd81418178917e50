package timing

import "math/rand"

// IntSource yields uniformly distributed integers in [0, n).
//
// Implemented by RandSource (production) and testutil.FixedRand (tests).
// Injecting the source keeps ISI generation deterministic under test while
// production runs draw fresh jitter per block.
type IntSource interface {
	Intn(n int) int
}

// RandSource is a math/rand backed IntSource.
type RandSource struct {
	r *rand.Rand
}

// NewRandSource creates a RandSource from the given seed.
func NewRandSource(seed int64) *RandSource {
	return &RandSource{r: rand.New(rand.NewSource(seed))}
}

// Intn returns a uniform integer in [0, n).
func (s *RandSource) Intn(n int) int {
	return s.r.Intn(n)
}

// GenerateISI produces one block's worth of randomized inter-stimulus
// intervals, measured in frames.
//
// Every value lies in [minFrames, maxFrames] stepped by chunk, and the sum
// over the block equals exactly nTrials*(minFrames+maxFrames)/2 - the mean is
// pinned to the midpoint. This is what lets each block carry randomized
// per-trial jitter while all blocks keep identical total duration, which a
// block-design fMRI regressor depends on.
//
// Algorithm: start every trial at minFrames, then repeatedly add chunk frames
// to a uniformly chosen trial that still has headroom, until the extra-frame
// budget is spent. Termination is guaranteed: total headroom across trials is
// twice the budget.
func GenerateISI(rng IntSource, nTrials, minFrames, maxFrames, chunk int) ([]int, error) {
	if nTrials <= 0 {
		return nil, NewInvalidArgument("trial count must be positive, got %d", nTrials)
	}
	if chunk <= 0 {
		return nil, NewInvalidArgument("chunk must be positive, got %d", chunk)
	}
	if maxFrames <= minFrames {
		return nil, NewInvalidArgument(
			"max frames (%d) must be greater than min frames (%d)", maxFrames, minFrames)
	}
	if (maxFrames-minFrames)%chunk != 0 {
		return nil, NewInvalidArgument(
			"chunk %d cannot step exactly from %d to %d frames", chunk, minFrames, maxFrames)
	}
	if (maxFrames-minFrames)%2 != 0 {
		return nil, NewInvalidArgument(
			"mean frame count must be an integer: max-min (%d) is odd", maxFrames-minFrames)
	}

	remaining := nTrials * (maxFrames - minFrames) / 2
	if remaining%chunk != 0 {
		// The budget must also spend evenly in chunk-sized steps, or the
		// exact-sum guarantee breaks on the final step.
		return nil, NewInvalidArgument(
			"extra frame budget %d is not a multiple of chunk %d", remaining, chunk)
	}

	frames := make([]int, nTrials)
	for i := range frames {
		frames[i] = minFrames
	}
	for remaining > 0 {
		i := rng.Intn(nTrials)
		if frames[i]+chunk <= maxFrames {
			frames[i] += chunk
			remaining -= chunk
		}
	}
	return frames, nil
}
