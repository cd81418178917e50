package timing

// OnsetSchedule holds the absolute planned onset times for every trial of
// every block, in seconds relative to task start (the first scanner pulse).
//
// The schedule is computed once, before any rendering, and is immutable
// afterwards: the trial executor treats it as ground truth regardless of how
// long individual frame draws actually take. Onsets are never recomputed
// during a run.
type OnsetSchedule struct {
	// Fixation[b][k] is the planned fixation onset of trial k in block b.
	Fixation [][]float64

	// Digit[b][k] is the planned digit onset of trial k in block b.
	// Always Fixation[b][k] + isi[b][k].
	Digit [][]float64
}

// GenerateOnsets converts per-block ISI durations (seconds) into the fixed
// onset schedule for fixation and digit events.
//
// For block i (0-based), every onset is shifted by
//
//	padding = timeInfo*(i+1) + timeBlock*i
//
// which accounts for one instruction screen before each block plus all
// preceding block durations. Within a block, trial k starts after the
// cumulative ISI of trials 0..k-1 plus k digit slots of timeDigit each.
//
// Guarantees: onsets are strictly increasing within a block, and blocks never
// overlap as long as every block's ISI sum is mean-pinned (see GenerateISI)
// so that its total duration equals timeBlock.
func GenerateOnsets(isiSeconds [][]float64, timeBlock, timeInfo, timeDigit float64, nTrials int) (*OnsetSchedule, error) {
	sched := &OnsetSchedule{
		Fixation: make([][]float64, len(isiSeconds)),
		Digit:    make([][]float64, len(isiSeconds)),
	}

	for i, isi := range isiSeconds {
		if len(isi) != nTrials {
			return nil, NewInvalidArgument(
				"block %d has %d ISI entries, want %d", i, len(isi), nTrials)
		}
		padding := timeInfo*float64(i+1) + timeBlock*float64(i)

		fix := make([]float64, nTrials)
		dig := make([]float64, nTrials)
		isiCum := 0.0
		for k := 0; k < nTrials; k++ {
			fix[k] = isiCum + float64(k)*timeDigit + padding
			dig[k] = fix[k] + isi[k]
			isiCum += isi[k]
		}
		sched.Fixation[i] = fix
		sched.Digit[i] = dig
	}
	return sched, nil
}
