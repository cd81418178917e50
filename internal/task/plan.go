package task

import (
	"github.com/compneuro-ncu/order-task/internal/stimulus"
	"github.com/compneuro-ncu/order-task/internal/timing"
)

// Params are the frame-quantized scheduling parameters for one run.
// They come out of config validation, so durations here are already known to
// be exact frame multiples.
type Params struct {
	// NTrials is the number of trials per block.
	NTrials int

	// NBlocks is the number of block pairs (one control + one order block
	// per pair). The run has 2*NBlocks blocks in total.
	NBlocks int

	// RefreshRate is the display refresh rate in Hz.
	RefreshRate int

	// TimeDigit and TimeInfo are the digit-display and instruction-screen
	// durations in seconds.
	TimeDigit float64
	TimeInfo  float64

	// MinISIFrames, MaxISIFrames and ChunkFrames parameterize the ISI
	// generator (see timing.GenerateISI).
	MinISIFrames int
	MaxISIFrames int
	ChunkFrames  int
}

// TimeBlock is the fixed total duration of every block in seconds:
// nTrials * (mean ISI + digit time). Holding this constant across blocks is
// what makes fixed inter-block padding possible.
func (p Params) TimeBlock() float64 {
	meanISI := timing.FramesToSeconds((p.MinISIFrames+p.MaxISIFrames)/2, p.RefreshRate)
	return float64(p.NTrials) * (meanISI + p.TimeDigit)
}

// Block is an ordered sequence of exactly NTrials trials sharing a condition.
type Block struct {
	// Index is the 0-based sequential block index across the run.
	Index int

	// Pair is the 1-based block-pair counter.
	Pair int

	Condition Condition

	// Group is the stimulus-table group id the trials were drawn from.
	Group int

	Trials []Trial
}

// Plan is the fully scheduled run structure. It is computed once before any
// rendering and never mutated during execution.
type Plan struct {
	Params    Params
	TimeBlock float64
	Blocks    []Block
}

// BuildPlanned assembles the fMRI-variant plan: ISI sequences are drawn per
// block, absolute onsets are computed for every trial, per-block trial order
// and the block orders of both conditions are randomized.
//
// All randomness flows through rng, so a scripted source reproduces the plan
// exactly.
func BuildPlanned(p Params, table *stimulus.Table, rng timing.IntSource) (*Plan, error) {
	if err := table.Validate(p.NBlocks, p.NTrials); err != nil {
		return nil, err
	}

	nBlocksTotal := 2 * p.NBlocks
	isiSeconds := make([][]float64, nBlocksTotal)
	for i := range isiSeconds {
		frames, err := timing.GenerateISI(rng, p.NTrials, p.MinISIFrames, p.MaxISIFrames, p.ChunkFrames)
		if err != nil {
			return nil, err
		}
		row := make([]float64, len(frames))
		for k, f := range frames {
			row[k] = timing.FramesToSeconds(f, p.RefreshRate)
		}
		isiSeconds[i] = row
	}

	timeBlock := p.TimeBlock()
	sched, err := timing.GenerateOnsets(isiSeconds, timeBlock, p.TimeInfo, p.TimeDigit, p.NTrials)
	if err != nil {
		return nil, err
	}

	orderControl := permutation(rng, p.NBlocks)
	orderOrder := permutation(rng, p.NBlocks)

	plan := &Plan{Params: p, TimeBlock: timeBlock}
	idb := 0
	for pair := 0; pair < p.NBlocks; pair++ {
		for _, cond := range Conditions {
			group := orderControl[pair]
			if cond == ConditionOrder {
				group = orderOrder[pair]
			}

			trials := trialsFromRows(table.Group(group), rng)
			for k := range trials {
				trials[k].ISISeconds = isiSeconds[idb][k]
				trials[k].OnsetFixPlan = sched.Fixation[idb][k]
				trials[k].OnsetDigPlan = sched.Digit[idb][k]
			}

			plan.Blocks = append(plan.Blocks, Block{
				Index:     idb,
				Pair:      pair + 1,
				Condition: cond,
				Group:     group,
				Trials:    trials,
			})
			idb++
		}
	}
	return plan, nil
}

// BuildSelfPaced assembles the training-variant plan: up to maxBlocks block
// pairs, no onset schedule (the executor paces trials against deadlines set
// as it goes). The stimulus group order cycles through a fresh permutation
// per condition, repeated as often as maxBlocks requires.
func BuildSelfPaced(p Params, table *stimulus.Table, rng timing.IntSource, maxBlocks int) (*Plan, error) {
	if err := table.Validate(p.NBlocks, p.NTrials); err != nil {
		return nil, err
	}
	if maxBlocks <= 0 {
		return nil, timing.NewInvalidArgument("max block pairs must be positive, got %d", maxBlocks)
	}

	orderControl := cycled(permutation(rng, p.NBlocks), maxBlocks)
	orderOrder := cycled(permutation(rng, p.NBlocks), maxBlocks)

	plan := &Plan{Params: p, TimeBlock: p.TimeBlock()}
	idb := 0
	for pair := 0; pair < maxBlocks; pair++ {
		for _, cond := range Conditions {
			group := orderControl[pair]
			if cond == ConditionOrder {
				group = orderOrder[pair]
			}
			plan.Blocks = append(plan.Blocks, Block{
				Index:     idb,
				Pair:      pair + 1,
				Condition: cond,
				Group:     group,
				Trials:    trialsFromRows(table.Group(group), rng),
			})
			idb++
		}
	}
	return plan, nil
}

// trialsFromRows converts stimulus rows to trials in shuffled order.
func trialsFromRows(rows []stimulus.Row, rng timing.IntSource) []Trial {
	trials := make([]Trial, len(rows))
	for i, r := range rows {
		trials[i] = Trial{
			Group:    r.Block,
			DigitL:   r.DigitL,
			DigitC:   r.DigitC,
			DigitR:   r.DigitR,
			IsTarget: r.IsTarget,
			IsOrder:  r.IsOrder,
		}
	}
	shuffle(trials, rng)
	return trials
}

// permutation returns a random permutation of 1..n.
func permutation(rng timing.IntSource, n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i + 1
	}
	for i := n - 1; i > 0; i-- {
		j := rng.Intn(i + 1)
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// cycled repeats perm until it covers n entries.
func cycled(perm []int, n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = perm[i%len(perm)]
	}
	return out
}

func shuffle(trials []Trial, rng timing.IntSource) {
	for i := len(trials) - 1; i > 0; i-- {
		j := rng.Intn(i + 1)
		trials[i], trials[j] = trials[j], trials[i]
	}
}
