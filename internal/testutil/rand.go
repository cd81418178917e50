// Package testutil provides deterministic substitutes for the run-time
// dependencies of the scheduler: random draws, clocks, and key input.
//
// Tests inject these instead of wall clocks and math/rand so that every
// scenario is exactly reproducible, in the same spirit as a fixed token
// generator replacing a UUID source.
package testutil

import "sync"

// FixedRand returns scripted values from Intn, cycling when exhausted.
//
// Implements timing.IntSource. Values are taken modulo n so a script like
// RoundRobin can be reused against any bound.
type FixedRand struct {
	mu       sync.Mutex
	values   []int
	idx      int
	identity bool
}

// NewFixedRand creates a FixedRand returning the given values in order,
// cycling forever.
func NewFixedRand(values ...int) *FixedRand {
	if len(values) == 0 {
		values = []int{0}
	}
	return &FixedRand{values: values}
}

// RoundRobin creates a FixedRand that cycles 0,1,...,n-1. Useful for ISI
// generation: the extra-frame budget spreads evenly, so every trial ends up
// at the midpoint value.
func RoundRobin(n int) *FixedRand {
	values := make([]int, n)
	for i := range values {
		values[i] = i
	}
	return NewFixedRand(values...)
}

// Identity creates a FixedRand under which the plan's Fisher-Yates shuffles
// become no-ops: Intn(n) always returns n-1, so every swap is self-directed.
//
// Do not feed Identity into timing.GenerateISI: the generator would pick the
// same trial forever once that trial is full and never terminate.
func Identity() *FixedRand {
	return &FixedRand{values: nil, identity: true}
}

// Intn returns the next scripted value modulo n.
func (r *FixedRand) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.identity {
		return n - 1
	}
	v := r.values[r.idx%len(r.values)] % n
	r.idx++
	return v
}
