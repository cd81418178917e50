package timing

import (
	"sync"
	"time"
)

// Clock is a monotonic source of elapsed seconds.
//
// Two clocks exist per run: a free-running MonotonicClock used for diagnostic
// timestamps and pulse logging, and a RunClock that is reset on the first
// scanner pulse and defines all official trial timing.
type Clock interface {
	Now() float64
}

// MonotonicClock reports seconds elapsed since its creation.
// It is never reset; it backs post-hoc synchronisation checks and the pulse
// log, which must be independent of the scanner-anchored clock.
type MonotonicClock struct {
	start time.Time
}

// NewMonotonicClock creates a clock anchored at the current instant.
func NewMonotonicClock() *MonotonicClock {
	return &MonotonicClock{start: time.Now()}
}

// Now returns seconds elapsed since creation.
func (c *MonotonicClock) Now() float64 {
	return time.Since(c.start).Seconds()
}

// RunClock is a resettable monotonic clock. Reset is called exactly once per
// run, when the first scanner pulse arrives, so that every onset in the
// schedule is measured against acquisition start.
//
// Thread-safety: Reset and Now are mutex-guarded because the pulse dispatch
// path may observe the clock while the trial loop resets it.
type RunClock struct {
	mu    sync.Mutex
	start time.Time
}

// NewRunClock creates a run clock anchored at the current instant.
func NewRunClock() *RunClock {
	return &RunClock{start: time.Now()}
}

// Reset re-anchors the clock to the current instant.
func (c *RunClock) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.start = time.Now()
}

// Now returns seconds elapsed since the last Reset (or creation).
func (c *RunClock) Now() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return time.Since(c.start).Seconds()
}
