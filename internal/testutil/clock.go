package testutil

import "sync"

// SimClock is a simulated timeline for executor tests.
//
// Real runs advance because frame flips take wall time; simulated runs
// advance because the simulated renderer calls Tick once per render pass.
// Reading the clock never advances it, so the executor observes a frozen
// instant for the whole pass, exactly like a vsync'd flip.
//
// Two views are exposed: Glob (free-running, anchored at zero) and Run
// (resettable, anchored to the simulated first scanner pulse).
type SimClock struct {
	mu       sync.Mutex
	seconds  float64
	step     float64
	runStart float64
}

// NewSimClock creates a simulated clock advancing by step seconds per Tick.
// step is typically one frame period (1/refresh rate).
func NewSimClock(step float64) *SimClock {
	return &SimClock{step: step}
}

// Tick advances simulated time by one step.
func (c *SimClock) Tick() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seconds += c.step
}

// Advance moves simulated time forward by dt seconds.
func (c *SimClock) Advance(dt float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seconds += dt
}

// Glob returns the free-running clock view.
func (c *SimClock) Glob() *SimGlobClock {
	return &SimGlobClock{c: c}
}

// Run returns the resettable run-clock view.
func (c *SimClock) Run() *SimRunClock {
	return &SimRunClock{c: c}
}

// SimGlobClock implements timing.Clock over the shared simulated timeline.
type SimGlobClock struct {
	c *SimClock
}

// Now returns simulated seconds since timeline start.
func (g *SimGlobClock) Now() float64 {
	g.c.mu.Lock()
	defer g.c.mu.Unlock()
	return g.c.seconds
}

// SimRunClock implements the executor's resettable run clock over the shared
// simulated timeline.
type SimRunClock struct {
	c *SimClock
}

// Now returns simulated seconds since the last Reset.
func (r *SimRunClock) Now() float64 {
	r.c.mu.Lock()
	defer r.c.mu.Unlock()
	return r.c.seconds - r.c.runStart
}

// Reset anchors the run clock at the current simulated instant.
func (r *SimRunClock) Reset() {
	r.c.mu.Lock()
	defer r.c.mu.Unlock()
	r.c.runStart = r.c.seconds
}
