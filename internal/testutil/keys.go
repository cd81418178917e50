package testutil

import "sync"

// KeyPress is a scripted keypress scheduled on the free-running clock.
type KeyPress struct {
	// At is the free-running-clock time in seconds at which the key
	// becomes available to Poll.
	At float64

	// Key is the physical key name (as configured in the key bindings).
	Key string
}

// ScriptedKeys replays a fixed key script against a simulated clock.
//
// Implements the executor's KeySource: Poll returns the next scripted key
// whose time has been reached, exactly once, in script order. The script
// must be sorted by At.
type ScriptedKeys struct {
	mu    sync.Mutex
	clock *SimGlobClock
	queue []KeyPress
}

// NewScriptedKeys creates a ScriptedKeys source over the given clock view.
func NewScriptedKeys(clock *SimGlobClock, presses ...KeyPress) *ScriptedKeys {
	return &ScriptedKeys{clock: clock, queue: presses}
}

// Poll returns the next due key, or false when none is pending yet.
func (s *ScriptedKeys) Poll() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.queue) == 0 || s.queue[0].At > s.clock.Now() {
		return "", false
	}
	key := s.queue[0].Key
	s.queue = s.queue[1:]
	return key, true
}

// Pending returns how many scripted presses have not yet been consumed.
func (s *ScriptedKeys) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue)
}

// SimRenderer records every rendered view and advances the simulated clock
// one frame per render pass, standing in for a vsync'd flip.
//
// The generic type parameter keeps testutil free of an engine dependency:
// instantiate it with engine.View.
type SimRenderer[V any] struct {
	mu    sync.Mutex
	clock *SimClock
	views []V
}

// NewSimRenderer creates a renderer bound to the simulated clock.
func NewSimRenderer[V any](clock *SimClock) *SimRenderer[V] {
	return &SimRenderer[V]{clock: clock}
}

// Render records the view and ticks the clock by one frame.
func (r *SimRenderer[V]) Render(v V) error {
	r.mu.Lock()
	r.views = append(r.views, v)
	r.mu.Unlock()
	r.clock.Tick()
	return nil
}

// Views returns a copy of everything rendered so far.
func (r *SimRenderer[V]) Views() []V {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]V, len(r.views))
	copy(out, r.views)
	return out
}
