package engine

import "sync"

// Pulse is one recorded scanner pulse: its free-running-clock onset and the
// spacing to the previous pulse (0 for the first).
type Pulse struct {
	Index   int
	Onset   float64
	Spacing float64
}

// PulseLog is the append-only record of scanner-pulse timestamps.
//
// It is the single cross-context shared resource of a run: appends come from
// the key dispatch path, which may fire during any phase of the trial loop,
// while the final flush reads it after the loop ends. The contract is
// append-only under the mutex; nothing here blocks or influences trial
// state. Timestamps are free-running-clock (not run-clock) so the log stays
// meaningful before the first pulse resets the run clock.
type PulseLog struct {
	mu     sync.Mutex
	onsets []float64
}

// NewPulseLog creates an empty pulse log.
func NewPulseLog() *PulseLog {
	return &PulseLog{}
}

// Append records a pulse at the given free-running-clock time.
func (l *PulseLog) Append(onset float64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.onsets = append(l.onsets, onset)
}

// Len returns the number of recorded pulses.
func (l *PulseLog) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.onsets)
}

// Snapshot returns the recorded pulses as onset/spacing pairs, 1-indexed.
// The spacing of the first pulse is 0 by convention.
func (l *PulseLog) Snapshot() []Pulse {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]Pulse, len(l.onsets))
	for i, onset := range l.onsets {
		spacing := 0.0
		if i > 0 {
			spacing = onset - l.onsets[i-1]
		}
		out[i] = Pulse{Index: i + 1, Onset: onset, Spacing: spacing}
	}
	return out
}
