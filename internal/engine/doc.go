// Package engine implements the trial executor: the real-time loop that
// presents stimuli, collects timed responses, and keeps the run phase-locked
// to its onset schedule.
//
// ARCHITECTURE:
//
// Single-Threaded Cooperative Scheduler:
// The trial loop and the render loop are the same loop. "Waiting" is a
// busy-poll that re-renders the current view each pass and checks the run
// clock against the next planned deadline. There is no preemption and no
// sleeping: the render side-effect during a wait is part of the contract
// (continuous visual presentation).
//
// Non-Slip Timing:
// The scheduler never computes "wait N seconds from now". Every wait compares
// the absolute run clock against an absolute planned onset computed before
// the run started. A slow frame draw or an I/O stall therefore cannot
// accumulate: the loop simply catches up to the plan. Deadlines already in
// the past are passed through without waiting.
//
// Concurrency:
// All shared state (the plan, the run log) is owned exclusively by the loop
// goroutine. The only cross-context resource is the pulse log, which is
// append-only behind a mutex and fed from the key dispatch path; it never
// blocks or influences trial state.
//
// Per-trial state machine:
//
//	FIXATION -> STIMULUS_VISIBLE/AWAIT_RESPONSE -> HOLD_REMAINDER -> SCORING
//
// The stimulus stays visible for its full planned duration even when the
// response arrives early, keeping the visual timeline locked to the plan.
package engine
