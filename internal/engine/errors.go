package engine

import "errors"

// ErrAborted is returned when the operator presses the global quit hotkey.
//
// The quit key terminates the run immediately and unconditionally, at any
// point in the loop, without requiring a clean state. Data collected so far
// stays available through Runner.Log and the pulse log, and callers flush it
// best-effort.
var ErrAborted = errors.New("run aborted by quit key")
