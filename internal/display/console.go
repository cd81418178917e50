// Package display is the rendering/input boundary implementation shipped
// with the presenter: a plain-terminal renderer and a byte-stream keyboard.
//
// It exists for bench testing and simulated runs; a production deployment
// replaces it with a real display backend behind the same engine ports.
package display

import (
	"fmt"
	"io"
	"time"

	"github.com/compneuro-ncu/order-task/internal/engine"
	"github.com/compneuro-ncu/order-task/internal/task"
)

// Console renders views as terminal lines.
//
// The scheduler re-renders the current view on every poll pass; a terminal
// cannot meaningfully repaint static text at the refresh rate, so Console
// writes only when the view changes and otherwise sleeps one frame period,
// standing in for the vertical-refresh block of a real display. The pass
// cadence the scheduler depends on is preserved either way.
type Console struct {
	w           io.Writer
	framePeriod time.Duration
	last        engine.View
	drawn       bool
}

// NewConsole creates a console renderer pacing at refreshRate Hz.
func NewConsole(w io.Writer, refreshRate int) *Console {
	return &Console{
		w:           w,
		framePeriod: time.Second / time.Duration(refreshRate),
	}
}

// Render draws the view if it changed and paces the pass.
func (c *Console) Render(v engine.View) error {
	if c.drawn && v == c.last {
		time.Sleep(c.framePeriod)
		return nil
	}
	c.last = v
	c.drawn = true

	var err error
	switch v.Kind {
	case engine.ViewBlank:
		_, err = fmt.Fprintln(c.w)
	case engine.ViewText:
		_, err = fmt.Fprintf(c.w, "\n%s\n", v.Message)
	case engine.ViewInstruction:
		_, err = fmt.Fprintf(c.w, "\n[instrukcja: %s]\n", instructionText(v.Condition))
	case engine.ViewFixation:
		_, err = fmt.Fprintf(c.w, "\n        +\n")
	case engine.ViewDigits:
		_, err = fmt.Fprintf(c.w, "\n   %s    %s    %s\n", v.DigitL, v.DigitC, v.DigitR)
	case engine.ViewFeedback:
		if v.Win {
			_, err = fmt.Fprintf(c.w, "\n   :-)\n")
		} else {
			_, err = fmt.Fprintf(c.w, "\n   :-(\n")
		}
	}
	return err
}

func instructionText(cond task.Condition) string {
	if cond == task.ConditionControl {
		return "czy widzisz cyfrę docelową?"
	}
	return "czy cyfry są uporządkowane?"
}
