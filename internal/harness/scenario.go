package harness

import (
	"bytes"
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/compneuro-ncu/order-task/internal/task"
)

// Scenario defines one simulated session.
type Scenario struct {
	// Name uniquely identifies this scenario.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Variant selects the execution mode: "fmri" or "training".
	Variant string `yaml:"variant"`

	// RefreshRate is the simulated display refresh rate in Hz.
	RefreshRate int `yaml:"refresh_rate"`

	// Keys binds physical key names to their roles.
	Keys KeysSpec `yaml:"keys"`

	// Timing holds presentation durations in seconds. Fix and Feedback are
	// training-only.
	Timing TimingSpec `yaml:"timing"`

	// Blocks is the explicit run layout, in execution order. Conditions
	// must alternate control, order.
	Blocks []BlockSpec `yaml:"blocks"`

	// Windows and HoldToEnd are the training-only per-pair schedules.
	// A window of .inf means unlimited response time.
	Windows   []float64 `yaml:"windows,omitempty"`
	HoldToEnd []bool    `yaml:"hold_to_end,omitempty"`

	// Script is the keypress sequence on the free-running clock, sorted
	// by time.
	Script []KeyStep `yaml:"script"`

	// Assertions validate the resulting run log.
	Assertions []Assertion `yaml:"assertions"`
}

// KeysSpec mirrors the run configuration's key bindings.
type KeysSpec struct {
	Yes   string `yaml:"yes"`
	No    string `yaml:"no"`
	Pulse string `yaml:"pulse,omitempty"`
	Quit  string `yaml:"quit"`
}

// TimingSpec holds the scenario's presentation durations in seconds.
type TimingSpec struct {
	Digit    float64 `yaml:"digit"`
	Info     float64 `yaml:"info"`
	Fix      float64 `yaml:"fix,omitempty"`
	Feedback float64 `yaml:"feedback,omitempty"`
}

// BlockSpec is one block of the run layout.
type BlockSpec struct {
	Condition string `yaml:"condition"`

	// Group is the stimulus group id recorded with each trial.
	Group int `yaml:"group"`

	// ISIFrames gives each trial's fixation duration in frames, in trial
	// order. Required for fmri scenarios, forbidden for training.
	ISIFrames []int `yaml:"isi_frames,omitempty"`

	Trials []TrialSpec `yaml:"trials"`
}

// TrialSpec is one stimulus triplet with its correctness keys.
type TrialSpec struct {
	DigitL   string `yaml:"digit_l"`
	DigitC   string `yaml:"digit_c"`
	DigitR   string `yaml:"digit_r"`
	IsTarget int    `yaml:"is_target"`
	IsOrder  int    `yaml:"is_order"`
}

// KeyStep schedules one keypress on the free-running clock.
type KeyStep struct {
	At  float64 `yaml:"at"`
	Key string  `yaml:"key"`
}

// Assertion validates one property of the run log.
type Assertion struct {
	// Type selects the check; see the assertion type constants.
	Type string `yaml:"type"`

	// Count is used by record_count and pulse_count.
	Count int `yaml:"count,omitempty"`

	// Values is the expected correctness sequence (correct_sequence).
	Values []int `yaml:"values,omitempty"`

	// Views is the expected first-appearance order of view kinds
	// (view_order).
	Views []string `yaml:"views,omitempty"`

	// Value is the expected abort flag (aborted).
	Value bool `yaml:"value,omitempty"`

	// Index, Min and Max select a record and bound its RT (rt_within).
	Index int     `yaml:"index,omitempty"`
	Min   float64 `yaml:"min,omitempty"`
	Max   float64 `yaml:"max,omitempty"`
}

// Assertion type constants.
const (
	AssertRecordCount = "record_count"
	AssertCorrectSeq  = "correct_sequence"
	AssertPulseCount  = "pulse_count"
	AssertViewOrder   = "view_order"
	AssertAborted     = "aborted"
	AssertRTWithin    = "rt_within"
)

// Variant constants.
const (
	VariantFMRI     = "fmri"
	VariantTraining = "training"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed, contains
// unknown fields (typos), or fails structural validation.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and consistent.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if s.Variant != VariantFMRI && s.Variant != VariantTraining {
		return fmt.Errorf("variant must be %q or %q, got %q", VariantFMRI, VariantTraining, s.Variant)
	}
	if s.RefreshRate <= 0 {
		return fmt.Errorf("refresh_rate must be positive")
	}
	if s.Keys.Yes == "" || s.Keys.No == "" || s.Keys.Quit == "" {
		return fmt.Errorf("keys yes, no and quit are required")
	}
	if s.Variant == VariantFMRI && s.Keys.Pulse == "" {
		return fmt.Errorf("fmri scenarios require a pulse key")
	}
	if s.Timing.Digit <= 0 || s.Timing.Info <= 0 {
		return fmt.Errorf("timing digit and info must be positive")
	}

	if err := validateBlocks(s); err != nil {
		return err
	}

	if s.Variant == VariantTraining {
		pairs := len(s.Blocks) / 2
		if len(s.Windows) != pairs {
			return fmt.Errorf("windows has %d entries, need one per block pair (%d)", len(s.Windows), pairs)
		}
		if len(s.HoldToEnd) != pairs {
			return fmt.Errorf("hold_to_end has %d entries, need one per block pair (%d)", len(s.HoldToEnd), pairs)
		}
		for i, w := range s.Windows {
			if math.IsInf(w, 1) && s.HoldToEnd[i] {
				return fmt.Errorf("block pair %d: unlimited window cannot hold to end", i+1)
			}
		}
	}

	for i := 1; i < len(s.Script); i++ {
		if s.Script[i].At < s.Script[i-1].At {
			return fmt.Errorf("script[%d]: keys must be sorted by time", i)
		}
	}
	for i, step := range s.Script {
		if step.Key == "" {
			return fmt.Errorf("script[%d]: key is required", i)
		}
	}

	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}
	for i, a := range s.Assertions {
		if err := validateAssertion(i, &a); err != nil {
			return err
		}
	}
	return nil
}

func validateBlocks(s *Scenario) error {
	if len(s.Blocks) == 0 {
		return fmt.Errorf("blocks list is required and must be non-empty")
	}
	if len(s.Blocks)%2 != 0 {
		return fmt.Errorf("blocks must come in control/order pairs, got %d blocks", len(s.Blocks))
	}

	nTrials := len(s.Blocks[0].Trials)
	if nTrials == 0 {
		return fmt.Errorf("blocks[0]: trials list must be non-empty")
	}

	for i, b := range s.Blocks {
		want := string(task.Conditions[i%2])
		if b.Condition != want {
			return fmt.Errorf("blocks[%d]: condition must be %q (pairs alternate control, order)", i, want)
		}
		if len(b.Trials) != nTrials {
			return fmt.Errorf("blocks[%d]: has %d trials, every block needs %d", i, len(b.Trials), nTrials)
		}
		if b.Group <= 0 {
			return fmt.Errorf("blocks[%d]: group must be positive", i)
		}
		for j, tr := range b.Trials {
			if tr.DigitL == "" || tr.DigitC == "" || tr.DigitR == "" {
				return fmt.Errorf("blocks[%d].trials[%d]: all three digits are required", i, j)
			}
			if tr.IsTarget != 0 && tr.IsTarget != 1 {
				return fmt.Errorf("blocks[%d].trials[%d]: is_target must be 0 or 1", i, j)
			}
			if tr.IsOrder < -1 || tr.IsOrder > 1 {
				return fmt.Errorf("blocks[%d].trials[%d]: is_order must be -1, 0 or 1", i, j)
			}
		}

		switch s.Variant {
		case VariantFMRI:
			if len(b.ISIFrames) != nTrials {
				return fmt.Errorf("blocks[%d]: isi_frames needs one entry per trial", i)
			}
			for j, f := range b.ISIFrames {
				if f <= 0 {
					return fmt.Errorf("blocks[%d].isi_frames[%d]: must be positive", i, j)
				}
			}
		case VariantTraining:
			if len(b.ISIFrames) != 0 {
				return fmt.Errorf("blocks[%d]: isi_frames is forbidden in training scenarios", i)
			}
		}
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	switch a.Type {
	case "":
		return fmt.Errorf("assertions[%d]: type is required", index)
	case AssertRecordCount, AssertPulseCount:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative", index)
		}
	case AssertCorrectSeq:
		if len(a.Values) == 0 {
			return fmt.Errorf("assertions[%d]: values list is required for correct_sequence", index)
		}
	case AssertViewOrder:
		if len(a.Views) == 0 {
			return fmt.Errorf("assertions[%d]: views list is required for view_order", index)
		}
		for i, name := range a.Views {
			if _, ok := viewKindByName[name]; !ok {
				return fmt.Errorf("assertions[%d].views[%d]: unknown view kind %q", index, i, name)
			}
		}
	case AssertAborted:
		// Value defaults to false, nothing further to check.
	case AssertRTWithin:
		if a.Index < 0 {
			return fmt.Errorf("assertions[%d]: index must be non-negative", index)
		}
		if a.Max < a.Min {
			return fmt.Errorf("assertions[%d]: max must be >= min", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
