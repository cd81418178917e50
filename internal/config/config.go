// Package config loads and validates the run configuration.
//
// Validation is fail-fast: every timing parameter is checked for exact frame
// quantization and internal consistency before any stimulus is shown. A bad
// configuration is a programmer/operator error, never recoverable at runtime.
package config

import (
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/compneuro-ncu/order-task/internal/task"
	"github.com/compneuro-ncu/order-task/internal/timing"
)

// Config is the YAML run configuration.
type Config struct {
	Keys     Keys     `yaml:"keys"`
	Timing   Timing   `yaml:"timing"`
	Task     Task     `yaml:"task"`
	Training Training `yaml:"training"`
	Paths    Paths    `yaml:"paths"`
}

// Keys binds physical key names to their roles. Exactly one key is accepted
// as yes, one as no, one delivers scanner pulses (test/simulation use), and
// one is the global quit hotkey, active at all times.
type Keys struct {
	Yes   string `yaml:"yes"`
	No    string `yaml:"no"`
	Pulse string `yaml:"pulse"`
	Quit  string `yaml:"quit"`
}

// Timing holds the presentation durations, in seconds. All of them must be
// exact multiples of one frame period at RefreshRate.
type Timing struct {
	Digit       float64 `yaml:"digit"`
	Info        float64 `yaml:"info"`
	ISIMin      float64 `yaml:"isi_min"`
	ISIMax      float64 `yaml:"isi_max"`
	ISIChunk    float64 `yaml:"isi_chunk"`
	RefreshRate int     `yaml:"refresh_rate"`
}

// Task holds the block structure and stimulus source.
type Task struct {
	NBlocks      int    `yaml:"n_blocks"`
	NTrials      int    `yaml:"n_trials"`
	StimulusFile string `yaml:"stimulus_file"`
}

// Training configures the adaptive variant. Windows and HoldToEnd are
// per-block-pair schedules; a window of .inf means the participant may take
// unlimited time, in which case holding the stimulus to window end is
// meaningless and rejected.
type Training struct {
	Fix       float64   `yaml:"fix"`
	Feedback  float64   `yaml:"feedback"`
	MaxBlocks int       `yaml:"max_blocks"`
	Windows   []float64 `yaml:"windows"`
	HoldToEnd []bool    `yaml:"hold_to_end"`
}

// Paths holds output locations. Output files are namespaced by subject id at
// run time.
type Paths struct {
	LogDir   string `yaml:"log_dir"`
	Database string `yaml:"database"`
}

// Default returns the configuration used when no file is given: the task's
// canonical parameters (2s digits, 4s instructions, 3-5s ISI jittered in
// 0.5s steps at 60Hz, 4 block pairs of 12 trials).
func Default() *Config {
	return &Config{
		Keys:   Keys{Yes: "d", No: "a", Pulse: "s", Quit: "q"},
		Timing: Timing{Digit: 2, Info: 4, ISIMin: 3, ISIMax: 5, ISIChunk: 0.5, RefreshRate: 60},
		Task:   Task{NBlocks: 4, NTrials: 12, StimulusFile: "stimuli/stimuli_easy.csv"},
		Training: Training{
			Fix:       4,
			Feedback:  2,
			MaxBlocks: 8,
			Windows:   []float64{math.Inf(1), math.Inf(1), 3, 2, 2, 2, 2, 2},
			HoldToEnd: []bool{false, false, true, true, true, true, true, true},
		},
		Paths: Paths{LogDir: "logs", Database: "logs/ordertask.db"},
	}
}

// Load reads a YAML configuration file, applies it over the defaults, and
// validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the whole configuration. The first failure is returned.
func (c *Config) Validate() error {
	if err := c.Keys.validate(); err != nil {
		return err
	}
	if c.Task.NBlocks <= 0 {
		return timing.NewInvalidArgument("n_blocks must be positive, got %d", c.Task.NBlocks)
	}
	if c.Task.NTrials <= 0 {
		return timing.NewInvalidArgument("n_trials must be positive, got %d", c.Task.NTrials)
	}
	if c.Task.StimulusFile == "" {
		return timing.NewInvalidArgument("stimulus_file must be set")
	}

	// Frame quantization of every presented duration, plus the ISI
	// min/max/chunk consistency rules, checked by running the generator
	// once against a throwaway source.
	if _, err := c.Params(); err != nil {
		return err
	}

	return c.Training.validate(c.Timing)
}

func (k Keys) validate() error {
	names := map[string]string{}
	for role, key := range map[string]string{"yes": k.Yes, "no": k.No, "pulse": k.Pulse, "quit": k.Quit} {
		if key == "" {
			return timing.NewInvalidArgument("key binding %q must be set", role)
		}
		if other, dup := names[key]; dup {
			return timing.NewInvalidArgument("key %q bound to both %q and %q", key, other, role)
		}
		names[key] = role
	}
	return nil
}

func (tr Training) validate(tm Timing) error {
	if tr.MaxBlocks <= 0 {
		return timing.NewInvalidArgument("training max_blocks must be positive, got %d", tr.MaxBlocks)
	}
	if len(tr.Windows) < tr.MaxBlocks {
		return timing.NewInvalidArgument(
			"training windows has %d entries, need %d (one per block pair)", len(tr.Windows), tr.MaxBlocks)
	}
	if len(tr.HoldToEnd) < tr.MaxBlocks {
		return timing.NewInvalidArgument(
			"training hold_to_end has %d entries, need %d", len(tr.HoldToEnd), tr.MaxBlocks)
	}
	for i, w := range tr.Windows[:tr.MaxBlocks] {
		if math.IsInf(w, 1) {
			if tr.HoldToEnd[i] {
				return timing.NewInvalidArgument(
					"training block pair %d: unlimited window cannot hold to end", i+1)
			}
			continue
		}
		if _, err := timing.SecondsToFrames(w, tm.RefreshRate); err != nil {
			return fmt.Errorf("training window %d: %w", i+1, err)
		}
	}
	if _, err := timing.SecondsToFrames(tr.Fix, tm.RefreshRate); err != nil {
		return fmt.Errorf("training fix: %w", err)
	}
	if _, err := timing.SecondsToFrames(tr.Feedback, tm.RefreshRate); err != nil {
		return fmt.Errorf("training feedback: %w", err)
	}
	return nil
}

// Params converts the validated timing settings into the frame-quantized
// scheduling parameters consumed by plan assembly.
func (c *Config) Params() (task.Params, error) {
	var p task.Params
	var err error

	if _, err = timing.SecondsToFrames(c.Timing.Digit, c.Timing.RefreshRate); err != nil {
		return p, fmt.Errorf("timing digit: %w", err)
	}
	if _, err = timing.SecondsToFrames(c.Timing.Info, c.Timing.RefreshRate); err != nil {
		return p, fmt.Errorf("timing info: %w", err)
	}

	minFrames, err := timing.SecondsToFrames(c.Timing.ISIMin, c.Timing.RefreshRate)
	if err != nil {
		return p, fmt.Errorf("timing isi_min: %w", err)
	}
	maxFrames, err := timing.SecondsToFrames(c.Timing.ISIMax, c.Timing.RefreshRate)
	if err != nil {
		return p, fmt.Errorf("timing isi_max: %w", err)
	}
	chunkFrames, err := timing.SecondsToFrames(c.Timing.ISIChunk, c.Timing.RefreshRate)
	if err != nil {
		return p, fmt.Errorf("timing isi_chunk: %w", err)
	}

	p = task.Params{
		NTrials:      c.Task.NTrials,
		NBlocks:      c.Task.NBlocks,
		RefreshRate:  c.Timing.RefreshRate,
		TimeDigit:    c.Timing.Digit,
		TimeInfo:     c.Timing.Info,
		MinISIFrames: minFrames,
		MaxISIFrames: maxFrames,
		ChunkFrames:  chunkFrames,
	}

	// Exercise the generator's precondition checks so inconsistent
	// min/max/chunk combinations fail here, at startup.
	if _, err := timing.GenerateISI(timing.NewRandSource(1), p.NTrials, p.MinISIFrames, p.MaxISIFrames, p.ChunkFrames); err != nil {
		return task.Params{}, fmt.Errorf("isi settings: %w", err)
	}
	return p, nil
}
