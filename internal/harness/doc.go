// Package harness provides scenario-driven conformance testing for the
// trial executor.
//
// A scenario is a YAML file describing one complete simulated session: the
// exact block layout (conditions, stimuli, explicit ISI frame counts), the
// key bindings, a scripted sequence of keypresses on the simulated
// free-running clock, and assertions over the resulting run log.
//
// # Scenario Format
//
//	name: planned_smoke
//	description: "Full scanner run, one block pair"
//	variant: fmri
//	refresh_rate: 60
//	keys: {yes: d, no: a, pulse: s, quit: q}
//	timing: {digit: 2, info: 4}
//	blocks:
//	  - condition: control
//	    group: 1
//	    isi_frames: [180, 300]
//	    trials:
//	      - {digit_l: "1", digit_c: "5", digit_r: "9", is_target: 1, is_order: 1}
//	      ...
//	script:
//	  - {at: 0.0, key: d}
//	  - {at: 0.5, key: s}
//	assertions:
//	  - {type: record_count, count: 4}
//	  - {type: correct_sequence, values: [1, -1, 0, 1]}
//
// # Assertion Types
//
//   - record_count: number of trial records produced
//   - correct_sequence: per-trial correctness values in execution order
//   - pulse_count: number of recorded scanner pulses
//   - view_order: view kinds first appear in the given order
//   - aborted: whether the run ended on the quit key
//   - rt_within: reaction time of one record falls inside [min, max]
//
// # Deterministic Execution
//
// Scenarios run on the simulated clock (testutil.SimClock): time advances
// exactly one frame per render pass, and scripted keys fire at fixed
// free-running-clock times. The same scenario therefore produces the same
// run log on every execution, on any machine.
//
// Randomization is deliberately absent: the scenario states its block order
// and ISI sequence explicitly, so every onset in the plan is a closed-form
// number the scenario author can compute by hand.
//
// Every execution also round-trips the run log through an in-memory run
// database, so the persistence path is covered by the same scenarios.
package harness
