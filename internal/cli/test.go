package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/compneuro-ncu/order-task/internal/harness"
)

type scenarioOutcome struct {
	Scenario string   `json:"scenario"`
	Passed   bool     `json:"passed"`
	Aborted  bool     `json:"aborted,omitempty"`
	Records  int      `json:"records"`
	Failures []string `json:"failures,omitempty"`
}

// NewTestCommand creates the test command: run conformance scenarios on
// the simulated clock.
func NewTestCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "test <scenario.yaml>...",
		Short: "Run conformance scenarios",
		Long: `Execute scenario files against the trial executor on the simulated
clock and report assertion results.

Scenarios are fully deterministic: block layout, ISI sequences and scripted
keypresses are explicit, so a failing scenario is a real behavior change.

Example:
  order-task test scenarios/*.yaml`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScenarios(cmd, rootOpts, args)
		},
	}
	return cmd
}

func runScenarios(cmd *cobra.Command, rootOpts *RootOptions, paths []string) error {
	out := &OutputFormatter{Format: rootOpts.Format, Writer: cmd.OutOrStdout(), Verbose: rootOpts.Verbose}

	outcomes := make([]scenarioOutcome, 0, len(paths))
	failed := 0
	for _, path := range paths {
		scenario, err := harness.LoadScenario(path)
		if err != nil {
			return WrapExitError(ExitCommandError, fmt.Sprintf("failed to load %s", path), err)
		}

		result, err := harness.Run(scenario)
		if err != nil {
			return WrapExitError(ExitCommandError, fmt.Sprintf("failed to run %s", scenario.Name), err)
		}

		outcome := scenarioOutcome{
			Scenario: scenario.Name,
			Passed:   result.Passed(),
			Aborted:  result.Aborted,
			Records:  len(result.Records),
			Failures: result.Failures,
		}
		outcomes = append(outcomes, outcome)
		if !outcome.Passed {
			failed++
		}

		if rootOpts.Format != "json" {
			status := "PASS"
			if !outcome.Passed {
				status = "FAIL"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s  %s (%d records)\n", status, scenario.Name, outcome.Records)
			for _, f := range result.Failures {
				fmt.Fprintf(cmd.OutOrStdout(), "      %s\n", f)
			}
		}
	}

	if rootOpts.Format == "json" {
		if err := out.Success(outcomes); err != nil {
			return err
		}
	} else {
		fmt.Fprintf(cmd.OutOrStdout(), "%d scenarios, %d failed\n", len(outcomes), failed)
	}

	if failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d of %d scenarios failed", failed, len(outcomes)))
	}
	return nil
}
