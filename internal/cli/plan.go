package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/compneuro-ncu/order-task/internal/harness"
	"github.com/compneuro-ncu/order-task/internal/task"
	"github.com/compneuro-ncu/order-task/internal/timing"
)

// planSummary is the JSON payload of the plan command.
type planSummary struct {
	Seed          int64   `json:"seed"`
	BlockPairs    int     `json:"block_pairs"`
	TrialsPer     int     `json:"trials_per_block"`
	BlockDuration float64 `json:"block_duration_seconds"`
	Schedule      string  `json:"schedule"`
}

// NewPlanCommand creates the plan command: build and print a run schedule
// without presenting anything. Used to sanity-check timing before a scan.
func NewPlanCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &sessionOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Preview the onset schedule for a seed",
		Long: `Build the fMRI run plan for a given seed and print it.

The same seed with the same config and stimuli always yields the same
schedule, so the printed plan is exactly what a run with that seed will
execute.

Example:
  order-task plan --subject check --seed 7 --config task.yaml`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return printPlan(cmd, opts)
		},
	}
	addSessionFlags(cmd, opts)
	return cmd
}

func printPlan(cmd *cobra.Command, opts *sessionOptions) error {
	_, params, table, seed, err := loadSession(opts)
	if err != nil {
		return err
	}

	plan, err := task.BuildPlanned(params, table, timing.NewRandSource(seed))
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to build run plan", err)
	}

	formatted := harness.FormatPlan(plan)
	out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), Verbose: opts.Verbose}
	if opts.Format == "json" {
		return out.Success(planSummary{
			Seed:          seed,
			BlockPairs:    params.NBlocks,
			TrialsPer:     params.NTrials,
			BlockDuration: plan.TimeBlock,
			Schedule:      string(formatted),
		})
	}

	fmt.Fprintf(cmd.OutOrStdout(), "seed: %d\n", seed)
	_, err = cmd.OutOrStdout().Write(formatted)
	return err
}
