package cli

import (
	"github.com/spf13/cobra"

	"github.com/compneuro-ncu/order-task/internal/engine"
	"github.com/compneuro-ncu/order-task/internal/store"
	"github.com/compneuro-ncu/order-task/internal/task"
	"github.com/compneuro-ncu/order-task/internal/timing"
)

// NewTrainCommand creates the train command (self-paced adaptive variant).
func NewTrainCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &sessionOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "train",
		Short: "Run a self-paced training session",
		Long: `Run the adaptive training variant of the task.

Trials are paced as the session unfolds: fixed fixation, a per-block-pair
response window (unlimited early on, tightening later), and win/lose
feedback while the adaptive controller keeps it enabled. After each order
block the controller re-evaluates: strong performance first disables
feedback, then ends the session early.

Example:
  order-task train --subject sub-01 --config task.yaml`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTraining(cmd, opts)
		},
	}
	addSessionFlags(cmd, opts)
	return cmd
}

func runTraining(cmd *cobra.Command, opts *sessionOptions) error {
	cfg, params, table, seed, err := loadSession(opts)
	if err != nil {
		return err
	}

	plan, err := task.BuildSelfPaced(params, table, timing.NewRandSource(seed), cfg.Training.MaxBlocks)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to build training plan", err)
	}

	return executeSession(cmd, cfg, plan, engine.ModeSelfPaced, store.VariantTraining, opts.Subject, seed)
}
