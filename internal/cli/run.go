package cli

import (
	"github.com/spf13/cobra"

	"github.com/compneuro-ncu/order-task/internal/engine"
	"github.com/compneuro-ncu/order-task/internal/store"
	"github.com/compneuro-ncu/order-task/internal/task"
	"github.com/compneuro-ncu/order-task/internal/timing"
)

// NewRunCommand creates the run command (scanner-locked fMRI variant).
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &sessionOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a scanner-locked session",
		Long: `Run the fMRI variant of the task.

The full onset schedule is computed before the first stimulus. After the
participant confirms readiness, the task waits for the first scanner pulse,
anchors the run clock to it, and paces every screen against the absolute
schedule. The run log is saved to the database and exported as CSV when the
run ends, including after an abort.

Example:
  order-task run --subject sub-01 --config task.yaml --seed 7`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlanned(cmd, opts)
		},
	}
	addSessionFlags(cmd, opts)
	return cmd
}

func runPlanned(cmd *cobra.Command, opts *sessionOptions) error {
	cfg, params, table, seed, err := loadSession(opts)
	if err != nil {
		return err
	}

	plan, err := task.BuildPlanned(params, table, timing.NewRandSource(seed))
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to build run plan", err)
	}

	return executeSession(cmd, cfg, plan, engine.ModePlanned, store.VariantFMRI, opts.Subject, seed)
}
