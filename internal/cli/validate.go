package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/compneuro-ncu/order-task/internal/config"
	"github.com/compneuro-ncu/order-task/internal/stimulus"
)

// Error codes used in CLI error responses.
const (
	ErrCodeConfig  = "E001" // configuration invalid
	ErrCodeStimuli = "E002" // stimulus table invalid or missing
)

type validateSummary struct {
	Config   string `json:"config"`
	Stimuli  string `json:"stimuli"`
	Blocks   int    `json:"block_pairs"`
	Trials   int    `json:"trials_per_block"`
	Variants string `json:"variants"`
}

// NewValidateCommand creates the validate command: check a configuration
// and its stimulus table without running anything.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	var configPath, stimuliPath string

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate config and stimuli",
		Long: `Validate a run configuration and its stimulus table.

Checks frame quantization of every duration, ISI generator consistency,
key bindings, the training schedule, and that the stimulus table provides
exactly the blocks and trials the task needs.

Example:
  order-task validate --config task.yaml`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return validateSetup(cmd, rootOpts, configPath, stimuliPath)
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "path to YAML config (defaults when omitted)")
	cmd.Flags().StringVar(&stimuliPath, "stimuli", "", "stimulus CSV path (overrides config)")
	return cmd
}

func validateSetup(cmd *cobra.Command, rootOpts *RootOptions, configPath, stimuliPath string) error {
	out := &OutputFormatter{Format: rootOpts.Format, Writer: cmd.OutOrStdout(), Verbose: rootOpts.Verbose}

	var cfg *config.Config
	if configPath != "" {
		loaded, err := config.Load(configPath)
		if err != nil {
			_ = out.Error(ErrCodeConfig, err.Error(), nil)
			return WrapExitError(ExitCommandError, "config invalid", err)
		}
		cfg = loaded
	} else {
		cfg = config.Default()
		if err := cfg.Validate(); err != nil {
			_ = out.Error(ErrCodeConfig, err.Error(), nil)
			return WrapExitError(ExitCommandError, "config invalid", err)
		}
	}

	params, err := cfg.Params()
	if err != nil {
		_ = out.Error(ErrCodeConfig, err.Error(), nil)
		return WrapExitError(ExitCommandError, "config invalid", err)
	}

	path := cfg.Task.StimulusFile
	if stimuliPath != "" {
		path = stimuliPath
	}
	table, err := stimulus.Load(path)
	if err != nil {
		_ = out.Error(ErrCodeStimuli, err.Error(), nil)
		return WrapExitError(ExitCommandError, "stimuli invalid", err)
	}
	if err := table.Validate(params.NBlocks, params.NTrials); err != nil {
		_ = out.Error(ErrCodeStimuli, err.Error(), nil)
		return WrapExitError(ExitCommandError, "stimuli invalid", err)
	}

	if rootOpts.Format == "json" {
		return out.Success(validateSummary{
			Config:   configPath,
			Stimuli:  path,
			Blocks:   params.NBlocks,
			Trials:   params.NTrials,
			Variants: "fmri, training",
		})
	}
	fmt.Fprintf(cmd.OutOrStdout(), "✓ config and stimuli valid (%d block pairs, %d trials per block)\n",
		params.NBlocks, params.NTrials)
	return nil
}
