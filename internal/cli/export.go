package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/compneuro-ncu/order-task/internal/store"
)

// NewExportCommand creates the export command: write a stored run's
// behavioral and pulse CSVs.
func NewExportCommand(rootOpts *RootOptions) *cobra.Command {
	var dbPath, outDir string

	cmd := &cobra.Command{
		Use:   "export <run-id>",
		Short: "Export a stored run as CSV",
		Long: `Export one run from the database as two CSV files: the wide
behavioral table and the scanner pulse log.

Example:
  order-task export --db logs/ordertask.db --out ./analysis 0198c9f2-...`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return exportRun(cmd, rootOpts, dbPath, outDir, args[0])
		},
	}

	cmd.Flags().StringVar(&dbPath, "db", "", "path to the run database (required)")
	cmd.Flags().StringVar(&outDir, "out", ".", "output directory")
	_ = cmd.MarkFlagRequired("db")
	return cmd
}

type exportResult struct {
	RunID      string `json:"run_id"`
	Behavioral string `json:"behavioral"`
	Pulses     string `json:"pulses"`
}

func exportRun(cmd *cobra.Command, rootOpts *RootOptions, dbPath, outDir, runID string) error {
	st, err := store.Open(dbPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return WrapExitError(ExitCommandError, "failed to create output directory", err)
	}

	behPath, pulsePath, err := st.ExportRun(cmd.Context(), runID, outDir)
	if err != nil {
		return WrapExitError(ExitCommandError, "export failed", err)
	}

	out := &OutputFormatter{Format: rootOpts.Format, Writer: cmd.OutOrStdout(), Verbose: rootOpts.Verbose}
	if rootOpts.Format == "json" {
		return out.Success(exportResult{RunID: runID, Behavioral: behPath, Pulses: pulsePath})
	}
	fmt.Fprintf(cmd.OutOrStdout(), "exported %s\n  behavioral: %s\n  pulses:     %s\n", runID, behPath, pulsePath)
	return nil
}

// NewRunsCommand creates the runs command: list stored runs.
func NewRunsCommand(rootOpts *RootOptions) *cobra.Command {
	var dbPath, subject string

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List stored runs",
		Long: `List runs in the database, newest first, optionally filtered by
subject id.

Example:
  order-task runs --db logs/ordertask.db --subject sub-01`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return listRuns(cmd, rootOpts, dbPath, subject)
		},
	}

	cmd.Flags().StringVar(&dbPath, "db", "", "path to the run database (required)")
	cmd.Flags().StringVar(&subject, "subject", "", "filter by subject id")
	_ = cmd.MarkFlagRequired("db")
	return cmd
}

type runListing struct {
	ID        string `json:"id"`
	SubjectID string `json:"subject_id"`
	Variant   string `json:"variant"`
	StartedAt string `json:"started_at"`
	Aborted   bool   `json:"aborted"`
}

func listRuns(cmd *cobra.Command, rootOpts *RootOptions, dbPath, subject string) error {
	st, err := store.Open(dbPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	runs, err := st.ListRuns(cmd.Context(), subject)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to list runs", err)
	}

	if rootOpts.Format == "json" {
		listing := make([]runListing, len(runs))
		for i, r := range runs {
			listing[i] = runListing{
				ID:        r.ID,
				SubjectID: r.SubjectID,
				Variant:   string(r.Variant),
				StartedAt: r.StartedAt.Format("2006-01-02T15:04:05Z07:00"),
				Aborted:   r.Aborted,
			}
		}
		out := &OutputFormatter{Format: rootOpts.Format, Writer: cmd.OutOrStdout()}
		return out.Success(listing)
	}

	if len(runs) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "no runs found")
		return nil
	}
	for _, r := range runs {
		status := "complete"
		if r.Aborted {
			status = "aborted"
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s  %-10s %-8s %s  %s\n",
			r.ID, r.SubjectID, r.Variant, r.StartedAt.Format("2006-01-02 15:04"), status)
	}
	return nil
}
