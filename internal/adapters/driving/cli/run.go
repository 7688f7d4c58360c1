package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/teca-labs/arcveil/internal/core/ports/driving"
	"github.com/teca-labs/arcveil/internal/printer"
)

var (
	flagSkipBackup bool
	flagWorkers    int
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Classify and redact the whole archive",
	Long: `Runs the full pipeline: journal backup, classification of every
Record and RecordSet, placeholder redaction of anonymised entities,
consistency verification and the author scan on protected entities.

The command exits non-zero when verification finds unresolved anomalies,
so a failed run is visible to calling scripts.`,
	RunE: runPipeline,
}

func init() {
	runCmd.Flags().BoolVar(&flagSkipBackup, "skip-backup", false,
		"start without a fresh journal backup (unsafe)")
	runCmd.Flags().IntVar(&flagWorkers, "workers", 0,
		"override the configured redaction worker count")
	rootCmd.AddCommand(runCmd)
}

func runPipeline(cmd *cobra.Command, _ []string) error {
	if pipeline == nil {
		return errors.New("pipeline service not configured")
	}

	if flagSkipBackup {
		printer.Warning("Running without a journal backup: mutations cannot be rolled back")
	}

	report, err := pipeline.Run(context.Background(), driving.RunOptions{
		SkipBackup: flagSkipBackup,
		Workers:    flagWorkers,
	})
	if err != nil {
		return fmt.Errorf("run failed: %w", err)
	}

	printer.Summary(cmd.OutOrStdout(), report)

	if !report.Succeeded() {
		printer.Failure("Run %s finished with unresolved anomalies", report.ID)
		return fmt.Errorf("%d protected-field and %d work-link anomalies",
			report.ProtectedFieldAnomalies, report.WorkLinkAnomalies)
	}
	printer.Success("Run %s completed", report.ID)
	return nil
}
