package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"nhs-dashboard/internal/presentation"
)

var exportOutput string

// exportCmd writes the aggregates to an Excel workbook.
var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the aggregates to an Excel workbook",
	Args:  cobra.NoArgs,
	RunE:  runExport,
}

func init() {
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "nhs-appointments.xlsx", "workbook path")
}

func runExport(cmd *cobra.Command, _ []string) error {
	agg, err := loadAggregates(cmd.Context())
	if err != nil {
		return err
	}

	f, err := os.Create(exportOutput)
	if err != nil {
		return withExitCode(ExitWriteFailure, fmt.Errorf("create %s: %w", exportOutput, err))
	}
	defer f.Close()

	if err := presentation.WriteWorkbook(f, agg); err != nil {
		return withExitCode(ExitWriteFailure, fmt.Errorf("write workbook: %w", err))
	}
	if err := f.Close(); err != nil {
		return withExitCode(ExitWriteFailure, err)
	}

	if !quiet {
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%d records, %d monthly groups)\n",
			exportOutput, agg.RecordCount, len(agg.Monthly))
	}
	return nil
}
