package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var csvOutput string

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the transaction report",
}

var exportCSVCmd = &cobra.Command{
	Use:   "csv",
	Short: "Download the backend's CSV report",
	Long: `Download the CSV report exactly as the backend produces it.

Example:
  budgetwise export csv -o report.csv
  budgetwise export csv -o - | head`,
	RunE: runExportCSV,
}

var exportSheetsCmd = &cobra.Command{
	Use:   "sheets",
	Short: "Write all transactions to the configured Google Sheet",
	RunE:  runExportSheets,
}

func init() {
	addUserFlags(exportCSVCmd)
	exportCSVCmd.Flags().StringVarP(&csvOutput, "output", "o", "budgetwise_report.csv", "output file, - for stdout")

	addUserFlags(exportSheetsCmd)

	exportCmd.AddCommand(exportCSVCmd)
	exportCmd.AddCommand(exportSheetsCmd)
}

func runExportCSV(cmd *cobra.Command, _ []string) error {
	svc, u, cleanup, err := commandService(cmd, 0)
	if err != nil {
		return err
	}
	defer cleanup()

	b, err := svc.ExportCSV(cmd.Context(), u)
	if err != nil {
		return err
	}
	if csvOutput == "-" {
		_, err = os.Stdout.Write(b)
		return err
	}
	if err := os.WriteFile(csvOutput, b, 0644); err != nil {
		return fmt.Errorf("write %s: %w", csvOutput, err)
	}
	fmt.Fprintf(os.Stderr, "Wrote %d bytes to %s\n", len(b), csvOutput)
	return nil
}

func runExportSheets(cmd *cobra.Command, _ []string) error {
	svc, u, cleanup, err := commandService(cmd, withSheets)
	if err != nil {
		return err
	}
	defer cleanup()

	ref, err := svc.ExportSheets(cmd.Context(), u)
	if err != nil {
		return err
	}
	fmt.Printf("Exported transactions to %s\n", ref)
	return nil
}
