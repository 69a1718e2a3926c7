package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/heinergc/sqlconn/internal/ui"
	"github.com/heinergc/sqlconn/internal/workflows"

	"github.com/spf13/cobra"
)

var reportDir string

func init() {
	reportCmd.Flags().StringVarP(&reportDir, "output", "o", "", "directory to write the report to (default from settings)")
}

func resetReportCommandState() {
	reportDir = ""
}

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Export all profiles to an Excel workbook",
	Long: `Writes an .xlsx workbook with one row per profile and its last test
result, plus a statistics sheet. Passwords are never exported.

The file is named sqlconn_report_YYYYMMDD_HHMMSS.xlsx and written to the
reports directory from settings.toml unless --output is given.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting report command")

		s, err := openSession(cmd.Context())
		if err != nil {
			return err
		}
		defer s.close()

		dir := reportDir
		if dir == "" {
			dir = s.paths.ReportsDir
		}
		return exportReport(cmd.Context(), s, dir)
	},
}

func exportReport(ctx context.Context, s *session, dir string) error {
	spinner, cleanup := startSpinner("Writing report...")
	defer cleanup()

	path, err := workflows.ExportReport(ctx, s.store, s.trail, dir, time.Now())
	if err != nil {
		spinner.FinalMSG = ui.Error.Sprint("✗") + " Failed to write the report: " + err.Error()
		return err
	}

	spinner.FinalMSG = ui.Success.Sprint("✓") + fmt.Sprintf(" Report with %d profiles written to ", len(s.store.List())) + ui.Path.Sprint(path)
	return nil
}
