package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/heinergc/sqlconn/internal/profiles"
	"github.com/heinergc/sqlconn/internal/ui"
	"github.com/heinergc/sqlconn/internal/utils"
	"github.com/heinergc/sqlconn/internal/workflows"

	"github.com/spf13/cobra"
)

var querySQL string

func init() {
	queryCmd.Flags().StringVarP(&querySQL, "sql", "s", "", "query to run (asked for when omitted)")
}

func resetQueryCommandState() {
	querySQL = ""
}

var queryCmd = &cobra.Command{
	Use:   "query <profile>",
	Short: "Run a smoke-test query with a profile",
	Long: `Runs a single query with a stored profile and prints the first value of
the first row. Use it to check that a login can actually read data.

Examples:
  sqlconn query Local --sql "SELECT COUNT(*) FROM sys.tables"
  sqlconn query 2`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting query command")

		s, err := openSession(cmd.Context())
		if err != nil {
			return err
		}
		defer s.close()

		target, err := findProfile(s.store.List(), args[0])
		if err != nil {
			fmt.Println(ui.Error.Sprint("✗") + " " + err.Error())
			return err
		}

		query := querySQL
		if strings.TrimSpace(query) == "" {
			p := utils.NewPrompter(stdin, cmd.OutOrStdout())
			if query, err = p.Ask("SQL> "); err != nil {
				return err
			}
		}
		return runQuery(cmd.Context(), s, target, query)
	},
}

func runQuery(ctx context.Context, s *session, target profiles.Profile, query string) error {
	if strings.TrimSpace(query) == "" {
		fmt.Println(ui.Info.Sprint("ℹ") + " No query entered")
		return nil
	}

	spinner, cleanup := startSpinner("Running query on " + target.Name + "...")
	out, err := workflows.RunQuery(ctx, s.store, s.runner, s.trail, target.ID, query)
	if err != nil {
		spinner.FinalMSG = ui.Error.Sprint("✗") + " " + err.Error()
		cleanup()
		return err
	}

	if !out.Success {
		spinner.FinalMSG = ui.Error.Sprint("✗") + " " + out.Message + " " + ui.Muted.Sprint(ui.Millis(out.Elapsed))
		cleanup()
		return nil
	}

	spinner.FinalMSG = ui.Success.Sprint("✓") + " " + out.Message + " " + ui.Muted.Sprint(ui.Millis(out.Elapsed))
	cleanup()
	if out.HasScalar {
		fmt.Printf("  Result: %s\n", ui.Highlight.Sprint(out.Scalar))
	} else {
		fmt.Println("  " + ui.Muted.Sprint("no rows returned"))
	}
	return nil
}
