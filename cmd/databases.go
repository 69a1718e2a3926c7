package cmd

import (
	"context"
	"fmt"

	"github.com/heinergc/sqlconn/internal/profiles"
	"github.com/heinergc/sqlconn/internal/ui"

	"github.com/spf13/cobra"
)

var databasesCmd = &cobra.Command{
	Use:     "databases <profile>",
	Aliases: []string{"dbs"},
	Short:   "List the databases on a profile's server",
	Long: `Connects to the server of a profile and lists its online databases.

<profile> is a profile id, name or list number. An empty list means the
server could not be reached. Run 'sqlconn test <profile>' for details.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting databases command")

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
		listDatabases(cmd.Context(), s, target)
		return nil
	},
}

func listDatabases(ctx context.Context, s *session, target profiles.Profile) {
	spinner, cleanup := startSpinner("Reading databases from " + target.Server + "...")
	names := s.runner.ListDatabases(ctx, target)

	if len(names) == 0 {
		spinner.FinalMSG = ui.Warning.Sprint("⚠") + " No databases found on " + ui.Highlight.Sprint(target.Server) +
			"\n" + ui.Info.Sprint("→") + " Run " + ui.Code.Sprint("sqlconn test "+target.Name) + " to see why"
		cleanup()
		return
	}
	spinner.FinalMSG = ui.Success.Sprint("✓") + fmt.Sprintf(" %d databases on ", len(names)) + ui.Highlight.Sprint(target.Server)
	cleanup()

	for _, name := range names {
		marker := " "
		if name == target.Database {
			marker = ui.Info.Sprint("→")
		}
		fmt.Printf("  %s %s\n", marker, name)
	}
}
