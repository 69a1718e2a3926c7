package main

import (
	"fmt"
	"os"

	"github.com/heinergc/sqlconn/cmd"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "sqlconn",
	Short: "sqlconn - store, test and report on SQL connection profiles.",
	Long: `sqlconn keeps a list of database connection profiles, tests them against
SQL Server or PostgreSQL and exports the results to an Excel workbook.

Passwords are encrypted with a key bound to this machine and user. A
profile file copied to another machine keeps its settings, but its
passwords have to be entered again with 'sqlconn repair'.

Run without a command to open the interactive menu.

Usage:
  sqlconn [command] [flags]

Data is stored in ./Data unless SQLCONN_HOME points elsewhere.

Run 'sqlconn help <command>' for more details on a specific command.
`,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          cmd.RunMenu,
}

func init() {
	cmd.Register(rootCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
