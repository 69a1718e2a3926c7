package cmd

import (
	"github.com/spf13/cobra"
)

// ConfigCmd is the top-level config command.
var ConfigCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage sqlconn settings",
	Long: `Provides commands for managing Data/settings.toml.

The data directory is the working directory unless SQLCONN_HOME is set.

Examples:
  # Write the default settings file
  sqlconn config init

  # Write settings with a rotating log file
  sqlconn config init --log-file sqlconn.log

  # Show the effective settings and resolved paths
  sqlconn config show`,
}

func init() {
	ConfigCmd.AddCommand(configInitCmd)
	ConfigCmd.AddCommand(configShowCmd)
}
