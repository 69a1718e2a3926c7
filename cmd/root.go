package cmd

import (
	"io"
	"os"

	logger "github.com/heinergc/sqlconn/internal/logging"
	"github.com/heinergc/sqlconn/internal/probe"
	"github.com/heinergc/sqlconn/internal/secrets"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var (
	verbose bool
	debug   bool
	Logger  logger.Logger

	// stdin is where prompts read from. Tests replace it.
	stdin io.Reader = os.Stdin

	// probeOptions are appended when the probe runner is built, so tests
	// can swap the database driver.
	probeOptions []probe.Option
)

// Register attaches the persistent flags and every subcommand to root.
func Register(root *cobra.Command) {
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	root.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "enable debug output")

	root.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		Logger = logger.Logger{
			Verbose: verbose,
			Debug:   debug,
		}
		Logger.Debugf("Initializing %s with verbose=%t, debug=%t", cmd.CommandPath(), verbose, debug)
	}

	root.AddCommand(listCmd)
	root.AddCommand(addCmd)
	root.AddCommand(editCmd)
	root.AddCommand(deleteCmd)
	root.AddCommand(testCmd)
	root.AddCommand(databasesCmd)
	root.AddCommand(queryCmd)
	root.AddCommand(passwordsCmd)
	root.AddCommand(repairCmd)
	root.AddCommand(reportCmd)
	root.AddCommand(doctorCmd)
	root.AddCommand(logCmd)
	root.AddCommand(ConfigCmd)
}

// Helper functions for testing

// ResetGlobalState resets all global variables to their default values for testing.
func ResetGlobalState() {
	verbose = false
	debug = false
	Logger = logger.Logger{}
	stdin = os.Stdin
	probeOptions = nil
	newBox = secrets.NewMachineBox

	resetListCommandState()
	resetTestCommandState()
	resetQueryCommandState()
	resetDeleteCommandState()
	resetPasswordsCommandState()
	resetReportCommandState()
	resetDoctorCommandState()
	resetLogCommandState()
	resetConfigInitState()
	resetConfigShowState()

	for _, c := range []*cobra.Command{listCmd, testCmd, queryCmd, deleteCmd, passwordsCmd, reportCmd, doctorCmd, logCmd, configInitCmd, configShowCmd} {
		c.Flags().VisitAll(func(flag *pflag.Flag) {
			flag.Changed = false
		})
	}
}

// SetStdin sets the prompt input for testing.
func SetStdin(r io.Reader) {
	stdin = r
}

// SetKeyPhrase makes every command derive its cipher from phrase instead of
// the machine identity, for testing.
func SetKeyPhrase(phrase string) {
	newBox = func() (*secrets.Box, error) {
		return secrets.NewBox(secrets.PhraseKeySource(phrase))
	}
}

// SetProbeOptions sets extra probe runner options for testing.
func SetProbeOptions(opts ...probe.Option) {
	probeOptions = opts
}
