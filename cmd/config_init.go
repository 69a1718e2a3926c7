package cmd

import (
	"fmt"
	"os"

	"github.com/heinergc/sqlconn/internal/configs"
	"github.com/heinergc/sqlconn/internal/ui"

	"github.com/spf13/cobra"
)

var (
	configInitForce      bool
	configInitProvider   string
	configInitReportsDir string
	configInitLogFile    string
)

func init() {
	configInitCmd.Flags().BoolVarP(&configInitForce, "force", "f", false, "overwrite an existing settings file")
	configInitCmd.Flags().StringVar(&configInitProvider, "provider", "", "default provider for new profiles (sqlserver or postgres)")
	configInitCmd.Flags().StringVar(&configInitReportsDir, "reports-dir", "", "directory for spreadsheet reports")
	configInitCmd.Flags().StringVar(&configInitLogFile, "log-file", "", "enable a rotating log file at this path")
}

// resetConfigInitState resets the config init command's global state for testing.
func resetConfigInitState() {
	configInitForce = false
	configInitProvider = ""
	configInitReportsDir = ""
	configInitLogFile = ""
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a settings file with the default values",
	Long: `Creates Data/settings.toml with the default settings, adjusted by any
flags given. An existing file is only replaced with --force.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting config init command")

		home, err := configs.ResolveHome()
		if err != nil {
			return Logger.ErrorfAndReturn("Failed to resolve the data directory: %v", err)
		}
		path := configs.SettingsPath(home)

		if _, err := os.Stat(path); err == nil && !configInitForce {
			fmt.Println(ui.Warning.Sprint("⚠") + " " + ui.Path.Sprint(path) + " already exists\n" +
				ui.Info.Sprint("→") + " Use " + ui.Code.Sprint("sqlconn config init --force") + " to overwrite it")
			return nil
		}

		settings := configs.DefaultSettings()
		if configInitProvider != "" {
			settings.Defaults.Provider = configInitProvider
		}
		if configInitReportsDir != "" {
			settings.Storage.ReportsDir = configInitReportsDir
		}
		if configInitLogFile != "" {
			settings.Logging.File = configInitLogFile
		}

		if err := settings.Validate(); err != nil {
			fmt.Println(ui.Error.Sprint("✗") + " " + err.Error())
			return err
		}

		Logger.Debugf("Writing settings to %s", path)
		if err := configs.SaveSettings(home, settings); err != nil {
			return Logger.ErrorfAndReturn("Failed to write settings: %v", err)
		}

		fmt.Println(ui.Success.Sprint("✓") + " Settings written to " + ui.Path.Sprint(path))
		return nil
	},
}
