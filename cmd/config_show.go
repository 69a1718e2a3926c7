package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/heinergc/sqlconn/internal/configs"
	"github.com/heinergc/sqlconn/internal/ui"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"
)

var configShowJSON bool

func init() {
	configShowCmd.Flags().BoolVar(&configShowJSON, "json", false, "output in JSON format")
}

// resetConfigShowState resets the config show command's global state for testing.
func resetConfigShowState() {
	configShowJSON = false
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Display the effective settings",
	Long: `Displays the settings in effect, including defaults for anything
settings.toml leaves out, and the paths they resolve to.

Examples:
  sqlconn config show
  sqlconn config show --json`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting config show command")

		home, err := configs.ResolveHome()
		if err != nil {
			return Logger.ErrorfAndReturn("Failed to resolve the data directory: %v", err)
		}

		settings, loadErr := configs.LoadSettings(home)
		paths := settings.Paths(home)

		if configShowJSON {
			out := struct {
				Settings configs.Settings `json:"settings"`
				Paths    configs.Paths    `json:"paths"`
				Error    string           `json:"error,omitempty"`
			}{Settings: settings, Paths: paths}
			if loadErr != nil {
				out.Error = loadErr.Error()
			}
			data, err := json.MarshalIndent(out, "", "  ")
			if err != nil {
				return fmt.Errorf("failed to marshal settings to JSON: %w", err)
			}
			fmt.Println(string(data))
			return nil
		}

		if loadErr != nil {
			fmt.Println(ui.Warning.Sprint("⚠") + " " + loadErr.Error() + ", showing defaults")
		} else if _, err := os.Stat(paths.SettingsFile); os.IsNotExist(err) {
			fmt.Println(ui.Info.Sprint("ℹ") + " No settings file, showing defaults\n" +
				ui.Info.Sprint("→") + " Run " + ui.Code.Sprint("sqlconn config init") + " to create one")
		}
		fmt.Println()

		if err := toml.NewEncoder(os.Stdout).Encode(settings); err != nil {
			return fmt.Errorf("failed to encode settings: %w", err)
		}

		fmt.Println()
		fmt.Println(ui.Title("Paths"))
		fmt.Printf("  Settings:    %s\n", ui.Path.Sprint(paths.SettingsFile))
		fmt.Printf("  Connections: %s\n", ui.Path.Sprint(paths.ConnectionsFile))
		fmt.Printf("  Audit log:   %s\n", ui.Path.Sprint(paths.AuditFile))
		fmt.Printf("  Reports:     %s\n", ui.Path.Sprint(paths.ReportsDir))
		if paths.LogFile != "" {
			fmt.Printf("  Log file:    %s\n", ui.Path.Sprint(paths.LogFile))
		}
		return nil
	},
}
