package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/heinergc/sqlconn/internal/configs"
	"github.com/heinergc/sqlconn/internal/ui"
	"github.com/heinergc/sqlconn/internal/workflows"

	"github.com/spf13/cobra"
)

var (
	doctorJSONOutput bool
	// doctorExitFunc is the function called to exit with a specific code.
	// Can be overridden for testing.
	doctorExitFunc = os.Exit
)

func init() {
	doctorCmd.Flags().BoolVar(&doctorJSONOutput, "json", false, "output in JSON format")
}

func resetDoctorCommandState() {
	doctorJSONOutput = false
	doctorExitFunc = os.Exit
}

// SetDoctorExitFunc sets the exit function for testing purposes.
func SetDoctorExitFunc(f func(int)) {
	doctorExitFunc = f
}

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Run health checks on the stored profiles",
	Long: `Runs a series of read-only health checks and reports issues.

The doctor command checks:
  - Settings file validity
  - Connection file readability and permissions
  - Encryption round trip with this machine's key
  - Passwords still stored in plaintext
  - Passwords that are empty or cannot be decrypted
  - Integrated profiles that still carry a password
  - Duplicate or missing profile ids

Exit codes:
  0 - All checks passed
  1 - Warnings found (non-critical issues)
  2 - Errors found (critical issues)

Use --json for machine-readable output.`,
	Args: cobra.NoArgs,
	RunE: runDoctor,
}

func runDoctor(cmd *cobra.Command, args []string) error {
	Logger.Infof("Starting doctor command")

	home, err := configs.ResolveHome()
	if err != nil {
		return Logger.ErrorfAndReturn("Failed to resolve the data directory: %v", err)
	}
	settings, err := configs.LoadSettings(home)
	if err != nil {
		Logger.Debugf("Settings: %v", err)
	}
	paths := settings.Paths(home)

	opts := workflows.DoctorOptions{
		Home:            home,
		ConnectionsFile: paths.ConnectionsFile,
	}
	if box, err := newBox(); err == nil {
		opts.Cipher = box
	} else {
		Logger.Warnf("Failed to derive the encryption key: %v", err)
	}

	result, err := doctorChecks(cmd.Context(), opts)
	if err != nil {
		return err
	}

	for _, check := range result.Checks {
		Logger.Debugf("Check %s: status=%s, message=%s", check.Name, check.Status.String(), check.Message)
	}

	if doctorJSONOutput {
		if err := outputDoctorJSON(result); err != nil {
			return err
		}
	} else {
		printDoctorResults(result)
	}

	if code := result.Summary.ExitCode(); code != 0 {
		doctorExitFunc(code)
	}
	return nil
}

func doctorChecks(ctx context.Context, opts workflows.DoctorOptions) (*workflows.DoctorResult, error) {
	spinner, cleanup := startSpinner("Running health checks...")
	defer cleanup()

	result, err := workflows.Doctor(ctx, opts)
	if err != nil {
		spinner.FinalMSG = ui.Error.Sprint("✗") + " Failed to run health checks: " + err.Error()
		return nil, err
	}
	return result, nil
}

func outputDoctorJSON(result *workflows.DoctorResult) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

func doctorIcon(status workflows.CheckStatus) string {
	switch status {
	case workflows.CheckWarning:
		return ui.Warning.Sprint("⚠")
	case workflows.CheckError:
		return ui.Error.Sprint("✗")
	default:
		return ui.Success.Sprint("✓")
	}
}

func printDoctorResults(result *workflows.DoctorResult) {
	fmt.Println(ui.Title("Health checks"))
	for _, check := range result.Checks {
		fmt.Printf("%s %s\n", doctorIcon(check.Status), check.Message)
	}

	parts := []string{fmt.Sprintf("%d passed", result.Summary.Passed)}
	if n := result.Summary.Warnings; n > 0 {
		parts = append(parts, ui.Warning.Sprintf("%d warning(s)", n))
	}
	if n := result.Summary.Errors; n > 0 {
		parts = append(parts, ui.Error.Sprintf("%d error(s)", n))
	}
	fmt.Printf("\nSummary: %s\n", strings.Join(parts, ", "))

	if len(result.Suggestions) == 0 {
		return
	}
	fmt.Println("\nSuggestions:")
	for _, suggestion := range result.Suggestions {
		fmt.Printf("  %s %s\n", ui.Info.Sprint("→"), suggestion)
	}
}
