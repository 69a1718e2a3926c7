package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	kerrors "github.com/heinergc/sqlconn/internal/errors"
	"github.com/heinergc/sqlconn/internal/profiles"
	"github.com/heinergc/sqlconn/internal/ui"
	"github.com/heinergc/sqlconn/internal/workflows"

	"github.com/spf13/cobra"
)

var (
	testAll bool
	// testExitFunc is called with 1 when a tested connection fails.
	// Can be overridden for testing.
	testExitFunc = os.Exit
)

func init() {
	testCmd.Flags().BoolVarP(&testAll, "all", "a", false, "test every stored profile, one after another")
}

func resetTestCommandState() {
	testAll = false
	testExitFunc = os.Exit
}

// SetTestExitFunc sets the exit function used when a test fails.
func SetTestExitFunc(f func(int)) {
	testExitFunc = f
}

var testCmd = &cobra.Command{
	Use:   "test [profile]",
	Short: "Test one or all connection profiles",
	Long: `Connects with a stored profile and reports the outcome, including the
response time and the server version. The outcome is saved on the profile.

<profile> is a profile id, name or list number. Use --all to test every
profile one after another.

Failures are classified as one of:
  - Server unreachable
  - Authentication failed
  - Network or port unreachable
  - Database does not exist or cannot be opened
  - Database error
  - Stored password cannot be decrypted
  - Unexpected error`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting test command")

		if testAll == (len(args) == 1) {
			return fmt.Errorf("specify either a profile or --all")
		}

		s, err := openSession(cmd.Context())
		if err != nil {
			return err
		}
		defer s.close()

		var ok bool
		if testAll {
			ok, err = testAllProfiles(cmd.Context(), s)
		} else {
			var target profiles.Profile
			target, err = findProfile(s.store.List(), args[0])
			if err != nil {
				fmt.Println(ui.Error.Sprint("✗") + " " + err.Error())
				return err
			}
			ok, err = testOneProfile(cmd.Context(), s, target)
		}
		if err != nil {
			return err
		}
		if !ok {
			s.close()
			testExitFunc(1)
		}
		return nil
	},
}

func testOneProfile(ctx context.Context, s *session, target profiles.Profile) (bool, error) {
	fmt.Printf("Testing %s %s\n", ui.Highlight.Sprint(target.Name), ui.Muted.Sprint(target.Server))

	spinner, cleanup := startSpinner("Connecting...")
	outcome, err := workflows.TestProfile(ctx, s.store, s.runner, s.trail, target.ID)
	spinner.FinalMSG = ""
	cleanup()

	if errors.Is(err, kerrors.ErrProfileNotFound) {
		fmt.Println(ui.Error.Sprint("✗") + " " + err.Error())
		return false, err
	}

	printOutcome(target, outcome)
	if err != nil {
		Logger.Warnf("The result could not be saved: %v", err)
	}
	return outcome.IsSuccessful, nil
}

func testAllProfiles(ctx context.Context, s *session) (bool, error) {
	if len(s.store.List()) == 0 {
		fmt.Println(s.noProfilesMessage())
		return true, nil
	}

	fmt.Println(ui.Title("Test all connections"))

	result, err := workflows.TestAll(ctx, s.store, s.runner, workflows.TestAllOptions{
		Audit: s.trail,
		OnStart: func(i, total int, p profiles.Profile) {
			fmt.Printf("[%d/%d] %s %s ", i+1, total, ui.Highlight.Sprint(p.Name), ui.Muted.Sprint(p.Server))
		},
		OnResult: func(i, total int, p profiles.Profile, o profiles.TestOutcome) {
			fmt.Printf("%s %s\n", ui.Mark(o.IsSuccessful), ui.Muted.Sprint(ui.Millis(o.Elapsed())))
			if !o.IsSuccessful {
				fmt.Printf("        %s\n", o.Message)
			}
		},
	})

	fmt.Println()
	fmt.Printf("Summary: %s, %s\n",
		ui.Success.Sprintf("%d successful", result.Succeeded),
		ui.Error.Sprintf("%d failed", result.Failed))

	if err != nil {
		if ctx.Err() != nil {
			return false, err
		}
		Logger.Warnf("Some results could not be saved: %v", err)
	}
	return result.Failed == 0, nil
}
