package cmd

import (
	"context"
	"fmt"

	"github.com/heinergc/sqlconn/internal/ui"
	"github.com/heinergc/sqlconn/internal/utils"
	"github.com/heinergc/sqlconn/internal/workflows"

	"github.com/spf13/cobra"
)

var repairCmd = &cobra.Command{
	Use:   "repair",
	Short: "Re-enter passwords that are missing or cannot be decrypted",
	Long: `Finds profiles using SQL authentication whose stored password is empty
or cannot be decrypted on this machine, and asks for each new password.

Press Enter without typing a password to skip a profile.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting repair command")

		s, err := openSession(cmd.Context())
		if err != nil {
			return err
		}
		defer s.close()

		return repairPasswords(cmd.Context(), s, utils.NewPrompter(stdin, cmd.OutOrStdout()))
	},
}

func repairPasswords(ctx context.Context, s *session, p *utils.Prompter) error {
	fmt.Println(ui.Title("Repair passwords"))

	result, err := workflows.Repair(ctx, s.store, workflows.RepairOptions{
		Cipher: s.box,
		Audit:  s.trail,
		Prompt: func(c workflows.Candidate) (string, error) {
			fmt.Printf("\n%s %s on %s %s\n", ui.Warning.Sprint("⚠"), ui.Highlight.Sprint(c.Profile.Name),
				c.Profile.Server, ui.Muted.Sprint(string(c.Reason)))
			return p.Password(fmt.Sprintf("New password for %s (Enter to skip): ", c.Profile.Username))
		},
	})
	if result == nil {
		return err
	}

	if len(result.Candidates) == 0 {
		fmt.Println(ui.Success.Sprint("✓") + " All stored passwords can be decrypted")
		return err
	}

	fmt.Println()
	for _, prof := range result.Repaired {
		fmt.Printf("%s Repaired %s\n", ui.Success.Sprint("✓"), ui.Highlight.Sprint(prof.Name))
	}
	for _, prof := range result.Skipped {
		fmt.Printf("%s Skipped %s\n", ui.Muted.Sprint("-"), ui.Highlight.Sprint(prof.Name))
	}
	for _, f := range result.Failed {
		fmt.Printf("%s Could not repair %s: %v\n", ui.Error.Sprint("✗"), ui.Highlight.Sprint(f.Profile.Name), f.Err)
	}
	fmt.Printf("\nSummary: %d repaired, %d skipped, %d failed\n", len(result.Repaired), len(result.Skipped), len(result.Failed))
	return err
}
