package cmd

import (
	"fmt"

	"github.com/heinergc/sqlconn/internal/ui"
	"github.com/heinergc/sqlconn/internal/utils"

	"github.com/spf13/cobra"
)

var passwordsYes bool

func init() {
	passwordsCmd.Flags().BoolVarP(&passwordsYes, "yes", "y", false, "skip the confirmation prompt")
}

func resetPasswordsCommandState() {
	passwordsYes = false
}

var passwordsCmd = &cobra.Command{
	Use:   "passwords",
	Short: "Show stored passwords in clear text",
	Long: `Decrypts and prints the stored password of every profile using SQL
authentication. Nothing is written back. Passwords that cannot be decrypted
on this machine are marked.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting passwords command")

		s, err := openSession(cmd.Context())
		if err != nil {
			return err
		}
		defer s.close()

		return showPasswords(s, utils.NewPrompter(stdin, cmd.OutOrStdout()), passwordsYes)
	},
}

func showPasswords(s *session, p *utils.Prompter, yes bool) error {
	list := s.store.List()
	if len(list) == 0 {
		fmt.Println(s.noProfilesMessage())
		return nil
	}

	if !yes {
		fmt.Println(ui.Warning.Sprint("⚠") + " Passwords will be shown in clear text on screen")
		ok, err := p.Confirm("Continue?", false)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
	}

	fmt.Println(ui.Title("Stored passwords"))
	for _, prof := range list {
		var shown string
		switch {
		case !prof.UsesSQLAuth():
			shown = ui.Muted.Sprint("integrated authentication")
		case prof.Password == "":
			shown = ui.Error.Sprint("missing")
		default:
			plain, err := s.store.GetWithPlaintextSecret(prof.ID)
			if err != nil {
				Logger.Debugf("Decrypting %s failed: %v", prof.Name, err)
				shown = ui.Error.Sprint("cannot be decrypted on this machine")
			} else {
				shown = ui.Secret.Sprint(plain.Password)
			}
		}
		fmt.Printf("  %-24s %-16s %s\n", truncate(prof.Name, 24), truncate(prof.Username, 16), shown)
	}
	return nil
}
