package cmd

import (
	"context"
	"errors"
	"fmt"

	kerrors "github.com/heinergc/sqlconn/internal/errors"
	"github.com/heinergc/sqlconn/internal/profiles"
	"github.com/heinergc/sqlconn/internal/ui"
	"github.com/heinergc/sqlconn/internal/utils"
	"github.com/heinergc/sqlconn/internal/workflows"

	"github.com/spf13/cobra"
)

var editCmd = &cobra.Command{
	Use:   "edit <profile>",
	Short: "Edit a connection profile",
	Long: `Asks for new values for every field of a profile. Press Enter to keep
the current value. Leaving the password empty keeps the stored password.

<profile> is a profile id, name or list number.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting edit command")

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
		return editProfile(cmd.Context(), s, utils.NewPrompter(stdin, cmd.OutOrStdout()), target)
	},
}

func editProfile(ctx context.Context, s *session, p *utils.Prompter, target profiles.Profile) error {
	fmt.Println(ui.Title("Edit connection"))

	form, err := readProfileForm(p, target, true)
	if err != nil {
		return err
	}
	form.ID = target.ID

	found, err := workflows.EditProfile(ctx, s.store, s.trail, form)
	switch {
	case errors.Is(err, kerrors.ErrInvalidProfile), errors.Is(err, kerrors.ErrUnknownProvider):
		fmt.Println(ui.Error.Sprint("✗") + " " + err.Error())
		return nil
	case err != nil:
		return Logger.ErrorfAndReturn("Failed to save profile: %v", err)
	case !found:
		fmt.Println(ui.Warning.Sprint("⚠") + " Profile no longer exists, nothing was changed")
		return nil
	}

	fmt.Printf("%s Updated %s\n", ui.Success.Sprint("✓"), ui.Highlight.Sprint(form.Name))
	return nil
}
