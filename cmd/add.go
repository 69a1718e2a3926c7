package cmd

import (
	"context"
	"errors"
	"fmt"

	kerrors "github.com/heinergc/sqlconn/internal/errors"
	"github.com/heinergc/sqlconn/internal/ui"
	"github.com/heinergc/sqlconn/internal/utils"
	"github.com/heinergc/sqlconn/internal/workflows"

	"github.com/spf13/cobra"
)

var addCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a connection profile",
	Long: `Asks for the details of a new connection profile and stores it.

The password is encrypted with a key bound to this machine and user before
it is written. Profiles using integrated authentication store no password.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting add command")

		s, err := openSession(cmd.Context())
		if err != nil {
			return err
		}
		defer s.close()

		return addProfile(cmd.Context(), s, utils.NewPrompter(stdin, cmd.OutOrStdout()))
	},
}

func addProfile(ctx context.Context, s *session, p *utils.Prompter) error {
	fmt.Println(ui.Title("Add connection"))

	form, err := readProfileForm(p, s.newProfile(), false)
	if err != nil {
		return err
	}

	added, err := workflows.AddProfile(ctx, s.store, s.trail, form)
	switch {
	case errors.Is(err, kerrors.ErrInvalidProfile), errors.Is(err, kerrors.ErrUnknownProvider):
		fmt.Println(ui.Error.Sprint("✗") + " " + err.Error())
		return nil
	case err != nil && added.ID == "":
		return Logger.ErrorfAndReturn("Failed to add profile: %v", err)
	case err != nil:
		fmt.Println(ui.Warning.Sprint("⚠") + " Profile added but could not be saved: " + err.Error())
		return err
	}

	fmt.Printf("%s Added %s %s\n", ui.Success.Sprint("✓"), ui.Highlight.Sprint(added.Name), ui.Muted.Sprint(added.ID))
	return nil
}
