package cmd

import (
	"context"
	"fmt"

	"github.com/heinergc/sqlconn/internal/profiles"
	"github.com/heinergc/sqlconn/internal/ui"
	"github.com/heinergc/sqlconn/internal/utils"
	"github.com/heinergc/sqlconn/internal/workflows"

	"github.com/spf13/cobra"
)

var deleteYes bool

func init() {
	deleteCmd.Flags().BoolVarP(&deleteYes, "yes", "y", false, "delete without asking for confirmation")
}

func resetDeleteCommandState() {
	deleteYes = false
}

var deleteCmd = &cobra.Command{
	Use:     "delete <profile>",
	Aliases: []string{"rm"},
	Short:   "Delete a connection profile",
	Long: `Deletes a stored connection profile after confirmation.

<profile> is a profile id, name or list number.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting delete command")

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
		return deleteProfile(cmd.Context(), s, utils.NewPrompter(stdin, cmd.OutOrStdout()), target, deleteYes)
	},
}

func deleteProfile(ctx context.Context, s *session, p *utils.Prompter, target profiles.Profile, yes bool) error {
	if !yes {
		ok, err := p.Confirm(fmt.Sprintf("Delete %s (%s)?", ui.Highlight.Sprint(target.Name), target.Server), false)
		if err != nil {
			return err
		}
		if !ok {
			fmt.Println(ui.Info.Sprint("ℹ") + " Nothing was deleted")
			return nil
		}
	}

	removed, err := workflows.DeleteProfile(ctx, s.store, s.trail, target.ID)
	if err != nil {
		return Logger.ErrorfAndReturn("Failed to save after deleting: %v", err)
	}
	if removed == 0 {
		fmt.Println(ui.Warning.Sprint("⚠") + " Profile no longer exists, nothing was deleted")
		return nil
	}

	fmt.Printf("%s Deleted %s\n", ui.Success.Sprint("✓"), ui.Highlight.Sprint(target.Name))
	return nil
}
