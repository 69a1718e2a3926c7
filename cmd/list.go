package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/heinergc/sqlconn/internal/profiles"

	"github.com/spf13/cobra"
)

var listJSON bool

func init() {
	listCmd.Flags().BoolVar(&listJSON, "json", false, "output in JSON format (passwords are omitted)")
}

func resetListCommandState() {
	listJSON = false
}

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List stored connection profiles",
	Long: `Lists every stored connection profile with its provider, server,
authentication mode and the result of its last test.

Passwords are never shown. Use 'sqlconn passwords' to reveal them.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting list command")

		s, err := openSession(cmd.Context())
		if err != nil {
			return err
		}
		defer s.close()

		return listProfiles(s)
	},
}

func listProfiles(s *session) error {
	list := s.store.List()
	Logger.Debugf("Loaded %d profiles from %s", len(list), s.store.Path())

	if listJSON {
		for i := range list {
			list[i].Password = ""
		}
		if list == nil {
			list = []profiles.Profile{}
		}
		data, err := json.MarshalIndent(list, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal profiles to JSON: %w", err)
		}
		fmt.Println(string(data))
		return nil
	}

	if len(list) == 0 {
		fmt.Println(s.noProfilesMessage())
		return nil
	}

	printProfiles(list)
	return nil
}
