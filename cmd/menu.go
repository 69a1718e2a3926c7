package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/heinergc/sqlconn/internal/profiles"
	"github.com/heinergc/sqlconn/internal/secrets"
	"github.com/heinergc/sqlconn/internal/ui"
	"github.com/heinergc/sqlconn/internal/utils"

	"github.com/spf13/cobra"
)

// RunMenu opens a session and runs the interactive menu until the operator
// chooses exit or input ends.
func RunMenu(cmd *cobra.Command, args []string) error {
	Logger.Infof("Starting interactive menu")

	s, err := openSession(cmd.Context())
	if err != nil {
		return err
	}
	defer s.close()

	printBanner()
	m := &menu{s: s, p: utils.NewPrompter(stdin, cmd.OutOrStdout())}
	return m.run(cmd.Context())
}

type menu struct {
	s *session
	p *utils.Prompter
}

type menuItem struct {
	key    string
	label  string
	action func(ctx context.Context) error
}

func (m *menu) items() []menuItem {
	return []menuItem{
		{"1", "List connections", func(ctx context.Context) error { return listProfiles(m.s) }},
		{"2", "Add connection", func(ctx context.Context) error { return addProfile(ctx, m.s, m.p) }},
		{"3", "Test connection", m.testOne},
		{"4", "Test all connections", func(ctx context.Context) error {
			_, err := testAllProfiles(ctx, m.s)
			return err
		}},
		{"5", "Edit connection", m.edit},
		{"6", "Delete connection", m.remove},
		{"7", "Run custom query", m.query},
		{"8", "Show stored passwords", func(ctx context.Context) error { return showPasswords(m.s, m.p, false) }},
		{"9", "Repair passwords", func(ctx context.Context) error { return repairPasswords(ctx, m.s, m.p) }},
		{"10", "Export Excel report", func(ctx context.Context) error { return exportReport(ctx, m.s, m.s.paths.ReportsDir) }},
		{"11", "List databases on server", m.databases},
		{"99", "Encryption self-test", func(ctx context.Context) error { return encryptionSelfTest(m.s) }},
		{"0", "Exit", nil},
	}
}

func (m *menu) run(ctx context.Context) error {
	items := m.items()
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		fmt.Println()
		fmt.Println(ui.Title("SQL connection tester"))
		for _, item := range items {
			if item.key == "99" {
				continue
			}
			fmt.Printf("  %2s. %s\n", item.key, item.label)
		}

		choice, err := m.p.Ask("\nChoose an option: ")
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}

		item, ok := findMenuItem(items, choice)
		if !ok {
			fmt.Println(ui.Error.Sprint("✗") + " Invalid option")
			continue
		}
		if item.action == nil {
			fmt.Println("Goodbye")
			return nil
		}

		Logger.Debugf("Menu option %s: %s", item.key, item.label)
		fmt.Println()
		if err := item.action(ctx); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			// A failed action is reported and the menu continues.
			fmt.Println(ui.Error.Sprint("✗") + " " + err.Error())
		}

		if _, err := m.p.Ask("\nPress Enter to continue..."); errors.Is(err, io.EOF) {
			return nil
		}
	}
}

func findMenuItem(items []menuItem, key string) (menuItem, bool) {
	for _, item := range items {
		if item.key == key {
			return item, true
		}
	}
	return menuItem{}, false
}

// pick asks which profile to act on. ok is false when there is nothing to
// pick or the answer was invalid.
func (m *menu) pick(prompt string) (profiles.Profile, bool, error) {
	list := m.s.store.List()
	if len(list) == 0 {
		fmt.Println(m.s.noProfilesMessage())
		return profiles.Profile{}, false, nil
	}
	return chooseProfile(m.p, list, prompt)
}

func (m *menu) testOne(ctx context.Context) error {
	target, ok, err := m.pick("Test which connection? ")
	if err != nil || !ok {
		return err
	}
	_, err = testOneProfile(ctx, m.s, target)
	return err
}

func (m *menu) edit(ctx context.Context) error {
	target, ok, err := m.pick("Edit which connection? ")
	if err != nil || !ok {
		return err
	}
	return editProfile(ctx, m.s, m.p, target)
}

func (m *menu) remove(ctx context.Context) error {
	target, ok, err := m.pick("Delete which connection? ")
	if err != nil || !ok {
		return err
	}
	return deleteProfile(ctx, m.s, m.p, target, false)
}

func (m *menu) query(ctx context.Context) error {
	target, ok, err := m.pick("Query which connection? ")
	if err != nil || !ok {
		return err
	}
	query, err := m.p.Ask("SQL> ")
	if err != nil {
		return err
	}
	return runQuery(ctx, m.s, target, query)
}

func (m *menu) databases(ctx context.Context) error {
	target, ok, err := m.pick("Which server? ")
	if err != nil || !ok {
		return err
	}
	listDatabases(ctx, m.s, target)
	return nil
}

// selfTestSecret exercises padding and characters that need escaping in
// connection strings.
const selfTestSecret = "Test123!;{x}"

// encryptionSelfTest round-trips a known secret through the machine key.
func encryptionSelfTest(s *session) error {
	fmt.Println(ui.Title("Encryption self-test"))

	ciphertext, err := s.box.Encrypt(selfTestSecret)
	if err != nil {
		fmt.Println(ui.Error.Sprint("✗") + " Encrypt failed: " + err.Error())
		return nil
	}
	fmt.Printf("  Plaintext:   %s\n", ui.Secret.Sprint(selfTestSecret))
	fmt.Printf("  Ciphertext:  %s\n", ciphertext)
	fmt.Printf("  Recognized:  %s\n", ui.Mark(secrets.LooksLikeCiphertext(ciphertext)))

	plain, err := s.box.Decrypt(ciphertext)
	if err != nil {
		fmt.Println(ui.Error.Sprint("✗") + " Decrypt failed: " + err.Error())
		return nil
	}
	fmt.Printf("  Round trip:  %s\n", ui.Mark(plain == selfTestSecret))

	broken := 0
	for _, p := range s.store.List() {
		if p.PasswordEncrypted && p.Password != "" {
			if _, err := s.box.Decrypt(p.Password); err != nil {
				broken++
			}
		}
	}
	if broken > 0 {
		fmt.Printf("%s %d stored passwords cannot be decrypted, run %s\n",
			ui.Warning.Sprint("⚠"), broken, ui.Code.Sprint("sqlconn repair"))
	}
	return nil
}
