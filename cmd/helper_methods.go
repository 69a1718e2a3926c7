package cmd

import (
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	kerrors "github.com/heinergc/sqlconn/internal/errors"
	"github.com/heinergc/sqlconn/internal/profiles"
	"github.com/heinergc/sqlconn/internal/ui"
	"github.com/heinergc/sqlconn/internal/utils"

	"github.com/briandowns/spinner"
	"github.com/common-nighthawk/go-figure"
	"github.com/dustin/go-humanize"
)

// startSpinner creates and starts a spinner with the given message when not in verbose or debug mode.
// Returns the spinner and a function that should be deferred to clean up.
//
// IMPORTANT: spinner.FinalMSG values do NOT need trailing newlines. The cleanup function
// automatically calls ui.EnsureNewline() on the final message before printing it.
func startSpinner(message string) (*spinner.Spinner, func()) {
	Logger.Debugf("Starting spinner with message: %s", message)
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	s.Suffix = " " + message

	if err := s.Color("cyan"); err != nil {
		Logger.Warnf("Failed to set spinner color: %v", err)
	}

	quiet := !verbose && !debug
	if quiet {
		s.Start()
		log.SetOutput(io.Discard)
	} else {
		Logger.Infof("Running in verbose or debug mode: %s", message)
	}

	cleanup := func() {
		if quiet {
			log.SetOutput(os.Stderr)
		}

		finalMsg := ""
		if s.FinalMSG != "" {
			finalMsg = ui.EnsureNewline(s.FinalMSG)
			s.FinalMSG = ""
		}

		if quiet {
			s.Stop()
		}

		if finalMsg != "" {
			fmt.Print(finalMsg)
		}
	}

	return s, cleanup
}

func printBanner() {
	fmt.Println()
	banner := figure.NewColorFigure("SQLConn", "standard", "cyan", true)
	banner.Print()
	fmt.Println()
}

// findProfile resolves ref as a profile id, a case-insensitive name or a
// 1-based position in list.
func findProfile(list []profiles.Profile, ref string) (profiles.Profile, error) {
	ref = strings.TrimSpace(ref)
	for _, p := range list {
		if p.ID == ref {
			return p, nil
		}
	}
	for _, p := range list {
		if strings.EqualFold(p.Name, ref) {
			return p, nil
		}
	}
	if n, err := strconv.Atoi(ref); err == nil && n >= 1 && n <= len(list) {
		return list[n-1], nil
	}
	return profiles.Profile{}, fmt.Errorf("%w: %s", kerrors.ErrProfileNotFound, ref)
}

// chooseProfile prints a numbered list and asks for a selection. ok is false
// when the answer does not pick a profile.
func chooseProfile(p *utils.Prompter, list []profiles.Profile, prompt string) (profiles.Profile, bool, error) {
	for i, prof := range list {
		fmt.Fprintf(p.Out(), "  %2d. %s %s\n", i+1, prof.Name, ui.Muted.Sprint(prof.Server))
	}
	answer, err := p.Ask(prompt)
	if err != nil {
		return profiles.Profile{}, false, err
	}
	n, convErr := strconv.Atoi(answer)
	if convErr != nil || n < 1 || n > len(list) {
		fmt.Fprintln(p.Out(), ui.Error.Sprint("✗")+" Invalid selection")
		return profiles.Profile{}, false, nil
	}
	return list[n-1], true, nil
}

// lastTested renders when a profile was last tested and how it went.
func lastTested(p profiles.Profile) string {
	if p.LastTested == nil {
		return ui.Muted.Sprint("never tested")
	}
	when := humanize.Time(*p.LastTested)
	if p.LastTestResult == nil {
		return when
	}
	return ui.Mark(p.LastTestResult.IsSuccessful) + " " + when
}

func printProfiles(list []profiles.Profile) {
	fmt.Printf("%-4s %-24s %-10s %-28s %-16s %-10s %s\n", "#", "Name", "Provider", "Server", "Database", "Auth", "Last test")
	for i, p := range list {
		db := p.Database
		if db == "" {
			db = "(default)"
		}
		fmt.Printf("%-4d %-24s %-10s %-28s %-16s %-10s %s\n",
			i+1, truncate(p.Name, 24), p.EffectiveProvider(), truncate(p.Server, 28), truncate(db, 16), p.AuthLabel(), lastTested(p))
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

// printOutcome renders a single test outcome.
func printOutcome(p profiles.Profile, o profiles.TestOutcome) {
	if o.IsSuccessful {
		fmt.Printf("%s %s %s\n", ui.Success.Sprint("✓"), o.Message, ui.Muted.Sprint(ui.Millis(o.Elapsed())))
		if o.ServerVersion != "" {
			fmt.Printf("  Server:   %s\n", o.ServerVersion)
		}
		if o.DatabaseName != "" {
			fmt.Printf("  Database: %s\n", ui.Highlight.Sprint(o.DatabaseName))
		}
		return
	}

	fmt.Printf("%s %s %s\n", ui.Error.Sprint("✗"), o.Message, ui.Muted.Sprint(ui.Millis(o.Elapsed())))
	fmt.Printf("  Category: %s\n", o.Category.Label())
	if o.ErrorCode != 0 {
		fmt.Printf("  Error:    %d\n", o.ErrorCode)
	}
	if hint := outcomeHint(p, o.Category); hint != "" {
		fmt.Printf("  %s %s\n", ui.Info.Sprint("→"), hint)
	}
}

func outcomeHint(p profiles.Profile, category profiles.Category) string {
	switch category {
	case profiles.CategoryServerUnreachable:
		return "Check the server name " + ui.Highlight.Sprint(p.Server) + " and that the instance is running"
	case profiles.CategoryAuthFailed:
		return "Check the user name and password"
	case profiles.CategoryNetworkUnreachable:
		return "Check the network connection, port and firewall"
	case profiles.CategoryDatabaseMissing:
		return "Check the database name " + ui.Highlight.Sprint(p.Database)
	case profiles.CategorySecretUnusable:
		return "Run " + ui.Code.Sprint("sqlconn repair") + " to enter the password again"
	default:
		return ""
	}
}

// readProfileForm asks for every profile field, offering base as defaults.
// When editing, an empty password keeps the stored one.
func readProfileForm(p *utils.Prompter, base profiles.Profile, editing bool) (profiles.Profile, error) {
	out := base.Clone()
	var err error

	if out.Name, err = p.AskDefault("Name", base.Name); err != nil {
		return out, err
	}
	provider, err := p.AskDefault("Provider (sqlserver/postgres)", string(base.EffectiveProvider()))
	if err != nil {
		return out, err
	}
	out.Provider = profiles.Provider(strings.ToLower(provider))
	if out.Server, err = p.AskDefault("Server", base.Server); err != nil {
		return out, err
	}
	if out.Database, err = p.AskDefault("Database", base.Database); err != nil {
		return out, err
	}
	if out.IntegratedSecurity, err = p.Confirm("Use integrated (operating system) authentication?", base.IntegratedSecurity); err != nil {
		return out, err
	}

	if !out.IntegratedSecurity {
		if out.Username, err = p.AskDefault("Username", base.Username); err != nil {
			return out, err
		}
		prompt := "Password: "
		if editing {
			prompt = "Password (leave empty to keep the current one): "
		}
		password, err := p.Password(prompt)
		if err != nil {
			return out, err
		}
		switch {
		case password != "":
			out.Password = password
			out.PasswordEncrypted = false
		case editing && base.IntegratedSecurity:
			out.Password = ""
			out.PasswordEncrypted = false
		case !editing:
			out.Password = ""
		}
	}

	connectSecs := int(base.ConnectTimeout() / time.Second)
	if out.ConnectionTimeout, err = p.AskInt(fmt.Sprintf("Connection timeout in seconds [%d]: ", connectSecs), connectSecs); err != nil {
		return out, err
	}
	commandSecs := int(base.QueryTimeout() / time.Second)
	if out.CommandTimeout, err = p.AskInt(fmt.Sprintf("Command timeout in seconds [%d]: ", commandSecs), commandSecs); err != nil {
		return out, err
	}
	if out.TrustServerCertificate, err = p.Confirm("Trust the server certificate?", base.TrustServerCertificate); err != nil {
		return out, err
	}
	return out, nil
}
