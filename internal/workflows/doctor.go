package workflows

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"runtime"

	"github.com/heinergc/sqlconn/internal/configs"
	logger "github.com/heinergc/sqlconn/internal/logging"
	"github.com/heinergc/sqlconn/internal/profiles"
	"github.com/heinergc/sqlconn/internal/secrets"
)

// CheckStatus represents the result status of a health check.
type CheckStatus int

const (
	// CheckPass means the check passed.
	CheckPass CheckStatus = iota
	// CheckWarning means the check found a non-critical issue.
	CheckWarning
	// CheckError means the check found a critical issue.
	CheckError
)

// String returns a string representation of CheckStatus.
func (s CheckStatus) String() string {
	switch s {
	case CheckPass:
		return "pass"
	case CheckWarning:
		return "warning"
	case CheckError:
		return "error"
	default:
		return "unknown"
	}
}

// MarshalJSON implements json.Marshaler for CheckStatus.
func (s CheckStatus) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// CheckResult holds the result of a single health check.
type CheckResult struct {
	Name       string      `json:"name"`
	Status     CheckStatus `json:"status"`
	Message    string      `json:"message"`
	Suggestion string      `json:"suggestion,omitempty"`
}

// DoctorResult holds the complete result of the doctor workflow.
type DoctorResult struct {
	Checks      []CheckResult `json:"checks"`
	Summary     DoctorSummary `json:"summary"`
	Suggestions []string      `json:"suggestions,omitempty"`
}

// DoctorSummary holds counts of checks by status.
type DoctorSummary struct {
	Passed   int `json:"passed"`
	Warnings int `json:"warnings"`
	Errors   int `json:"errors"`
}

// ExitCode maps the summary to 0 (all passed), 1 (warnings) or 2 (errors).
func (s DoctorSummary) ExitCode() int {
	switch {
	case s.Errors > 0:
		return 2
	case s.Warnings > 0:
		return 1
	default:
		return 0
	}
}

// Cipher is what the doctor needs to run the encryption self-test.
type Cipher interface {
	Encrypt(plaintext string) (string, error)
	Decrypt(ciphertext string) (string, error)
	IsProbablyCiphertext(text string) bool
}

// DoctorOptions configures the doctor workflow.
type DoctorOptions struct {
	Home            string
	ConnectionsFile string

	// Cipher is nil when the machine key could not be derived.
	Cipher Cipher
}

// selfTestSecret is encrypted and decrypted by the encryption check.
const selfTestSecret = "sqlconn self-test P@ss;w0rd}"

// Doctor runs read-only health checks. It loads its own copy of the
// connection file and never writes it.
//
// The doctor workflow checks:
//   - Settings file validity
//   - Connection file readability and permissions
//   - Encryption round trip on this machine
//   - Passwords still stored in plaintext
//   - Passwords that are empty or cannot be decrypted
//   - Integrated profiles that still carry a password
//   - Duplicate or missing profile ids
func Doctor(ctx context.Context, opts DoctorOptions) (*DoctorResult, error) {
	var list []profiles.Profile
	var loadErr error
	fileExists := true

	if _, err := os.Stat(opts.ConnectionsFile); errors.Is(err, os.ErrNotExist) {
		fileExists = false
	}
	store := profiles.NewStore(opts.ConnectionsFile, opts.Cipher, logger.Logger{})
	if loadErr = store.Load(); loadErr == nil {
		list = store.List()
	}

	checks := []func() CheckResult{
		func() CheckResult { return checkSettings(opts.Home) },
		func() CheckResult { return checkConnectionsFile(opts.ConnectionsFile, fileExists, loadErr, len(list)) },
		func() CheckResult { return checkConnectionsPermissions(opts.ConnectionsFile, fileExists) },
		func() CheckResult { return checkEncryption(opts.Cipher) },
		func() CheckResult { return checkPlaintextSecrets(list) },
		func() CheckResult { return checkCorruptedSecrets(list, opts.Cipher) },
		func() CheckResult { return checkIntegratedLeftovers(list) },
		func() CheckResult { return checkProfileIDs(list) },
	}

	var results []CheckResult
	for _, check := range checks {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		results = append(results, check())
	}

	summary := calculateDoctorSummary(results)

	// Collect suggestions (deduplicated).
	var suggestions []string
	seen := make(map[string]bool)
	for _, result := range results {
		if result.Suggestion != "" && result.Status != CheckPass && !seen[result.Suggestion] {
			suggestions = append(suggestions, result.Suggestion)
			seen[result.Suggestion] = true
		}
	}

	return &DoctorResult{
		Checks:      results,
		Summary:     summary,
		Suggestions: suggestions,
	}, nil
}

func checkSettings(home string) CheckResult {
	path := configs.SettingsPath(home)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return CheckResult{
			Name:    "Settings",
			Status:  CheckPass,
			Message: "No settings.toml, using defaults",
		}
	}

	if _, err := configs.LoadSettings(home); err != nil {
		return CheckResult{
			Name:       "Settings",
			Status:     CheckError,
			Message:    fmt.Sprintf("Failed to load settings: %v", err),
			Suggestion: "Fix Data/settings.toml or recreate it with 'sqlconn config init --force'",
		}
	}

	return CheckResult{
		Name:    "Settings",
		Status:  CheckPass,
		Message: "Settings file valid",
	}
}

func checkConnectionsFile(path string, exists bool, loadErr error, count int) CheckResult {
	if !exists {
		return CheckResult{
			Name:       "Connection file",
			Status:     CheckWarning,
			Message:    "No connections saved yet",
			Suggestion: "Add a connection with 'sqlconn' (option 2)",
		}
	}
	if loadErr != nil {
		return CheckResult{
			Name:       "Connection file",
			Status:     CheckError,
			Message:    fmt.Sprintf("Connection file is unreadable: %v", loadErr),
			Suggestion: fmt.Sprintf("Restore %s from a backup; sqlconn starts empty and overwrites it on the next change", path),
		}
	}
	return CheckResult{
		Name:    "Connection file",
		Status:  CheckPass,
		Message: fmt.Sprintf("%d connection profiles loaded", count),
	}
}

// checkConnectionsPermissions warns when other users can read the file.
func checkConnectionsPermissions(path string, exists bool) CheckResult {
	if !exists || runtime.GOOS == "windows" {
		return CheckResult{
			Name:    "Connection file permissions",
			Status:  CheckPass,
			Message: "Nothing to check",
		}
	}

	info, err := os.Stat(path)
	if err != nil {
		return CheckResult{
			Name:       "Connection file permissions",
			Status:     CheckWarning,
			Message:    fmt.Sprintf("Could not check permissions: %v", err),
			Suggestion: "Check that the connection file is accessible",
		}
	}

	if perm := info.Mode().Perm(); perm&0077 != 0 {
		return CheckResult{
			Name:       "Connection file permissions",
			Status:     CheckWarning,
			Message:    fmt.Sprintf("Connection file is readable by other users (%04o)", perm),
			Suggestion: fmt.Sprintf("Run 'chmod 600 %s' to fix permissions", path),
		}
	}

	return CheckResult{
		Name:    "Connection file permissions",
		Status:  CheckPass,
		Message: "Connection file is private (0600)",
	}
}

// checkEncryption encrypts and decrypts a known value with the machine key.
func checkEncryption(cipher Cipher) CheckResult {
	fail := func(msg string) CheckResult {
		return CheckResult{
			Name:       "Encryption self-test",
			Status:     CheckError,
			Message:    msg,
			Suggestion: "Passwords cannot be protected on this machine; check the host and user name",
		}
	}

	if cipher == nil {
		return fail("Machine key could not be derived")
	}

	ciphertext, err := cipher.Encrypt(selfTestSecret)
	if err != nil || ciphertext == "" {
		return fail(fmt.Sprintf("Encryption failed: %v", err))
	}
	if !cipher.IsProbablyCiphertext(ciphertext) {
		return fail("Encrypted value does not look like ciphertext")
	}
	plain, err := cipher.Decrypt(ciphertext)
	if err != nil || plain != selfTestSecret {
		return fail("Decrypted value does not match the original")
	}

	return CheckResult{
		Name:    "Encryption self-test",
		Status:  CheckPass,
		Message: "Round trip succeeded with this machine's key",
	}
}

func checkPlaintextSecrets(list []profiles.Profile) CheckResult {
	var plaintext, lookalike int
	for _, p := range list {
		if !p.UsesSQLAuth() || p.Password == "" || p.PasswordEncrypted {
			continue
		}
		if secrets.LooksLikeCiphertext(p.Password) {
			lookalike++
		} else {
			plaintext++
		}
	}

	switch {
	case plaintext > 0:
		return CheckResult{
			Name:       "Plaintext passwords",
			Status:     CheckWarning,
			Message:    fmt.Sprintf("%d passwords are stored in plaintext", plaintext),
			Suggestion: "Start sqlconn once; plaintext passwords are encrypted at startup",
		}
	case lookalike > 0:
		return CheckResult{
			Name:       "Plaintext passwords",
			Status:     CheckWarning,
			Message:    fmt.Sprintf("%d unencrypted passwords look like ciphertext and were left as is", lookalike),
			Suggestion: "Edit those profiles and re-enter their passwords",
		}
	}

	return CheckResult{
		Name:    "Plaintext passwords",
		Status:  CheckPass,
		Message: "No plaintext passwords stored",
	}
}

func checkCorruptedSecrets(list []profiles.Profile, cipher Cipher) CheckResult {
	candidates := FindCorrupted(list, cipher)
	if len(candidates) == 0 {
		return CheckResult{
			Name:    "Password integrity",
			Status:  CheckPass,
			Message: "All SQL-auth passwords are usable",
		}
	}

	undecryptable := 0
	for _, c := range candidates {
		if c.Reason == ReasonUndecryptable {
			undecryptable++
		}
	}
	status := CheckWarning
	if undecryptable > 0 {
		status = CheckError
	}

	return CheckResult{
		Name:       "Password integrity",
		Status:     status,
		Message:    fmt.Sprintf("%d profiles need their password re-entered (%d undecryptable)", len(candidates), undecryptable),
		Suggestion: "Run 'sqlconn repair' to re-enter the passwords",
	}
}

func checkIntegratedLeftovers(list []profiles.Profile) CheckResult {
	var names []string
	for _, p := range list {
		if p.IntegratedSecurity && (p.Password != "" || p.PasswordEncrypted) {
			names = append(names, p.Name)
		}
	}
	if len(names) > 0 {
		return CheckResult{
			Name:       "Integrated security",
			Status:     CheckWarning,
			Message:    fmt.Sprintf("%d integrated-security profiles still carry a password: %v", len(names), names),
			Suggestion: "Edit and save those profiles to clear the password",
		}
	}
	return CheckResult{
		Name:    "Integrated security",
		Status:  CheckPass,
		Message: "No stray passwords on integrated-security profiles",
	}
}

func checkProfileIDs(list []profiles.Profile) CheckResult {
	seen := make(map[string]int)
	missing := 0
	for _, p := range list {
		if p.ID == "" {
			missing++
			continue
		}
		seen[p.ID]++
	}
	dupes := 0
	for _, n := range seen {
		if n > 1 {
			dupes++
		}
	}

	if dupes > 0 || missing > 0 {
		return CheckResult{
			Name:       "Profile ids",
			Status:     CheckError,
			Message:    fmt.Sprintf("%d duplicated ids, %d profiles without id", dupes, missing),
			Suggestion: "Delete the affected profiles and add them again",
		}
	}
	return CheckResult{
		Name:    "Profile ids",
		Status:  CheckPass,
		Message: "Every profile has a unique id",
	}
}

// calculateDoctorSummary calculates the counts of checks by status.
func calculateDoctorSummary(results []CheckResult) DoctorSummary {
	var summary DoctorSummary
	for _, result := range results {
		switch result.Status {
		case CheckPass:
			summary.Passed++
		case CheckWarning:
			summary.Warnings++
		case CheckError:
			summary.Errors++
		}
	}
	return summary
}
