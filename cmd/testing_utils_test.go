package cmd

import (
	"bytes"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/heinergc/sqlconn/internal/configs"
	logger "github.com/heinergc/sqlconn/internal/logging"
	"github.com/heinergc/sqlconn/internal/profiles"
	"github.com/heinergc/sqlconn/internal/secrets"

	"github.com/spf13/cobra"
)

// testKeyPhrase replaces the machine identity in command tests.
const testKeyPhrase = "cmd-tests"

// setupTestEnvironment points SQLCONN_HOME at a fresh directory, fixes the
// encryption key and restores global command state afterwards.
func setupTestEnvironment(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv(configs.HomeEnv, home)
	t.Setenv("NO_COLOR", "1")

	ResetGlobalState()
	SetKeyPhrase(testKeyPhrase)
	SetDoctorExitFunc(func(int) {})
	SetTestExitFunc(func(int) {})

	t.Cleanup(ResetGlobalState)
	return home
}

// testBox returns the cipher the commands use under setupTestEnvironment.
func testBox(t *testing.T) *secrets.Box {
	t.Helper()
	box, err := secrets.NewBox(secrets.PhraseKeySource(testKeyPhrase))
	if err != nil {
		t.Fatalf("Failed to create test box: %v", err)
	}
	return box
}

// seedProfiles stores list in the connection file below home.
func seedProfiles(t *testing.T, home string, list ...profiles.Profile) []profiles.Profile {
	t.Helper()
	path := configs.DefaultSettings().Paths(home).ConnectionsFile
	store := profiles.NewStore(path, testBox(t), logger.Logger{})

	var added []profiles.Profile
	for _, p := range list {
		a, err := store.Add(p)
		if err != nil {
			t.Fatalf("Failed to seed profile %s: %v", p.Name, err)
		}
		added = append(added, a)
	}
	return added
}

// loadProfiles reads the connection file below home.
func loadProfiles(t *testing.T, home string) []profiles.Profile {
	t.Helper()
	path := configs.DefaultSettings().Paths(home).ConnectionsFile
	store := profiles.NewStore(path, testBox(t), logger.Logger{})
	if err := store.Load(); err != nil {
		t.Fatalf("Failed to load profiles: %v", err)
	}
	return store.List()
}

func dataFile(home, name string) string {
	return filepath.Join(home, configs.DataDirName, name)
}

// captureOutput captures both stdout and stderr during function execution.
func captureOutput(fn func() error) (string, error) {
	originalStdout := os.Stdout
	originalStderr := os.Stderr

	stdoutReader, stdoutWriter, _ := os.Pipe()
	stderrReader, stderrWriter, _ := os.Pipe()

	os.Stdout = stdoutWriter
	os.Stderr = stderrWriter

	outputChan := make(chan string, 2)

	go func() {
		var buf bytes.Buffer
		if _, err := io.Copy(&buf, stdoutReader); err != nil {
			log.Fatalf("Failed to run copy command: %s", err)
		}
		outputChan <- buf.String()
	}()

	go func() {
		var buf bytes.Buffer
		if _, err := io.Copy(&buf, stderrReader); err != nil {
			log.Fatalf("Failed to run copy command: %s", err)
		}
		outputChan <- buf.String()
	}()

	err := fn()

	stdoutWriter.Close()
	stderrWriter.Close()

	os.Stdout = originalStdout
	os.Stderr = originalStderr

	stdout := <-outputChan
	stderr := <-outputChan

	return stdout + stderr, err
}

// createTestCLI creates a complete CLI instance with args, reading prompt
// answers from input.
func createTestCLI(input string, args ...string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "sqlconn",
		Short:         "sqlconn - store, test and report on SQL connection profiles.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          RunMenu,
	}
	Register(rootCmd)

	SetStdin(strings.NewReader(input))
	rootCmd.SetArgs(args)
	return rootCmd
}

// runCLI executes args and returns the combined output.
func runCLI(t *testing.T, input string, args ...string) (string, error) {
	t.Helper()
	return captureOutput(func() error {
		return createTestCLI(input, args...).Execute()
	})
}

func sqlAuthProfile(name, password string) profiles.Profile {
	return profiles.Profile{
		Name:              name,
		Server:            "localhost",
		Database:          "master",
		Username:          "sa",
		Password:          password,
		ConnectionTimeout: 5,
		CommandTimeout:    5,
	}
}
