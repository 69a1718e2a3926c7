package workflows

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func checkByName(t *testing.T, result *DoctorResult, name string) CheckResult {
	t.Helper()
	for _, c := range result.Checks {
		if c.Name == name {
			return c
		}
	}
	t.Fatalf("check %q not found", name)
	return CheckResult{}
}

func TestDoctorHealthyStore(t *testing.T) {
	e := newEnv(t)
	e.add(t, sqlAuth("Local", "Abc123!"))
	integrated := sqlAuth("Windows", "")
	integrated.IntegratedSecurity = true
	e.add(t, integrated)

	result, err := Doctor(context.Background(), DoctorOptions{
		Home:            e.home,
		ConnectionsFile: e.store.Path(),
		Cipher:          e.box,
	})
	require.NoError(t, err)

	for _, c := range result.Checks {
		assert.Equal(t, CheckPass, c.Status, "%s: %s", c.Name, c.Message)
	}
	assert.Equal(t, 0, result.Summary.ExitCode())
	assert.Empty(t, result.Suggestions)
	assert.Equal(t, "2 connection profiles loaded", checkByName(t, result, "Connection file").Message)
}

func TestDoctorMissingFile(t *testing.T) {
	e := newEnv(t)

	result, err := Doctor(context.Background(), DoctorOptions{
		Home:            e.home,
		ConnectionsFile: e.store.Path(),
		Cipher:          e.box,
	})
	require.NoError(t, err)

	assert.Equal(t, CheckWarning, checkByName(t, result, "Connection file").Status)
	assert.Equal(t, 1, result.Summary.ExitCode())
}

func TestDoctorCorruptFile(t *testing.T) {
	e := newEnv(t)
	writeConnections(t, e.store.Path(), "{broken")

	result, err := Doctor(context.Background(), DoctorOptions{
		Home:            e.home,
		ConnectionsFile: e.store.Path(),
		Cipher:          e.box,
	})
	require.NoError(t, err)

	assert.Equal(t, CheckError, checkByName(t, result, "Connection file").Status)
	assert.Equal(t, 2, result.Summary.ExitCode())

	data, err := os.ReadFile(e.store.Path())
	require.NoError(t, err)
	assert.Equal(t, "{broken", string(data), "doctor must never rewrite the file")
}

func TestDoctorFindsProblems(t *testing.T) {
	e := newEnv(t)
	writeConnections(t, e.store.Path(), `[
  {"Id":"a","Name":"Plain","Server":"s","Username":"u","Password":"pw","IsPasswordEncrypted":false},
  {"Id":"b","Name":"Garbage","Server":"s","Username":"u","Password":"QUJDREVGR0hJSktMTU5PUFE=","IsPasswordEncrypted":true},
  {"Id":"b","Name":"Dup","Server":"s","IntegratedSecurity":true,"Password":"left"}
]`)

	result, err := Doctor(context.Background(), DoctorOptions{
		Home:            e.home,
		ConnectionsFile: e.store.Path(),
		Cipher:          e.box,
	})
	require.NoError(t, err)

	assert.Equal(t, CheckWarning, checkByName(t, result, "Plaintext passwords").Status)
	assert.Equal(t, CheckError, checkByName(t, result, "Password integrity").Status)
	assert.Equal(t, CheckWarning, checkByName(t, result, "Integrated security").Status)
	assert.Equal(t, CheckError, checkByName(t, result, "Profile ids").Status)
	assert.Equal(t, 2, result.Summary.ExitCode())
	assert.Contains(t, result.Suggestions, "Run 'sqlconn repair' to re-enter the passwords")
}

func TestDoctorWithoutCipher(t *testing.T) {
	e := newEnv(t)

	result, err := Doctor(context.Background(), DoctorOptions{
		Home:            e.home,
		ConnectionsFile: e.store.Path(),
	})
	require.NoError(t, err)

	assert.Equal(t, CheckError, checkByName(t, result, "Encryption self-test").Status)
}

func TestDoctorBadSettings(t *testing.T) {
	e := newEnv(t)
	settings := filepath.Join(e.home, "Data", "settings.toml")
	require.NoError(t, os.MkdirAll(filepath.Dir(settings), 0700))
	require.NoError(t, os.WriteFile(settings, []byte("= nope"), 0600))

	result, err := Doctor(context.Background(), DoctorOptions{
		Home:            e.home,
		ConnectionsFile: e.store.Path(),
		Cipher:          e.box,
	})
	require.NoError(t, err)

	assert.Equal(t, CheckError, checkByName(t, result, "Settings").Status)
}

func TestDoctorFilePermissions(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("permission bits are not meaningful on Windows")
	}
	e := newEnv(t)
	e.add(t, sqlAuth("Local", "Abc123!"))
	require.NoError(t, os.Chmod(e.store.Path(), 0644))

	result, err := Doctor(context.Background(), DoctorOptions{
		Home:            e.home,
		ConnectionsFile: e.store.Path(),
		Cipher:          e.box,
	})
	require.NoError(t, err)

	assert.Equal(t, CheckWarning, checkByName(t, result, "Connection file permissions").Status)
}

func TestDoctorResultJSON(t *testing.T) {
	result := &DoctorResult{
		Checks:  []CheckResult{{Name: "x", Status: CheckWarning, Message: "m"}},
		Summary: DoctorSummary{Warnings: 1},
	}

	data, err := json.Marshal(result)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"status":"warning"`)
	assert.Contains(t, string(data), `"warnings":1`)
}

func TestDoctorSummaryExitCode(t *testing.T) {
	assert.Equal(t, 0, DoctorSummary{Passed: 3}.ExitCode())
	assert.Equal(t, 1, DoctorSummary{Passed: 1, Warnings: 2}.ExitCode())
	assert.Equal(t, 2, DoctorSummary{Warnings: 1, Errors: 1}.ExitCode())
}
