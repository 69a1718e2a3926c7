package workflows

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/heinergc/sqlconn/internal/audit"
	logger "github.com/heinergc/sqlconn/internal/logging"
	"github.com/heinergc/sqlconn/internal/profiles"
	"github.com/heinergc/sqlconn/internal/secrets"

	"github.com/stretchr/testify/require"
)

type env struct {
	home  string
	box   *secrets.Box
	store *profiles.Store
	trail audit.Trail
}

func newEnv(t *testing.T) *env {
	t.Helper()
	home := t.TempDir()
	box, err := secrets.NewBox(secrets.PhraseKeySource("workflow-tests"))
	require.NoError(t, err)

	path := filepath.Join(home, "Data", "connections.json")
	return &env{
		home:  home,
		box:   box,
		store: profiles.NewStore(path, box, logger.Logger{}),
		trail: audit.Trail{Path: filepath.Join(home, "Data", "audit.jsonl")},
	}
}

func (e *env) add(t *testing.T, p profiles.Profile) profiles.Profile {
	t.Helper()
	added, err := e.store.Add(p)
	require.NoError(t, err)
	return added
}

func (e *env) auditOps(t *testing.T) []string {
	t.Helper()
	entries, err := e.trail.ReadEntries()
	require.NoError(t, err)
	var ops []string
	for _, entry := range entries {
		ops = append(ops, entry.Operation)
	}
	return ops
}

func sqlAuth(name, password string) profiles.Profile {
	return profiles.Profile{
		Name:              name,
		Server:            "localhost",
		Database:          "master",
		Username:          "sa",
		Password:          password,
		ConnectionTimeout: 30,
		CommandTimeout:    30,
	}
}

// fakeProber succeeds for profiles whose name is in ok.
type fakeProber struct {
	ok     map[string]bool
	tested []string
	cancel context.CancelFunc
}

func (f *fakeProber) Test(ctx context.Context, p profiles.Profile) profiles.TestOutcome {
	f.tested = append(f.tested, p.Name)
	if f.cancel != nil {
		f.cancel()
	}
	at := time.Date(2025, 5, 5, 10, 0, 0, 0, time.UTC)
	if f.ok[p.Name] {
		return profiles.NewSuccess(10*time.Millisecond, at, "v1", p.Database)
	}
	return profiles.NewFailure(profiles.CategoryServerUnreachable, 2, "not found", 20*time.Millisecond, at)
}
