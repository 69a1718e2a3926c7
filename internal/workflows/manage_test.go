package workflows

import (
	"context"
	"testing"

	kerrors "github.com/heinergc/sqlconn/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddProfile(t *testing.T) {
	e := newEnv(t)

	added, err := AddProfile(context.Background(), e.store, e.trail, sqlAuth("Local", "Abc123!"))
	require.NoError(t, err)
	assert.NotEmpty(t, added.ID)
	assert.True(t, added.PasswordEncrypted)

	entries, err := e.trail.ReadEntries()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "add", entries[0].Operation)
	assert.Equal(t, added.ID, entries[0].ProfileID)
}

func TestAddProfileInvalid(t *testing.T) {
	e := newEnv(t)

	p := sqlAuth("", "pw")
	_, err := AddProfile(context.Background(), e.store, e.trail, p)
	assert.ErrorIs(t, err, kerrors.ErrInvalidProfile)
	assert.Empty(t, e.store.List())
	assert.Empty(t, e.auditOps(t))
}

func TestEditProfile(t *testing.T) {
	e := newEnv(t)
	added := e.add(t, sqlAuth("Local", "Abc123!"))

	added.Server = "db01"
	found, err := EditProfile(context.Background(), e.store, e.trail, added)
	require.NoError(t, err)
	assert.True(t, found)

	stored, err := e.store.Get(added.ID)
	require.NoError(t, err)
	assert.Equal(t, "db01", stored.Server)
	assert.Equal(t, []string{"edit"}, e.auditOps(t))
}

func TestEditProfileUnknown(t *testing.T) {
	e := newEnv(t)

	p := sqlAuth("Ghost", "pw")
	p.ID = "missing"
	found, err := EditProfile(context.Background(), e.store, e.trail, p)
	require.NoError(t, err)
	assert.False(t, found)
	assert.Empty(t, e.auditOps(t))
}

func TestDeleteProfile(t *testing.T) {
	e := newEnv(t)
	added := e.add(t, sqlAuth("Local", "Abc123!"))

	removed, err := DeleteProfile(context.Background(), e.store, e.trail, added.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
	assert.Empty(t, e.store.List())

	entries, err := e.trail.ReadEntries()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "Local", entries[0].ProfileName)

	removed, err = DeleteProfile(context.Background(), e.store, e.trail, added.ID)
	require.NoError(t, err)
	assert.Zero(t, removed)
	assert.Len(t, e.auditOps(t), 1)
}

func TestMigrate(t *testing.T) {
	e := newEnv(t)
	writeConnections(t, e.store.Path(), `[{"Id":"a","Name":"old","Server":"s","Username":"u","Password":"plain","IsPasswordEncrypted":false}]`)
	require.NoError(t, e.store.Load())

	changed, err := Migrate(context.Background(), e.store, e.trail)
	require.NoError(t, err)
	assert.Equal(t, 1, changed)
	assert.Equal(t, []string{"migrate"}, e.auditOps(t))

	changed, err = Migrate(context.Background(), e.store, e.trail)
	require.NoError(t, err)
	assert.Zero(t, changed)
	assert.Len(t, e.auditOps(t), 1)
}
