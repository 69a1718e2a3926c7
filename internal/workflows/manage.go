package workflows

import (
	"context"

	"github.com/heinergc/sqlconn/internal/audit"
	"github.com/heinergc/sqlconn/internal/profiles"
)

// AddProfile validates p and stores it as a new profile.
func AddProfile(ctx context.Context, store *profiles.Store, trail audit.Trail, p profiles.Profile) (profiles.Profile, error) {
	if err := p.Validate(); err != nil {
		return profiles.Profile{}, err
	}

	added, err := store.Add(p)

	entry := audit.NewEntry(audit.OpAdd)
	entry.ProfileID = added.ID
	entry.ProfileName = added.Name
	entry.Server = added.Server
	trail.Log(entry)

	return added, err
}

// EditProfile validates p and replaces the stored profile with the same id.
// It reports false when no such profile exists.
func EditProfile(ctx context.Context, store *profiles.Store, trail audit.Trail, p profiles.Profile) (bool, error) {
	if err := p.Validate(); err != nil {
		return false, err
	}

	found, err := store.Update(p)
	if !found {
		return false, err
	}

	entry := audit.NewEntry(audit.OpEdit)
	entry.ProfileID = p.ID
	entry.ProfileName = p.Name
	entry.Server = p.Server
	trail.Log(entry)

	return true, err
}

// DeleteProfile removes the profile with id and returns how many records
// were removed.
func DeleteProfile(ctx context.Context, store *profiles.Store, trail audit.Trail, id string) (int, error) {
	name := ""
	if p, err := store.Get(id); err == nil {
		name = p.Name
	}

	removed, err := store.Delete(id)
	if removed > 0 {
		entry := audit.NewEntry(audit.OpDelete)
		entry.ProfileID = id
		entry.ProfileName = name
		entry.Changed = removed
		trail.Log(entry)
	}
	return removed, err
}

// Migrate encrypts every password still stored in plaintext.
func Migrate(ctx context.Context, store *profiles.Store, trail audit.Trail) (int, error) {
	changed, err := store.MigrateLegacyPlaintextSecrets()
	if changed > 0 {
		entry := audit.NewEntry(audit.OpMigrate)
		entry.Changed = changed
		trail.Log(entry)
	}
	return changed, err
}
