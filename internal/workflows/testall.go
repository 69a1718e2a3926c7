package workflows

import (
	"context"
	"errors"
	"fmt"

	"github.com/heinergc/sqlconn/internal/audit"
	"github.com/heinergc/sqlconn/internal/profiles"
)

// Prober tests a single profile. probe.Runner implements it.
type Prober interface {
	Test(ctx context.Context, p profiles.Profile) profiles.TestOutcome
}

// TestProfile tests the profile with id and records the outcome on it.
func TestProfile(ctx context.Context, store *profiles.Store, prober Prober, trail audit.Trail, id string) (profiles.TestOutcome, error) {
	p, err := store.Get(id)
	if err != nil {
		return profiles.TestOutcome{}, err
	}

	outcome := prober.Test(ctx, p)
	err = store.RecordOutcome(p.ID, outcome)

	entry := audit.NewEntry(audit.OpTest)
	entry.ProfileID = p.ID
	entry.ProfileName = p.Name
	entry.Server = p.Server
	entry.Success = audit.Bool(outcome.IsSuccessful)
	entry.Category = string(outcome.Category)
	trail.Log(entry)

	return outcome, err
}

// ProfileOutcome pairs a profile with its test outcome.
type ProfileOutcome struct {
	Profile profiles.Profile
	Outcome profiles.TestOutcome
}

// TestAllOptions configures the TestAll workflow.
type TestAllOptions struct {
	// OnStart runs before each test, OnResult after it. Both are optional.
	OnStart  func(index, total int, p profiles.Profile)
	OnResult func(index, total int, p profiles.Profile, outcome profiles.TestOutcome)

	Audit audit.Trail
}

// TestAllResult holds the complete result of the TestAll workflow.
type TestAllResult struct {
	Results   []ProfileOutcome
	Succeeded int
	Failed    int
}

// TestAll tests every profile one after another and records each outcome.
// A slow profile delays the ones after it. Write errors are collected and
// returned together once every profile has been tested.
func TestAll(ctx context.Context, store *profiles.Store, prober Prober, opts TestAllOptions) (*TestAllResult, error) {
	list := store.List()
	result := &TestAllResult{}

	var writeErrs []error
	for i, p := range list {
		if err := ctx.Err(); err != nil {
			return result, fmt.Errorf("stopped after %d of %d profiles: %w", i, len(list), err)
		}

		if opts.OnStart != nil {
			opts.OnStart(i, len(list), p)
		}

		outcome := prober.Test(ctx, p)
		if outcome.IsSuccessful {
			result.Succeeded++
		} else {
			result.Failed++
		}
		result.Results = append(result.Results, ProfileOutcome{Profile: p, Outcome: outcome})

		if err := store.RecordOutcome(p.ID, outcome); err != nil {
			writeErrs = append(writeErrs, err)
		}

		if opts.OnResult != nil {
			opts.OnResult(i, len(list), p, outcome)
		}
	}

	entry := audit.NewEntry(audit.OpTestAll)
	entry.Succeeded = result.Succeeded
	entry.Failed = result.Failed
	opts.Audit.Log(entry)

	return result, errors.Join(writeErrs...)
}
