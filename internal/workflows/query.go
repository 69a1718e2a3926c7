package workflows

import (
	"context"

	"github.com/heinergc/sqlconn/internal/audit"
	"github.com/heinergc/sqlconn/internal/probe"
	"github.com/heinergc/sqlconn/internal/profiles"
)

// Querier runs an operator query. probe.Runner implements it.
type Querier interface {
	RunQuery(ctx context.Context, p profiles.Profile, query string) probe.QueryOutcome
}

// RunQuery runs query against the profile with id. The query text is not
// written to the audit trail.
func RunQuery(ctx context.Context, store *profiles.Store, querier Querier, trail audit.Trail, id, query string) (probe.QueryOutcome, error) {
	p, err := store.Get(id)
	if err != nil {
		return probe.QueryOutcome{}, err
	}

	out := querier.RunQuery(ctx, p, query)

	entry := audit.NewEntry(audit.OpQuery)
	entry.ProfileID = p.ID
	entry.ProfileName = p.Name
	entry.Server = p.Server
	entry.Success = audit.Bool(out.Success)
	if !out.Success {
		entry.Category = string(out.Category)
	}
	trail.Log(entry)

	return out, nil
}
