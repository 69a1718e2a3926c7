package workflows

import (
	"context"
	"time"

	"github.com/heinergc/sqlconn/internal/audit"
	"github.com/heinergc/sqlconn/internal/profiles"
	"github.com/heinergc/sqlconn/internal/report"
)

// ExportReport writes a spreadsheet of every profile into dir. The exporter
// only gets a copy of the list.
func ExportReport(ctx context.Context, store *profiles.Store, trail audit.Trail, dir string, now time.Time) (string, error) {
	list := store.List()

	path, err := report.Export(dir, list, now)
	if err != nil {
		return "", err
	}

	entry := audit.NewEntry(audit.OpReport)
	entry.OutputPath = path
	entry.Changed = len(list)
	trail.Log(entry)

	return path, nil
}
