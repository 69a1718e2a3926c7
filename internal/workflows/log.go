package workflows

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/heinergc/sqlconn/internal/audit"
	kerrors "github.com/heinergc/sqlconn/internal/errors"
)

// LogOptions configures the log workflow.
type LogOptions struct {
	// Limit is the maximum number of entries to return. 0 means no limit.
	Limit int

	// Reverse orders entries from most recent to oldest when true.
	Reverse bool

	// User filters entries by OS user name.
	User string

	// Operations filters entries by operation types (comma-separated).
	Operations string

	// Profile filters entries by profile name or id.
	Profile string

	// Since and Until filter by date (YYYY-MM-DD), both inclusive.
	Since string
	Until string
}

// LogResult contains the outcome of a log operation.
type LogResult struct {
	Entries []audit.Entry

	// TotalEntriesBeforeFilter is the count of entries before filtering.
	TotalEntriesBeforeFilter int
}

const auditTimeLayout = "2006-01-02T15:04:05.000000Z"

// Log reads and filters the audit trail.
//
// Returns ErrNoAuditLog if nothing has been logged yet.
// Returns ErrInvalidDateFormat if a date filter cannot be parsed.
func Log(ctx context.Context, trail audit.Trail, opts LogOptions) (*LogResult, error) {
	if trail.Path == "" {
		return nil, kerrors.ErrNoAuditLog
	}
	if _, err := os.Stat(trail.Path); os.IsNotExist(err) {
		return nil, kerrors.ErrNoAuditLog
	}

	entries, err := trail.ReadEntries()
	if err != nil {
		return nil, fmt.Errorf("reading audit log: %w", err)
	}

	result := &LogResult{TotalEntriesBeforeFilter: len(entries)}
	if len(entries) == 0 {
		result.Entries = entries
		return result, nil
	}

	filtered := entries

	if opts.User != "" {
		filtered = filterEntries(filtered, func(e audit.Entry) bool {
			return strings.EqualFold(e.User, opts.User)
		})
	}

	if opts.Operations != "" {
		ops := make(map[string]bool)
		for _, op := range strings.Split(opts.Operations, ",") {
			ops[strings.ToLower(strings.TrimSpace(op))] = true
		}
		filtered = filterEntries(filtered, func(e audit.Entry) bool {
			return ops[strings.ToLower(e.Operation)]
		})
	}

	if opts.Profile != "" {
		filtered = filterEntries(filtered, func(e audit.Entry) bool {
			return e.ProfileID == opts.Profile || strings.EqualFold(e.ProfileName, opts.Profile)
		})
	}

	if opts.Since != "" {
		since, err := time.Parse("2006-01-02", opts.Since)
		if err != nil {
			return nil, fmt.Errorf("%w: --since date format invalid, use YYYY-MM-DD", kerrors.ErrInvalidDateFormat)
		}
		filtered = filterEntries(filtered, func(e audit.Entry) bool {
			t, ok := parseAuditTime(e.Timestamp)
			return ok && !t.Before(since)
		})
	}

	if opts.Until != "" {
		until, err := time.Parse("2006-01-02", opts.Until)
		if err != nil {
			return nil, fmt.Errorf("%w: --until date format invalid, use YYYY-MM-DD", kerrors.ErrInvalidDateFormat)
		}
		until = until.Add(24*time.Hour - time.Nanosecond)
		filtered = filterEntries(filtered, func(e audit.Entry) bool {
			t, ok := parseAuditTime(e.Timestamp)
			return ok && !t.After(until)
		})
	}

	if opts.Reverse {
		for i, j := 0, len(filtered)-1; i < j; i, j = i+1, j-1 {
			filtered[i], filtered[j] = filtered[j], filtered[i]
		}
	}

	if opts.Limit > 0 && len(filtered) > opts.Limit {
		if opts.Reverse {
			// Reversed: the first N are the most recent.
			filtered = filtered[:opts.Limit]
		} else {
			filtered = filtered[len(filtered)-opts.Limit:]
		}
	}

	result.Entries = filtered
	return result, nil
}

func filterEntries(entries []audit.Entry, keep func(audit.Entry) bool) []audit.Entry {
	var result []audit.Entry
	for _, e := range entries {
		if keep(e) {
			result = append(result, e)
		}
	}
	return result
}

func parseAuditTime(ts string) (time.Time, bool) {
	t, err := time.Parse(auditTimeLayout, ts)
	if err != nil {
		t, err = time.Parse(time.RFC3339, ts)
	}
	return t, err == nil
}

// FormatDateTime formats an audit timestamp as YYYY-MM-DD HH:MM:SS in local time.
func FormatDateTime(ts string) string {
	t, ok := parseAuditTime(ts)
	if !ok {
		if len(ts) >= 19 {
			return ts[:19]
		}
		return ts
	}
	return t.Local().Format("2006-01-02 15:04:05")
}

// FormatDetails summarizes what an audit entry changed.
func FormatDetails(e audit.Entry) string {
	switch e.Operation {
	case audit.OpAdd, audit.OpEdit:
		if e.Server != "" {
			return fmt.Sprintf("%s (%s)", e.ProfileName, e.Server)
		}
		return e.ProfileName
	case audit.OpDelete:
		return e.ProfileName
	case audit.OpTest, audit.OpQuery:
		status := "ok"
		if e.Success != nil && !*e.Success {
			status = e.Category
			if status == "" {
				status = "failed"
			}
		}
		return fmt.Sprintf("%s %s", e.ProfileName, status)
	case audit.OpTestAll:
		return fmt.Sprintf("%d ok, %d failed", e.Succeeded, e.Failed)
	case audit.OpRepair:
		return fmt.Sprintf("%d repaired, %d skipped, %d failed", e.Changed, e.Skipped, e.Failed)
	case audit.OpMigrate:
		return fmt.Sprintf("encrypted %d passwords", e.Changed)
	case audit.OpReport:
		return e.OutputPath
	default:
		return ""
	}
}
