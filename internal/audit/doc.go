// Package audit records what was done to the connection store.
//
// Every mutating operation (add, edit, delete, repair, migrate), every
// connection test and every report export appends one entry to a JSON Lines
// file, by default:
//
//	Data/audit.jsonl
//
// Each entry contains:
//   - Timestamp (RFC3339 with microseconds, UTC)
//   - Operating-system user and host name
//   - Operation name
//   - Operation-specific details (profile, counts, output path)
//
// Passwords, plain or encrypted, are never written to the audit log.
//
// # Usage
//
//	trail := audit.Trail{Path: paths.AuditFile}
//	entry := audit.NewEntry(audit.OpAdd)
//	entry.ProfileID = p.ID
//	trail.Log(entry)
//
// # Failure Handling
//
// Audit logging is best-effort. If logging fails (permissions, disk full,
// etc.), the operation continues without error. A Trail with an empty Path
// records nothing.
//
// # Reading Logs
//
// Use ReadEntries to parse the log for display. Malformed lines are skipped
// to tolerate partial writes.
package audit
