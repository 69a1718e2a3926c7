// Package workflows provides high-level orchestration for sqlconn commands.
//
// Workflows coordinate the connection store, the probe runner, the cipher
// and the audit trail to implement complete user-facing features. Each
// workflow handles a single command's business logic, independent of CLI
// concerns like prompts, spinners and output formatting.
//
// # Design Philosophy
//
// The cmd/ package should be a thin layer that:
//   - Parses command-line flags and arguments
//   - Collects operator input
//   - Calls the appropriate workflow function
//   - Formats the result for display
//
// Workflows handle everything else:
//   - Validating profiles before they are stored
//   - Performing the core operation
//   - Recording audit trail entries
//
// # Available Workflows
//
//   - AddProfile, EditProfile, DeleteProfile: profile management
//   - Migrate: encrypts passwords left in plaintext by older versions
//   - TestProfile, TestAll: connection tests, recorded on each profile
//   - FindCorrupted, Repair: detect and re-enter unusable passwords
//   - RunQuery: operator smoke-test query
//   - ExportReport: spreadsheet export
//   - Doctor: read-only health checks
//   - Log: filtered view of the audit trail
//
// # Error Handling
//
// Workflows return typed errors from the internal/errors package, allowing
// the CLI layer to provide appropriate user-facing messages without string
// matching:
//
//	_, err := workflows.AddProfile(ctx, store, trail, p)
//	if errors.Is(err, kerrors.ErrInvalidProfile) {
//	    // Ask again
//	}
//
// # Context Usage
//
// All workflow functions accept a context.Context as their first parameter.
// Batch workflows stop between profiles once the context is done.
package workflows
