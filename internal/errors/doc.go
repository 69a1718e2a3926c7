// Package errors provides typed error values for sqlconn.
//
// Sentinel errors let callers handle specific conditions with errors.Is()
// instead of matching on message text.
//
// # Error Categories
//
// Errors are grouped by category:
//
//   - Crypto errors: a secret could not be encrypted or decrypted
//     (ErrEncryptFailed, ErrDecryptFailed, ErrKeyDerivation)
//   - Store errors: the profile file could not be read or written
//     (ErrStoreCorrupt, ErrStoreWrite)
//   - Profile errors: lookups and input checks (ErrProfileNotFound,
//     ErrEmptySecret, ErrInvalidProfile, ErrUnknownProvider)
//   - Export errors: the spreadsheet report could not be produced
//     (ErrReportFailed)
//   - Audit log errors: reading and filtering the audit trail
//     (ErrNoAuditLog, ErrInvalidDateFormat)
//
// # Usage
//
// Return errors from internal packages, wrapped with context:
//
//	return fmt.Errorf("replacing secret for %s: %w", id, errors.ErrProfileNotFound)
//
// Handle them in the CLI layer:
//
//	if errors.Is(err, kerrors.ErrProfileNotFound) {
//	    // Show user-friendly message
//	}
//
// Connectivity failures are deliberately not errors: the probe runner turns
// them into a profiles.TestOutcome with a stable category.
package errors
