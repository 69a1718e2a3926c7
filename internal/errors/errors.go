package errors

import "errors"

// Cryptographic errors indicate a secret could not be protected or recovered.
var (
	// ErrEncryptFailed indicates a secret could not be encrypted.
	ErrEncryptFailed = errors.New("failed to encrypt secret")

	// ErrDecryptFailed indicates a stored secret could not be decrypted.
	// Callers must treat this as "undecryptable", never as a blank secret.
	ErrDecryptFailed = errors.New("failed to decrypt secret")

	// ErrKeyDerivation indicates the machine-bound key could not be derived.
	ErrKeyDerivation = errors.New("failed to derive encryption key")
)

// Store errors indicate problems with the profile file on disk.
var (
	// ErrStoreCorrupt indicates the profile file exists but could not be read or parsed.
	ErrStoreCorrupt = errors.New("connection store is unreadable")

	// ErrStoreWrite indicates the profile file could not be written.
	ErrStoreWrite = errors.New("failed to write connection store")
)

// Profile errors indicate issues with a single connection profile.
var (
	// ErrProfileNotFound indicates no profile has the requested identifier.
	ErrProfileNotFound = errors.New("connection profile not found")

	// ErrEmptySecret indicates an empty replacement password was supplied.
	ErrEmptySecret = errors.New("password must not be empty")

	// ErrInvalidProfile indicates a profile is missing required fields.
	ErrInvalidProfile = errors.New("invalid connection profile")

	// ErrUnknownProvider indicates the profile names a database provider sqlconn cannot reach.
	ErrUnknownProvider = errors.New("unknown database provider")
)

// Export errors.
var (
	// ErrReportFailed indicates the spreadsheet report could not be produced.
	ErrReportFailed = errors.New("failed to generate report")
)

// Audit log errors.
var (
	// ErrNoAuditLog indicates no audit log has been written yet.
	ErrNoAuditLog = errors.New("no audit log found")

	// ErrInvalidDateFormat indicates a date filter is not YYYY-MM-DD.
	ErrInvalidDateFormat = errors.New("invalid date format")
)
