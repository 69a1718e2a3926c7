// Package profiles owns sqlconn's connection profiles and the file they live
// in.
//
// A Store keeps the whole collection in memory and rewrites
// Data/connections.json on every mutation. Every write path runs the
// password through the encryption gate:
//
//   - Profiles using integrated security never keep a password.
//   - Any other non-empty password is encrypted and flagged, unless it is
//     already flagged and already looks like ciphertext.
//
// Lookups are by Id only. Update and Delete of an unknown Id change nothing
// and report so through their first return value rather than an error.
//
// The JSON keys match files written by the original Windows tool, so an
// existing connections.json loads as is.
package profiles
