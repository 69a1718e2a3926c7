// Package secrets protects stored database passwords.
//
// A Box encrypts short secrets with AES-256-CBC and PKCS#7 padding and emits
// standard base64 text. The key and IV come from a KeySource; the default
// MachineKeySource derives both from the host name, the operating-system user
// name and a fixed application salt:
//
//	base = hostname + username + "SQLConnTester2025"
//	key  = SHA-256(base)[:32]
//	iv   = SHA-256(base + "IV")[:16]
//
// Ciphertext is therefore only readable on the same machine by the same
// account. Copying connections.json to another host, or running sqlconn as a
// different user, makes every stored password permanently undecryptable. This
// is an accepted limitation; the repair workflow exists to re-enter secrets
// when it happens.
//
// The IV is fixed, so equal passwords encrypt to equal ciphertext. Files
// written by earlier versions of the tool depend on this format.
//
// # Failure semantics
//
// Encrypt and Decrypt never fall back to returning their input. Empty input
// yields empty output with a nil error; any other failure yields "" together
// with errors.ErrEncryptFailed or errors.ErrDecryptFailed. A caller that gets
// an empty plaintext back must check the error before treating the secret as
// blank.
//
// # Ciphertext heuristic
//
// LooksLikeCiphertext reports whether a string decodes as base64 and is
// longer than 20 characters. It is a heuristic: a long base64-shaped
// plaintext password is misclassified as ciphertext. The heuristic is kept
// because existing data files rely on it to avoid double encryption.
package secrets
