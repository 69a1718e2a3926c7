package secrets

import "encoding/base64"

// minCiphertextLen is the length a stored secret must exceed to be treated as
// ciphertext. The shortest Box output is 24 characters.
const minCiphertextLen = 20

// LooksLikeCiphertext reports whether text is non-empty, decodes as standard
// base64 and is longer than 20 characters.
//
// Long base64-shaped plaintext passwords are a known false positive.
func LooksLikeCiphertext(text string) bool {
	if text == "" {
		return false
	}
	if _, err := base64.StdEncoding.DecodeString(text); err != nil {
		return false
	}
	return len(text) > minCiphertextLen
}
