package secrets

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"encoding/base64"
	"fmt"
	"unicode/utf8"

	kerrors "github.com/heinergc/sqlconn/internal/errors"
)

// Box encrypts and decrypts short secrets with key material fixed at
// construction.
type Box struct {
	block cipher.Block
	iv    []byte
}

// NewBox derives key material from src once and returns a ready Box.
func NewBox(src KeySource) (*Box, error) {
	key, iv, err := src.KeyMaterial()
	if err != nil {
		return nil, err
	}
	if len(key) != keySize || len(iv) != ivSize {
		return nil, fmt.Errorf("%w: need %d-byte key and %d-byte iv, got %d and %d",
			kerrors.ErrKeyDerivation, keySize, ivSize, len(key), len(iv))
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", kerrors.ErrKeyDerivation, err)
	}

	return &Box{block: block, iv: append([]byte(nil), iv...)}, nil
}

// NewMachineBox returns a Box bound to the current host and OS user.
func NewMachineBox() (*Box, error) {
	return NewBox(MachineKeySource{})
}

// Encrypt returns the base64 ciphertext of plaintext. Empty input is returned
// unchanged.
func (b *Box) Encrypt(plaintext string) (string, error) {
	if plaintext == "" {
		return "", nil
	}
	if b == nil || b.block == nil {
		return "", fmt.Errorf("%w: box not initialized", kerrors.ErrEncryptFailed)
	}

	padded := pkcs7Pad([]byte(plaintext), aes.BlockSize)
	out := make([]byte, len(padded))
	cipher.NewCBCEncrypter(b.block, b.iv).CryptBlocks(out, padded)

	return base64.StdEncoding.EncodeToString(out), nil
}

// Decrypt reverses Encrypt. Any malformed input yields "" and
// ErrDecryptFailed, never the input itself.
func (b *Box) Decrypt(ciphertext string) (string, error) {
	if ciphertext == "" {
		return "", nil
	}
	if b == nil || b.block == nil {
		return "", fmt.Errorf("%w: box not initialized", kerrors.ErrDecryptFailed)
	}

	raw, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", fmt.Errorf("%w: not base64", kerrors.ErrDecryptFailed)
	}
	if len(raw) == 0 || len(raw)%aes.BlockSize != 0 {
		return "", fmt.Errorf("%w: invalid ciphertext length %d", kerrors.ErrDecryptFailed, len(raw))
	}

	out := make([]byte, len(raw))
	cipher.NewCBCDecrypter(b.block, b.iv).CryptBlocks(out, raw)

	plain, ok := pkcs7Unpad(out, aes.BlockSize)
	if !ok {
		return "", fmt.Errorf("%w: bad padding", kerrors.ErrDecryptFailed)
	}
	if !utf8.Valid(plain) {
		return "", fmt.Errorf("%w: plaintext is not valid UTF-8", kerrors.ErrDecryptFailed)
	}
	return string(plain), nil
}

// IsProbablyCiphertext reports whether text looks like Box output.
func (b *Box) IsProbablyCiphertext(text string) bool {
	return LooksLikeCiphertext(text)
}

func pkcs7Pad(data []byte, blockSize int) []byte {
	n := blockSize - len(data)%blockSize
	return append(append([]byte(nil), data...), bytes.Repeat([]byte{byte(n)}, n)...)
}

func pkcs7Unpad(data []byte, blockSize int) ([]byte, bool) {
	if len(data) == 0 || len(data)%blockSize != 0 {
		return nil, false
	}
	n := int(data[len(data)-1])
	if n == 0 || n > blockSize || n > len(data) {
		return nil, false
	}
	for _, c := range data[len(data)-n:] {
		if int(c) != n {
			return nil, false
		}
	}
	return data[:len(data)-n], true
}
