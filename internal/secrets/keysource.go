package secrets

import (
	"crypto/sha256"
	"fmt"

	kerrors "github.com/heinergc/sqlconn/internal/errors"
	"github.com/heinergc/sqlconn/internal/utils"
)

// ApplicationSalt is mixed into every derived key.
const ApplicationSalt = "SQLConnTester2025"

const (
	keySize = 32
	ivSize  = 16
)

// KeySource supplies the AES key and IV a Box encrypts with.
type KeySource interface {
	KeyMaterial() (key, iv []byte, err error)
}

// MachineKeySource derives key material from the current host and OS user.
// The lookup functions default to the utils helpers and exist so tests can
// simulate another machine or account.
type MachineKeySource struct {
	Hostname func() (string, error)
	Username func() (string, error)
}

// KeyMaterial implements KeySource.
func (m MachineKeySource) KeyMaterial() ([]byte, []byte, error) {
	hostnameFn, usernameFn := m.Hostname, m.Username
	if hostnameFn == nil {
		hostnameFn = utils.GetHostname
	}
	if usernameFn == nil {
		usernameFn = utils.GetUsername
	}

	hostname, err := hostnameFn()
	if err != nil {
		return nil, nil, fmt.Errorf("%w: hostname: %v", kerrors.ErrKeyDerivation, err)
	}
	username, err := usernameFn()
	if err != nil {
		return nil, nil, fmt.Errorf("%w: username: %v", kerrors.ErrKeyDerivation, err)
	}

	key, iv := DeriveKey(hostname + username + ApplicationSalt)
	return key, iv, nil
}

// PhraseKeySource derives key material from a fixed base string.
type PhraseKeySource string

// KeyMaterial implements KeySource.
func (p PhraseKeySource) KeyMaterial() ([]byte, []byte, error) {
	if p == "" {
		return nil, nil, fmt.Errorf("%w: empty phrase", kerrors.ErrKeyDerivation)
	}
	key, iv := DeriveKey(string(p))
	return key, iv, nil
}

// DeriveKey hashes base into a 32-byte key and a 16-byte IV.
func DeriveKey(base string) (key, iv []byte) {
	keyHash := sha256.Sum256([]byte(base))
	ivHash := sha256.Sum256([]byte(base + "IV"))

	key = make([]byte, keySize)
	copy(key, keyHash[:keySize])
	iv = make([]byte, ivSize)
	copy(iv, ivHash[:ivSize])
	return key, iv
}
