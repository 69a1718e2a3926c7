package profiles

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	kerrors "github.com/heinergc/sqlconn/internal/errors"
	logger "github.com/heinergc/sqlconn/internal/logging"

	"github.com/google/uuid"
)

var utf8BOM = []byte("\xef\xbb\xbf")

// Cipher is the part of secrets.Box the store depends on.
type Cipher interface {
	Encrypt(plaintext string) (string, error)
	Decrypt(ciphertext string) (string, error)
	IsProbablyCiphertext(text string) bool
}

// Store is the in-memory profile collection backed by one JSON file.
type Store struct {
	path   string
	cipher Cipher
	log    logger.Logger

	now   func() time.Time
	newID func() string

	mu       sync.Mutex
	profiles []Profile
}

// NewStore returns an empty store for path. Call Load to read the file.
func NewStore(path string, cipher Cipher, log logger.Logger) *Store {
	return &Store{
		path:   path,
		cipher: cipher,
		log:    log,
		now:    time.Now,
		newID:  func() string { return uuid.New().String() },
	}
}

// Path returns the backing file.
func (s *Store) Path() string {
	return s.path
}

// Load replaces the collection with the file contents. A missing file leaves
// the store empty with no error. An unreadable or unparsable file also
// leaves it empty and returns an error wrapping ErrStoreCorrupt.
func (s *Store) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.profiles = nil

	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			s.log.Debugf("No connection file at %s, starting empty", s.path)
			return nil
		}
		return fmt.Errorf("%w: %v", kerrors.ErrStoreCorrupt, err)
	}

	data = bytes.TrimSpace(bytes.TrimPrefix(data, utf8BOM))
	if len(data) == 0 {
		return nil
	}

	var loaded []Profile
	if err := json.Unmarshal(data, &loaded); err != nil {
		return fmt.Errorf("%w: %s: %v", kerrors.ErrStoreCorrupt, s.path, err)
	}

	s.profiles = loaded
	s.log.Debugf("Loaded %d connection profiles from %s", len(loaded), s.path)
	return nil
}

// Save writes the whole collection to disk.
func (s *Store) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.persistLocked()
}

// List returns copies of every profile in insertion order.
func (s *Store) List() []Profile {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Profile, len(s.profiles))
	for i, p := range s.profiles {
		out[i] = p.Clone()
	}
	return out
}

// Get returns a copy of the profile with id.
func (s *Store) Get(id string) (Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexLocked(id)
	if i < 0 {
		return Profile{}, fmt.Errorf("%w: %s", kerrors.ErrProfileNotFound, id)
	}
	return s.profiles[i].Clone(), nil
}

// Add assigns a new id and creation time, protects the password and
// persists. The returned profile is the stored copy. On a write error the
// profile stays in memory and the error is returned.
func (s *Store) Add(p Profile) (Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p = p.Clone()
	p.ID = s.newID()
	p.CreatedAt = s.now()
	s.gate(&p)

	s.profiles = append(s.profiles, p)
	s.log.Infof("Added connection profile %q (%s)", p.Name, p.ID)

	return p.Clone(), s.persistLocked()
}

// Update replaces the profile with the same id. An unknown id changes
// nothing and reports false with a nil error.
func (s *Store) Update(p Profile) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexLocked(p.ID)
	if i < 0 {
		s.log.Debugf("Update skipped, no profile with id %s", p.ID)
		return false, nil
	}

	p = p.Clone()
	s.gate(&p)
	s.profiles[i] = p
	s.log.Infof("Updated connection profile %q (%s)", p.Name, p.ID)

	return true, s.persistLocked()
}

// Delete removes every profile with id and persists. It returns how many
// were removed.
func (s *Store) Delete(id string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.profiles[:0]
	removed := 0
	for _, p := range s.profiles {
		if p.ID == id {
			removed++
			continue
		}
		kept = append(kept, p)
	}
	s.profiles = kept

	if removed > 0 {
		s.log.Infof("Deleted connection profile %s", id)
	}
	return removed, s.persistLocked()
}

// GetWithPlaintextSecret returns a copy of the profile with its password
// decrypted. The copy is never written back. A password that fails to
// decrypt is returned empty together with the decrypt error.
func (s *Store) GetWithPlaintextSecret(id string) (Profile, error) {
	p, err := s.Get(id)
	if err != nil {
		return Profile{}, err
	}
	if !p.PasswordEncrypted || p.Password == "" {
		return p, nil
	}

	plain, err := s.cipher.Decrypt(p.Password)
	p.Password = plain
	p.PasswordEncrypted = false
	if err != nil {
		return p, fmt.Errorf("profile %q: %w", p.Name, err)
	}
	return p, nil
}

// DecryptedPassword returns the plaintext password of id for display, or
// "" when the profile is unknown, has no password or cannot be decrypted.
func (s *Store) DecryptedPassword(id string) string {
	p, err := s.GetWithPlaintextSecret(id)
	if err != nil {
		s.log.Debugf("Could not recover password for %s: %v", id, err)
		return ""
	}
	return p.Password
}

// ForceReplaceSecret encrypts plaintext and overwrites the stored password
// of id regardless of its current state. Nothing is written on failure.
func (s *Store) ForceReplaceSecret(id, plaintext string) error {
	if plaintext == "" {
		return kerrors.ErrEmptySecret
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexLocked(id)
	if i < 0 {
		return fmt.Errorf("%w: %s", kerrors.ErrProfileNotFound, id)
	}

	ciphertext, err := s.cipher.Encrypt(plaintext)
	if err != nil || ciphertext == "" {
		return fmt.Errorf("%w: profile %s", kerrors.ErrEncryptFailed, id)
	}

	s.profiles[i].Password = ciphertext
	s.profiles[i].PasswordEncrypted = true
	s.log.Infof("Replaced password for connection profile %q", s.profiles[i].Name)

	return s.persistLocked()
}

// MigrateLegacyPlaintextSecrets encrypts every SQL-auth password still
// stored in plaintext and returns how many changed. An unflagged value that
// already looks like ciphertext is left alone. The file is written once, and
// only when something changed.
func (s *Store) MigrateLegacyPlaintextSecrets() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	changed := 0
	for i := range s.profiles {
		p := &s.profiles[i]
		if !p.UsesSQLAuth() || p.Password == "" || p.PasswordEncrypted {
			continue
		}

		if s.cipher.IsProbablyCiphertext(p.Password) {
			s.log.Debugf("Password of %q looks encrypted but is not flagged, leaving it", p.Name)
			continue
		}

		ciphertext, err := s.cipher.Encrypt(p.Password)
		if err != nil || ciphertext == "" {
			s.log.Warnf("Could not encrypt the password of %q: %v", p.Name, err)
			continue
		}
		p.Password = ciphertext
		p.PasswordEncrypted = true
		changed++
	}

	if changed == 0 {
		return 0, nil
	}
	s.log.Infof("Encrypted %d plaintext passwords", changed)
	return changed, s.persistLocked()
}

// RecordOutcome attaches a test outcome to id and persists. An unknown id is
// ignored.
func (s *Store) RecordOutcome(id string, outcome TestOutcome) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexLocked(id)
	if i < 0 {
		return nil
	}

	tested := outcome.TestedAt
	if tested.IsZero() {
		tested = s.now()
	}
	s.profiles[i].LastTested = &tested
	s.profiles[i].LastTestResult = &outcome

	return s.persistLocked()
}

// gate applies the password policy to p before it is stored.
func (s *Store) gate(p *Profile) {
	if p.IntegratedSecurity {
		p.Password = ""
		p.PasswordEncrypted = false
		return
	}
	if p.Password == "" {
		return
	}
	if p.PasswordEncrypted && s.cipher.IsProbablyCiphertext(p.Password) {
		return
	}

	ciphertext, err := s.cipher.Encrypt(p.Password)
	if err != nil || ciphertext == "" {
		// Never store the plaintext. The flagged empty password is picked
		// up by the repair scan.
		s.log.Warnf("Could not encrypt the password of %q, it must be re-entered: %v", p.Name, err)
		p.Password = ""
		p.PasswordEncrypted = true
		return
	}
	p.Password = ciphertext
	p.PasswordEncrypted = true
}

func (s *Store) indexLocked(id string) int {
	for i := range s.profiles {
		if s.profiles[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) persistLocked() error {
	profiles := s.profiles
	if profiles == nil {
		profiles = []Profile{}
	}

	data, err := json.MarshalIndent(profiles, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: %v", kerrors.ErrStoreWrite, err)
	}

	if err := writeFileAtomic(s.path, data); err != nil {
		s.log.Errorf("Failed to save connections to %s: %v", s.path, err)
		return fmt.Errorf("%w: %v", kerrors.ErrStoreWrite, err)
	}
	return nil
}

func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}

	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}
