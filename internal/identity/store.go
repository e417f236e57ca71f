package identity

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
)

// RegistryFileName is the default file name of the registry.
const RegistryFileName = "identities.json"

// Store provides registry operations on a single file. Writers are
// serialised in-process by a mutex and across processes by an advisory
// lock file next to the registry.
type Store struct {
	mu    sync.Mutex
	path  string
	keys  KeyFormat
	codec Codec
}

// NewStore creates a Store for the registry file at path.
func NewStore(path string, keys KeyFormat) *Store {
	return &Store{path: path, keys: keys, codec: CodecFor(path)}
}

// Path returns the registry file path.
func (s *Store) Path() string {
	return s.path
}

// Keys returns the key format the store enforces.
func (s *Store) Keys() KeyFormat {
	return s.keys
}

// Load reads the registry from disk.
func (s *Store) Load() (*Registry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	reg, _, err := s.loadLocked()
	return reg, err
}

// LoadOrEmpty loads the registry, falling back to an empty one when the
// file is missing, unreadable or malformed. The returned registry is never
// nil; reason explains why the fallback was used.
func (s *Store) LoadOrEmpty() (reg *Registry, reason error) {
	reg, err := s.Load()
	if err != nil {
		return NewRegistry(), err
	}
	return reg, nil
}

// loadLocked reads the registry without acquiring the lock (caller must hold it).
// The raw bytes are returned alongside a decode error so callers can keep them.
func (s *Store) loadLocked() (*Registry, []byte, error) {
	data, err := os.ReadFile(s.path) //nolint:gosec // G304: path from user config
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, fmt.Errorf("%w: %s", ErrRegistryNotFound, s.path)
		}
		return nil, nil, fmt.Errorf("reading identity registry: %w", err)
	}

	reg := NewRegistry()
	if err := s.codec.Unmarshal(data, reg); err != nil {
		return nil, data, fmt.Errorf("%w: %s: %v", ErrRegistryMalformed, s.path, err)
	}
	if reg.Identities == nil {
		reg.Identities = []Identity{}
	}

	return reg, data, nil
}

// Save writes the registry to disk, replacing the previous contents.
func (s *Store) Save(reg *Registry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.withFileLock(func() error {
		return s.saveLocked(reg)
	})
}

// saveLocked writes the registry without acquiring the lock (caller must hold it).
func (s *Store) saveLocked(reg *Registry) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("creating directory: %w", err)
	}

	if reg.Version == 0 {
		reg.Version = CurrentRegistryVersion
	}

	data, err := s.codec.Marshal(reg)
	if err != nil {
		return fmt.Errorf("encoding identity registry: %w", err)
	}

	tmp := s.path + ".tmp-" + uuid.NewString()
	if err := os.WriteFile(tmp, data, 0644); err != nil { //nolint:gosec // G306: registry is not secret
		return fmt.Errorf("writing identity registry: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("replacing identity registry: %w", err)
	}

	return nil
}

// withFileLock runs fn while holding the cross-process registry lock.
func (s *Store) withFileLock(fn func() error) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("creating directory: %w", err)
	}

	fl := flock.New(s.path + ".lock")
	if err := fl.Lock(); err != nil {
		return fmt.Errorf("locking identity registry: %w", err)
	}
	defer func() { _ = fl.Unlock() }()

	return fn()
}

// Add registers a new identity. The key is normalised first. Returns
// ErrIdentityExists if the key is taken. A registry that is missing or
// cannot be read or decoded is replaced by one holding only the new
// identity; whatever bytes it held are kept in a ".bak" file.
func (s *Store) Add(id Identity) error {
	_, err := s.Register(id)
	return err
}

// Register is Add, also reporting why the previous registry was discarded
// when it could not be read or decoded. reason is nil when the file was
// loaded or did not exist yet.
func (s *Store) Register(id Identity) (reason error, err error) {
	id, err = s.prepare(id)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	err = s.withFileLock(func() error {
		var reg *Registry
		reg, reason, err = s.loadForUpdateLocked()
		if err != nil {
			return err
		}

		if reg.Find(id.Key) != nil {
			return fmt.Errorf("%w: %s", ErrIdentityExists, id.Key)
		}

		reg.Identities = append(reg.Identities, id)
		return s.saveLocked(reg)
	})
	return reason, err
}

// loadForUpdateLocked loads the registry ahead of a rewrite (caller must
// hold the lock). Any read or decode failure yields an empty registry, with
// the failure as reason and the raw bytes, if any, copied to BackupPath.
// Only a failed backup is returned as err.
func (s *Store) loadForUpdateLocked() (reg *Registry, reason error, err error) {
	reg, raw, lerr := s.loadLocked()
	switch {
	case lerr == nil:
		return reg, nil, nil
	case errors.Is(lerr, ErrRegistryNotFound):
		return NewRegistry(), nil, nil
	}

	if err := s.backupLocked(raw); err != nil {
		return nil, lerr, err
	}
	return NewRegistry(), lerr, nil
}

// Reset replaces the registry with an empty one. The previous contents,
// readable or not, are kept in BackupPath.
func (s *Store) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.withFileLock(func() error {
		_, raw, _ := s.loadLocked()
		if err := s.backupLocked(raw); err != nil {
			return err
		}
		return s.saveLocked(NewRegistry())
	})
}

// BackupPath is where a discarded registry is kept before it is replaced.
func (s *Store) BackupPath() string {
	return s.path + ".bak"
}

func (s *Store) backupLocked(raw []byte) error {
	if len(raw) == 0 {
		return nil
	}
	if err := os.WriteFile(s.BackupPath(), raw, 0644); err != nil { //nolint:gosec // G306: registry is not secret
		return fmt.Errorf("backing up identity registry: %w", err)
	}
	return nil
}

func (s *Store) prepare(id Identity) (Identity, error) {
	id.Key = s.keys.Normalize(id.Key)
	if err := s.keys.Validate(id.Key); err != nil {
		return id, err
	}
	id.Name = strings.TrimSpace(id.Name)
	id.Email = strings.TrimSpace(id.Email)
	if id.Name == "" {
		return id, fmt.Errorf("%w: name is empty", ErrInvalidIdentity)
	}
	if id.Email == "" {
		return id, fmt.Errorf("%w: email is empty", ErrInvalidIdentity)
	}
	return id, nil
}

// Get returns the identity registered under key.
func (s *Store) Get(key string) (*Identity, error) {
	key = s.keys.Normalize(key)

	s.mu.Lock()
	defer s.mu.Unlock()

	reg, _, err := s.loadLocked()
	if err != nil {
		return nil, err
	}

	if id := reg.Find(key); id != nil {
		return id, nil
	}

	return nil, fmt.Errorf("%w: %s", ErrIdentityNotFound, key)
}

// List returns all identities in registration order. A missing registry
// yields no identities and no error.
func (s *Store) List() ([]Identity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	reg, _, err := s.loadLocked()
	if err != nil {
		if errors.Is(err, ErrRegistryNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return reg.Identities, nil
}

// Remove deletes the identity registered under key.
func (s *Store) Remove(key string) error {
	key = s.keys.Normalize(key)

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.withFileLock(func() error {
		reg, _, err := s.loadLocked()
		if err != nil {
			return err
		}

		for i, id := range reg.Identities {
			if id.Key == key {
				reg.Identities = append(reg.Identities[:i], reg.Identities[i+1:]...)
				return s.saveLocked(reg)
			}
		}

		return fmt.Errorf("%w: %s", ErrIdentityNotFound, key)
	})
}

// Exists checks if an identity is registered under key.
func (s *Store) Exists(key string) (bool, error) {
	_, err := s.Get(key)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, ErrIdentityNotFound) || errors.Is(err, ErrRegistryNotFound) {
		return false, nil
	}
	return false, err
}
