package identity

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
)

// LegacyFileName is the data file written by the original GitSwitch tool.
const LegacyFileName = "gitusers.xml"

// DefaultLegacyPath returns where GitSwitch kept its data file.
func DefaultLegacyPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("locating user config directory: %w", err)
	}
	return filepath.Join(dir, LegacyFileName), nil
}

type legacyPeople struct {
	XMLName xml.Name       `xml:"ArrayOfPerson"`
	People  []legacyPerson `xml:"Person"`
}

type legacyPerson struct {
	Initials string `xml:"Initials"`
	Name     string `xml:"Name"`
	Email    string `xml:"Email"`
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ReadLegacy parses a GitSwitch gitusers.xml file.
func ReadLegacy(path string) ([]Identity, error) {
	data, err := os.ReadFile(path) //nolint:gosec // G304: path supplied by the user
	if err != nil {
		return nil, fmt.Errorf("reading legacy data file: %w", err)
	}
	return ParseLegacy(data)
}

// ParseLegacy decodes the XML list of people GitSwitch serialised.
func ParseLegacy(data []byte) ([]Identity, error) {
	data = bytes.TrimPrefix(data, utf8BOM)

	var doc legacyPeople
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing legacy data file: %w", err)
	}

	ids := make([]Identity, 0, len(doc.People))
	for _, p := range doc.People {
		ids = append(ids, Identity{Key: p.Initials, Name: p.Name, Email: p.Email})
	}
	return ids, nil
}

// SkippedIdentity is an incoming identity Import did not add, with the reason.
type SkippedIdentity struct {
	Key string
	Err error
}

// ImportResult reports what Import did with each incoming identity, in
// input order. Reset is set when the existing registry could not be read
// and Import started from an empty one.
type ImportResult struct {
	Added   []string
	Skipped []SkippedIdentity
	Reset   error
}

// Import adds every identity whose key is valid and not yet registered.
// Invalid or duplicate entries are reported in Skipped rather than failing
// the whole import.
func (s *Store) Import(ids []Identity) (*ImportResult, error) {
	res := &ImportResult{}

	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.withFileLock(func() error {
		reg, reason, err := s.loadForUpdateLocked()
		if err != nil {
			return err
		}
		res.Reset = reason

		for _, in := range ids {
			id, err := s.prepare(in)
			if err != nil {
				res.Skipped = append(res.Skipped, SkippedIdentity{Key: in.Key, Err: err})
				continue
			}
			if reg.Find(id.Key) != nil {
				res.Skipped = append(res.Skipped, SkippedIdentity{
					Key: id.Key,
					Err: fmt.Errorf("%w: %s", ErrIdentityExists, id.Key),
				})
				continue
			}
			reg.Identities = append(reg.Identities, id)
			res.Added = append(res.Added, id.Key)
		}

		if len(res.Added) == 0 {
			return nil
		}
		return s.saveLocked(reg)
	})
	if err != nil {
		return nil, err
	}

	return res, nil
}
