package identity

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// DefaultKeyLength is the key length used when none is configured.
const DefaultKeyLength = 3

// KeyFormat describes which keys the registry accepts and how they are
// normalised before storage and lookup.
type KeyFormat struct {
	// Length is the exact number of characters a key must have. Zero
	// accepts any non-empty key.
	Length int

	// FoldCase lower-cases keys so "JQP" and "jqp" name the same identity.
	FoldCase bool

	pattern *regexp.Regexp
}

// DefaultKeyFormat returns three-character, case-folded keys.
func DefaultKeyFormat() KeyFormat {
	return KeyFormat{Length: DefaultKeyLength, FoldCase: true}
}

// NewKeyFormat builds a KeyFormat. An empty pattern places no restriction
// beyond length.
func NewKeyFormat(length int, pattern string, foldCase bool) (KeyFormat, error) {
	if length < 0 {
		return KeyFormat{}, fmt.Errorf("key length must not be negative, got %d", length)
	}
	kf := KeyFormat{Length: length, FoldCase: foldCase}
	if pattern != "" {
		re, err := regexp.Compile(pattern)
		if err != nil {
			return KeyFormat{}, fmt.Errorf("compiling key pattern: %w", err)
		}
		kf.pattern = re
	}
	return kf, nil
}

// Pattern returns the configured pattern source, or "".
func (kf KeyFormat) Pattern() string {
	if kf.pattern == nil {
		return ""
	}
	return kf.pattern.String()
}

// Normalize trims the key and folds its case when configured.
func (kf KeyFormat) Normalize(key string) string {
	key = strings.TrimSpace(key)
	if kf.FoldCase {
		key = cases.Lower(language.Und).String(key)
	}
	return key
}

// Validate checks an already normalised key.
func (kf KeyFormat) Validate(key string) error {
	if key == "" {
		return fmt.Errorf("%w: key is empty", ErrInvalidKey)
	}
	if kf.Length > 0 {
		if n := utf8.RuneCountInString(key); n != kf.Length {
			return fmt.Errorf("%w: %q has %d characters, want %d", ErrInvalidKey, key, n, kf.Length)
		}
	}
	if kf.pattern != nil && !kf.pattern.MatchString(key) {
		return fmt.Errorf("%w: %q does not match %s", ErrInvalidKey, key, kf.pattern)
	}
	return nil
}

// Describe is a short human description used in usage text.
func (kf KeyFormat) Describe() string {
	var parts []string
	if kf.Length > 0 {
		parts = append(parts, fmt.Sprintf("exactly %d characters", kf.Length))
	}
	if kf.pattern != nil {
		parts = append(parts, "matching "+kf.pattern.String())
	}
	if len(parts) == 0 {
		return "any non-empty text"
	}
	return strings.Join(parts, ", ")
}
