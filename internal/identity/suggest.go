package identity

import (
	"strings"
	"unicode"
)

// SuggestKey derives a key from a display name, the way people usually
// pick initials: "John Q. Person" -> "jqp". When the format wants a fixed
// length, extra initials are dropped from the middle and missing ones are
// filled from the rest of the last name, then the email's local part.
// Returns "" when no valid key can be derived.
func SuggestKey(name, email string, kf KeyFormat) string {
	words := strings.FieldsFunc(name, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	var initials []rune
	for _, w := range words {
		initials = append(initials, []rune(w)[0])
	}

	if kf.Length > 0 {
		if len(initials) > kf.Length {
			last := initials[len(initials)-1]
			initials = append(initials[:kf.Length-1], last)
		}
		var filler []rune
		if len(words) > 0 {
			filler = append(filler, []rune(words[len(words)-1])[1:]...)
		}
		local, _, _ := strings.Cut(email, "@")
		for _, r := range local {
			if unicode.IsLetter(r) || unicode.IsDigit(r) {
				filler = append(filler, r)
			}
		}
		for len(initials) < kf.Length && len(filler) > 0 {
			initials = append(initials, filler[0])
			filler = filler[1:]
		}
	}

	key := kf.Normalize(string(initials))
	if kf.Validate(key) != nil {
		return ""
	}
	return key
}
