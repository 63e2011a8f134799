package textutil

import (
	"strings"
	"unicode"
)

// SanitizeFileName strips every character outside [a-zA-Z0-9_-.] (plus
// whitespace when allowSpaces is set), collapses runs of whitespace into a
// single space, and never returns an empty string.
func SanitizeFileName(name string, allowSpaces bool) string {
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '_' || r == '-' || r == '.':
			b.WriteRune(r)
		case unicode.IsSpace(r) && allowSpaces:
			b.WriteRune(' ')
		}
	}
	out := strings.Join(strings.Fields(b.String()), " ")
	if out == "" {
		return "Unknown"
	}
	return out
}
