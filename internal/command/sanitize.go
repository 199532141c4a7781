package command

import (
	"strings"
	"unicode"
)

// sanitizeLine strips control characters, non-printable runes, and
// line-separator characters from a raw input line before it reaches
// Parse, collapsing any remaining whitespace rune to a plain space.
// Adapted from the teacher's game.sanitizeInput/sanitizeRune.
func sanitizeLine(s string) string {
	if s == "" {
		return ""
	}
	var b strings.Builder
	b.Grow(len(s))
	changed := false
	for _, r := range s {
		sanitized, ok := sanitizeRune(r)
		if !ok {
			changed = true
			continue
		}
		if sanitized != r {
			changed = true
		}
		b.WriteRune(sanitized)
	}
	if !changed {
		return s
	}
	return b.String()
}

func sanitizeRune(r rune) (rune, bool) {
	switch {
	case r == '\r':
		return 0, false
	case unicode.In(r, unicode.Zl, unicode.Zp):
		return 0, false
	case unicode.IsSpace(r):
		if r == ' ' {
			return r, true
		}
		return ' ', true
	case r < 0x20 || r == 0x7f:
		return 0, false
	case unicode.Is(unicode.Cf, r):
		return 0, false
	case unicode.IsControl(r):
		return 0, false
	case !unicode.IsPrint(r):
		return 0, false
	default:
		return r, true
	}
}
