package stringutils

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// StripControl removes C0/C1 control characters from text received from a
// remote peer. Tabs and newlines are kept, and invalid UTF-8 becomes U+FFFD.
func StripControl(s string) string {
	if utf8.ValidString(s) && strings.IndexFunc(s, isControl) < 0 {
		return s
	}

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if isControl(r) || !(unicode.IsPrint(r) || unicode.IsSpace(r)) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func isControl(r rune) bool {
	switch r {
	case '\t', '\n', '\r':
		return false
	}
	return r < 0x20 || (r >= 0x7f && r <= 0x9f)
}
