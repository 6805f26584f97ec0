package cjk

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"
)

// ParseCodepoint converts the textual form used by the Unihan files
// ("U+9C7C", case-insensitive prefix) into a rune. A bare hex string
// without the prefix is accepted as well, as used by CJKRadicals.txt.
func ParseCodepoint(s string) (rune, error) {
	s = strings.TrimSpace(s)
	hex := s
	if len(s) > 2 && (s[:2] == "U+" || s[:2] == "u+") {
		hex = s[2:]
	}
	if hex == "" {
		return 0, fmt.Errorf("parse codepoint %q: empty", s)
	}
	n, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return 0, fmt.Errorf("parse codepoint %q: %w", s, err)
	}
	r := rune(n)
	if !utf8.ValidRune(r) {
		return 0, fmt.Errorf("parse codepoint %q: not a valid rune", s)
	}
	return r, nil
}

// FormatCodepoint returns the "U+XXXX" form of r, at least four hex digits.
func FormatCodepoint(r rune) string {
	return fmt.Sprintf("U+%04X", r)
}
