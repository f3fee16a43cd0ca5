// Package stringutil holds small rune-safe string helpers.
package stringutil

import (
	"strings"
	"unicode"
)

// TruncateRunes shortens s to at most maxRunes runes, appending suffix when
// truncation happens. Safe for multi-byte UTF-8.
func TruncateRunes(s string, maxRunes int, suffix string) string {
	runes := []rune(s)
	if len(runes) <= maxRunes {
		return s
	}
	return strings.TrimSpace(string(runes[:maxRunes])) + suffix
}

// CapitalizeFirst uppercases the first rune of s.
func CapitalizeFirst(s string) string {
	runes := []rune(s)
	if len(runes) == 0 {
		return s
	}
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}
