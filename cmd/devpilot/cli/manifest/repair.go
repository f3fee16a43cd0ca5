package manifest

import "strings"

// validEscapes is the set of characters allowed after a backslash inside a
// JSON string literal.
const validEscapes = `"\/bfnrtu`

// repairStringEscapes doubles any backslash inside a string literal that is
// followed by a character outside the valid JSON escape set, turning the
// common unescaped-path mistake (`"\Drupal\Core"`) into a parseable literal
// backslash.
//
// This is a heuristic, not a grammar fix: content that legitimately contains
// a lone backslash before a letter for some other reason gets a doubled
// backslash too. Best-effort recovery with a documented false-positive risk.
func repairStringEscapes(raw string) string {
	var out strings.Builder
	out.Grow(len(raw))
	inString := false
	escaped := false
	for i := 0; i < len(raw); i++ {
		ch := raw[i]
		if !inString {
			if ch == '"' {
				inString = true
			}
			out.WriteByte(ch)
			continue
		}
		if escaped {
			if !strings.ContainsRune(validEscapes, rune(ch)) {
				out.WriteByte('\\')
			}
			out.WriteByte(ch)
			escaped = false
			continue
		}
		if ch == '\\' {
			escaped = true
			out.WriteByte(ch)
			continue
		}
		if ch == '"' {
			inString = false
		}
		out.WriteByte(ch)
	}
	return out.String()
}

// escapeControlChars replaces literal newline, carriage-return, and tab
// characters found inside string literals with their two-character escape
// forms. Models regularly paste raw file bodies into JSON strings.
func escapeControlChars(raw string) string {
	var out strings.Builder
	out.Grow(len(raw))
	inString := false
	escaped := false
	for i := 0; i < len(raw); i++ {
		ch := raw[i]
		if !inString {
			out.WriteByte(ch)
			if ch == '"' {
				inString = true
			}
			continue
		}
		if escaped {
			out.WriteByte(ch)
			escaped = false
			continue
		}
		switch ch {
		case '\\':
			escaped = true
			out.WriteByte(ch)
		case '"':
			inString = false
			out.WriteByte(ch)
		case '\n':
			out.WriteString(`\n`)
		case '\r':
			out.WriteString(`\r`)
		case '\t':
			out.WriteString(`\t`)
		default:
			out.WriteByte(ch)
		}
	}
	return out.String()
}
