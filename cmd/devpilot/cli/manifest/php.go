package manifest

import (
	"regexp"
	"strings"
)

var (
	// phpVarEscapeRe matches a stray backslash before a PHP variable, a
	// leftover from over-eager JSON escaping: \$var -> $var.
	phpVarEscapeRe = regexp.MustCompile(`\\(\$[A-Za-z_][A-Za-z0-9_]*)`)

	// declareStmtRe matches declare(...) statements, which do not belong in
	// Drupal module files but models add them anyway.
	declareStmtRe = regexp.MustCompile(`(?m)^\s*declare\s*\([^)]*\)\s*;\s*$`)

	// minPhpDefineRe matches the hallucinated DRUPAL_MINIMUM_PHP define.
	minPhpDefineRe = regexp.MustCompile(`(?m)^\s*define\s*\(\s*['"]DRUPAL_MINIMUM_PHP['"][^)]*\)\s*;\s*$`)

	excessBlanksRe = regexp.MustCompile(`\n{3,}`)
)

// SanitizePHP undoes the escaping and boilerplate mistakes models make when
// emitting PHP through a JSON string: stray backslashes before variables,
// declare() statements, the DRUPAL_MINIMUM_PHP define, and the accidental
// `\t(` produced by a mangled translation call. Line endings are normalized,
// runs of blank lines collapsed, and exactly one trailing newline ensured.
func SanitizePHP(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")

	s = phpVarEscapeRe.ReplaceAllString(s, "$1")
	s = declareStmtRe.ReplaceAllString(s, "")
	s = minPhpDefineRe.ReplaceAllString(s, "")
	s = strings.ReplaceAll(s, `\t(`, "t(")

	s = excessBlanksRe.ReplaceAllString(s, "\n\n")
	return strings.Trim(s, "\n") + "\n"
}
