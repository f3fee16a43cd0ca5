// Package validation holds input validators shared by the CLI commands.
package validation

import (
	"fmt"
	"regexp"
	"strings"
)

// issueKeyRe matches Jira-style issue keys like PROJ-123.
var issueKeyRe = regexp.MustCompile(`^[A-Z][A-Z0-9]+-\d+$`)

// branchComponentRe matches the characters we allow in branch name components
// derived from user input.
var branchComponentRe = regexp.MustCompile(`[^a-z0-9-]+`)

// ValidateIssueKey checks that key looks like an issue tracker key
// (uppercase project prefix, dash, number).
func ValidateIssueKey(key string) error {
	if key == "" {
		return fmt.Errorf("issue key is required")
	}
	if !issueKeyRe.MatchString(key) {
		return fmt.Errorf("invalid issue key %q (expected a form like PROJ-123)", key)
	}
	return nil
}

// BranchSlug converts free-form text into a branch-safe slug: lowercased,
// non-alphanumerics collapsed to single dashes, trimmed, capped at 40 chars.
func BranchSlug(text string) string {
	s := strings.ToLower(text)
	s = branchComponentRe.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")
	if len(s) > 40 {
		s = strings.Trim(s[:40], "-")
	}
	return s
}
