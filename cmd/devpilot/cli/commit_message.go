package cli

import (
	"fmt"
	"strings"

	"devpilot.io/cli/cmd/devpilot/cli/stringutil"
	"devpilot.io/cli/cmd/devpilot/cli/tracker"
)

// buildCommitMessage creates a conventional-commit style message from the
// ticket. The subject line is capped at 72 characters.
func buildCommitMessage(issue *tracker.Issue) string {
	summary := cleanSummary(issue.Summary)
	if summary == "" {
		summary = "automated changes"
	}

	subject := fmt.Sprintf("feat(%s): %s", strings.ToLower(issue.Key), summary)
	subject = stringutil.TruncateRunes(subject, 72, "")

	body := strings.TrimSpace(issue.Description)
	if body == "" {
		return subject
	}
	body = stringutil.TruncateRunes(body, 500, "...")
	return subject + "\n\n" + body
}

// buildMRTitle produces the merge request title for a ticket.
func buildMRTitle(issue *tracker.Issue) string {
	summary := cleanSummary(issue.Summary)
	if summary == "" {
		summary = "automated changes"
	}
	return stringutil.TruncateRunes(fmt.Sprintf("%s: %s", issue.Key, stringutil.CapitalizeFirst(summary)), 120, "")
}

// buildMRDescription produces the merge request body, linking back to the
// ticket and noting the guardrail verdict.
func buildMRDescription(issue *tracker.Issue, riskLevel string, files []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Automated change for %s.\n\n", issue.Key)
	if desc := strings.TrimSpace(issue.Description); desc != "" {
		fmt.Fprintf(&b, "%s\n\n", stringutil.TruncateRunes(desc, 1000, "..."))
	}
	if riskLevel != "" {
		fmt.Fprintf(&b, "Guardrail verdict: %s\n", riskLevel)
	}
	if len(files) > 0 {
		b.WriteString("\nChanged files:\n")
		for _, f := range files {
			fmt.Fprintf(&b, "- %s\n", f)
		}
	}
	return b.String()
}

// cleanSummary strips ticket prefixes and noise from a summary line.
func cleanSummary(summary string) string {
	cleaned := strings.TrimSpace(summary)

	prefixes := []string{
		"[Bug] ",
		"[Task] ",
		"[Feature] ",
		"Bug: ",
		"Task: ",
		"Feature: ",
	}

	for {
		found := false
		for _, prefix := range prefixes {
			if strings.HasPrefix(cleaned, prefix) {
				cleaned = strings.TrimPrefix(cleaned, prefix)
				found = true
				break
			}
		}
		if !found {
			break
		}
	}

	cleaned = strings.TrimSuffix(cleaned, ".")
	return strings.TrimSpace(cleaned)
}
