package llm

import (
	"fmt"
	"strings"
)

// FallbackPlan builds the deterministic, quota-free plan used when the model
// is disabled or its output was unusable: a single patch that creates
// notes/<KEY>.md with a short summary. One task only, so a retry loop cannot
// double-apply it.
func FallbackPlan(issueKey, summary string) Plan {
	key := strings.TrimSpace(issueKey)
	if key == "" {
		key = "TASK"
	}
	if strings.TrimSpace(summary) == "" {
		summary = "Automated change"
	}

	content := fmt.Sprintf(`# %s — %s

This placeholder change was created in fallback mode (no model available).

## Ticket
- Key: %s
- Summary: %s
`, key, summary, key, summary)

	return Plan{
		Kind: PlanSingleDiff,
		Diff: newFilePatch(fmt.Sprintf("notes/%s.md", key), content),
	}
}

// newFilePatch builds a minimal unified diff adding one new file.
func newFilePatch(path, content string) string {
	if !strings.HasSuffix(content, "\n") {
		content += "\n"
	}
	lines := strings.Split(strings.TrimSuffix(content, "\n"), "\n")

	var sb strings.Builder
	fmt.Fprintf(&sb, "diff --git a/%s b/%s\n", path, path)
	sb.WriteString("new file mode 100644\n")
	fmt.Fprintf(&sb, "--- /dev/null\n+++ b/%s\n", path)
	// An omitted count defaults to 1 in hunk headers, so +N,M must spell out
	// the line count or git applies only the first line.
	fmt.Fprintf(&sb, "@@ -0,0 +1,%d @@\n", len(lines))
	for _, ln := range lines {
		sb.WriteString("+")
		sb.WriteString(ln)
		sb.WriteString("\n")
	}
	return sb.String()
}
