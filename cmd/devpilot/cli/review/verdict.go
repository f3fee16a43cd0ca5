package review

import (
	"regexp"
	"strings"
)

// Verdict is the outcome of an automated merge-request review.
type Verdict string

const (
	VerdictApproved         Verdict = "APPROVED"
	VerdictChangesRequested Verdict = "CHANGES_REQUESTED"
	VerdictSkipped          Verdict = "SKIPPED"
)

// MR labels applied by the automated reviewer.
const (
	LabelAIReviewed       = "ai-reviewed"
	LabelReadyToMerge     = "ready-to-merge"
	LabelChangesRequested = "changes-requested"
)

// Label is the outcome label to put on the MR alongside LabelAIReviewed.
// Anything short of an approval leaves the MR marked for human attention.
func (v Verdict) Label() string {
	if v == VerdictApproved {
		return LabelReadyToMerge
	}
	return LabelChangesRequested
}

var verdictRe = regexp.MustCompile(`(?i)^\s*DECISION:\s*(APPROVED|CHANGES_REQUESTED|SKIPPED)\s*$`)

// ParseVerdict reads the decision from the first line of a review reply. The
// reviewer prompt demands a leading "DECISION: ..." line; a reply that does
// not follow the contract counts as changes requested, never as an approval.
func ParseVerdict(text string) Verdict {
	first, _, _ := strings.Cut(strings.TrimSpace(text), "\n")
	m := verdictRe.FindStringSubmatch(first)
	if m == nil {
		return VerdictChangesRequested
	}
	return Verdict(strings.ToUpper(m[1]))
}

// Paths a change can touch and still count as trivial.
var (
	safePrefixes = []string{"notes/", "docs/"}
	safeExts     = []string{".md", ".markdown", ".rst"}
)

// TrivialChange reports whether every changed file is documentation, so the
// MR can be approved without a model review. An empty change list is not
// trivial; it usually means the changes could not be fetched.
func TrivialChange(changes []FileChange) bool {
	if len(changes) == 0 {
		return false
	}
	for _, c := range changes {
		if !safePath(c.Path) {
			return false
		}
	}
	return true
}

func safePath(path string) bool {
	lp := strings.ToLower(path)
	for _, p := range safePrefixes {
		if strings.HasPrefix(lp, p) {
			return true
		}
	}
	for _, e := range safeExts {
		if strings.HasSuffix(lp, e) {
			return true
		}
	}
	return false
}
