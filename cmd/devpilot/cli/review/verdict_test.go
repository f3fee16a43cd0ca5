package review

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseVerdict(t *testing.T) {
	tests := []struct {
		name string
		text string
		want Verdict
	}{
		{"approved", "DECISION: APPROVED\nLooks fine.", VerdictApproved},
		{"changes requested", "DECISION: CHANGES_REQUESTED\nMissing schema.", VerdictChangesRequested},
		{"skipped", "DECISION: SKIPPED\nNo model available.", VerdictSkipped},
		{"case insensitive", "decision: approved", VerdictApproved},
		{"leading whitespace", "  DECISION: APPROVED", VerdictApproved},
		{"prose falls back to changes", "I think this is fine overall.", VerdictChangesRequested},
		{"decision buried past line one", "Great work!\nDECISION: APPROVED", VerdictChangesRequested},
		{"trailing junk on the line", "DECISION: APPROVED because reasons", VerdictChangesRequested},
		{"empty", "", VerdictChangesRequested},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseVerdict(tt.text))
		})
	}
}

func TestVerdictLabel(t *testing.T) {
	assert.Equal(t, LabelReadyToMerge, VerdictApproved.Label())
	assert.Equal(t, LabelChangesRequested, VerdictChangesRequested.Label())
	assert.Equal(t, LabelChangesRequested, VerdictSkipped.Label())
}

func TestTrivialChange(t *testing.T) {
	tests := []struct {
		name    string
		changes []FileChange
		want    bool
	}{
		{"all notes", []FileChange{{Path: "notes/a.md"}, {Path: "notes/b.md"}}, true},
		{"docs prefix", []FileChange{{Path: "docs/install.txt"}}, true},
		{"markdown anywhere", []FileChange{{Path: "web/modules/custom/x/README.md"}}, true},
		{"rst extension", []FileChange{{Path: "api.rst"}}, true},
		{"uppercase path", []FileChange{{Path: "NOTES/A.MD"}}, true},
		{"mixed safe and code", []FileChange{{Path: "notes/a.md"}, {Path: "web/modules/custom/x/x.module"}}, false},
		{"php only", []FileChange{{Path: "web/modules/custom/x/x.module"}}, false},
		{"empty change list", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, TrivialChange(tt.changes))
		})
	}
}
