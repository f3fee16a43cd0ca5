package cli

import (
	"context"
	"strings"
	"testing"

	"devpilot.io/cli/cmd/devpilot/cli/review"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecideReviewTrivialChange(t *testing.T) {
	changes := []review.FileChange{
		{Path: "notes/CCS-7.md"},
		{Path: "docs/runbook.rst"},
	}
	verdict, note := decideReview(context.Background(), changes, reviewOptions{approveTrivial: true})

	assert.Equal(t, review.VerdictApproved, verdict)
	assert.True(t, strings.HasPrefix(note, "DECISION: APPROVED"), "note must lead with the decision line")
	assert.Contains(t, note, "notes/CCS-7.md")
	assert.Contains(t, note, "docs/runbook.rst")
}

func TestDecideReviewTrivialNotRequested(t *testing.T) {
	t.Setenv("DEVPILOT_DISABLE_LLM", "1")

	// Documentation-only change, but the fast path is opt-in.
	changes := []review.FileChange{{Path: "notes/CCS-7.md"}}
	verdict, _ := decideReview(context.Background(), changes, reviewOptions{})
	assert.Equal(t, review.VerdictSkipped, verdict)
}

func TestDecideReviewModelDisabled(t *testing.T) {
	t.Setenv("DEVPILOT_DISABLE_LLM", "1")

	changes := []review.FileChange{{Path: "web/modules/custom/x/x.module"}}
	verdict, note := decideReview(context.Background(), changes, reviewOptions{approveTrivial: true})

	// Code changes with no model never slip through as an approval.
	assert.Equal(t, review.VerdictSkipped, verdict)
	assert.Equal(t, review.VerdictSkipped, review.ParseVerdict(note))
}

func TestDecideReviewModelUnavailable(t *testing.T) {
	t.Setenv("DEVPILOT_DISABLE_LLM", "")
	t.Setenv("ANTHROPIC_API_KEY", "")

	changes := []review.FileChange{{Path: "web/modules/custom/x/x.module"}}
	verdict, _ := decideReview(context.Background(), changes, reviewOptions{})
	assert.Equal(t, review.VerdictSkipped, verdict)
}

func TestReviewUserPromptTruncatesDiffs(t *testing.T) {
	changes := []review.FileChange{
		{Path: "notes/a.md", Diff: "+short\n"},
		{Path: "composer.lock", Diff: strings.Repeat("x", reviewDiffLimit+100)},
	}
	prompt := reviewUserPrompt(changes)

	assert.Contains(t, prompt, "--- notes/a.md ---")
	assert.Contains(t, prompt, "+short")
	assert.Contains(t, prompt, "[diff truncated]")
	require.Less(t, len(prompt), 2*reviewDiffLimit)
}

func TestReviewCmdRejectsBadIID(t *testing.T) {
	err := runReview(newReviewCmd(), "seventeen", reviewOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "IID")

	err = runReview(newReviewCmd(), "0", reviewOptions{})
	require.Error(t, err)
}
