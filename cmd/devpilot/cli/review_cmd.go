package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"devpilot.io/cli/cmd/devpilot/cli/llm"
	"devpilot.io/cli/cmd/devpilot/cli/logging"
	"devpilot.io/cli/cmd/devpilot/cli/paths"
	"devpilot.io/cli/cmd/devpilot/cli/review"
	"devpilot.io/cli/cmd/devpilot/cli/settings"
	"devpilot.io/cli/cmd/devpilot/cli/stringutil"
	"devpilot.io/cli/cmd/devpilot/cli/validation"
	"github.com/spf13/cobra"
)

const reviewSystemPrompt = `You are a strict Drupal code reviewer. Check for:
- Security issues (injection, access checks, unsanitized output).
- Coding standards and dependency injection over static calls.
- Config schema present when adding configuration.
- Reasonable cacheability (contexts/tags/max-age) on renders.
- Minimal, focused diff; no vendor or core changes.

Decide one of: DECISION: APPROVED | CHANGES_REQUESTED.
Output must start with a single line 'DECISION: ...' then short reasoning.`

// Each file's diff in the review prompt is capped so one generated lock file
// cannot crowd out the rest of the change.
const reviewDiffLimit = 4000

// reviewOptions carries the flags of the review command.
type reviewOptions struct {
	approveTrivial bool
	autoMerge      bool
	ticket         string
	transition     string
}

func newReviewCmd() *cobra.Command {
	var opts reviewOptions

	cmd := &cobra.Command{
		Use:   "review <mr-iid>",
		Short: "Review a merge request, label it with the verdict, optionally merge",
		Long: `Review fetches the merge request's changed files, asks the model for a
verdict, posts it as a comment, and labels the MR. Documentation-only changes
can be approved without a model call via --approve-trivial.

A verdict short of an approval marks the MR changes-requested for a human.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReview(cmd, args[0], opts)
		},
	}

	cmd.Flags().BoolVar(&opts.approveTrivial, "approve-trivial", false, "approve documentation-only changes without a model review")
	cmd.Flags().BoolVar(&opts.autoMerge, "auto-merge", false, "merge immediately on approval when the review platform supports it")
	cmd.Flags().StringVar(&opts.ticket, "ticket", "", "tracker issue to comment with the verdict")
	cmd.Flags().StringVar(&opts.transition, "transition", "", "tracker transition ID to apply after a merge (requires --ticket)")

	return cmd
}

func runReview(cmd *cobra.Command, iidArg string, opts reviewOptions) error {
	iid, err := strconv.Atoi(iidArg)
	if err != nil || iid <= 0 {
		return fmt.Errorf("merge request IID must be a positive number, got %q", iidArg)
	}
	if opts.ticket != "" {
		if err := validation.ValidateIssueKey(opts.ticket); err != nil {
			return err
		}
	}

	root, err := paths.RepoRoot()
	if err != nil {
		return err
	}
	if err := logging.Init(root); err != nil {
		return err
	}
	defer logging.Close()

	ctx := cmd.Context()
	if opts.ticket != "" {
		ctx = logging.WithTicket(ctx, opts.ticket)
	}
	out := cmd.OutOrStdout()

	cfg, err := settings.Load()
	if err != nil {
		return err
	}
	if !cfg.Enabled {
		fmt.Fprintln(out, "devpilot is disabled in this repository.")
		return nil
	}

	rev, err := newReviewClient(cfg)
	if err != nil {
		return err
	}

	changes, err := rev.ListChanges(ctx, iid)
	if err != nil {
		return err
	}
	logging.Info(ctx, "fetched MR changes", "iid", iid, "files", len(changes))

	verdict, note := decideReview(ctx, changes, opts)
	fmt.Fprintf(out, "Verdict: %s\n", verdict)

	if err := rev.AddLabels(ctx, iid, []string{review.LabelAIReviewed, verdict.Label()}); err != nil {
		logging.Warn(ctx, "failed to label MR", "error", err.Error())
	}
	if err := rev.Comment(ctx, iid, note); err != nil {
		logging.Warn(ctx, "failed to post review comment", "error", err.Error())
	}
	if opts.ticket != "" {
		commentTicket(ctx, cfg, opts.ticket, fmt.Sprintf("Automated review of MR !%d: %s", iid, verdict))
	}

	if verdict != review.VerdictApproved || !opts.autoMerge {
		return nil
	}

	merger, ok := rev.(review.Merger)
	if !ok {
		fmt.Fprintln(out, "Review platform does not support merging; leaving the MR open.")
		return nil
	}
	if err := merger.Merge(ctx, iid); err != nil {
		return fmt.Errorf("merging MR %d: %w", iid, err)
	}
	fmt.Fprintf(out, "Merged MR %d.\n", iid)
	logging.Info(ctx, "merged MR", "iid", iid)

	if opts.ticket != "" {
		commentTicket(ctx, cfg, opts.ticket, fmt.Sprintf("MR !%d merged after automated review.", iid))
		if opts.transition != "" {
			transitionTicket(ctx, cfg, opts.ticket, opts.transition)
		}
	}
	return nil
}

// decideReview produces the verdict and the comment text backing it. Trivial
// documentation changes short-circuit the model; a disabled or failing model
// yields a skip, never an approval.
func decideReview(ctx context.Context, changes []review.FileChange, opts reviewOptions) (review.Verdict, string) {
	if opts.approveTrivial && review.TrivialChange(changes) {
		var sb strings.Builder
		sb.WriteString("DECISION: APPROVED\nAuto-approved: only changes in safe paths.\nFiles:\n")
		for _, c := range changes {
			sb.WriteString("- " + c.Path + "\n")
		}
		return review.VerdictApproved, strings.TrimRight(sb.String(), "\n")
	}

	if llm.Disabled() {
		return review.VerdictSkipped, "DECISION: SKIPPED\nAutomated review skipped (model disabled)."
	}
	client, err := llm.NewAnthropicClient()
	if err != nil {
		logging.Warn(ctx, "model unavailable for review", "error", err.Error())
		return review.VerdictSkipped, "DECISION: SKIPPED\nAutomated review skipped (model unavailable)."
	}

	raw, err := client.Complete(ctx, reviewSystemPrompt, reviewUserPrompt(changes))
	if err != nil {
		logging.Warn(ctx, "review request failed", "error", err.Error())
		return review.VerdictSkipped, "DECISION: SKIPPED\nAutomated review failed: " + err.Error()
	}

	note := strings.TrimSpace(raw)
	return review.ParseVerdict(note), note
}

// reviewUserPrompt renders the changed files with their diffs for the model.
func reviewUserPrompt(changes []review.FileChange) string {
	var sb strings.Builder
	sb.WriteString("Review this merge request.\n\nChanged files:\n")
	for _, c := range changes {
		fmt.Fprintf(&sb, "\n--- %s ---\n", c.Path)
		sb.WriteString(stringutil.TruncateRunes(c.Diff, reviewDiffLimit, "\n[diff truncated]"))
		sb.WriteString("\n")
	}
	return sb.String()
}

// commentTicket and transitionTicket are best effort; a tracker hiccup must
// not fail a review that already landed on the MR.
func commentTicket(ctx context.Context, cfg *settings.DevpilotSettings, key, body string) {
	trk, err := newTracker(cfg)
	if err != nil {
		logging.Warn(ctx, "tracker unavailable", "error", err.Error())
		return
	}
	if err := trk.Comment(ctx, key, body); err != nil {
		logging.Warn(ctx, "failed to comment on ticket", "error", err.Error())
	}
}

func transitionTicket(ctx context.Context, cfg *settings.DevpilotSettings, key, transitionID string) {
	trk, err := newTracker(cfg)
	if err != nil {
		logging.Warn(ctx, "tracker unavailable", "error", err.Error())
		return
	}
	if err := trk.Transition(ctx, key, transitionID); err != nil {
		logging.Warn(ctx, "failed to transition ticket", "error", err.Error())
	}
}
