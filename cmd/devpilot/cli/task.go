package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"devpilot.io/cli/cmd/devpilot/cli/llm"
	"devpilot.io/cli/cmd/devpilot/cli/logging"
	"devpilot.io/cli/cmd/devpilot/cli/manifest"
	"devpilot.io/cli/cmd/devpilot/cli/patch"
	"devpilot.io/cli/cmd/devpilot/cli/paths"
	"devpilot.io/cli/cmd/devpilot/cli/review"
	"devpilot.io/cli/cmd/devpilot/cli/settings"
	"devpilot.io/cli/cmd/devpilot/cli/tracker"
	"devpilot.io/cli/cmd/devpilot/cli/validation"
	"github.com/spf13/cobra"
)

const planSystemPrompt = `You are an automated developer working on a Drupal site.
Given a ticket, respond with either a single unified diff (git format, paths
under the allowed custom directories) or a JSON task list of the form
[{"title": ..., "patch": ..., "apply": true}]. Do not touch vendor or core.`

const manifestSystemPrompt = `Respond with a single JSON object of the form
{"files": [{"path": ..., "content": ...}]} containing the complete content of
every file needed for the change. No prose, no markdown fences.`

// taskOptions carries the flags of the task command.
type taskOptions struct {
	allowRisk    bool
	allowSecrets bool
	noPush       bool
	noMR         bool
	autoMerge    bool
	dryRun       bool
	transition   string
}

func newTaskCmd() *cobra.Command {
	var opts taskOptions

	cmd := &cobra.Command{
		Use:   "task <issue-key>",
		Short: "Process a ticket end to end: plan, apply, commit, merge request",
		Long: `Task fetches the ticket, asks the model for a change plan, applies it
through the guardrails on a feature branch, and opens a merge request.

When the model is unavailable (or DEVPILOT_DISABLE_LLM is set) a notes file
documenting the ticket is committed instead, so the pipeline stays exercisable
without credentials.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTask(cmd, args[0], opts)
		},
	}

	cmd.Flags().BoolVar(&opts.allowRisk, "allow-risk", false, "proceed even when the guardrail verdict is high")
	cmd.Flags().BoolVar(&opts.allowSecrets, "allow-secrets", false, "proceed even when added lines contain detected secrets")
	cmd.Flags().BoolVar(&opts.noPush, "no-push", false, "commit locally without pushing")
	cmd.Flags().BoolVar(&opts.noMR, "no-mr", false, "push without opening a merge request")
	cmd.Flags().BoolVar(&opts.autoMerge, "auto-merge", false, "merge immediately when the review platform supports it")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "plan and assess only, change nothing")
	cmd.Flags().StringVar(&opts.transition, "transition", "", "tracker transition ID to move the ticket after the MR opens")

	return cmd
}

func runTask(cmd *cobra.Command, issueKey string, opts taskOptions) error {
	if err := validation.ValidateIssueKey(issueKey); err != nil {
		return err
	}

	root, err := paths.RepoRoot()
	if err != nil {
		return err
	}
	if err := logging.Init(root); err != nil {
		return err
	}
	defer logging.Close()

	ctx := logging.WithTicket(cmd.Context(), issueKey)
	out := cmd.OutOrStdout()

	cfg, err := settings.Load()
	if err != nil {
		return err
	}
	if !cfg.Enabled {
		fmt.Fprintln(out, "devpilot is disabled in this repository.")
		return nil
	}

	trk, err := newTracker(cfg)
	if err != nil {
		return err
	}

	issue, err := trk.FetchIssue(ctx, issueKey)
	if err != nil {
		return fmt.Errorf("fetching ticket: %w", err)
	}
	logging.Info(ctx, "fetched ticket", "summary", issue.Summary, "status", issue.Status)
	fmt.Fprintf(out, "Ticket: %s - %s\n", issue.Key, issue.Summary)

	plan := buildPlan(ctx, root, issue)

	if opts.dryRun {
		return printPlan(cmd, plan, cfg)
	}

	branch := featureBranchName(issue)
	if err := EnsureFeatureBranch(root, branch); err != nil {
		return err
	}
	fmt.Fprintf(out, "Branch: %s\n", branch)

	riskCfg := cfg.RiskConfig()
	applied, report, err := applyPlan(ctx, cmd, root, plan, riskCfg, opts)
	if err != nil {
		logging.Error(ctx, "apply failed", "error", err.Error())
		return err
	}
	if !applied {
		fmt.Fprintln(out, "No changes to commit.")
		return nil
	}
	lastApplied = true

	commitHash, err := CommitStaged(root, buildCommitMessage(issue))
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Committed %s\n", commitHash[:8])
	logging.Info(ctx, "committed changes", "hash", commitHash, "risk", string(report.Level))

	if opts.noPush {
		return nil
	}
	if err := PushBranch(ctx, root, branch); err != nil {
		return err
	}
	fmt.Fprintf(out, "Pushed %s\n", branch)

	if opts.noMR {
		return nil
	}
	return publishMergeRequest(ctx, cmd, cfg, trk, issue, branch, report, opts)
}

// newTracker builds the issue tracker client from settings and environment.
// The API token only ever comes from JIRA_API_TOKEN.
func newTracker(cfg *settings.DevpilotSettings) (tracker.Tracker, error) {
	if cfg.Tracker.BaseURL == "" {
		return nil, fmt.Errorf("tracker.base_url is not configured in %s", settings.DevpilotSettingsFile)
	}
	token := os.Getenv("JIRA_API_TOKEN")
	if token == "" {
		return nil, errors.New("JIRA_API_TOKEN is not set")
	}
	return tracker.NewJiraClient(cfg.Tracker.BaseURL, cfg.Tracker.User, token), nil
}

// buildPlan asks the model for a change plan, falling back to a documented
// notes-file plan when the model is disabled or fails. The raw model output
// is kept under .devpilot/tmp for inspection.
func buildPlan(ctx context.Context, root string, issue *tracker.Issue) llm.Plan {
	if llm.Disabled() {
		logging.Info(ctx, "model disabled, using fallback plan")
		return llm.FallbackPlan(issue.Key, issue.Summary)
	}

	client, err := llm.NewAnthropicClient()
	if err != nil {
		logging.Warn(ctx, "model unavailable, using fallback plan", "error", err.Error())
		return llm.FallbackPlan(issue.Key, issue.Summary)
	}

	prompt := fmt.Sprintf("Ticket %s: %s\n\n%s", issue.Key, issue.Summary, issue.Description)
	raw, err := client.Complete(ctx, planSystemPrompt, prompt)
	if err != nil {
		logging.Warn(ctx, "model request failed, using fallback plan", "error", err.Error())
		return llm.FallbackPlan(issue.Key, issue.Summary)
	}
	savePlanArtifact(ctx, root, issue.Key, raw)

	plan, err := llm.DecodePlan(raw)
	if err != nil {
		logging.Warn(ctx, "undecodable plan, using fallback", "error", err.Error())
		return llm.FallbackPlan(issue.Key, issue.Summary)
	}
	return plan
}

// savePlanArtifact writes the raw model output under .devpilot/tmp so a
// failed run can be debugged after the fact. Best effort.
func savePlanArtifact(ctx context.Context, root, issueKey, raw string) {
	dir, err := paths.EnsureTmpDir(root)
	if err != nil {
		logging.Warn(ctx, "could not create tmp dir for plan artifact", "error", err.Error())
		return
	}
	path := filepath.Join(dir, strings.ToLower(issueKey)+"-plan.txt")
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		logging.Warn(ctx, "could not save plan artifact", "error", err.Error())
	}
}

// applyPlan pushes every patch in the plan through the guardrails and applies
// it. Returns whether anything was staged, plus the worst risk report seen.
func applyPlan(ctx context.Context, cmd *cobra.Command, root string, plan llm.Plan, riskCfg patch.RiskConfig, opts taskOptions) (bool, patch.RiskReport, error) {
	patches := planPatches(plan)

	var worst patch.RiskReport
	applied := false
	for _, p := range patches {
		report, err := enforceAndApply(ctx, cmd, root, p, riskCfg, opts)
		if err != nil {
			return applied, worst, err
		}
		if report.Level == patch.RiskHigh || worst.Level == "" ||
			(report.Level == patch.RiskMedium && worst.Level == patch.RiskLow) {
			worst = report
		}
		applied = true
	}
	lastRiskLevel = string(worst.Level)
	return applied, worst, nil
}

// planPatches flattens a plan into the ordered patch texts to apply.
func planPatches(plan llm.Plan) []string {
	if plan.Kind == llm.PlanSingleDiff {
		return []string{plan.Diff}
	}
	var patches []string
	for _, t := range plan.Tasks {
		if t.Apply {
			patches = append(patches, t.Patch)
		}
	}
	return patches
}

func enforceAndApply(ctx context.Context, cmd *cobra.Command, root, patchText string, riskCfg patch.RiskConfig, opts taskOptions) (patch.RiskReport, error) {
	if _, err := patch.EnforceSecretGuardrail(patchText, opts.allowSecrets); err != nil {
		return patch.RiskReport{}, err
	}

	report, err := patch.EnforceGuardrails(patchText, riskCfg, opts.allowRisk)
	if err != nil {
		return report, err
	}

	applier := patch.Applier{Allow: patch.NewAllowlist(riskCfg.AllowedPrefixes, nil)}
	err = applier.Apply(ctx, root, patchText)
	if err == nil {
		return report, nil
	}

	var applyErr *patch.ApplyError
	if !errors.As(err, &applyErr) || llm.Disabled() {
		return report, err
	}

	// The diff did not apply cleanly. Ask the model for full file content
	// instead and write it through the manifest guardrails.
	logging.Warn(ctx, "patch failed, falling back to manifest", "error", applyErr.Error())
	fmt.Fprintln(cmd.OutOrStdout(), "Patch did not apply cleanly; requesting full files instead.")

	if err := manifestFallback(ctx, root, riskCfg, patchText, applyErr); err != nil {
		return report, err
	}
	if err := StageAll(root); err != nil {
		return report, err
	}
	return report, nil
}

// manifestFallback asks the model to re-emit the change as complete files and
// writes them under the manifest guardrails.
func manifestFallback(ctx context.Context, root string, riskCfg patch.RiskConfig, patchText string, applyErr *patch.ApplyError) error {
	client, err := llm.NewAnthropicClient()
	if err != nil {
		return fmt.Errorf("patch failed and model unavailable for manifest fallback: %w", err)
	}

	prompt := fmt.Sprintf("This diff failed to apply:\n\n%s\n\nApply error:\n%s\n\nEmit the complete files instead.",
		patchText, applyErr.Snippet)
	raw, err := client.Complete(ctx, manifestSystemPrompt, prompt)
	if err != nil {
		return fmt.Errorf("manifest fallback request: %w", err)
	}

	w := manifest.Writer{
		RepoRoot:    root,
		AllowedDirs: riskCfg.AllowedPrefixes,
		DocRoot:     manifest.DetectDocRoot(root),
	}
	written, err := w.WriteFiles(raw)
	if err != nil {
		return err
	}
	logging.Info(ctx, "manifest fallback wrote files", "count", len(written))
	return nil
}

func publishMergeRequest(ctx context.Context, cmd *cobra.Command, cfg *settings.DevpilotSettings, trk tracker.Tracker, issue *tracker.Issue, branch string, report patch.RiskReport, opts taskOptions) error {
	rev, err := newReviewClient(cfg)
	if err != nil {
		return err
	}

	mr, err := rev.CreateMergeRequest(ctx, review.CreateMROptions{
		SourceBranch: branch,
		TargetBranch: cfg.TargetBranch(),
		Title:        buildMRTitle(issue),
		Description:  buildMRDescription(issue, string(report.Level), report.Files),
		Labels:       []string{"automated"},
	})
	if err != nil {
		return fmt.Errorf("creating merge request: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Merge request: %s\n", mr.WebURL)
	logging.Info(ctx, "opened merge request", "iid", mr.IID, "url", mr.WebURL)

	if err := trk.Comment(ctx, issue.Key, fmt.Sprintf("Merge request opened: %s", mr.WebURL)); err != nil {
		logging.Warn(ctx, "failed to comment on ticket", "error", err.Error())
	}
	if opts.transition != "" {
		if err := trk.Transition(ctx, issue.Key, opts.transition); err != nil {
			logging.Warn(ctx, "failed to transition ticket", "error", err.Error())
		}
	}

	if opts.autoMerge {
		merger, ok := rev.(review.Merger)
		if !ok {
			fmt.Fprintln(cmd.OutOrStdout(), "Review platform does not support merging; leaving the MR open.")
			return nil
		}
		if err := merger.Merge(ctx, mr.IID); err != nil {
			return fmt.Errorf("merging MR %d: %w", mr.IID, err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Merged MR %d.\n", mr.IID)
	}
	return nil
}

func newReviewClient(cfg *settings.DevpilotSettings) (review.Client, error) {
	if cfg.Review.BaseURL == "" || cfg.Review.ProjectID == "" {
		return nil, fmt.Errorf("review.base_url and review.project_id must be configured in %s", settings.DevpilotSettingsFile)
	}
	token := os.Getenv("GITLAB_TOKEN")
	if token == "" {
		return nil, errors.New("GITLAB_TOKEN is not set")
	}
	return review.NewGitLabClient(cfg.Review.BaseURL, cfg.Review.ProjectID, token), nil
}

// printPlan shows the dry-run view: each patch with its guardrail verdict.
func printPlan(cmd *cobra.Command, plan llm.Plan, cfg *settings.DevpilotSettings) error {
	out := cmd.OutOrStdout()
	riskCfg := cfg.RiskConfig()

	patches := planPatches(plan)
	if len(patches) == 0 {
		fmt.Fprintln(out, "Plan contains no applicable patches.")
		return nil
	}
	for i, p := range patches {
		report := patch.Assess(p, riskCfg)
		fmt.Fprintf(out, "--- patch %d/%d ---\n", i+1, len(patches))
		printRiskReport(cmd, report)
	}
	lastRiskLevel = string(patch.Assess(strings.Join(patches, "\n"), riskCfg).Level)
	return nil
}

// featureBranchName derives the branch for a ticket, e.g.
// feature/abc-123-fix-login-redirect.
func featureBranchName(issue *tracker.Issue) string {
	name := "feature/" + strings.ToLower(issue.Key)
	if slug := validation.BranchSlug(issue.Summary); slug != "" {
		name += "-" + slug
	}
	return name
}
