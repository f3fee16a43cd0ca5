package cli

import (
	"fmt"

	"devpilot.io/cli/cmd/devpilot/cli/patch"
	"devpilot.io/cli/cmd/devpilot/cli/paths"
	"github.com/spf13/cobra"
)

func newApplyCmd() *cobra.Command {
	var repoFlag string
	var allowRisk bool
	var allowSecrets bool
	var allowDirs []string
	var allowSuffixes []string

	cmd := &cobra.Command{
		Use:   "apply [patch-file]",
		Short: "Apply a unified diff through the guardrails",
		Long: `Apply filters a unified diff against the path allowlist, enforces the
risk and secret guardrails, and stages the surviving changes with
'git apply --index'.

Reads from stdin when no file is given. High-risk patches prompt for
confirmation on a terminal; use --allow-risk in pipelines.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) == 1 {
				path = args[0]
			}
			patchText, err := readInput(path)
			if err != nil {
				return err
			}

			repoRoot := repoFlag
			if repoRoot == "" {
				repoRoot, err = paths.RepoRoot()
				if err != nil {
					return err
				}
			}

			if _, err := patch.EnforceSecretGuardrail(patchText, allowSecrets); err != nil {
				return err
			}

			cfg := riskConfigFromSettings()
			report := patch.Assess(patchText, cfg)
			lastRiskLevel = string(report.Level)

			if report.Level == patch.RiskHigh && !allowRisk {
				if !isInteractive() {
					_, err := patch.EnforceGuardrails(patchText, cfg, false)
					return err
				}
				ok, err := confirmProceed(
					"Apply high-risk patch?",
					report.Reason,
				)
				if err != nil {
					return err
				}
				if !ok {
					fmt.Fprintln(cmd.OutOrStdout(), "Aborted.")
					return nil
				}
			}

			dirs := allowDirs
			if len(dirs) == 0 {
				dirs = cfg.AllowedPrefixes
			}
			applier := patch.Applier{Allow: patch.NewAllowlist(dirs, allowSuffixes)}
			if err := applier.Apply(cmd.Context(), repoRoot, patchText); err != nil {
				return err
			}

			lastApplied = true
			fmt.Fprintln(cmd.OutOrStdout(), "Patch applied and staged.")
			return nil
		},
	}

	cmd.Flags().StringVar(&repoFlag, "repo", "", "repository root (default: discovered via git)")
	cmd.Flags().BoolVar(&allowRisk, "allow-risk", false, "apply even when the guardrail verdict is high")
	cmd.Flags().BoolVar(&allowSecrets, "allow-secrets", false, "apply even when added lines contain detected secrets")
	cmd.Flags().StringArrayVar(&allowDirs, "allow-dir", nil, "directory prefix to allow (repeatable; default: configured allowed prefixes)")
	cmd.Flags().StringArrayVar(&allowSuffixes, "allow-suffix", nil, "file suffix to allow (repeatable)")

	return cmd
}
