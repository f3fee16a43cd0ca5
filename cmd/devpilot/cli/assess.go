package cli

import (
	"fmt"
	"strings"

	"devpilot.io/cli/cmd/devpilot/cli/patch"
	"devpilot.io/cli/cmd/devpilot/cli/settings"
	"github.com/spf13/cobra"
)

func newAssessCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "assess [patch-file]",
		Short: "Assess the risk of a unified diff without applying it",
		Long: `Assess parses a unified diff and reports the guardrail verdict:
which files change, how many lines are added and removed, and whether any
paths are blocked, out of scope, or high risk.

Reads from stdin when no file is given.`,
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

			cfg := riskConfigFromSettings()
			report := patch.Assess(patchText, cfg)
			lastRiskLevel = string(report.Level)

			printRiskReport(cmd, report)
			return nil
		},
	}
	return cmd
}

// riskConfigFromSettings loads the guardrail config, falling back to defaults
// when settings cannot be read (e.g. outside a repository).
func riskConfigFromSettings() patch.RiskConfig {
	s, err := settings.Load()
	if err != nil {
		return patch.DefaultRiskConfig()
	}
	return s.RiskConfig()
}

func printRiskReport(cmd *cobra.Command, r patch.RiskReport) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Risk level: %s\n", r.Level)
	fmt.Fprintf(out, "Reason:     %s\n", r.Reason)
	fmt.Fprintf(out, "Files:      %d (+%d/-%d lines)\n", len(r.Files), r.TotalAdded, r.TotalRemoved)
	if len(r.Blocked) > 0 {
		fmt.Fprintf(out, "Blocked:    %s\n", strings.Join(r.Blocked, ", "))
	}
	if len(r.OutOfScope) > 0 {
		fmt.Fprintf(out, "Out of scope: %s\n", strings.Join(r.OutOfScope, ", "))
	}
	if len(r.HighRisk) > 0 {
		fmt.Fprintf(out, "High risk:  %s\n", strings.Join(r.HighRisk, ", "))
	}
	for _, f := range r.Files {
		fmt.Fprintf(out, "  %s\n", f)
	}
}
