package patch

import (
	"fmt"
	"strings"
)

// RiskLevel classifies a patch before it is allowed anywhere near a working tree.
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// RiskConfig holds every threshold and allow/deny list used by the assessor.
// It is passed in explicitly so that risk computation is a pure function of
// (patch text, config) and directly testable.
type RiskConfig struct {
	// AllowedPrefixes bound where changes are in scope. A changed path outside
	// every prefix raises the level to medium.
	AllowedPrefixes []string
	// BlockedPrefixes force high risk on any match.
	BlockedPrefixes []string
	// HighRiskFiles are exact filenames that force high risk (lockfiles, CI config).
	HighRiskFiles []string
	// MaxChangedFiles and MaxTotalLines are size thresholds; exceeding either
	// forces high risk.
	MaxChangedFiles int
	MaxTotalLines   int
}

// DefaultRiskConfig mirrors the production defaults for a Drupal-style tree.
func DefaultRiskConfig() RiskConfig {
	return RiskConfig{
		AllowedPrefixes: []string{"modules/custom/", "themes/custom/", "profiles/custom/", "notes/", "server/", "ui/"},
		BlockedPrefixes: []string{"vendor/", "core/", ".git/"},
		HighRiskFiles: []string{
			".gitlab-ci.yml",
			"composer.json",
			"composer.lock",
			"package.json",
			"pnpm-lock.yaml",
			"yarn.lock",
		},
		MaxChangedFiles: 30,
		MaxTotalLines:   2000,
	}
}

// RiskReport is the immutable result of one assessment.
type RiskReport struct {
	Files        []string
	TotalAdded   int
	TotalRemoved int
	Blocked      []string
	OutOfScope   []string
	HighRisk     []string
	Level        RiskLevel
	Reason       string
}

// Assess computes a risk report for raw patch text without mutating anything.
// The level is written in a fixed order (blocked, high-risk files, size,
// scope, then the no-headers reset); later writes win, which is the contract.
func Assess(patchText string, cfg RiskConfig) RiskReport {
	files := changedPaths(patchText)
	added, removed := countAddedRemoved(patchText)

	var blocked, outOfScope, highRisk []string
	for _, f := range files {
		if matchesPrefix(f, cfg.BlockedPrefixes) {
			blocked = append(blocked, f)
		}
		if !matchesPrefix(f, cfg.AllowedPrefixes) {
			outOfScope = append(outOfScope, f)
		}
		if containsString(cfg.HighRiskFiles, f) {
			highRisk = append(highRisk, f)
		}
	}

	level := RiskLow
	var reasons []string

	if len(blocked) > 0 {
		level = RiskHigh
		reasons = append(reasons, "blocked paths: "+samplePaths(blocked))
	}
	if len(highRisk) > 0 {
		level = RiskHigh
		reasons = append(reasons, "high-risk files: "+samplePaths(highRisk))
	}
	if len(files) > cfg.MaxChangedFiles || added+removed > cfg.MaxTotalLines {
		level = RiskHigh
		reasons = append(reasons, fmt.Sprintf("size limit exceeded (files=%d, lines=%d)", len(files), added+removed))
	}
	if level != RiskHigh && len(outOfScope) > 0 {
		level = RiskMedium
		reasons = append(reasons, "out-of-scope paths: "+samplePaths(outOfScope))
	}
	// Malformed input is not assumed dangerous: no headers means there is
	// nothing to apply, which the caller handles separately.
	if len(files) == 0 {
		level = RiskLow
		reasons = append(reasons, "no file headers found")
	}

	reason := strings.Join(reasons, "; ")
	if reason == "" {
		reason = "OK"
	}

	return RiskReport{
		Files:        files,
		TotalAdded:   added,
		TotalRemoved: removed,
		Blocked:      blocked,
		OutOfScope:   outOfScope,
		HighRisk:     highRisk,
		Level:        level,
		Reason:       reason,
	}
}

// EnforceGuardrails assesses the patch and rejects it when the level is high,
// unless the caller has explicitly opted in to the risk. The report is
// returned in both cases for logging.
func EnforceGuardrails(patchText string, cfg RiskConfig, allowRisk bool) (RiskReport, error) {
	report := Assess(patchText, cfg)
	if report.Level == RiskHigh && !allowRisk {
		return report, fmt.Errorf("patch rejected by guardrails: %s", report.Reason)
	}
	return report, nil
}

func changedPaths(patchText string) []string {
	var paths []string
	for _, line := range strings.Split(patchText, "\n") {
		m := diffStartRe.FindStringSubmatch(strings.TrimSpace(line))
		if m != nil {
			paths = append(paths, m[2])
		}
	}
	return paths
}

func countAddedRemoved(patchText string) (added, removed int) {
	for _, line := range strings.Split(patchText, "\n") {
		switch {
		case strings.HasPrefix(line, "+++ "), strings.HasPrefix(line, "--- "):
			// file headers, not content
		case strings.HasPrefix(line, "+"):
			added++
		case strings.HasPrefix(line, "-"):
			removed++
		}
	}
	return added, removed
}

func matchesPrefix(path string, prefixes []string) bool {
	path = strings.TrimLeft(path, "./")
	for _, p := range prefixes {
		if p != "" && strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// samplePaths renders up to three example paths plus a truncation marker.
func samplePaths(paths []string) string {
	if len(paths) <= 3 {
		return strings.Join(paths, ", ")
	}
	return strings.Join(paths[:3], ", ") + ", ..."
}
