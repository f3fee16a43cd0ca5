package patch

import (
	"fmt"
	"strings"
	"sync"

	"github.com/zricethezav/gitleaks/v8/detect"
)

var (
	secretDetector     *detect.Detector
	secretDetectorOnce sync.Once
)

func secretsDetector() *detect.Detector {
	secretDetectorOnce.Do(func() {
		d, err := detect.NewDetectorDefaultConfig()
		if err != nil {
			return
		}
		secretDetector = d
	})
	return secretDetector
}

// SecretFinding describes a suspected credential introduced by a patch.
type SecretFinding struct {
	RuleID string
	Secret string
}

// ScanAddedLines runs the gitleaks ruleset over the lines a patch would add.
// Only added content is scanned; context and removed lines cannot introduce a
// new credential.
func ScanAddedLines(patchText string) []SecretFinding {
	d := secretsDetector()
	if d == nil {
		return nil
	}

	var added []string
	for _, line := range strings.Split(patchText, "\n") {
		if strings.HasPrefix(line, "+") && !strings.HasPrefix(line, "+++ ") {
			added = append(added, strings.TrimPrefix(line, "+"))
		}
	}
	if len(added) == 0 {
		return nil
	}

	var findings []SecretFinding
	for _, f := range d.DetectString(strings.Join(added, "\n")) {
		if f.Secret == "" {
			continue
		}
		findings = append(findings, SecretFinding{RuleID: f.RuleID, Secret: f.Secret})
	}
	return findings
}

// EnforceSecretGuardrail rejects a patch whose added lines contain detectable
// credentials unless the caller has explicitly opted to allow them. The error
// names the triggered rules, never the secrets themselves.
func EnforceSecretGuardrail(patchText string, allowSecrets bool) ([]SecretFinding, error) {
	findings := ScanAddedLines(patchText)
	if len(findings) > 0 && !allowSecrets {
		rules := make([]string, 0, len(findings))
		for _, f := range findings {
			rules = append(rules, f.RuleID)
		}
		return findings, fmt.Errorf("patch rejected: added lines match secret rules [%s]", strings.Join(rules, ", "))
	}
	return findings, nil
}
