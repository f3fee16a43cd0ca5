package patch

import (
	"fmt"
	"reflect"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func diffFor(path string, addedLines int) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "diff --git a/%s b/%s\n", path, path)
	fmt.Fprintf(&sb, "--- a/%s\n+++ b/%s\n", path, path)
	fmt.Fprintf(&sb, "@@ -0,0 +%d @@\n", addedLines)
	for i := 0; i < addedLines; i++ {
		fmt.Fprintf(&sb, "+line %d\n", i)
	}
	return sb.String()
}

func TestAssessLowRisk(t *testing.T) {
	report := Assess(diffFor("notes/CCS-7.md", 5), DefaultRiskConfig())

	assert.Equal(t, RiskLow, report.Level)
	assert.Equal(t, "OK", report.Reason)
	assert.Equal(t, []string{"notes/CCS-7.md"}, report.Files)
	assert.Equal(t, 5, report.TotalAdded)
	assert.Equal(t, 0, report.TotalRemoved)
	assert.Empty(t, report.Blocked)
	assert.Empty(t, report.OutOfScope)
}

func TestAssessBlockedPathIsHigh(t *testing.T) {
	report := Assess(diffFor("vendor/autoload.php", 2), DefaultRiskConfig())

	assert.Equal(t, RiskHigh, report.Level)
	assert.Contains(t, report.Reason, "blocked paths")
	assert.Equal(t, []string{"vendor/autoload.php"}, report.Blocked)
}

func TestAssessHighRiskFileRegardlessOfSize(t *testing.T) {
	// A one-line change to composer.lock is still high.
	report := Assess(diffFor("composer.lock", 1), DefaultRiskConfig())

	assert.Equal(t, RiskHigh, report.Level)
	assert.Contains(t, report.Reason, "high-risk files")
	assert.Contains(t, report.HighRisk, "composer.lock")
}

func TestAssessSizeLimits(t *testing.T) {
	cfg := DefaultRiskConfig()

	t.Run("too many files", func(t *testing.T) {
		var sb strings.Builder
		for i := 0; i < 35; i++ {
			sb.WriteString(diffFor(fmt.Sprintf("notes/f%d.md", i), 1))
		}
		report := Assess(sb.String(), cfg)
		assert.Equal(t, RiskHigh, report.Level)
		assert.Contains(t, report.Reason, "size limit exceeded")
	})

	t.Run("too many lines", func(t *testing.T) {
		report := Assess(diffFor("notes/big.md", 2500), cfg)
		assert.Equal(t, RiskHigh, report.Level)
		assert.Contains(t, report.Reason, "size limit exceeded")
	})
}

func TestAssessOutOfScopeIsMedium(t *testing.T) {
	report := Assess(diffFor("scripts/deploy.sh", 3), DefaultRiskConfig())

	assert.Equal(t, RiskMedium, report.Level)
	assert.Contains(t, report.Reason, "out-of-scope paths")
	assert.Equal(t, []string{"scripts/deploy.sh"}, report.OutOfScope)
}

func TestAssessNoHeadersIsLowNotError(t *testing.T) {
	report := Assess("just prose, no structure", DefaultRiskConfig())

	assert.Equal(t, RiskLow, report.Level)
	assert.Contains(t, report.Reason, "no file headers found")
	assert.Empty(t, report.Files)
}

func TestAssessReasonConcatenatesAllConditions(t *testing.T) {
	// Blocked path AND high-risk file: both fragments appear.
	text := diffFor("vendor/autoload.php", 1) + diffFor("composer.lock", 1)
	report := Assess(text, DefaultRiskConfig())

	assert.Contains(t, report.Reason, "blocked paths")
	assert.Contains(t, report.Reason, "high-risk files")
}

func TestAssessReasonTruncatesExamples(t *testing.T) {
	var sb strings.Builder
	for i := 0; i < 5; i++ {
		sb.WriteString(diffFor(fmt.Sprintf("vendor/lib%d.php", i), 1))
	}
	report := Assess(sb.String(), DefaultRiskConfig())

	assert.Contains(t, report.Reason, "...")
	// Only three examples named.
	assert.NotContains(t, report.Reason, "vendor/lib3.php")
}

func TestAssessIdempotent(t *testing.T) {
	text := diffFor("modules/custom/x/x.module", 10) + diffFor("scripts/other.sh", 2)
	first := Assess(text, DefaultRiskConfig())
	second := Assess(text, DefaultRiskConfig())
	require.True(t, reflect.DeepEqual(first, second), "assessing twice must yield identical reports")
}

func TestEnforceGuardrails(t *testing.T) {
	cfg := DefaultRiskConfig()

	t.Run("high without override is rejected", func(t *testing.T) {
		_, err := EnforceGuardrails(diffFor("composer.lock", 1), cfg, false)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "rejected by guardrails")
	})

	t.Run("high with override passes", func(t *testing.T) {
		report, err := EnforceGuardrails(diffFor("composer.lock", 1), cfg, true)
		require.NoError(t, err)
		assert.Equal(t, RiskHigh, report.Level)
	})

	t.Run("medium is advisory only", func(t *testing.T) {
		report, err := EnforceGuardrails(diffFor("scripts/x.sh", 1), cfg, false)
		require.NoError(t, err)
		assert.Equal(t, RiskMedium, report.Level)
	})
}
