package patch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"devpilot.io/cli/redact"
)

// ErrNoEligibleChanges is returned when allowlist filtering removes every
// block. Distinct from "no diff found": the text contained diffs, but none
// the caller is permitted to apply.
var ErrNoEligibleChanges = errors.New("no eligible changes found after guardrails filtering")

// snippetLines bounds how much of the sanitized patch an ApplyError carries.
const snippetLines = 60

// ApplyError reports a strict-apply rejection with enough context for a human
// or an upstream retry loop to react.
type ApplyError struct {
	ExitCode int
	Output   string
	Snippet  string
}

func (e *ApplyError) Error() string {
	return fmt.Sprintf(
		"git apply failed (exit %d): %s\n\n--- first %d lines of sanitized patch ---\n%s\n----------------------------------------",
		e.ExitCode, e.Output, snippetLines, e.Snippet,
	)
}

// Applier owns the lifecycle of one apply operation. The allowlist is the
// only state and is read-only.
type Applier struct {
	Allow Allowlist
}

// Apply sanitizes patchText and applies it to the repository at repoRoot via
// `git apply --index`, staging the result so it is ready to commit. The
// operation is all-or-nothing at the document level: git refuses partial
// application, so a failure leaves no inconsistent file content behind.
//
// Callers wanting a bound on the external command supply it through ctx.
func (a Applier) Apply(ctx context.Context, repoRoot, patchText string) error {
	blocks := FilterBlocks(ParseBlocks(patchText), a.Allow)
	if len(blocks) == 0 {
		return ErrNoEligibleChanges
	}
	doc := Assemble(blocks)

	// Process-unique temp name avoids collisions between concurrent
	// operations against different repositories.
	tmp, err := os.CreateTemp("", "devpilot-*.patch")
	if err != nil {
		return fmt.Errorf("creating patch scratch file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.WriteString(doc); err != nil {
		tmp.Close()
		return fmt.Errorf("writing patch scratch file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing patch scratch file: %w", err)
	}

	cmd := exec.CommandContext(ctx, "git", "-C", repoRoot, "apply", "--index", tmpPath)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		exitCode := -1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			exitCode = exitErr.ExitCode()
		}
		return &ApplyError{
			ExitCode: exitCode,
			Output:   redact.Scrub(strings.TrimSpace(stderr.String())),
			Snippet:  firstLines(doc, snippetLines),
		}
	}
	return nil
}

func firstLines(s string, n int) string {
	lines := strings.Split(s, "\n")
	if len(lines) > n {
		lines = lines[:n]
	}
	return strings.Join(lines, "\n")
}
