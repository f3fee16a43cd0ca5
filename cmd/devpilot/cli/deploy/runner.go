package deploy

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os/exec"
	"strings"
	"time"

	"github.com/creack/pty"
)

// StepResult carries the output of one executed step.
type StepResult struct {
	Output string
	OK     bool
}

// Runner executes QA steps locally (typically on the deploy host itself).
// Command steps run through a pty so tools that colorize or paginate based on
// TTY detection behave the way they do for an operator.
type Runner struct {
	// WorkDir is the directory commands run in (the site checkout).
	WorkDir string
	// HTTPClient is used for probe steps; nil gets a default with a timeout.
	HTTPClient *http.Client
}

// Run executes a single step. Command failures are returned as a non-OK
// result with output attached, not as an error; errors are reserved for
// failures to execute at all.
func (r *Runner) Run(ctx context.Context, step Step) (StepResult, error) {
	switch s := step.(type) {
	case DrushStep, PhpEvalStep, ShellStep:
		return r.runArgv(ctx, stepArgv(step))
	case HttpGetStep:
		return r.probe(ctx, s)
	default:
		return StepResult{}, fmt.Errorf("unhandled step type %T", step)
	}
}

// stepArgv maps a command step onto the argv to execute. PHP snippets go to
// drush as a single literal argument: routing them through a shell would
// require re-quoting code that itself contains quotes and newlines.
func stepArgv(step Step) []string {
	switch s := step.(type) {
	case DrushStep:
		return []string{"sh", "-c", "drush " + s.Command}
	case PhpEvalStep:
		return []string{"drush", "php:eval", s.Code}
	case ShellStep:
		return []string{"sh", "-c", s.Command}
	}
	return nil
}

func (r *Runner) runArgv(ctx context.Context, argv []string) (StepResult, error) {
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = r.WorkDir
	label := strings.Join(argv, " ")

	f, err := pty.Start(cmd)
	if err != nil {
		return StepResult{}, fmt.Errorf("starting %q: %w", label, err)
	}
	defer f.Close()

	var buf bytes.Buffer
	// The pty read side returns an error when the child closes the slave;
	// that is the normal EOF condition on Linux.
	_, _ = io.Copy(&buf, f)

	err = cmd.Wait()
	result := StepResult{Output: buf.String(), OK: err == nil}
	var exitErr *exec.ExitError
	if err != nil && !errors.As(err, &exitErr) {
		return result, fmt.Errorf("running %q: %w", label, err)
	}
	return result, nil
}

func (r *Runner) probe(ctx context.Context, s HttpGetStep) (StepResult, error) {
	client := r.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL, nil)
	if err != nil {
		return StepResult{}, fmt.Errorf("building probe request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return StepResult{}, fmt.Errorf("probing %s: %w", s.URL, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return StepResult{}, fmt.Errorf("reading probe response: %w", err)
	}

	ok := resp.StatusCode == s.ExpectStatus
	if ok && s.ExpectSubstring != "" {
		ok = strings.Contains(string(body), s.ExpectSubstring)
	}
	output := fmt.Sprintf("GET %s -> %d (%d bytes)", s.URL, resp.StatusCode, len(body))
	return StepResult{Output: output, OK: ok}, nil
}
