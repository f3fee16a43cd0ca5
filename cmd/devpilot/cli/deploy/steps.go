// Package deploy runs post-merge QA steps against a deployed site: drush
// commands, one-off PHP evaluation, shell commands, and HTTP smoke probes.
// Step definitions arrive as loosely-typed YAML (often model-generated) and
// are decoded once, at this boundary, into a closed set of variant types;
// nothing downstream inspects raw maps.
package deploy

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Step is the closed union of QA step variants.
type Step interface {
	// Describe renders a short human-readable label for logs and reports.
	Describe() string
}

// DrushStep runs a drush command against the site.
type DrushStep struct {
	Command string
}

func (s DrushStep) Describe() string { return "drush " + s.Command }

// PhpEvalStep evaluates a PHP snippet via drush php:eval.
type PhpEvalStep struct {
	Code string
}

func (s PhpEvalStep) Describe() string { return "php:eval" }

// ShellStep runs an arbitrary shell command.
type ShellStep struct {
	Command string
}

func (s ShellStep) Describe() string { return "shell: " + s.Command }

// HttpGetStep probes a URL and asserts on status and body content.
type HttpGetStep struct {
	URL             string
	ExpectStatus    int
	ExpectSubstring string
}

func (s HttpGetStep) Describe() string { return "http get " + s.URL }

// rawStep is the loose YAML shape before variant decoding.
type rawStep struct {
	Type            string `yaml:"type"`
	Command         string `yaml:"command"`
	Code            string `yaml:"code"`
	URL             string `yaml:"url"`
	ExpectStatus    int    `yaml:"expect_status"`
	ExpectSubstring string `yaml:"expect_substring"`
}

// DecodeSteps parses a YAML step list into typed variants. Unknown step types
// and missing required fields fail decoding; a half-understood QA plan must
// not run.
func DecodeSteps(data []byte) ([]Step, error) {
	var raw []rawStep
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing step list: %w", err)
	}

	steps := make([]Step, 0, len(raw))
	for i, r := range raw {
		switch r.Type {
		case "drush":
			if r.Command == "" {
				return nil, fmt.Errorf("step %d: drush step requires a command", i+1)
			}
			steps = append(steps, DrushStep{Command: r.Command})
		case "php_eval":
			if r.Code == "" {
				return nil, fmt.Errorf("step %d: php_eval step requires code", i+1)
			}
			steps = append(steps, PhpEvalStep{Code: r.Code})
		case "shell":
			if r.Command == "" {
				return nil, fmt.Errorf("step %d: shell step requires a command", i+1)
			}
			steps = append(steps, ShellStep{Command: r.Command})
		case "http_get":
			if r.URL == "" {
				return nil, fmt.Errorf("step %d: http_get step requires a url", i+1)
			}
			status := r.ExpectStatus
			if status == 0 {
				status = 200
			}
			steps = append(steps, HttpGetStep{
				URL:             r.URL,
				ExpectStatus:    status,
				ExpectSubstring: r.ExpectSubstring,
			})
		default:
			return nil, fmt.Errorf("step %d: unknown step type %q", i+1, r.Type)
		}
	}
	return steps, nil
}
