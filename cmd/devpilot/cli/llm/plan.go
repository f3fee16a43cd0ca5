package llm

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// PlanKind tags the two shapes the planning step can return: one unified diff,
// or a list of discrete tasks. Decoding happens once, here at the boundary;
// nothing deeper in the pipeline inspects raw model output.
type PlanKind int

const (
	PlanSingleDiff PlanKind = iota
	PlanTaskList
)

// Task is one discrete authoring step with its own patch.
type Task struct {
	Title string `json:"title"`
	Patch string `json:"patch"`
	Apply bool   `json:"apply"`
}

// Plan is the tagged union produced by DecodePlan. Exactly one of Diff or
// Tasks is meaningful, selected by Kind.
type Plan struct {
	Kind  PlanKind
	Diff  string
	Tasks []Task
}

var (
	codeFenceRe = regexp.MustCompile(`^\s*` + "```" + `+[a-zA-Z0-9_-]*\s*$`)
	diffStartRe = regexp.MustCompile(`(?m)^diff --git a/.+ b/.+`)
	hunkStartRe = regexp.MustCompile(`(?m)^@@\s+-\d`)
	fileHdrRe   = regexp.MustCompile(`(?m)^(\+\+\+|---) [ab]/`)
)

// StripFences removes a wrapping markdown code fence if the model emitted one.
func StripFences(text string) string {
	lines := strings.Split(strings.TrimSpace(text), "\n")
	if len(lines) == 0 {
		return text
	}
	if codeFenceRe.MatchString(lines[0]) {
		lines = lines[1:]
	}
	if len(lines) > 0 && codeFenceRe.MatchString(lines[len(lines)-1]) {
		lines = lines[:len(lines)-1]
	}
	return strings.Join(lines, "\n")
}

// ExtractFirstDiffBlock pulls a unified diff out of model output, skipping
// any prose or fence before the first diff header. Returns "" when no header
// exists.
func ExtractFirstDiffBlock(text string) string {
	if text == "" {
		return ""
	}
	body := StripFences(text)
	if loc := diffStartRe.FindStringIndex(body); loc != nil {
		return body[loc[0]:]
	}
	if loc := diffStartRe.FindStringIndex(text); loc != nil {
		return text[loc[0]:]
	}
	return ""
}

// LooksLikeUnifiedDiff checks for the three structural markers a usable diff
// must carry: a diff header, file headers, and at least one hunk.
func LooksLikeUnifiedDiff(text string) bool {
	if text == "" {
		return false
	}
	return strings.Contains(text, "diff --git a/") &&
		fileHdrRe.MatchString(text) &&
		hunkStartRe.MatchString(text)
}

// DecodePlan turns raw planning output into a Plan. A recognizable unified
// diff becomes PlanSingleDiff; otherwise a JSON task list is attempted. Tasks
// without a patch are dropped; a task's Apply defaults to true when absent.
func DecodePlan(raw string) (Plan, error) {
	if diff := ExtractFirstDiffBlock(raw); LooksLikeUnifiedDiff(diff) {
		return Plan{Kind: PlanSingleDiff, Diff: diff}, nil
	}

	stripped := StripFences(raw)
	var decoded []struct {
		Title string `json:"title"`
		Patch string `json:"patch"`
		Apply *bool  `json:"apply"`
	}
	if err := json.Unmarshal([]byte(stripped), &decoded); err != nil {
		return Plan{}, fmt.Errorf("planning output is neither a unified diff nor a task list: %w", err)
	}

	var tasks []Task
	for i, d := range decoded {
		if d.Patch == "" {
			continue
		}
		title := d.Title
		if title == "" {
			title = fmt.Sprintf("Task %d", i+1)
		}
		apply := true
		if d.Apply != nil {
			apply = *d.Apply
		}
		tasks = append(tasks, Task{Title: title, Patch: d.Patch, Apply: apply})
	}
	if len(tasks) == 0 {
		return Plan{}, fmt.Errorf("task list contained no applicable tasks")
	}
	return Plan{Kind: PlanTaskList, Tasks: tasks}, nil
}
