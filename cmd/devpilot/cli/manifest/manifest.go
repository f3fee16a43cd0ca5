// Package manifest handles the JSON "file manifest" alternative to a unified
// diff: a `{"files":[{"path":..., "content":...}]}` object carrying complete
// target file contents. The text comes from a model and is treated as
// untrusted; extraction tolerates prose and code fences, parsing repairs the
// escaping mistakes models habitually make, and every write is validated
// against the repository root and an allowlist before the first byte lands.
package manifest

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrNoJSONObject signals that the text is not manifest-shaped at all. Like an
// empty diff parse, this is a cue to try the other representation, not a hard
// failure.
var ErrNoJSONObject = errors.New("no JSON object found in model output")

var (
	fencedObjectRe   = regexp.MustCompile("(?s)```(?:json)?\\s*(\\{.*?\\})\\s*```")
	trailingObjectRe = regexp.MustCompile(`(?s)\{.*\}\s*$`)
)

// ExtractObject pulls the outermost JSON object out of raw model output.
// First match wins: a fenced ```json block, then a trailing {...} span, then
// the substring between the first "{" and the last "}".
func ExtractObject(s string) (string, error) {
	if len(s) == 0 {
		return "", ErrNoJSONObject
	}
	if m := fencedObjectRe.FindStringSubmatch(s); m != nil {
		return m[1], nil
	}
	if m := trailingObjectRe.FindString(s); m != "" {
		return m, nil
	}
	first := strings.IndexByte(s, '{')
	last := strings.LastIndexByte(s, '}')
	if first != -1 && last != -1 && last > first {
		return s[first : last+1], nil
	}
	return "", ErrNoJSONObject
}

// FileEntry is one validated manifest entry: a repo-relative path (before
// normalization) and the complete file text.
type FileEntry struct {
	Path    string
	Content string
}

// Parse extracts and decodes a manifest from raw model text. A strict parse
// is attempted first; on failure the two repair passes run and the result is
// parsed again. Entries whose path or content is not a string are silently
// skipped, since partial manifests are expected from imperfect generation.
func Parse(raw string) ([]FileEntry, error) {
	obj, err := ExtractObject(raw)
	if err != nil {
		return nil, err
	}

	var doc map[string]any
	if err := json.Unmarshal([]byte(obj), &doc); err != nil {
		repaired := escapeControlChars(repairStringEscapes(obj))
		if err2 := json.Unmarshal([]byte(repaired), &doc); err2 != nil {
			return nil, fmt.Errorf("manifest is not valid JSON after repair: %v\nsnippet: %s", err2, snippet(obj, 240))
		}
	}

	files, ok := doc["files"].([]any)
	if !ok || len(files) == 0 {
		return nil, errors.New("manifest has no 'files' array")
	}

	var entries []FileEntry
	for _, f := range files {
		m, ok := f.(map[string]any)
		if !ok {
			continue
		}
		path, pok := m["path"].(string)
		content, cok := m["content"].(string)
		if !pok || !cok {
			continue
		}
		entries = append(entries, FileEntry{Path: path, Content: content})
	}
	return entries, nil
}

func snippet(s string, n int) string {
	if len(s) > n {
		return s[:n] + "..."
	}
	return s
}
