package patch

import "strings"

// Allowlist bounds where a diff block may land. Directory prefixes and file
// suffixes are independent, optional constraints: an empty Allowlist passes
// everything.
type Allowlist struct {
	dirs     []string
	suffixes []string
}

// NewAllowlist normalizes directory prefixes so that "notes" and "notes/"
// behave identically.
func NewAllowlist(dirs, suffixes []string) Allowlist {
	normalized := make([]string, 0, len(dirs))
	for _, d := range dirs {
		if d == "" {
			continue
		}
		if !strings.HasSuffix(d, "/") {
			d += "/"
		}
		normalized = append(normalized, d)
	}
	return Allowlist{dirs: normalized, suffixes: append([]string(nil), suffixes...)}
}

// Accepts reports whether a target path satisfies the configured constraints.
func (a Allowlist) Accepts(path string) bool {
	if len(a.dirs) > 0 {
		ok := false
		for _, d := range a.dirs {
			if strings.HasPrefix(path, d) {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}
	if len(a.suffixes) > 0 {
		ok := false
		for _, s := range a.suffixes {
			if strings.HasSuffix(path, s) {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}
	return true
}

// FilterBlocks returns the cleaned subset of blocks whose target path the
// allowlist accepts. Input blocks are never mutated; cleaning produces fresh
// blocks.
func FilterBlocks(blocks []DiffBlock, allow Allowlist) []DiffBlock {
	var kept []DiffBlock
	for _, b := range blocks {
		if allow.Accepts(b.TargetPath) {
			kept = append(kept, cleanBlock(b))
		}
	}
	return kept
}

// cleanBlock drops every line starting with "index " whether or not it looks
// like a well-formed hash range. Models frequently emit malformed index lines
// and `git apply` does not need them.
func cleanBlock(b DiffBlock) DiffBlock {
	cleaned := make([]string, 0, len(b.Lines))
	for _, ln := range b.Lines {
		if strings.HasPrefix(ln, "index ") {
			continue
		}
		cleaned = append(cleaned, ln)
	}
	return DiffBlock{TargetPath: b.TargetPath, Lines: cleaned}
}

// Assemble concatenates blocks into one patch document, terminating each
// block so that adjacent blocks cannot run together.
func Assemble(blocks []DiffBlock) string {
	var sb strings.Builder
	for _, b := range blocks {
		for _, ln := range b.Lines {
			sb.WriteString(ln)
		}
		if n := len(b.Lines); n == 0 || !strings.HasSuffix(b.Lines[n-1], "\n") {
			sb.WriteString("\n")
		}
	}
	return sb.String()
}
