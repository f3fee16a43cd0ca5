// Package patch turns untrusted model output into a constrained, verifiably
// scoped set of working-tree changes. It parses unified-diff text into
// per-file blocks, assesses the risk of the change set, strips metadata that
// breaks strict application, and applies the result atomically via
// `git apply --index`.
//
// The input is always treated as adversarial: prose preambles, code fences,
// malformed index lines, and paths outside the sandbox are all expected.
package patch

import (
	"regexp"
	"strings"
)

// diffStartRe matches the per-file diff header, capturing the a/ and b/ paths.
var diffStartRe = regexp.MustCompile(`^diff --git a/(.+?) b/(.+?)\s*$`)

// DiffBlock is one per-file section of a unified diff. Lines keep their
// terminators so blocks can be reassembled verbatim.
type DiffBlock struct {
	// TargetPath is the b-side path, superseded by an explicit "+++ b/" header
	// when one is present inside the block.
	TargetPath string
	Lines      []string
}

// ParseBlocks splits raw text into independent per-file diff blocks. Anything
// before the first "diff --git" header is discarded as prose. Text with no
// headers at all yields an empty slice; that is a signal to try the manifest
// representation, not an error.
func ParseBlocks(text string) []DiffBlock {
	lines := splitLines(text)

	var blocks []DiffBlock
	i := 0
	for i < len(lines) {
		m := diffStartRe.FindStringSubmatch(lines[i])
		if m == nil {
			i++
			continue
		}

		bPath := m[2]
		block := []string{lines[i]}
		i++
		for i < len(lines) && !diffStartRe.MatchString(lines[i]) {
			block = append(block, lines[i])
			i++
		}

		// Renames and disagreeing headers: the "+++ b/" line is authoritative.
		target := bPath
		for _, ln := range block {
			if strings.HasPrefix(ln, "+++ b/") {
				target = strings.TrimSpace(ln)[len("+++ b/"):]
				break
			}
		}

		blocks = append(blocks, DiffBlock{TargetPath: target, Lines: block})
	}
	return blocks
}

// splitLines splits text into lines that keep their "\n" terminator, so that
// reassembly preserves the original bytes.
func splitLines(text string) []string {
	if text == "" {
		return nil
	}
	lines := strings.SplitAfter(text, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}
