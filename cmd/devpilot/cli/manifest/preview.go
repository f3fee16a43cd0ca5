package manifest

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// Preview renders a human-readable summary of what WriteFiles would change,
// diffing each entry against the file currently in the working tree. New
// files are marked as such. No validation is performed here; this is purely
// informational output for the operator.
func (w Writer) Preview(raw string) (string, error) {
	entries, err := Parse(raw)
	if err != nil {
		return "", err
	}

	dmp := diffmatchpatch.New()
	var sb strings.Builder
	for _, e := range entries {
		norm := NormalizePath(e.Path, w.DocRoot)
		target := filepath.Join(w.RepoRoot, norm)

		existing, readErr := os.ReadFile(target)
		if readErr != nil {
			fmt.Fprintf(&sb, "A %s (%d bytes, new file)\n", norm, len(e.Content))
			continue
		}

		diffs := dmp.DiffMain(string(existing), e.Content, false)
		ins, del := 0, 0
		for _, d := range diffs {
			switch d.Type {
			case diffmatchpatch.DiffInsert:
				ins += len(d.Text)
			case diffmatchpatch.DiffDelete:
				del += len(d.Text)
			}
		}
		if ins == 0 && del == 0 {
			fmt.Fprintf(&sb, "= %s (unchanged)\n", norm)
			continue
		}
		fmt.Fprintf(&sb, "M %s (+%d/-%d bytes)\n", norm, ins, del)
	}
	return sb.String(), nil
}
