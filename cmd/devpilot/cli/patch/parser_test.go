package patch

import (
	"strings"
	"testing"
)

const twoFileDiff = `some model prose explaining the change
diff --git a/notes/CCS-7.md b/notes/CCS-7.md
new file mode 100644
--- /dev/null
+++ b/notes/CCS-7.md
@@ -0,0 +2 @@
+# CCS-7
+notes
diff --git a/modules/custom/x/x.module b/modules/custom/x/x.module
index abc..def 100644
--- a/modules/custom/x/x.module
+++ b/modules/custom/x/x.module
@@ -1,1 +1,2 @@
 <?php
+// change
`

func TestParseBlocksNoDiff(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"prose only", "no diff here, just prose"},
		{"empty", ""},
		{"fenced code without diff header", "```\nfunc main() {}\n```"},
		{"header-like but wrong format", "diff --git notes/a.md notes/a.md\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseBlocks(tt.text); len(got) != 0 {
				t.Errorf("ParseBlocks(%q) = %d blocks, want 0", tt.text, len(got))
			}
		})
	}
}

func TestParseBlocksSplitsPerFile(t *testing.T) {
	blocks := ParseBlocks(twoFileDiff)
	if len(blocks) != 2 {
		t.Fatalf("got %d blocks, want 2", len(blocks))
	}
	if blocks[0].TargetPath != "notes/CCS-7.md" {
		t.Errorf("block 0 target = %q", blocks[0].TargetPath)
	}
	if blocks[1].TargetPath != "modules/custom/x/x.module" {
		t.Errorf("block 1 target = %q", blocks[1].TargetPath)
	}
	// Preamble prose is discarded.
	if !strings.HasPrefix(blocks[0].Lines[0], "diff --git ") {
		t.Errorf("block 0 starts with %q, want diff header", blocks[0].Lines[0])
	}
	// Reassembly preserves the block bytes.
	joined := strings.Join(blocks[0].Lines, "")
	if !strings.Contains(joined, "+# CCS-7\n") {
		t.Errorf("block 0 lost content:\n%s", joined)
	}
}

func TestParseBlocksPlusPlusPlusWins(t *testing.T) {
	// When headers disagree (renames), the "+++ b/" path is authoritative.
	text := "diff --git a/old/name.txt b/old/name.txt\n" +
		"--- a/old/name.txt\n" +
		"+++ b/new/name.txt\n" +
		"@@ -1 +1 @@\n" +
		"-a\n" +
		"+b\n"
	blocks := ParseBlocks(text)
	if len(blocks) != 1 {
		t.Fatalf("got %d blocks, want 1", len(blocks))
	}
	if blocks[0].TargetPath != "new/name.txt" {
		t.Errorf("target = %q, want new/name.txt", blocks[0].TargetPath)
	}
}

func TestParseBlocksWithoutPlusHeader(t *testing.T) {
	text := "diff --git a/notes/x.md b/notes/x.md\nnew file mode 100644\n"
	blocks := ParseBlocks(text)
	if len(blocks) != 1 {
		t.Fatalf("got %d blocks, want 1", len(blocks))
	}
	if blocks[0].TargetPath != "notes/x.md" {
		t.Errorf("target = %q, want b-side path", blocks[0].TargetPath)
	}
}
