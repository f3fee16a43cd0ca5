package manifest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizePath(t *testing.T) {
	tests := []struct {
		name    string
		path    string
		docRoot string
		want    string
	}{
		{"docroot guess rewritten", "docroot/modules/custom/x/x.module", "web", "web/modules/custom/x/x.module"},
		{"web guess rewritten", "web/modules/custom/x/x.module", "docroot", "docroot/modules/custom/x/x.module"},
		{"bare modules path gets docroot", "modules/custom/x/x.module", "web", "web/modules/custom/x/x.module"},
		{"leading slash stripped", "/web/modules/custom/a.php", "web", "web/modules/custom/a.php"},
		{"backslashes normalized", `web\modules\custom\a.php`, "web", "web/modules/custom/a.php"},
		{"unrelated path untouched", "notes/a.md", "web", "notes/a.md"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizePath(tt.path, tt.docRoot))
		})
	}
}

func TestWriteFilesHappyPath(t *testing.T) {
	repo := t.TempDir()
	w := Writer{
		RepoRoot:    repo,
		AllowedDirs: []string{"web/modules/custom/"},
		DocRoot:     "web",
	}

	written, err := w.WriteFiles(`{"files":[{"path":"modules/custom/x/x.module","content":"<?php\n"}]}`)
	require.NoError(t, err)
	require.Len(t, written, 1)

	want := filepath.Join(repo, "web", "modules", "custom", "x", "x.module")
	assert.Equal(t, want, written[0])

	data, err := os.ReadFile(want)
	require.NoError(t, err)
	assert.Equal(t, "<?php\n", string(data))
}

func TestWriteFilesRejectsTraversal(t *testing.T) {
	repo := t.TempDir()
	w := Writer{RepoRoot: repo, DocRoot: "web"}

	_, err := w.WriteFiles(`{"files":[{"path":"../outside.txt","content":"x"}]}`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not allowed by guardrails")
	assert.NoFileExists(t, filepath.Join(filepath.Dir(repo), "outside.txt"))
}

func TestWriteFilesRejectsSymlinkEscape(t *testing.T) {
	outside := t.TempDir()
	repo := t.TempDir()
	// notes/ inside the repo points outside it; a lexical check would pass.
	require.NoError(t, os.Symlink(outside, filepath.Join(repo, "notes")))

	w := Writer{RepoRoot: repo, DocRoot: "web"}
	_, err := w.WriteFiles(`{"files":[{"path":"notes/escape.txt","content":"x"}]}`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not allowed by guardrails")
	assert.NoFileExists(t, filepath.Join(outside, "escape.txt"))
}

func TestWriteFilesFailFastWritesNothing(t *testing.T) {
	repo := t.TempDir()
	w := Writer{
		RepoRoot:    repo,
		AllowedDirs: []string{"web/modules/custom/"},
		DocRoot:     "web",
	}

	// First entry is fine, second violates the allowlist; neither may land.
	raw := `{"files":[
		{"path":"modules/custom/ok/ok.module","content":"<?php\n"},
		{"path":"vendor/evil.php","content":"<?php\n"}
	]}`
	_, err := w.WriteFiles(raw)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "vendor/evil.php")
	assert.NoFileExists(t, filepath.Join(repo, "web", "modules", "custom", "ok", "ok.module"))
}

func TestWriteFilesAppliesPHPSanitizer(t *testing.T) {
	repo := t.TempDir()
	w := Writer{RepoRoot: repo, DocRoot: "web"}

	raw := `{"files":[{"path":"notes/helper.php","content":"<?php\ndeclare(strict_types=1);\necho \\$name;\n"}]}`
	written, err := w.WriteFiles(raw)
	require.NoError(t, err)
	require.Len(t, written, 1)

	data, err := os.ReadFile(written[0])
	require.NoError(t, err)
	assert.NotContains(t, string(data), "declare(")
	assert.Contains(t, string(data), "echo $name;")
}

func TestWriteFilesNoValidEntries(t *testing.T) {
	repo := t.TempDir()
	w := Writer{RepoRoot: repo, DocRoot: "web"}

	// The files array exists but every entry is malformed.
	_, err := w.WriteFiles(`{"files":[{"path":1,"content":2}]}`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "manifest produced no files")
}

func TestDetectDocRoot(t *testing.T) {
	repo := t.TempDir()
	assert.Equal(t, "web", DetectDocRoot(repo), "default is web")

	require.NoError(t, os.MkdirAll(filepath.Join(repo, "docroot"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(repo, "docroot", "index.php"), []byte("<?php\n"), 0o644))
	assert.Equal(t, "docroot", DetectDocRoot(repo))

	require.NoError(t, os.MkdirAll(filepath.Join(repo, "web"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(repo, "web", "index.php"), []byte("<?php\n"), 0o644))
	assert.Equal(t, "web", DetectDocRoot(repo), "web wins when both exist")
}
