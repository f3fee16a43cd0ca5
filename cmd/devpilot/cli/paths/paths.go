// Package paths centralizes filesystem locations for the devpilot CLI:
// repository root discovery, the .devpilot working directory, and containment
// checks used by the write guardrails.
package paths

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
)

// Directory constants
const (
	DevpilotDir    = ".devpilot"
	DevpilotTmpDir = ".devpilot/tmp"
	DevpilotLogDir = ".devpilot/logs"
)

var (
	repoRootMu       sync.RWMutex
	repoRootCache    string
	repoRootCacheDir string
)

// RepoRoot returns the git repository root via `git rev-parse --show-toplevel`,
// cached per working directory. Errors when not inside a repository.
func RepoRoot() (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		cwd = ""
	}

	repoRootMu.RLock()
	if repoRootCache != "" && repoRootCacheDir == cwd {
		cached := repoRootCache
		repoRootMu.RUnlock()
		return cached, nil
	}
	repoRootMu.RUnlock()

	cmd := exec.CommandContext(context.Background(), "git", "rev-parse", "--show-toplevel")
	output, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("failed to get git repository root: %w", err)
	}
	root := strings.TrimSpace(string(output))

	repoRootMu.Lock()
	repoRootCache = root
	repoRootCacheDir = cwd
	repoRootMu.Unlock()

	return root, nil
}

// ClearRepoRootCache resets the cached root; used by tests that change
// directories.
func ClearRepoRootCache() {
	repoRootMu.Lock()
	repoRootCache = ""
	repoRootCacheDir = ""
	repoRootMu.Unlock()
}

// AbsPath resolves a repo-relative path against the repository root. Absolute
// paths pass through unchanged.
func AbsPath(relPath string) (string, error) {
	if filepath.IsAbs(relPath) {
		return relPath, nil
	}
	root, err := RepoRoot()
	if err != nil {
		return "", err
	}
	return filepath.Join(root, relPath), nil
}

// EnsureTmpDir creates the .devpilot/tmp directory under root and returns it.
func EnsureTmpDir(root string) (string, error) {
	dir := filepath.Join(root, DevpilotTmpDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating %s: %w", dir, err)
	}
	return dir, nil
}

// WithinRoot reports whether target resolves to a location inside root.
// Both sides have symlinks resolved first, so a link pointing outside the
// root cannot smuggle a write past the check. Used by write guardrails to
// reject directory traversal.
func WithinRoot(root, target string) bool {
	rootResolved := ResolveExisting(root)
	targetResolved := ResolveExisting(target)
	rel, err := filepath.Rel(rootResolved, targetResolved)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// ResolveExisting resolves symlinks in the deepest existing ancestor of path
// and rejoins the rest, so a containment check sees the real location a write
// would land in even when the leaf does not exist yet.
func ResolveExisting(path string) string {
	p := filepath.Clean(path)
	var tail []string
	for {
		resolved, err := filepath.EvalSymlinks(p)
		if err == nil {
			for i := len(tail) - 1; i >= 0; i-- {
				resolved = filepath.Join(resolved, tail[i])
			}
			return resolved
		}
		parent := filepath.Dir(p)
		if parent == p {
			return filepath.Clean(path)
		}
		tail = append(tail, filepath.Base(p))
		p = parent
	}
}
