package manifest

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"devpilot.io/cli/cmd/devpilot/cli/paths"
)

// Writer owns the lifecycle of one manifest write. RepoRoot and the allowlist
// are fixed at construction and read-only for the operation.
type Writer struct {
	// RepoRoot is the absolute path of the repository checkout.
	RepoRoot string
	// AllowedDirs, when non-empty, restricts writes to those repo-relative
	// directory prefixes.
	AllowedDirs []string
	// DocRoot is the detected document root name ("web" or "docroot") used to
	// normalize paths where the model guessed the conventional name.
	DocRoot string
}

// DetectDocRoot returns "web" or "docroot" depending on project layout,
// defaulting to "web".
func DetectDocRoot(repoRoot string) string {
	if _, err := os.Stat(filepath.Join(repoRoot, "web", "index.php")); err == nil {
		return "web"
	}
	if _, err := os.Stat(filepath.Join(repoRoot, "docroot", "index.php")); err == nil {
		return "docroot"
	}
	return "web"
}

// NormalizePath rewrites a manifest path to the actual document root. Models
// assume "web/" or "docroot/" interchangeably and sometimes omit the root
// entirely for module paths.
func NormalizePath(p, docRoot string) string {
	p = strings.ReplaceAll(strings.TrimLeft(p, "/"), `\`, "/")
	switch {
	case strings.HasPrefix(p, "docroot/"):
		return docRoot + strings.TrimPrefix(p, "docroot")
	case strings.HasPrefix(p, "web/"):
		return docRoot + strings.TrimPrefix(p, "web")
	case strings.HasPrefix(p, "modules/"):
		return docRoot + "/" + p
	}
	return p
}

// WriteFiles parses raw manifest text, validates every entry, and writes the
// files, returning the absolute paths written. Validation is fail-fast per
// manifest: if any entry resolves outside the repository root or outside the
// allowlist, no file is written at all.
func (w Writer) WriteFiles(raw string) ([]string, error) {
	entries, err := Parse(raw)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, errors.New("manifest produced no files")
	}

	repoAbs, err := filepath.Abs(w.RepoRoot)
	if err != nil {
		return nil, fmt.Errorf("resolving repository root: %w", err)
	}

	type pendingWrite struct {
		target  string
		content string
	}
	pending := make([]pendingWrite, 0, len(entries))

	// Validate everything before the first write so a rejected entry cannot
	// leave a partially-written manifest behind.
	for _, e := range entries {
		norm := NormalizePath(e.Path, w.DocRoot)
		target := filepath.Join(repoAbs, norm)
		if !w.pathAllowed(target, repoAbs) {
			return nil, fmt.Errorf("path not allowed by guardrails: %s", norm)
		}

		content := e.Content
		switch strings.ToLower(filepath.Ext(norm)) {
		case ".php", ".module", ".inc":
			content = SanitizePHP(content)
		}
		pending = append(pending, pendingWrite{target: target, content: content})
	}

	written := make([]string, 0, len(pending))
	for _, p := range pending {
		if err := os.MkdirAll(filepath.Dir(p.target), 0o755); err != nil {
			return written, fmt.Errorf("creating directory for %s: %w", p.target, err)
		}
		if err := os.WriteFile(p.target, []byte(p.content), 0o644); err != nil {
			return written, fmt.Errorf("writing %s: %w", p.target, err)
		}
		written = append(written, p.target)
	}
	return written, nil
}

// pathAllowed reports whether target resolves strictly inside the repository
// root and, when an allowlist is configured, inside one of its prefixes.
func (w Writer) pathAllowed(target, repoAbs string) bool {
	if !paths.WithinRoot(repoAbs, target) {
		return false
	}
	if len(w.AllowedDirs) == 0 {
		return true
	}
	rel, err := filepath.Rel(repoAbs, filepath.Clean(target))
	if err != nil {
		return false
	}
	relSlash := strings.ToLower(filepath.ToSlash(rel))
	for _, d := range w.AllowedDirs {
		dn := strings.ToLower(strings.Trim(d, "/"))
		if dn == "" {
			continue
		}
		if relSlash == dn || strings.HasPrefix(relSlash, dn+"/") {
			return true
		}
	}
	return false
}
