package cli

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"devpilot.io/cli/redact"

	"github.com/go-git/go-git/v5"
	gitconfig "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// GitAuthor represents the git user configuration
type GitAuthor struct {
	Name  string
	Email string
}

func openRepository(repoRoot string) (*git.Repository, error) {
	repo, err := git.PlainOpenWithOptions(repoRoot, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, fmt.Errorf("failed to open repository: %w", err)
	}
	return repo, nil
}

// GetGitAuthor retrieves user.name and user.email, checking repo config first
// and falling back to the git command, then to automation defaults.
func GetGitAuthor(repoRoot string) *GitAuthor {
	author := &GitAuthor{Name: "devpilot", Email: "devpilot@local"}

	repo, err := openRepository(repoRoot)
	if err == nil {
		if cfg, err := repo.ConfigScoped(gitconfig.GlobalScope); err == nil {
			if cfg.User.Name != "" {
				author.Name = cfg.User.Name
			}
			if cfg.User.Email != "" {
				author.Email = cfg.User.Email
			}
		}
	}

	// go-git can miss config in hook contexts; the git command is authoritative
	if author.Name == "devpilot" {
		if name := getGitConfigValue(repoRoot, "user.name"); name != "" {
			author.Name = name
		}
	}
	if author.Email == "devpilot@local" {
		if email := getGitConfigValue(repoRoot, "user.email"); email != "" {
			author.Email = email
		}
	}

	return author
}

func getGitConfigValue(repoRoot, key string) string {
	cmd := exec.Command("git", "-C", repoRoot, "config", "--get", key)
	output, err := cmd.Output()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(output))
}

// GetCurrentBranch returns the short name of the checked-out branch.
func GetCurrentBranch(repoRoot string) (string, error) {
	repo, err := openRepository(repoRoot)
	if err != nil {
		return "", err
	}

	head, err := repo.Head()
	if err != nil {
		return "", fmt.Errorf("failed to get HEAD: %w", err)
	}

	if !head.Name().IsBranch() {
		return "", errors.New("not on a branch (detached HEAD)")
	}

	return head.Name().Short(), nil
}

// EnsureFeatureBranch creates and checks out the named branch from HEAD.
// If the branch already exists it is checked out as-is.
func EnsureFeatureBranch(repoRoot, name string) error {
	repo, err := openRepository(repoRoot)
	if err != nil {
		return err
	}

	w, err := repo.Worktree()
	if err != nil {
		return fmt.Errorf("failed to get worktree: %w", err)
	}

	refName := plumbing.NewBranchReferenceName(name)
	_, err = repo.Reference(refName, true)
	create := err != nil

	if err := w.Checkout(&git.CheckoutOptions{Branch: refName, Create: create, Keep: true}); err != nil {
		return fmt.Errorf("failed to checkout branch %s: %w", name, err)
	}
	return nil
}

// CommitStaged commits whatever is already in the index. Returns the commit
// hash, or an error when the index is empty.
func CommitStaged(repoRoot, message string) (string, error) {
	repo, err := openRepository(repoRoot)
	if err != nil {
		return "", err
	}

	w, err := repo.Worktree()
	if err != nil {
		return "", fmt.Errorf("failed to get worktree: %w", err)
	}

	status, err := w.Status()
	if err != nil {
		return "", fmt.Errorf("failed to get status: %w", err)
	}
	staged := false
	for _, s := range status {
		if s.Staging != git.Unmodified && s.Staging != git.Untracked {
			staged = true
			break
		}
	}
	if !staged {
		return "", errors.New("nothing staged to commit")
	}

	author := GetGitAuthor(repoRoot)
	hash, err := w.Commit(message, &git.CommitOptions{
		Author: &object.Signature{
			Name:  author.Name,
			Email: author.Email,
			When:  time.Now(),
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to commit: %w", err)
	}
	return hash.String(), nil
}

// StageAll adds all working tree changes to the index, for manifest-written
// files that bypass `git apply --index`.
func StageAll(repoRoot string) error {
	cmd := exec.Command("git", "-C", repoRoot, "add", "-A")
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("git add failed: %s", redact.Scrub(strings.TrimSpace(string(output))))
	}
	return nil
}

// PushBranch pushes the branch to origin, setting the upstream. Uses the git
// CLI so the user's credential helpers and SSH agent work unchanged.
func PushBranch(ctx context.Context, repoRoot, branch string) error {
	cmd := exec.CommandContext(ctx, "git", "-C", repoRoot, "push", "-u", "origin", branch)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("git push failed: %s", redact.Scrub(strings.TrimSpace(string(output))))
	}
	return nil
}
