// Package review defines the code-review-platform surface consumed by the
// pipeline and a GitLab implementation. Merging is a separate, optional
// capability: tokens without merge rights yield a client that simply does not
// implement Merger, which callers probe with a type assertion instead of
// catching failures at call time.
package review

import "context"

// MergeRequest identifies a created review request.
type MergeRequest struct {
	IID    int
	WebURL string
}

// CreateMROptions are the fields needed to open a review request.
type CreateMROptions struct {
	SourceBranch string
	TargetBranch string
	Title        string
	Description  string
	Labels       []string
}

// FileChange is one changed file in a merge request.
type FileChange struct {
	Path string
	Diff string
}

// Client is the consumed review-platform interface.
type Client interface {
	CreateMergeRequest(ctx context.Context, opts CreateMROptions) (*MergeRequest, error)
	ListChanges(ctx context.Context, iid int) ([]FileChange, error)
	Comment(ctx context.Context, iid int, body string) error
	AddLabels(ctx context.Context, iid int, labels []string) error
}

// Merger is the optional merge capability. Absence is a normal, representable
// state, not an error path.
type Merger interface {
	Merge(ctx context.Context, iid int) error
}
