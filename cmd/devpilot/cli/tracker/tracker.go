// Package tracker defines the issue-tracker surface the pipeline consumes and
// a Jira REST implementation. The orchestration layer only ever sees the
// interface; runs without tracker credentials simply skip ticket updates.
package tracker

import "context"

// Issue is the subset of ticket fields the pipeline needs.
type Issue struct {
	Key         string
	Summary     string
	Description string
	Status      string
}

// Tracker is the consumed interface: fetch a ticket, comment on it, and move
// it through the workflow.
type Tracker interface {
	FetchIssue(ctx context.Context, key string) (*Issue, error)
	Comment(ctx context.Context, key, body string) error
	Transition(ctx context.Context, key, transitionID string) error
}
