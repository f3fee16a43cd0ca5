package review

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// GitLabClient implements Client (and Merger when the token can merge)
// against the GitLab REST API v4.
type GitLabClient struct {
	BaseURL    string
	ProjectID  string
	Token      string
	HTTPClient *http.Client
}

func NewGitLabClient(baseURL, projectID, token string) *GitLabClient {
	return &GitLabClient{
		BaseURL:    baseURL,
		ProjectID:  projectID,
		Token:      token,
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// CreateMergeRequest opens an MR from source to target.
func (c *GitLabClient) CreateMergeRequest(ctx context.Context, opts CreateMROptions) (*MergeRequest, error) {
	payload := []byte(`{}`)
	var err error
	for path, value := range map[string]any{
		"source_branch":        opts.SourceBranch,
		"target_branch":        opts.TargetBranch,
		"title":                opts.Title,
		"description":          opts.Description,
		"remove_source_branch": true,
	} {
		if payload, err = sjson.SetBytes(payload, path, value); err != nil {
			return nil, fmt.Errorf("building MR payload: %w", err)
		}
	}
	if len(opts.Labels) > 0 {
		if payload, err = sjson.SetBytes(payload, "labels", strings.Join(opts.Labels, ",")); err != nil {
			return nil, fmt.Errorf("building MR payload: %w", err)
		}
	}

	body, err := c.do(ctx, http.MethodPost, c.projectPath("/merge_requests"), payload)
	if err != nil {
		return nil, fmt.Errorf("creating merge request: %w", err)
	}
	return &MergeRequest{
		IID:    int(gjson.GetBytes(body, "iid").Int()),
		WebURL: gjson.GetBytes(body, "web_url").String(),
	}, nil
}

// ListChanges returns the files changed by the MR.
func (c *GitLabClient) ListChanges(ctx context.Context, iid int) ([]FileChange, error) {
	path := c.projectPath(fmt.Sprintf("/merge_requests/%d/changes", iid))
	body, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, fmt.Errorf("listing changes for MR !%d: %w", iid, err)
	}
	var changes []FileChange
	gjson.GetBytes(body, "changes").ForEach(func(_, v gjson.Result) bool {
		p := v.Get("new_path").String()
		if p == "" {
			p = v.Get("old_path").String()
		}
		if p != "" {
			changes = append(changes, FileChange{Path: p, Diff: v.Get("diff").String()})
		}
		return true
	})
	return changes, nil
}

// Comment posts a note on the MR.
func (c *GitLabClient) Comment(ctx context.Context, iid int, text string) error {
	payload, err := sjson.SetBytes([]byte(`{}`), "body", text)
	if err != nil {
		return fmt.Errorf("building note payload: %w", err)
	}
	path := c.projectPath(fmt.Sprintf("/merge_requests/%d/notes", iid))
	if _, err := c.do(ctx, http.MethodPost, path, payload); err != nil {
		return fmt.Errorf("commenting on MR !%d: %w", iid, err)
	}
	return nil
}

// AddLabels appends labels to the MR.
func (c *GitLabClient) AddLabels(ctx context.Context, iid int, labels []string) error {
	payload, err := sjson.SetBytes([]byte(`{}`), "add_labels", strings.Join(labels, ","))
	if err != nil {
		return fmt.Errorf("building label payload: %w", err)
	}
	path := c.projectPath(fmt.Sprintf("/merge_requests/%d", iid))
	if _, err := c.do(ctx, http.MethodPut, path, payload); err != nil {
		return fmt.Errorf("labeling MR !%d: %w", iid, err)
	}
	return nil
}

// Merge merges the MR. Exposed only through the Merger capability check.
func (c *GitLabClient) Merge(ctx context.Context, iid int) error {
	path := c.projectPath(fmt.Sprintf("/merge_requests/%d/merge", iid))
	if _, err := c.do(ctx, http.MethodPut, path, []byte(`{}`)); err != nil {
		return fmt.Errorf("merging MR !%d: %w", iid, err)
	}
	return nil
}

func (c *GitLabClient) projectPath(suffix string) string {
	return fmt.Sprintf("/api/v4/projects/%s%s", url.PathEscape(c.ProjectID), suffix)
}

func (c *GitLabClient) do(ctx context.Context, method, path string, payload []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("PRIVATE-TOKEN", c.Token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet := string(body)
		if len(snippet) > 200 {
			snippet = snippet[:200] + "..."
		}
		return nil, fmt.Errorf("gitlab returned %d: %s", resp.StatusCode, snippet)
	}
	return body, nil
}
