package tracker

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// JiraClient talks to the Jira REST API v2 with basic auth.
type JiraClient struct {
	BaseURL    string
	Email      string
	APIToken   string
	HTTPClient *http.Client
}

// NewJiraClient builds a client with a sane default timeout.
func NewJiraClient(baseURL, email, apiToken string) *JiraClient {
	return &JiraClient{
		BaseURL:    baseURL,
		Email:      email,
		APIToken:   apiToken,
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// FetchIssue retrieves a ticket's key fields.
func (c *JiraClient) FetchIssue(ctx context.Context, key string) (*Issue, error) {
	body, err := c.do(ctx, http.MethodGet, fmt.Sprintf("/rest/api/2/issue/%s", key), nil)
	if err != nil {
		return nil, fmt.Errorf("fetching issue %s: %w", key, err)
	}
	return &Issue{
		Key:         gjson.GetBytes(body, "key").String(),
		Summary:     gjson.GetBytes(body, "fields.summary").String(),
		Description: gjson.GetBytes(body, "fields.description").String(),
		Status:      gjson.GetBytes(body, "fields.status.name").String(),
	}, nil
}

// Comment posts a comment on the ticket.
func (c *JiraClient) Comment(ctx context.Context, key, text string) error {
	payload, err := sjson.SetBytes([]byte(`{}`), "body", text)
	if err != nil {
		return fmt.Errorf("building comment payload: %w", err)
	}
	if _, err := c.do(ctx, http.MethodPost, fmt.Sprintf("/rest/api/2/issue/%s/comment", key), payload); err != nil {
		return fmt.Errorf("commenting on %s: %w", key, err)
	}
	return nil
}

// Transition moves the ticket through its workflow by transition id.
func (c *JiraClient) Transition(ctx context.Context, key, transitionID string) error {
	payload, err := sjson.SetBytes([]byte(`{}`), "transition.id", transitionID)
	if err != nil {
		return fmt.Errorf("building transition payload: %w", err)
	}
	if _, err := c.do(ctx, http.MethodPost, fmt.Sprintf("/rest/api/2/issue/%s/transitions", key), payload); err != nil {
		return fmt.Errorf("transitioning %s: %w", key, err)
	}
	return nil
}

func (c *JiraClient) do(ctx context.Context, method, path string, payload []byte) ([]byte, error) {
	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reqBody)
	if err != nil {
		return nil, err
	}
	req.SetBasicAuth(c.Email, c.APIToken)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

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
		return nil, fmt.Errorf("jira returned %d: %s", resp.StatusCode, truncate(string(body), 200))
	}
	return body, nil
}

func truncate(s string, n int) string {
	if len(s) > n {
		return s[:n] + "..."
	}
	return s
}
