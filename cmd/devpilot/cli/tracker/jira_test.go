package tracker

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchIssue(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/rest/api/2/issue/CCS-7", r.URL.Path)
		user, _, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "bot@example.com", user)

		io.WriteString(w, `{
			"key": "CCS-7",
			"fields": {
				"summary": "Add contact form",
				"description": "Details here",
				"status": {"name": "In Progress"}
			}
		}`)
	}))
	defer srv.Close()

	c := NewJiraClient(srv.URL, "bot@example.com", "token")
	issue, err := c.FetchIssue(context.Background(), "CCS-7")
	require.NoError(t, err)

	assert.Equal(t, "CCS-7", issue.Key)
	assert.Equal(t, "Add contact form", issue.Summary)
	assert.Equal(t, "In Progress", issue.Status)
}

func TestCommentPayload(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	c := NewJiraClient(srv.URL, "bot@example.com", "token")
	require.NoError(t, c.Comment(context.Background(), "CCS-7", "patch applied"))
	assert.Equal(t, "patch applied", got["body"])
}

func TestFetchIssueHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "not found", http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewJiraClient(srv.URL, "bot@example.com", "token")
	_, err := c.FetchIssue(context.Background(), "NOPE-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}
