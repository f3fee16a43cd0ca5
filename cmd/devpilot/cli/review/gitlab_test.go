package review

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

func TestCreateMergeRequest(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v4/projects/42/merge_requests", r.URL.Path)
		assert.Equal(t, "secret", r.Header.Get("PRIVATE-TOKEN"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		io.WriteString(w, `{"iid": 17, "web_url": "https://gitlab.example.com/mr/17"}`)
	}))
	defer srv.Close()

	c := NewGitLabClient(srv.URL, "42", "secret")
	mr, err := c.CreateMergeRequest(context.Background(), CreateMROptions{
		SourceBranch: "feature/CCS-7",
		TargetBranch: "main",
		Title:        "feat: CCS-7",
		Labels:       []string{"copilot", "auto"},
	})
	require.NoError(t, err)

	assert.Equal(t, 17, mr.IID)
	assert.Equal(t, "https://gitlab.example.com/mr/17", mr.WebURL)
	assert.Equal(t, "feature/CCS-7", got["source_branch"])
	assert.Equal(t, "copilot,auto", got["labels"])
	assert.Equal(t, true, got["remove_source_branch"])
}

func TestListChanges(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v4/projects/42/merge_requests/17/changes", r.URL.Path)
		assert.Equal(t, http.MethodGet, r.Method)
		io.WriteString(w, `{"changes": [
			{"new_path": "notes/a.md", "old_path": "notes/a.md", "diff": "@@ -0,0 +1 @@\n+a\n"},
			{"new_path": "", "old_path": "web/modules/custom/x/x.module", "diff": ""}
		]}`)
	}))
	defer srv.Close()

	c := NewGitLabClient(srv.URL, "42", "secret")
	changes, err := c.ListChanges(context.Background(), 17)
	require.NoError(t, err)

	require.Len(t, changes, 2)
	assert.Equal(t, "notes/a.md", changes[0].Path)
	assert.Contains(t, changes[0].Diff, "+a")
	// Deleted files carry only old_path.
	assert.Equal(t, "web/modules/custom/x/x.module", changes[1].Path)
}

func TestMergeCapabilityProbe(t *testing.T) {
	// Callers hold a Client and probe for the optional merge capability.
	var rc Client = NewGitLabClient("http://example.invalid", "1", "t")
	m, ok := rc.(Merger)
	require.True(t, ok, "GitLabClient must expose the merge capability")
	require.NotNil(t, m)
}

func TestCommentError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "forbidden", http.StatusForbidden)
	}))
	defer srv.Close()

	c := NewGitLabClient(srv.URL, "42", "secret")
	err := c.Comment(context.Background(), 17, "hi")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "403")
}
