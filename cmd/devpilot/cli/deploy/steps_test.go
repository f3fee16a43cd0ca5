package deploy

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeSteps(t *testing.T) {
	data := []byte(`
- type: drush
  command: cr
- type: php_eval
  code: 'echo \Drupal::VERSION;'
- type: shell
  command: ls -la
- type: http_get
  url: https://example.com/health
  expect_substring: ok
`)
	steps, err := DecodeSteps(data)
	require.NoError(t, err)
	require.Len(t, steps, 4)

	assert.Equal(t, DrushStep{Command: "cr"}, steps[0])
	assert.IsType(t, PhpEvalStep{}, steps[1])
	assert.Equal(t, ShellStep{Command: "ls -la"}, steps[2])

	probe, ok := steps[3].(HttpGetStep)
	require.True(t, ok)
	assert.Equal(t, 200, probe.ExpectStatus, "status defaults to 200")
	assert.Equal(t, "ok", probe.ExpectSubstring)
}

func TestDecodeStepsRejectsUnknownType(t *testing.T) {
	_, err := DecodeSteps([]byte("- type: rm_rf\n  command: boom\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown step type")
}

func TestDecodeStepsRejectsMissingFields(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"drush without command", "- type: drush\n"},
		{"php_eval without code", "- type: php_eval\n"},
		{"http_get without url", "- type: http_get\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeSteps([]byte(tt.yaml))
			require.Error(t, err)
		})
	}
}

func TestProbeStep(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		io.WriteString(w, "status: ok")
	}))
	defer srv.Close()

	r := &Runner{}

	t.Run("passing probe", func(t *testing.T) {
		res, err := r.Run(context.Background(), HttpGetStep{URL: srv.URL, ExpectStatus: 200, ExpectSubstring: "ok"})
		require.NoError(t, err)
		assert.True(t, res.OK)
	})

	t.Run("substring mismatch fails", func(t *testing.T) {
		res, err := r.Run(context.Background(), HttpGetStep{URL: srv.URL, ExpectStatus: 200, ExpectSubstring: "absent"})
		require.NoError(t, err)
		assert.False(t, res.OK)
	})

	t.Run("status mismatch fails", func(t *testing.T) {
		res, err := r.Run(context.Background(), HttpGetStep{URL: srv.URL, ExpectStatus: 204})
		require.NoError(t, err)
		assert.False(t, res.OK)
	})
}

func TestStepArgv(t *testing.T) {
	// Quotes, dollars and newlines are routine in php:eval snippets. The code
	// must reach drush byte for byte; shell re-quoting would corrupt it.
	code := "$u = \\Drupal::currentUser();\necho \"uid: {$u->id()}\";\necho 'done';"
	argv := stepArgv(PhpEvalStep{Code: code})
	require.Len(t, argv, 3)
	assert.Equal(t, []string{"drush", "php:eval"}, argv[:2])
	assert.Equal(t, code, argv[2])

	assert.Equal(t, []string{"sh", "-c", "drush cr"}, stepArgv(DrushStep{Command: "cr"}))
	assert.Equal(t, []string{"sh", "-c", "ls -la"}, stepArgv(ShellStep{Command: "ls -la"}))
	assert.Nil(t, stepArgv(HttpGetStep{URL: "https://example.com"}))
}

func TestShellStep(t *testing.T) {
	r := &Runner{WorkDir: t.TempDir()}

	res, err := r.Run(context.Background(), ShellStep{Command: "echo hello"})
	require.NoError(t, err)
	assert.True(t, res.OK)
	assert.Contains(t, res.Output, "hello")

	res, err = r.Run(context.Background(), ShellStep{Command: "exit 3"})
	require.NoError(t, err)
	assert.False(t, res.OK)
}
