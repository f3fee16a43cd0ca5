// Package llm wraps the model backend used to draft code changes and decodes
// its output at the boundary into typed plans. Everything returned by the
// model is untrusted text; the patch and manifest packages do the actual
// vetting.
package llm

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// Client is the completion surface the orchestration layer depends on. Tests
// substitute a stub.
type Client interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

const (
	defaultModel     = anthropic.Model("claude-sonnet-4-5-20250929")
	defaultMaxTokens = 4096
	maxAttempts      = 3
)

// Disabled reports whether model calls are switched off, forcing the
// deterministic fallback plan.
func Disabled() bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv("DEVPILOT_DISABLE_LLM"))) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}

// AnthropicClient calls the Messages API with a small bounded retry.
type AnthropicClient struct {
	client    anthropic.Client
	model     anthropic.Model
	maxTokens int64
}

// NewAnthropicClient builds a client from the environment. ANTHROPIC_API_KEY
// is required; DEVPILOT_MODEL overrides the default model.
func NewAnthropicClient() (*AnthropicClient, error) {
	apiKey := os.Getenv("ANTHROPIC_API_KEY")
	if apiKey == "" {
		return nil, errors.New("ANTHROPIC_API_KEY not set")
	}
	model := defaultModel
	if m := os.Getenv("DEVPILOT_MODEL"); m != "" {
		model = anthropic.Model(m)
	}
	return &AnthropicClient{
		client:    anthropic.NewClient(option.WithAPIKey(apiKey)),
		model:     model,
		maxTokens: defaultMaxTokens,
	}, nil
}

// Complete sends one system+user exchange and returns the concatenated text
// content. Transient failures are retried with exponential backoff; context
// cancellation is respected between attempts.
func (c *AnthropicClient) Complete(ctx context.Context, system, user string) (string, error) {
	params := anthropic.MessageNewParams{
		Model:     c.model,
		MaxTokens: c.maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(user)),
		},
	}
	if system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(1<<attempt) * time.Second
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(backoff):
			}
		}

		resp, err := c.client.Messages.New(ctx, params)
		if err != nil {
			lastErr = err
			continue
		}

		var sb strings.Builder
		for _, block := range resp.Content {
			if block.Type == "text" {
				sb.WriteString(block.Text)
			}
		}
		return strings.TrimSpace(sb.String()), nil
	}
	return "", fmt.Errorf("completion failed after %d attempts: %w", maxAttempts, lastErr)
}
