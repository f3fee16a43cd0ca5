// Package telemetry records anonymous CLI usage events.
package telemetry

import (
	"net"
	"net/http"
	"os"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/denisbrodbeck/machineid"
	"github.com/posthog/posthog-go"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var (
	// PostHogAPIKey is set at build time for production
	PostHogAPIKey = "phc_development_key"
	// PostHogEndpoint is set at build time for production
	PostHogEndpoint = "https://eu.i.posthog.com"
)

// Client defines the telemetry interface
type Client interface {
	TrackCommand(cmd *cobra.Command, riskLevel string, applied bool)
	Close()
}

// NoOpClient is a no-op implementation for when telemetry is disabled
type NoOpClient struct{}

func (n *NoOpClient) TrackCommand(_ *cobra.Command, _ string, _ bool) {}
func (n *NoOpClient) Close()                                          {}

// silentLogger suppresses PostHog log output - expected for CLI best-effort telemetry
type silentLogger struct{}

func (silentLogger) Logf(_ string, _ ...interface{})   {}
func (silentLogger) Debugf(_ string, _ ...interface{}) {}
func (silentLogger) Warnf(_ string, _ ...interface{})  {}
func (silentLogger) Errorf(_ string, _ ...interface{}) {}

// PostHogClient is the real telemetry client
type PostHogClient struct {
	client     posthog.Client
	machineID  string
	cliVersion string
	mu         sync.RWMutex
}

// NewClient creates a new telemetry client based on opt-out settings.
// The telemetryEnabled parameter comes from settings; nil means not configured
// (default to disabled).
//
//nolint:ireturn // Factory function - returns NoOpClient or PostHogClient based on settings
func NewClient(version string, telemetryEnabled *bool) Client {
	// Environment variable takes priority
	if os.Getenv("DEVPILOT_TELEMETRY_OPTOUT") != "" {
		return &NoOpClient{}
	}

	if telemetryEnabled == nil || !*telemetryEnabled {
		return &NoOpClient{}
	}

	id, err := machineid.ProtectedID("devpilot-cli")
	if err != nil {
		return &NoOpClient{}
	}

	// Use a fast-timeout HTTP transport for telemetry - we don't want to block CLI exit
	transport := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout: 100 * time.Millisecond,
		}).DialContext,
		TLSHandshakeTimeout:   100 * time.Millisecond,
		ResponseHeaderTimeout: 100 * time.Millisecond,
	}

	client, err := posthog.NewWithConfig(PostHogAPIKey, posthog.Config{
		Endpoint:           PostHogEndpoint,
		ShutdownTimeout:    100 * time.Millisecond,
		BatchUploadTimeout: 200 * time.Millisecond,
		Transport:          transport,
		Logger:             silentLogger{}, // Suppress warnings on timeout (expected)
		DisableGeoIP:       posthog.Ptr(true),
		DefaultEventProperties: posthog.NewProperties().
			Set("cli_version", version).
			Set("os", runtime.GOOS).
			Set("arch", runtime.GOARCH),
	})
	if err != nil {
		return &NoOpClient{}
	}

	return &PostHogClient{
		client:     client,
		machineID:  id,
		cliVersion: version,
	}
}

// TrackCommand records the command execution. riskLevel is the guardrail
// outcome for commands that assessed a patch ("" otherwise); applied reports
// whether changes reached the working tree.
func (p *PostHogClient) TrackCommand(cmd *cobra.Command, riskLevel string, applied bool) {
	if cmd == nil {
		return
	}
	if cmd.Hidden {
		return
	}

	p.mu.RLock()
	id := p.machineID
	c := p.client
	p.mu.RUnlock()

	if c == nil {
		return
	}

	// Collect flag names (not values) for privacy
	var flags []string
	cmd.Flags().Visit(func(flag *pflag.Flag) {
		flags = append(flags, flag.Name)
	})

	props := posthog.NewProperties().
		Set("command", cmd.CommandPath()).
		Set("applied", applied)
	if riskLevel != "" {
		props.Set("risk_level", riskLevel)
	}
	if len(flags) > 0 {
		props.Set("flags", strings.Join(flags, ","))
	}

	//nolint:errcheck // Best-effort telemetry, failures should not affect CLI
	_ = c.Enqueue(posthog.Capture{
		DistinctId: id,
		Event:      "cli_command_executed",
		Properties: props,
	})
}

// Close flushes pending events
func (p *PostHogClient) Close() {
	p.mu.RLock()
	c := p.client
	p.mu.RUnlock()

	if c != nil {
		_ = c.Close()
	}
}
