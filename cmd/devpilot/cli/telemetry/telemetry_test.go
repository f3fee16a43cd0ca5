package telemetry

import (
	"testing"

	"github.com/spf13/cobra"
)

func TestNewClientOptOut(t *testing.T) {
	t.Setenv("DEVPILOT_TELEMETRY_OPTOUT", "1")

	client := NewClient("1.0.0", nil)

	if _, ok := client.(*NoOpClient); !ok {
		t.Error("DEVPILOT_TELEMETRY_OPTOUT=1 should return NoOpClient")
	}
}

func TestNewClientTelemetryDisabledInSettings(t *testing.T) {
	disabled := false
	client := NewClient("1.0.0", &disabled)

	if _, ok := client.(*NoOpClient); !ok {
		t.Error("telemetryEnabled=false should return NoOpClient")
	}
}

func TestNewClientNilTelemetryDefaultsToDisabled(t *testing.T) {
	t.Setenv("DEVPILOT_TELEMETRY_OPTOUT", "")

	client := NewClient("1.0.0", nil)

	if _, ok := client.(*NoOpClient); !ok {
		t.Error("telemetryEnabled=nil should return NoOpClient (disabled by default)")
	}
}

func TestNoOpClientMethods(_ *testing.T) {
	client := &NoOpClient{}

	// Should not panic
	client.TrackCommand(nil, "", false)
	client.TrackCommand(&cobra.Command{Use: "test"}, "high", true)
	client.Close()
}

func TestPostHogClientSkipsHiddenCommands(_ *testing.T) {
	client := &PostHogClient{
		machineID: "test-id",
	}

	hiddenCmd := &cobra.Command{
		Use:    "hidden",
		Hidden: true,
	}

	client.TrackCommand(hiddenCmd, "low", false)
}

func TestPostHogClientSkipsNilCommand(_ *testing.T) {
	client := &PostHogClient{
		machineID: "test-id",
	}

	client.TrackCommand(nil, "", false)
}

func TestPostHogClientClose(_ *testing.T) {
	client := &PostHogClient{
		machineID: "test-id",
		// client is nil, should not panic
	}

	client.Close()
}

func TestTrackCommandUsesCommandPath(t *testing.T) {
	client := &PostHogClient{
		machineID: "test-id",
	}

	cmd := &cobra.Command{
		Use: "assess",
	}
	rootCmd := &cobra.Command{
		Use: "devpilot",
	}
	rootCmd.AddCommand(cmd)

	if cmd.CommandPath() != "devpilot assess" {
		t.Errorf("CommandPath() = %q, want %q", cmd.CommandPath(), "devpilot assess")
	}

	// TrackCommand should not panic with nil internal client
	client.TrackCommand(cmd, "medium", true)
}
