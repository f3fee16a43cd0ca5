package cli

import (
	"fmt"
	"runtime"

	"devpilot.io/cli/cmd/devpilot/cli/settings"
	"devpilot.io/cli/cmd/devpilot/cli/telemetry"
	"devpilot.io/cli/cmd/devpilot/cli/versioncheck"
	"github.com/spf13/cobra"
)

const gettingStarted = `

Getting Started:
  devpilot turns issue tracker tickets into reviewed merge requests.
  Run 'devpilot task PROJ-123' inside a repository to process a ticket,
  or 'devpilot assess' to inspect a patch before applying it.

`

const accessibilityHelp = `
Environment Variables:
  ACCESSIBLE    Set to any value (e.g., ACCESSIBLE=1) to enable accessibility
                mode. This uses simpler text prompts instead of interactive
                TUI elements, which works better with screen readers.
`

// Version information (can be set at build time)
var (
	Version = "dev"
	Commit  = "unknown"
)

// lastRiskLevel and lastApplied record the guardrail outcome of the executed
// command for telemetry. Commands that assess patches set them.
var (
	lastRiskLevel string
	lastApplied   bool
)

func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "devpilot",
		Short: "Devpilot CLI",
		Long:  "A command-line interface for ticket-to-merge-request automation" + gettingStarted + accessibilityHelp,
		// Let main.go handle error printing to avoid duplication
		SilenceErrors: true,
		// Hide completion command from help but keep it functional
		CompletionOptions: cobra.CompletionOptions{
			HiddenDefaultCmd: true,
		},
		PersistentPostRun: func(cmd *cobra.Command, _ []string) {
			// Load telemetry preference from settings (ignore errors - nil defaults to disabled)
			var telemetryEnabled *bool
			if s, err := settings.Load(); err == nil {
				telemetryEnabled = s.Telemetry
			}

			telemetryClient := telemetry.NewClient(Version, telemetryEnabled)
			defer telemetryClient.Close()
			telemetryClient.TrackCommand(cmd, lastRiskLevel, lastApplied)

			versioncheck.CheckAndNotify(cmd, Version)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	cmd.AddCommand(newInitCmd())
	cmd.AddCommand(newTaskCmd())
	cmd.AddCommand(newAssessCmd())
	cmd.AddCommand(newApplyCmd())
	cmd.AddCommand(newManifestCmd())
	cmd.AddCommand(newReviewCmd())
	cmd.AddCommand(newQACmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Printf("Devpilot CLI %s (%s)\n", Version, Commit)
			fmt.Printf("Go version: %s\n", runtime.Version())
			fmt.Printf("OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
		},
	}
}
