package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"devpilot.io/cli/cmd/devpilot/cli/paths"
	"devpilot.io/cli/cmd/devpilot/cli/settings"
	"github.com/spf13/cobra"
)

func newInitCmd() *cobra.Command {
	var forceFlag bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create the .devpilot settings file in this repository",
		RunE: func(cmd *cobra.Command, _ []string) error {
			root, err := paths.RepoRoot()
			if err != nil {
				return err
			}

			settingsPath := filepath.Join(root, settings.DevpilotSettingsFile)
			if _, err := os.Stat(settingsPath); err == nil && !forceFlag {
				return fmt.Errorf("%s already exists (use --force to overwrite)", settings.DevpilotSettingsFile)
			}
			if err := os.MkdirAll(filepath.Dir(settingsPath), 0o755); err != nil {
				return fmt.Errorf("creating %s: %w", paths.DevpilotDir, err)
			}

			cfg := &settings.DevpilotSettings{Enabled: true}

			if isInteractive() {
				optIn, err := confirmProceed(
					"Enable anonymous usage telemetry?",
					"Only command names and flag names are recorded, never content.",
				)
				if err != nil {
					return err
				}
				cfg.Telemetry = &optIn
			}

			if err := settings.Save(cfg); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", settings.DevpilotSettingsFile)
			fmt.Fprintln(cmd.OutOrStdout(), "Edit it to configure guardrails, tracker, and review endpoints.")
			return nil
		},
	}

	cmd.Flags().BoolVar(&forceFlag, "force", false, "overwrite an existing settings file")

	return cmd
}
