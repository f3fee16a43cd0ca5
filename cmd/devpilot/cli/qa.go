package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"devpilot.io/cli/cmd/devpilot/cli/deploy"
	"devpilot.io/cli/cmd/devpilot/cli/paths"
	"devpilot.io/cli/cmd/devpilot/cli/settings"
	"github.com/spf13/cobra"
)

func newQACmd() *cobra.Command {
	var stepsFlag string
	var verboseFlag bool

	cmd := &cobra.Command{
		Use:   "qa",
		Short: "Run the post-deploy QA steps",
		Long: `QA runs the step list from the configured YAML file: drush commands,
PHP snippets, shell commands, and HTTP probes. A failing step stops the run
and exits non-zero.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			root, err := paths.RepoRoot()
			if err != nil {
				return err
			}

			stepsPath := stepsFlag
			if stepsPath == "" {
				s, err := settings.Load()
				if err != nil {
					return err
				}
				if s.DeploySteps == "" {
					return fmt.Errorf("no QA steps configured (set deploy_steps in %s or pass --steps)", settings.DevpilotSettingsFile)
				}
				stepsPath = filepath.Join(root, s.DeploySteps)
			}

			data, err := os.ReadFile(stepsPath) //nolint:gosec // path from settings or flag
			if err != nil {
				return fmt.Errorf("reading steps file: %w", err)
			}
			steps, err := deploy.DecodeSteps(data)
			if err != nil {
				return err
			}

			runner := &deploy.Runner{WorkDir: root}
			for i, step := range steps {
				fmt.Fprintf(cmd.OutOrStdout(), "[%d/%d] %s\n", i+1, len(steps), step.Describe())
				res, err := runner.Run(cmd.Context(), step)
				if err != nil {
					return err
				}
				if verboseFlag && res.Output != "" {
					fmt.Fprintln(cmd.OutOrStdout(), res.Output)
				}
				if !res.OK {
					fmt.Fprintln(cmd.ErrOrStderr(), res.Output)
					return NewSilentError(fmt.Errorf("step %q failed", step.Describe()))
				}
			}

			fmt.Fprintf(cmd.OutOrStdout(), "All %d steps passed.\n", len(steps))
			return nil
		},
	}

	cmd.Flags().StringVar(&stepsFlag, "steps", "", "path to the QA steps YAML file")
	cmd.Flags().BoolVarP(&verboseFlag, "verbose", "v", false, "print step output even on success")

	return cmd
}
