package cli

import (
	"fmt"

	"devpilot.io/cli/cmd/devpilot/cli/manifest"
	"devpilot.io/cli/cmd/devpilot/cli/paths"
	"github.com/spf13/cobra"
)

func newManifestCmd() *cobra.Command {
	var repoFlag string
	var previewFlag bool

	cmd := &cobra.Command{
		Use:   "manifest [manifest-file]",
		Short: "Write files from a JSON file manifest",
		Long: `Manifest extracts a {"files": [{"path": ..., "content": ...}]} object
from model output (fenced or raw), repairs common JSON escape damage, and
writes the files under the repository's document root. Paths outside the
allowed directories are rejected before anything is written.

Reads from stdin when no file is given.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) == 1 {
				path = args[0]
			}
			raw, err := readInput(path)
			if err != nil {
				return err
			}

			repoRoot := repoFlag
			if repoRoot == "" {
				repoRoot, err = paths.RepoRoot()
				if err != nil {
					return err
				}
			}

			w := manifest.Writer{
				RepoRoot:    repoRoot,
				AllowedDirs: riskConfigFromSettings().AllowedPrefixes,
				DocRoot:     manifest.DetectDocRoot(repoRoot),
			}

			if previewFlag {
				diff, err := w.Preview(raw)
				if err != nil {
					return err
				}
				fmt.Fprint(cmd.OutOrStdout(), diff)
				return nil
			}

			written, err := w.WriteFiles(raw)
			if err != nil {
				return err
			}
			lastApplied = true
			for _, p := range written {
				fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", p)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&repoFlag, "repo", "", "repository root (default: discovered via git)")
	cmd.Flags().BoolVar(&previewFlag, "preview", false, "show what would change without writing")

	return cmd
}
