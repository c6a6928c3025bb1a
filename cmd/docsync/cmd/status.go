package cmd

import (
	"github.com/spf13/cobra"

	"github.com/Aman-CERP/docsync/internal/app"
	"github.com/Aman-CERP/docsync/internal/ui"
)

func newStatusCmd(root *rootOptions) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show manifest, index and pending changes",
		Long: `Show the manifest and index sizes, the last recorded pass, and how many
documents the next pass would add, modify or delete.

Status never modifies the index.`,
		Example: `  docsync status
  docsync status --json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := root.config()
			if err != nil {
				return err
			}

			a, err := app.New(cfg, app.Options{})
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			info, err := a.Status(cmd.Context())
			if err != nil {
				return err
			}

			renderer := ui.NewStatusRenderer(cmd.OutOrStdout(), root.noColor || !ui.IsTTY(cmd.OutOrStdout()))
			if jsonOutput {
				return renderer.RenderJSON(info)
			}
			return renderer.Render(info)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	return cmd
}
