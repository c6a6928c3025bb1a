package cmd

import (
	"github.com/spf13/cobra"

	"github.com/Aman-CERP/docsync/internal/app"
	"github.com/Aman-CERP/docsync/internal/ui"
)

func newSyncCmd(root *rootOptions) *cobra.Command {
	var (
		dryRun  bool
		workers int
		verbose bool
	)

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Run one synchronization pass",
		Long: `Scan the data directory, compare it with the manifest, and apply the
differences to the index.

Documents that fail to index are reported and retried on the next pass.
The command exits non-zero when the pass fails.`,
		Example: `  # Sync the default data directory
  docsync sync

  # Show what would change without touching the index
  docsync sync --dry-run --verbose

  # Sync another directory with four gateway workers
  docsync sync --data-dir ./docs --workers 4`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := root.config()
			if err != nil {
				return err
			}

			renderer := ui.NewRenderer(ui.NewConfig(cmd.OutOrStdout(),
				ui.WithNoColor(root.noColor),
				ui.WithVerbose(verbose),
				ui.WithLive(true),
				ui.WithProjectDir(cfg.Paths.DataDir),
			))

			a, err := app.New(cfg, app.Options{Observer: renderer, Workers: workers})
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			if dryRun {
				cs, err := a.DryRun(cmd.Context())
				if err != nil {
					return err
				}
				renderer.ChangeSet(cs)
				return nil
			}

			report, err := a.Sync(cmd.Context())
			if report != nil {
				renderer.Report(report)
			}
			return err
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Report pending changes without applying them")
	cmd.Flags().IntVarP(&workers, "workers", "w", 0, "Concurrent gateway calls (default: sync.workers)")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "List every pending document")

	return cmd
}
