package cmd

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/docsync/internal/app"
	"github.com/Aman-CERP/docsync/internal/config"
	"github.com/Aman-CERP/docsync/internal/reconcile"
	"github.com/Aman-CERP/docsync/internal/ui"
	"github.com/Aman-CERP/docsync/internal/watcher"
)

type watchOptions struct {
	interval time.Duration
	poll     bool
}

func newWatchCmd(root *rootOptions) *cobra.Command {
	var opts watchOptions

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Sync whenever documents change",
		Long: `Run a pass on start, then again whenever files in the data directory
change. Bursts of changes are debounced and coalesced into a single pass.

With --interval a pass also runs periodically, which catches changes on
filesystems that do not deliver events.`,
		Example: `  # Follow the data directory
  docsync watch

  # Also sync every ten minutes, using polling instead of fsnotify
  docsync watch --interval 10m --poll`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := root.config()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			renderer := ui.NewRenderer(ui.NewConfig(cmd.OutOrStdout(),
				ui.WithNoColor(root.noColor),
				ui.WithProjectDir(cfg.Paths.DataDir),
			))
			a, err := app.New(cfg, app.Options{Observer: renderer})
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			return runWatch(ctx, a, cfg, opts, func(r *reconcile.Report, _ error) {
				if r != nil {
					renderer.Report(r)
				}
			})
		},
	}

	cmd.Flags().DurationVar(&opts.interval, "interval", 0, "Also sync periodically (default: sync.interval)")
	cmd.Flags().BoolVar(&opts.poll, "poll", false, "Poll for changes instead of using fsnotify")

	return cmd
}

// runWatch watches the data directory and runs passes until ctx is done.
func runWatch(ctx context.Context, a *app.App, cfg *config.Config, opts watchOptions, onReport func(*reconcile.Report, error)) error {
	w, err := watcher.NewHybridWatcher(watcher.Options{
		DebounceWindow: cfg.DebounceDuration(),
		Match:          a.Scanner().Matches,
		IgnoreDirs:     []string{cfg.Paths.StorageDir},
		ForcePolling:   opts.poll,
	})
	if err != nil {
		return err
	}
	if err := w.Start(ctx, cfg.Paths.DataDir); err != nil {
		return err
	}
	defer func() { _ = w.Stop() }()

	go func() {
		for err := range w.Errors() {
			slog.Warn("watcher_error", slog.String("error", err.Error()))
		}
	}()

	interval := opts.interval
	if interval <= 0 {
		interval = cfg.SyncInterval()
	}

	slog.Info("watch_started",
		slog.String("data_dir", cfg.Paths.DataDir),
		slog.String("watcher", w.WatcherType()),
		slog.Duration("interval", interval))

	trigger := watcher.NewTrigger(a, watcher.TriggerOptions{
		Interval:   interval,
		RunOnStart: true,
		OnReport:   onReport,
	}, slog.Default())
	return trigger.Run(ctx, w.Events())
}
