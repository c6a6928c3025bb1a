package cmd

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/Aman-CERP/docsync/internal/app"
	docerrors "github.com/Aman-CERP/docsync/internal/errors"
	"github.com/Aman-CERP/docsync/internal/mcp"
	"github.com/Aman-CERP/docsync/internal/reconcile"
)

func newServeCmd(root *rootOptions) *cobra.Command {
	var (
		transport string
		watch     bool
		wopts     watchOptions
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve sync tools over MCP",
		Long: `Start an MCP server on stdio exposing sync_documents, sync_status and
search_documents.

stdout carries the protocol only; logs go to the log file. With --watch
the server also follows the data directory like 'docsync watch'.`,
		Example: `  docsync serve
  docsync serve --watch --interval 15m`,
		Annotations: map[string]string{stdioAnnotation: "true"},
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := root.config()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := app.New(cfg, app.Options{})
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			srv, err := mcp.NewServer(a, slog.Default())
			if err != nil {
				return err
			}

			if !watch {
				return srv.Serve(ctx, transport)
			}

			// The watcher stops when the client disconnects.
			ctx, cancel := context.WithCancel(ctx)
			defer cancel()
			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				defer cancel()
				return srv.Serve(gctx, transport)
			})
			g.Go(func() error {
				return runWatch(gctx, a, cfg, wopts, logReport)
			})
			err = g.Wait()
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}

	cmd.Flags().StringVar(&transport, "transport", "stdio", "Transport (stdio)")
	cmd.Flags().BoolVar(&watch, "watch", false, "Also sync whenever documents change")
	cmd.Flags().DurationVar(&wopts.interval, "interval", 0, "With --watch, also sync periodically")
	cmd.Flags().BoolVar(&wopts.poll, "poll", false, "With --watch, poll instead of using fsnotify")

	return cmd
}

// logReport logs a pass summary; serve cannot print to stdout.
func logReport(r *reconcile.Report, err error) {
	if r == nil {
		return
	}
	attrs := []any{
		slog.String("pass_id", r.ID),
		slog.String("status", r.Status.String()),
		slog.Int("added", r.Added),
		slog.Int("modified", r.Modified),
		slog.Int("deleted", r.Deleted),
		slog.Int("failed", r.Failed()),
	}
	if err != nil {
		attrs = append(attrs, docerrors.LogArgs(err)...)
	}
	slog.Info("watch_pass_completed", attrs...)
}
