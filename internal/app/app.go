// Package app assembles the scanner, manifest store, gateway, engine and
// history from a Config. The CLI and the MCP server share it.
package app

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/Aman-CERP/docsync/internal/config"
	docerrors "github.com/Aman-CERP/docsync/internal/errors"
	"github.com/Aman-CERP/docsync/internal/gateway"
	"github.com/Aman-CERP/docsync/internal/history"
	"github.com/Aman-CERP/docsync/internal/manifest"
	"github.com/Aman-CERP/docsync/internal/reconcile"
	"github.com/Aman-CERP/docsync/internal/scanner"
	"github.com/Aman-CERP/docsync/internal/ui"
)

// historySparkWidth is how many recent passes feed the status sparkline.
const historySparkWidth = 20

// Options adjusts how an App is built.
type Options struct {
	// Observer receives pass progress. Optional.
	Observer reconcile.Observer

	// Workers overrides sync.workers when positive.
	Workers int

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// App is a configured synchronization setup for one data directory.
type App struct {
	cfg     *config.Config
	scanner *scanner.Scanner
	store   *manifest.Store
	gateway gateway.Gateway
	engine  *reconcile.Engine
	history *history.Store
	logger  *slog.Logger
}

// New builds an App. The storage directory is created if needed; the data
// directory must already exist when a pass runs.
func New(cfg *config.Config, opts Options) (*App, error) {
	if cfg == nil {
		return nil, docerrors.ValidationError("config is required", nil)
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	if err := os.MkdirAll(cfg.Paths.StorageDir, 0o755); err != nil {
		return nil, docerrors.IOError(cfg.Paths.StorageDir, err)
	}

	sc, err := scanner.New(cfg.Paths.DataDir, ScannerOptions(cfg))
	if err != nil {
		return nil, err
	}

	gw, err := gateway.Open(GatewayOptions(cfg))
	if err != nil {
		return nil, err
	}

	a := &App{
		cfg:     cfg,
		scanner: sc,
		store:   manifest.NewStore(cfg.ManifestPath()),
		gateway: gw,
		logger:  logger,
	}

	workers := cfg.Sync.Workers
	if opts.Workers > 0 {
		workers = opts.Workers
	}
	a.engine, err = reconcile.New(reconcile.Dependencies{
		Source:   sc,
		Store:    a.store,
		Gateway:  gw,
		Workers:  workers,
		Observer: opts.Observer,
		Logger:   logger,
	})
	if err != nil {
		_ = gateway.Close(gw)
		return nil, err
	}

	if cfg.History.Enabled {
		a.history, err = history.Open(cfg.HistoryPath(), cfg.History.Retention)
		if err != nil {
			_ = gateway.Close(gw)
			return nil, err
		}
	}

	return a, nil
}

// ScannerOptions maps the scan section onto scanner options. A storage
// directory nested inside the data directory is excluded.
func ScannerOptions(cfg *config.Config) scanner.Options {
	exclude := slices.Clone(cfg.Scan.Exclude)
	if rel, ok := nestedDir(cfg.Paths.DataDir, cfg.Paths.StorageDir); ok {
		exclude = append(exclude, rel+"/**")
	}
	return scanner.Options{
		Extensions:      cfg.Scan.Extensions,
		Recursive:       cfg.Scan.Recursive,
		ExcludePatterns: exclude,
		MaxFileSize:     cfg.Scan.MaxFileSize,
		Workers:         cfg.Scan.Workers,
		FollowSymlinks:  cfg.Scan.FollowSymlinks,
		CacheSize:       cfg.Scan.CacheSize,
	}
}

// GatewayOptions maps the gateway section onto gateway options.
func GatewayOptions(cfg *config.Config) gateway.Options {
	retry := docerrors.DefaultRetryConfig()
	retry.MaxRetries = cfg.Gateway.MaxRetries
	if d := cfg.RetryDelay(); d > 0 {
		retry.InitialDelay = d
	}
	return gateway.Options{
		Backend:    cfg.Gateway.Backend,
		Dir:        cfg.Paths.StorageDir,
		Dimensions: cfg.Gateway.Dimensions,
		Retry:      retry,
	}
}

// nestedDir returns child relative to parent, slash separated, when child
// lies strictly inside parent.
func nestedDir(parent, child string) (string, bool) {
	rel, err := filepath.Rel(parent, child)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	return filepath.ToSlash(rel), true
}

// Config returns the configuration the App was built from.
func (a *App) Config() *config.Config { return a.cfg }

// Scanner returns the document scanner.
func (a *App) Scanner() *scanner.Scanner { return a.scanner }

// Engine returns the reconciliation engine.
func (a *App) Engine() *reconcile.Engine { return a.engine }

// Sync runs one pass and records it in history.
func (a *App) Sync(ctx context.Context) (*reconcile.Report, error) {
	report, err := a.engine.Run(ctx)
	a.record(ctx, report, err)
	return report, err
}

// Run implements watcher.Runner.
func (a *App) Run(ctx context.Context) (*reconcile.Report, error) {
	return a.Sync(ctx)
}

func (a *App) record(ctx context.Context, report *reconcile.Report, err error) {
	if a.history == nil || report == nil {
		return
	}
	// Nothing ran, so there is nothing to remember.
	if errors.Is(err, docerrors.ErrPassInProgress) {
		return
	}
	if recErr := a.history.Record(context.WithoutCancel(ctx), history.FromReport(report)); recErr != nil {
		a.logger.Warn("history_record_failed",
			slog.String("pass_id", report.ID),
			slog.String("error", recErr.Error()))
	}
}

// DryRun reports pending changes without applying them.
func (a *App) DryRun(ctx context.Context) (*reconcile.ChangeSet, error) {
	return a.engine.DryRun(ctx)
}

// Search queries the index. Backends without search support return a
// validation error.
func (a *App) Search(ctx context.Context, query string, limit int) ([]gateway.Hit, error) {
	if strings.TrimSpace(query) == "" {
		return nil, docerrors.New(docerrors.ErrCodeQueryEmpty, "search query is empty", nil)
	}
	s, ok := gateway.AsSearcher(a.gateway)
	if !ok {
		return nil, docerrors.ValidationError(
			fmt.Sprintf("backend %q does not support search", a.cfg.Gateway.Backend), nil)
	}
	return s.Search(ctx, query, limit)
}

// History returns up to n recent passes, newest first. It is empty when
// history is disabled.
func (a *App) History(ctx context.Context, n int) ([]history.Pass, error) {
	if a.history == nil {
		return []history.Pass{}, nil
	}
	return a.history.Recent(ctx, n)
}

// Status collects the information shown by `docsync status`.
func (a *App) Status(ctx context.Context) (ui.StatusInfo, error) {
	info := ui.StatusInfo{
		DataDir:      a.cfg.Paths.DataDir,
		Backend:      a.cfg.Gateway.Backend,
		ManifestPath: a.store.Path(),
		IndexCount:   -1,
	}

	m, err := a.store.Load()
	if err != nil {
		return info, err
	}
	info.ManifestEntries = len(m)

	if info.ManifestSize, err = a.store.Stat(); err != nil {
		return info, err
	}

	if c, ok := gateway.AsCounter(a.gateway); ok {
		if n, err := c.Count(); err == nil {
			info.IndexCount = n
		} else {
			a.logger.Warn("index_count_failed", slog.String("error", err.Error()))
		}
	}
	info.IndexSize = indexSize(a.cfg.Paths.StorageDir)

	if a.history != nil {
		recent, err := a.history.Recent(ctx, historySparkWidth)
		if err != nil {
			return info, err
		}
		if len(recent) > 0 {
			last := recent[0]
			info.LastPass = &last
			info.RecentApplied = make([]int, len(recent))
			for i, p := range recent {
				info.RecentApplied[len(recent)-1-i] = p.Added + p.Modified + p.Deleted
			}
		}
	}

	// A missing data directory still leaves the rest of the status useful.
	cs, err := a.engine.DryRun(ctx)
	switch {
	case err == nil:
		info.Pending = cs
	case errors.Is(err, docerrors.ErrDirNotFound):
		a.logger.Debug("status_pending_skipped", slog.String("error", err.Error()))
	default:
		return info, err
	}

	return info, nil
}

// indexSize sums the on-disk size of the index files in dir.
func indexSize(dir string) int64 {
	var total int64
	for _, name := range []string{gateway.BleveDirName, gateway.VectorFileName} {
		_ = filepath.WalkDir(filepath.Join(dir, name), func(_ string, d fs.DirEntry, err error) error {
			if err != nil || d.IsDir() {
				return nil
			}
			if info, err := d.Info(); err == nil {
				total += info.Size()
			}
			return nil
		})
	}
	return total
}

// Close releases the gateway and history handles.
func (a *App) Close() error {
	var errs []error
	if err := gateway.Close(a.gateway); err != nil {
		errs = append(errs, fmt.Errorf("failed to close gateway: %w", err))
	}
	if a.history != nil {
		if err := a.history.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close history: %w", err))
		}
	}
	return errors.Join(errs...)
}
