package watcher

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	docerrors "github.com/Aman-CERP/docsync/internal/errors"
	"github.com/Aman-CERP/docsync/internal/reconcile"
)

// Runner runs one synchronization pass.
type Runner interface {
	Run(ctx context.Context) (*reconcile.Report, error)
}

// TriggerOptions configures a Trigger.
type TriggerOptions struct {
	// Interval runs a pass periodically. Zero disables the ticker.
	Interval time.Duration

	// RunOnStart runs one pass before waiting for events.
	RunOnStart bool

	// OnReport is called after every pass, from the pass goroutine.
	OnReport func(*reconcile.Report, error)
}

// Trigger serialises passes requested by filesystem events, a ticker, or
// direct calls to Kick. At most one request is queued while a pass runs.
type Trigger struct {
	runner Runner
	opts   TriggerOptions
	logger *slog.Logger
	queue  chan string

	passes   atomic.Int64
	coalesce atomic.Int64
}

// NewTrigger creates a Trigger. A nil logger uses slog.Default().
func NewTrigger(runner Runner, opts TriggerOptions, logger *slog.Logger) *Trigger {
	if logger == nil {
		logger = slog.Default()
	}
	return &Trigger{
		runner: runner,
		opts:   opts,
		logger: logger,
		queue:  make(chan string, 1),
	}
}

// Kick requests a pass. It returns false when a request is already queued,
// in which case the two are served by the same pass.
func (t *Trigger) Kick(reason string) bool {
	select {
	case t.queue <- reason:
		t.logger.Debug("sync_pass_requested", slog.String("reason", reason))
		return true
	default:
		t.coalesce.Add(1)
		return false
	}
}

// Passes returns the number of passes run so far.
func (t *Trigger) Passes() int64 {
	return t.passes.Load()
}

// Coalesced returns the number of requests folded into an already queued pass.
func (t *Trigger) Coalesced() int64 {
	return t.coalesce.Load()
}

// Run serves requests until ctx is cancelled. events may be nil. A closed
// events channel stops event-driven triggers but not the ticker.
func (t *Trigger) Run(ctx context.Context, events <-chan []FileEvent) error {
	if t.opts.RunOnStart {
		t.Kick("startup")
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var tick <-chan time.Time
		if t.opts.Interval > 0 {
			ticker := time.NewTicker(t.opts.Interval)
			defer ticker.Stop()
			tick = ticker.C
		}

		for {
			select {
			case <-gctx.Done():
				return nil
			case <-tick:
				t.Kick("interval")
			case batch, ok := <-events:
				if !ok {
					events = nil
					continue
				}
				if len(batch) > 0 {
					t.logger.Debug("watch_events_received", slog.Int("count", len(batch)))
					t.Kick("fs_events")
				}
			}
		}
	})

	g.Go(func() error {
		for {
			select {
			case <-gctx.Done():
				return nil
			case reason := <-t.queue:
				t.runPass(gctx, reason)
			}
		}
	})

	return g.Wait()
}

func (t *Trigger) runPass(ctx context.Context, reason string) {
	t.passes.Add(1)
	report, err := t.runner.Run(ctx)

	switch {
	case err == nil:
	case docerrors.GetCode(err) == docerrors.ErrCodePassInProgress:
		// Another process holds the lock; its pass covers these changes.
		t.logger.Info("sync_pass_skipped", slog.String("reason", reason), slog.String("error", err.Error()))
	default:
		t.logger.Warn("watch_pass_failed", slog.String("reason", reason), slog.String("error", err.Error()))
	}

	if t.opts.OnReport != nil {
		t.opts.OnReport(report, err)
	}
}
