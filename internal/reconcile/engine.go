// Package reconcile brings an index in line with a document directory.
//
// A pass scans the directory, diffs it against the manifest of what was last
// indexed, applies the differences through a gateway, persists the gateway
// and only then saves the new manifest. The manifest never claims a document
// the index does not durably hold.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/Aman-CERP/docsync/internal/document"
	docerrors "github.com/Aman-CERP/docsync/internal/errors"
	"github.com/Aman-CERP/docsync/internal/gateway"
	"github.com/Aman-CERP/docsync/internal/hasher"
	"github.com/Aman-CERP/docsync/internal/manifest"
	"github.com/Aman-CERP/docsync/internal/scanner"
)

// Source lists the documents of a directory and loads them by identity.
type Source interface {
	Scan(ctx context.Context) (*scanner.Snapshot, error)
	Load(ctx context.Context, identity string) (*document.Document, error)
}

// ManifestStore loads, saves and locks a manifest.
type ManifestStore interface {
	Load() (manifest.Manifest, error)
	Save(m manifest.Manifest) error
	Lock() (*manifest.PassLock, error)
}

// Dependencies are the collaborators of an Engine.
type Dependencies struct {
	// Source scans and loads documents (required).
	Source Source

	// Store holds the manifest (required).
	Store ManifestStore

	// Gateway is the index being synchronized (required).
	Gateway gateway.Gateway

	// Workers bounds concurrent gateway calls. Defaults to 1.
	Workers int

	// Observer receives progress. Optional.
	Observer Observer

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// Engine runs synchronization passes. Passes never overlap.
type Engine struct {
	source   Source
	store    ManifestStore
	gateway  gateway.Gateway
	updater  gateway.Updater
	workers  int
	observer Observer
	logger   *slog.Logger

	mu sync.Mutex
}

// New creates an Engine.
func New(deps Dependencies) (*Engine, error) {
	if deps.Source == nil {
		return nil, fmt.Errorf("document source is required")
	}
	if deps.Store == nil {
		return nil, fmt.Errorf("manifest store is required")
	}
	if deps.Gateway == nil {
		return nil, fmt.Errorf("gateway is required")
	}
	if deps.Workers < 0 {
		return nil, docerrors.ValidationError(fmt.Sprintf("workers must be positive, got %d", deps.Workers), nil)
	}

	workers := deps.Workers
	if workers == 0 {
		workers = 1
	}
	observer := deps.Observer
	if observer == nil {
		observer = nopObserver{}
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	updater, _ := gateway.AsUpdater(deps.Gateway)

	return &Engine{
		source:   deps.Source,
		store:    deps.Store,
		gateway:  deps.Gateway,
		updater:  updater,
		workers:  workers,
		observer: observer,
		logger:   logger,
	}, nil
}

// DryRun scans and diffs without touching the gateway or the manifest.
func (e *Engine) DryRun(ctx context.Context) (*ChangeSet, error) {
	indexed, err := e.store.Load()
	if err != nil {
		return nil, err
	}
	snap, err := e.source.Scan(ctx)
	if err != nil {
		return nil, err
	}
	return Diff(indexed, snap.Fingerprints()), nil
}

// Run executes one pass. The report is always returned; the error is the
// report's Err when the pass ends FAILED.
func (e *Engine) Run(ctx context.Context) (*Report, error) {
	p := &pass{
		engine: e,
		report: &Report{
			ID:        uuid.NewString(),
			StartedAt: time.Now(),
		},
	}

	if !e.mu.TryLock() {
		return p.fail(docerrors.New(docerrors.ErrCodePassInProgress,
			"a sync pass is already running in this process", nil))
	}
	defer e.mu.Unlock()

	lock, err := e.store.Lock()
	if err != nil {
		return p.fail(err)
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			e.logger.Warn("pass_lock_release_failed", slog.String("error", err.Error()))
		}
	}()

	return p.run(ctx)
}

// outcome is what happened to one identity during APPLYING.
type outcome struct {
	op          string
	deleted     bool // the delete step succeeded
	inserted    bool // the insert or update step succeeded
	fingerprint string
	err         error
}

func (o *outcome) failed() bool { return o.err != nil }

// pass holds the state of a single Run.
type pass struct {
	engine *Engine
	report *Report

	mu       sync.Mutex
	outcomes map[string]*outcome
}

func (p *pass) setState(s State) {
	p.report.Status = s
	p.engine.observer.StateChanged(p.report.ID, s)
	p.engine.logger.Debug("sync_pass_state",
		slog.String("pass_id", p.report.ID),
		slog.String("state", s.String()))
}

func (p *pass) fail(err error) (*Report, error) {
	p.report.Err = err
	p.report.Duration = time.Since(p.report.StartedAt)
	p.setState(StateFailed)

	attrs := append([]any{
		slog.String("pass_id", p.report.ID),
		slog.Duration("duration", p.report.Duration),
	}, docerrors.LogArgs(err)...)
	p.engine.logger.Error("sync_pass_failed", attrs...)
	return p.report, err
}

func (p *pass) run(ctx context.Context) (*Report, error) {
	e := p.engine
	e.logger.Info("sync_pass_started", slog.String("pass_id", p.report.ID))

	// SCANNING
	p.setState(StateScanning)
	start := time.Now()
	indexed, err := e.store.Load()
	if err != nil {
		return p.fail(err)
	}
	snap, err := e.source.Scan(ctx)
	if err != nil {
		return p.fail(err)
	}
	p.report.Stages.Scan = time.Since(start)

	// DIFFING
	p.setState(StateDiffing)
	start = time.Now()
	cs := Diff(indexed, snap.Fingerprints())
	p.report.Unchanged = len(cs.Unchanged)
	p.report.Stages.Diff = time.Since(start)

	if cs.Empty() {
		return p.done()
	}

	// APPLYING
	p.setState(StateApplying)
	start = time.Now()
	p.outcomes = make(map[string]*outcome, cs.Pending())
	if err := p.apply(ctx, cs); err != nil {
		p.rollback()
		return p.fail(err)
	}
	p.report.Stages.Apply = time.Since(start)

	// COMMITTING
	p.setState(StateCommitting)
	start = time.Now()
	if err := p.commit(ctx, indexed); err != nil {
		return p.fail(err)
	}
	p.report.Stages.Commit = time.Since(start)

	return p.done()
}

func (p *pass) done() (*Report, error) {
	r := p.report
	r.Duration = time.Since(r.StartedAt)
	p.setState(StateDone)

	p.engine.logger.Info("sync_pass_complete",
		slog.String("pass_id", r.ID),
		slog.Int("added", r.Added),
		slog.Int("modified", r.Modified),
		slog.Int("deleted", r.Deleted),
		slog.Int("unchanged", r.Unchanged),
		slog.Int("failed", r.Failed()),
		slog.Bool("manifest_saved", r.ManifestSaved),
		slog.Int64("duration_total_ms", r.Duration.Milliseconds()),
		slog.Int64("duration_scan_ms", r.Stages.Scan.Milliseconds()),
		slog.Int64("duration_diff_ms", r.Stages.Diff.Milliseconds()),
		slog.Int64("duration_apply_ms", r.Stages.Apply.Milliseconds()),
		slog.Int64("duration_commit_ms", r.Stages.Commit.Milliseconds()))
	return r, nil
}

// apply runs the delete phase to completion, then the insert phase.
// It returns an error only when the pass is aborted.
func (p *pass) apply(ctx context.Context, cs *ChangeSet) error {
	var deletes []task
	for _, id := range cs.Deleted {
		deletes = append(deletes, task{id: id, op: OpDelete})
	}
	if p.engine.updater == nil {
		for _, id := range cs.Modified {
			deletes = append(deletes, task{id: id, op: OpModify})
		}
	}
	if err := p.runPhase(ctx, deletes, p.deleteOne); err != nil {
		return err
	}

	var inserts []task
	for _, id := range cs.Added {
		inserts = append(inserts, task{id: id, op: OpAdd})
	}
	for _, id := range cs.Modified {
		if o := p.outcome(id); o != nil && o.failed() {
			continue
		}
		inserts = append(inserts, task{id: id, op: OpModify})
	}
	return p.runPhase(ctx, inserts, p.insertOne)
}

type task struct {
	id string
	op string
}

// runPhase runs fn for every task on the worker pool. Cancellation is
// checked before each task starts.
func (p *pass) runPhase(ctx context.Context, tasks []task, fn func(context.Context, task)) error {
	g := new(errgroup.Group)
	g.SetLimit(p.engine.workers)

	for _, t := range tasks {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			fn(ctx, t)
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return docerrors.New(docerrors.ErrCodePassAborted, "synchronization pass aborted", err)
	}
	return nil
}

func (p *pass) outcome(id string) *outcome {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.outcomes[id]
}

func (p *pass) record(id string, update func(o *outcome)) {
	p.mu.Lock()
	o, ok := p.outcomes[id]
	if !ok {
		o = &outcome{}
		p.outcomes[id] = o
	}
	update(o)
	p.mu.Unlock()
}

func (p *pass) recordFailure(t task, err error) {
	p.record(t.id, func(o *outcome) {
		o.op = t.op
		o.err = err
	})

	f := Failure{Identity: t.id, Op: t.op, Err: err}
	p.engine.observer.ItemFailed(p.report.ID, f)

	attrs := append([]any{
		slog.String("pass_id", p.report.ID),
		slog.String("identity", t.id),
		slog.String("op", t.op),
	}, docerrors.LogArgs(err)...)
	p.engine.logger.Warn("gateway_op_failed", attrs...)
}

func (p *pass) deleteOne(ctx context.Context, t task) {
	if err := p.engine.gateway.Delete(ctx, t.id); err != nil {
		p.recordFailure(t, err)
		return
	}
	p.record(t.id, func(o *outcome) {
		o.op = t.op
		o.deleted = true
	})
}

func (p *pass) insertOne(ctx context.Context, t task) {
	doc, err := p.engine.source.Load(ctx, t.id)
	if err != nil {
		p.recordFailure(t, err)
		return
	}
	if doc.Fingerprint == "" {
		doc.Fingerprint = hasher.Sum(doc.Content)
	}

	if t.op == OpModify && p.engine.updater != nil {
		err = p.engine.updater.Update(ctx, doc)
	} else {
		err = p.engine.gateway.Insert(ctx, doc)
	}
	if err != nil {
		p.recordFailure(t, err)
		return
	}

	p.record(t.id, func(o *outcome) {
		o.op = t.op
		o.inserted = true
		o.fingerprint = doc.Fingerprint
	})
}

// commit persists the gateway and saves the manifest derived from the
// outcomes. The manifest is untouched unless Persist succeeded.
func (p *pass) commit(ctx context.Context, indexed manifest.Manifest) error {
	e := p.engine
	next := indexed.Clone()
	anySuccess := false

	for _, id := range sortedKeys(p.outcomes) {
		o := p.outcomes[id]
		if o.deleted || o.inserted {
			anySuccess = true
		}

		switch {
		case o.failed():
			p.report.Failures = append(p.report.Failures, Failure{Identity: id, Op: o.op, Err: o.err})
			if o.deleted {
				// The index no longer holds it.
				delete(next, id)
			}
		case o.op == OpDelete:
			delete(next, id)
			p.report.Deleted++
		case o.op == OpAdd:
			next[id] = o.fingerprint
			p.report.Added++
		case o.op == OpModify:
			next[id] = o.fingerprint
			p.report.Modified++
		}
	}

	if !anySuccess {
		e.logger.Warn("sync_pass_nothing_applied",
			slog.String("pass_id", p.report.ID),
			slog.Int("failed", len(p.report.Failures)))
		return nil
	}

	if err := e.gateway.Persist(ctx); err != nil {
		p.rollback()
		p.resetCounts()
		if !errors.Is(err, docerrors.ErrPersist) {
			err = docerrors.PersistError(err)
		}
		return err
	}
	p.report.Persisted = true

	if next.Equal(indexed) {
		return nil
	}
	if err := e.store.Save(next); err != nil {
		p.resetCounts()
		return err
	}
	p.report.ManifestSaved = true

	e.logger.Info("manifest_saved",
		slog.String("pass_id", p.report.ID),
		slog.Int("entries", len(next)))
	return nil
}

// resetCounts clears applied counts once the pass can no longer commit them.
func (p *pass) resetCounts() {
	p.report.Added = 0
	p.report.Modified = 0
	p.report.Deleted = 0
}

func (p *pass) rollback() {
	rb, ok := gateway.AsRollbacker(p.engine.gateway)
	if !ok {
		return
	}
	if err := rb.Rollback(context.Background()); err != nil {
		p.engine.logger.Warn("gateway_rollback_failed",
			slog.String("pass_id", p.report.ID),
			slog.String("error", err.Error()))
	}
}
