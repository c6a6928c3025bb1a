package watcher

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// HybridWatcher watches a directory tree with fsnotify, falling back to
// polling when fsnotify cannot be used.
type HybridWatcher struct {
	fsWatcher   *fsnotify.Watcher
	pollWatcher *PollingWatcher
	debouncer   *Debouncer
	filter      filter
	errors      chan error
	stopCh      chan struct{}
	opts        Options
	logger      *slog.Logger

	mu       sync.RWMutex
	rootPath string
	dirs     map[string]struct{} // directories under fsnotify watch
	polling  bool
	stopped  bool
}

// NewHybridWatcher creates a watcher. It never fails over a missing fsnotify
// backend; it polls instead.
func NewHybridWatcher(opts Options) (*HybridWatcher, error) {
	opts = opts.WithDefaults()

	h := &HybridWatcher{
		debouncer: NewDebouncer(opts.DebounceWindow, opts.EventBufferSize),
		filter:    newFilter(opts),
		errors:    make(chan error, 10),
		stopCh:    make(chan struct{}),
		opts:      opts,
		logger:    slog.Default(),
		dirs:      make(map[string]struct{}),
	}

	if opts.ForcePolling {
		h.polling = true
		return h, nil
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		h.logger.Warn("fsnotify_unavailable", slog.String("error", err.Error()))
		h.polling = true
		return h, nil
	}
	h.fsWatcher = fsw
	return h, nil
}

// Start watches root until Stop is called or ctx is cancelled.
func (h *HybridWatcher) Start(ctx context.Context, root string) error {
	absPath, err := filepath.Abs(root)
	if err != nil {
		return fmt.Errorf("resolve absolute path: %w", err)
	}

	h.mu.Lock()
	h.rootPath = absPath
	polling := h.polling
	h.mu.Unlock()

	if !polling {
		if err := h.addRecursive(absPath); err != nil {
			h.logger.Warn("fsnotify_watch_failed_fallback_polling",
				slog.String("root", absPath),
				slog.String("error", err.Error()))
			_ = h.fsWatcher.Close()
			h.mu.Lock()
			h.polling = true
			h.mu.Unlock()
			polling = true
		}
	}

	h.logger.Info("watcher_started",
		slog.String("root", absPath),
		slog.String("type", h.WatcherType()))

	if polling {
		return h.startPolling(ctx)
	}
	return h.runFsnotify(ctx)
}

func (h *HybridWatcher) runFsnotify(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			_ = h.Stop()
			return ctx.Err()
		case <-h.stopCh:
			return nil
		case event, ok := <-h.fsWatcher.Events:
			if !ok {
				return nil
			}
			h.handleFsnotifyEvent(event)
		case err, ok := <-h.fsWatcher.Errors:
			if !ok {
				return nil
			}
			h.emitError(err)
		}
	}
}

func (h *HybridWatcher) startPolling(ctx context.Context) error {
	h.mu.Lock()
	h.pollWatcher = NewPollingWatcher(h.opts.PollInterval, h.filter.ignoredDir)
	pw := h.pollWatcher
	h.mu.Unlock()

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-h.stopCh:
				return
			case event, ok := <-pw.Events():
				if !ok {
					return
				}
				abs := filepath.Join(h.rootPath, filepath.FromSlash(event.Path))
				if h.filter.accepts(abs, event.IsDir) {
					h.debouncer.Add(event)
				}
			case err, ok := <-pw.Errors():
				if !ok {
					return
				}
				h.emitError(err)
			}
		}
	}()

	err := pw.Start(ctx, h.rootPath)
	if ctx.Err() != nil {
		_ = h.Stop()
	}
	return err
}

func (h *HybridWatcher) handleFsnotifyEvent(event fsnotify.Event) {
	var op Operation
	switch {
	case event.Op&fsnotify.Create != 0:
		op = OpCreate
	case event.Op&fsnotify.Write != 0:
		op = OpModify
	case event.Op&fsnotify.Remove != 0:
		op = OpDelete
	case event.Op&fsnotify.Rename != 0:
		op = OpRename
	default:
		return
	}

	isDir := false
	if op == OpCreate || op == OpModify {
		if info, err := os.Stat(event.Name); err == nil {
			isDir = info.IsDir()
		}
	} else {
		h.mu.Lock()
		if _, ok := h.dirs[event.Name]; ok {
			isDir = true
			delete(h.dirs, event.Name)
		}
		h.mu.Unlock()
	}

	if !h.filter.accepts(event.Name, isDir) {
		return
	}

	if op == OpCreate && isDir {
		if err := h.addRecursive(event.Name); err != nil {
			h.emitError(fmt.Errorf("watch new directory %s: %w", event.Name, err))
		}
	}

	rel, err := filepath.Rel(h.rootPath, event.Name)
	if err != nil {
		rel = event.Name
	}
	h.debouncer.Add(FileEvent{
		Path:      filepath.ToSlash(rel),
		Operation: op,
		IsDir:     isDir,
		Timestamp: time.Now(),
	})
}

// addRecursive watches dir and every directory below it that is not ignored.
func (h *HybridWatcher) addRecursive(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == dir {
				return err
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != h.rootPath && h.filter.ignoredDir(path) {
			return filepath.SkipDir
		}
		if err := h.fsWatcher.Add(path); err != nil {
			return err
		}
		h.mu.Lock()
		h.dirs[path] = struct{}{}
		h.mu.Unlock()
		return nil
	})
}

func (h *HybridWatcher) emitError(err error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.stopped {
		return
	}
	select {
	case h.errors <- err:
	default:
		h.logger.Warn("watcher_error_dropped", slog.String("error", err.Error()))
	}
}

// Stop stops the watcher and closes its channels. Safe to call multiple times.
func (h *HybridWatcher) Stop() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.stopped {
		return nil
	}
	h.stopped = true
	close(h.stopCh)

	h.debouncer.Stop()
	if h.fsWatcher != nil {
		_ = h.fsWatcher.Close()
	}
	if h.pollWatcher != nil {
		_ = h.pollWatcher.Stop()
	}
	close(h.errors)
	return nil
}

// Events returns debounced batches. Closed by Stop.
func (h *HybridWatcher) Events() <-chan []FileEvent {
	return h.debouncer.Output()
}

// Errors returns non-fatal watcher errors. Closed by Stop.
func (h *HybridWatcher) Errors() <-chan error {
	return h.errors
}

// WatcherType returns "fsnotify" or "polling".
func (h *HybridWatcher) WatcherType() string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.polling {
		return "polling"
	}
	return "fsnotify"
}

// RootPath returns the root being watched.
func (h *HybridWatcher) RootPath() string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.rootPath
}
