// Package watcher turns filesystem activity under a document directory into
// synchronization passes.
//
// HybridWatcher uses fsnotify and falls back to polling where notifications
// are unavailable (network mounts, some container volumes). Events are
// filtered to documents, debounced, and delivered in batches. Trigger
// consumes those batches plus an optional interval ticker and runs passes
// one at a time; triggers that arrive during a pass collapse into a single
// follow-up pass.
//
// Usage:
//
//	w, err := watcher.NewHybridWatcher(watcher.Options{Match: sc.Matches})
//	if err != nil {
//	    return err
//	}
//	defer w.Stop()
//	go w.Start(ctx, dataDir)
//
//	t := watcher.NewTrigger(engine, watcher.TriggerOptions{Interval: time.Minute}, logger)
//	return t.Run(ctx, w.Events())
package watcher
