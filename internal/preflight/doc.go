// Package preflight checks that a sync setup can run before a pass starts:
// the data directory is readable, the storage directory writable, the
// manifest parseable, and the host has disk space and file descriptors to
// spare.
//
//	checker := preflight.New(preflight.WithOutput(os.Stdout))
//	results := checker.RunAll(ctx, preflight.Paths{...})
//	if checker.HasCriticalFailures(results) {
//	    // refuse to sync
//	}
package preflight
