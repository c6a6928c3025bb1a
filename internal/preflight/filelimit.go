package preflight

import (
	"fmt"
	"syscall"
)

// Rough descriptor budget of one docsync process.
const (
	fdBaseline    = 64  // index segments, manifest, lock, history, log
	fdWatchBudget = 896 // directory watches of a recursive watch
	fdPerWorker   = 16  // files a scan worker may hold while hashing
)

// RequiredOpenFiles is the soft limit docsync wants for the given number of
// scan workers plus a watcher that may hold one descriptor per directory.
func RequiredOpenFiles(workers int) uint64 {
	if workers < 1 {
		workers = 1
	}
	return uint64(fdBaseline + fdWatchBudget + fdPerWorker*workers)
}

// CheckOpenFiles compares the process's open-file soft limit with what
// docsync needs for workers scan workers. A low limit only warns: a pass
// still runs, but a recursive watch on a large tree may not.
func (c *Checker) CheckOpenFiles(workers int) CheckResult {
	result := CheckResult{Name: "open_files"}
	need := RequiredOpenFiles(workers)

	var limit syscall.Rlimit
	if err := syscall.Getrlimit(syscall.RLIMIT_NOFILE, &limit); err != nil {
		result.Status = StatusWarn
		result.Message = fmt.Sprintf("cannot read RLIMIT_NOFILE: %v", err)
		return result
	}

	result.Message = fmt.Sprintf("soft limit %d, %d scan workers need %d", limit.Cur, workers, need)
	result.Status = StatusPass
	if limit.Cur < need {
		result.Status = StatusWarn
		result.Details = fmt.Sprintf("raise it with 'ulimit -n %d' or lower scan.workers", need*4)
	}
	return result
}
