package reconcile

import (
	"time"
)

// State is a phase of a synchronization pass.
type State int

const (
	StateIdle State = iota
	StateScanning
	StateDiffing
	StateApplying
	StateCommitting
	StateDone
	StateFailed
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StateScanning:
		return "SCANNING"
	case StateDiffing:
		return "DIFFING"
	case StateApplying:
		return "APPLYING"
	case StateCommitting:
		return "COMMITTING"
	case StateDone:
		return "DONE"
	case StateFailed:
		return "FAILED"
	default:
		return "UNKNOWN"
	}
}

// Ops recorded in failures.
const (
	OpAdd    = "add"
	OpModify = "modify"
	OpDelete = "delete"
)

// Failure is one identity whose change could not be applied.
// It is left out of the manifest update and retried on the next pass.
type Failure struct {
	Identity string
	Op       string
	Err      error
}

// StageTimings records how long each phase took.
type StageTimings struct {
	Scan   time.Duration
	Diff   time.Duration
	Apply  time.Duration
	Commit time.Duration
}

// Report is the outcome of one pass. Counts cover applied changes only.
type Report struct {
	ID        string
	StartedAt time.Time
	Duration  time.Duration
	Status    State
	Err       error

	Added     int
	Modified  int
	Deleted   int
	Unchanged int
	Failures  []Failure

	// Persisted is true when the gateway was flushed.
	Persisted bool
	// ManifestSaved is true when a new manifest was written.
	ManifestSaved bool

	Stages StageTimings
}

// Failed returns the number of failed identities.
func (r *Report) Failed() int {
	return len(r.Failures)
}

// Applied returns the number of applied changes.
func (r *Report) Applied() int {
	return r.Added + r.Modified + r.Deleted
}

// Observer is notified as a pass progresses. Calls come from the pass
// goroutine for state changes and from worker goroutines for failures.
type Observer interface {
	StateChanged(passID string, state State)
	ItemFailed(passID string, f Failure)
}

type nopObserver struct{}

func (nopObserver) StateChanged(string, State) {}
func (nopObserver) ItemFailed(string, Failure) {}
