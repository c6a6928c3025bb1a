package ui

import (
	"cmp"
	"fmt"
	"io"
	"slices"
	"sync"
	"time"

	"github.com/Aman-CERP/docsync/internal/reconcile"
)

// PlainRenderer writes line-oriented text suitable for CI logs and pipes.
type PlainRenderer struct {
	mu      sync.Mutex
	out     io.Writer
	styles  Styles
	verbose bool
	dir     string
	state   reconcile.State
}

// NewPlainRenderer creates a plain text renderer.
func NewPlainRenderer(cfg Config) *PlainRenderer {
	return &PlainRenderer{
		out:     cfg.Output,
		styles:  NoColorStyles(),
		verbose: cfg.Verbose,
		dir:     cfg.ProjectDir,
	}
}

// State returns the last state observed.
func (r *PlainRenderer) State() reconcile.State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// StateChanged implements reconcile.Observer.
func (r *PlainRenderer) StateChanged(passID string, state reconcile.State) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.state = state

	// Terminal states are covered by Report.
	if state == reconcile.StateDone || state == reconcile.StateFailed || state == reconcile.StateIdle {
		return
	}

	tag := r.styles.State.Render("[" + StateIcon(state) + "]")
	if state == reconcile.StateScanning && r.dir != "" {
		_, _ = fmt.Fprintf(r.out, "%s %s %s\n", tag, shortID(passID), r.dir)
		return
	}
	_, _ = fmt.Fprintf(r.out, "%s %s\n", tag, shortID(passID))
}

// ItemFailed implements reconcile.Observer.
func (r *PlainRenderer) ItemFailed(_ string, f reconcile.Failure) {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, _ = fmt.Fprintf(r.out, "%s %s %s: %v\n", r.styles.Error.Render("ERROR:"), f.Op, f.Identity, f.Err)
}

// Report implements Renderer.
func (r *PlainRenderer) Report(rep *reconcile.Report) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.writeReport(r.out, rep)
}

// ChangeSet implements Renderer.
func (r *PlainRenderer) ChangeSet(cs *reconcile.ChangeSet) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.writeChangeSet(r.out, cs)
}

func (r *PlainRenderer) writeReport(w io.Writer, rep *reconcile.Report) {
	if rep == nil {
		return
	}

	status := r.styles.Success.Render(rep.Status.String())
	if rep.Status == reconcile.StateFailed {
		status = r.styles.Error.Render(rep.Status.String())
	}

	_, _ = fmt.Fprintf(w, "Sync %s in %s: %d added, %d modified, %d deleted, %d unchanged\n",
		status, rep.Duration.Round(time.Millisecond), rep.Added, rep.Modified, rep.Deleted, rep.Unchanged)

	if n := rep.Failed(); n > 0 {
		_, _ = fmt.Fprintf(w, "%s\n", r.styles.Warning.Render(fmt.Sprintf("%d failed, retried on the next pass:", n)))
		for _, f := range sortedFailures(rep.Failures) {
			_, _ = fmt.Fprintf(w, "  %s %s: %v\n", f.Op, f.Identity, f.Err)
		}
	}

	if rep.Err != nil {
		_, _ = fmt.Fprintf(w, "%s %v\n", r.styles.Error.Render("Error:"), rep.Err)
	}

	s := rep.Stages
	if s.Scan+s.Diff+s.Apply+s.Commit > 0 {
		_, _ = fmt.Fprintf(w, "%s scan %s, diff %s, apply %s, commit %s\n",
			r.styles.Label.Render("Stages:"),
			s.Scan.Round(time.Millisecond), s.Diff.Round(time.Millisecond),
			s.Apply.Round(time.Millisecond), s.Commit.Round(time.Millisecond))
	}
}

func (r *PlainRenderer) writeChangeSet(w io.Writer, cs *reconcile.ChangeSet) {
	if cs == nil {
		return
	}

	if cs.Empty() {
		_, _ = fmt.Fprintf(w, "Index is up to date (%d unchanged)\n", len(cs.Unchanged))
		return
	}

	_, _ = fmt.Fprintf(w, "Pending: %d to add, %d to modify, %d to delete, %d unchanged\n",
		len(cs.Added), len(cs.Modified), len(cs.Deleted), len(cs.Unchanged))

	if !r.verbose {
		return
	}
	for _, id := range cs.Added {
		_, _ = fmt.Fprintf(w, "  %s %s\n", r.styles.Added.Render("+"), id)
	}
	for _, id := range cs.Modified {
		_, _ = fmt.Fprintf(w, "  %s %s\n", r.styles.Modified.Render("~"), id)
	}
	for _, id := range cs.Deleted {
		_, _ = fmt.Fprintf(w, "  %s %s\n", r.styles.Deleted.Render("-"), id)
	}
}

func sortedFailures(in []reconcile.Failure) []reconcile.Failure {
	out := slices.Clone(in)
	slices.SortFunc(out, func(a, b reconcile.Failure) int {
		return cmp.Compare(a.Identity, b.Identity)
	})
	return out
}

// shortID trims a pass ID to its first UUID group.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
