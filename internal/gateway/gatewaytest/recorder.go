// Package gatewaytest provides an in-memory gateway that records calls and
// injects failures, for engine tests.
package gatewaytest

import (
	"context"
	"errors"
	"maps"
	"slices"
	"sync"

	"github.com/Aman-CERP/docsync/internal/document"
	docerrors "github.com/Aman-CERP/docsync/internal/errors"
	"github.com/Aman-CERP/docsync/internal/gateway"
)

// Op names recorded by Recorder.
const (
	OpInsert   = "insert"
	OpDelete   = "delete"
	OpUpdate   = "update"
	OpPersist  = "persist"
	OpRollback = "rollback"
)

// Call is one recorded gateway call.
type Call struct {
	Op       string
	Identity string
}

// Recorder is a gateway holding documents in a map. Staged changes apply on
// Persist. It does not implement Updater; wrap it with Updating for that.
type Recorder struct {
	mu        sync.Mutex
	calls     []Call
	committed map[string][]byte
	staged    map[string]*[]byte // nil value pointer means delete

	failInsert  map[string]error
	failDelete  map[string]error
	failPersist error

	// OnCall runs after a call is recorded and before it takes effect.
	OnCall func(Call)
}

// NewRecorder returns an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{
		committed:  make(map[string][]byte),
		staged:     make(map[string]*[]byte),
		failInsert: make(map[string]error),
		failDelete: make(map[string]error),
	}
}

// Seed stores committed content without recording calls.
func (r *Recorder) Seed(identity string, content []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.committed[identity] = content
}

// FailInsert makes Insert and Update of identity return err. Nil clears it.
func (r *Recorder) FailInsert(identity string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	setOrClear(r.failInsert, identity, err)
}

// FailDelete makes Delete of identity return err. Nil clears it.
func (r *Recorder) FailDelete(identity string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	setOrClear(r.failDelete, identity, err)
}

// FailPersist makes Persist return err. Nil clears it.
func (r *Recorder) FailPersist(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failPersist = err
}

func setOrClear(m map[string]error, key string, err error) {
	if err == nil {
		delete(m, key)
		return
	}
	m[key] = err
}

func (r *Recorder) record(c Call) {
	r.calls = append(r.calls, c)
	if r.OnCall != nil {
		r.OnCall(c)
	}
}

// Insert stages doc.
func (r *Recorder) Insert(ctx context.Context, doc *document.Document) error {
	return r.insert(OpInsert, doc)
}

func (r *Recorder) insert(op string, doc *document.Document) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.record(Call{Op: op, Identity: doc.Identity})
	if err, ok := r.failInsert[doc.Identity]; ok {
		return docerrors.GatewayError(op, doc.Identity, err)
	}
	content := slices.Clone(doc.Content)
	r.staged[doc.Identity] = &content
	return nil
}

// Delete stages removal of identity.
func (r *Recorder) Delete(ctx context.Context, identity string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.record(Call{Op: OpDelete, Identity: identity})
	if err, ok := r.failDelete[identity]; ok {
		return docerrors.GatewayError(OpDelete, identity, err)
	}
	r.staged[identity] = nil
	return nil
}

// Persist applies staged changes.
func (r *Recorder) Persist(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.record(Call{Op: OpPersist})
	if r.failPersist != nil {
		return docerrors.PersistError(r.failPersist)
	}
	for id, content := range r.staged {
		if content == nil {
			delete(r.committed, id)
			continue
		}
		r.committed[id] = *content
	}
	clear(r.staged)
	return nil
}

// Rollback discards staged changes.
func (r *Recorder) Rollback(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.record(Call{Op: OpRollback})
	clear(r.staged)
	return nil
}

// Count returns the number of committed documents.
func (r *Recorder) Count() (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.committed), nil
}

// Calls returns a copy of the recorded calls in order.
func (r *Recorder) Calls() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.calls)
}

// CallsFor returns the recorded calls with the given op.
func (r *Recorder) CallsFor(op string) []Call {
	var out []Call
	for _, c := range r.Calls() {
		if c.Op == op {
			out = append(out, c)
		}
	}
	return out
}

// Identities returns the sorted identities of the calls with op.
func (r *Recorder) Identities(op string) []string {
	var out []string
	for _, c := range r.CallsFor(op) {
		out = append(out, c.Identity)
	}
	slices.Sort(out)
	return out
}

// Reset forgets recorded calls.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = nil
}

// Committed returns a copy of the committed documents.
func (r *Recorder) Committed() map[string][]byte {
	r.mu.Lock()
	defer r.mu.Unlock()
	return maps.Clone(r.committed)
}

// Updating adds Update to a Recorder.
type Updating struct {
	*Recorder
}

// NewUpdating returns an updating Recorder.
func NewUpdating() *Updating {
	return &Updating{Recorder: NewRecorder()}
}

// Update stages a full replace of doc.
func (u *Updating) Update(ctx context.Context, doc *document.Document) error {
	return u.insert(OpUpdate, doc)
}

// ErrInjected is a convenient failure to inject.
var ErrInjected = errors.New("injected failure")

var (
	_ gateway.Gateway    = (*Recorder)(nil)
	_ gateway.Rollbacker = (*Recorder)(nil)
	_ gateway.Counter    = (*Recorder)(nil)
	_ gateway.Updater    = (*Updating)(nil)
)
