// Package gateway defines the index backend driven by the sync engine and
// provides its implementations.
//
// A Gateway buffers Insert and Delete calls until Persist. Nothing is
// durable before Persist returns, and callers never rely on autocommit.
package gateway

import (
	"context"
	"errors"

	"github.com/Aman-CERP/docsync/internal/document"
	docerrors "github.com/Aman-CERP/docsync/internal/errors"
)

// ErrClosed is the cause of every operation on a closed gateway.
var ErrClosed = errors.New("index is closed")

// permanentError wraps a per-document failure that retrying cannot fix.
func permanentError(op, identity string, cause error) error {
	e := docerrors.GatewayError(op, identity, cause)
	e.Retryable = false
	return e
}

// Gateway is the capability set the engine needs from an index.
type Gateway interface {
	// Insert adds a document, replacing any prior content with the same
	// identity.
	Insert(ctx context.Context, doc *document.Document) error

	// Delete removes a document. Deleting an absent identity is not an error.
	Delete(ctx context.Context, identity string) error

	// Persist durably commits every Insert and Delete since the last Persist.
	Persist(ctx context.Context) error
}

// Updater is implemented by gateways with an explicit full-replace update.
// When available, modified documents are updated instead of deleted and
// re-inserted.
type Updater interface {
	Update(ctx context.Context, doc *document.Document) error
}

// Rollbacker is implemented by gateways that can discard mutations made
// since the last Persist.
type Rollbacker interface {
	Rollback(ctx context.Context) error
}

// Searcher is implemented by gateways that can query their content.
type Searcher interface {
	Search(ctx context.Context, query string, limit int) ([]Hit, error)
}

// Counter is implemented by gateways that report how many documents they hold.
type Counter interface {
	Count() (int, error)
}

// Wrapper is implemented by decorators. A decorator has a capability only
// if the gateway it wraps has it.
type Wrapper interface {
	Unwrap() Gateway
}

// Hit is one search result.
type Hit struct {
	Identity string
	Score    float64
	Metadata document.Metadata
}

// AsUpdater returns g as an Updater when the whole decorator chain supports it.
func AsUpdater(g Gateway) (Updater, bool) { return capability[Updater](g) }

// AsRollbacker returns g as a Rollbacker when the whole chain supports it.
func AsRollbacker(g Gateway) (Rollbacker, bool) { return capability[Rollbacker](g) }

// AsSearcher returns g as a Searcher when the whole chain supports it.
func AsSearcher(g Gateway) (Searcher, bool) { return capability[Searcher](g) }

// AsCounter returns g as a Counter when the whole chain supports it.
func AsCounter(g Gateway) (Counter, bool) { return capability[Counter](g) }

func capability[T any](g Gateway) (T, bool) {
	var zero T
	if g == nil {
		return zero, false
	}
	if w, ok := g.(Wrapper); ok {
		if _, ok := capability[T](w.Unwrap()); !ok {
			return zero, false
		}
	}
	t, ok := g.(T)
	return t, ok
}
