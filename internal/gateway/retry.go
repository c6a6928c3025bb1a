package gateway

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Aman-CERP/docsync/internal/document"
	docerrors "github.com/Aman-CERP/docsync/internal/errors"
)

// Retrying retries retryable per-document failures of the gateway it wraps.
// Persist is not retried: a failed flush fails the pass.
type Retrying struct {
	inner Gateway
	cfg   docerrors.RetryConfig
}

// NewRetrying wraps inner with cfg.
func NewRetrying(inner Gateway, cfg docerrors.RetryConfig) *Retrying {
	return &Retrying{inner: inner, cfg: cfg}
}

// Unwrap returns the wrapped gateway.
func (r *Retrying) Unwrap() Gateway {
	return r.inner
}

func (r *Retrying) do(ctx context.Context, op, identity string, fn func() error) error {
	attempt := 0
	return docerrors.Retry(ctx, r.cfg, func() error {
		attempt++
		err := fn()
		if err != nil && attempt <= r.cfg.MaxRetries && docerrors.IsRetryable(err) {
			slog.Debug("gateway_op_retry",
				slog.String("op", op),
				slog.String("identity", identity),
				slog.Int("attempt", attempt),
				slog.String("error", err.Error()))
		}
		return err
	})
}

// Insert retries inner.Insert.
func (r *Retrying) Insert(ctx context.Context, doc *document.Document) error {
	return r.do(ctx, "insert", doc.Identity, func() error { return r.inner.Insert(ctx, doc) })
}

// Delete retries inner.Delete.
func (r *Retrying) Delete(ctx context.Context, identity string) error {
	return r.do(ctx, "delete", identity, func() error { return r.inner.Delete(ctx, identity) })
}

// Update retries the wrapped Update. Use AsUpdater to check support first.
func (r *Retrying) Update(ctx context.Context, doc *document.Document) error {
	u, ok := AsUpdater(r.inner)
	if !ok {
		return permanentError("update", doc.Identity, fmt.Errorf("gateway does not support update"))
	}
	return r.do(ctx, "update", doc.Identity, func() error { return u.Update(ctx, doc) })
}

// Persist calls inner.Persist once.
func (r *Retrying) Persist(ctx context.Context) error {
	return r.inner.Persist(ctx)
}

// Rollback forwards to the wrapped gateway.
func (r *Retrying) Rollback(ctx context.Context) error {
	if rb, ok := AsRollbacker(r.inner); ok {
		return rb.Rollback(ctx)
	}
	return nil
}

// Search forwards to the wrapped gateway.
func (r *Retrying) Search(ctx context.Context, query string, limit int) ([]Hit, error) {
	s, ok := AsSearcher(r.inner)
	if !ok {
		return nil, fmt.Errorf("gateway does not support search")
	}
	return s.Search(ctx, query, limit)
}

// Count forwards to the wrapped gateway.
func (r *Retrying) Count() (int, error) {
	c, ok := AsCounter(r.inner)
	if !ok {
		return 0, fmt.Errorf("gateway does not report a count")
	}
	return c.Count()
}

// Close closes the wrapped gateway if it is closable.
func (r *Retrying) Close() error {
	return Close(r.inner)
}

var (
	_ Gateway = (*Retrying)(nil)
	_ Wrapper = (*Retrying)(nil)
)
