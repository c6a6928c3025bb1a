package gateway

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/Aman-CERP/docsync/internal/document"
	docerrors "github.com/Aman-CERP/docsync/internal/errors"
)

// Fanout drives several gateways as one. An operation succeeds only if it
// succeeds on every member, so an identity that fails anywhere is retried
// on the next pass everywhere.
type Fanout struct {
	members []Gateway
	fusion  *RRFFusion
}

// NewFanout combines members. At least one is required.
func NewFanout(members ...Gateway) (*Fanout, error) {
	if len(members) == 0 {
		return nil, docerrors.ValidationError("fanout needs at least one gateway", nil)
	}
	return &Fanout{members: members, fusion: NewRRFFusion()}, nil
}

// Insert inserts doc into every member.
func (f *Fanout) Insert(ctx context.Context, doc *document.Document) error {
	var errs []error
	for _, m := range f.members {
		if err := m.Insert(ctx, doc); err != nil {
			errs = append(errs, err)
		}
	}
	return joinGatewayErrors("insert", doc.Identity, errs)
}

// Delete deletes identity from every member.
func (f *Fanout) Delete(ctx context.Context, identity string) error {
	var errs []error
	for _, m := range f.members {
		if err := m.Delete(ctx, identity); err != nil {
			errs = append(errs, err)
		}
	}
	return joinGatewayErrors("delete", identity, errs)
}

// Persist persists every member, reporting all failures.
func (f *Fanout) Persist(ctx context.Context) error {
	var errs []error
	for _, m := range f.members {
		if err := m.Persist(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return docerrors.PersistError(errors.Join(errs...))
}

// Rollback rolls back every member that supports it.
func (f *Fanout) Rollback(ctx context.Context) error {
	var errs []error
	for _, m := range f.members {
		if r, ok := AsRollbacker(m); ok {
			if err := r.Rollback(ctx); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

// Search queries every searchable member and fuses the rankings.
func (f *Fanout) Search(ctx context.Context, query string, limit int) ([]Hit, error) {
	var lists [][]Hit
	for _, m := range f.members {
		s, ok := AsSearcher(m)
		if !ok {
			continue
		}
		hits, err := s.Search(ctx, query, limit)
		if err != nil {
			return nil, fmt.Errorf("failed to search member: %w", err)
		}
		lists = append(lists, hits)
	}

	fused := f.fusion.Fuse(lists...)
	if limit > 0 && len(fused) > limit {
		fused = fused[:limit]
	}
	return fused, nil
}

// Count returns the count of the first member that can count.
func (f *Fanout) Count() (int, error) {
	for _, m := range f.members {
		if c, ok := AsCounter(m); ok {
			return c.Count()
		}
	}
	return 0, fmt.Errorf("no member reports a document count")
}

// Close closes every member that is an io.Closer.
func (f *Fanout) Close() error {
	var errs []error
	for _, m := range f.members {
		if c, ok := m.(io.Closer); ok {
			if err := c.Close(); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

func joinGatewayErrors(op, identity string, errs []error) error {
	switch len(errs) {
	case 0:
		return nil
	case 1:
		if errors.Is(errs[0], docerrors.ErrGateway) {
			return errs[0]
		}
	}
	return docerrors.GatewayError(op, identity, errors.Join(errs...))
}

var (
	_ Gateway    = (*Fanout)(nil)
	_ Rollbacker = (*Fanout)(nil)
	_ Searcher   = (*Fanout)(nil)
	_ Counter    = (*Fanout)(nil)
)
