package gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/lang/en"
	"github.com/blevesearch/bleve/v2/mapping"
	bberrors "go.etcd.io/bbolt/errors"

	"github.com/Aman-CERP/docsync/internal/document"
	docerrors "github.com/Aman-CERP/docsync/internal/errors"
)

// Stored field names in the bleve index.
const (
	fieldContent     = "content"
	fieldIdentity    = "identity"
	fieldFingerprint = "fingerprint"
)

// BleveGateway is a full-text index on bleve.
// Mutations accumulate in a batch that Persist executes.
type BleveGateway struct {
	mu     sync.Mutex
	index  bleve.Index
	path   string
	batch  *bleve.Batch
	closed bool
}

// DefaultOpenTimeout bounds the wait for the index file lock held by
// another docsync process.
const DefaultOpenTimeout = time.Second

// NewBleveGateway opens the index at path, creating it if missing.
// An empty path gives an in-memory index. An index directory that exists
// but cannot be opened is reported as corrupt rather than cleared, since
// the manifest still claims its documents.
func NewBleveGateway(path string) (*BleveGateway, error) {
	return NewBleveGatewayWithTimeout(path, DefaultOpenTimeout)
}

// NewBleveGatewayWithTimeout is NewBleveGateway with an explicit wait for
// the index lock. An index held by another process past the timeout is
// ErrPassInProgress.
func NewBleveGatewayWithTimeout(path string, timeout time.Duration) (*BleveGateway, error) {
	var (
		idx bleve.Index
		err error
	)

	if path == "" {
		idx, err = bleve.NewMemOnly(newIndexMapping())
	} else {
		if mkErr := os.MkdirAll(filepath.Dir(path), 0o755); mkErr != nil {
			return nil, fmt.Errorf("failed to create directory %s: %w", filepath.Dir(path), mkErr)
		}

		runtimeConfig := map[string]interface{}{"bolt_timeout": timeout.String()}
		idx, err = bleve.OpenUsing(path, runtimeConfig)
		switch {
		case errors.Is(err, bleve.ErrorIndexPathDoesNotExist):
			slog.Info("bleve_index_created", slog.String("path", path))
			idx, err = bleve.NewUsing(path, newIndexMapping(),
				bleve.Config.DefaultIndexType, bleve.Config.DefaultKVStore, runtimeConfig)
		case errors.Is(err, bberrors.ErrTimeout):
			slog.Warn("bleve_index_locked",
				slog.String("path", path),
				slog.Duration("waited", timeout))
			return nil, docerrors.PassInProgressError(path)
		case err != nil:
			return nil, docerrors.New(docerrors.ErrCodeCorruptIndex,
				fmt.Sprintf("cannot open index at %s", path), err).
				WithDetail("path", path).
				WithSuggestion("remove the index directory and the manifest together to rebuild")
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create index: %w", err)
	}

	return &BleveGateway{
		index: idx,
		path:  path,
		batch: idx.NewBatch(),
	}, nil
}

// newIndexMapping analyzes content as English text and keeps identity
// and fingerprint as exact keywords.
func newIndexMapping() mapping.IndexMapping {
	content := bleve.NewTextFieldMapping()
	content.Analyzer = en.AnalyzerName
	content.Store = false

	exact := bleve.NewTextFieldMapping()
	exact.Analyzer = keyword.Name

	doc := bleve.NewDocumentMapping()
	doc.AddFieldMappingsAt(fieldContent, content)
	doc.AddFieldMappingsAt(fieldIdentity, exact)
	doc.AddFieldMappingsAt(fieldFingerprint, exact)

	im := bleve.NewIndexMapping()
	im.DefaultMapping = doc
	im.DefaultAnalyzer = en.AnalyzerName
	return im
}

// Insert stages doc for indexing.
func (b *BleveGateway) Insert(ctx context.Context, doc *document.Document) error {
	if doc == nil || doc.Identity == "" {
		return docerrors.ValidationError("document has no identity", nil)
	}

	fields := make(map[string]interface{}, 8)
	for k, v := range doc.Metadata.ToMap() {
		fields[k] = v
	}
	fields[fieldContent] = doc.Text()
	fields[fieldIdentity] = doc.Identity
	fields[fieldFingerprint] = doc.Fingerprint

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return permanentError("insert", doc.Identity, ErrClosed)
	}
	if err := b.batch.Index(doc.Identity, fields); err != nil {
		return docerrors.GatewayError("insert", doc.Identity, err)
	}
	return nil
}

// Update replaces doc. Bleve indexing already replaces the whole document.
func (b *BleveGateway) Update(ctx context.Context, doc *document.Document) error {
	return b.Insert(ctx, doc)
}

// Delete stages removal of identity.
func (b *BleveGateway) Delete(ctx context.Context, identity string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return permanentError("delete", identity, ErrClosed)
	}
	b.batch.Delete(identity)
	return nil
}

// Persist executes the staged batch.
func (b *BleveGateway) Persist(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return docerrors.PersistError(ErrClosed)
	}
	if err := ctx.Err(); err != nil {
		return docerrors.PersistError(err)
	}
	if b.batch.Size() == 0 {
		return nil
	}

	ops := b.batch.Size()
	if err := b.index.Batch(b.batch); err != nil {
		return docerrors.PersistError(err)
	}
	b.batch.Reset()

	slog.Debug("bleve_batch_persisted",
		slog.String("path", b.path),
		slog.Int("ops", ops))
	return nil
}

// Rollback discards the staged batch.
func (b *BleveGateway) Rollback(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.batch.Reset()
	return nil
}

// Search runs a match query against document content.
func (b *BleveGateway) Search(ctx context.Context, query string, limit int) ([]Hit, error) {
	if strings.TrimSpace(query) == "" {
		return []Hit{}, nil
	}
	if limit <= 0 {
		limit = 10
	}

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil, ErrClosed
	}
	idx := b.index
	b.mu.Unlock()

	q := bleve.NewMatchQuery(query)
	q.SetField(fieldContent)

	req := bleve.NewSearchRequest(q)
	req.Size = limit
	req.Fields = []string{"*"}

	res, err := idx.SearchInContext(ctx, req)
	if err != nil {
		return nil, docerrors.New(docerrors.ErrCodeSearchFailed, "search failed", err)
	}

	hits := make([]Hit, 0, len(res.Hits))
	for _, h := range res.Hits {
		fields := make(map[string]any, len(h.Fields))
		for k, v := range h.Fields {
			if k == fieldIdentity || k == fieldFingerprint {
				continue
			}
			fields[k] = v
		}
		hits = append(hits, Hit{
			Identity: h.ID,
			Score:    h.Score,
			Metadata: document.FromMap(fields),
		})
	}
	return hits, nil
}

// Count returns the number of persisted documents.
func (b *BleveGateway) Count() (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return 0, ErrClosed
	}
	n, err := b.index.DocCount()
	if err != nil {
		return 0, fmt.Errorf("failed to count documents: %w", err)
	}
	return int(n), nil
}

// Close closes the index. Staged mutations are discarded.
func (b *BleveGateway) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}
	b.closed = true
	return b.index.Close()
}

var (
	_ Gateway    = (*BleveGateway)(nil)
	_ Updater    = (*BleveGateway)(nil)
	_ Rollbacker = (*BleveGateway)(nil)
	_ Searcher   = (*BleveGateway)(nil)
	_ Counter    = (*BleveGateway)(nil)
)
