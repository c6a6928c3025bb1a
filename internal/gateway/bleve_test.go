package gateway

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	docerrors "github.com/Aman-CERP/docsync/internal/errors"
)

func TestBleveGateway_NothingVisibleBeforePersist(t *testing.T) {
	ctx := context.Background()
	g, err := NewBleveGateway("")
	require.NoError(t, err)
	defer g.Close()

	// Given: a staged insert
	require.NoError(t, g.Insert(ctx, newDoc("a.txt", "the quick brown fox")))

	// Then: nothing is searchable yet
	n, err := g.Count()
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	// When: persisting
	require.NoError(t, g.Persist(ctx))

	// Then: the document is indexed
	n, err = g.Count()
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestBleveGateway_SearchReturnsMetadata(t *testing.T) {
	ctx := context.Background()
	g, err := NewBleveGateway("")
	require.NoError(t, err)
	defer g.Close()

	require.NoError(t, g.Insert(ctx, newDoc("fox.txt", "the quick brown fox jumps")))
	require.NoError(t, g.Insert(ctx, newDoc("cat.txt", "a lazy cat sleeps all day")))
	require.NoError(t, g.Persist(ctx))

	hits, err := g.Search(ctx, "fox", 5)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "fox.txt", hits[0].Identity)
	assert.Equal(t, "/data/fox.txt", hits[0].Metadata.SourcePath())
	assert.Greater(t, hits[0].Score, 0.0)
}

func TestBleveGateway_EmptyQuery(t *testing.T) {
	g, err := NewBleveGateway("")
	require.NoError(t, err)
	defer g.Close()

	hits, err := g.Search(context.Background(), "   ", 5)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestBleveGateway_DeleteAbsentIsNotAnError(t *testing.T) {
	ctx := context.Background()
	g, err := NewBleveGateway("")
	require.NoError(t, err)
	defer g.Close()

	require.NoError(t, g.Delete(ctx, "missing.txt"))
	require.NoError(t, g.Persist(ctx))
}

func TestBleveGateway_DeleteRemoves(t *testing.T) {
	ctx := context.Background()
	g, err := NewBleveGateway("")
	require.NoError(t, err)
	defer g.Close()

	require.NoError(t, g.Insert(ctx, newDoc("a.txt", "alpha")))
	require.NoError(t, g.Persist(ctx))
	require.NoError(t, g.Delete(ctx, "a.txt"))
	require.NoError(t, g.Persist(ctx))

	n, err := g.Count()
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestBleveGateway_RollbackDiscardsBatch(t *testing.T) {
	ctx := context.Background()
	g, err := NewBleveGateway("")
	require.NoError(t, err)
	defer g.Close()

	require.NoError(t, g.Insert(ctx, newDoc("a.txt", "alpha")))
	require.NoError(t, g.Rollback(ctx))
	require.NoError(t, g.Persist(ctx))

	n, err := g.Count()
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestBleveGateway_ReopenKeepsDocuments(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "storage", BleveDirName)

	g, err := NewBleveGateway(path)
	require.NoError(t, err)
	require.NoError(t, g.Insert(ctx, newDoc("a.txt", "alpha beta")))
	require.NoError(t, g.Persist(ctx))
	require.NoError(t, g.Close())

	reopened, err := NewBleveGateway(path)
	require.NoError(t, err)
	defer reopened.Close()

	n, err := reopened.Count()
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestBleveGateway_UnreadableIndexIsCorrupt(t *testing.T) {
	// Given: a directory where the index should be, with garbage inside
	path := filepath.Join(t.TempDir(), BleveDirName)
	require.NoError(t, os.MkdirAll(path, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(path, "index_meta.json"), []byte("{garbage"), 0o644))

	// When: opening it
	_, err := NewBleveGateway(path)

	// Then: it is reported, not silently rebuilt
	require.Error(t, err)
	assert.Equal(t, docerrors.ErrCodeCorruptIndex, docerrors.GetCode(err))
	_, statErr := os.Stat(filepath.Join(path, "index_meta.json"))
	assert.NoError(t, statErr)
}

func TestBleveGateway_ClosedRejectsWrites(t *testing.T) {
	ctx := context.Background()
	g, err := NewBleveGateway("")
	require.NoError(t, err)
	require.NoError(t, g.Close())
	require.NoError(t, g.Close())

	assert.Error(t, g.Insert(ctx, newDoc("a.txt", "x")))
	assert.Error(t, g.Delete(ctx, "a.txt"))
	assert.Error(t, g.Persist(ctx))
}

func TestClosedGateways_ErrorsAreNotRetryable(t *testing.T) {
	ctx := context.Background()
	bg, err := NewBleveGateway("")
	require.NoError(t, err)
	vg, err := NewVectorGateway("", 32)
	require.NoError(t, err)

	for name, g := range map[string]interface {
		Gateway
		Close() error
	}{"bleve": bg, "vector": vg} {
		t.Run(name, func(t *testing.T) {
			// Given: a closed gateway
			require.NoError(t, g.Close())

			// When: writing to it
			insertErr := g.Insert(ctx, newDoc("a.txt", "x"))
			deleteErr := g.Delete(ctx, "a.txt")

			// Then: the failures name the closed index and are not retried
			for _, err := range []error{insertErr, deleteErr} {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrClosed)
				assert.ErrorIs(t, err, docerrors.ErrGateway)
				assert.False(t, docerrors.IsRetryable(err))
			}
		})
	}
}

func TestBleveGateway_HeldIndexFailsFast(t *testing.T) {
	// Given: an index held open by another gateway
	path := filepath.Join(t.TempDir(), BleveDirName)
	first, err := NewBleveGateway(path)
	require.NoError(t, err)
	defer first.Close()

	// When: opening it a second time
	start := time.Now()
	_, err = NewBleveGatewayWithTimeout(path, 50*time.Millisecond)

	// Then: it gives up quickly and reports a pass in progress
	require.Error(t, err)
	assert.ErrorIs(t, err, docerrors.ErrPassInProgress)
	assert.Less(t, time.Since(start), 5*time.Second)

	// And: the first gateway is unaffected
	require.NoError(t, first.Insert(context.Background(), newDoc("a.txt", "alpha")))
	require.NoError(t, first.Persist(context.Background()))
}
