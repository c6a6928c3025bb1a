package gateway

import (
	"bytes"
	"context"
	"encoding/gob"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/coder/hnsw"
	"github.com/google/renameio"

	"github.com/Aman-CERP/docsync/internal/document"
	docerrors "github.com/Aman-CERP/docsync/internal/errors"
)

// vectorSnapshot is the on-disk form of a VectorGateway.
// Graph and key mappings live in one file so they are replaced together.
type vectorSnapshot struct {
	Dimensions int
	IDMap      map[string]uint64
	Sources    map[string]string
	NextKey    uint64
	Graph      []byte
}

// pendingVector is a staged mutation. A nil vec with del set is a delete.
type pendingVector struct {
	del    bool
	vec    []float32
	source string
}

// VectorGateway indexes document embeddings in an HNSW graph.
// Deletion is lazy: a removed identity loses its key mapping and its node
// stays in the graph as an orphan until the next compaction.
type VectorGateway struct {
	mu       sync.Mutex
	path     string
	embedder *HashEmbedder

	graph   *hnsw.Graph[uint64]
	idMap   map[string]uint64
	keyMap  map[uint64]string
	sources map[string]string
	nextKey uint64

	// empty holds identities whose content embeds to the zero vector;
	// they are tracked but have no graph node.
	empty map[string]bool

	pending map[string]pendingVector
	closed  bool
}

// NewVectorGateway opens the graph at path, or starts empty when the file
// does not exist. An empty path keeps everything in memory.
func NewVectorGateway(path string, dims int) (*VectorGateway, error) {
	v := &VectorGateway{
		path:     path,
		embedder: NewHashEmbedder(dims),
		graph:    newGraph(),
		idMap:    make(map[string]uint64),
		keyMap:   make(map[uint64]string),
		sources:  make(map[string]string),
		empty:    make(map[string]bool),
		pending:  make(map[string]pendingVector),
	}

	if path == "" {
		return v, nil
	}
	if err := v.load(); err != nil {
		return nil, err
	}
	return v, nil
}

func newGraph() *hnsw.Graph[uint64] {
	g := hnsw.NewGraph[uint64]()
	g.Distance = hnsw.CosineDistance
	g.M = 16
	g.EfSearch = 20
	g.Ml = 0.25
	return g
}

// Insert embeds doc and stages it.
func (v *VectorGateway) Insert(ctx context.Context, doc *document.Document) error {
	if doc == nil || doc.Identity == "" {
		return docerrors.ValidationError("document has no identity", nil)
	}
	vec := v.embedder.Embed(doc.Text())

	v.mu.Lock()
	defer v.mu.Unlock()

	if v.closed {
		return permanentError("insert", doc.Identity, ErrClosed)
	}
	v.pending[doc.Identity] = pendingVector{vec: vec, source: doc.Metadata.SourcePath()}
	return nil
}

// Update replaces doc. Staged mutations are last-write-wins per identity.
func (v *VectorGateway) Update(ctx context.Context, doc *document.Document) error {
	return v.Insert(ctx, doc)
}

// Delete stages removal of identity.
func (v *VectorGateway) Delete(ctx context.Context, identity string) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.closed {
		return permanentError("delete", identity, ErrClosed)
	}
	v.pending[identity] = pendingVector{del: true}
	return nil
}

// Rollback discards staged mutations.
func (v *VectorGateway) Rollback(ctx context.Context) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.pending = make(map[string]pendingVector)
	return nil
}

// Persist applies staged mutations to the graph and writes the snapshot.
func (v *VectorGateway) Persist(ctx context.Context) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.closed {
		return docerrors.PersistError(ErrClosed)
	}
	if err := ctx.Err(); err != nil {
		return docerrors.PersistError(err)
	}
	if len(v.pending) == 0 {
		return nil
	}

	ids := make([]string, 0, len(v.pending))
	for id := range v.pending {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		op := v.pending[id]
		v.forget(id)
		if op.del {
			continue
		}
		if op.source != "" {
			v.sources[id] = op.source
		}
		if isZero(op.vec) {
			v.empty[id] = true
			continue
		}
		key := v.nextKey
		v.nextKey++
		v.graph.Add(hnsw.MakeNode(key, op.vec))
		v.idMap[id] = key
		v.keyMap[key] = id
	}
	applied := len(v.pending)
	v.pending = make(map[string]pendingVector)

	if orphans := v.graph.Len() - len(v.idMap); orphans > len(v.idMap) {
		v.compact()
	}

	if v.path != "" {
		if err := v.save(); err != nil {
			return docerrors.PersistError(err)
		}
	}

	slog.Debug("vector_index_persisted",
		slog.String("path", v.path),
		slog.Int("ops", applied),
		slog.Int("vectors", len(v.idMap)))
	return nil
}

// forget drops every mapping for id. Its graph node, if any, is orphaned.
func (v *VectorGateway) forget(id string) {
	if key, ok := v.idMap[id]; ok {
		delete(v.keyMap, key)
		delete(v.idMap, id)
	}
	delete(v.empty, id)
	delete(v.sources, id)
}

// compact rebuilds the graph from live nodes only.
func (v *VectorGateway) compact() {
	fresh := newGraph()
	keys := make([]uint64, 0, len(v.keyMap))
	for key := range v.keyMap {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	for _, key := range keys {
		vec, ok := v.graph.Lookup(key)
		if !ok {
			id := v.keyMap[key]
			delete(v.keyMap, key)
			delete(v.idMap, id)
			continue
		}
		fresh.Add(hnsw.MakeNode(key, vec))
	}

	slog.Debug("vector_index_compacted",
		slog.Int("before", v.graph.Len()),
		slog.Int("after", fresh.Len()))
	v.graph = fresh
}

// Search embeds query and returns the nearest documents.
func (v *VectorGateway) Search(ctx context.Context, query string, limit int) ([]Hit, error) {
	if limit <= 0 {
		limit = 10
	}
	vec := v.embedder.Embed(query)
	if isZero(vec) {
		return []Hit{}, nil
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	if v.closed {
		return nil, ErrClosed
	}
	if v.graph.Len() == 0 {
		return []Hit{}, nil
	}

	// Orphans can occupy result slots, so over-fetch.
	k := limit + (v.graph.Len() - len(v.idMap))
	nodes := v.graph.Search(vec, k)

	hits := make([]Hit, 0, limit)
	for _, n := range nodes {
		id, ok := v.keyMap[n.Key]
		if !ok {
			continue
		}
		dist := v.graph.Distance(vec, n.Value)
		hits = append(hits, Hit{
			Identity: id,
			Score:    float64(1 - dist/2),
			Metadata: document.Metadata{FilePath: v.sources[id]},
		})
		if len(hits) == limit {
			break
		}
	}
	return hits, nil
}

// Count returns the number of persisted documents.
func (v *VectorGateway) Count() (int, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.idMap) + len(v.empty), nil
}

// Close releases the graph. Staged mutations are discarded.
func (v *VectorGateway) Close() error {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.closed = true
	v.graph = nil
	v.pending = nil
	return nil
}

// save writes the snapshot atomically.
func (v *VectorGateway) save() error {
	var graph bytes.Buffer
	if v.graph.Len() > 0 {
		if err := v.graph.Export(&graph); err != nil {
			return fmt.Errorf("failed to export graph: %w", err)
		}
	}

	idMap := make(map[string]uint64, len(v.idMap)+len(v.empty))
	for id, key := range v.idMap {
		idMap[id] = key
	}

	snap := vectorSnapshot{
		Dimensions: v.embedder.Dimensions(),
		IDMap:      idMap,
		Sources:    v.sources,
		NextKey:    v.nextKey,
		Graph:      graph.Bytes(),
	}
	// Empty documents are recorded with a key that has no node.
	for id := range v.empty {
		snap.IDMap[id] = emptyKey
	}

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(snap); err != nil {
		return fmt.Errorf("failed to encode vector snapshot: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(v.path), 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	if err := renameio.WriteFile(v.path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("failed to write vector snapshot: %w", err)
	}
	return nil
}

// emptyKey marks a tracked identity without a graph node.
const emptyKey = ^uint64(0)

// load reads the snapshot if present.
func (v *VectorGateway) load() error {
	data, err := os.ReadFile(v.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read vector snapshot: %w", err)
	}

	corrupt := func(cause error) error {
		return docerrors.New(docerrors.ErrCodeCorruptIndex,
			fmt.Sprintf("cannot load vector index at %s", v.path), cause).
			WithDetail("path", v.path).
			WithSuggestion("remove the vector index and the manifest together to rebuild")
	}

	var snap vectorSnapshot
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&snap); err != nil {
		return corrupt(err)
	}
	if snap.Dimensions != v.embedder.Dimensions() {
		return corrupt(fmt.Errorf("dimension mismatch: index has %d, configured %d",
			snap.Dimensions, v.embedder.Dimensions()))
	}

	if len(snap.Graph) > 0 {
		if err := v.graph.Import(bytes.NewReader(snap.Graph)); err != nil {
			return corrupt(err)
		}
	}

	for id, key := range snap.IDMap {
		if key == emptyKey {
			v.empty[id] = true
			continue
		}
		v.idMap[id] = key
		v.keyMap[key] = id
	}
	if snap.Sources != nil {
		v.sources = snap.Sources
	}
	v.nextKey = snap.NextKey
	return nil
}

var (
	_ Gateway    = (*VectorGateway)(nil)
	_ Updater    = (*VectorGateway)(nil)
	_ Rollbacker = (*VectorGateway)(nil)
	_ Searcher   = (*VectorGateway)(nil)
	_ Counter    = (*VectorGateway)(nil)
)
