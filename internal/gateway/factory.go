package gateway

import (
	"fmt"
	"io"
	"path/filepath"
	"time"

	docerrors "github.com/Aman-CERP/docsync/internal/errors"
)

// Backend names accepted by Open.
const (
	BackendBleve  = "bleve"
	BackendVector = "vector"
	BackendHybrid = "hybrid"
)

// Index file names inside the storage directory.
const (
	BleveDirName   = "docs.bleve"
	VectorFileName = "vectors.hnsw"
)

// Options selects and configures a gateway.
type Options struct {
	// Backend is one of BackendBleve, BackendVector, BackendHybrid.
	Backend string

	// Dir is the storage directory. Empty keeps indexes in memory.
	Dir string

	// Dimensions is the embedding size for the vector backend.
	Dimensions int

	// Retry configures per-document retries. MaxRetries 0 disables them.
	Retry docerrors.RetryConfig

	// OpenTimeout bounds the wait for an index locked by another process.
	// Zero means DefaultOpenTimeout.
	OpenTimeout time.Duration
}

// Open builds the gateway described by opts.
func Open(opts Options) (Gateway, error) {
	var (
		g   Gateway
		err error
	)

	switch opts.Backend {
	case BackendBleve, "":
		g, err = NewBleveGatewayWithTimeout(indexPath(opts.Dir, BleveDirName), opts.openTimeout())
	case BackendVector:
		g, err = NewVectorGateway(indexPath(opts.Dir, VectorFileName), opts.Dimensions)
	case BackendHybrid:
		g, err = openHybrid(opts)
	default:
		return nil, docerrors.ConfigError(fmt.Sprintf("unknown gateway backend %q", opts.Backend), nil).
			WithSuggestion("use bleve, vector, or hybrid")
	}
	if err != nil {
		return nil, err
	}

	if opts.Retry.MaxRetries > 0 {
		g = NewRetrying(g, opts.Retry)
	}
	return g, nil
}

func openHybrid(opts Options) (Gateway, error) {
	text, err := NewBleveGatewayWithTimeout(indexPath(opts.Dir, BleveDirName), opts.openTimeout())
	if err != nil {
		return nil, err
	}
	vec, err := NewVectorGateway(indexPath(opts.Dir, VectorFileName), opts.Dimensions)
	if err != nil {
		_ = text.Close()
		return nil, err
	}
	return NewFanout(text, vec)
}

func (o Options) openTimeout() time.Duration {
	if o.OpenTimeout > 0 {
		return o.OpenTimeout
	}
	return DefaultOpenTimeout
}

func indexPath(dir, name string) string {
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, name)
}

// Close closes g if it holds resources.
func Close(g Gateway) error {
	if c, ok := g.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
