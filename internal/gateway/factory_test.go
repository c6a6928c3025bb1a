package gateway

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	docerrors "github.com/Aman-CERP/docsync/internal/errors"
)

func TestOpen(t *testing.T) {
	tests := []struct {
		name    string
		backend string
		check   func(t *testing.T, g Gateway)
	}{
		{"default is bleve", "", func(t *testing.T, g Gateway) {
			assert.IsType(t, &BleveGateway{}, g)
		}},
		{"bleve", BackendBleve, func(t *testing.T, g Gateway) {
			assert.IsType(t, &BleveGateway{}, g)
			assert.DirExists(t, g.(*BleveGateway).path)
			assert.Equal(t, BleveDirName, filepath.Base(g.(*BleveGateway).path))
		}},
		{"vector", BackendVector, func(t *testing.T, g Gateway) {
			assert.IsType(t, &VectorGateway{}, g)
		}},
		{"hybrid", BackendHybrid, func(t *testing.T, g Gateway) {
			f, ok := g.(*Fanout)
			require.True(t, ok)
			assert.Len(t, f.members, 2)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := Open(Options{Backend: tt.backend, Dir: t.TempDir(), Dimensions: 32})
			require.NoError(t, err)
			defer Close(g)
			tt.check(t, g)
		})
	}
}

func TestOpen_WrapsWithRetry(t *testing.T) {
	g, err := Open(Options{Backend: BackendBleve, Retry: fastRetry(2)})
	require.NoError(t, err)
	defer Close(g)

	r, ok := g.(*Retrying)
	require.True(t, ok)
	assert.IsType(t, &BleveGateway{}, r.Unwrap())
}

func TestOpen_UnknownBackend(t *testing.T) {
	_, err := Open(Options{Backend: "elastic"})

	require.Error(t, err)
	assert.Equal(t, docerrors.ErrCodeConfigInvalid, docerrors.GetCode(err))
}
