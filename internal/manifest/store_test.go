package manifest

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	docerrors "github.com/Aman-CERP/docsync/internal/errors"
	"github.com/Aman-CERP/docsync/internal/hasher"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return NewStore(filepath.Join(t.TempDir(), "storage", DefaultFileName))
}

func TestStore_Load_MissingFileIsEmpty(t *testing.T) {
	// Given: a store whose manifest was never written
	s := newTestStore(t)

	// When: loading
	m, err := s.Load()

	// Then: empty manifest, no error
	require.NoError(t, err)
	assert.NotNil(t, m)
	assert.Empty(t, m)
}

func TestStore_SaveLoad_RoundTrip(t *testing.T) {
	// Given: a manifest with two documents
	s := newTestStore(t)
	m := Manifest{
		"a.txt":       hasher.Sum([]byte("h1")),
		"notes/b.txt": hasher.Sum([]byte("h2")),
	}

	// When: saving, loading, saving again and loading again
	require.NoError(t, s.Save(m))
	first, err := s.Load()
	require.NoError(t, err)
	require.NoError(t, s.Save(first))
	second, err := s.Load()
	require.NoError(t, err)

	// Then: every load returns the same mapping
	assert.True(t, m.Equal(first))
	assert.True(t, m.Equal(second))
}

func TestStore_Save_WritesIndentedObject(t *testing.T) {
	s := newTestStore(t)
	fp := hasher.Sum([]byte("h1"))

	require.NoError(t, s.Save(Manifest{"a.txt": fp}))

	data, err := os.ReadFile(s.Path())
	require.NoError(t, err)
	assert.Equal(t, "{\n    \"a.txt\": \""+fp+"\"\n}\n", string(data))
}

func TestStore_Load_CorruptIsFatal(t *testing.T) {
	valid := hasher.Sum([]byte("x"))
	tests := []struct {
		name    string
		content string
	}{
		{"truncated json", `{"a.txt": "` + valid[:10]},
		{"not an object", `["a.txt"]`},
		{"null", `null`},
		{"empty file", ``},
		{"whitespace", "  \n"},
		{"non-string value", `{"a.txt": 42}`},
		{"bad fingerprint", `{"a.txt": "h1"}`},
		{"empty identity", `{"": "` + valid + `"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Given: a manifest file with unparseable content
			s := newTestStore(t)
			require.NoError(t, os.MkdirAll(filepath.Dir(s.Path()), 0o755))
			require.NoError(t, os.WriteFile(s.Path(), []byte(tt.content), 0o644))

			// When: loading
			m, err := s.Load()

			// Then: CorruptManifestError, never an empty manifest
			require.Error(t, err)
			assert.Nil(t, m)
			assert.True(t, errors.Is(err, docerrors.ErrCorruptManifest))
			assert.True(t, docerrors.IsFatal(err))
		})
	}
}

func TestStore_CrashDuringSave_LoadReturnsPreviousManifest(t *testing.T) {
	// Given: a saved manifest and a leftover temp file from an interrupted save
	s := newTestStore(t)
	old := Manifest{"a.txt": hasher.Sum([]byte("h1"))}
	require.NoError(t, s.Save(old))

	partial := filepath.Join(filepath.Dir(s.Path()), ".index_manifest.json12345")
	require.NoError(t, os.WriteFile(partial, []byte(`{"a.txt": "`), 0o644))

	// When: loading
	m, err := s.Load()

	// Then: the previous snapshot is intact
	require.NoError(t, err)
	assert.True(t, old.Equal(m))
}

func TestStore_Save_FailureLeavesPreviousManifest(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("root ignores directory permissions")
	}

	// Given: a saved manifest in a directory that becomes read-only
	s := newTestStore(t)
	old := Manifest{"a.txt": hasher.Sum([]byte("h1"))}
	require.NoError(t, s.Save(old))
	dir := filepath.Dir(s.Path())
	require.NoError(t, os.Chmod(dir, 0o555))
	t.Cleanup(func() { _ = os.Chmod(dir, 0o755) })

	// When: saving a new manifest
	err := s.Save(Manifest{"b.txt": hasher.Sum([]byte("h2"))})

	// Then: ManifestWriteError and the old manifest still loads
	require.Error(t, err)
	assert.True(t, errors.Is(err, docerrors.ErrManifestWrite))
	m, err := s.Load()
	require.NoError(t, err)
	assert.True(t, old.Equal(m))
}

func TestStore_Save_NoTempFilesLeft(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.Save(Manifest{"a.txt": hasher.Sum(nil)}))

	entries, err := os.ReadDir(filepath.Dir(s.Path()))
	require.NoError(t, err)
	for _, e := range entries {
		assert.False(t, strings.HasPrefix(e.Name(), "."), "leftover temp file %s", e.Name())
	}
}

func TestStore_Stat(t *testing.T) {
	s := newTestStore(t)

	size, err := s.Stat()
	require.NoError(t, err)
	assert.Zero(t, size)

	require.NoError(t, s.Save(Manifest{"a.txt": hasher.Sum(nil)}))
	size, err = s.Stat()
	require.NoError(t, err)
	assert.Positive(t, size)
}

func TestManifest_CloneIsIndependent(t *testing.T) {
	m := Manifest{"a.txt": "1"}

	c := m.Clone()
	c["b.txt"] = "2"

	assert.Len(t, m, 1)
	assert.Len(t, c, 2)
	assert.False(t, m.Equal(c))
}

func TestManifest_IdentitiesSorted(t *testing.T) {
	m := Manifest{"c.txt": "3", "a.txt": "1", "b/x.txt": "2"}

	assert.Equal(t, []string{"a.txt", "b/x.txt", "c.txt"}, m.Identities())
}
