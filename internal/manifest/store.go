package manifest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/renameio"

	docerrors "github.com/Aman-CERP/docsync/internal/errors"
	"github.com/Aman-CERP/docsync/internal/hasher"
)

// DefaultFileName is the manifest file name inside the storage directory.
const DefaultFileName = "index_manifest.json"

// Store loads and saves a manifest file.
type Store struct {
	path string
}

// NewStore creates a store for the manifest at path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Path returns the manifest file path.
func (s *Store) Path() string {
	return s.path
}

// Load reads the manifest.
// A missing file is a first run and yields an empty manifest. A file that
// exists but does not parse, or holds malformed entries, is a
// CorruptManifestError; it is never treated as empty.
func (s *Store) Load() (Manifest, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		slog.Debug("manifest_missing", slog.String("path", s.path))
		return New(), nil
	}
	if err != nil {
		return nil, docerrors.IOError(s.path, err)
	}

	if len(bytes.TrimSpace(data)) == 0 {
		return nil, docerrors.CorruptManifestError(s.path, fmt.Errorf("empty file"))
	}

	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, docerrors.CorruptManifestError(s.path, err)
	}
	if m == nil {
		// "null" decodes without error
		return nil, docerrors.CorruptManifestError(s.path, fmt.Errorf("manifest is not an object"))
	}

	for identity, fp := range m {
		if identity == "" {
			return nil, docerrors.CorruptManifestError(s.path, fmt.Errorf("empty identity"))
		}
		if !hasher.Valid(fp) {
			return nil, docerrors.CorruptManifestError(s.path,
				fmt.Errorf("invalid fingerprint %q for %s", fp, identity))
		}
	}

	return m, nil
}

// Save writes m as the new manifest.
// The snapshot goes to a temporary file in the same directory, is synced,
// and then renamed over the canonical path, so a reader only ever sees the
// previous or the new manifest.
func (s *Store) Save(m Manifest) error {
	if m == nil {
		m = New()
	}

	data, err := json.MarshalIndent(m, "", "    ")
	if err != nil {
		return docerrors.ManifestWriteError(s.path, err)
	}
	data = append(data, '\n')

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return docerrors.ManifestWriteError(s.path, err)
	}
	if err := renameio.WriteFile(s.path, data, 0o644); err != nil {
		return docerrors.ManifestWriteError(s.path, err)
	}

	slog.Debug("manifest_saved",
		slog.String("path", s.path),
		slog.Int("entries", len(m)))
	return nil
}

// Stat returns the manifest file size, or 0 when it does not exist yet.
func (s *Store) Stat() (int64, error) {
	info, err := os.Stat(s.path)
	if os.IsNotExist(err) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to stat manifest: %w", err)
	}
	return info.Size(), nil
}
