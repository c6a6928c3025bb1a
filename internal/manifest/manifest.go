// Package manifest persists the synchronization state of the document index.
//
// A Manifest maps document identity to the fingerprint of the content that
// is currently in the index. It is read wholesale at the start of a pass and
// written wholesale, atomically, at the end.
package manifest

import (
	"maps"
	"slices"
)

// Manifest maps identity to fingerprint.
type Manifest map[string]string

// New returns an empty manifest.
func New() Manifest {
	return make(Manifest)
}

// Clone returns an independent copy.
func (m Manifest) Clone() Manifest {
	out := make(Manifest, len(m))
	maps.Copy(out, m)
	return out
}

// Identities returns all identities in lexical order.
func (m Manifest) Identities() []string {
	return slices.Sorted(maps.Keys(m))
}

// Equal reports whether both manifests hold the same entries.
func (m Manifest) Equal(other Manifest) bool {
	return maps.Equal(m, other)
}
