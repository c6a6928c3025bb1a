// Package scanner enumerates the documents under a data directory and
// fingerprints their content. A scan is a finite snapshot: the caller gets
// the whole directory view at once, never a live stream.
package scanner

import (
	"strings"
	"time"
)

// DefaultMaxFileSize is the default maximum file size (10MB).
const DefaultMaxFileSize = 10 * 1024 * 1024

// DefaultExtensions is the document filter used when none is configured.
var DefaultExtensions = []string{".txt"}

// Options configures which files qualify as documents.
type Options struct {
	// Extensions is the allow-list of file extensions, matched
	// case-insensitively. Empty means DefaultExtensions.
	Extensions []string

	// Recursive descends into subdirectories. The default scans only the
	// top level of the root.
	Recursive bool

	// ExcludePatterns are additional glob-style exclusions.
	ExcludePatterns []string

	// MaxFileSize skips larger files (0 = DefaultMaxFileSize).
	MaxFileSize int64

	// Workers bounds concurrent hashing (0 = NumCPU).
	Workers int

	// FollowSymlinks includes symlinked files.
	FollowSymlinks bool

	// CacheSize is the number of fingerprints remembered across scans,
	// keyed by path, size and modification time. 0 disables the cache.
	CacheSize int
}

// Entry is one qualifying file in a snapshot.
type Entry struct {
	Identity    string    // slash-separated path relative to the root
	AbsPath     string    // absolute path
	Size        int64     // size in bytes at scan time
	ModTime     time.Time // modification time at scan time
	Fingerprint string    // hex SHA-256 of the content
}

// Snapshot is the disk state computed by one scan.
type Snapshot struct {
	Root    string
	Entries map[string]Entry

	// Skipped counts files that qualified but could not be read.
	Skipped int
}

// Fingerprints returns the identity to fingerprint mapping.
func (s *Snapshot) Fingerprints() map[string]string {
	out := make(map[string]string, len(s.Entries))
	for id, e := range s.Entries {
		out[id] = e.Fingerprint
	}
	return out
}

// documentTypes maps extensions to the file_type recorded in metadata.
var documentTypes = map[string]string{
	".txt":      "text",
	".text":     "text",
	".log":      "text",
	".md":       "markdown",
	".mdx":      "markdown",
	".markdown": "markdown",
	".rst":      "rst",
	".html":     "html",
	".htm":      "html",
	".csv":      "csv",
	".json":     "json",
	".yaml":     "yaml",
	".yml":      "yaml",
	".xml":      "xml",
}

// DetectFileType returns the document type for a path, "text" if unknown.
func DetectFileType(path string) string {
	if t, ok := documentTypes[strings.ToLower(extension(path))]; ok {
		return t
	}
	return "text"
}

// extension returns the file extension from a path (including the dot).
func extension(path string) string {
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '.' {
			return path[i:]
		}
		if path[i] == '/' || path[i] == '\\' {
			break
		}
	}
	return ""
}

// normalizeExtensions lowercases and dot-prefixes the allow-list.
func normalizeExtensions(exts []string) map[string]struct{} {
	if len(exts) == 0 {
		exts = DefaultExtensions
	}
	out := make(map[string]struct{}, len(exts))
	for _, e := range exts {
		e = strings.ToLower(strings.TrimSpace(e))
		if e == "" {
			continue
		}
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		out[e] = struct{}{}
	}
	return out
}
