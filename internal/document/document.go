// Package document defines the unit of content handed to an index gateway.
package document

import (
	"fmt"
	"strconv"
	"time"
)

// Metadata keys understood by FromMap and written by ToMap.
const (
	KeyFilePath = "file_path"
	KeyFileName = "file_name"
	KeyFileType = "file_type"
	KeySize     = "size"
	KeyModTime  = "mod_time"

	// Alternative source keys found in payloads written by other tools.
	KeyFilepathAlt = "filepath"
	KeyPath        = "path"
	KeySource      = "source"
)

// sourceKeys is the lookup order for a document's source path.
var sourceKeys = []string{KeyFilePath, KeyFilepathAlt, KeyPath, KeySource}

// Document is one file's content, identified by its path under the data root.
type Document struct {
	// Identity is the slash-separated path relative to the data root.
	Identity string

	// Path is the absolute filesystem path the content was read from.
	Path string

	// Content is the full byte content.
	Content []byte

	// Fingerprint is the hex SHA-256 of Content.
	Fingerprint string

	Metadata Metadata
}

// Text returns the content as a string.
func (d *Document) Text() string {
	return string(d.Content)
}

// Metadata holds the optional, typed attributes of a document.
type Metadata struct {
	FilePath string
	FileName string
	FileType string
	Size     int64
	ModTime  time.Time

	// Extra carries keys without a typed field.
	Extra map[string]string
}

// SourcePath resolves where the document came from.
// The typed FilePath wins; otherwise Extra is probed in the order
// file_path, filepath, path, source. Returns "" when none is set.
func (m Metadata) SourcePath() string {
	if m.FilePath != "" {
		return m.FilePath
	}
	for _, key := range sourceKeys {
		if v := m.Extra[key]; v != "" {
			return v
		}
	}
	return ""
}

// ToMap flattens the metadata for storage in an index.
func (m Metadata) ToMap() map[string]string {
	out := make(map[string]string, len(m.Extra)+5)
	for k, v := range m.Extra {
		out[k] = v
	}
	if p := m.SourcePath(); p != "" {
		out[KeyFilePath] = p
	}
	if m.FileName != "" {
		out[KeyFileName] = m.FileName
	}
	if m.FileType != "" {
		out[KeyFileType] = m.FileType
	}
	if m.Size > 0 {
		out[KeySize] = strconv.FormatInt(m.Size, 10)
	}
	if !m.ModTime.IsZero() {
		out[KeyModTime] = m.ModTime.UTC().Format(time.RFC3339)
	}
	return out
}

// FromMap builds Metadata from a loosely typed payload such as a stored
// index document. Unknown keys land in Extra as strings. The source path
// is resolved with the same order as SourcePath.
func FromMap(fields map[string]any) Metadata {
	var m Metadata
	for k, v := range fields {
		s := stringify(v)
		switch k {
		case KeyFileName:
			m.FileName = s
		case KeyFileType:
			m.FileType = s
		case KeySize:
			if n, err := strconv.ParseInt(s, 10, 64); err == nil {
				m.Size = n
			}
		case KeyModTime:
			if ts, err := time.Parse(time.RFC3339, s); err == nil {
				m.ModTime = ts
			}
		default:
			if s == "" {
				continue
			}
			if m.Extra == nil {
				m.Extra = make(map[string]string)
			}
			m.Extra[k] = s
		}
	}

	m.FilePath = m.SourcePath()
	delete(m.Extra, KeyFilePath)
	return m
}

func stringify(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case int64:
		return strconv.FormatInt(x, 10)
	case int:
		return strconv.Itoa(x)
	default:
		return fmt.Sprint(x)
	}
}
