package watcher

import (
	"path/filepath"
	"strings"
	"time"
)

// Operation is a filesystem operation.
type Operation int

const (
	OpCreate Operation = iota
	OpModify
	OpDelete
	OpRename
)

// String returns the operation name.
func (op Operation) String() string {
	switch op {
	case OpCreate:
		return "CREATE"
	case OpModify:
		return "MODIFY"
	case OpDelete:
		return "DELETE"
	case OpRename:
		return "RENAME"
	default:
		return "UNKNOWN"
	}
}

// FileEvent is one change under the watched root.
type FileEvent struct {
	// Path is relative to the root, slash separated.
	Path      string
	Operation Operation
	IsDir     bool
	Timestamp time.Time
}

// Options configures a watcher.
type Options struct {
	// DebounceWindow is how long the tree must be quiet before a batch is
	// emitted. Default: 500ms.
	DebounceWindow time.Duration

	// PollInterval is the scan interval in polling mode. Default: 5s.
	PollInterval time.Duration

	// EventBufferSize is the number of batches buffered. Default: 16.
	EventBufferSize int

	// Match reports whether an absolute file path is a document. Nil accepts
	// every file. Directory events are always delivered since a directory
	// move or removal can carry documents with it.
	Match func(absPath string) bool

	// IgnoreDirs are absolute directories that are never watched, such as
	// the storage directory.
	IgnoreDirs []string

	// ForcePolling skips fsnotify.
	ForcePolling bool
}

// DefaultOptions returns the default watcher options.
func DefaultOptions() Options {
	return Options{
		DebounceWindow:  500 * time.Millisecond,
		PollInterval:    5 * time.Second,
		EventBufferSize: 16,
	}
}

// WithDefaults returns options with defaults applied for zero values.
func (o Options) WithDefaults() Options {
	defaults := DefaultOptions()
	if o.DebounceWindow <= 0 {
		o.DebounceWindow = defaults.DebounceWindow
	}
	if o.PollInterval <= 0 {
		o.PollInterval = defaults.PollInterval
	}
	if o.EventBufferSize <= 0 {
		o.EventBufferSize = defaults.EventBufferSize
	}
	return o
}

// filter decides which paths produce events. It is shared by the fsnotify
// and polling paths.
type filter struct {
	match  func(string) bool
	ignore []string
}

func newFilter(opts Options) filter {
	ignore := make([]string, 0, len(opts.IgnoreDirs)+1)
	for _, d := range opts.IgnoreDirs {
		if d == "" {
			continue
		}
		if abs, err := filepath.Abs(d); err == nil {
			d = abs
		}
		ignore = append(ignore, filepath.Clean(d))
	}
	return filter{match: opts.Match, ignore: ignore}
}

// ignoredDir reports whether absPath is, or lies under, an ignored directory.
func (f filter) ignoredDir(absPath string) bool {
	for _, d := range f.ignore {
		if absPath == d || strings.HasPrefix(absPath, d+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

// accepts reports whether an event for absPath should be delivered.
func (f filter) accepts(absPath string, isDir bool) bool {
	if f.ignoredDir(absPath) {
		return false
	}
	if isDir || f.match == nil {
		return true
	}
	return f.match(absPath)
}
