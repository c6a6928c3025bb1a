package preflight

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	docerrors "github.com/Aman-CERP/docsync/internal/errors"
	"github.com/Aman-CERP/docsync/internal/manifest"
)

// CheckStatus represents the result of a preflight check.
type CheckStatus int

const (
	// StatusPass indicates the check passed successfully.
	StatusPass CheckStatus = iota
	// StatusWarn indicates a non-critical warning.
	StatusWarn
	// StatusFail indicates the check failed.
	StatusFail
)

// String returns the string representation of a CheckStatus.
func (s CheckStatus) String() string {
	switch s {
	case StatusPass:
		return "PASS"
	case StatusWarn:
		return "WARN"
	case StatusFail:
		return "FAIL"
	default:
		return "UNKNOWN"
	}
}

// MarshalText renders the status name in JSON output.
func (s CheckStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// CheckResult holds the result of a single preflight check.
type CheckResult struct {
	Name     string      `json:"name"`
	Status   CheckStatus `json:"status"`
	Message  string      `json:"message"`
	Details  string      `json:"details,omitempty"`
	Required bool        `json:"required"`
}

// IsCritical returns true if this is a required check that failed.
func (r CheckResult) IsCritical() bool {
	return r.Required && r.Status == StatusFail
}

// Paths locates what the checks inspect.
type Paths struct {
	DataDir      string
	StorageDir   string
	ManifestPath string

	// ScanWorkers sizes the open-file check. Zero counts as one.
	ScanWorkers int
}

// Checker performs preflight validation checks.
type Checker struct {
	verbose bool
	output  io.Writer
}

// Option configures a Checker.
type Option func(*Checker)

// WithVerbose prints check details.
func WithVerbose(verbose bool) Option {
	return func(c *Checker) {
		c.verbose = verbose
	}
}

// WithOutput sets the output writer.
func WithOutput(w io.Writer) Option {
	return func(c *Checker) {
		c.output = w
	}
}

// New creates a new Checker with the given options.
func New(opts ...Option) *Checker {
	c := &Checker{
		output: os.Stdout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// RunAll runs every check and returns the results in a fixed order.
func (c *Checker) RunAll(ctx context.Context, p Paths) []CheckResult {
	results := []CheckResult{
		c.CheckDataDir(p.DataDir),
		c.CheckWritePermissions(p.StorageDir),
		c.CheckDiskSpace(p.StorageDir),
		c.CheckManifest(p.ManifestPath),
		c.CheckPassLock(p.ManifestPath),
		c.CheckOpenFiles(p.ScanWorkers),
	}
	if err := ctx.Err(); err != nil {
		results = append(results, CheckResult{
			Name:    "canceled",
			Status:  StatusWarn,
			Message: err.Error(),
		})
	}
	return results
}

// HasCriticalFailures returns true if any required check failed.
func (c *Checker) HasCriticalFailures(results []CheckResult) bool {
	for _, r := range results {
		if r.IsCritical() {
			return true
		}
	}
	return false
}

// SummaryStatus returns "ready", "ready_with_warnings" or "failed".
func (c *Checker) SummaryStatus(results []CheckResult) string {
	hasWarnings := false
	for _, r := range results {
		if r.IsCritical() {
			return "failed"
		}
		if r.Status == StatusWarn || r.Status == StatusFail {
			hasWarnings = true
		}
	}
	if hasWarnings {
		return "ready_with_warnings"
	}
	return "ready"
}

// PrintResults prints check results to the configured output.
func (c *Checker) PrintResults(results []CheckResult) {
	_, _ = fmt.Fprintln(c.output, "docsync system check")
	_, _ = fmt.Fprintln(c.output, "====================")
	_, _ = fmt.Fprintln(c.output)

	for _, r := range results {
		_, _ = fmt.Fprintf(c.output, "[%s] %s: %s\n", r.Status, r.Name, r.Message)
		if c.verbose && r.Details != "" {
			_, _ = fmt.Fprintf(c.output, "      %s\n", r.Details)
		}
	}

	_, _ = fmt.Fprintln(c.output)
	_, _ = fmt.Fprintf(c.output, "Status: %s\n", strings.ToUpper(c.SummaryStatus(results)))

	var failures, warnings []string
	for _, r := range results {
		switch {
		case r.IsCritical():
			failures = append(failures, r.Name+": "+r.Message)
		case r.Status != StatusPass:
			warnings = append(warnings, r.Name+": "+r.Message)
		}
	}
	printList(c.output, "error(s)", failures)
	printList(c.output, "warning(s)", warnings)
}

func printList(w io.Writer, label string, items []string) {
	if len(items) == 0 {
		return
	}
	_, _ = fmt.Fprintln(w)
	_, _ = fmt.Fprintf(w, "%d %s:\n", len(items), label)
	for _, item := range items {
		_, _ = fmt.Fprintf(w, "  - %s\n", item)
	}
}

// CheckDataDir checks that the data directory exists and can be listed.
func (c *Checker) CheckDataDir(path string) CheckResult {
	result := CheckResult{Name: "data_dir", Required: true}

	info, err := os.Stat(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		result.Status = StatusFail
		result.Message = "not found: " + path
		result.Details = "Create it or set paths.data_dir"
		return result
	case err != nil:
		result.Status = StatusFail
		result.Message = err.Error()
		return result
	case !info.IsDir():
		result.Status = StatusFail
		result.Message = "not a directory: " + path
		return result
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		result.Status = StatusFail
		result.Message = fmt.Sprintf("cannot list: %v", err)
		return result
	}

	result.Status = StatusPass
	result.Message = fmt.Sprintf("%s (%d entries)", path, len(entries))
	return result
}

// CheckWritePermissions checks that the storage directory accepts new
// files. A missing directory is fine when its parent is writable.
func (c *Checker) CheckWritePermissions(path string) CheckResult {
	result := CheckResult{Name: "storage_writable", Required: true}

	dir := existingDir(path)

	f, err := os.CreateTemp(dir, ".docsync-preflight-*")
	if err != nil {
		result.Status = StatusFail
		result.Message = fmt.Sprintf("permission denied: %v", err)
		return result
	}
	_ = f.Close()
	_ = os.Remove(f.Name())

	result.Status = StatusPass
	result.Message = "OK"
	if dir != path {
		result.Details = fmt.Sprintf("%s will be created under %s", path, dir)
	}
	return result
}

// CheckManifest checks that an existing manifest parses. A missing
// manifest means the next pass indexes every document.
func (c *Checker) CheckManifest(path string) CheckResult {
	result := CheckResult{Name: "manifest", Required: true}

	m, err := manifest.NewStore(path).Load()
	if err != nil {
		result.Status = StatusFail
		result.Message = err.Error()
		var se *docerrors.SyncError
		if errors.As(err, &se) {
			result.Message = se.Message
			result.Details = se.Suggestion
		}
		return result
	}

	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		result.Status = StatusWarn
		result.Message = "not found, the next pass indexes every document"
		return result
	}

	result.Status = StatusPass
	result.Message = fmt.Sprintf("%d entries", len(m))
	return result
}

// CheckPassLock reports whether another pass holds the manifest lock.
func (c *Checker) CheckPassLock(manifestPath string) CheckResult {
	result := CheckResult{Name: "pass_lock"}

	if _, err := os.Stat(filepath.Dir(manifestPath)); err != nil {
		result.Status = StatusPass
		result.Message = "free"
		return result
	}

	lock, err := manifest.NewStore(manifestPath).Lock()
	if err != nil {
		result.Status = StatusWarn
		result.Message = "a pass is running"
		if !errors.Is(err, docerrors.ErrPassInProgress) {
			result.Message = err.Error()
		}
		return result
	}
	_ = lock.Unlock()

	result.Status = StatusPass
	result.Message = "free"
	return result
}

// existingDir returns path or its nearest ancestor that exists.
func existingDir(path string) string {
	dir := path
	for {
		if _, err := os.Stat(dir); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return dir
		}
		dir = parent
	}
}
