package errors

import (
	stderrors "errors"
	"fmt"
	"io/fs"
)

// SyncError is the structured error type for docsync.
// It carries enough context to decide whether a pass continues, aborts, or
// retries, and to present the failure to a user.
type SyncError struct {
	// Code is the unique error code (e.g., "ERR_205_CORRUPT_MANIFEST").
	Code string

	// Message is the human-readable error message.
	Message string

	// Category is the error category (Config, IO, Index, etc.).
	Category Category

	// Severity is the error severity level.
	Severity Severity

	// Details contains additional context as key-value pairs.
	Details map[string]string

	// Cause is the underlying error that caused this error.
	Cause error

	// Retryable indicates if the operation can be retried.
	Retryable bool

	// Suggestion is an actionable suggestion for the user.
	Suggestion string
}

// Sentinels for errors.Is matching. Matching is by code only.
var (
	ErrCorruptManifest = &SyncError{Code: ErrCodeCorruptManifest}
	ErrManifestWrite   = &SyncError{Code: ErrCodeManifestWrite}
	ErrPassInProgress  = &SyncError{Code: ErrCodePassInProgress}
	ErrPassAborted     = &SyncError{Code: ErrCodePassAborted}
	ErrGateway         = &SyncError{Code: ErrCodeGatewayFailed}
	ErrPersist         = &SyncError{Code: ErrCodePersistFailed}
	ErrFileNotFound    = &SyncError{Code: ErrCodeFileNotFound}
	ErrFileUnreadable  = &SyncError{Code: ErrCodeFileUnreadable}
	ErrDirNotFound     = &SyncError{Code: ErrCodeDirNotFound}
)

// Error implements the error interface.
func (e *SyncError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for error chain support.
func (e *SyncError) Unwrap() error {
	return e.Cause
}

// Is reports whether target is a SyncError with the same code.
func (e *SyncError) Is(target error) bool {
	if t, ok := target.(*SyncError); ok {
		return e.Code == t.Code
	}
	return false
}

// WithDetail adds a key-value detail to the error.
func (e *SyncError) WithDetail(key, value string) *SyncError {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// WithSuggestion adds an actionable suggestion for the user.
func (e *SyncError) WithSuggestion(suggestion string) *SyncError {
	e.Suggestion = suggestion
	return e
}

// New creates a new SyncError with the given code and message.
// Category, severity, and retryable flag are derived from the code.
func New(code string, message string, cause error) *SyncError {
	return &SyncError{
		Code:      code,
		Message:   message,
		Category:  categoryFromCode(code),
		Severity:  severityFromCode(code),
		Cause:     cause,
		Retryable: isRetryableCode(code),
	}
}

// Wrap creates a SyncError from an existing error, reusing its message.
func Wrap(code string, err error) *SyncError {
	if err == nil {
		return nil
	}
	return New(code, err.Error(), err)
}

// ConfigError creates a configuration-related error.
func ConfigError(message string, cause error) *SyncError {
	return New(ErrCodeConfigInvalid, message, cause)
}

// IOError creates a per-file read error. A vanished file gets
// ErrCodeFileNotFound, a permission failure ErrCodeFilePermission.
func IOError(path string, cause error) *SyncError {
	code := ErrCodeFileUnreadable
	switch {
	case stderrors.Is(cause, fs.ErrNotExist):
		code = ErrCodeFileNotFound
	case stderrors.Is(cause, fs.ErrPermission):
		code = ErrCodeFilePermission
	}
	return New(code, fmt.Sprintf("cannot read %s", path), cause).WithDetail("path", path)
}

// CorruptManifestError reports a manifest that exists but cannot be parsed.
func CorruptManifestError(path string, cause error) *SyncError {
	return New(ErrCodeCorruptManifest, fmt.Sprintf("manifest %s is corrupt", path), cause).
		WithDetail("path", path).
		WithSuggestion("inspect or remove the manifest; removing it re-indexes every document")
}

// ManifestWriteError reports a failed atomic manifest save.
func ManifestWriteError(path string, cause error) *SyncError {
	return New(ErrCodeManifestWrite, fmt.Sprintf("cannot write manifest %s", path), cause).
		WithDetail("path", path)
}

// GatewayError reports a failed per-document index operation.
func GatewayError(op, identity string, cause error) *SyncError {
	return New(ErrCodeGatewayFailed, fmt.Sprintf("%s %s failed", op, identity), cause).
		WithDetail("op", op).
		WithDetail("identity", identity)
}

// PersistError reports a failed index flush.
func PersistError(cause error) *SyncError {
	return New(ErrCodePersistFailed, "failed to persist index", cause)
}

// PassInProgressError reports that another pass holds the manifest.
func PassInProgressError(lockPath string) *SyncError {
	return New(ErrCodePassInProgress, "another sync pass is in progress", nil).
		WithDetail("lock", lockPath).
		WithSuggestion("wait for the running pass to finish")
}

// ValidationError creates a validation-related error.
func ValidationError(message string, cause error) *SyncError {
	return New(ErrCodeInvalidInput, message, cause)
}

// InternalError creates an internal error.
func InternalError(message string, cause error) *SyncError {
	return New(ErrCodeInternal, message, cause)
}

// IsRetryable reports whether any SyncError in the chain is retryable.
func IsRetryable(err error) bool {
	var se *SyncError
	if stderrors.As(err, &se) {
		return se.Retryable
	}
	return false
}

// IsFatal reports whether the first SyncError in the chain is fatal.
func IsFatal(err error) bool {
	var se *SyncError
	if stderrors.As(err, &se) {
		return se.Severity == SeverityFatal
	}
	return false
}

// GetCode extracts the error code from the chain.
// Returns empty string if there is no SyncError.
func GetCode(err error) string {
	var se *SyncError
	if stderrors.As(err, &se) {
		return se.Code
	}
	return ""
}

// GetCategory extracts the category from the chain.
func GetCategory(err error) Category {
	var se *SyncError
	if stderrors.As(err, &se) {
		return se.Category
	}
	return ""
}
