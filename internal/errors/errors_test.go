package errors

import (
	"errors"
	"fmt"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSyncError_Unwrap_PreservesOriginalError(t *testing.T) {
	// Given: an original error
	originalErr := errors.New("original error")

	// When: wrapping with SyncError
	syncErr := New(ErrCodeFileUnreadable, "cannot read a.txt", originalErr)

	// Then: unwrapping returns original error
	require.NotNil(t, syncErr)
	assert.Equal(t, originalErr, errors.Unwrap(syncErr))
	assert.True(t, errors.Is(syncErr, originalErr))
}

func TestSyncError_Error_ReturnsFormattedMessage(t *testing.T) {
	tests := []struct {
		name     string
		code     string
		message  string
		expected string
	}{
		{
			name:     "config error",
			code:     ErrCodeConfigNotFound,
			message:  "config file not found",
			expected: "[ERR_101_CONFIG_NOT_FOUND] config file not found",
		},
		{
			name:     "manifest error",
			code:     ErrCodeCorruptManifest,
			message:  "manifest is corrupt",
			expected: "[ERR_205_CORRUPT_MANIFEST] manifest is corrupt",
		},
		{
			name:     "gateway error",
			code:     ErrCodeGatewayFailed,
			message:  "insert a.txt failed",
			expected: "[ERR_505_GATEWAY_FAILED] insert a.txt failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := New(tt.code, tt.message, nil)
			assert.Equal(t, tt.expected, err.Error())
		})
	}
}

func TestSyncError_Is_MatchesSentinelThroughWrapping(t *testing.T) {
	// Given: a corrupt manifest error wrapped twice
	err := fmt.Errorf("failed to load manifest: %w", CorruptManifestError("/tmp/m.json", errors.New("bad json")))

	// Then: sentinel matches by code, other sentinels do not
	assert.True(t, errors.Is(err, ErrCorruptManifest))
	assert.False(t, errors.Is(err, ErrManifestWrite))
}

func TestSyncError_WithDetailAndSuggestion(t *testing.T) {
	err := New(ErrCodeInvalidPath, "bad path", nil).
		WithDetail("path", "../x").
		WithSuggestion("use a path inside the data directory")

	assert.Equal(t, "../x", err.Details["path"])
	assert.Equal(t, "use a path inside the data directory", err.Suggestion)
}

func TestSyncError_CategoryFromCode(t *testing.T) {
	tests := []struct {
		code     string
		expected Category
	}{
		{ErrCodeConfigInvalid, CategoryConfig},
		{ErrCodeFileUnreadable, CategoryIO},
		{ErrCodeCorruptManifest, CategoryIO},
		{ErrCodeInvalidInput, CategoryValidation},
		{ErrCodeGatewayFailed, CategoryIndex},
		{ErrCodePersistFailed, CategoryIndex},
		{ErrCodeInternal, CategoryInternal},
		{"bad", CategoryInternal},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.expected, categoryFromCode(tt.code))
		})
	}
}

func TestSyncError_SeverityFromCode(t *testing.T) {
	tests := []struct {
		code     string
		expected Severity
	}{
		{ErrCodeCorruptManifest, SeverityFatal},
		{ErrCodeManifestWrite, SeverityFatal},
		{ErrCodePersistFailed, SeverityFatal},
		{ErrCodeFileUnreadable, SeverityWarning},
		{ErrCodeFileNotFound, SeverityWarning},
		{ErrCodeGatewayFailed, SeverityError},
		{ErrCodePassAborted, SeverityError},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.expected, severityFromCode(tt.code))
		})
	}
}

func TestIOError_ClassifiesCause(t *testing.T) {
	tests := []struct {
		name     string
		cause    error
		expected string
	}{
		{"vanished", &fs.PathError{Op: "open", Path: "a.txt", Err: fs.ErrNotExist}, ErrCodeFileNotFound},
		{"permission", &fs.PathError{Op: "open", Path: "a.txt", Err: fs.ErrPermission}, ErrCodeFilePermission},
		{"other", errors.New("short read"), ErrCodeFileUnreadable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := IOError("a.txt", tt.cause)
			assert.Equal(t, tt.expected, err.Code)
			assert.Equal(t, CategoryIO, err.Category)
			assert.Equal(t, "a.txt", err.Details["path"])
		})
	}
}

func TestGatewayError_IsRetryable(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", GatewayError("insert", "a.txt", errors.New("timeout")))

	assert.True(t, IsRetryable(err))
	assert.False(t, IsFatal(err))
	assert.Equal(t, ErrCodeGatewayFailed, GetCode(err))
	assert.Equal(t, CategoryIndex, GetCategory(err))
}

func TestIsFatal_ChecksFatalSeverity(t *testing.T) {
	assert.True(t, IsFatal(PersistError(errors.New("disk full"))))
	assert.True(t, IsFatal(ManifestWriteError("/tmp/m.json", errors.New("rename"))))
	assert.False(t, IsFatal(IOError("a.txt", errors.New("x"))))
	assert.False(t, IsFatal(errors.New("plain")))
	assert.False(t, IsFatal(nil))
}

func TestWrap_NilReturnsNil(t *testing.T) {
	assert.Nil(t, Wrap(ErrCodeInternal, nil))
}
