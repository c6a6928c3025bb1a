// Package errors provides structured error handling for docsync.
//
// Error codes follow the pattern ERR_XXX_DESCRIPTION where:
//   - 1XX: Configuration errors
//   - 2XX: IO errors (documents, manifest, lock)
//   - 4XX: Validation errors
//   - 5XX: Index and internal errors
package errors

// Category defines error categories for classification.
type Category string

const (
	// CategoryConfig indicates configuration-related errors.
	CategoryConfig Category = "CONFIG"
	// CategoryIO indicates file and disk I/O errors.
	CategoryIO Category = "IO"
	// CategoryValidation indicates input validation errors.
	CategoryValidation Category = "VALIDATION"
	// CategoryIndex indicates failures reported by the index backend.
	CategoryIndex Category = "INDEX"
	// CategoryInternal indicates unexpected internal errors.
	CategoryInternal Category = "INTERNAL"
)

// Severity defines error severity levels.
type Severity string

const (
	// SeverityFatal aborts the current pass.
	SeverityFatal Severity = "FATAL"
	// SeverityError fails one operation, the pass continues.
	SeverityError Severity = "ERROR"
	// SeverityWarning indicates a skipped item that is retried next pass.
	SeverityWarning Severity = "WARNING"
)

// Error codes organized by category.
const (
	// Config errors (100-199)
	ErrCodeConfigNotFound = "ERR_101_CONFIG_NOT_FOUND"
	ErrCodeConfigInvalid  = "ERR_102_CONFIG_INVALID"

	// IO errors (200-299)
	ErrCodeFileUnreadable  = "ERR_201_FILE_UNREADABLE"
	ErrCodeFilePermission  = "ERR_202_FILE_PERMISSION"
	ErrCodeFileNotFound    = "ERR_203_FILE_NOT_FOUND"
	ErrCodeFileTooLarge    = "ERR_204_FILE_TOO_LARGE"
	ErrCodeCorruptManifest = "ERR_205_CORRUPT_MANIFEST"
	ErrCodeDirNotFound     = "ERR_206_DIR_NOT_FOUND"
	ErrCodeManifestWrite   = "ERR_207_MANIFEST_WRITE"
	ErrCodePassInProgress  = "ERR_208_PASS_IN_PROGRESS"
	ErrCodeCorruptIndex    = "ERR_209_CORRUPT_INDEX"

	// Validation errors (400-499)
	ErrCodeInvalidInput = "ERR_401_INVALID_INPUT"
	ErrCodeQueryEmpty   = "ERR_404_QUERY_EMPTY"
	ErrCodeInvalidPath  = "ERR_406_INVALID_PATH"

	// Index and internal errors (500-599)
	ErrCodeInternal      = "ERR_501_INTERNAL"
	ErrCodeSearchFailed  = "ERR_503_SEARCH_FAILED"
	ErrCodeGatewayFailed = "ERR_505_GATEWAY_FAILED"
	ErrCodePersistFailed = "ERR_506_PERSIST_FAILED"
	ErrCodePassAborted   = "ERR_507_PASS_ABORTED"
)

// categoryFromCode extracts category from error code.
func categoryFromCode(code string) Category {
	if len(code) < 7 {
		return CategoryInternal
	}

	// "205" from "ERR_205_CORRUPT_MANIFEST"
	switch code[4] {
	case '1':
		return CategoryConfig
	case '2':
		return CategoryIO
	case '4':
		return CategoryValidation
	case '5':
		switch code {
		case ErrCodeGatewayFailed, ErrCodePersistFailed, ErrCodeSearchFailed:
			return CategoryIndex
		}
		return CategoryInternal
	default:
		return CategoryInternal
	}
}

// severityFromCode determines severity based on error code.
func severityFromCode(code string) Severity {
	switch code {
	case ErrCodeCorruptManifest, ErrCodeManifestWrite, ErrCodePersistFailed,
		ErrCodeDirNotFound, ErrCodeCorruptIndex, ErrCodeConfigInvalid, ErrCodeConfigNotFound:
		return SeverityFatal
	case ErrCodeFileUnreadable, ErrCodeFileNotFound, ErrCodeFilePermission, ErrCodeFileTooLarge:
		return SeverityWarning
	}
	return SeverityError
}

// isRetryableCode checks if an error code represents a retryable error.
func isRetryableCode(code string) bool {
	switch code {
	case ErrCodeGatewayFailed, ErrCodePassInProgress:
		return true
	default:
		return false
	}
}
