// Package mcp exposes document synchronization over the Model Context
// Protocol.
package mcp

import (
	"context"
	"errors"
	"fmt"

	docerrors "github.com/Aman-CERP/docsync/internal/errors"
)

// MCP error codes. Negative codes above -32100 are server defined.
const (
	ErrCodeIndexUnavailable = -32001
	ErrCodePassInProgress   = -32002
	ErrCodeTimeout          = -32003
	ErrCodeFileNotFound     = -32004

	// Standard JSON-RPC error codes.
	ErrCodeMethodNotFound = -32601
	ErrCodeInvalidParams  = -32602
	ErrCodeInternalError  = -32603
)

// MCPError is a protocol error with code and message.
type MCPError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface.
func (e *MCPError) Error() string {
	return fmt.Sprintf("MCP error %d: %s", e.Code, e.Message)
}

// MapError converts internal errors to MCP errors.
func MapError(err error) *MCPError {
	if err == nil {
		return nil
	}

	var mcpErr *MCPError
	if errors.As(err, &mcpErr) {
		return mcpErr
	}

	var syncErr *docerrors.SyncError
	if errors.As(err, &syncErr) {
		return mapSyncError(syncErr)
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return &MCPError{Code: ErrCodeTimeout, Message: "Request timed out."}
	case errors.Is(err, context.Canceled):
		return &MCPError{Code: ErrCodeTimeout, Message: "Request was canceled."}
	default:
		return &MCPError{Code: ErrCodeInternalError, Message: "Internal server error."}
	}
}

// NewInvalidParamsError creates an error for invalid parameters.
func NewInvalidParamsError(msg string) *MCPError {
	return &MCPError{Code: ErrCodeInvalidParams, Message: msg}
}

// NewMethodNotFoundError creates an error for unknown tools.
func NewMethodNotFoundError(name string) *MCPError {
	return &MCPError{Code: ErrCodeMethodNotFound, Message: fmt.Sprintf("Tool '%s' not found.", name)}
}

func mapSyncError(se *docerrors.SyncError) *MCPError {
	message := se.Message
	if se.Suggestion != "" {
		message = fmt.Sprintf("%s. %s", se.Message, se.Suggestion)
	}

	switch se.Code {
	case docerrors.ErrCodePassInProgress:
		return &MCPError{Code: ErrCodePassInProgress, Message: message}
	case docerrors.ErrCodeFileNotFound, docerrors.ErrCodeDirNotFound:
		return &MCPError{Code: ErrCodeFileNotFound, Message: message}
	case docerrors.ErrCodeCorruptIndex, docerrors.ErrCodeCorruptManifest:
		return &MCPError{Code: ErrCodeIndexUnavailable, Message: message}
	case docerrors.ErrCodePassAborted:
		return &MCPError{Code: ErrCodeTimeout, Message: message}
	}

	switch se.Category {
	case docerrors.CategoryValidation:
		return &MCPError{Code: ErrCodeInvalidParams, Message: message}
	case docerrors.CategoryIndex:
		return &MCPError{Code: ErrCodeIndexUnavailable, Message: message}
	default:
		return &MCPError{Code: ErrCodeInternalError, Message: message}
	}
}
