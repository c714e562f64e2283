// Package mcp implements the Model Context Protocol server for grepmcp.
package mcp

import (
	"context"
	"errors"
	"fmt"

	gerrors "github.com/grepmcp/grepmcp/internal/errors"
)

// MCP error codes used by grepmcp.
const (
	// ErrCodeResourceNotFound indicates a path does not exist or has the
	// wrong kind for the operation (file vs directory).
	ErrCodeResourceNotFound = -32002

	// ErrCodePermissionDenied indicates the path exists but cannot be read.
	ErrCodePermissionDenied = -32003

	// ErrCodeDecodeFailed indicates the file content is not decodable text.
	ErrCodeDecodeFailed = -32004

	// Standard JSON-RPC error codes.
	ErrCodeMethodNotFound = -32601
	ErrCodeInvalidParams  = -32602
	ErrCodeInternalError  = -32603
)

// MCPError represents an MCP protocol error with code and message.
type MCPError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface.
func (e *MCPError) Error() string {
	return fmt.Sprintf("MCP error %d: %s", e.Code, e.Message)
}

// MapError converts internal errors to MCP errors. Search taxonomy errors
// keep their descriptive message (including the offending path); anything
// unrecognized collapses to a sanitized internal error so the client never
// sees a raw failure.
func MapError(err error) *MCPError {
	if err == nil {
		return nil
	}

	var ge *gerrors.GrepError
	if errors.As(err, &ge) {
		return mapGrepError(ge)
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return &MCPError{Code: ErrCodeInternalError, Message: "Request timed out."}
	case errors.Is(err, context.Canceled):
		return &MCPError{Code: ErrCodeInternalError, Message: "Request was canceled."}
	default:
		return &MCPError{Code: ErrCodeInternalError, Message: "Internal server error."}
	}
}

// NewInvalidParamsError creates an error for invalid parameters with a
// custom message.
func NewInvalidParamsError(msg string) *MCPError {
	return &MCPError{Code: ErrCodeInvalidParams, Message: msg}
}

// NewMethodNotFoundError creates an error for unknown tools.
func NewMethodNotFoundError(name string) *MCPError {
	return &MCPError{
		Code:    ErrCodeMethodNotFound,
		Message: fmt.Sprintf("Tool '%s' not found.", name),
	}
}

// mapGrepError converts a GrepError to an MCPError.
func mapGrepError(ge *gerrors.GrepError) *MCPError {
	message := ge.Message
	if ge.Suggestion != "" {
		message = fmt.Sprintf("%s %s", ge.Message, ge.Suggestion)
	}

	switch ge.Code {
	case gerrors.ErrCodeInvalidArgument:
		return &MCPError{Code: ErrCodeInvalidParams, Message: message}
	case gerrors.ErrCodePathNotFound, gerrors.ErrCodeNotAFile, gerrors.ErrCodeNotADirectory:
		return &MCPError{Code: ErrCodeResourceNotFound, Message: message}
	case gerrors.ErrCodeFilePermission:
		return &MCPError{Code: ErrCodePermissionDenied, Message: message}
	case gerrors.ErrCodeFileDecode:
		return &MCPError{Code: ErrCodeDecodeFailed, Message: message}
	default:
		switch ge.Category {
		case gerrors.CategoryValidation:
			return &MCPError{Code: ErrCodeInvalidParams, Message: message}
		case gerrors.CategoryIO:
			return &MCPError{Code: ErrCodeInternalError, Message: message}
		default:
			return &MCPError{Code: ErrCodeInternalError, Message: "Internal server error."}
		}
	}
}
