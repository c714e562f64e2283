package errors

import (
	"errors"
	"fmt"
)

// GrepError is the structured error type for grepmcp.
// It provides rich context for error handling, logging, and user presentation.
type GrepError struct {
	// Code is the unique error code (e.g., "ERR_201_PATH_NOT_FOUND").
	Code string

	// Message is the human-readable error message.
	Message string

	// Category is the error category (Config, IO, Validation, Internal).
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

// Error implements the error interface.
func (e *GrepError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for error chain support.
func (e *GrepError) Unwrap() error {
	return e.Cause
}

// Is checks if this error matches the target error by code.
// This enables errors.Is() to work with GrepError.
func (e *GrepError) Is(target error) bool {
	if t, ok := target.(*GrepError); ok {
		return e.Code == t.Code
	}
	return false
}

// WithDetail adds a key-value detail to the error.
// Returns the error for method chaining.
func (e *GrepError) WithDetail(key, value string) *GrepError {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// WithSuggestion adds an actionable suggestion for the user.
// Returns the error for method chaining.
func (e *GrepError) WithSuggestion(suggestion string) *GrepError {
	e.Suggestion = suggestion
	return e
}

// New creates a new GrepError with the given code and message.
// Category, severity, and retryable flag are derived from the code.
func New(code string, message string, cause error) *GrepError {
	return &GrepError{
		Code:      code,
		Message:   message,
		Category:  categoryFromCode(code),
		Severity:  severityFromCode(code),
		Cause:     cause,
		Retryable: isRetryableCode(code),
	}
}

// Wrap creates a GrepError from an existing error.
// The error's message becomes the GrepError message.
func Wrap(code string, err error) *GrepError {
	if err == nil {
		return nil
	}
	return New(code, err.Error(), err)
}

// InvalidArgument creates a validation error for a rejected request argument.
func InvalidArgument(message string) *GrepError {
	return New(ErrCodeInvalidArgument, message, nil)
}

// PathNotFound reports that a requested path does not exist.
// kind is the noun used in the message ("file" or "directory").
func PathNotFound(kind, path string) *GrepError {
	return New(ErrCodePathNotFound, fmt.Sprintf("%s '%s' does not exist", kind, path), nil).
		WithDetail("path", path)
}

// NotAFile reports that a file operation was attempted on a non-file path.
func NotAFile(path string) *GrepError {
	return New(ErrCodeNotAFile, fmt.Sprintf("'%s' is not a file", path), nil).
		WithDetail("path", path)
}

// NotADirectory reports that a directory operation was attempted on a
// non-directory path.
func NotADirectory(path string) *GrepError {
	return New(ErrCodeNotADirectory, fmt.Sprintf("'%s' is not a directory", path), nil).
		WithDetail("path", path)
}

// Permission reports an access-denied failure on a path.
func Permission(path string, cause error) *GrepError {
	return New(ErrCodeFilePermission, fmt.Sprintf("permission denied: cannot read '%s'", path), cause).
		WithDetail("path", path)
}

// Decode reports content that cannot be decoded as text.
func Decode(path string) *GrepError {
	return New(ErrCodeFileDecode, fmt.Sprintf("cannot decode '%s' as text; it may be a binary file", path), nil).
		WithDetail("path", path)
}

// ReadFailed reports a generic read failure on a path.
func ReadFailed(path string, cause error) *GrepError {
	return New(ErrCodeFileRead, fmt.Sprintf("failed to read '%s'", path), cause).
		WithDetail("path", path)
}

// ConfigError creates a configuration-related error.
func ConfigError(message string, cause error) *GrepError {
	return New(ErrCodeConfigInvalid, message, cause)
}

// InternalError creates an internal error.
func InternalError(message string, cause error) *GrepError {
	return New(ErrCodeInternal, message, cause)
}

// IsInvalidArgument reports whether err is an argument validation error.
func IsInvalidArgument(err error) bool { return GetCode(err) == ErrCodeInvalidArgument }

// IsNotFound reports whether err is a missing-path error.
func IsNotFound(err error) bool { return GetCode(err) == ErrCodePathNotFound }

// IsNotAFile reports whether err is a path-kind error for file operations.
func IsNotAFile(err error) bool { return GetCode(err) == ErrCodeNotAFile }

// IsNotADirectory reports whether err is a path-kind error for directory operations.
func IsNotADirectory(err error) bool { return GetCode(err) == ErrCodeNotADirectory }

// IsPermission reports whether err is an access-denied error.
func IsPermission(err error) bool { return GetCode(err) == ErrCodeFilePermission }

// IsDecode reports whether err is an undecodable-content error.
func IsDecode(err error) bool { return GetCode(err) == ErrCodeFileDecode }

// IsRetryable checks if an error is retryable.
// Returns true if the error chain contains a GrepError with Retryable set.
func IsRetryable(err error) bool {
	var ge *GrepError
	if errors.As(err, &ge) {
		return ge.Retryable
	}
	return false
}

// GetCode extracts the error code from a GrepError anywhere in the chain.
// Returns empty string if there is none.
func GetCode(err error) string {
	var ge *GrepError
	if errors.As(err, &ge) {
		return ge.Code
	}
	return ""
}

// GetCategory extracts the category from a GrepError anywhere in the chain.
// Returns empty string if there is none.
func GetCategory(err error) Category {
	var ge *GrepError
	if errors.As(err, &ge) {
		return ge.Category
	}
	return ""
}
