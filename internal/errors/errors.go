package errors

import (
	"context"
	"errors"
	"fmt"
)

// Stable codes for the non-conflict error types.
const (
	CodeValidationFailed = "VALIDATION_FAILED"
	CodeInvalidInput     = "INVALID_INPUT"
	CodeNotFound         = "NOT_FOUND"
	CodeDatabase         = "DATABASE_ERROR"
	CodeTimeout          = "TIMEOUT"
	CodeExternal         = "EXTERNAL_ERROR"
	CodeUnknown          = "UNKNOWN_ERROR"
)

// Conflict codes distinguish why an entity refused a mutation.
const (
	CodeEntryStatusLocked = "ENTRY_STATUS_LOCKED"
	CodeExternalReadOnly  = "EXTERNAL_READ_ONLY"
	CodeInvalidTransition = "INVALID_TRANSITION"
	CodeDuplicateWeek     = "DUPLICATE_WEEK"
)

func newError(t ErrorType, code, message string, cause error, details map[string]any) *AppError {
	return &AppError{Type: t, Code: code, Message: message, Cause: cause, Details: details}
}

// NewValidationError reports input rejected by a validator. cause usually
// holds the field or rule violations.
func NewValidationError(message string, cause error) *AppError {
	return newError(ErrorTypeValidation, CodeValidationFailed, message, cause, nil)
}

// NewInvalidInputError reports a single malformed argument.
func NewInvalidInputError(field string, value any, reason string) *AppError {
	return newError(ErrorTypeInvalidInput, CodeInvalidInput,
		fmt.Sprintf("invalid input for %s: %s", field, reason), nil,
		map[string]any{"field": field, "value": value})
}

func NewNotFoundError(resource string, identifier string) *AppError {
	return newError(ErrorTypeNotFound, CodeNotFound,
		fmt.Sprintf("%s not found: %s", resource, identifier), nil,
		map[string]any{"resource": resource, "identifier": identifier})
}

// NewDatabaseError wraps a storage failure. A cause that hit the query
// deadline is reported as a timeout.
func NewDatabaseError(operation string, cause error) *AppError {
	details := map[string]any{"operation": operation}
	if errors.Is(cause, context.DeadlineExceeded) {
		return newError(ErrorTypeTimeout, CodeTimeout,
			fmt.Sprintf("database operation timed out: %s", operation), cause, details)
	}
	return newError(ErrorTypeDatabase, CodeDatabase,
		fmt.Sprintf("database operation failed: %s", operation), cause, details)
}

// NewConflictError creates a state-conflict error. The code names the condition
// that blocked the operation so callers can render "locked" rather than "invalid".
func NewConflictError(code string, message string) *AppError {
	return newError(ErrorTypeConflict, code, message, nil, nil)
}

// NewExternalError wraps a failed call to the attendance feed or another collaborator.
func NewExternalError(operation string, cause error) *AppError {
	return newError(ErrorTypeExternal, CodeExternal,
		fmt.Sprintf("external call failed: %s", operation), cause,
		map[string]any{"operation": operation})
}

// AsAppError finds the first AppError in err's chain.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

func IsErrorType(err error, errorType ErrorType) bool {
	appErr, ok := AsAppError(err)
	return ok && appErr.Type == errorType
}

// IsConflict reports whether err is a state-conflict error with the given code.
// An empty code matches any conflict.
func IsConflict(err error, code string) bool {
	appErr, ok := AsAppError(err)
	if !ok || appErr.Type != ErrorTypeConflict {
		return false
	}
	return code == "" || appErr.Code == code
}

// GetUserMessage returns text safe to show an operator. System failures are
// replaced with a generic line; their detail belongs in the log.
func GetUserMessage(err error) string {
	appErr, ok := AsAppError(err)
	if !ok {
		return err.Error()
	}
	if appErr.Type.caller() {
		return appErr.Message
	}
	switch appErr.Type {
	case ErrorTypeDatabase:
		return "A database error occurred. Please try again."
	case ErrorTypeTimeout:
		return "The operation timed out. Please try again."
	case ErrorTypeExternal:
		return "The external attendance system is unavailable. Please try again later."
	default:
		return "An unexpected error occurred. Please try again."
	}
}

func GetErrorCode(err error) string {
	if appErr, ok := AsAppError(err); ok {
		return appErr.Code
	}
	return CodeUnknown
}

// ShouldLogError is false for errors the caller caused.
func ShouldLogError(err error) bool {
	appErr, ok := AsAppError(err)
	return !ok || !appErr.Type.caller()
}
