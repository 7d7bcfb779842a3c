package errors

import "fmt"

// ErrorType is the category of an AppError. The API maps it to an HTTP
// status and the CLI to a message.
type ErrorType string

const (
	ErrorTypeValidation   ErrorType = "validation"
	ErrorTypeInvalidInput ErrorType = "invalid_input"
	ErrorTypeNotFound     ErrorType = "not_found"
	ErrorTypeConflict     ErrorType = "conflict"
	ErrorTypeDatabase     ErrorType = "database"
	ErrorTypeTimeout      ErrorType = "timeout"
	ErrorTypeExternal     ErrorType = "external"
)

func (et ErrorType) String() string {
	if et == "" {
		return "unknown"
	}
	return string(et)
}

// caller reports whether the error was caused by the request rather than the
// system. Caller errors are shown verbatim and never logged.
func (et ErrorType) caller() bool {
	switch et {
	case ErrorTypeValidation, ErrorTypeInvalidInput, ErrorTypeNotFound, ErrorTypeConflict:
		return true
	}
	return false
}

// AppError is a categorised failure carrying a stable machine-readable code.
type AppError struct {
	Type    ErrorType
	Code    string
	Message string
	Cause   error
	Details map[string]any
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Is matches another AppError with the same type and code, so a bare
// &AppError{Type: ..., Code: ...} works as a sentinel with errors.Is.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	return ok && e.Type == t.Type && e.Code == t.Code
}

// Detail returns a value recorded by the constructor, such as the resource of
// a not-found error.
func (e *AppError) Detail(key string) (any, bool) {
	v, ok := e.Details[key]
	return v, ok
}
