package validation

import (
	"errors"
	"fmt"
	"strings"
)

// ValidationErrorType names the rule a field broke.
type ValidationErrorType string

const (
	ErrorTypeRequired         ValidationErrorType = "required"
	ErrorTypeInvalidFormat    ValidationErrorType = "invalid_format"
	ErrorTypeInvalidLength    ValidationErrorType = "invalid_length"
	ErrorTypeInvalidValue     ValidationErrorType = "invalid_value"
	ErrorTypeInvalidRange     ValidationErrorType = "invalid_range"
	ErrorTypeInvalidCharacter ValidationErrorType = "invalid_character"
)

// FieldError is one broken rule. Field uses the wire name of the input.
type FieldError struct {
	Field   string              `json:"field"`
	Type    ValidationErrorType `json:"type"`
	Message string              `json:"message"`
	Value   any                 `json:"-"`
}

func (fe FieldError) Error() string {
	return fe.Message
}

// ValidationError collects every field failure of one input instead of
// stopping at the first.
type ValidationError struct {
	Errors []FieldError
}

func NewValidationError() *ValidationError {
	return &ValidationError{Errors: []FieldError{}}
}

func (ve *ValidationError) Error() string {
	if len(ve.Errors) == 0 {
		return "validation failed"
	}
	return "validation failed: " + strings.Join(ve.messages(), "; ")
}

func (ve *ValidationError) HasErrors() bool {
	return len(ve.Errors) > 0
}

func (ve *ValidationError) AddError(field string, errorType ValidationErrorType, message string, value any) {
	ve.Errors = append(ve.Errors, FieldError{Field: field, Type: errorType, Message: message, Value: value})
}

func (ve *ValidationError) add(field string, errorType ValidationErrorType, value any, format string, args ...any) {
	ve.AddError(field, errorType, field+" "+fmt.Sprintf(format, args...), value)
}

func (ve *ValidationError) AddRequiredError(field string) {
	ve.add(field, ErrorTypeRequired, nil, "is required")
}

func (ve *ValidationError) AddInvalidFormatError(field string, value any, expectedFormat string) {
	ve.add(field, ErrorTypeInvalidFormat, value, "must be formatted as %s", expectedFormat)
}

// AddInvalidLengthError records a length outside [min, max]. A zero bound is open.
func (ve *ValidationError) AddInvalidLengthError(field string, value any, min, max int) {
	switch {
	case min > 0 && max > 0:
		ve.add(field, ErrorTypeInvalidLength, value, "must be %d to %d characters", min, max)
	case max > 0:
		ve.add(field, ErrorTypeInvalidLength, value, "must be at most %d characters", max)
	default:
		ve.add(field, ErrorTypeInvalidLength, value, "must be at least %d characters", min)
	}
}

func (ve *ValidationError) AddInvalidValueError(field string, value any, reason string) {
	ve.add(field, ErrorTypeInvalidValue, value, "%s", reason)
}

func (ve *ValidationError) AddInvalidRangeError(field string, value any, reason string) {
	ve.add(field, ErrorTypeInvalidRange, value, "%s", reason)
}

func (ve *ValidationError) AddInvalidCharacterError(field string, value any) {
	ve.add(field, ErrorTypeInvalidCharacter, value, "contains control characters")
}

// GetFieldErrors returns the failures recorded for field, in insertion order.
func (ve *ValidationError) GetFieldErrors(field string) []FieldError {
	var out []FieldError
	for _, fe := range ve.Errors {
		if fe.Field == field {
			out = append(out, fe)
		}
	}
	return out
}

// GetUserFriendlyMessage renders the failures for an operator, one per line
// when there are several.
func (ve *ValidationError) GetUserFriendlyMessage() string {
	switch len(ve.Errors) {
	case 0:
		return "Input validation failed"
	case 1:
		return ve.Errors[0].Message
	}
	return "Input validation failed:\n- " + strings.Join(ve.messages(), "\n- ")
}

func (ve *ValidationError) messages() []string {
	out := make([]string, 0, len(ve.Errors))
	for _, fe := range ve.Errors {
		out = append(out, fe.Message)
	}
	return out
}

func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// ViolationError carries the human-readable business-rule violations for an
// entry. Callers surface the messages verbatim.
type ViolationError struct {
	Violations []string
}

func (ve *ViolationError) Error() string {
	if len(ve.Violations) == 0 {
		return "validation failed"
	}
	return strings.Join(ve.Violations, "; ")
}

// NewViolationError returns nil when there are no violations.
func NewViolationError(violations []string) error {
	if len(violations) == 0 {
		return nil
	}
	return &ViolationError{Violations: violations}
}

func IsViolationError(err error) bool {
	var ve *ViolationError
	return errors.As(err, &ve)
}
