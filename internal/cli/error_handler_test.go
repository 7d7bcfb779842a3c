package cli

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	apperrors "timesheet-admin/internal/errors"
	"timesheet-admin/internal/validation"
)

func TestErrorHandler_Handle(t *testing.T) {
	eh := NewErrorHandler()

	fieldErr := validation.NewValidationError()
	fieldErr.AddRequiredError("actor")

	tests := []struct {
		name      string
		operation string
		err       error
		expected  string
	}{
		{
			name:      "should surface validation messages",
			operation: "override status",
			err:       apperrors.NewValidationError("invalid input", nil),
			expected:  "failed to override status: invalid input",
		},
		{
			name:      "should surface field errors inside app errors",
			operation: "override status",
			err:       apperrors.NewValidationError("invalid status override", fieldErr),
			expected:  "failed to override status: " + fieldErr.GetUserFriendlyMessage(),
		},
		{
			name:      "should surface rule violations verbatim",
			operation: "create entry",
			err:       apperrors.NewValidationError("rejected", validation.NewViolationError([]string{"first", "second"})),
			expected:  "failed to create entry: first; second",
		},
		{
			name:      "should surface not found messages",
			operation: "get timesheet",
			err:       apperrors.NewNotFoundError("timesheet", "123"),
			expected:  "failed to get timesheet: timesheet not found: 123",
		},
		{
			name:      "should hide database details",
			operation: "save log",
			err:       apperrors.NewDatabaseError("insert", errors.New("timeout")),
			expected:  "failed to save log: A database error occurred. Please try again.",
		},
		{
			name:      "should pass plain errors through",
			operation: "process",
			err:       errors.New("regular error"),
			expected:  "failed to process: regular error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.EqualError(t, eh.Handle(tt.operation, tt.err), tt.expected)
		})
	}

	assert.NoError(t, eh.Handle("noop", nil))
}

func TestErrorHandler_HandleSimple(t *testing.T) {
	eh := NewErrorHandler()

	assert.EqualError(t, eh.HandleSimple(apperrors.NewNotFoundError("timesheet", "9")), "timesheet not found: 9")
	assert.EqualError(t, eh.HandleSimple(errors.New("regular error")), "regular error")
	assert.NoError(t, eh.HandleSimple(nil))
}

func TestErrorHandler_Classification(t *testing.T) {
	eh := NewErrorHandler()

	conflict := apperrors.NewConflictError(apperrors.CodeEntryStatusLocked, "locked")
	assert.True(t, eh.IsConflictError(conflict))
	assert.Equal(t, apperrors.CodeEntryStatusLocked, eh.GetErrorCode(conflict))
	assert.False(t, eh.IsValidationError(conflict))

	assert.True(t, eh.IsValidationError(validation.NewViolationError([]string{"x"})))
	assert.True(t, eh.IsValidationError(apperrors.NewValidationError("bad", nil)))
	assert.True(t, eh.IsNotFoundError(apperrors.NewNotFoundError("timesheet", "1")))
	assert.Equal(t, "UNKNOWN_ERROR", eh.GetErrorCode(errors.New("plain")))
}
