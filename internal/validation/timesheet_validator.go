package validation

import (
	"strings"
	"time"

	"timesheet-admin/internal/calendar"
	"timesheet-admin/internal/domain"
)

const maxActorLength = 100

// StatusOverrideRequest is the input of a privileged status override.
type StatusOverrideRequest struct {
	TimesheetID int64  `json:"timesheetId" validate:"required,gt=0"`
	Status      string `json:"status" validate:"required,timesheet_status"`
	Actor       string `json:"actor" validate:"required"`
}

// TimesheetValidator provides validation for Timesheet-related operations
type TimesheetValidator struct {
	validator *Validator
}

// NewTimesheetValidator creates a new timesheet validator
func NewTimesheetValidator() *TimesheetValidator {
	return &TimesheetValidator{validator: NewValidator()}
}

// ValidateTimesheetForCreation validates the employee and week of a new timesheet
func (tv *TimesheetValidator) ValidateTimesheetForCreation(employeeID int64, weekOf time.Time) error {
	validationError := NewValidationError()

	if !tv.validator.IsValidID(employeeID) {
		validationError.AddInvalidValueError("employee_id", employeeID, "must be a positive integer")
	}
	if weekOf.IsZero() {
		validationError.AddRequiredError("week_starting")
	} else if !tv.validator.IsReasonableDate(weekOf) {
		validationError.AddInvalidValueError("week_starting", calendar.FormatDate(weekOf), "must be within reasonable date range")
	}

	if validationError.HasErrors() {
		return validationError
	}
	return nil
}

// ValidateTimesheet validates a domain.Timesheet object
func (tv *TimesheetValidator) ValidateTimesheet(ts domain.Timesheet) error {
	validationError := NewValidationError()

	if !tv.validator.IsValidID(ts.EmployeeID) {
		validationError.AddInvalidValueError("employee_id", ts.EmployeeID, "must be a positive integer")
	}
	if ts.WeekStarting.IsZero() {
		validationError.AddRequiredError("week_starting")
	} else if ts.WeekStarting.Weekday() != time.Monday {
		validationError.AddInvalidValueError("week_starting", calendar.FormatDate(ts.WeekStarting), "must be a Monday")
	}
	if !ts.WeekStarting.IsZero() && !calendar.SameDay(ts.WeekEnding, calendar.AddDays(ts.WeekStarting, 6)) {
		validationError.AddInvalidRangeError("week_ending", calendar.FormatDate(ts.WeekEnding), "must be six days after week_starting")
	}
	if !ts.Status.Valid() {
		validationError.AddInvalidValueError("status", ts.Status, "must be one of "+statusList())
	}

	if validationError.HasErrors() {
		return validationError
	}
	return nil
}

// ValidateStatusOverride validates a privileged override and returns the parsed status
func (tv *TimesheetValidator) ValidateStatusOverride(req StatusOverrideRequest) (domain.Status, error) {
	if err := tv.validator.Struct(req); err != nil {
		return "", err
	}

	validationError := NewValidationError()
	actor := tv.validator.TrimAndValidateString(req.Actor)
	switch {
	case !tv.validator.IsNonEmptyString(actor):
		validationError.AddRequiredError("actor")
	case len(actor) > maxActorLength:
		validationError.AddInvalidLengthError("actor", actor, 1, maxActorLength)
	case strings.ContainsAny(actor, "\r\n\t"):
		validationError.AddInvalidCharacterError("actor", actor)
	}
	if validationError.HasErrors() {
		return "", validationError
	}
	return domain.ParseStatus(req.Status)
}
