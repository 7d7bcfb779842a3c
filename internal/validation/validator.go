package validation

import (
	"fmt"
	"reflect"
	"strings"
	"time"

	playground "github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"timesheet-admin/internal/calendar"
	"timesheet-admin/internal/config"
	"timesheet-admin/internal/domain"
)

// Validator provides common validation utilities
type Validator struct {
	structs *playground.Validate
	config  *config.Config
}

// NewValidator creates a new validator instance
func NewValidator() *Validator {
	return NewValidatorWithConfig(nil)
}

// NewValidatorWithConfig creates a new validator instance with configuration
func NewValidatorWithConfig(cfg *config.Config) *Validator {
	structs := playground.New(playground.WithRequiredStructEnabled())
	// Report fields by their JSON names so messages match the wire format.
	structs.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})
	_ = structs.RegisterValidation("timesheet_status", func(fl playground.FieldLevel) bool {
		_, err := domain.ParseStatus(fl.Field().String())
		return err == nil
	})
	_ = structs.RegisterValidation("clock", func(fl playground.FieldLevel) bool {
		_, err := calendar.ParseClock(fl.Field().String())
		return err == nil
	})
	_ = structs.RegisterValidation("calendar_date", func(fl playground.FieldLevel) bool {
		_, err := calendar.ParseDate(fl.Field().String())
		return err == nil
	})
	return &Validator{structs: structs, config: cfg}
}

// Struct validates tagged struct fields and reports failures as a ValidationError
func (v *Validator) Struct(s interface{}) error {
	err := v.structs.Struct(s)
	if err == nil {
		return nil
	}
	fieldErrs, ok := err.(playground.ValidationErrors)
	if !ok {
		return err
	}

	validationError := NewValidationError()
	for _, fe := range fieldErrs {
		field := fe.Field()
		switch fe.Tag() {
		case "required":
			validationError.AddRequiredError(field)
		case "timesheet_status":
			validationError.AddInvalidValueError(field, fe.Value(), "must be one of "+statusList())
		case "clock":
			validationError.AddInvalidFormatError(field, fe.Value(), "HH:MM")
		case "calendar_date":
			validationError.AddInvalidFormatError(field, fe.Value(), "YYYY-MM-DD")
		default:
			validationError.AddInvalidValueError(field, fe.Value(), fmt.Sprintf("failed %s check", fe.Tag()))
		}
	}
	return validationError
}

// IsNonEmptyString checks if a string is not empty after trimming whitespace
func (v *Validator) IsNonEmptyString(s string) bool {
	return strings.TrimSpace(s) != ""
}

// IsValidID checks if an ID is valid (positive)
func (v *Validator) IsValidID(id int64) bool {
	return id > 0
}

// IsValidHours checks that an hours value is not negative
func (v *Validator) IsValidHours(hours decimal.Decimal) bool {
	return !hours.IsNegative()
}

// IsValidDuration checks if an hours value is within the configured maximum entry duration
func (v *Validator) IsValidDuration(hours decimal.Decimal) bool {
	return hours.LessThanOrEqual(durationHours(v.getMaxEntryDuration()))
}

// IsBeforeLatestStart checks a start time against the configured cut-off
func (v *Validator) IsBeforeLatestStart(start calendar.Clock) bool {
	return start < v.getLatestStart()
}

// IsReasonableDate checks if a date is within reasonable bounds
func (v *Validator) IsReasonableDate(t time.Time) bool {
	now := time.Now()
	// Allow dates from 10 years ago to 1 year in the future
	tenYearsAgo := now.AddDate(-10, 0, 0)
	oneYearFromNow := now.AddDate(1, 0, 0)

	return t.After(tenYearsAgo) && t.Before(oneYearFromNow)
}

// TrimAndValidateString trims whitespace and returns the cleaned string
func (v *Validator) TrimAndValidateString(s string) string {
	return strings.TrimSpace(s)
}

func (v *Validator) getMaxEntryDuration() time.Duration {
	if v.config != nil {
		return v.config.Validation.MaxEntryDuration
	}
	return 12 * time.Hour
}

func (v *Validator) getLatestStart() calendar.Clock {
	if v.config != nil {
		return v.config.Validation.LatestStart
	}
	return calendar.NewClock(23, 0)
}

func (v *Validator) getMinBreak() time.Duration {
	if v.config != nil {
		return v.config.Validation.MinBreak
	}
	return 30 * time.Minute
}

func durationHours(d time.Duration) decimal.Decimal {
	return decimal.NewFromInt(int64(d / time.Minute)).Div(decimal.NewFromInt(60))
}

func statusList() string {
	names := make([]string, 0, len(domain.AllStatuses()))
	for _, s := range domain.AllStatuses() {
		names = append(names, string(s))
	}
	return strings.Join(names, ", ")
}
