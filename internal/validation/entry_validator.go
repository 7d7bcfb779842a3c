package validation

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"timesheet-admin/internal/calendar"
	"timesheet-admin/internal/config"
	"timesheet-admin/internal/domain"
)

// Violation messages that callers and tests match on.
const (
	MsgMidnightCrossing = "End time must be after start time; entries cannot cross midnight"
	MsgBreakRequired    = "A break of at least %d minutes is required between entries"
)

// EntryValidator applies the entry acceptance rules used by both the
// interactive path and any other writer of locally authored entries.
type EntryValidator struct {
	validator *Validator
}

// NewEntryValidator creates an entry validator with default rule parameters
func NewEntryValidator() *EntryValidator {
	return &EntryValidator{validator: NewValidator()}
}

// NewEntryValidatorWithConfig creates an entry validator using configured rule parameters
func NewEntryValidatorWithConfig(cfg *config.Config) *EntryValidator {
	return &EntryValidator{validator: NewValidatorWithConfig(cfg)}
}

// ValidateFields checks the structural shape of an entry before any rule is applied.
func (ev *EntryValidator) ValidateFields(entry domain.TimesheetEntry) error {
	validationError := NewValidationError()

	if !ev.validator.IsValidID(entry.TimesheetID) {
		validationError.AddInvalidValueError("timesheet_id", entry.TimesheetID, "must be a positive integer")
	}
	if entry.Date.IsZero() {
		validationError.AddRequiredError("date")
	}
	if (entry.StartTime == nil) != (entry.EndTime == nil) {
		validationError.AddInvalidRangeError("end_time", nil, "must be given together with start_time")
	}
	if entry.StartTime != nil && !entry.StartTime.Valid() {
		validationError.AddInvalidFormatError("start_time", *entry.StartTime, "HH:MM")
	}
	if entry.EndTime != nil && !entry.EndTime.Valid() {
		validationError.AddInvalidFormatError("end_time", *entry.EndTime, "HH:MM")
	}
	if !entry.HasTimes() && !ev.validator.IsValidHours(entry.Hours) {
		validationError.AddInvalidValueError("hours", entry.Hours.String(), "must not be negative")
	}
	if entry.EntryType != "" {
		if _, err := domain.ParseEntryType(string(entry.EntryType)); err != nil {
			validationError.AddInvalidValueError("entry_type", entry.EntryType, err.Error())
		}
	}

	if validationError.HasErrors() {
		return validationError
	}
	return nil
}

// Validate returns every business-rule violation for candidate, or nil when it
// is acceptable. siblings are the employee's other entries on the candidate's
// date across all of their timesheets; an entry with the candidate's ID is
// ignored so updates never collide with themselves. A midnight crossing is
// structural and stops evaluation; the remaining rules accumulate.
func (ev *EntryValidator) Validate(candidate domain.TimesheetEntry, siblings []*domain.TimesheetEntry, weekStarting, weekEnding time.Time, maxDailyHours decimal.Decimal) []string {
	if candidate.HasTimes() && *candidate.EndTime <= *candidate.StartTime {
		return []string{MsgMidnightCrossing}
	}

	hours := candidate.Hours
	if derived, ok := candidate.DerivedHours(); ok {
		hours = derived
	}

	var violations []string

	if candidate.StartTime != nil && !ev.validator.IsBeforeLatestStart(*candidate.StartTime) {
		violations = append(violations, fmt.Sprintf("Start time must be before %s", ev.validator.getLatestStart()))
	}

	if !ev.validator.IsValidDuration(hours) {
		violations = append(violations, fmt.Sprintf("Entry duration of %s hours exceeds the maximum of %s hours",
			hours.StringFixed(2), durationHours(ev.validator.getMaxEntryDuration()).String()))
	}

	if !calendar.InRange(candidate.Date, weekStarting, weekEnding) {
		violations = append(violations, fmt.Sprintf("Entry date %s is outside the timesheet week %s to %s",
			calendar.FormatDate(candidate.Date), calendar.FormatDate(weekStarting), calendar.FormatDate(weekEnding)))
	}

	sameDay := ev.sameDaySiblings(candidate, siblings)

	for _, other := range sameDay {
		if candidate.Overlaps(*other) {
			violations = append(violations, fmt.Sprintf("Entry overlaps with an existing entry from %s to %s for %s",
				other.StartTime, other.EndTime, companyLabel(other)))
		}
	}

	if candidate.HasTimes() && !ev.hasRequiredBreak(candidate, sameDay) {
		violations = append(violations, fmt.Sprintf(MsgBreakRequired, int(ev.validator.getMinBreak()/time.Minute)))
	}

	total := hours
	for _, other := range sameDay {
		total = total.Add(other.Hours)
	}
	if total.GreaterThan(maxDailyHours) {
		violations = append(violations, fmt.Sprintf("Daily total of %s hours would exceed the maximum of %s hours",
			total.StringFixed(2), maxDailyHours.String()))
	}

	return violations
}

// Check wraps Validate, returning a *ViolationError or nil.
func (ev *EntryValidator) Check(candidate domain.TimesheetEntry, siblings []*domain.TimesheetEntry, weekStarting, weekEnding time.Time, maxDailyHours decimal.Decimal) error {
	return NewViolationError(ev.Validate(candidate, siblings, weekStarting, weekEnding, maxDailyHours))
}

func (ev *EntryValidator) sameDaySiblings(candidate domain.TimesheetEntry, siblings []*domain.TimesheetEntry) []*domain.TimesheetEntry {
	var out []*domain.TimesheetEntry
	for _, s := range siblings {
		if s == nil || (candidate.ID != 0 && s.ID == candidate.ID) {
			continue
		}
		if !calendar.SameDay(s.Date, candidate.Date) {
			continue
		}
		out = append(out, s)
	}
	return out
}

// hasRequiredBreak reports whether the timed entries of the day, candidate
// included, leave at least one gap of the minimum break between
// chronologically adjacent entries. A single timed entry needs no break.
func (ev *EntryValidator) hasRequiredBreak(candidate domain.TimesheetEntry, sameDay []*domain.TimesheetEntry) bool {
	timed := []domain.TimesheetEntry{candidate}
	for _, s := range sameDay {
		if s.HasTimes() {
			timed = append(timed, *s)
		}
	}
	if len(timed) < 2 {
		return true
	}

	sort.Slice(timed, func(i, j int) bool {
		return *timed[i].StartTime < *timed[j].StartTime
	})

	minBreak := int(ev.validator.getMinBreak() / time.Minute)
	for i := 1; i < len(timed); i++ {
		gap := timed[i].StartTime.Minutes() - timed[i-1].EndTime.Minutes()
		if gap >= minBreak {
			return true
		}
	}
	return false
}

func companyLabel(e *domain.TimesheetEntry) string {
	if e.CompanyName != "" {
		return e.CompanyName
	}
	return "an unassigned company"
}
