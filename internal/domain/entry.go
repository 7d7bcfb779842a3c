package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"timesheet-admin/internal/calendar"
)

// EntryType classifies a unit of work.
type EntryType string

const (
	EntryTypeGeneral  EntryType = "GENERAL"
	EntryTypeTravel   EntryType = "TRAVEL"
	EntryTypeTraining EntryType = "TRAINING"
	EntryTypeOvertime EntryType = "OVERTIME"
)

// ParseEntryType parses an entry type, defaulting empty input to GENERAL.
func ParseEntryType(s string) (EntryType, error) {
	v := EntryType(strings.ToUpper(strings.TrimSpace(s)))
	switch v {
	case "":
		return EntryTypeGeneral, nil
	case EntryTypeGeneral, EntryTypeTravel, EntryTypeTraining, EntryTypeOvertime:
		return v, nil
	}
	return "", fmt.Errorf("unknown entry type %q", s)
}

// TimesheetEntry is one day-level unit of work.
type TimesheetEntry struct {
	ID               int64
	TimesheetID      int64
	Date             time.Time
	StartTime        *calendar.Clock
	EndTime          *calendar.Clock
	Hours            decimal.Decimal
	EntryType        EntryType
	RoleID           *int64
	CompanyID        *int64
	Status           Status
	Verified         bool
	TSSource         bool
	ExternalEntryID  *string
	ExternalSyncedAt *time.Time
	Notes            string
	CreatedAt        time.Time
	UpdatedAt        time.Time

	// CompanyName is populated by reads that join the company; it is not stored.
	CompanyName string
}

// HasTimes reports whether both start and end are set.
func (e TimesheetEntry) HasTimes() bool {
	return e.StartTime != nil && e.EndTime != nil
}

// DerivedHours returns (end-start)/60 when both times are set. ok is false when
// the times are missing or end is not after start.
func (e TimesheetEntry) DerivedHours() (decimal.Decimal, bool) {
	if !e.HasTimes() {
		return decimal.Zero, false
	}
	return calendar.HoursBetween(*e.StartTime, *e.EndTime)
}

// ResolveHours sets Hours from the start/end times when both are present.
// It fails for midnight crossings and negative supplied hours.
func (e *TimesheetEntry) ResolveHours() error {
	if e.HasTimes() {
		hours, ok := e.DerivedHours()
		if !ok {
			return fmt.Errorf("end time %s must be after start time %s", *e.EndTime, *e.StartTime)
		}
		e.Hours = hours
	}
	if e.Hours.IsNegative() {
		return fmt.Errorf("hours must not be negative")
	}
	return nil
}

// Overlaps reports whether two timed entries share any minute.
func (e TimesheetEntry) Overlaps(other TimesheetEntry) bool {
	if !e.HasTimes() || !other.HasTimes() {
		return false
	}
	return *e.StartTime < *other.EndTime && *e.EndTime > *other.StartTime
}

// LocallyAuthored reports whether a person, not the sync engine, created the entry.
func (e TimesheetEntry) LocallyAuthored() bool {
	return !e.TSSource
}

// HasExternalID reports whether the entry is linked to an external row.
func (e TimesheetEntry) HasExternalID() bool {
	return e.ExternalEntryID != nil && *e.ExternalEntryID != ""
}

// WithinTolerance reports whether two hour values differ by at most tolerance.
func WithinTolerance(a, b, tolerance decimal.Decimal) bool {
	return a.Sub(b).Abs().LessThanOrEqual(tolerance)
}
