package domain

import (
	"time"

	"timesheet-admin/internal/calendar"
)

// Timesheet is one employee's Monday-anchored week.
type Timesheet struct {
	ID               int64
	EmployeeID       int64
	WeekStarting     time.Time
	WeekEnding       time.Time
	Status           Status
	Verified         bool
	ExternalPeriodID string
	ExternalStatus   Status
	ExternalSyncedAt *time.Time
	AutoCreated      bool
	SubmittedAt      *time.Time
	ApprovedAt       *time.Time
	ApprovedBy       string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// NewTimesheet creates an OPEN timesheet for the week containing date.
func NewTimesheet(employeeID int64, date time.Time) Timesheet {
	start, end := calendar.WeekBounds(date)
	return Timesheet{
		EmployeeID:   employeeID,
		WeekStarting: start,
		WeekEnding:   end,
		Status:       StatusOpen,
	}
}

// IsValid checks the week invariant: a Monday start and an end six days later.
func (t Timesheet) IsValid() bool {
	if t.EmployeeID <= 0 || t.WeekStarting.IsZero() {
		return false
	}
	if t.WeekStarting.Weekday() != time.Monday {
		return false
	}
	return calendar.SameDay(t.WeekEnding, calendar.AddDays(t.WeekStarting, 6))
}

// Contains reports whether date falls within the timesheet week.
func (t Timesheet) Contains(date time.Time) bool {
	return calendar.InRange(date, t.WeekStarting, t.WeekEnding)
}

// ExternallyReadOnly reports whether the external system owns this week.
func (t Timesheet) ExternallyReadOnly() bool {
	return t.ExternalStatus.ExternallyReadOnly()
}
