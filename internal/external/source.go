// Package external holds the contracts of the collaborators the core consumes:
// the attendance feed, the payroll sync and the notifier.
package external

import (
	"context"
	"strings"
	"time"

	"timesheet-admin/internal/calendar"
	"timesheet-admin/internal/domain"
)

// Period is the external system's current reporting period.
type Period struct {
	ID        string `json:"id" validate:"required"`
	StartDate string `json:"start_date" validate:"required,calendar_date"`
	EndDate   string `json:"end_date" validate:"required,calendar_date"`
}

// Start returns the parsed start date.
func (p Period) Start() time.Time {
	d, _ := calendar.ParseDate(p.StartDate)
	return d
}

// End returns the parsed end date.
func (p Period) End() time.Time {
	d, _ := calendar.ParseDate(p.EndDate)
	return d
}

// Contains reports whether day falls inside the period, both bounds included.
// A bound that does not parse leaves that side open.
func (p Period) Contains(day time.Time) bool {
	if start := p.Start(); !start.IsZero() && day.Before(start) {
		return false
	}
	if end := p.End(); !end.IsZero() && day.After(end) {
		return false
	}
	return true
}

// Row is one day-level attendance record from the external feed.
type Row struct {
	ID                  string `json:"id" validate:"required"`
	WorkerID            string `json:"worker_id" validate:"required"`
	Date                string `json:"date" validate:"required,calendar_date"`
	Duration            string `json:"duration" validate:"required"`
	Status              string `json:"status"`
	SourceLocationLabel string `json:"source_location_label"`
	Notes               string `json:"notes"`
}

// Day returns the row's calendar date.
func (r Row) Day() (time.Time, error) {
	return calendar.ParseDate(r.Date)
}

// LocalStatus maps the row's external status onto the local enum.
func (r Row) LocalStatus() domain.Status {
	return MapStatus(r.Status)
}

// AttendanceSource is the external attendance feed.
type AttendanceSource interface {
	GetCurrentPeriod(ctx context.Context) (Period, error)
	GetRows(ctx context.Context, workerID, periodID string) ([]Row, error)
}

var statusTable = map[string]domain.Status{
	"open":              domain.StatusOpen,
	"draft":             domain.StatusOpen,
	"incomplete":        domain.StatusIncomplete,
	"submitted":         domain.StatusSubmitted,
	"pending":           domain.StatusSubmitted,
	"awaiting_approval": domain.StatusSubmitted,
	"approved":          domain.StatusApproved,
	"locked":            domain.StatusLocked,
	"processed":         domain.StatusProcessed,
	"finalized":         domain.StatusProcessed,
}

// MapStatus maps an external status string to the local enum. Unrecognised
// values map to OPEN.
func MapStatus(s string) domain.Status {
	if st, ok := statusTable[strings.ToLower(strings.TrimSpace(s))]; ok {
		return st
	}
	return domain.StatusOpen
}
