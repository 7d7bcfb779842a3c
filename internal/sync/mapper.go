package sync

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"timesheet-admin/internal/calendar"
	"timesheet-admin/internal/domain"
	"timesheet-admin/internal/external"
)

// mappedRow is an external row converted to local values. hours is rounded to
// the whole minutes of the laid-out times; rowHours is the duration as the feed
// reported it and is what fuzzy matching compares.
type mappedRow struct {
	row       external.Row
	date      time.Time
	hours     decimal.Decimal
	rowHours  decimal.Decimal
	status    domain.Status
	startTime *calendar.Clock
	endTime   *calendar.Clock
}

// mapRow parses a row's date and duration and lays it onto the schedule. Short
// and full days both start at the morning start; a duration that would run
// past midnight keeps its hours and gets no times.
func mapRow(row external.Row, schedule domain.Schedule) (mappedRow, error) {
	date, err := row.Day()
	if err != nil {
		return mappedRow{}, fmt.Errorf("row %s: %w", row.ID, err)
	}
	hours, err := calendar.ParseHours(row.Duration)
	if err != nil {
		return mappedRow{}, fmt.Errorf("row %s: %w", row.ID, err)
	}

	m := mappedRow{row: row, date: date, hours: hours, rowHours: hours, status: row.LocalStatus()}

	minutes := calendar.HoursToMinutes(hours)
	if minutes <= 0 {
		return m, nil
	}
	start := schedule.MorningStart
	end := start.Add(minutes)
	if !end.Valid() {
		return m, nil
	}
	m.startTime, m.endTime = &start, &end
	m.hours, _ = calendar.HoursBetween(start, end)
	return m, nil
}

// newEntry builds the externally sourced entry for a row that matched nothing.
func (m mappedRow) newEntry(ts *domain.Timesheet, assignment *domain.RoleAssignment, syncedAt time.Time) *domain.TimesheetEntry {
	externalID := m.row.ID
	entry := &domain.TimesheetEntry{
		TimesheetID:      ts.ID,
		Date:             m.date,
		StartTime:        m.startTime,
		EndTime:          m.endTime,
		Hours:            m.hours,
		EntryType:        domain.EntryTypeGeneral,
		Status:           ts.Status,
		Verified:         true,
		TSSource:         true,
		ExternalEntryID:  &externalID,
		ExternalSyncedAt: &syncedAt,
		Notes:            m.row.Notes,
	}
	if assignment != nil {
		roleID, companyID := assignment.RoleID, assignment.CompanyID
		entry.RoleID = &roleID
		entry.CompanyID = &companyID
	}
	return entry
}

// applyTo refreshes an entry already linked to the row. It reports whether
// anything changed. Locally authored entries keep their own data.
func (m mappedRow) applyTo(entry *domain.TimesheetEntry, syncedAt time.Time) bool {
	changed := false
	if entry.TSSource {
		if !calendar.SameDay(entry.Date, m.date) {
			entry.Date = m.date
			changed = true
		}
		if !entry.Hours.Equal(m.hours) {
			entry.Hours = m.hours
			changed = true
		}
		if !clockEqual(entry.StartTime, m.startTime) || !clockEqual(entry.EndTime, m.endTime) {
			entry.StartTime, entry.EndTime = m.startTime, m.endTime
			changed = true
		}
		if entry.Notes != m.row.Notes {
			entry.Notes = m.row.Notes
			changed = true
		}
	}
	if next, raised := domain.Advance(entry.Status, m.status); raised {
		entry.Status = next
		changed = true
	}
	if !entry.Verified {
		entry.Verified = true
		changed = true
	}
	if changed {
		entry.ExternalSyncedAt = &syncedAt
	}
	return changed
}

func clockEqual(a, b *calendar.Clock) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
