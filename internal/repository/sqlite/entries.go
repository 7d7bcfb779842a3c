package sqlite

import (
	"context"
	"time"

	"timesheet-admin/internal/calendar"
	"timesheet-admin/internal/domain"
)

const entryFrom = `
	FROM timesheet_entries e
	LEFT JOIN companies c ON c.id = e.company_id`

// CreateEntry creates a new timesheet entry
func (r *SQLiteRepository) CreateEntry(ctx context.Context, entry *domain.TimesheetEntry) error {
	query := `
	INSERT INTO timesheet_entries (timesheet_id, date, start_time, end_time, hours, entry_type,
		role_id, company_id, status, verified, ts_source, external_entry_id, external_synced_at,
		notes, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	if entry.EntryType == "" {
		entry.EntryType = domain.EntryTypeGeneral
	}
	if entry.Status == "" {
		entry.Status = domain.StatusOpen
	}
	now := r.now()
	id, err := ExecuteWithLastInsertID(ctx, r.q, query,
		entry.TimesheetID, FormatDateForDB(entry.Date),
		FormatClockPtrForDB(entry.StartTime), FormatClockPtrForDB(entry.EndTime),
		entry.Hours.String(), string(entry.EntryType),
		NullableInt64(entry.RoleID), NullableInt64(entry.CompanyID),
		string(entry.Status), entry.Verified, entry.TSSource,
		NullableString(entry.ExternalEntryID), FormatTimePtrForDB(entry.ExternalSyncedAt),
		entry.Notes, FormatTimeForDB(now), FormatTimeForDB(now))
	if err != nil {
		return err
	}
	entry.ID = id
	entry.CreatedAt = now
	entry.UpdatedAt = now
	return nil
}

// GetEntry retrieves an entry by ID
func (r *SQLiteRepository) GetEntry(ctx context.Context, id int64) (*domain.TimesheetEntry, error) {
	query := `SELECT ` + entryColumns + entryFrom + ` WHERE e.id = ?`
	return QuerySingle(ctx, r.q, query, ScanEntry, "timesheet entry", idString(id), id)
}

// UpdateEntry updates an existing entry
func (r *SQLiteRepository) UpdateEntry(ctx context.Context, entry *domain.TimesheetEntry) error {
	query := `
	UPDATE timesheet_entries
	SET timesheet_id = ?, date = ?, start_time = ?, end_time = ?, hours = ?, entry_type = ?,
		role_id = ?, company_id = ?, status = ?, verified = ?, ts_source = ?,
		external_entry_id = ?, external_synced_at = ?, notes = ?, updated_at = ?
	WHERE id = ?`

	now := r.now()
	err := ExecuteWithRowsAffected(ctx, r.q, query, "timesheet entry", idString(entry.ID),
		entry.TimesheetID, FormatDateForDB(entry.Date),
		FormatClockPtrForDB(entry.StartTime), FormatClockPtrForDB(entry.EndTime),
		entry.Hours.String(), string(entry.EntryType),
		NullableInt64(entry.RoleID), NullableInt64(entry.CompanyID),
		string(entry.Status), entry.Verified, entry.TSSource,
		NullableString(entry.ExternalEntryID), FormatTimePtrForDB(entry.ExternalSyncedAt),
		entry.Notes, FormatTimeForDB(now), entry.ID)
	if err != nil {
		return err
	}
	entry.UpdatedAt = now
	return nil
}

// DeleteEntry deletes an entry by ID
func (r *SQLiteRepository) DeleteEntry(ctx context.Context, id int64) error {
	return ExecuteWithRowsAffected(ctx, r.q, `DELETE FROM timesheet_entries WHERE id = ?`, "timesheet entry", idString(id), id)
}

// ListEntriesByTimesheet retrieves a timesheet's entries ordered by date, start time and ID
func (r *SQLiteRepository) ListEntriesByTimesheet(ctx context.Context, timesheetID int64) ([]*domain.TimesheetEntry, error) {
	query := `SELECT ` + entryColumns + entryFrom + `
	WHERE e.timesheet_id = ?
	ORDER BY e.date ASC, e.start_time ASC, e.id ASC`
	return QueryMultiple(ctx, r.q, query, ScanEntries, "timesheet entries", timesheetID)
}

// ListEntriesForEmployeeDate retrieves every entry an employee holds on a date, across all of their timesheets
func (r *SQLiteRepository) ListEntriesForEmployeeDate(ctx context.Context, employeeID int64, date time.Time) ([]*domain.TimesheetEntry, error) {
	query := `SELECT ` + entryColumns + entryFrom + `
	JOIN timesheets t ON t.id = e.timesheet_id
	WHERE t.employee_id = ? AND e.date = ?
	ORDER BY e.start_time ASC, e.id ASC`
	return QueryMultiple(ctx, r.q, query, ScanEntries, "timesheet entries", employeeID, calendar.FormatDate(calendar.DateOf(date)))
}

// FindEntryByExternalID retrieves the entry linked to an external row id
func (r *SQLiteRepository) FindEntryByExternalID(ctx context.Context, externalID string) (*domain.TimesheetEntry, error) {
	query := `SELECT ` + entryColumns + entryFrom + ` WHERE e.external_entry_id = ?`
	return QuerySingle(ctx, r.q, query, ScanEntry, "timesheet entry", externalID, externalID)
}

// ReparentEntries moves every entry from one timesheet onto another
func (r *SQLiteRepository) ReparentEntries(ctx context.Context, fromTimesheetID, toTimesheetID int64) (int64, error) {
	return ExecuteCount(ctx, r.q,
		`UPDATE timesheet_entries SET timesheet_id = ?, updated_at = ? WHERE timesheet_id = ?`,
		toTimesheetID, FormatTimeForDB(r.now()), fromTimesheetID)
}

// UpdateEntryStatusesForTimesheet sets every entry of a timesheet to status,
// returning how many entries actually changed
func (r *SQLiteRepository) UpdateEntryStatusesForTimesheet(ctx context.Context, timesheetID int64, status domain.Status) (int64, error) {
	return ExecuteCount(ctx, r.q,
		`UPDATE timesheet_entries SET status = ?, updated_at = ? WHERE timesheet_id = ? AND status != ?`,
		string(status), FormatTimeForDB(r.now()), timesheetID, string(status))
}
