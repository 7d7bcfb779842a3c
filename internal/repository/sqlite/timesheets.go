package sqlite

import (
	"context"
	"time"

	"timesheet-admin/internal/calendar"
	"timesheet-admin/internal/domain"
)

// CreateTimesheet creates a new timesheet
func (r *SQLiteRepository) CreateTimesheet(ctx context.Context, ts *domain.Timesheet) error {
	query := `
	INSERT INTO timesheets (employee_id, week_starting, week_ending, status, verified,
		external_period_id, external_status, external_synced_at, auto_created,
		submitted_at, approved_at, approved_by, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	if ts.Status == "" {
		ts.Status = domain.StatusOpen
	}
	now := r.now()
	id, err := ExecuteWithLastInsertID(ctx, r.q, query,
		ts.EmployeeID, FormatDateForDB(ts.WeekStarting), FormatDateForDB(ts.WeekEnding),
		string(ts.Status), ts.Verified, ts.ExternalPeriodID, NullableStatus(string(ts.ExternalStatus)),
		FormatTimePtrForDB(ts.ExternalSyncedAt), ts.AutoCreated,
		FormatTimePtrForDB(ts.SubmittedAt), FormatTimePtrForDB(ts.ApprovedAt), ts.ApprovedBy,
		FormatTimeForDB(now), FormatTimeForDB(now))
	if err != nil {
		return err
	}
	ts.ID = id
	ts.CreatedAt = now
	ts.UpdatedAt = now
	return nil
}

// GetTimesheet retrieves a timesheet by ID
func (r *SQLiteRepository) GetTimesheet(ctx context.Context, id int64) (*domain.Timesheet, error) {
	query := `SELECT ` + timesheetColumns + ` FROM timesheets WHERE id = ?`
	return QuerySingle(ctx, r.q, query, ScanTimesheet, "timesheet", idString(id), id)
}

// UpdateTimesheet updates the mutable fields of a timesheet. Week dates never change.
func (r *SQLiteRepository) UpdateTimesheet(ctx context.Context, ts *domain.Timesheet) error {
	query := `
	UPDATE timesheets
	SET status = ?, verified = ?, external_period_id = ?, external_status = ?,
		external_synced_at = ?, auto_created = ?, submitted_at = ?, approved_at = ?,
		approved_by = ?, updated_at = ?
	WHERE id = ?`

	now := r.now()
	err := ExecuteWithRowsAffected(ctx, r.q, query, "timesheet", idString(ts.ID),
		string(ts.Status), ts.Verified, ts.ExternalPeriodID, NullableStatus(string(ts.ExternalStatus)),
		FormatTimePtrForDB(ts.ExternalSyncedAt), ts.AutoCreated,
		FormatTimePtrForDB(ts.SubmittedAt), FormatTimePtrForDB(ts.ApprovedAt),
		ts.ApprovedBy, FormatTimeForDB(now), ts.ID)
	if err != nil {
		return err
	}
	ts.UpdatedAt = now
	return nil
}

// DeleteTimesheet deletes a timesheet and, by cascade, its entries
func (r *SQLiteRepository) DeleteTimesheet(ctx context.Context, id int64) error {
	return ExecuteWithRowsAffected(ctx, r.q, `DELETE FROM timesheets WHERE id = ?`, "timesheet", idString(id), id)
}

// ListTimesheets retrieves all timesheets ordered by ID
func (r *SQLiteRepository) ListTimesheets(ctx context.Context) ([]*domain.Timesheet, error) {
	query := `SELECT ` + timesheetColumns + ` FROM timesheets ORDER BY id ASC`
	return QueryMultiple(ctx, r.q, query, ScanTimesheets, "timesheets")
}

// ListTimesheetsByEmployee retrieves an employee's timesheets ordered by ID
func (r *SQLiteRepository) ListTimesheetsByEmployee(ctx context.Context, employeeID int64) ([]*domain.Timesheet, error) {
	query := `SELECT ` + timesheetColumns + ` FROM timesheets WHERE employee_id = ? ORDER BY id ASC`
	return QueryMultiple(ctx, r.q, query, ScanTimesheets, "timesheets", employeeID)
}

// FindTimesheetsInWindow retrieves timesheets whose stored week_starting falls
// on a calendar day in [from, to]. Timestamp-form values compare after their
// date prefix, so the upper bound is exclusive of the following day.
func (r *SQLiteRepository) FindTimesheetsInWindow(ctx context.Context, employeeID int64, from, to time.Time) ([]*domain.Timesheet, error) {
	query := `
	SELECT ` + timesheetColumns + `
	FROM timesheets
	WHERE employee_id = ? AND week_starting >= ? AND week_starting < ?
	ORDER BY id ASC`

	return QueryMultiple(ctx, r.q, query, ScanTimesheets, "timesheets",
		employeeID, calendar.FormatDate(calendar.DateOf(from)), calendar.FormatDate(calendar.AddDays(calendar.DateOf(to), 1)))
}

// CountEntries returns the number of entries a timesheet holds
func (r *SQLiteRepository) CountEntries(ctx context.Context, timesheetID int64) (int, error) {
	var n int
	err := r.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM timesheet_entries WHERE timesheet_id = ?`, timesheetID).Scan(&n)
	if err != nil {
		return 0, HandleDatabaseError("count entries", err)
	}
	return n, nil
}
