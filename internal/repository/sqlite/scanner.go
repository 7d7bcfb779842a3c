package sqlite

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"

	"timesheet-admin/internal/calendar"
	"timesheet-admin/internal/domain"
)

// Scanner interface defines the common scanning behavior for both sql.Row and sql.Rows
type Scanner interface {
	Scan(dest ...interface{}) error
}

// Rows interface defines the common behavior for sql.Rows
type Rows interface {
	Next() bool
	Scan(dest ...interface{}) error
	Err() error
}

// scanAll drains rows through a single-row scan function.
func scanAll[T any](rows Rows, scan func(Scanner) (*T, error)) ([]*T, error) {
	var out []*T
	for rows.Next() {
		item, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

const employeeColumns = `id, first_name, last_name, email, morning_start, morning_end,
	afternoon_start, afternoon_end, max_daily_hours, created_at`

// ScanEmployee scans a single employee row
func ScanEmployee(scanner Scanner) (*domain.Employee, error) {
	e := &domain.Employee{}
	var morningStart, morningEnd, afternoonStart, afternoonEnd, maxDaily sql.NullString
	var createdAt string

	err := scanner.Scan(&e.ID, &e.FirstName, &e.LastName, &e.Email,
		&morningStart, &morningEnd, &afternoonStart, &afternoonEnd, &maxDaily, &createdAt)
	if err != nil {
		return nil, err
	}

	if e.MorningStart, err = ParseNullClockFromDB(morningStart); err != nil {
		return nil, err
	}
	if e.MorningEnd, err = ParseNullClockFromDB(morningEnd); err != nil {
		return nil, err
	}
	if e.AfternoonStart, err = ParseNullClockFromDB(afternoonStart); err != nil {
		return nil, err
	}
	if e.AfternoonEnd, err = ParseNullClockFromDB(afternoonEnd); err != nil {
		return nil, err
	}
	if e.MaxDailyHours, err = ParseNullDecimalFromDB(maxDaily); err != nil {
		return nil, err
	}
	if e.CreatedAt, err = ParseTimeFromDB(createdAt); err != nil {
		return nil, err
	}
	return e, nil
}

// ScanEmployees scans multiple employee rows
func ScanEmployees(rows Rows) ([]*domain.Employee, error) {
	return scanAll(rows, ScanEmployee)
}

// ScanExternalIdentifier scans a single identifier row
func ScanExternalIdentifier(scanner Scanner) (*domain.ExternalIdentifier, error) {
	id := &domain.ExternalIdentifier{}
	var companyID sql.NullInt64
	if err := scanner.Scan(&id.ID, &id.EmployeeID, &id.Type, &id.Value, &companyID); err != nil {
		return nil, err
	}
	if companyID.Valid {
		id.CompanyID = &companyID.Int64
	}
	return id, nil
}

// ScanExternalIdentifiers scans multiple identifier rows
func ScanExternalIdentifiers(rows Rows) ([]*domain.ExternalIdentifier, error) {
	return scanAll(rows, ScanExternalIdentifier)
}

// ScanRoleAssignment scans a role assignment joined with role and company names
func ScanRoleAssignment(scanner Scanner) (*domain.RoleAssignment, error) {
	a := &domain.RoleAssignment{}
	err := scanner.Scan(&a.ID, &a.EmployeeID, &a.RoleID, &a.RoleName, &a.CompanyID, &a.CompanyName, &a.Active)
	if err != nil {
		return nil, err
	}
	return a, nil
}

// ScanRoleAssignments scans multiple role assignment rows
func ScanRoleAssignments(rows Rows) ([]*domain.RoleAssignment, error) {
	return scanAll(rows, ScanRoleAssignment)
}

const timesheetColumns = `id, employee_id, week_starting, week_ending, status, verified,
	external_period_id, external_status, external_synced_at, auto_created,
	submitted_at, approved_at, approved_by, created_at, updated_at`

// ScanTimesheet scans a single timesheet row. Stored week dates written as
// timestamps are snapped to their calendar day.
func ScanTimesheet(scanner Scanner) (*domain.Timesheet, error) {
	ts := &domain.Timesheet{}
	var weekStarting, weekEnding, status, createdAt, updatedAt string
	var externalStatus, externalSyncedAt, submittedAt, approvedAt sql.NullString

	err := scanner.Scan(&ts.ID, &ts.EmployeeID, &weekStarting, &weekEnding, &status, &ts.Verified,
		&ts.ExternalPeriodID, &externalStatus, &externalSyncedAt, &ts.AutoCreated,
		&submittedAt, &approvedAt, &ts.ApprovedBy, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	if ts.WeekStarting, err = calendar.ParseStoredDate(weekStarting); err != nil {
		return nil, err
	}
	if ts.WeekEnding, err = calendar.ParseStoredDate(weekEnding); err != nil {
		return nil, err
	}
	ts.Status = domain.Status(status)
	if externalStatus.Valid {
		ts.ExternalStatus = domain.Status(externalStatus.String)
	}
	if ts.ExternalSyncedAt, err = ParseNullTimeFromDB(externalSyncedAt); err != nil {
		return nil, err
	}
	if ts.SubmittedAt, err = ParseNullTimeFromDB(submittedAt); err != nil {
		return nil, err
	}
	if ts.ApprovedAt, err = ParseNullTimeFromDB(approvedAt); err != nil {
		return nil, err
	}
	if ts.CreatedAt, err = ParseTimeFromDB(createdAt); err != nil {
		return nil, err
	}
	if ts.UpdatedAt, err = ParseTimeFromDB(updatedAt); err != nil {
		return nil, err
	}
	return ts, nil
}

// ScanTimesheets scans multiple timesheet rows
func ScanTimesheets(rows Rows) ([]*domain.Timesheet, error) {
	return scanAll(rows, ScanTimesheet)
}

const entryColumns = `e.id, e.timesheet_id, e.date, e.start_time, e.end_time, e.hours, e.entry_type,
	e.role_id, e.company_id, e.status, e.verified, e.ts_source, e.external_entry_id,
	e.external_synced_at, e.notes, e.created_at, e.updated_at, COALESCE(c.name, '')`

// ScanEntry scans a single entry row joined with its company name
func ScanEntry(scanner Scanner) (*domain.TimesheetEntry, error) {
	e := &domain.TimesheetEntry{}
	var date, hours, entryType, status, createdAt, updatedAt string
	var startTime, endTime, externalID, externalSyncedAt sql.NullString
	var roleID, companyID sql.NullInt64

	err := scanner.Scan(&e.ID, &e.TimesheetID, &date, &startTime, &endTime, &hours, &entryType,
		&roleID, &companyID, &status, &e.Verified, &e.TSSource, &externalID,
		&externalSyncedAt, &e.Notes, &createdAt, &updatedAt, &e.CompanyName)
	if err != nil {
		return nil, err
	}

	if e.Date, err = calendar.ParseStoredDate(date); err != nil {
		return nil, err
	}
	if e.StartTime, err = ParseNullClockFromDB(startTime); err != nil {
		return nil, err
	}
	if e.EndTime, err = ParseNullClockFromDB(endTime); err != nil {
		return nil, err
	}
	if e.Hours, err = decimal.NewFromString(hours); err != nil {
		return nil, fmt.Errorf("invalid hours %q: %w", hours, err)
	}
	e.EntryType = domain.EntryType(entryType)
	if roleID.Valid {
		e.RoleID = &roleID.Int64
	}
	if companyID.Valid {
		e.CompanyID = &companyID.Int64
	}
	e.Status = domain.Status(status)
	if externalID.Valid {
		e.ExternalEntryID = &externalID.String
	}
	if e.ExternalSyncedAt, err = ParseNullTimeFromDB(externalSyncedAt); err != nil {
		return nil, err
	}
	if e.CreatedAt, err = ParseTimeFromDB(createdAt); err != nil {
		return nil, err
	}
	if e.UpdatedAt, err = ParseTimeFromDB(updatedAt); err != nil {
		return nil, err
	}
	return e, nil
}

// ScanEntries scans multiple entry rows
func ScanEntries(rows Rows) ([]*domain.TimesheetEntry, error) {
	return scanAll(rows, ScanEntry)
}

const syncLogColumns = `id, run_id, log_type, status, processed, created, updated, skipped,
	details, errors, started_at, completed_at`

// ScanSyncLog scans a single sync log row
func ScanSyncLog(scanner Scanner) (*domain.SyncLog, error) {
	l := &domain.SyncLog{}
	var logType, status, errs, startedAt, completedAt string

	err := scanner.Scan(&l.ID, &l.RunID, &logType, &status, &l.Processed, &l.Created, &l.Updated,
		&l.Skipped, &l.Details, &errs, &startedAt, &completedAt)
	if err != nil {
		return nil, err
	}

	l.Type = domain.SyncLogType(logType)
	l.Status = domain.SyncRunStatus(status)
	if errs != "" {
		if err := json.Unmarshal([]byte(errs), &l.Errors); err != nil {
			return nil, fmt.Errorf("invalid sync log errors: %w", err)
		}
	}
	if l.StartedAt, err = ParseTimeFromDB(startedAt); err != nil {
		return nil, err
	}
	if l.CompletedAt, err = ParseTimeFromDB(completedAt); err != nil {
		return nil, err
	}
	return l, nil
}

// ScanSyncLogs scans multiple sync log rows
func ScanSyncLogs(rows Rows) ([]*domain.SyncLog, error) {
	return scanAll(rows, ScanSyncLog)
}
