package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"timesheet-admin/internal/domain"
	"timesheet-admin/internal/errors"
	"timesheet-admin/internal/repository/sqlite/migrations"

	_ "modernc.org/sqlite"
)

// Repository defines the interface for database operations
type Repository interface {
	// Employees
	CreateEmployee(ctx context.Context, employee *domain.Employee) error
	GetEmployee(ctx context.Context, id int64) (*domain.Employee, error)
	ListEmployees(ctx context.Context) ([]*domain.Employee, error)
	ListEmployeesWithIdentifier(ctx context.Context, idType string) ([]*domain.Employee, error)
	AddExternalIdentifier(ctx context.Context, identifier *domain.ExternalIdentifier) error
	ListExternalIdentifiers(ctx context.Context, employeeID int64) ([]domain.ExternalIdentifier, error)

	// Companies and roles
	CreateCompany(ctx context.Context, company *domain.Company) error
	CreateRole(ctx context.Context, role *domain.Role) error
	CreateRoleAssignment(ctx context.Context, assignment *domain.RoleAssignment) error
	ListActiveRoleAssignments(ctx context.Context, employeeID int64) ([]domain.RoleAssignment, error)

	// Timesheets
	CreateTimesheet(ctx context.Context, ts *domain.Timesheet) error
	GetTimesheet(ctx context.Context, id int64) (*domain.Timesheet, error)
	UpdateTimesheet(ctx context.Context, ts *domain.Timesheet) error
	DeleteTimesheet(ctx context.Context, id int64) error
	ListTimesheets(ctx context.Context) ([]*domain.Timesheet, error)
	ListTimesheetsByEmployee(ctx context.Context, employeeID int64) ([]*domain.Timesheet, error)
	FindTimesheetsInWindow(ctx context.Context, employeeID int64, from, to time.Time) ([]*domain.Timesheet, error)
	CountEntries(ctx context.Context, timesheetID int64) (int, error)

	// Entries
	CreateEntry(ctx context.Context, entry *domain.TimesheetEntry) error
	GetEntry(ctx context.Context, id int64) (*domain.TimesheetEntry, error)
	UpdateEntry(ctx context.Context, entry *domain.TimesheetEntry) error
	DeleteEntry(ctx context.Context, id int64) error
	ListEntriesByTimesheet(ctx context.Context, timesheetID int64) ([]*domain.TimesheetEntry, error)
	ListEntriesForEmployeeDate(ctx context.Context, employeeID int64, date time.Time) ([]*domain.TimesheetEntry, error)
	FindEntryByExternalID(ctx context.Context, externalID string) (*domain.TimesheetEntry, error)
	ReparentEntries(ctx context.Context, fromTimesheetID, toTimesheetID int64) (int64, error)
	UpdateEntryStatusesForTimesheet(ctx context.Context, timesheetID int64, status domain.Status) (int64, error)

	// Sync logs
	CreateSyncLog(ctx context.Context, log *domain.SyncLog) error
	ListSyncLogs(ctx context.Context, filter domain.SyncLogFilter) ([]*domain.SyncLog, int, error)

	// Utility
	InTx(ctx context.Context, fn func(repo Repository) error) error
	Close() error
}

// SQLiteRepository implements the Repository interface
type SQLiteRepository struct {
	db  *sql.DB
	q   Querier
	tx  *sql.Tx
	now func() time.Time
}

// New creates a new SQLite repository instance
func New(dbPath string) (*SQLiteRepository, error) {
	return NewWithOptions(dbPath, DefaultOptions())
}

// NewWithOptions creates a repository with explicit connection options
func NewWithOptions(dbPath string, opts Options) (*SQLiteRepository, error) {
	db, err := sql.Open("sqlite", buildDSN(dbPath, opts))
	if err != nil {
		return nil, errors.NewDatabaseError("open database", err)
	}

	// A single connection serialises writers and keeps :memory: databases alive.
	db.SetMaxOpenConns(1)

	if err := migrations.RunMigrations(db); err != nil {
		db.Close()
		return nil, errors.NewDatabaseError("run migrations", err)
	}

	return &SQLiteRepository{db: db, q: db, now: func() time.Time { return time.Now().UTC() }}, nil
}

func buildDSN(dbPath string, opts Options) string {
	sep := "?"
	if strings.Contains(dbPath, "?") {
		sep = "&"
	}
	dsn := dbPath + sep + "_pragma=foreign_keys(1)"
	if opts.BusyTimeout > 0 {
		dsn += fmt.Sprintf("&_pragma=busy_timeout(%d)", opts.BusyTimeout.Milliseconds())
	}
	return dsn
}

// InTx runs fn inside a transaction. Nested calls reuse the open transaction.
// fn must only use the repository it is given.
func (r *SQLiteRepository) InTx(ctx context.Context, fn func(repo Repository) error) error {
	if r.tx != nil {
		return fn(r)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return HandleDatabaseError("begin transaction", err)
	}

	txRepo := &SQLiteRepository{db: r.db, q: tx, tx: tx, now: r.now}
	if err := fn(txRepo); err != nil {
		_ = tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return HandleDatabaseError("commit transaction", err)
	}
	return nil
}

// Close closes the database connection
func (r *SQLiteRepository) Close() error {
	if r.tx != nil {
		return nil
	}
	return r.db.Close()
}

func idString(id int64) string {
	return fmt.Sprintf("%d", id)
}
