package services

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"timesheet-admin/internal/calendar"
	"timesheet-admin/internal/dispatch"
	"timesheet-admin/internal/domain"
	"timesheet-admin/internal/validation"
)

// EntryInput carries the user-editable fields of a timesheet entry
type EntryInput struct {
	TimesheetID int64            `json:"timesheetId"`
	Date        time.Time        `json:"date"`
	StartTime   *calendar.Clock  `json:"startTime,omitempty"`
	EndTime     *calendar.Clock  `json:"endTime,omitempty"`
	Hours       decimal.Decimal  `json:"hours"`
	EntryType   domain.EntryType `json:"entryType"`
	RoleID      *int64           `json:"roleId,omitempty"`
	CompanyID   *int64           `json:"companyId,omitempty"`
	Notes       string           `json:"notes"`
}

// RepairResult reports what a status repair pass touched
type RepairResult struct {
	RunID             string `json:"runId"`
	TimesheetsScanned int    `json:"timesheetsScanned"`
	TimesheetsTouched int    `json:"timesheetsTouched"`
	EntriesUpdated    int64  `json:"entriesUpdated"`
}

// EntryService handles the interactive entry path
type EntryService interface {
	CreateEntry(ctx context.Context, input EntryInput) (*domain.TimesheetEntry, error)
	UpdateEntry(ctx context.Context, id int64, input EntryInput) (*domain.TimesheetEntry, error)
	DeleteEntry(ctx context.Context, id int64) error
}

// TimesheetService handles timesheet creation and the status lifecycle
type TimesheetService interface {
	CreateTimesheet(ctx context.Context, employeeID int64, weekOf time.Time) (*domain.Timesheet, error)

	// Status transitions; each cascades to every entry of the timesheet
	Submit(ctx context.Context, id int64) (*domain.Timesheet, error)
	Approve(ctx context.Context, id int64, approver string) (*domain.Timesheet, error)
	Lock(ctx context.Context, id int64) (*domain.Timesheet, error)
	Unlock(ctx context.Context, id int64) (*domain.Timesheet, error)
	MarkProcessed(ctx context.Context, id int64) (*domain.Timesheet, error)
	OverrideStatus(ctx context.Context, req validation.StatusOverrideRequest) (*domain.Timesheet, error)

	// Consistency repair
	RepairEntryStatuses(ctx context.Context) (*RepairResult, error)
}

// Dispatcher hands side effects to a best-effort background runner
type Dispatcher interface {
	Dispatch(name string, fn dispatch.TaskFunc) string
}

// ServiceContainer manages all services and their dependencies
type ServiceContainer struct {
	EntryService     EntryService
	TimesheetService TimesheetService
}
