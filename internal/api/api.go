package api

import (
	"context"
	"time"

	"timesheet-admin/internal/domain"
	"timesheet-admin/internal/repository/sqlite"
	"timesheet-admin/internal/services"
	"timesheet-admin/internal/sync"
	"timesheet-admin/internal/validation"
)

// API defines the administrative surface: reconciliation runs, repair passes,
// the sync log, the timesheet lifecycle and interactive entries.
type API interface {
	// Reconciliation
	RunSync(ctx context.Context) (*sync.Summary, error)
	CleanupDuplicateEntries(ctx context.Context) (*sync.CleanupSummary, error)
	MergeDuplicateTimesheets(ctx context.Context) (*sync.MergeSummary, error)
	ListSyncLogs(ctx context.Context, filter domain.SyncLogFilter) (*SyncLogPage, error)

	// Status administration
	RepairEntryStatuses(ctx context.Context) (*services.RepairResult, error)
	OverrideStatus(ctx context.Context, req validation.StatusOverrideRequest) (*domain.Timesheet, error)

	// Timesheet lifecycle
	CreateTimesheet(ctx context.Context, employeeID int64, weekOf time.Time) (*domain.Timesheet, error)
	SubmitTimesheet(ctx context.Context, id int64) (*domain.Timesheet, error)
	ApproveTimesheet(ctx context.Context, id int64, approver string) (*domain.Timesheet, error)
	LockTimesheet(ctx context.Context, id int64) (*domain.Timesheet, error)
	UnlockTimesheet(ctx context.Context, id int64) (*domain.Timesheet, error)
	ProcessTimesheet(ctx context.Context, id int64) (*domain.Timesheet, error)

	// Interactive entries
	CreateEntry(ctx context.Context, req EntryRequest) (*domain.TimesheetEntry, error)
	UpdateEntry(ctx context.Context, id int64, req EntryRequest) (*domain.TimesheetEntry, error)
	DeleteEntry(ctx context.Context, id int64) error
}

// SyncEngine is the part of the reconciliation engine the API drives.
type SyncEngine interface {
	Run(ctx context.Context) (*sync.Summary, error)
	CleanupDuplicateEntries(ctx context.Context) (*sync.CleanupSummary, error)
	MergeDuplicateTimesheets(ctx context.Context) (*sync.MergeSummary, error)
}

// SyncLogPage is one page of sync logs, newest first.
type SyncLogPage struct {
	Logs  []*domain.SyncLog
	Total int
	Page  int
	Limit int
}

type apiImpl struct {
	repo       sqlite.Repository
	engine     SyncEngine
	timesheets services.TimesheetService
	entries    services.EntryService
}

// New creates a new API instance.
func New(repo sqlite.Repository, engine SyncEngine, timesheets services.TimesheetService, entries services.EntryService) API {
	return &apiImpl{
		repo:       repo,
		engine:     engine,
		timesheets: timesheets,
		entries:    entries,
	}
}

func (a *apiImpl) RunSync(ctx context.Context) (*sync.Summary, error) {
	return a.engine.Run(ctx)
}

func (a *apiImpl) CleanupDuplicateEntries(ctx context.Context) (*sync.CleanupSummary, error) {
	return a.engine.CleanupDuplicateEntries(ctx)
}

func (a *apiImpl) MergeDuplicateTimesheets(ctx context.Context) (*sync.MergeSummary, error) {
	return a.engine.MergeDuplicateTimesheets(ctx)
}

func (a *apiImpl) ListSyncLogs(ctx context.Context, filter domain.SyncLogFilter) (*SyncLogPage, error) {
	filter = filter.Normalize()
	logs, total, err := a.repo.ListSyncLogs(ctx, filter)
	if err != nil {
		return nil, err
	}
	return &SyncLogPage{Logs: logs, Total: total, Page: filter.Page, Limit: filter.Limit}, nil
}

func (a *apiImpl) RepairEntryStatuses(ctx context.Context) (*services.RepairResult, error) {
	return a.timesheets.RepairEntryStatuses(ctx)
}

func (a *apiImpl) OverrideStatus(ctx context.Context, req validation.StatusOverrideRequest) (*domain.Timesheet, error) {
	return a.timesheets.OverrideStatus(ctx, req)
}

func (a *apiImpl) CreateTimesheet(ctx context.Context, employeeID int64, weekOf time.Time) (*domain.Timesheet, error) {
	return a.timesheets.CreateTimesheet(ctx, employeeID, weekOf)
}

func (a *apiImpl) SubmitTimesheet(ctx context.Context, id int64) (*domain.Timesheet, error) {
	return a.timesheets.Submit(ctx, id)
}

func (a *apiImpl) ApproveTimesheet(ctx context.Context, id int64, approver string) (*domain.Timesheet, error) {
	return a.timesheets.Approve(ctx, id, approver)
}

func (a *apiImpl) LockTimesheet(ctx context.Context, id int64) (*domain.Timesheet, error) {
	return a.timesheets.Lock(ctx, id)
}

func (a *apiImpl) UnlockTimesheet(ctx context.Context, id int64) (*domain.Timesheet, error) {
	return a.timesheets.Unlock(ctx, id)
}

func (a *apiImpl) ProcessTimesheet(ctx context.Context, id int64) (*domain.Timesheet, error) {
	return a.timesheets.MarkProcessed(ctx, id)
}

func (a *apiImpl) CreateEntry(ctx context.Context, req EntryRequest) (*domain.TimesheetEntry, error) {
	var input services.EntryInput
	if err := req.applyTo(&input); err != nil {
		return nil, err
	}
	return a.entries.CreateEntry(ctx, input)
}

// UpdateEntry overlays the fields set in req onto the stored entry before
// handing it to the entry service, so callers can change one field at a time.
func (a *apiImpl) UpdateEntry(ctx context.Context, id int64, req EntryRequest) (*domain.TimesheetEntry, error) {
	current, err := a.repo.GetEntry(ctx, id)
	if err != nil {
		return nil, err
	}
	input := inputFromEntry(current)
	if err := req.applyTo(&input); err != nil {
		return nil, err
	}
	return a.entries.UpdateEntry(ctx, id, input)
}

func (a *apiImpl) DeleteEntry(ctx context.Context, id int64) error {
	return a.entries.DeleteEntry(ctx, id)
}
