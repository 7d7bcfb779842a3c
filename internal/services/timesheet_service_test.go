package services

import (
	"context"
	stderrors "errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"timesheet-admin/internal/calendar"
	"timesheet-admin/internal/domain"
	"timesheet-admin/internal/errors"
	"timesheet-admin/internal/external"
	"timesheet-admin/internal/logging"
	"timesheet-admin/internal/repository/sqlite"
	"timesheet-admin/internal/validation"
)

type timesheetFixture struct {
	repo       sqlite.Repository
	service    TimesheetService
	dispatcher *inlineDispatcher
	notifier   *recordingNotifier
	payroll    *recordingPayroll
	employee   *domain.Employee
	timesheet  *domain.Timesheet
}

func setupTimesheetFixture(t *testing.T, entries int) *timesheetFixture {
	t.Helper()
	repo := setupRepo(t)
	f := &timesheetFixture{
		repo:       repo,
		dispatcher: &inlineDispatcher{},
		notifier:   &recordingNotifier{},
		payroll:    &recordingPayroll{},
	}
	f.service = NewTimesheetService(repo, TimesheetDeps{
		Logger:     logging.Discard(),
		Dispatcher: f.dispatcher,
		Notifier:   f.notifier,
		Payroll:    f.payroll,
	})
	f.employee = seedEmployee(t, repo, 0)
	f.timesheet = seedTimesheet(t, repo, f.employee.ID, testWeek)
	for i := 0; i < entries; i++ {
		e := &domain.TimesheetEntry{TimesheetID: f.timesheet.ID, Date: calendar.AddDays(testWeek, i), Hours: decimal.NewFromInt(2)}
		require.NoError(t, repo.CreateEntry(context.Background(), e))
	}
	return f
}

func (f *timesheetFixture) entryStatuses(t *testing.T) []domain.Status {
	t.Helper()
	entries, err := f.repo.ListEntriesByTimesheet(context.Background(), f.timesheet.ID)
	require.NoError(t, err)
	out := make([]domain.Status, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Status)
	}
	return out
}

func TestTimesheetService_CreateTimesheet(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()
	employee := seedEmployee(t, repo, 0)
	service := NewTimesheetService(repo, TimesheetDeps{})

	ts, err := service.CreateTimesheet(ctx, employee.ID, calendar.NewDate(2024, 1, 10))
	require.NoError(t, err)
	assert.Equal(t, testWeek, ts.WeekStarting)
	assert.Equal(t, domain.StatusOpen, ts.Status)
	assert.False(t, ts.AutoCreated)

	_, err = service.CreateTimesheet(ctx, employee.ID, calendar.NewDate(2024, 1, 14))
	assert.True(t, errors.IsConflict(err, errors.CodeDuplicateWeek))

	_, err = service.CreateTimesheet(ctx, employee.ID+100, testWeek)
	assert.True(t, errors.IsErrorType(err, errors.ErrorTypeNotFound))

	_, err = service.CreateTimesheet(ctx, 0, testWeek)
	assert.True(t, errors.IsErrorType(err, errors.ErrorTypeValidation))
}

func TestTimesheetService_Submit(t *testing.T) {
	t.Run("should refuse an empty timesheet", func(t *testing.T) {
		f := setupTimesheetFixture(t, 0)
		_, err := f.service.Submit(context.Background(), f.timesheet.ID)
		assert.True(t, errors.IsErrorType(err, errors.ErrorTypeValidation))
		assert.Empty(t, f.notifier.kinds)
	})

	t.Run("should cascade and notify after commit", func(t *testing.T) {
		f := setupTimesheetFixture(t, 2)
		ts, err := f.service.Submit(context.Background(), f.timesheet.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.StatusSubmitted, ts.Status)
		assert.NotNil(t, ts.SubmittedAt)
		assert.Equal(t, []domain.Status{domain.StatusSubmitted, domain.StatusSubmitted}, f.entryStatuses(t))
		assert.Equal(t, []external.NotificationKind{external.NotifySubmitted}, f.notifier.kinds)
		assert.Equal(t, []string{"ada@example.com"}, f.notifier.recipients)
	})

	t.Run("should not roll back when the notification fails", func(t *testing.T) {
		f := setupTimesheetFixture(t, 1)
		f.notifier.err = stderrors.New("smtp down")
		_, err := f.service.Submit(context.Background(), f.timesheet.ID)
		require.NoError(t, err)

		stored, err := f.repo.GetTimesheet(context.Background(), f.timesheet.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.StatusSubmitted, stored.Status)
		assert.EqualError(t, f.dispatcher.errs[0], "smtp down")
	})
}

func TestTimesheetService_Approve(t *testing.T) {
	f := setupTimesheetFixture(t, 1)
	ctx := context.Background()

	_, err := f.service.Approve(ctx, f.timesheet.ID, "manager")
	assert.True(t, errors.IsConflict(err, errors.CodeInvalidTransition), "approve before submit: %v", err)

	_, err = f.service.Submit(ctx, f.timesheet.ID)
	require.NoError(t, err)

	_, err = f.service.Approve(ctx, f.timesheet.ID, "")
	assert.True(t, errors.IsErrorType(err, errors.ErrorTypeInvalidInput))

	f.payroll.err = stderrors.New("payroll offline")
	ts, err := f.service.Approve(ctx, f.timesheet.ID, "manager")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusApproved, ts.Status)
	assert.Equal(t, "manager", ts.ApprovedBy)
	assert.NotNil(t, ts.ApprovedAt)
	assert.Equal(t, []domain.Status{domain.StatusApproved}, f.entryStatuses(t))
	assert.Equal(t, []int64{f.timesheet.ID}, f.payroll.synced)
	assert.Equal(t, []string{string(external.NotifySubmitted), string(external.NotifyApproved), "payroll-sync"}, f.dispatcher.names)
}

func TestTimesheetService_LockUnlockProcess(t *testing.T) {
	f := setupTimesheetFixture(t, 1)
	ctx := context.Background()

	_, err := f.service.Unlock(ctx, f.timesheet.ID)
	assert.True(t, errors.IsConflict(err, errors.CodeInvalidTransition))

	_, err = f.service.MarkProcessed(ctx, f.timesheet.ID)
	assert.True(t, errors.IsConflict(err, errors.CodeInvalidTransition))

	ts, err := f.service.Lock(ctx, f.timesheet.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusLocked, ts.Status)
	assert.Equal(t, []domain.Status{domain.StatusLocked}, f.entryStatuses(t))

	ts, err = f.service.Unlock(ctx, f.timesheet.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusUnlocked, ts.Status)
	assert.Equal(t, []domain.Status{domain.StatusUnlocked}, f.entryStatuses(t))

	_, err = f.service.Lock(ctx, f.timesheet.ID)
	require.NoError(t, err)
	ts, err = f.service.MarkProcessed(ctx, f.timesheet.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusProcessed, ts.Status)
}

func TestTimesheetService_OverrideStatus(t *testing.T) {
	tests := []struct {
		name   string
		req    validation.StatusOverrideRequest
		status domain.Status
		valid  bool
	}{
		{name: "should set any known status", req: validation.StatusOverrideRequest{Status: "approved", Actor: "admin"}, status: domain.StatusApproved, valid: true},
		{name: "should allow moving backwards", req: validation.StatusOverrideRequest{Status: "OPEN", Actor: "admin"}, status: domain.StatusOpen, valid: true},
		{name: "should reject unknown statuses", req: validation.StatusOverrideRequest{Status: "ARCHIVED", Actor: "admin"}},
		{name: "should require an actor", req: validation.StatusOverrideRequest{Status: "LOCKED"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := setupTimesheetFixture(t, 2)
			ctx := context.Background()
			_, err := f.service.Lock(ctx, f.timesheet.ID)
			require.NoError(t, err)

			tt.req.TimesheetID = f.timesheet.ID
			ts, err := f.service.OverrideStatus(ctx, tt.req)
			if !tt.valid {
				assert.True(t, errors.IsErrorType(err, errors.ErrorTypeValidation))
				assert.Equal(t, []domain.Status{domain.StatusLocked, domain.StatusLocked}, f.entryStatuses(t))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.status, ts.Status)
			assert.Equal(t, []domain.Status{tt.status, tt.status}, f.entryStatuses(t))
		})
	}
}

func TestTimesheetService_RepairEntryStatuses(t *testing.T) {
	f := setupTimesheetFixture(t, 3)
	ctx := context.Background()
	seedTimesheet(t, f.repo, f.employee.ID, calendar.AddDays(testWeek, 7))

	_, err := f.service.Lock(ctx, f.timesheet.ID)
	require.NoError(t, err)

	entries, err := f.repo.ListEntriesByTimesheet(ctx, f.timesheet.ID)
	require.NoError(t, err)
	for _, e := range entries[:2] {
		e.Status = domain.StatusOpen
		require.NoError(t, f.repo.UpdateEntry(ctx, e))
	}

	result, err := f.service.RepairEntryStatuses(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, result.RunID)
	assert.Equal(t, 2, result.TimesheetsScanned)
	assert.Equal(t, 1, result.TimesheetsTouched)
	assert.Equal(t, int64(2), result.EntriesUpdated)
	assert.Equal(t, []domain.Status{domain.StatusLocked, domain.StatusLocked, domain.StatusLocked}, f.entryStatuses(t))

	again, err := f.service.RepairEntryStatuses(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, again.TimesheetsTouched)
	assert.Equal(t, int64(0), again.EntriesUpdated)

	repairType := domain.SyncLogStatusRepair
	logs, total, err := f.repo.ListSyncLogs(ctx, domain.SyncLogFilter{Type: &repairType})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Equal(t, domain.SyncStatusSuccess, logs[0].Status)
}
