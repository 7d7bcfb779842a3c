package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"timesheet-admin/internal/calendar"
	"timesheet-admin/internal/domain"
	apperrors "timesheet-admin/internal/errors"
)

func setupTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func seedEmployee(t *testing.T, repo *SQLiteRepository, workerID string) *domain.Employee {
	t.Helper()
	e := &domain.Employee{FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com"}
	if workerID != "" {
		e.Identifiers = []domain.ExternalIdentifier{{Type: domain.IdentifierExternalWorkerID, Value: workerID}}
	}
	require.NoError(t, repo.CreateEmployee(context.Background(), e))
	return e
}

func seedTimesheet(t *testing.T, repo *SQLiteRepository, employeeID int64, week time.Time) *domain.Timesheet {
	t.Helper()
	ts := domain.NewTimesheet(employeeID, week)
	require.NoError(t, repo.CreateTimesheet(context.Background(), &ts))
	return &ts
}

func clock(s string) *calendar.Clock {
	c := calendar.MustParseClock(s)
	return &c
}

func TestEmployeeRoundTrip(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	maxDaily := decimal.NewFromInt(8)
	e := &domain.Employee{
		FirstName:     "Grace",
		LastName:      "Hopper",
		MorningStart:  clock("08:00"),
		MaxDailyHours: &maxDaily,
		Identifiers:   []domain.ExternalIdentifier{{Type: domain.IdentifierExternalWorkerID, Value: "W-1"}},
	}
	require.NoError(t, repo.CreateEmployee(ctx, e))
	assert.Greater(t, e.ID, int64(0))

	got, err := repo.GetEmployee(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, "Grace Hopper", got.FullName())
	require.NotNil(t, got.MorningStart)
	assert.Equal(t, "08:00", got.MorningStart.String())
	assert.Nil(t, got.AfternoonEnd)
	require.NotNil(t, got.MaxDailyHours)
	assert.True(t, got.MaxDailyHours.Equal(maxDaily))
	v, ok := got.Identifier(domain.IdentifierExternalWorkerID)
	assert.True(t, ok)
	assert.Equal(t, "W-1", v)

	_, err = repo.GetEmployee(ctx, 999)
	assert.True(t, apperrors.IsErrorType(err, apperrors.ErrorTypeNotFound))
}

func TestListEmployeesWithIdentifier(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	tracked := seedEmployee(t, repo, "W-1")
	seedEmployee(t, repo, "")

	all, err := repo.ListEmployees(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	workers, err := repo.ListEmployeesWithIdentifier(ctx, domain.IdentifierExternalWorkerID)
	require.NoError(t, err)
	require.Len(t, workers, 1)
	assert.Equal(t, tracked.ID, workers[0].ID)
	assert.Len(t, workers[0].Identifiers, 1)
}

func TestListActiveRoleAssignments(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()
	e := seedEmployee(t, repo, "")

	acme := &domain.Company{Name: "Acme"}
	harbour := &domain.Company{Name: "Harbour"}
	role := &domain.Role{Name: "Driver"}
	require.NoError(t, repo.CreateCompany(ctx, acme))
	require.NoError(t, repo.CreateCompany(ctx, harbour))
	require.NoError(t, repo.CreateRole(ctx, role))

	require.NoError(t, repo.CreateRoleAssignment(ctx, &domain.RoleAssignment{EmployeeID: e.ID, RoleID: role.ID, CompanyID: acme.ID, Active: false}))
	require.NoError(t, repo.CreateRoleAssignment(ctx, &domain.RoleAssignment{EmployeeID: e.ID, RoleID: role.ID, CompanyID: harbour.ID, Active: true}))

	got, err := repo.ListActiveRoleAssignments(ctx, e.ID)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Harbour", got[0].CompanyName)
	assert.Equal(t, "Driver", got[0].RoleName)
	assert.True(t, got[0].Active)
}

func TestTimesheetCRUD(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()
	e := seedEmployee(t, repo, "")

	ts := seedTimesheet(t, repo, e.ID, calendar.NewDate(2024, 1, 10))
	assert.Greater(t, ts.ID, int64(0))

	got, err := repo.GetTimesheet(ctx, ts.ID)
	require.NoError(t, err)
	assert.Equal(t, "2024-01-08", calendar.FormatDate(got.WeekStarting))
	assert.Equal(t, "2024-01-14", calendar.FormatDate(got.WeekEnding))
	assert.Equal(t, domain.StatusOpen, got.Status)
	assert.Equal(t, domain.Status(""), got.ExternalStatus)

	now := time.Date(2024, 1, 12, 9, 0, 0, 0, time.UTC)
	got.Status = domain.StatusApproved
	got.ExternalStatus = domain.StatusLocked
	got.ApprovedAt = &now
	got.ApprovedBy = "manager@example.com"
	require.NoError(t, repo.UpdateTimesheet(ctx, got))

	updated, err := repo.GetTimesheet(ctx, ts.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusApproved, updated.Status)
	assert.Equal(t, domain.StatusLocked, updated.ExternalStatus)
	require.NotNil(t, updated.ApprovedAt)
	assert.True(t, updated.ApprovedAt.Equal(now))

	dup := domain.NewTimesheet(e.ID, calendar.NewDate(2024, 1, 9))
	assert.Error(t, repo.CreateTimesheet(ctx, &dup), "one timesheet per employee week")

	require.NoError(t, repo.DeleteTimesheet(ctx, ts.ID))
	_, err = repo.GetTimesheet(ctx, ts.ID)
	assert.True(t, apperrors.IsErrorType(err, apperrors.ErrorTypeNotFound))
}

func TestFindTimesheetsInWindow_AbsorbsSkew(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()
	e := seedEmployee(t, repo, "")

	// Stored by a client in UTC+1: Monday midnight local is Sunday 23:00Z.
	skewed := domain.Timesheet{
		EmployeeID:   e.ID,
		WeekStarting: time.Date(2024, 1, 7, 23, 0, 0, 0, time.UTC),
		WeekEnding:   time.Date(2024, 1, 13, 23, 0, 0, 0, time.UTC),
		Status:       domain.StatusOpen,
	}
	require.NoError(t, repo.CreateTimesheet(ctx, &skewed))
	seedTimesheet(t, repo, e.ID, calendar.NewDate(2024, 1, 15))

	week := calendar.NewDate(2024, 1, 8)
	got, err := repo.FindTimesheetsInWindow(ctx, e.ID, calendar.AddDays(week, -1), calendar.AddDays(week, 1))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, skewed.ID, got[0].ID)
	assert.Equal(t, "2024-01-08", calendar.FormatDate(got[0].WeekStarting))
}

func TestEntryCRUD(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()
	e := seedEmployee(t, repo, "")
	ts := seedTimesheet(t, repo, e.ID, calendar.NewDate(2024, 1, 8))

	company := &domain.Company{Name: "Acme"}
	require.NoError(t, repo.CreateCompany(ctx, company))

	entry := &domain.TimesheetEntry{
		TimesheetID: ts.ID,
		Date:        calendar.NewDate(2024, 1, 9),
		StartTime:   clock("09:00"),
		EndTime:     clock("13:00"),
		Hours:       decimal.NewFromInt(4),
		CompanyID:   &company.ID,
	}
	require.NoError(t, repo.CreateEntry(ctx, entry))

	got, err := repo.GetEntry(ctx, entry.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.EntryTypeGeneral, got.EntryType)
	assert.Equal(t, domain.StatusOpen, got.Status)
	assert.Equal(t, "Acme", got.CompanyName)
	assert.True(t, got.Hours.Equal(decimal.NewFromInt(4)))
	assert.False(t, got.HasExternalID())

	ext := "ext-1"
	got.ExternalEntryID = &ext
	got.Verified = true
	require.NoError(t, repo.UpdateEntry(ctx, got))

	byExt, err := repo.FindEntryByExternalID(ctx, "ext-1")
	require.NoError(t, err)
	assert.Equal(t, entry.ID, byExt.ID)
	assert.True(t, byExt.Verified)

	clash := &domain.TimesheetEntry{TimesheetID: ts.ID, Date: calendar.NewDate(2024, 1, 10), Hours: decimal.NewFromInt(1), ExternalEntryID: &ext}
	assert.Error(t, repo.CreateEntry(ctx, clash), "external ids are unique")

	_, err = repo.FindEntryByExternalID(ctx, "missing")
	assert.True(t, apperrors.IsErrorType(err, apperrors.ErrorTypeNotFound))

	require.NoError(t, repo.DeleteEntry(ctx, entry.ID))
	assert.True(t, apperrors.IsErrorType(repo.DeleteEntry(ctx, entry.ID), apperrors.ErrorTypeNotFound))
}

func TestListEntriesForEmployeeDate_SpansTimesheets(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()
	e := seedEmployee(t, repo, "")
	other := seedEmployee(t, repo, "")

	day := calendar.NewDate(2024, 1, 9)
	ts := seedTimesheet(t, repo, e.ID, day)
	legacy := domain.Timesheet{EmployeeID: e.ID, WeekStarting: time.Date(2024, 1, 7, 23, 0, 0, 0, time.UTC), WeekEnding: calendar.NewDate(2024, 1, 14)}
	require.NoError(t, repo.CreateTimesheet(ctx, &legacy))
	otherTS := seedTimesheet(t, repo, other.ID, day)

	for _, tsID := range []int64{ts.ID, legacy.ID, otherTS.ID} {
		require.NoError(t, repo.CreateEntry(ctx, &domain.TimesheetEntry{TimesheetID: tsID, Date: day, Hours: decimal.NewFromInt(2)}))
	}
	require.NoError(t, repo.CreateEntry(ctx, &domain.TimesheetEntry{TimesheetID: ts.ID, Date: calendar.NewDate(2024, 1, 10), Hours: decimal.NewFromInt(2)}))

	got, err := repo.ListEntriesForEmployeeDate(ctx, e.ID, day)
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestReparentAndCascadeEntries(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()
	e := seedEmployee(t, repo, "")
	keep := seedTimesheet(t, repo, e.ID, calendar.NewDate(2024, 1, 8))
	drop := seedTimesheet(t, repo, e.ID, calendar.NewDate(2024, 1, 15))

	for i := 0; i < 3; i++ {
		require.NoError(t, repo.CreateEntry(ctx, &domain.TimesheetEntry{TimesheetID: drop.ID, Date: calendar.NewDate(2024, 1, 16), Hours: decimal.NewFromInt(1)}))
	}

	moved, err := repo.ReparentEntries(ctx, drop.ID, keep.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), moved)

	n, err := repo.CountEntries(ctx, keep.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	changed, err := repo.UpdateEntryStatusesForTimesheet(ctx, keep.ID, domain.StatusLocked)
	require.NoError(t, err)
	assert.Equal(t, int64(3), changed)

	changed, err = repo.UpdateEntryStatusesForTimesheet(ctx, keep.ID, domain.StatusLocked)
	require.NoError(t, err)
	assert.Zero(t, changed, "second cascade is a no-op")
}

func TestInTx_RollsBackOnError(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()
	e := seedEmployee(t, repo, "")

	boom := errors.New("boom")
	err := repo.InTx(ctx, func(tx Repository) error {
		ts := domain.NewTimesheet(e.ID, calendar.NewDate(2024, 1, 8))
		require.NoError(t, tx.CreateTimesheet(ctx, &ts))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	list, err := repo.ListTimesheetsByEmployee(ctx, e.ID)
	require.NoError(t, err)
	assert.Empty(t, list)

	err = repo.InTx(ctx, func(tx Repository) error {
		ts := domain.NewTimesheet(e.ID, calendar.NewDate(2024, 1, 8))
		return tx.CreateTimesheet(ctx, &ts)
	})
	require.NoError(t, err)

	list, err = repo.ListTimesheets(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestSyncLogs(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()
	base := time.Date(2024, 1, 8, 10, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		status := domain.SyncStatusSuccess
		if i%2 == 1 {
			status = domain.SyncStatusPartial
		}
		l := &domain.SyncLog{
			RunID:       "run",
			Type:        domain.SyncLogTimesheetSync,
			Status:      status,
			Processed:   i,
			StartedAt:   base.Add(time.Duration(i) * time.Minute),
			CompletedAt: base.Add(time.Duration(i)*time.Minute + time.Second),
		}
		if status == domain.SyncStatusPartial {
			l.Errors = []string{"worker failed"}
		}
		require.NoError(t, repo.CreateSyncLog(ctx, l))
	}
	require.NoError(t, repo.CreateSyncLog(ctx, &domain.SyncLog{RunID: "merge", Type: domain.SyncLogTimesheetMerge, Status: domain.SyncStatusSuccess, StartedAt: base, CompletedAt: base}))

	logs, total, err := repo.ListSyncLogs(ctx, domain.SyncLogFilter{Page: 1, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, 6, total)
	require.Len(t, logs, 2)
	assert.Equal(t, 4, logs[0].Processed, "newest first")

	partial := domain.SyncStatusPartial
	syncType := domain.SyncLogTimesheetSync
	logs, total, err = repo.ListSyncLogs(ctx, domain.SyncLogFilter{Type: &syncType, Status: &partial})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	for _, l := range logs {
		assert.Equal(t, []string{"worker failed"}, l.Errors)
	}

	logs, _, err = repo.ListSyncLogs(ctx, domain.SyncLogFilter{Page: 4, Limit: 2})
	require.NoError(t, err)
	assert.Empty(t, logs)
}
