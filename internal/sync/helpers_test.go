package sync

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"timesheet-admin/internal/calendar"
	"timesheet-admin/internal/config"
	"timesheet-admin/internal/domain"
	"timesheet-admin/internal/external"
	"timesheet-admin/internal/logging"
	"timesheet-admin/internal/repository/sqlite"
)

var (
	monday   = calendar.NewDate(2024, 1, 8)
	tuesday  = calendar.NewDate(2024, 1, 9)
	saturday = calendar.NewDate(2024, 1, 13)
)

// fakeSource is an in-memory attendance feed.
type fakeSource struct {
	mu        sync.Mutex
	period    external.Period
	periodErr error
	rows      map[string][]external.Row
	rowErrs   map[string]error
	gate      chan struct{}
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		period:  external.Period{ID: "2024-01", StartDate: "2024-01-01", EndDate: "2024-01-31"},
		rows:    make(map[string][]external.Row),
		rowErrs: make(map[string]error),
	}
}

func (f *fakeSource) GetCurrentPeriod(ctx context.Context) (external.Period, error) {
	if f.gate != nil {
		<-f.gate
	}
	return f.period, f.periodErr
}

func (f *fakeSource) GetRows(ctx context.Context, workerID, periodID string) ([]external.Row, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.rowErrs[workerID]; err != nil {
		return nil, err
	}
	return append([]external.Row(nil), f.rows[workerID]...), nil
}

func (f *fakeSource) add(workerID, id string, date time.Time, duration, status string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rows[workerID] = append(f.rows[workerID], external.Row{
		ID: id, WorkerID: workerID, Date: calendar.FormatDate(date), Duration: duration, Status: status,
	})
}

type fixture struct {
	repo   sqlite.Repository
	source *fakeSource
	engine *Engine
}

func setupFixture(t *testing.T) *fixture {
	t.Helper()
	repo, err := config.CreateTestRepository()
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	source := newFakeSource()
	return &fixture{
		repo:   repo,
		source: source,
		engine: NewEngine(repo, source, config.NewConfig(), nil, logging.Discard()),
	}
}

func (f *fixture) employee(t *testing.T, workerID string) *domain.Employee {
	t.Helper()
	e := &domain.Employee{FirstName: "Worker", LastName: workerID, Email: workerID + "@example.com"}
	if workerID != "" {
		e.Identifiers = []domain.ExternalIdentifier{{Type: domain.IdentifierExternalWorkerID, Value: workerID}}
	}
	require.NoError(t, f.repo.CreateEmployee(context.Background(), e))
	return e
}

func (f *fixture) timesheet(t *testing.T, employeeID int64, week time.Time, status domain.Status) *domain.Timesheet {
	t.Helper()
	ts := domain.NewTimesheet(employeeID, week)
	ts.Status = status
	require.NoError(t, f.repo.CreateTimesheet(context.Background(), &ts))
	return &ts
}

func (f *fixture) localEntry(t *testing.T, tsID int64, date time.Time, hours string) *domain.TimesheetEntry {
	t.Helper()
	e := &domain.TimesheetEntry{TimesheetID: tsID, Date: date, Hours: decimal.RequireFromString(hours)}
	require.NoError(t, f.repo.CreateEntry(context.Background(), e))
	return e
}

func (f *fixture) sourcedEntry(t *testing.T, tsID int64, date time.Time, hours, externalID string, syncedAt time.Time) *domain.TimesheetEntry {
	t.Helper()
	e := &domain.TimesheetEntry{
		TimesheetID:      tsID,
		Date:             date,
		Hours:            decimal.RequireFromString(hours),
		TSSource:         true,
		Verified:         true,
		ExternalEntryID:  &externalID,
		ExternalSyncedAt: &syncedAt,
	}
	require.NoError(t, f.repo.CreateEntry(context.Background(), e))
	return e
}

func (f *fixture) entries(t *testing.T, tsID int64) []*domain.TimesheetEntry {
	t.Helper()
	entries, err := f.repo.ListEntriesByTimesheet(context.Background(), tsID)
	require.NoError(t, err)
	return entries
}

func (f *fixture) onlyTimesheet(t *testing.T, employeeID int64) *domain.Timesheet {
	t.Helper()
	timesheets, err := f.repo.ListTimesheetsByEmployee(context.Background(), employeeID)
	require.NoError(t, err)
	require.Len(t, timesheets, 1, "expected exactly one timesheet")
	return timesheets[0]
}

func rowID(n int) string {
	return fmt.Sprintf("row-%d", n)
}

func externalRow(id, date, duration string) external.Row {
	return external.Row{ID: id, WorkerID: "W-1", Date: date, Duration: duration, Status: "open"}
}
