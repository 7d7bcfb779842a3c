package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"timesheet-admin/internal/calendar"
	"timesheet-admin/internal/config"
	"timesheet-admin/internal/dispatch"
	"timesheet-admin/internal/domain"
	"timesheet-admin/internal/external"
	"timesheet-admin/internal/logging"
	"timesheet-admin/internal/repository/sqlite"
)

var testWeek = calendar.NewDate(2024, 1, 8)

// inlineDispatcher runs tasks synchronously and remembers their names.
type inlineDispatcher struct {
	mu    sync.Mutex
	names []string
	errs  []error
}

func (d *inlineDispatcher) Dispatch(name string, fn dispatch.TaskFunc) string {
	err := fn(context.Background())
	d.mu.Lock()
	defer d.mu.Unlock()
	d.names = append(d.names, name)
	d.errs = append(d.errs, err)
	return name
}

type recordingNotifier struct {
	kinds      []external.NotificationKind
	recipients []string
	err        error
}

func (n *recordingNotifier) Notify(_ context.Context, kind external.NotificationKind, recipient string, _ domain.Timesheet) error {
	n.kinds = append(n.kinds, kind)
	n.recipients = append(n.recipients, recipient)
	return n.err
}

type recordingPayroll struct {
	synced []int64
	err    error
}

func (p *recordingPayroll) SyncApproved(_ context.Context, snapshot domain.Timesheet) error {
	p.synced = append(p.synced, snapshot.ID)
	return p.err
}

func setupRepo(t *testing.T) sqlite.Repository {
	t.Helper()
	repo, err := config.CreateTestRepository()
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func seedEmployee(t *testing.T, repo sqlite.Repository, maxDaily int64) *domain.Employee {
	t.Helper()
	e := &domain.Employee{FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com"}
	if maxDaily > 0 {
		limit := decimal.NewFromInt(maxDaily)
		e.MaxDailyHours = &limit
	}
	require.NoError(t, repo.CreateEmployee(context.Background(), e))
	return e
}

func seedTimesheet(t *testing.T, repo sqlite.Repository, employeeID int64, week time.Time) *domain.Timesheet {
	t.Helper()
	ts := domain.NewTimesheet(employeeID, week)
	require.NoError(t, repo.CreateTimesheet(context.Background(), &ts))
	return &ts
}

func clockPtr(s string) *calendar.Clock {
	c := calendar.MustParseClock(s)
	return &c
}

func timedInput(tsID int64, date time.Time, start, end string) EntryInput {
	return EntryInput{TimesheetID: tsID, Date: date, StartTime: clockPtr(start), EndTime: clockPtr(end)}
}

func newEntryService(repo sqlite.Repository) EntryService {
	return NewEntryService(repo, config.NewConfig(), logging.Discard(), NewDayLocker())
}
