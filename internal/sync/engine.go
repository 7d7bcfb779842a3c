package sync

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"timesheet-admin/internal/calendar"
	"timesheet-admin/internal/config"
	"timesheet-admin/internal/domain"
	"timesheet-admin/internal/errors"
	"timesheet-admin/internal/external"
	"timesheet-admin/internal/logging"
	"timesheet-admin/internal/repository/sqlite"
)

// Engine runs reconciliation passes against one repository and one feed.
type Engine struct {
	repo        sqlite.Repository
	source      external.AttendanceSource
	guard       RunGuard
	logger      logrus.FieldLogger
	schedule    domain.Schedule
	tolerance   decimal.Decimal
	concurrency int
	now         func() time.Time

	mu    sync.Mutex
	state RunState
}

// NewEngine creates an engine. A nil guard defaults to a MemoryRunGuard.
func NewEngine(repo sqlite.Repository, source external.AttendanceSource, cfg *config.Config, guard RunGuard, logger logrus.FieldLogger) *Engine {
	if cfg == nil {
		cfg = config.NewConfig()
	}
	if guard == nil {
		guard = NewMemoryRunGuard()
	}
	if logger == nil {
		logger = logging.Discard()
	}
	concurrency := cfg.Sync.Concurrency
	if concurrency < 1 {
		concurrency = 1
	}
	return &Engine{
		repo:   repo,
		source: source,
		guard:  guard,
		logger: logger.WithField("module", "sync"),
		schedule: domain.Schedule{
			MorningStart:   cfg.Schedule.MorningStart,
			MorningEnd:     cfg.Schedule.MorningEnd,
			AfternoonStart: cfg.Schedule.AfternoonStart,
			AfternoonEnd:   cfg.Schedule.AfternoonEnd,
		},
		tolerance:   cfg.Sync.MatchTolerance,
		concurrency: concurrency,
		now:         func() time.Time { return time.Now().UTC() },
		state:       StateIdle,
	}
}

// State returns the engine's current run state.
func (e *Engine) State() RunState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

func (e *Engine) setState(s RunState) {
	e.mu.Lock()
	e.state = s
	e.mu.Unlock()
}

// Run executes one reconciliation pass. A run that finds another in progress
// returns a skipped summary. Worker failures make the run PARTIAL; failing to
// resolve the period or the worker set makes it ERROR. Every executed run is
// recorded as a SyncLog. The error return is reserved for guard failures.
func (e *Engine) Run(ctx context.Context) (*Summary, error) {
	release, ok, err := e.guard.TryAcquire(ctx)
	if err != nil {
		return nil, errors.NewExternalError("acquire sync run guard", err)
	}
	if !ok {
		e.logger.Info("sync run already in progress, skipping")
		return &Summary{Skipped: true, Errors: []string{}}, nil
	}
	defer release()

	e.setState(StateRunning)
	defer e.setState(StateIdle)

	started := e.now()
	summary := &Summary{RunID: uuid.NewString(), Errors: []string{}}
	log := e.logger.WithField("runId", summary.RunID)
	log.Info("sync run started")

	fatal := e.run(ctx, summary, log)

	summary.Status = domain.RunStatusFor(summary.Errors, fatal)
	summary.Success = summary.Status == domain.SyncStatusSuccess
	e.record(ctx, domain.SyncLogTimesheetSync, summary.RunID, summary.Status, started, summary.Errors,
		summary.RowsProcessed, summary.EntriesCreated, summary.EntriesUpdated,
		summary.WeekendRowsSkipped+summary.FinalizedRows+summary.OutOfPeriodRows, summary)

	log.WithFields(logrus.Fields{
		"status":            summary.Status,
		"timesheetsCreated": summary.TimesheetsCreated,
		"entriesCreated":    summary.EntriesCreated,
		"entriesUpdated":    summary.EntriesUpdated,
		"errors":            len(summary.Errors),
	}).Info("sync run finished")
	return summary, nil
}

// run fills summary and reports whether the run failed fatally.
func (e *Engine) run(ctx context.Context, summary *Summary, log logrus.FieldLogger) bool {
	period, err := e.source.GetCurrentPeriod(ctx)
	if err != nil {
		logging.LogError(log, "sync", "Run", "resolve current period", nil, err)
		summary.Errors = append(summary.Errors, fmt.Sprintf("resolve current period: %v", err))
		return true
	}

	workers, err := e.repo.ListEmployeesWithIdentifier(ctx, domain.IdentifierExternalWorkerID)
	if err != nil {
		logging.LogError(log, "sync", "Run", "resolve tracked workers", nil, err)
		summary.Errors = append(summary.Errors, fmt.Sprintf("resolve tracked workers: %v", err))
		return true
	}

	var mu sync.Mutex
	g := new(errgroup.Group)
	g.SetLimit(e.concurrency)
	for _, employee := range workers {
		g.Go(func() error {
			result := e.syncWorker(ctx, employee, period)
			for _, msg := range result.errors {
				logging.LogError(log, "sync", "syncWorker", "worker sync failed", logrus.Fields{"employeeId": employee.ID, "employee": employee.FullName()}, fmt.Errorf("%s", msg))
			}
			mu.Lock()
			summary.add(result)
			mu.Unlock()
			// Worker failures are collected, never returned, so siblings keep running.
			return nil
		})
	}
	_ = g.Wait()
	return false
}

func (e *Engine) syncWorker(ctx context.Context, employee *domain.Employee, period external.Period) workerResult {
	var result workerResult
	fail := func(format string, args ...any) {
		result.errors = append(result.errors, fmt.Sprintf("employee %d: ", employee.ID)+fmt.Sprintf(format, args...))
	}

	workerID, _ := employee.Identifier(domain.IdentifierExternalWorkerID)
	rows, err := e.source.GetRows(ctx, workerID, period.ID)
	if err != nil {
		fail("fetch rows for worker %s: %v", workerID, err)
		return result
	}

	assignments, err := e.repo.ListActiveRoleAssignments(ctx, employee.ID)
	if err != nil {
		fail("load role assignments: %v", err)
		return result
	}

	schedule := employee.ScheduleOr(e.schedule)
	weeks := make(map[time.Time][]mappedRow)
	for _, row := range rows {
		m, err := mapRow(row, schedule)
		if err != nil {
			fail("%v", err)
			continue
		}
		if !period.Contains(m.date) {
			result.outOfPeriodRows++
			continue
		}
		if calendar.IsWeekend(m.date) {
			result.weekendRows++
			continue
		}
		week := calendar.WeekStart(m.date)
		weeks[week] = append(weeks[week], m)
	}

	keys := make([]time.Time, 0, len(weeks))
	for week := range weeks {
		keys = append(keys, week)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Before(keys[j]) })

	for _, week := range keys {
		var weekResult workerResult
		err := e.repo.InTx(ctx, func(repo sqlite.Repository) error {
			weekResult = workerResult{}
			return e.syncWeek(ctx, repo, employee, assignments, week, period, weeks[week], &weekResult)
		})
		if err != nil {
			fail("week of %s: %v", calendar.FormatDate(week), err)
			continue
		}
		result.rows += weekResult.rows
		result.timesheetsCreated += weekResult.timesheetsCreated
		result.timesheetsUpdated += weekResult.timesheetsUpdated
		result.entriesCreated += weekResult.entriesCreated
		result.entriesUpdated += weekResult.entriesUpdated
		result.finalizedRows += weekResult.finalizedRows
	}
	return result
}

func (e *Engine) syncWeek(ctx context.Context, repo sqlite.Repository, employee *domain.Employee, assignments []domain.RoleAssignment, week time.Time, period external.Period, rows []mappedRow, result *workerResult) error {
	statuses := make([]domain.Status, 0, len(rows))
	for _, m := range rows {
		statuses = append(statuses, m.status)
	}
	highest := domain.Highest(statuses...)
	now := e.now()

	ts, err := findWeek(ctx, repo, employee.ID, week)
	if err != nil {
		return err
	}

	if ts == nil {
		created := domain.NewTimesheet(employee.ID, week)
		created.Status = highest
		created.AutoCreated = true
		created.ExternalPeriodID = period.ID
		created.ExternalStatus = highest
		created.ExternalSyncedAt = &now
		if err := repo.CreateTimesheet(ctx, &created); err != nil {
			return err
		}
		ts = &created
		result.timesheetsCreated++
	} else {
		changed := ts.ExternalPeriodID != period.ID || ts.ExternalStatus != highest
		ts.ExternalPeriodID = period.ID
		ts.ExternalStatus = highest
		ts.ExternalSyncedAt = &now

		if ts.Status.Finalized() {
			result.finalizedRows += len(rows)
			if changed {
				result.timesheetsUpdated++
			}
			return repo.UpdateTimesheet(ctx, ts)
		}

		if next, raised := domain.Advance(ts.Status, highest); raised {
			ts.Status = next
			changed = true
			if _, err := repo.UpdateEntryStatusesForTimesheet(ctx, ts.ID, next); err != nil {
				return err
			}
		}
		if changed {
			result.timesheetsUpdated++
		}
	}

	for _, m := range rows {
		if err := e.importRow(ctx, repo, employee.ID, ts, assignments, m, now, result); err != nil {
			return fmt.Errorf("row %s: %w", m.row.ID, err)
		}
		result.rows++
	}

	entries, err := repo.ListEntriesByTimesheet(ctx, ts.ID)
	if err != nil {
		return err
	}
	ts.Verified = allVerified(entries)
	return repo.UpdateTimesheet(ctx, ts)
}

// findWeek looks the week up with a window one day either side of week and
// keeps the oldest timesheet whose stored start resolves to the same day.
func findWeek(ctx context.Context, repo sqlite.Repository, employeeID int64, week time.Time) (*domain.Timesheet, error) {
	candidates, err := repo.FindTimesheetsInWindow(ctx, employeeID, calendar.AddDays(week, -1), calendar.AddDays(week, 1))
	if err != nil {
		return nil, err
	}
	for _, ts := range candidates {
		if calendar.SameDay(ts.WeekStarting, week) {
			return ts, nil
		}
	}
	return nil, nil
}

func (e *Engine) importRow(ctx context.Context, repo sqlite.Repository, employeeID int64, ts *domain.Timesheet, assignments []domain.RoleAssignment, m mappedRow, now time.Time, result *workerResult) error {
	linked, err := repo.FindEntryByExternalID(ctx, m.row.ID)
	if err != nil && !errors.IsErrorType(err, errors.ErrorTypeNotFound) {
		return err
	}
	if linked != nil {
		if linked.TimesheetID != ts.ID {
			parent, err := repo.GetTimesheet(ctx, linked.TimesheetID)
			if err != nil {
				return err
			}
			if parent.Status.Finalized() {
				return nil
			}
		}
		if m.applyTo(linked, now) {
			if err := repo.UpdateEntry(ctx, linked); err != nil {
				return err
			}
			result.entriesUpdated++
		}
		return nil
	}

	if match, err := e.fuzzyMatch(ctx, repo, employeeID, ts, m); err != nil {
		return err
	} else if match != nil {
		externalID := m.row.ID
		match.Verified = true
		match.ExternalEntryID = &externalID
		match.ExternalSyncedAt = &now
		if err := repo.UpdateEntry(ctx, match); err != nil {
			return err
		}
		result.entriesUpdated++
		return nil
	}

	var assignment *domain.RoleAssignment
	if a, ok := domain.PickAssignment(assignments, m.row.SourceLocationLabel); ok {
		assignment = &a
	}
	if err := repo.CreateEntry(ctx, m.newEntry(ts, assignment, now)); err != nil {
		return err
	}
	result.entriesCreated++
	return nil
}

// fuzzyMatch returns the oldest locally authored, unverified, unlinked entry
// on the row's date whose hours are within tolerance of the row's reported
// hours. Entries under another timesheet only qualify while that timesheet is
// still editable.
func (e *Engine) fuzzyMatch(ctx context.Context, repo sqlite.Repository, employeeID int64, ts *domain.Timesheet, m mappedRow) (*domain.TimesheetEntry, error) {
	entries, err := repo.ListEntriesForEmployeeDate(ctx, employeeID, m.date)
	if err != nil {
		return nil, err
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].ID < entries[j].ID })

	finalized := map[int64]bool{ts.ID: ts.Status.Finalized()}
	for _, entry := range entries {
		if !entry.LocallyAuthored() || entry.Verified || entry.HasExternalID() {
			continue
		}
		if !domain.WithinTolerance(entry.Hours, m.rowHours, e.tolerance) {
			continue
		}
		done, ok := finalized[entry.TimesheetID]
		if !ok {
			parent, err := repo.GetTimesheet(ctx, entry.TimesheetID)
			if err != nil {
				return nil, err
			}
			done = parent.Status.Finalized()
			finalized[entry.TimesheetID] = done
		}
		if done {
			continue
		}
		return entry, nil
	}
	return nil, nil
}

func allVerified(entries []*domain.TimesheetEntry) bool {
	if len(entries) == 0 {
		return false
	}
	for _, entry := range entries {
		if !entry.Verified {
			return false
		}
	}
	return true
}

// record appends a SyncLog for a finished run. details is stored as JSON.
func (e *Engine) record(ctx context.Context, logType domain.SyncLogType, runID string, status domain.SyncRunStatus, started time.Time, errs []string, processed, created, updated, skipped int, details any) {
	detailJSON, err := json.Marshal(details)
	if err != nil {
		detailJSON = []byte(fmt.Sprintf("%+v", details))
	}
	entry := &domain.SyncLog{
		RunID:       runID,
		Type:        logType,
		Status:      status,
		Processed:   processed,
		Created:     created,
		Updated:     updated,
		Skipped:     skipped,
		Details:     string(detailJSON),
		Errors:      errs,
		StartedAt:   started,
		CompletedAt: e.now(),
	}
	if err := e.repo.CreateSyncLog(ctx, entry); err != nil {
		logging.LogError(e.logger, "sync", "record", "write sync log", logrus.Fields{"runId": runID, "type": logType}, err)
	}
}
