package sync

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"timesheet-admin/internal/calendar"
	"timesheet-admin/internal/domain"
	"timesheet-admin/internal/repository/sqlite"
)

// CleanupDuplicateEntries removes externally sourced entries that duplicate a
// locally authored entry on the same date within the hours tolerance. Local
// entries already linked to another external row are left alone. The
// local entry survives, verified and linked to the most recently synced
// duplicate's external id. Each timesheet is repaired in its own transaction.
func (e *Engine) CleanupDuplicateEntries(ctx context.Context) (*CleanupSummary, error) {
	started := e.now()
	summary := &CleanupSummary{RunID: uuid.NewString(), Errors: []string{}}

	timesheets, err := e.repo.ListTimesheets(ctx)
	if err != nil {
		summary.Errors = append(summary.Errors, fmt.Sprintf("list timesheets: %v", err))
		summary.Status = domain.RunStatusFor(summary.Errors, true)
		e.record(ctx, domain.SyncLogEntryCleanup, summary.RunID, summary.Status, started, summary.Errors, 0, 0, 0, 0, summary)
		return summary, nil
	}

	for _, ts := range timesheets {
		summary.TimesheetsScanned++
		var deleted, linked int
		err := e.repo.InTx(ctx, func(repo sqlite.Repository) error {
			var err error
			deleted, linked, err = e.cleanupTimesheet(ctx, repo, ts)
			return err
		})
		if err != nil {
			summary.Errors = append(summary.Errors, fmt.Sprintf("timesheet %d: %v", ts.ID, err))
			continue
		}
		summary.EntriesDeleted += deleted
		summary.EntriesLinked += linked
	}

	summary.Status = domain.RunStatusFor(summary.Errors, false)
	e.record(ctx, domain.SyncLogEntryCleanup, summary.RunID, summary.Status, started, summary.Errors,
		summary.TimesheetsScanned, 0, summary.EntriesLinked, 0, summary)
	return summary, nil
}

func (e *Engine) cleanupTimesheet(ctx context.Context, repo sqlite.Repository, ts *domain.Timesheet) (int, int, error) {
	entries, err := repo.ListEntriesByTimesheet(ctx, ts.ID)
	if err != nil {
		return 0, 0, err
	}

	var sourced, local []*domain.TimesheetEntry
	for _, entry := range entries {
		if entry.TSSource {
			sourced = append(sourced, entry)
		} else {
			local = append(local, entry)
		}
	}
	if len(sourced) == 0 || len(local) == 0 {
		return 0, 0, nil
	}
	sort.Slice(local, func(i, j int) bool { return local[i].ID < local[j].ID })

	consumed := make(map[int64]bool)
	deleted, linked := 0, 0
	for _, keep := range local {
		var dups []*domain.TimesheetEntry
		for _, candidate := range sourced {
			if consumed[candidate.ID] {
				continue
			}
			// A local entry already linked to one external row is not a
			// duplicate of a different row.
			if keep.HasExternalID() && !sameExternalID(keep, candidate) {
				continue
			}
			if calendar.SameDay(candidate.Date, keep.Date) && domain.WithinTolerance(candidate.Hours, keep.Hours, e.tolerance) {
				dups = append(dups, candidate)
			}
		}
		if len(dups) == 0 {
			continue
		}

		latest := mostRecentlySynced(dups)
		for _, dup := range dups {
			consumed[dup.ID] = true
			if err := repo.DeleteEntry(ctx, dup.ID); err != nil {
				return 0, 0, err
			}
			deleted++
		}

		keep.Verified = true
		keep.ExternalEntryID = latest.ExternalEntryID
		keep.ExternalSyncedAt = latest.ExternalSyncedAt
		if err := repo.UpdateEntry(ctx, keep); err != nil {
			return 0, 0, err
		}
		linked++
	}

	if linked > 0 {
		remaining, err := repo.ListEntriesByTimesheet(ctx, ts.ID)
		if err != nil {
			return 0, 0, err
		}
		if verified := allVerified(remaining); verified != ts.Verified {
			ts.Verified = verified
			if err := repo.UpdateTimesheet(ctx, ts); err != nil {
				return 0, 0, err
			}
		}
	}
	return deleted, linked, nil
}

func sameExternalID(a, b *domain.TimesheetEntry) bool {
	return a.ExternalEntryID != nil && b.ExternalEntryID != nil && *a.ExternalEntryID == *b.ExternalEntryID
}

func mostRecentlySynced(entries []*domain.TimesheetEntry) *domain.TimesheetEntry {
	best := entries[0]
	for _, entry := range entries[1:] {
		if syncedAt(entry).After(syncedAt(best)) || (syncedAt(entry).Equal(syncedAt(best)) && entry.ID > best.ID) {
			best = entry
		}
	}
	return best
}

func syncedAt(entry *domain.TimesheetEntry) time.Time {
	if entry.ExternalSyncedAt == nil {
		return time.Time{}
	}
	return *entry.ExternalSyncedAt
}

// MergeDuplicateTimesheets collapses timesheets of one employee that resolve
// to the same week. The timesheet with the most entries is kept, the oldest on
// a tie; the others' entries are moved onto it and the emptied timesheets are
// deleted. The kept timesheet takes the most advanced status of the group.
func (e *Engine) MergeDuplicateTimesheets(ctx context.Context) (*MergeSummary, error) {
	started := e.now()
	summary := &MergeSummary{RunID: uuid.NewString(), Errors: []string{}}

	employees, err := e.repo.ListEmployees(ctx)
	if err != nil {
		summary.Errors = append(summary.Errors, fmt.Sprintf("list employees: %v", err))
		summary.Status = domain.RunStatusFor(summary.Errors, true)
		e.record(ctx, domain.SyncLogTimesheetMerge, summary.RunID, summary.Status, started, summary.Errors, 0, 0, 0, 0, summary)
		return summary, nil
	}

	for _, employee := range employees {
		summary.EmployeesScanned++
		timesheets, err := e.repo.ListTimesheetsByEmployee(ctx, employee.ID)
		if err != nil {
			summary.Errors = append(summary.Errors, fmt.Sprintf("employee %d: %v", employee.ID, err))
			continue
		}

		for _, group := range groupByWeek(timesheets) {
			if len(group) < 2 {
				continue
			}
			summary.DuplicateWeeks++
			var moved int64
			var removed int
			err := e.repo.InTx(ctx, func(repo sqlite.Repository) error {
				var err error
				moved, removed, err = mergeGroup(ctx, repo, group)
				return err
			})
			if err != nil {
				summary.Errors = append(summary.Errors, fmt.Sprintf("employee %d week of %s: %v",
					employee.ID, calendar.FormatDate(calendar.WeekStart(group[0].WeekStarting)), err))
				continue
			}
			summary.EntriesMoved += moved
			summary.TimesheetsRemoved += removed
		}
	}

	summary.Status = domain.RunStatusFor(summary.Errors, false)
	e.record(ctx, domain.SyncLogTimesheetMerge, summary.RunID, summary.Status, started, summary.Errors,
		summary.DuplicateWeeks, 0, int(summary.EntriesMoved), 0, summary)
	return summary, nil
}

// groupByWeek buckets timesheets by the Monday of their stored start, in
// ascending week order.
func groupByWeek(timesheets []*domain.Timesheet) [][]*domain.Timesheet {
	byWeek := make(map[time.Time][]*domain.Timesheet)
	for _, ts := range timesheets {
		week := calendar.WeekStart(ts.WeekStarting)
		byWeek[week] = append(byWeek[week], ts)
	}

	weeks := make([]time.Time, 0, len(byWeek))
	for week := range byWeek {
		weeks = append(weeks, week)
	}
	sort.Slice(weeks, func(i, j int) bool { return weeks[i].Before(weeks[j]) })

	groups := make([][]*domain.Timesheet, 0, len(weeks))
	for _, week := range weeks {
		group := byWeek[week]
		sort.Slice(group, func(i, j int) bool { return group[i].ID < group[j].ID })
		groups = append(groups, group)
	}
	return groups
}

func mergeGroup(ctx context.Context, repo sqlite.Repository, group []*domain.Timesheet) (int64, int, error) {
	keeper := group[0]
	keeperCount := -1
	statuses := make([]domain.Status, 0, len(group))
	for _, ts := range group {
		count, err := repo.CountEntries(ctx, ts.ID)
		if err != nil {
			return 0, 0, err
		}
		if count > keeperCount {
			keeper, keeperCount = ts, count
		}
		statuses = append(statuses, ts.Status)
	}

	var moved int64
	removed := 0
	for _, ts := range group {
		if ts.ID == keeper.ID {
			continue
		}
		n, err := repo.ReparentEntries(ctx, ts.ID, keeper.ID)
		if err != nil {
			return 0, 0, err
		}
		moved += n
		if err := repo.DeleteTimesheet(ctx, ts.ID); err != nil {
			return 0, 0, err
		}
		removed++
	}

	entries, err := repo.ListEntriesByTimesheet(ctx, keeper.ID)
	if err != nil {
		return 0, 0, err
	}
	if highest := domain.Highest(statuses...); highest != keeper.Status {
		keeper.Status = highest
		if _, err := repo.UpdateEntryStatusesForTimesheet(ctx, keeper.ID, highest); err != nil {
			return 0, 0, err
		}
	}
	keeper.Verified = allVerified(entries)
	if err := repo.UpdateTimesheet(ctx, keeper); err != nil {
		return 0, 0, err
	}
	return moved, removed, nil
}
