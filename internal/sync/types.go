// Package sync reconciles the external attendance feed with local timesheets
// and repairs duplicate data left by earlier runs.
package sync

import "timesheet-admin/internal/domain"

// RunState is the engine's lifecycle over a single run.
type RunState string

const (
	StateIdle    RunState = "IDLE"
	StateRunning RunState = "RUNNING"
)

// Summary is the result of one reconciliation run.
type Summary struct {
	RunID              string               `json:"runId,omitempty"`
	Success            bool                 `json:"success"`
	Skipped            bool                 `json:"skipped,omitempty"`
	Status             domain.SyncRunStatus `json:"status,omitempty"`
	WorkersProcessed   int                  `json:"workersProcessed"`
	RowsProcessed      int                  `json:"rowsProcessed"`
	TimesheetsCreated  int                  `json:"timesheetsCreated"`
	TimesheetsUpdated  int                  `json:"timesheetsUpdated"`
	EntriesCreated     int                  `json:"entriesCreated"`
	EntriesUpdated     int                  `json:"entriesUpdated"`
	WeekendRowsSkipped int                  `json:"weekendRowsSkipped"`
	FinalizedRows      int                  `json:"finalizedRowsSkipped"`
	OutOfPeriodRows    int                  `json:"outOfPeriodRowsSkipped"`
	Errors             []string             `json:"errors"`
}

// CleanupSummary is the result of a duplicate-entry cleanup pass.
type CleanupSummary struct {
	RunID             string               `json:"runId"`
	Status            domain.SyncRunStatus `json:"status"`
	TimesheetsScanned int                  `json:"timesheetsScanned"`
	EntriesDeleted    int                  `json:"entriesDeleted"`
	EntriesLinked     int                  `json:"entriesLinked"`
	Errors            []string             `json:"errors"`
}

// MergeSummary is the result of a duplicate-timesheet merge pass.
type MergeSummary struct {
	RunID             string               `json:"runId"`
	Status            domain.SyncRunStatus `json:"status"`
	EmployeesScanned  int                  `json:"employeesScanned"`
	DuplicateWeeks    int                  `json:"duplicateWeeks"`
	TimesheetsRemoved int                  `json:"timesheetsRemoved"`
	EntriesMoved      int64                `json:"entriesMoved"`
	Errors            []string             `json:"errors"`
}

// add folds a worker's counts into the run summary.
func (s *Summary) add(w workerResult) {
	s.WorkersProcessed++
	s.RowsProcessed += w.rows
	s.TimesheetsCreated += w.timesheetsCreated
	s.TimesheetsUpdated += w.timesheetsUpdated
	s.EntriesCreated += w.entriesCreated
	s.EntriesUpdated += w.entriesUpdated
	s.WeekendRowsSkipped += w.weekendRows
	s.FinalizedRows += w.finalizedRows
	s.OutOfPeriodRows += w.outOfPeriodRows
	s.Errors = append(s.Errors, w.errors...)
}

type workerResult struct {
	rows              int
	timesheetsCreated int
	timesheetsUpdated int
	entriesCreated    int
	entriesUpdated    int
	weekendRows       int
	finalizedRows     int
	outOfPeriodRows   int
	errors            []string
}
