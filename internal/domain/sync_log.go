package domain

import "time"

// SyncLogType names the kind of run a SyncLog records.
type SyncLogType string

const (
	SyncLogTimesheetSync  SyncLogType = "TIMESHEET_SYNC"
	SyncLogEntryCleanup   SyncLogType = "DUPLICATE_ENTRY_CLEANUP"
	SyncLogTimesheetMerge SyncLogType = "DUPLICATE_TIMESHEET_MERGE"
	SyncLogStatusRepair   SyncLogType = "STATUS_REPAIR"
)

// SyncRunStatus is the outcome of a run.
type SyncRunStatus string

const (
	SyncStatusSuccess SyncRunStatus = "SUCCESS"
	SyncStatusPartial SyncRunStatus = "PARTIAL"
	SyncStatusError   SyncRunStatus = "ERROR"
)

// SyncLog is an append-only record of one reconciliation or repair run.
type SyncLog struct {
	ID          int64
	RunID       string
	Type        SyncLogType
	Status      SyncRunStatus
	Processed   int
	Created     int
	Updated     int
	Skipped     int
	Details     string
	Errors      []string
	StartedAt   time.Time
	CompletedAt time.Time
}

// RunStatusFor derives a run status from its error list.
func RunStatusFor(errs []string, fatal bool) SyncRunStatus {
	switch {
	case fatal:
		return SyncStatusError
	case len(errs) > 0:
		return SyncStatusPartial
	default:
		return SyncStatusSuccess
	}
}
