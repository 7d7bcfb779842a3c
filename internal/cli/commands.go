package cli

import (
	"context"
	"strconv"
	"strings"
	"text/tabwriter"

	"timesheet-admin/internal/api"
	"timesheet-admin/internal/calendar"
	"timesheet-admin/internal/domain"
	"timesheet-admin/internal/errors"
	"timesheet-admin/internal/validation"
)

// Command represents a CLI command
type Command interface {
	Execute(ctx context.Context, args []string) error
}

// SyncRunCommand triggers one reconciliation run
type SyncRunCommand struct {
	app *App
	eh  *ErrorHandler
}

// NewSyncRunCommand creates a new sync run command handler
func NewSyncRunCommand(app *App) *SyncRunCommand {
	return &SyncRunCommand{app: app, eh: NewErrorHandler()}
}

// Execute runs the sync run command
func (c *SyncRunCommand) Execute(ctx context.Context, args []string) error {
	summary, err := c.app.api.RunSync(ctx)
	if err != nil {
		return c.eh.Handle("run sync", err)
	}
	if summary.Skipped {
		c.app.printf("Sync skipped: a run is already in progress\n")
		return nil
	}

	c.app.printf("Sync %s (%s)\n", summary.Status, summary.RunID)
	c.app.printf("  workers processed:    %d\n", summary.WorkersProcessed)
	c.app.printf("  rows processed:       %d\n", summary.RowsProcessed)
	c.app.printf("  timesheets created:   %d\n", summary.TimesheetsCreated)
	c.app.printf("  timesheets updated:   %d\n", summary.TimesheetsUpdated)
	c.app.printf("  entries created:      %d\n", summary.EntriesCreated)
	c.app.printf("  entries updated:      %d\n", summary.EntriesUpdated)
	c.app.printf("  weekend rows skipped: %d\n", summary.WeekendRowsSkipped)
	c.app.printf("  finalized rows:       %d\n", summary.FinalizedRows)
	c.app.printf("  out-of-period rows:   %d\n", summary.OutOfPeriodRows)
	printErrors(c.app, summary.Errors)
	return nil
}

// CleanupEntriesCommand runs the duplicate-entry cleanup pass
type CleanupEntriesCommand struct {
	app *App
	eh  *ErrorHandler
}

// NewCleanupEntriesCommand creates a new cleanup command handler
func NewCleanupEntriesCommand(app *App) *CleanupEntriesCommand {
	return &CleanupEntriesCommand{app: app, eh: NewErrorHandler()}
}

// Execute runs the cleanup command
func (c *CleanupEntriesCommand) Execute(ctx context.Context, args []string) error {
	summary, err := c.app.api.CleanupDuplicateEntries(ctx)
	if err != nil {
		return c.eh.Handle("clean up duplicate entries", err)
	}
	c.app.printf("Cleanup %s (%s)\n", summary.Status, summary.RunID)
	c.app.printf("  timesheets scanned: %d\n", summary.TimesheetsScanned)
	c.app.printf("  entries deleted:    %d\n", summary.EntriesDeleted)
	c.app.printf("  entries linked:     %d\n", summary.EntriesLinked)
	printErrors(c.app, summary.Errors)
	return nil
}

// MergeTimesheetsCommand runs the duplicate-timesheet merge pass
type MergeTimesheetsCommand struct {
	app *App
	eh  *ErrorHandler
}

// NewMergeTimesheetsCommand creates a new merge command handler
func NewMergeTimesheetsCommand(app *App) *MergeTimesheetsCommand {
	return &MergeTimesheetsCommand{app: app, eh: NewErrorHandler()}
}

// Execute runs the merge command
func (c *MergeTimesheetsCommand) Execute(ctx context.Context, args []string) error {
	summary, err := c.app.api.MergeDuplicateTimesheets(ctx)
	if err != nil {
		return c.eh.Handle("merge duplicate timesheets", err)
	}
	c.app.printf("Merge %s (%s)\n", summary.Status, summary.RunID)
	c.app.printf("  employees scanned:  %d\n", summary.EmployeesScanned)
	c.app.printf("  duplicate weeks:    %d\n", summary.DuplicateWeeks)
	c.app.printf("  timesheets removed: %d\n", summary.TimesheetsRemoved)
	c.app.printf("  entries moved:      %d\n", summary.EntriesMoved)
	printErrors(c.app, summary.Errors)
	return nil
}

// SyncLogsCommand lists sync logs, newest first
type SyncLogsCommand struct {
	app    *App
	eh     *ErrorHandler
	filter domain.SyncLogFilter
}

// NewSyncLogsCommand creates a new sync logs command handler
func NewSyncLogsCommand(app *App, filter domain.SyncLogFilter) *SyncLogsCommand {
	return &SyncLogsCommand{app: app, eh: NewErrorHandler(), filter: filter}
}

// Execute runs the sync logs command
func (c *SyncLogsCommand) Execute(ctx context.Context, args []string) error {
	page, err := c.app.api.ListSyncLogs(ctx, c.filter)
	if err != nil {
		return c.eh.Handle("list sync logs", err)
	}
	if len(page.Logs) == 0 {
		c.app.printf("No sync logs found\n")
		return nil
	}

	w := tabwriter.NewWriter(c.app.out, 0, 0, 2, ' ', 0)
	_, _ = w.Write([]byte("STARTED\tTYPE\tSTATUS\tPROCESSED\tCREATED\tUPDATED\tSKIPPED\tERRORS\n"))
	for _, l := range page.Logs {
		row := []string{
			l.StartedAt.UTC().Format("2006-01-02 15:04:05"),
			string(l.Type),
			string(l.Status),
			strconv.Itoa(l.Processed),
			strconv.Itoa(l.Created),
			strconv.Itoa(l.Updated),
			strconv.Itoa(l.Skipped),
			strconv.Itoa(len(l.Errors)),
		}
		_, _ = w.Write([]byte(strings.Join(row, "\t") + "\n"))
	}
	if err := w.Flush(); err != nil {
		return err
	}
	c.app.printf("Page %d, %d of %d logs\n", page.Page, len(page.Logs), page.Total)
	return nil
}

// RepairStatusCommand forces every entry's status to its timesheet's status
type RepairStatusCommand struct {
	app *App
	eh  *ErrorHandler
}

// NewRepairStatusCommand creates a new repair command handler
func NewRepairStatusCommand(app *App) *RepairStatusCommand {
	return &RepairStatusCommand{app: app, eh: NewErrorHandler()}
}

// Execute runs the repair command
func (c *RepairStatusCommand) Execute(ctx context.Context, args []string) error {
	result, err := c.app.api.RepairEntryStatuses(ctx)
	if err != nil {
		return c.eh.Handle("repair entry statuses", err)
	}
	c.app.printf("Repaired %d entries across %d of %d timesheets (%s)\n",
		result.EntriesUpdated, result.TimesheetsTouched, result.TimesheetsScanned, result.RunID)
	return nil
}

// OverrideStatusCommand sets a timesheet's status as a privileged action.
// Args: <timesheet id> <status>
type OverrideStatusCommand struct {
	app   *App
	eh    *ErrorHandler
	actor string
}

// NewOverrideStatusCommand creates a new override command handler
func NewOverrideStatusCommand(app *App, actor string) *OverrideStatusCommand {
	return &OverrideStatusCommand{app: app, eh: NewErrorHandler(), actor: actor}
}

// Execute runs the override command
func (c *OverrideStatusCommand) Execute(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return c.eh.HandleSimple(errors.NewInvalidInputError("args", args, "expected <timesheet id> <status>"))
	}
	id, err := parseID("timesheet id", args[0])
	if err != nil {
		return c.eh.HandleSimple(err)
	}

	ts, err := c.app.api.OverrideStatus(ctx, validation.StatusOverrideRequest{
		TimesheetID: id,
		Status:      strings.ToUpper(args[1]),
		Actor:       c.actor,
	})
	if err != nil {
		return c.eh.Handle("override status", err)
	}
	c.app.printf("Timesheet %d is now %s\n", ts.ID, ts.Status)
	return nil
}

// CreateTimesheetCommand creates an empty OPEN timesheet.
// Args: <employee id> <any date in the week>
type CreateTimesheetCommand struct {
	app *App
	eh  *ErrorHandler
}

// NewCreateTimesheetCommand creates a new timesheet creation handler
func NewCreateTimesheetCommand(app *App) *CreateTimesheetCommand {
	return &CreateTimesheetCommand{app: app, eh: NewErrorHandler()}
}

// Execute runs the create command
func (c *CreateTimesheetCommand) Execute(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return c.eh.HandleSimple(errors.NewInvalidInputError("args", args, "expected <employee id> <week of>"))
	}
	employeeID, err := parseID("employee id", args[0])
	if err != nil {
		return c.eh.HandleSimple(err)
	}
	weekOf, err := calendar.ParseDate(args[1])
	if err != nil {
		return c.eh.HandleSimple(errors.NewInvalidInputError("week of", args[1], "must be a YYYY-MM-DD date"))
	}

	ts, err := c.app.api.CreateTimesheet(ctx, employeeID, weekOf)
	if err != nil {
		return c.eh.Handle("create timesheet", err)
	}
	c.app.printf("Created timesheet %d for the week of %s\n", ts.ID, calendar.FormatDate(ts.WeekStarting))
	return nil
}

// TransitionCommand applies one lifecycle action to a timesheet.
// Args: <timesheet id>
type TransitionCommand struct {
	app      *App
	eh       *ErrorHandler
	action   domain.Action
	approver string
}

// NewTransitionCommand creates a new transition handler. approver is only
// read for approvals.
func NewTransitionCommand(app *App, action domain.Action, approver string) *TransitionCommand {
	return &TransitionCommand{app: app, eh: NewErrorHandler(), action: action, approver: approver}
}

// Execute runs the transition command
func (c *TransitionCommand) Execute(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return c.eh.HandleSimple(errors.NewInvalidInputError("args", args, "expected <timesheet id>"))
	}
	id, err := parseID("timesheet id", args[0])
	if err != nil {
		return c.eh.HandleSimple(err)
	}

	var ts *domain.Timesheet
	switch c.action {
	case domain.ActionSubmit:
		ts, err = c.app.api.SubmitTimesheet(ctx, id)
	case domain.ActionApprove:
		ts, err = c.app.api.ApproveTimesheet(ctx, id, c.approver)
	case domain.ActionLock:
		ts, err = c.app.api.LockTimesheet(ctx, id)
	case domain.ActionUnlock:
		ts, err = c.app.api.UnlockTimesheet(ctx, id)
	case domain.ActionProcess:
		ts, err = c.app.api.ProcessTimesheet(ctx, id)
	default:
		return c.eh.HandleSimple(errors.NewInvalidInputError("action", c.action, "unknown action"))
	}
	if err != nil {
		return c.eh.Handle(string(c.action)+" timesheet", err)
	}
	c.app.printf("Timesheet %d is now %s\n", ts.ID, ts.Status)
	return nil
}

// AddEntryCommand adds a locally authored entry to a timesheet.
// Args: <timesheet id>
type AddEntryCommand struct {
	app *App
	eh  *ErrorHandler
	req api.EntryRequest
}

// NewAddEntryCommand creates a new add entry handler
func NewAddEntryCommand(app *App, req api.EntryRequest) *AddEntryCommand {
	return &AddEntryCommand{app: app, eh: NewErrorHandler(), req: req}
}

// Execute runs the add entry command
func (c *AddEntryCommand) Execute(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return c.eh.HandleSimple(errors.NewInvalidInputError("args", args, "expected <timesheet id>"))
	}
	id, err := parseID("timesheet id", args[0])
	if err != nil {
		return c.eh.HandleSimple(err)
	}
	req := c.req
	req.TimesheetID = id

	entry, err := c.app.api.CreateEntry(ctx, req)
	if err != nil {
		return c.eh.Handle("add entry", err)
	}
	c.app.printf("Created entry %d: %s\n", entry.ID, describeEntry(entry))
	return nil
}

// UpdateEntryCommand changes the fields given on the command line.
// Args: <entry id>
type UpdateEntryCommand struct {
	app *App
	eh  *ErrorHandler
	req api.EntryRequest
}

// NewUpdateEntryCommand creates a new update entry handler
func NewUpdateEntryCommand(app *App, req api.EntryRequest) *UpdateEntryCommand {
	return &UpdateEntryCommand{app: app, eh: NewErrorHandler(), req: req}
}

// Execute runs the update entry command
func (c *UpdateEntryCommand) Execute(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return c.eh.HandleSimple(errors.NewInvalidInputError("args", args, "expected <entry id>"))
	}
	id, err := parseID("entry id", args[0])
	if err != nil {
		return c.eh.HandleSimple(err)
	}

	entry, err := c.app.api.UpdateEntry(ctx, id, c.req)
	if err != nil {
		return c.eh.Handle("update entry", err)
	}
	c.app.printf("Updated entry %d: %s\n", entry.ID, describeEntry(entry))
	return nil
}

// DeleteEntryCommand removes an entry.
// Args: <entry id>
type DeleteEntryCommand struct {
	app *App
	eh  *ErrorHandler
}

// NewDeleteEntryCommand creates a new delete entry handler
func NewDeleteEntryCommand(app *App) *DeleteEntryCommand {
	return &DeleteEntryCommand{app: app, eh: NewErrorHandler()}
}

// Execute runs the delete entry command
func (c *DeleteEntryCommand) Execute(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return c.eh.HandleSimple(errors.NewInvalidInputError("args", args, "expected <entry id>"))
	}
	id, err := parseID("entry id", args[0])
	if err != nil {
		return c.eh.HandleSimple(err)
	}
	if err := c.app.api.DeleteEntry(ctx, id); err != nil {
		return c.eh.Handle("delete entry", err)
	}
	c.app.printf("Deleted entry %d\n", id)
	return nil
}

func parseID(field, raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 1 {
		return 0, errors.NewInvalidInputError(field, raw, "must be a positive integer")
	}
	return id, nil
}

func describeEntry(e *domain.TimesheetEntry) string {
	desc := calendar.FormatDate(e.Date) + " " + e.Hours.String() + "h " + string(e.EntryType)
	if e.HasTimes() {
		desc += " " + e.StartTime.String() + "-" + e.EndTime.String()
	}
	return desc + " (" + string(e.Status) + ")"
}

func printErrors(app *App, errs []string) {
	if len(errs) == 0 {
		return
	}
	app.printf("Errors:\n")
	for _, e := range errs {
		app.printf("  - %s\n", e)
	}
}
