package external

import (
	"context"

	"github.com/sirupsen/logrus"

	"timesheet-admin/internal/calendar"
	"timesheet-admin/internal/domain"
)

// NotificationKind names the event a notification reports.
type NotificationKind string

const (
	NotifySubmitted NotificationKind = "TIMESHEET_SUBMITTED"
	NotifyApproved  NotificationKind = "TIMESHEET_APPROVED"
)

// Notifier delivers timesheet notifications. Callers swallow and log failures.
type Notifier interface {
	Notify(ctx context.Context, kind NotificationKind, recipient string, snapshot domain.Timesheet) error
}

// PayrollSync pushes an approved timesheet to payroll.
type PayrollSync interface {
	SyncApproved(ctx context.Context, snapshot domain.Timesheet) error
}

// LogNotifier records notifications in the log instead of delivering them.
type LogNotifier struct {
	Logger logrus.FieldLogger
}

// Notify implements Notifier.
func (n LogNotifier) Notify(_ context.Context, kind NotificationKind, recipient string, snapshot domain.Timesheet) error {
	n.Logger.WithFields(logrus.Fields{
		"kind":         kind,
		"recipient":    recipient,
		"timesheetId":  snapshot.ID,
		"weekStarting": calendar.FormatDate(snapshot.WeekStarting),
	}).Info("timesheet notification")
	return nil
}

// LogPayrollSync records payroll requests in the log.
type LogPayrollSync struct {
	Logger logrus.FieldLogger
}

// SyncApproved implements PayrollSync.
func (p LogPayrollSync) SyncApproved(_ context.Context, snapshot domain.Timesheet) error {
	p.Logger.WithFields(logrus.Fields{
		"timesheetId": snapshot.ID,
		"employeeId":  snapshot.EmployeeID,
		"approvedBy":  snapshot.ApprovedBy,
	}).Info("payroll sync requested")
	return nil
}
