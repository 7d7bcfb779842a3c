package external

import (
	"bytes"
	"context"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"

	"timesheet-admin/internal/calendar"
	"timesheet-admin/internal/domain"
)

func TestLogCollaborators(t *testing.T) {
	var buf bytes.Buffer
	logger := logrus.New()
	logger.SetOutput(&buf)
	logger.SetFormatter(&logrus.JSONFormatter{})

	ts := domain.Timesheet{ID: 9, EmployeeID: 2, WeekStarting: calendar.NewDate(2024, 1, 8), ApprovedBy: "mgr"}

	assert.NoError(t, LogNotifier{Logger: logger}.Notify(context.Background(), NotifyApproved, "a@example.com", ts))
	assert.NoError(t, LogPayrollSync{Logger: logger}.SyncApproved(context.Background(), ts))

	out := buf.String()
	assert.Contains(t, out, `"kind":"TIMESHEET_APPROVED"`)
	assert.Contains(t, out, `"weekStarting":"2024-01-08"`)
	assert.Contains(t, out, `"approvedBy":"mgr"`)
}
