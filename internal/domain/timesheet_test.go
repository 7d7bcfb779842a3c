package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"timesheet-admin/internal/calendar"
)

func TestNewTimesheet(t *testing.T) {
	ts := NewTimesheet(7, calendar.NewDate(2024, 1, 11))

	assert.Equal(t, int64(7), ts.EmployeeID)
	assert.Equal(t, "2024-01-08", calendar.FormatDate(ts.WeekStarting))
	assert.Equal(t, "2024-01-14", calendar.FormatDate(ts.WeekEnding))
	assert.Equal(t, StatusOpen, ts.Status)
	assert.True(t, ts.IsValid())
}

func TestTimesheet_IsValid(t *testing.T) {
	ts := NewTimesheet(1, calendar.NewDate(2024, 1, 8))
	ts.WeekEnding = calendar.NewDate(2024, 1, 15)
	assert.False(t, ts.IsValid(), "week ending must be start plus six days")

	ts = NewTimesheet(1, calendar.NewDate(2024, 1, 8))
	ts.WeekStarting = calendar.NewDate(2024, 1, 9)
	ts.WeekEnding = calendar.NewDate(2024, 1, 15)
	assert.False(t, ts.IsValid(), "week must start on a monday")
}

func TestTimesheet_Contains(t *testing.T) {
	ts := NewTimesheet(1, calendar.NewDate(2024, 1, 8))
	assert.True(t, ts.Contains(calendar.NewDate(2024, 1, 8)))
	assert.True(t, ts.Contains(calendar.NewDate(2024, 1, 14)))
	assert.False(t, ts.Contains(calendar.NewDate(2024, 1, 15)))
}

func TestPickAssignment(t *testing.T) {
	assignments := []RoleAssignment{
		{ID: 1, CompanyName: "Inactive Co", Active: false},
		{ID: 2, CompanyName: "Acme", Active: true},
		{ID: 3, CompanyName: "Harbour Logistics", Active: true},
	}

	a, ok := PickAssignment(assignments, " harbour logistics ")
	assert.True(t, ok)
	assert.Equal(t, int64(3), a.ID)

	a, ok = PickAssignment(assignments, "Unknown Site")
	assert.True(t, ok)
	assert.Equal(t, int64(2), a.ID, "falls back to the first active assignment")

	a, ok = PickAssignment(assignments, "Inactive Co")
	assert.True(t, ok)
	assert.Equal(t, int64(2), a.ID, "inactive assignments never match")

	_, ok = PickAssignment(nil, "Acme")
	assert.False(t, ok)
}

func TestEmployee_Defaults(t *testing.T) {
	def := Schedule{
		MorningStart:   calendar.MustParseClock("09:00"),
		MorningEnd:     calendar.MustParseClock("13:00"),
		AfternoonStart: calendar.MustParseClock("13:30"),
		AfternoonEnd:   calendar.MustParseClock("17:30"),
	}
	limit := decimal.NewFromInt(8)
	e := Employee{MorningStart: clockPtr("07:30"), MaxDailyHours: &limit}

	s := e.ScheduleOr(def)
	assert.Equal(t, "07:30", s.MorningStart.String())
	assert.Equal(t, "17:30", s.AfternoonEnd.String())
	assert.True(t, e.DailyCap(decimal.NewFromInt(16)).Equal(decimal.NewFromInt(8)))
	assert.True(t, Employee{}.DailyCap(decimal.NewFromInt(16)).Equal(decimal.NewFromInt(16)))

	e.Identifiers = []ExternalIdentifier{{Type: IdentifierExternalWorkerID, Value: "W-1"}}
	v, ok := e.Identifier(IdentifierExternalWorkerID)
	assert.True(t, ok)
	assert.Equal(t, "W-1", v)
	_, ok = e.Identifier(IdentifierWorkEmail)
	assert.False(t, ok)
}

func TestSyncLogFilter_Normalize(t *testing.T) {
	f := SyncLogFilter{}.Normalize()
	assert.Equal(t, 1, f.Page)
	assert.Equal(t, DefaultPageSize, f.Limit)

	f = SyncLogFilter{Page: 3, Limit: 500}.Normalize()
	assert.Equal(t, MaxPageSize, f.Limit)
	assert.Equal(t, 200, SyncLogFilter{Page: 3, Limit: 500}.Offset())
}

func TestRunStatusFor(t *testing.T) {
	assert.Equal(t, SyncStatusSuccess, RunStatusFor(nil, false))
	assert.Equal(t, SyncStatusPartial, RunStatusFor([]string{"worker W-1: boom"}, false))
	assert.Equal(t, SyncStatusError, RunStatusFor(nil, true))
}
