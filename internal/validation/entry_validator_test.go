package validation

import (
	"fmt"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"timesheet-admin/internal/calendar"
	"timesheet-admin/internal/domain"
)

var (
	weekStart = calendar.NewDate(2024, 1, 8)
	weekEnd   = calendar.NewDate(2024, 1, 14)
	tuesday   = calendar.NewDate(2024, 1, 9)
	dailyCap  = decimal.NewFromInt(16)
)

func timed(id int64, date string, start, end string, company string) *domain.TimesheetEntry {
	d, _ := calendar.ParseDate(date)
	s, e := calendar.MustParseClock(start), calendar.MustParseClock(end)
	entry := &domain.TimesheetEntry{ID: id, TimesheetID: 1, Date: d, StartTime: &s, EndTime: &e, CompanyName: company}
	entry.Hours, _ = entry.DerivedHours()
	return entry
}

func untimed(id int64, date string, hours string) *domain.TimesheetEntry {
	d, _ := calendar.ParseDate(date)
	return &domain.TimesheetEntry{ID: id, TimesheetID: 1, Date: d, Hours: decimal.RequireFromString(hours)}
}

func breakMsg() string {
	return fmt.Sprintf(MsgBreakRequired, 30)
}

func containsPrefix(violations []string, prefix string) bool {
	for _, v := range violations {
		if strings.HasPrefix(v, prefix) {
			return true
		}
	}
	return false
}

func TestEntryValidator_MidnightCrossingStops(t *testing.T) {
	ev := NewEntryValidator()

	tests := []struct {
		name  string
		start string
		end   string
	}{
		{name: "should reject end before start", start: "22:00", end: "02:00"},
		{name: "should reject equal start and end", start: "10:00", end: "10:00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Out-of-week date would be a second violation if evaluation continued.
			candidate := timed(0, "2024-02-01", tt.start, tt.end, "")
			violations := ev.Validate(*candidate, nil, weekStart, weekEnd, dailyCap)
			assert.Equal(t, []string{MsgMidnightCrossing}, violations)
		})
	}
}

func TestEntryValidator_SingleEntryRules(t *testing.T) {
	ev := NewEntryValidator()

	tests := []struct {
		name      string
		candidate *domain.TimesheetEntry
		prefix    string
	}{
		{name: "should reject late starts", candidate: timed(0, "2024-01-09", "23:00", "23:30", ""), prefix: "Start time must be before 23:00"},
		{name: "should reject long entries", candidate: timed(0, "2024-01-09", "06:00", "18:30", ""), prefix: "Entry duration of 12.50 hours exceeds the maximum of 12 hours"},
		{name: "should reject long untimed entries", candidate: untimed(0, "2024-01-09", "13"), prefix: "Entry duration of 13.00 hours"},
		{name: "should reject dates before the week", candidate: untimed(0, "2024-01-07", "2"), prefix: "Entry date 2024-01-07 is outside the timesheet week 2024-01-08 to 2024-01-14"},
		{name: "should reject dates after the week", candidate: untimed(0, "2024-01-15", "2"), prefix: "Entry date 2024-01-15 is outside"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			violations := ev.Validate(*tt.candidate, nil, weekStart, weekEnd, dailyCap)
			assert.True(t, containsPrefix(violations, tt.prefix), "violations %v should contain %q", violations, tt.prefix)
		})
	}

	assert.Empty(t, ev.Validate(*timed(0, "2024-01-14", "22:59", "23:30", ""), nil, weekStart, weekEnd, dailyCap), "last day of the week is inclusive")
	assert.Empty(t, ev.Validate(*timed(0, "2024-01-08", "06:00", "18:00", ""), nil, weekStart, weekEnd, dailyCap), "exactly 12 hours is allowed")
}

func TestEntryValidator_Overlap(t *testing.T) {
	ev := NewEntryValidator()
	existing := timed(1, "2024-01-09", "09:00", "13:00", "Acme")

	tests := []struct {
		name     string
		start    string
		end      string
		overlaps bool
	}{
		{name: "should flag partial overlap", start: "12:00", end: "15:00", overlaps: true},
		{name: "should flag containment", start: "10:00", end: "11:00", overlaps: true},
		{name: "should flag enclosing range", start: "08:00", end: "14:00", overlaps: true},
		{name: "should allow touching ranges", start: "13:00", end: "14:00", overlaps: false},
		{name: "should allow disjoint ranges", start: "14:00", end: "15:00", overlaps: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			candidate := timed(0, "2024-01-09", tt.start, tt.end, "")
			violations := ev.Validate(*candidate, []*domain.TimesheetEntry{existing}, weekStart, weekEnd, dailyCap)
			assert.Equal(t, tt.overlaps, containsPrefix(violations, "Entry overlaps with an existing entry from 09:00 to 13:00 for Acme"), "violations: %v", violations)
		})
	}
}

func TestEntryValidator_IgnoresSelfAndOtherDays(t *testing.T) {
	ev := NewEntryValidator()
	self := timed(7, "2024-01-09", "09:00", "13:00", "Acme")
	otherDay := timed(8, "2024-01-10", "09:00", "13:00", "Acme")

	updated := timed(7, "2024-01-09", "09:30", "13:30", "Acme")
	violations := ev.Validate(*updated, []*domain.TimesheetEntry{self, otherDay}, weekStart, weekEnd, dailyCap)
	assert.Empty(t, violations)
}

func TestEntryValidator_BreakRule(t *testing.T) {
	ev := NewEntryValidator()
	morning := timed(1, "2024-01-09", "09:00", "12:00", "Acme")

	tests := []struct {
		name      string
		siblings  []*domain.TimesheetEntry
		candidate *domain.TimesheetEntry
		wantBreak bool
	}{
		{name: "should require a break for back-to-back entries", siblings: []*domain.TimesheetEntry{morning}, candidate: timed(0, "2024-01-09", "12:00", "14:00", ""), wantBreak: true},
		{name: "should require a break for a short gap", siblings: []*domain.TimesheetEntry{morning}, candidate: timed(0, "2024-01-09", "12:29", "14:00", ""), wantBreak: true},
		{name: "should accept an exact 30 minute gap", siblings: []*domain.TimesheetEntry{morning}, candidate: timed(0, "2024-01-09", "12:30", "14:00", "")},
		{name: "should accept a gap before the first entry", siblings: []*domain.TimesheetEntry{morning}, candidate: timed(0, "2024-01-09", "07:00", "08:30", "")},
		{
			name:      "should accept when any adjacent gap is long enough",
			siblings:  []*domain.TimesheetEntry{morning, timed(2, "2024-01-09", "12:00", "13:00", "")},
			candidate: timed(0, "2024-01-09", "14:00", "15:00", ""),
		},
		{name: "should not apply to a single entry", candidate: timed(0, "2024-01-09", "09:00", "12:00", "")},
		{name: "should ignore untimed siblings", siblings: []*domain.TimesheetEntry{untimed(3, "2024-01-09", "2")}, candidate: timed(0, "2024-01-09", "09:00", "12:00", "")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			violations := ev.Validate(*tt.candidate, tt.siblings, weekStart, weekEnd, dailyCap)
			assert.Equal(t, tt.wantBreak, containsPrefix(violations, breakMsg()), "violations: %v", violations)
		})
	}
}

func TestEntryValidator_DailyCap(t *testing.T) {
	ev := NewEntryValidator()
	siblings := []*domain.TimesheetEntry{untimed(1, "2024-01-09", "6"), untimed(2, "2024-01-09", "1.5")}

	violations := ev.Validate(*untimed(0, "2024-01-09", "1"), siblings, weekStart, weekEnd, decimal.NewFromInt(8))
	assert.True(t, containsPrefix(violations, "Daily total of 8.50 hours would exceed the maximum of 8 hours"), "violations: %v", violations)

	violations = ev.Validate(*untimed(0, "2024-01-09", "0.5"), siblings, weekStart, weekEnd, decimal.NewFromInt(8))
	assert.Empty(t, violations, "reaching the cap exactly is allowed")
}

func TestEntryValidator_AccumulatesIndependentViolations(t *testing.T) {
	ev := NewEntryValidator()
	existing := timed(1, "2024-01-15", "09:00", "13:00", "Acme")

	candidate := timed(0, "2024-01-15", "12:00", "23:30", "")
	violations := ev.Validate(*candidate, []*domain.TimesheetEntry{existing}, weekStart, weekEnd, decimal.NewFromInt(8))

	assert.True(t, containsPrefix(violations, "Entry date 2024-01-15 is outside"))
	assert.True(t, containsPrefix(violations, "Entry overlaps"))
	assert.True(t, containsPrefix(violations, breakMsg()))
	assert.True(t, containsPrefix(violations, "Daily total of 15.50 hours"))
}

func TestEntryValidator_Check(t *testing.T) {
	ev := NewEntryValidator()

	assert.NoError(t, ev.Check(*untimed(0, "2024-01-09", "4"), nil, weekStart, weekEnd, dailyCap))

	err := ev.Check(*timed(0, "2024-01-09", "18:00", "17:00", ""), nil, weekStart, weekEnd, dailyCap)
	require.Error(t, err)
	assert.True(t, IsViolationError(err))
	assert.Equal(t, MsgMidnightCrossing, err.Error())
}

func TestEntryValidator_ValidateFields(t *testing.T) {
	ev := NewEntryValidator()
	nine := calendar.NewClock(9, 0)

	tests := []struct {
		name   string
		entry  domain.TimesheetEntry
		fields []string
	}{
		{name: "should accept a complete entry", entry: *untimed(0, "2024-01-09", "2")},
		{name: "should require timesheet and date", entry: domain.TimesheetEntry{}, fields: []string{"timesheet_id", "date"}},
		{name: "should require both times", entry: domain.TimesheetEntry{TimesheetID: 1, Date: tuesday, StartTime: &nine}, fields: []string{"end_time"}},
		{name: "should reject negative hours", entry: domain.TimesheetEntry{TimesheetID: 1, Date: tuesday, Hours: decimal.NewFromInt(-2)}, fields: []string{"hours"}},
		{name: "should reject unknown entry types", entry: domain.TimesheetEntry{TimesheetID: 1, Date: tuesday, EntryType: "HOLIDAY"}, fields: []string{"entry_type"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ev.ValidateFields(tt.entry)
			if len(tt.fields) == 0 {
				assert.NoError(t, err)
				return
			}
			var ve *ValidationError
			require.ErrorAs(t, err, &ve)
			for _, f := range tt.fields {
				assert.NotEmpty(t, ve.GetFieldErrors(f), "expected error for %s", f)
			}
		})
	}
}

// Employee capped at 8 hours with a 09:00-13:00 entry adds an afternoon entry.
func TestEntryValidator_AfternoonScenario(t *testing.T) {
	ev := NewEntryValidator()
	cap8 := decimal.NewFromInt(8)
	morning := timed(1, "2024-01-09", "09:00", "13:00", "Acme")
	siblings := []*domain.TimesheetEntry{morning}

	violations := ev.Validate(*timed(0, "2024-01-09", "13:15", "18:00", ""), siblings, weekStart, weekEnd, cap8)
	assert.Contains(t, violations, breakMsg())

	violations = ev.Validate(*timed(0, "2024-01-09", "13:30", "18:00", ""), siblings, weekStart, weekEnd, cap8)
	assert.Equal(t, []string{"Daily total of 8.50 hours would exceed the maximum of 8 hours"}, violations)

	violations = ev.Validate(*timed(0, "2024-01-09", "13:30", "17:30", ""), siblings, weekStart, weekEnd, cap8)
	assert.Empty(t, violations)
}
