package external

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"timesheet-admin/internal/calendar"
	"timesheet-admin/internal/domain"
)

func TestMapStatus(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected domain.Status
	}{
		{name: "should map open", input: "open", expected: domain.StatusOpen},
		{name: "should map draft to open", input: "draft", expected: domain.StatusOpen},
		{name: "should map incomplete", input: "incomplete", expected: domain.StatusIncomplete},
		{name: "should map submitted", input: "submitted", expected: domain.StatusSubmitted},
		{name: "should map pending to submitted", input: "pending", expected: domain.StatusSubmitted},
		{name: "should map awaiting_approval to submitted", input: "awaiting_approval", expected: domain.StatusSubmitted},
		{name: "should map approved", input: "approved", expected: domain.StatusApproved},
		{name: "should map locked", input: "locked", expected: domain.StatusLocked},
		{name: "should map processed", input: "processed", expected: domain.StatusProcessed},
		{name: "should map finalized to processed", input: "finalized", expected: domain.StatusProcessed},
		{name: "should ignore case and whitespace", input: "  Approved ", expected: domain.StatusApproved},
		{name: "should map unknown values to open", input: "archived", expected: domain.StatusOpen},
		{name: "should map empty to open", input: "", expected: domain.StatusOpen},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, MapStatus(tt.input))
		})
	}
}

func TestRowAndPeriodDates(t *testing.T) {
	row := Row{ID: "r1", Date: "2024-01-09", Status: "locked"}
	day, err := row.Day()
	assert.NoError(t, err)
	assert.Equal(t, calendar.NewDate(2024, 1, 9), day)
	assert.Equal(t, domain.StatusLocked, row.LocalStatus())

	_, err = Row{Date: "09/01/2024"}.Day()
	assert.Error(t, err)

	p := Period{ID: "p1", StartDate: "2024-01-01", EndDate: "2024-01-31"}
	assert.Equal(t, calendar.NewDate(2024, 1, 1), p.Start())
	assert.Equal(t, calendar.NewDate(2024, 1, 31), p.End())
}

func TestPeriod_Contains(t *testing.T) {
	p := Period{ID: "p1", StartDate: "2024-01-01", EndDate: "2024-01-31"}

	tests := []struct {
		name     string
		period   Period
		day      time.Time
		expected bool
	}{
		{name: "should include the first day", period: p, day: calendar.NewDate(2024, 1, 1), expected: true},
		{name: "should include the last day", period: p, day: calendar.NewDate(2024, 1, 31), expected: true},
		{name: "should exclude the day before", period: p, day: calendar.NewDate(2023, 12, 31)},
		{name: "should exclude the day after", period: p, day: calendar.NewDate(2024, 2, 1)},
		{name: "should leave an unparsable bound open", period: Period{ID: "p2", StartDate: "2024-01-01", EndDate: "soon"}, day: calendar.NewDate(2024, 6, 1), expected: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.period.Contains(tt.day))
		})
	}
}
