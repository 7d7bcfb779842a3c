// Package calendar holds the local-date, week and clock arithmetic shared by the
// interactive entry path and the reconciliation engine.
//
// Calendar dates are represented as time.Time values at midnight UTC. The UTC
// location is only a carrier: the values mean "this calendar day" and never depend
// on the machine's local time zone.
package calendar

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout is the canonical storage and wire format for calendar dates.
const DateLayout = "2006-01-02"

var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04:05Z07:00",
}

// NewDate returns the calendar date for the given year, month and day.
func NewDate(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// DateOf returns the calendar date t falls on in its own location.
func DateOf(t time.Time) time.Time {
	return NewDate(t.Year(), t.Month(), t.Day())
}

// ParseDate parses a calendar date. Plain "YYYY-MM-DD" values are taken literally;
// timestamps resolve to the calendar day in their own offset.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}
	if d, err := time.Parse(DateLayout, s); err == nil {
		return d, nil
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return DateOf(t), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", s)
}

// SnapToDay rounds a stored value that is meant to be a midnight to the nearest
// calendar day. It absorbs values written as e.g. 23:00Z for a midnight in UTC+1.
func SnapToDay(t time.Time) time.Time {
	u := t.UTC()
	if u.Hour() >= 12 {
		u = u.Add(24 * time.Hour)
	}
	return DateOf(u)
}

// ParseStoredDate parses a stored date column, snapping timestamp values to the nearest day.
func ParseStoredDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if d, err := time.Parse(DateLayout, s); err == nil {
		return d, nil
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return SnapToDay(t), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid stored date %q", s)
}

// FormatDate formats a calendar date as YYYY-MM-DD.
func FormatDate(d time.Time) string {
	return d.Format(DateLayout)
}

// SameDay reports whether a and b are the same calendar date.
func SameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// AddDays shifts a calendar date by n days.
func AddDays(d time.Time, n int) time.Time {
	return DateOf(d).AddDate(0, 0, n)
}

// WeekStart returns the Monday of the week containing d.
func WeekStart(d time.Time) time.Time {
	return WeekStartOn(d, time.Monday)
}

// WeekStartOn returns the start of the week containing d for weeks that begin on
// the given weekday. Used for externally defined reporting weeks.
func WeekStartOn(d time.Time, first time.Weekday) time.Time {
	d = DateOf(d)
	offset := (int(d.Weekday()) - int(first) + 7) % 7
	return d.AddDate(0, 0, -offset)
}

// WeekEnd returns the last day (Sunday) of the Monday-anchored week containing d.
func WeekEnd(d time.Time) time.Time {
	return WeekStart(d).AddDate(0, 0, 6)
}

// WeekBounds returns the inclusive Monday..Sunday bounds of the week containing d.
func WeekBounds(d time.Time) (time.Time, time.Time) {
	start := WeekStart(d)
	return start, start.AddDate(0, 0, 6)
}

// InRange reports whether d lies within [from, to] inclusive, compared as calendar dates.
func InRange(d, from, to time.Time) bool {
	d, from, to = DateOf(d), DateOf(from), DateOf(to)
	return !d.Before(from) && !d.After(to)
}

// IsWeekend reports whether d is a Saturday or Sunday.
func IsWeekend(d time.Time) bool {
	wd := d.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}
