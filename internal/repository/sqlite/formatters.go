package sqlite

import (
	"database/sql"
	"time"

	"github.com/shopspring/decimal"

	"timesheet-admin/internal/calendar"
)

// FormatTimeForDB formats a time.Time value as RFC3339 string for consistent database storage
func FormatTimeForDB(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

// FormatTimePtrForDB formats a *time.Time value as RFC3339 string, returning nil if the pointer is nil
func FormatTimePtrForDB(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return FormatTimeForDB(*t)
}

// ParseTimeFromDB parses an RFC3339 formatted time string from the database
func ParseTimeFromDB(s string) (time.Time, error) {
	return time.Parse(time.RFC3339, s)
}

// ParseNullTimeFromDB parses a nullable RFC3339 column
func ParseNullTimeFromDB(s sql.NullString) (*time.Time, error) {
	if !s.Valid || s.String == "" {
		return nil, nil
	}
	t, err := ParseTimeFromDB(s.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// FormatDateForDB stores a calendar date as YYYY-MM-DD. Values carrying a time
// of day are kept as timestamps so legacy skewed rows stay distinguishable.
func FormatDateForDB(d time.Time) string {
	if d.Equal(calendar.DateOf(d)) {
		return calendar.FormatDate(d)
	}
	return FormatTimeForDB(d)
}

// FormatClockPtrForDB formats an optional clock as HH:MM
func FormatClockPtrForDB(c *calendar.Clock) interface{} {
	if c == nil {
		return nil
	}
	return c.String()
}

// ParseNullClockFromDB parses an optional HH:MM column
func ParseNullClockFromDB(s sql.NullString) (*calendar.Clock, error) {
	if !s.Valid || s.String == "" {
		return nil, nil
	}
	c, err := calendar.ParseClock(s.String)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// FormatDecimalPtrForDB formats an optional decimal, returning nil if unset
func FormatDecimalPtrForDB(d *decimal.Decimal) interface{} {
	if d == nil {
		return nil
	}
	return d.String()
}

// ParseNullDecimalFromDB parses an optional decimal column
func ParseNullDecimalFromDB(s sql.NullString) (*decimal.Decimal, error) {
	if !s.Valid || s.String == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(s.String)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// NullableInt64 converts an optional id to a driver value
func NullableInt64(v *int64) interface{} {
	if v == nil {
		return nil
	}
	return *v
}

// NullableString converts an optional string to a driver value
func NullableString(v *string) interface{} {
	if v == nil || *v == "" {
		return nil
	}
	return *v
}

// NullableStatus stores an empty status as NULL
func NullableStatus(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
