package calendar

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Clock is a same-day local time of day, in minutes since midnight.
type Clock int

// MinutesPerDay bounds every Clock value.
const MinutesPerDay = 24 * 60

// NewClock builds a Clock from hours and minutes.
func NewClock(hour, minute int) Clock {
	return Clock(hour*60 + minute)
}

// ParseClock parses an "HH:MM" local time.
func ParseClock(s string) (Clock, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 2 {
		return 0, fmt.Errorf("invalid time %q, expected HH:MM", s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0, fmt.Errorf("invalid hour in %q", s)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 || len(parts[1]) != 2 {
		return 0, fmt.Errorf("invalid minute in %q", s)
	}
	return NewClock(h, m), nil
}

// MustParseClock is ParseClock for constants; it panics on bad input.
func MustParseClock(s string) Clock {
	c, err := ParseClock(s)
	if err != nil {
		panic(err)
	}
	return c
}

// String formats the clock as HH:MM.
func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", int(c)/60, int(c)%60)
}

// Minutes returns minutes since midnight.
func (c Clock) Minutes() int {
	return int(c)
}

// Valid reports whether c is a time within a single day.
func (c Clock) Valid() bool {
	return c >= 0 && c < MinutesPerDay
}

// Add returns c shifted by the given minutes. The result may be invalid when it
// crosses midnight; callers check Valid.
func (c Clock) Add(minutes int) Clock {
	return c + Clock(minutes)
}

// HoursBetween returns the decimal hours from start to end. ok is false when end
// is not strictly after start: entries never cross midnight.
func HoursBetween(start, end Clock) (hours decimal.Decimal, ok bool) {
	if end <= start {
		return decimal.Zero, false
	}
	return decimal.NewFromInt(int64(end - start)).Div(decimal.NewFromInt(60)), true
}

// HoursToMinutes converts decimal hours to whole minutes, rounding half up.
func HoursToMinutes(hours decimal.Decimal) int {
	return int(hours.Mul(decimal.NewFromInt(60)).Round(0).IntPart())
}
