package calendar

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	hmsPattern     = regexp.MustCompile(`^(?:(\d+(?:\.\d+)?)\s*h)?\s*(?:(\d+)\s*m(?:in)?)?$`)
	isoPattern     = regexp.MustCompile(`^PT(?:(\d+(?:\.\d+)?)H)?(?:(\d+)M)?$`)
	colonPattern   = regexp.MustCompile(`^(\d+):([0-5]\d)(?::([0-5]\d))?$`)
	decimalPattern = regexp.MustCompile(`^\d+(?:[.,]\d+)?$`)
)

// ParseHours parses a duration string from the attendance feed into decimal hours.
// Accepted forms: "7.5", "7,5", "7:30", "7:30:00", "7h30m", "7h", "45m", "PT7H30M".
func ParseHours(s string) (decimal.Decimal, error) {
	raw := strings.TrimSpace(s)
	v := strings.ToLower(raw)
	if v == "" {
		return decimal.Zero, fmt.Errorf("empty duration")
	}

	if decimalPattern.MatchString(v) {
		return decimal.NewFromString(strings.Replace(v, ",", ".", 1))
	}

	if m := colonPattern.FindStringSubmatch(v); m != nil {
		h, _ := strconv.Atoi(m[1])
		min, _ := strconv.Atoi(m[2])
		return minutesToHours(h*60 + min), nil
	}

	if m := isoPattern.FindStringSubmatch(strings.ToUpper(raw)); m != nil && (m[1] != "" || m[2] != "") {
		return hoursAndMinutes(m[1], m[2])
	}

	if m := hmsPattern.FindStringSubmatch(strings.ReplaceAll(v, " ", "")); m != nil && (m[1] != "" || m[2] != "") {
		return hoursAndMinutes(m[1], m[2])
	}

	return decimal.Zero, fmt.Errorf("invalid duration %q", s)
}

func hoursAndMinutes(hours, minutes string) (decimal.Decimal, error) {
	total := decimal.Zero
	if hours != "" {
		h, err := decimal.NewFromString(hours)
		if err != nil {
			return decimal.Zero, err
		}
		total = total.Add(h)
	}
	if minutes != "" {
		m, err := strconv.Atoi(minutes)
		if err != nil {
			return decimal.Zero, err
		}
		total = total.Add(minutesToHours(m))
	}
	return total, nil
}

func minutesToHours(minutes int) decimal.Decimal {
	return decimal.NewFromInt(int64(minutes)).Div(decimal.NewFromInt(60))
}
