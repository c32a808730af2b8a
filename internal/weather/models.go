package weather

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Record is one daily observation from the weather log.
// Date carries month and day only (MM-DD); the log covers a single year.
type Record struct {
	Date           string  `json:"date"`
	City           string  `json:"city"`
	Temperature    float64 `json:"temperature"`
	MinTemperature float64 `json:"minTemperature"`
	Description    string  `json:"description"`
}

// MonthDay is a yearless calendar date.
type MonthDay struct {
	Month int
	Day   int
}

// ParseMonthDay parses an MM-DD string. Single-digit parts are accepted.
func ParseMonthDay(s string) (MonthDay, error) {
	parts := strings.Split(strings.TrimSpace(s), "-")
	if len(parts) != 2 {
		return MonthDay{}, fmt.Errorf("invalid month-day %q", s)
	}

	month, err := strconv.Atoi(parts[0])
	if err != nil {
		return MonthDay{}, fmt.Errorf("invalid month in %q: %w", s, err)
	}
	day, err := strconv.Atoi(parts[1])
	if err != nil {
		return MonthDay{}, fmt.Errorf("invalid day in %q: %w", s, err)
	}

	if month < 1 || month > 12 || day < 1 || day > 31 {
		return MonthDay{}, fmt.Errorf("month-day %q out of range", s)
	}

	return MonthDay{Month: month, Day: day}, nil
}

// String formats the date as zero-padded MM-DD.
func (md MonthDay) String() string {
	return fmt.Sprintf("%02d-%02d", md.Month, md.Day)
}

// In places the month-day in the given year (UTC midnight).
func (md MonthDay) In(year int) time.Time {
	return time.Date(year, time.Month(md.Month), md.Day, 0, 0, 0, 0, time.UTC)
}

// Window is the recent slice of the log relative to Today, newest first.
type Window struct {
	Today   MonthDay `json:"-"`
	Records []Record `json:"weather"`
}
