package weather

import (
	"sort"
	"time"
)

const (
	// DefaultTodayOffset shifts UTC wall-clock time to KST without a timezone database.
	DefaultTodayOffset = 9 * time.Hour

	// MaxAgeDays is the oldest diff kept in the window; together with today it spans 7 days.
	MaxAgeDays = 6

	// comparisonYear anchors yearless dates for ordering only. It is a leap year so 02-29 sorts.
	comparisonYear = 2024
)

// Today returns the reference month-day for now shifted by offset.
func Today(now time.Time, offset time.Duration) MonthDay {
	t := now.UTC().Add(offset)
	return MonthDay{Month: int(t.Month()), Day: t.Day()}
}

// ApproxDiff counts days from date to today assuming 30-day months and no year carry.
//
// Known limitation: dates across a month of length other than 30, or across the year
// boundary (12-30 against 01-02), are misclassified. The approximation is kept as the
// default window rule; see Selector.Calendar for the exact alternative.
func ApproxDiff(today, date MonthDay) int {
	return (today.Month-date.Month)*30 + (today.Day - date.Day)
}

// CalendarDate resolves date to the most recent occurrence on or before today,
// with today placed in the comparison year.
func CalendarDate(today, date MonthDay) time.Time {
	ref := today.In(comparisonYear)
	t := date.In(comparisonYear)
	if t.After(ref) {
		t = date.In(comparisonYear - 1)
	}
	return t
}

// CalendarDiff counts real calendar days from date back to today.
func CalendarDiff(today, date MonthDay) int {
	ref := today.In(comparisonYear)
	return int(ref.Sub(CalendarDate(today, date)).Hours() / 24)
}

// Selector computes recency windows.
type Selector struct {
	// Calendar replaces the 30-day-month approximation with real calendar
	// arithmetic (year carry, true month lengths). Off by default.
	Calendar bool
}

// SelectRecent applies the default (approximate) selector.
func SelectRecent(today MonthDay, records []Record) []Record {
	return Selector{}.Select(today, records)
}

// Select returns the records dated within MaxAgeDays on or before today, newest first.
// Records with equal dates keep their input order. The input slice is not modified.
func (s Selector) Select(today MonthDay, records []Record) []Record {
	type candidate struct {
		rec  Record
		when time.Time
	}

	kept := make([]candidate, 0, len(records))
	for _, r := range records {
		md, err := ParseMonthDay(r.Date)
		if err != nil {
			continue
		}

		var diff int
		var when time.Time
		if s.Calendar {
			diff = CalendarDiff(today, md)
			when = CalendarDate(today, md)
		} else {
			diff = ApproxDiff(today, md)
			when = md.In(comparisonYear)
		}

		if diff < 0 || diff > MaxAgeDays {
			continue
		}
		kept = append(kept, candidate{rec: r, when: when})
	}

	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].when.After(kept[j].when)
	})

	out := make([]Record, len(kept))
	for i, c := range kept {
		out[i] = c.rec
	}
	return out
}
