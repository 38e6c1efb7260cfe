package calendar

import "time"

// BuildRange returns every day from the first of the month lookbackMonths
// before end's month through end, inclusive. end is truncated to midnight.
// A negative lookback yields nil.
func BuildRange(end time.Time, lookbackMonths int) []time.Time {
	if lookbackMonths < 0 {
		return nil
	}
	end = Day(end, nil)
	start := time.Date(end.Year(), end.Month()-time.Month(lookbackMonths), 1, 0, 0, 0, 0, end.Location())
	return DaysInRange(start, end)
}

// Week is one grid column, Sunday first. Leading blank slots are the zero
// time. A week may be shorter than seven when the range ends mid-week.
type Week []time.Time

// GroupByWeek splits a contiguous run of days into columns that end on
// Saturday or at the last date. The first column is left-padded so that
// slot index equals the weekday (0 = Sunday).
func GroupByWeek(dates []time.Time) []Week {
	var (
		weeks []Week
		cur   Week
	)
	for i, d := range dates {
		if i == 0 {
			for j := 0; j < int(d.Weekday()); j++ {
				cur = append(cur, time.Time{})
			}
		}
		cur = append(cur, d)
		if d.Weekday() == time.Saturday || i == len(dates)-1 {
			weeks = append(weeks, cur)
			cur = nil
		}
	}
	return weeks
}

// Month is one month of the grid with its own column sequence.
type Month struct {
	Year  int
	Month time.Month
	Weeks []Week
}

// Label is the short month name, e.g. "Jan".
func (m Month) Label() string {
	return m.Month.String()[:3]
}

// Key identifies the month as yyyy-MM.
func (m Month) Key() string {
	return time.Date(m.Year, m.Month, 1, 0, 0, 0, 0, time.UTC).Format("2006-01")
}

// GroupByMonth partitions dates by calendar month. Columns never span two
// months; each month restarts its padding.
func GroupByMonth(dates []time.Time) []Month {
	var months []Month
	start := 0
	for i := 1; i <= len(dates); i++ {
		if i < len(dates) && sameMonth(dates[i], dates[start]) {
			continue
		}
		first := dates[start]
		months = append(months, Month{
			Year:  first.Year(),
			Month: first.Month(),
			Weeks: GroupByWeek(dates[start:i]),
		})
		start = i
	}
	return months
}

// IsBlank reports whether a week slot is padding.
func IsBlank(slot time.Time) bool {
	return slot.IsZero()
}

func sameMonth(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month()
}
