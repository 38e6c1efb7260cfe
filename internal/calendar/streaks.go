package calendar

import (
	"slices"
	"time"
)

// Streaks returns the current and longest runs of consecutive completed
// days as of asOf. The current streak is still alive when the latest
// completion is today or yesterday. Dates after asOf and malformed members
// are ignored.
func Streaks(completions DateSet, asOf time.Time) (current, longest int) {
	loc := asOf.Location()
	today := Day(asOf, loc)
	epoch := time.Date(1970, time.January, 1, 0, 0, 0, 0, loc)
	todayN := DaysBetween(epoch, today)

	days := make([]int, 0, len(completions))
	for s := range completions {
		d, err := ParseDate(s, loc)
		if err != nil {
			continue
		}
		if n := DaysBetween(epoch, d); n <= todayN {
			days = append(days, n)
		}
	}
	if len(days) == 0 {
		return 0, 0
	}
	slices.Sort(days)
	days = slices.Compact(days)
	slices.Reverse(days)

	ongoing := days[0] == todayN || days[0] == todayN-1
	if ongoing {
		current = 1
	}
	longest, run := 1, 1
	for i := 0; i < len(days)-1; i++ {
		if days[i]-days[i+1] == 1 {
			run++
			longest = max(longest, run)
			if ongoing {
				current++
			}
			continue
		}
		run = 1
		ongoing = false
	}
	return current, longest
}

// LastCompleted returns the latest member on or before asOf, or "".
func LastCompleted(completions DateSet, asOf time.Time) string {
	limit := FormatDate(Day(asOf, asOf.Location()))
	last := ""
	for _, d := range completions.Sorted() {
		if d > limit {
			break
		}
		last = d
	}
	return last
}
