package calendar

import (
	"time"

	"github.com/brk3/habitgrid/pkg/habit"
)

type DailyBucket struct {
	Date  time.Time
	Count int
}

// BuildSeries buckets timestamps by calendar day into exactly windowDays
// entries, oldest first, ending at asOf. Days without completions are
// present with a zero count. windowDays <= 0 yields an empty series.
func BuildSeries(timestamps []time.Time, windowDays int, asOf time.Time) []DailyBucket {
	if windowDays <= 0 {
		return []DailyBucket{}
	}
	loc := asOf.Location()
	counts := make(map[string]int, len(timestamps))
	for _, ts := range timestamps {
		counts[FormatDate(Day(ts, loc))]++
	}

	end := Day(asOf, loc)
	out := make([]DailyBucket, windowDays)
	for i := range out {
		d := end.AddDate(0, 0, i-(windowDays-1))
		out[i] = DailyBucket{Date: d, Count: counts[FormatDate(d)]}
	}
	return out
}

// SeriesFromCompletions is BuildSeries over completion rows, bucketed by
// their completed_date. Rows with malformed dates are skipped.
func SeriesFromCompletions(completions []habit.Completion, windowDays int, asOf time.Time) []DailyBucket {
	return BuildSeries(completionDays(completions, asOf.Location()), windowDays, asOf)
}

// CountOnDay counts completion rows recorded for day.
func CountOnDay(completions []habit.Completion, day time.Time) int {
	want := FormatDate(Day(day, nil))
	n := 0
	for _, c := range completions {
		if d, ok := NormalizeDate(c.CompletedDate, day.Location()); ok && d == want {
			n++
		}
	}
	return n
}

func completionDays(completions []habit.Completion, loc *time.Location) []time.Time {
	out := make([]time.Time, 0, len(completions))
	for _, c := range completions {
		d, err := ParseDate(c.CompletedDate, loc)
		if err != nil {
			continue
		}
		out = append(out, d)
	}
	return out
}
