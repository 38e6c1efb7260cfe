package calendar

import (
	"time"

	"github.com/brk3/habitgrid/pkg/habit"
)

type Totals struct {
	TotalCompletions  int `json:"total_completions"`
	TotalMissedDays   int `json:"total_missed_days"`
	TotalEligibleDays int `json:"total_eligible_days"`
	HabitCount        int `json:"habit_count"`
	// Anomaly is set when completions outnumbered eligible days and
	// TotalMissedDays was clamped to zero.
	Anomaly bool `json:"anomaly,omitempty"`
}

// CompletionRatio is completions over eligible days, capped at 1.
func (t Totals) CompletionRatio() float64 {
	if t.TotalEligibleDays <= 0 {
		return 0
	}
	return min(1, float64(t.TotalCompletions)/float64(t.TotalEligibleDays))
}

// EligibleDays counts days from the habit's creation day through asOf
// inclusive, in asOf's location. Never negative.
func EligibleDays(createdAt, asOf time.Time) int {
	loc := asOf.Location()
	return max(0, DaysBetween(Day(createdAt, loc), Day(asOf, loc))+1)
}

// CountTotals sums eligible days per habit and counts completion rows that
// belong to one of habits. Repeated habit IDs are counted once.
func CountTotals(habits []habit.Habit, completions []habit.Completion, asOf time.Time) Totals {
	var t Totals
	ids := make(map[string]struct{}, len(habits))
	for _, h := range habits {
		if _, seen := ids[h.ID]; seen {
			continue
		}
		ids[h.ID] = struct{}{}
		t.HabitCount++
		t.TotalEligibleDays += EligibleDays(h.CreatedAt, asOf)
	}
	for _, c := range completions {
		if _, ok := ids[c.HabitID]; ok {
			t.TotalCompletions++
		}
	}
	t.TotalMissedDays = t.TotalEligibleDays - t.TotalCompletions
	if t.TotalMissedDays < 0 {
		t.TotalMissedDays = 0
		t.Anomaly = true
	}
	return t
}

func CountHabit(h habit.Habit, completions []habit.Completion, asOf time.Time) Totals {
	return CountTotals([]habit.Habit{h}, completions, asOf)
}
