// Package view holds refresh-driven render state for the grid and stats
// views. A view refetches only when the caller passes a new trigger value.
package view

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/brk3/habitgrid/internal/calendar"
	"github.com/brk3/habitgrid/internal/loader"
	"github.com/brk3/habitgrid/internal/logger"
	"github.com/brk3/habitgrid/pkg/habit"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var integrityAnomalies = promauto.NewCounter(prometheus.CounterOpts{
	Name: "habits_integrity_anomalies_total",
	Help: "Totals where completions exceeded eligible days and missed days were clamped",
})

// Trigger is a refresh counter. Bumping it is the only way to make a view
// refetch.
type Trigger struct {
	n atomic.Int64
}

func (t *Trigger) Bump() int  { return int(t.n.Add(1)) }
func (t *Trigger) Value() int { return int(t.n.Load()) }

type GridSnapshot struct {
	Habit  habit.Habit
	Months []calendar.MonthGrid
	// Streaks are computed over the displayed range only.
	CurrentStreak int
	LongestStreak int
	Completed     int
	Trigger       int
	// Err is set when completions could not be loaded; Months then show
	// every eligible day as missed.
	Err error
}

type GridView struct {
	Loader   loader.Loader
	Habit    habit.Habit
	Lookback int
	Location *time.Location
	Now      func() time.Time

	mu      sync.Mutex
	loaded  bool
	trigger int
	result  loader.Result
}

func NewGridView(l loader.Loader, h habit.Habit, lookbackMonths int, loc *time.Location) *GridView {
	return &GridView{Loader: l, Habit: h, Lookback: lookbackMonths, Location: loc, Now: time.Now}
}

func (v *GridView) today() time.Time {
	now := time.Now
	if v.Now != nil {
		now = v.Now
	}
	return calendar.Day(now(), v.Location)
}

func (v *GridView) Render(ctx context.Context, trigger int) GridSnapshot {
	v.mu.Lock()
	defer v.mu.Unlock()

	today := v.today()
	dates := calendar.BuildRange(today, v.Lookback)
	if !v.loaded || trigger != v.trigger {
		start := today
		if len(dates) > 0 {
			start = dates[0]
		}
		logger.DebugContext(ctx, "Loading completions", "habit_id", v.Habit.ID, "trigger", trigger)
		v.result = loader.Load(ctx, v.Loader, "grid", v.Habit.ID, start, today)
		v.loaded, v.trigger = true, trigger
	}

	snap := GridSnapshot{
		Habit:     v.Habit,
		Months:    calendar.BuildGrid(dates, v.Habit.CreatedAt, v.result.Dates),
		Completed: v.result.Dates.Len(),
		Trigger:   v.trigger,
		Err:       v.result.Err,
	}
	snap.CurrentStreak, snap.LongestStreak = calendar.Streaks(v.result.Dates, today)
	return snap
}

type StatsSnapshot struct {
	Totals calendar.Totals
	Series []calendar.DailyBucket
	// Today is the number of completions recorded today across habits.
	Today   int
	Trigger int
	Err     error
}

type StatsView struct {
	History    loader.History
	WindowDays int
	Location   *time.Location
	Now        func() time.Time

	mu          sync.Mutex
	loaded      bool
	trigger     int
	habits      []habit.Habit
	completions []habit.Completion
	err         error
}

func NewStatsView(h loader.History, windowDays int, loc *time.Location) *StatsView {
	return &StatsView{History: h, WindowDays: windowDays, Location: loc, Now: time.Now}
}

func (v *StatsView) fetch(ctx context.Context) {
	v.habits, v.completions, v.err = nil, nil, nil
	habits, err := v.History.ListHabits(ctx)
	if err != nil {
		v.err = loader.Unavailable("", err)
		return
	}
	completions, err := v.History.ListCompletions(ctx, time.Time{})
	if err != nil {
		v.err = loader.Unavailable("", err)
		v.habits = habits
		return
	}
	v.habits, v.completions = habits, completions
}

func (v *StatsView) Render(ctx context.Context, trigger int) StatsSnapshot {
	v.mu.Lock()
	defer v.mu.Unlock()

	if !v.loaded || trigger != v.trigger {
		v.fetch(ctx)
		if v.err != nil {
			loader.RecordFailure("stats")
			logger.WarnContext(ctx, "Rendering stats without completions", "error", v.err)
		}
		v.loaded, v.trigger = true, trigger
	}

	now := time.Now
	if v.Now != nil {
		now = v.Now
	}
	asOf := now()
	if v.Location != nil {
		asOf = asOf.In(v.Location)
	}

	owned := ownedCompletions(v.habits, v.completions)
	totals := calendar.CountTotals(v.habits, owned, asOf)
	if totals.Anomaly {
		integrityAnomalies.Inc()
		logger.WarnContext(ctx, "Completions exceed eligible days; missed days clamped",
			"completions", totals.TotalCompletions, "eligible_days", totals.TotalEligibleDays)
	}
	return StatsSnapshot{
		Totals:  totals,
		Series:  calendar.SeriesFromCompletions(owned, v.WindowDays, asOf),
		Today:   calendar.CountOnDay(owned, asOf),
		Trigger: v.trigger,
		Err:     v.err,
	}
}

func ownedCompletions(habits []habit.Habit, completions []habit.Completion) []habit.Completion {
	ids := make(map[string]struct{}, len(habits))
	for _, h := range habits {
		ids[h.ID] = struct{}{}
	}
	out := make([]habit.Completion, 0, len(completions))
	for _, c := range completions {
		if _, ok := ids[c.HabitID]; ok {
			out = append(out, c)
		}
	}
	return out
}
