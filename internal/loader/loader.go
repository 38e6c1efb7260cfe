// Package loader defines how views obtain completion data and how a failed
// fetch degrades without hiding the failure.
package loader

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/brk3/habitgrid/internal/calendar"
	"github.com/brk3/habitgrid/internal/logger"
	"github.com/brk3/habitgrid/pkg/habit"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var ErrDataUnavailable = errors.New("completion data unavailable")

// UnavailableError reports a transport or query failure while fetching
// completions. It matches ErrDataUnavailable under errors.Is.
type UnavailableError struct {
	HabitID string
	Err     error
}

func (e *UnavailableError) Error() string {
	if e.HabitID == "" {
		return fmt.Sprintf("%v: %v", ErrDataUnavailable, e.Err)
	}
	return fmt.Sprintf("%v for habit %s: %v", ErrDataUnavailable, e.HabitID, e.Err)
}

func (e *UnavailableError) Unwrap() error { return e.Err }

func (e *UnavailableError) Is(target error) bool { return target == ErrDataUnavailable }

// Unavailable wraps err unless it already is an UnavailableError.
func Unavailable(habitID string, err error) error {
	if err == nil {
		return nil
	}
	var ue *UnavailableError
	if errors.As(err, &ue) {
		return err
	}
	return &UnavailableError{HabitID: habitID, Err: err}
}

// Loader fetches the dates on which a habit was completed between start
// and end inclusive. Each call is an independent snapshot read.
type Loader interface {
	LoadCompletions(ctx context.Context, habitID string, start, end time.Time) (calendar.DateSet, error)
}

type LoaderFunc func(ctx context.Context, habitID string, start, end time.Time) (calendar.DateSet, error)

func (f LoaderFunc) LoadCompletions(ctx context.Context, habitID string, start, end time.Time) (calendar.DateSet, error) {
	return f(ctx, habitID, start, end)
}

// History serves user-wide views. A zero since lists everything.
type History interface {
	ListHabits(ctx context.Context) ([]habit.Habit, error)
	ListCompletions(ctx context.Context, since time.Time) ([]habit.Completion, error)
}

var loadFailures = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "habits_completion_load_failures_total",
		Help: "Completion fetches that failed and were rendered with an empty set",
	},
	[]string{"view"},
)

// Result is what a view renders from. Err is non-nil when the data could
// not be fetched; Dates is then empty, not authoritative.
type Result struct {
	Dates calendar.DateSet
	Err   error
}

func (r Result) Unavailable() bool { return r.Err != nil }

// Load calls l and degrades any failure to an empty set, keeping the error
// in Result.Err. Failures are counted under the given view label.
func Load(ctx context.Context, l Loader, view, habitID string, start, end time.Time) Result {
	dates, err := l.LoadCompletions(ctx, habitID, start, end)
	if err != nil {
		err = Unavailable(habitID, err)
		RecordFailure(view)
		logger.WarnContext(ctx, "Rendering without completions", "view", view, "habit_id", habitID, "error", err)
		return Result{Dates: calendar.NewDateSet(), Err: err}
	}
	if dates == nil {
		dates = calendar.NewDateSet()
	}
	return Result{Dates: dates}
}

func RecordFailure(view string) {
	loadFailures.WithLabelValues(view).Inc()
}
