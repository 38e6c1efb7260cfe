package loader

import (
	"context"
	"time"

	"github.com/brk3/habitgrid/internal/calendar"
	"github.com/brk3/habitgrid/internal/storage"
	"github.com/brk3/habitgrid/pkg/habit"
)

// StoreLoader reads one user's rows straight from a storage.Store.
type StoreLoader struct {
	Store  storage.Store
	UserID string
	// Location is used to normalise stored dates; nil means time.Local.
	Location *time.Location
}

func NewStoreLoader(st storage.Store, userID string, loc *time.Location) *StoreLoader {
	return &StoreLoader{Store: st, UserID: userID, Location: loc}
}

func (l *StoreLoader) LoadCompletions(ctx context.Context, habitID string, start, end time.Time) (calendar.DateSet, error) {
	if err := ctx.Err(); err != nil {
		return nil, Unavailable(habitID, err)
	}
	rows, err := l.Store.ListCompletions(l.UserID, habitID, calendar.FormatDate(start), calendar.FormatDate(end))
	if err != nil {
		return nil, Unavailable(habitID, err)
	}
	return DateSetOf(rows, l.Location), nil
}

func (l *StoreLoader) ListHabits(ctx context.Context) ([]habit.Habit, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return l.Store.ListHabits(l.UserID)
}

func (l *StoreLoader) ListCompletions(ctx context.Context, since time.Time) ([]habit.Completion, error) {
	if err := ctx.Err(); err != nil {
		return nil, Unavailable("", err)
	}
	from := ""
	if !since.IsZero() {
		from = calendar.FormatDate(since)
	}
	rows, err := l.Store.ListUserCompletions(l.UserID, from)
	if err != nil {
		return nil, Unavailable("", err)
	}
	return rows, nil
}

// DateSetOf collects the completion dates of rows. Malformed dates are
// dropped so they can never match a grid day.
func DateSetOf(rows []habit.Completion, loc *time.Location) calendar.DateSet {
	set := calendar.NewDateSet()
	for _, r := range rows {
		if d, ok := calendar.NormalizeDate(r.CompletedDate, loc); ok {
			set.Add(d)
		}
	}
	return set
}

var (
	_ Loader  = (*StoreLoader)(nil)
	_ History = (*StoreLoader)(nil)
)
