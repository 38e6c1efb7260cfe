package loader

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/brk3/habitgrid/internal/calendar"
	"github.com/brk3/habitgrid/internal/storage/bolt"
	"github.com/brk3/habitgrid/pkg/habit"
	dto "github.com/prometheus/client_model/go"
)

func failureCount(t *testing.T, view string) float64 {
	t.Helper()
	var m dto.Metric
	if err := loadFailures.WithLabelValues(view).Write(&m); err != nil {
		t.Fatalf("read counter: %v", err)
	}
	return m.GetCounter().GetValue()
}

func TestLoad_DegradesToEmpty(t *testing.T) {
	boom := errors.New("connection refused")
	l := LoaderFunc(func(context.Context, string, time.Time, time.Time) (calendar.DateSet, error) {
		return nil, boom
	})

	before := failureCount(t, "summary")
	res := Load(context.Background(), l, "summary", "h1", time.Now(), time.Now())
	if got := failureCount(t, "summary") - before; got != 1 {
		t.Fatalf("summary failures grew by %v, want 1", got)
	}
	if !res.Unavailable() {
		t.Fatal("expected unavailable result")
	}
	if res.Dates == nil || res.Dates.Len() != 0 {
		t.Fatalf("expected empty, non-nil set, got %v", res.Dates)
	}
	if !errors.Is(res.Err, ErrDataUnavailable) {
		t.Fatalf("error %v does not match ErrDataUnavailable", res.Err)
	}
	if !errors.Is(res.Err, boom) {
		t.Fatalf("error %v lost its cause", res.Err)
	}
}

func TestLoad_EmptyIsNotUnavailable(t *testing.T) {
	l := LoaderFunc(func(context.Context, string, time.Time, time.Time) (calendar.DateSet, error) {
		return nil, nil
	})
	res := Load(context.Background(), l, "grid", "h1", time.Now(), time.Now())
	if res.Unavailable() || res.Dates == nil {
		t.Fatalf("unexpected result %+v", res)
	}
}

func TestUnavailable_NoDoubleWrap(t *testing.T) {
	inner := Unavailable("h1", errors.New("timeout"))
	if got := Unavailable("h2", inner); got != inner {
		t.Fatalf("rewrapped: %v", got)
	}
	if Unavailable("h1", nil) != nil {
		t.Fatal("nil error wrapped")
	}
}

func TestStoreLoader(t *testing.T) {
	st, err := bolt.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer st.Close()

	created := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	if err := st.PutHabit("u", habit.Habit{ID: "h1", Name: "read", UserID: "u", CreatedAt: created}); err != nil {
		t.Fatal(err)
	}
	for _, d := range []string{"2024-01-05", "2024-01-20", "2024-02-02"} {
		if _, _, err := st.PutCompletion("u", habit.Completion{ID: d, HabitID: "h1", CompletedDate: d}); err != nil {
			t.Fatal(err)
		}
	}

	l := NewStoreLoader(st, "u", time.UTC)
	set, err := l.LoadCompletions(context.Background(), "h1", created, time.Date(2024, time.January, 31, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("LoadCompletions failed: %v", err)
	}
	if set.Len() != 2 || !set.Has("2024-01-05") || !set.Has("2024-01-20") {
		t.Fatalf("unexpected set %v", set.Sorted())
	}

	rows, err := l.ListCompletions(context.Background(), time.Date(2024, time.January, 10, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("ListCompletions failed: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("got %d rows want 2", len(rows))
	}

	habits, err := l.ListHabits(context.Background())
	if err != nil || len(habits) != 1 {
		t.Fatalf("ListHabits = %v, %v", habits, err)
	}
}

func TestStoreLoader_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	l := NewStoreLoader(nil, "u", time.UTC)
	_, err := l.LoadCompletions(ctx, "h1", time.Now(), time.Now())
	if !errors.Is(err, ErrDataUnavailable) {
		t.Fatalf("got %v want ErrDataUnavailable", err)
	}
}

func TestDateSetOf_SkipsMalformed(t *testing.T) {
	set := DateSetOf([]habit.Completion{
		{CompletedDate: "2024-01-05"},
		{CompletedDate: "2024-01-06T10:00:00Z"},
		{CompletedDate: "yesterday"},
	}, time.UTC)
	if set.Len() != 2 || !set.Has("2024-01-06") {
		t.Fatalf("unexpected set %v", set.Sorted())
	}
}
