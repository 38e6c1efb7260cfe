package render

import (
	"strings"
	"testing"
	"time"

	"github.com/brk3/habitgrid/internal/calendar"
)

func TestGrid(t *testing.T) {
	start := time.Date(2024, time.January, 28, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, time.February, 6, 0, 0, 0, 0, time.UTC)
	months := calendar.BuildGrid(calendar.DaysInRange(start, end), start, calendar.NewDateSet("2024-02-01"))

	out := Grid(months)
	if n := strings.Count(out, cellGlyph); n != 10 {
		t.Fatalf("got %d cells want 10:\n%s", n, out)
	}
	if !strings.Contains(out, "Jan") || !strings.Contains(out, "Feb") {
		t.Fatalf("missing month labels:\n%s", out)
	}
	if lines := strings.Split(out, "\n"); len(lines) != 8 {
		t.Fatalf("got %d lines want 8", len(lines))
	}
}

func TestSeries(t *testing.T) {
	asOf := time.Date(2024, time.February, 10, 0, 0, 0, 0, time.UTC)
	buckets := calendar.BuildSeries([]time.Time{asOf, asOf, asOf.AddDate(0, 0, -1)}, 4, asOf)
	out := Series(buckets)
	if !strings.Contains(out, "▁▁▄█") {
		t.Fatalf("unexpected sparkline:\n%s", out)
	}
	if !strings.Contains(out, "peak 2 on 2024-02-10") {
		t.Fatalf("missing peak:\n%s", out)
	}
	if !strings.Contains(Series(nil), "no data") {
		t.Fatal("empty series not labelled")
	}
}

func TestRatio(t *testing.T) {
	out := Ratio(calendar.Totals{TotalCompletions: 1, TotalMissedDays: 3, TotalEligibleDays: 4}, 8)
	if strings.Count(out, "█") != 8 {
		t.Fatalf("bar width wrong: %q", out)
	}
	if !strings.Contains(out, "1 done / 3 missed (25%)") {
		t.Fatalf("unexpected label %q", out)
	}
}
