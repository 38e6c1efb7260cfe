// Package calendar turns sparse per-day completion records into calendar
// grids, rolling totals and zero-filled daily series.
//
// All functions are pure. Dates are interpreted in the location of the
// reference time passed in (the "end", "date" or "asOf" argument); callers
// convert to the user's configured location before calling.
package calendar

import (
	"fmt"
	"sort"
	"time"
)

// DateLayout is the wire and set-key format for calendar dates.
const DateLayout = "2006-01-02"

// Day returns midnight of t's calendar day. When loc is non-nil t is first
// converted into loc.
func Day(t time.Time, loc *time.Location) time.Time {
	if loc != nil {
		t = t.In(loc)
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// ParseDate accepts yyyy-MM-dd, or an RFC 3339 timestamp which is truncated
// to its calendar day in loc. A nil loc means time.Local.
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	if t, err := time.ParseInLocation(DateLayout, s, loc); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return Day(t, loc), nil
}

// NormalizeDate rewrites s into DateLayout. ok is false for malformed input.
func NormalizeDate(s string, loc *time.Location) (string, bool) {
	t, err := ParseDate(s, loc)
	if err != nil {
		return "", false
	}
	return FormatDate(t), true
}

// DaysBetween counts calendar days from a to b using each time's own
// year/month/day, so DST transitions do not skew the result.
func DaysBetween(a, b time.Time) int {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	from := time.Date(ay, am, ad, 0, 0, 0, 0, time.UTC)
	to := time.Date(by, bm, bd, 0, 0, 0, 0, time.UTC)
	return int(to.Sub(from).Hours() / 24)
}

// DaysInRange lists every calendar day from start through end inclusive.
// An inverted range yields nil.
func DaysInRange(start, end time.Time) []time.Time {
	start, end = Day(start, nil), Day(end, nil)
	if end.Before(start) {
		return nil
	}
	out := make([]time.Time, 0, DaysBetween(start, end)+1)
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		out = append(out, d)
	}
	return out
}

// DateSet is a set of yyyy-MM-dd strings. The nil set is empty.
type DateSet map[string]struct{}

func NewDateSet(dates ...string) DateSet {
	s := make(DateSet, len(dates))
	for _, d := range dates {
		s[d] = struct{}{}
	}
	return s
}

func (s DateSet) Add(date string) {
	s[date] = struct{}{}
}

func (s DateSet) Has(date string) bool {
	_, ok := s[date]
	return ok
}

func (s DateSet) Len() int {
	return len(s)
}

// Sorted returns the members in ascending order.
func (s DateSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for d := range s {
		out = append(out, d)
	}
	sort.Strings(out)
	return out
}
