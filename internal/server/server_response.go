package server

import (
	"github.com/brk3/habitgrid/internal/calendar"
	"github.com/brk3/habitgrid/pkg/habit"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

type HabitRequest struct {
	Name string `json:"name"`
}

type HabitListResponse struct {
	Habits []habit.Habit `json:"habits"`
}

type CompletionListResponse struct {
	HabitID     string             `json:"habit_id,omitempty"`
	Completions []habit.Completion `json:"completions"`
}

type CompletionResponse struct {
	Completion habit.Completion `json:"completion"`
	Created    bool             `json:"created"`
}

type GridCell struct {
	Date   string             `json:"date"`
	State  calendar.CellState `json:"state"`
	Column int                `json:"column"`
	Row    int                `json:"row"`
}

type GridMonth struct {
	Key     string     `json:"key"`
	Label   string     `json:"label"`
	Columns int        `json:"columns"`
	Cells   []GridCell `json:"cells"`
}

type GridResponse struct {
	HabitID       string      `json:"habit_id"`
	Months        []GridMonth `json:"months"`
	CurrentStreak int         `json:"current_streak"`
	LongestStreak int         `json:"longest_streak"`
	Completed     int         `json:"completed"`
}

type HabitSummaryResponse struct {
	HabitID      string             `json:"habit_id"`
	HabitSummary habit.HabitSummary `json:"habit_summary"`
}

type TotalsResponse struct {
	Totals          calendar.Totals `json:"totals"`
	CompletionRatio float64         `json:"completion_ratio"`
	Today           int             `json:"today"`
}

type SeriesBucket struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

type SeriesResponse struct {
	Days    int            `json:"days"`
	Buckets []SeriesBucket `json:"buckets"`
}

type APIKeyResponse struct {
	APIKey string `json:"api_key"`
}

type APIKeyListResponse struct {
	Keys []string `json:"keys"`
}

func gridMonths(months []calendar.MonthGrid) []GridMonth {
	out := make([]GridMonth, 0, len(months))
	for _, m := range months {
		gm := GridMonth{
			Key:     m.Key(),
			Label:   m.Label(),
			Columns: m.Columns,
			Cells:   make([]GridCell, 0, len(m.Cells)),
		}
		for _, c := range m.Cells {
			gm.Cells = append(gm.Cells, GridCell{
				Date:   calendar.FormatDate(c.Date),
				State:  c.State,
				Column: c.Column,
				Row:    c.Row,
			})
		}
		out = append(out, gm)
	}
	return out
}

func seriesBuckets(buckets []calendar.DailyBucket) []SeriesBucket {
	out := make([]SeriesBucket, 0, len(buckets))
	for _, b := range buckets {
		out = append(out, SeriesBucket{Date: calendar.FormatDate(b.Date), Count: b.Count})
	}
	return out
}
