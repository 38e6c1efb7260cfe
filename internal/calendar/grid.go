package calendar

import "time"

type CellState string

const (
	BeforeCreation CellState = "before-creation"
	Completed      CellState = "completed"
	Missed         CellState = "missed"
)

// Classify decides how one day renders for a habit. Days before the habit
// existed are neutral; afterwards a day is either completed or missed.
// Comparison is by calendar day in date's location.
func Classify(date, createdAt time.Time, completions DateSet) CellState {
	d := Day(date, nil)
	if d.Before(Day(createdAt, d.Location())) {
		return BeforeCreation
	}
	if completions.Has(FormatDate(d)) {
		return Completed
	}
	return Missed
}

// DateCell is one classified grid day. Column is the week column within
// its month, Row the weekday (0 = Sunday).
type DateCell struct {
	Date   time.Time
	State  CellState
	Column int
	Row    int
}

type MonthGrid struct {
	Year    int
	Month   time.Month
	Columns int
	Cells   []DateCell
}

func (g MonthGrid) Label() string {
	return g.Month.String()[:3]
}

// Key is the month as yyyy-MM.
func (g MonthGrid) Key() string {
	return Month{Year: g.Year, Month: g.Month}.Key()
}

// BuildGrid classifies every date, grouped into per-month columns.
func BuildGrid(dates []time.Time, createdAt time.Time, completions DateSet) []MonthGrid {
	months := GroupByMonth(dates)
	out := make([]MonthGrid, 0, len(months))
	for _, m := range months {
		g := MonthGrid{Year: m.Year, Month: m.Month, Columns: len(m.Weeks)}
		for col, week := range m.Weeks {
			for row, slot := range week {
				if IsBlank(slot) {
					continue
				}
				g.Cells = append(g.Cells, DateCell{
					Date:   slot,
					State:  Classify(slot, createdAt, completions),
					Column: col,
					Row:    row,
				})
			}
		}
		out = append(out, g)
	}
	return out
}

// Cells flattens grids into date order.
func Cells(grids []MonthGrid) []DateCell {
	var out []DateCell
	for _, g := range grids {
		out = append(out, g.Cells...)
	}
	return out
}
