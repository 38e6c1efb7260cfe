// Package render draws calendar grids and stats for a terminal.
package render

import (
	"fmt"
	"math"
	"strings"

	"github.com/brk3/habitgrid/internal/calendar"
	"github.com/charmbracelet/lipgloss"
)

const cellGlyph = "■"

var (
	completedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#40c463"))
	missedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#e5534b"))
	beforeStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#484f58"))
	labelStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#8b949e"))
	monthStyle     = lipgloss.NewStyle().PaddingRight(2)
	warnStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#d29922")).Bold(true)
)

var dayLabels = []string{"S", "M", "T", "W", "T", "F", "S"}

// Grid draws months left to right with weekday rows, Sunday on top.
func Grid(months []calendar.MonthGrid) string {
	labels := append([]string{" "}, dayLabels...)
	blocks := []string{labelStyle.PaddingRight(1).Render(strings.Join(labels, "\n"))}
	for _, m := range months {
		blocks = append(blocks, monthStyle.Render(monthBlock(m)))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, blocks...)
}

func monthBlock(m calendar.MonthGrid) string {
	rows := make([][]string, 7)
	for r := range rows {
		rows[r] = make([]string, m.Columns)
		for c := range rows[r] {
			rows[r][c] = " "
		}
	}
	for _, cell := range m.Cells {
		rows[cell.Row][cell.Column] = cellStyle(cell.State).Render(cellGlyph)
	}

	lines := make([]string, 0, 8)
	lines = append(lines, labelStyle.Render(m.Label()))
	for _, r := range rows {
		lines = append(lines, strings.Join(r, " "))
	}
	return strings.Join(lines, "\n")
}

func cellStyle(s calendar.CellState) lipgloss.Style {
	switch s {
	case calendar.Completed:
		return completedStyle
	case calendar.Missed:
		return missedStyle
	default:
		return beforeStyle
	}
}

// Legend explains the grid glyph colours.
func Legend() string {
	return strings.Join([]string{
		completedStyle.Render(cellGlyph) + " done",
		missedStyle.Render(cellGlyph) + " missed",
		beforeStyle.Render(cellGlyph) + " not yet created",
	}, "  ")
}

var sparks = []rune("▁▂▃▄▅▆▇█")

// Series draws a one-line sparkline with its date span and peak.
func Series(buckets []calendar.DailyBucket) string {
	if len(buckets) == 0 {
		return labelStyle.Render("no data")
	}
	peak := 0
	peakAt := 0
	for i, b := range buckets {
		if b.Count > peak {
			peak, peakAt = b.Count, i
		}
	}
	var line strings.Builder
	for _, b := range buckets {
		idx := 0
		if peak > 0 {
			idx = b.Count * (len(sparks) - 1) / peak
		}
		line.WriteRune(sparks[idx])
	}
	first, last := buckets[0].Date, buckets[len(buckets)-1].Date
	footer := fmt.Sprintf("%s .. %s", calendar.FormatDate(first), calendar.FormatDate(last))
	if peak > 0 {
		footer += fmt.Sprintf("  peak %d on %s", peak, calendar.FormatDate(buckets[peakAt].Date))
	}
	return completedStyle.Render(line.String()) + "\n" + labelStyle.Render(footer)
}

// Ratio draws the completed/missed split as a bar of width cells.
func Ratio(t calendar.Totals, width int) string {
	if width <= 0 {
		width = 30
	}
	done := int(math.Round(t.CompletionRatio() * float64(width)))
	bar := completedStyle.Render(strings.Repeat("█", done)) + missedStyle.Render(strings.Repeat("█", width-done))
	return fmt.Sprintf("%s %d done / %d missed (%.0f%%)",
		bar, t.TotalCompletions, t.TotalMissedDays, 100*t.CompletionRatio())
}

// Warning formats a non-fatal problem shown above a view.
func Warning(msg string) string {
	return warnStyle.Render("! " + msg)
}
