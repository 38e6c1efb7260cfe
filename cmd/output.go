package cmd

import (
	"fmt"
	"io"

	"github.com/brk3/habitgrid/internal/render"
	"github.com/brk3/habitgrid/internal/view"
)

const unavailableMsg = "completion data unavailable; days are shown as missed"

func printGrid(out io.Writer, snap view.GridSnapshot) {
	fmt.Fprintf(out, "%s  streak %d (best %d)  %d done\n\n",
		snap.Habit.Name, snap.CurrentStreak, snap.LongestStreak, snap.Completed)
	if snap.Err != nil {
		fmt.Fprintln(out, render.Warning(unavailableMsg))
	}
	fmt.Fprintln(out, render.Grid(snap.Months))
	fmt.Fprintln(out, render.Legend())
}

func printStats(out io.Writer, snap view.StatsSnapshot) {
	if snap.Err != nil {
		fmt.Fprintln(out, render.Warning(unavailableMsg))
	}
	t := snap.Totals
	fmt.Fprintf(out, "Habits:  %d\n", t.HabitCount)
	fmt.Fprintf(out, "Today:   %d done\n", snap.Today)
	fmt.Fprintf(out, "Overall: %s\n", render.Ratio(t, 30))
	fmt.Fprintf(out, "Daily:   %s\n", render.Series(snap.Series))
}
