package cmd

import (
	"fmt"

	"github.com/brk3/habitgrid/internal/apiclient"
	"github.com/brk3/habitgrid/internal/calendar"
	"github.com/brk3/habitgrid/internal/events"
	"github.com/brk3/habitgrid/internal/view"
	"github.com/spf13/cobra"
)

var undoDone bool

var doneCmd = &cobra.Command{
	Use:   "done <habit> [date]",
	Short: "Mark a habit as done today or on a given date",
	Long: `The "done" command marks a habit complete for a day (default today, or a
yyyy-MM-dd date) and shows the updated grid. Marking a day twice is harmless.
With --undo the day is unmarked instead.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		date := ""
		if len(args) == 2 {
			date = args[1]
		}
		return done(cmd, args[0], date)
	},
}

func init() {
	doneCmd.Flags().BoolVar(&undoDone, "undo", false, "unmark the day instead")
	rootCmd.AddCommand(doneCmd)
}

func done(cmd *cobra.Command, ref, date string) error {
	c, loc, err := newClient()
	if err != nil {
		return err
	}
	ctx, cancel := commandContext(cmd)
	defer cancel()

	day := calendar.FormatDate(calendar.Day(timeNow(), loc))
	if date != "" {
		var ok bool
		if day, ok = calendar.NormalizeDate(date, loc); !ok {
			return fmt.Errorf("invalid date %q: want yyyy-MM-dd", date)
		}
	}

	h, err := c.FindHabit(ctx, ref)
	if err != nil {
		return err
	}

	bus := events.NewBus()
	gv := view.NewGridView(c, h, cfg.LookbackMonths, loc)
	gv.Now = timeNow
	screen := view.NewScreen(bus, gv, nil)
	defer screen.Close()

	out := cmd.OutOrStdout()
	if undoDone {
		err := c.UnmarkCompletion(ctx, h.ID, day)
		switch {
		case apiclient.IsNotFound(err):
			fmt.Fprintf(out, "%s was not done on %s\n", h.Name, day)
		case err != nil:
			return fmt.Errorf("error unmarking habit: %w", err)
		default:
			fmt.Fprintf(out, "Unmarked %s on %s\n", h.Name, day)
		}
	} else {
		_, created, err := c.MarkCompletion(ctx, h.ID, day)
		if err != nil {
			return fmt.Errorf("error marking habit: %w", err)
		}
		if created {
			fmt.Fprintf(out, "Marked %s done on %s\n", h.Name, day)
		} else {
			fmt.Fprintf(out, "%s was already done on %s\n", h.Name, day)
		}
	}

	bus.Emit(events.CompletionsChanged, h.ID)
	fmt.Fprintln(out)
	printGrid(out, screen.RenderGrid(ctx))
	return nil
}
