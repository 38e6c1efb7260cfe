package cmd

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history <habit>",
	Short: "List the days a habit was done, newest first",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return history(cmd, args[0])
	},
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 0, "show at most n days (0 = all)")
	rootCmd.AddCommand(historyCmd)
}

func history(cmd *cobra.Command, ref string) error {
	c, _, err := newClient()
	if err != nil {
		return err
	}
	ctx, cancel := commandContext(cmd)
	defer cancel()

	h, err := c.FindHabit(ctx, ref)
	if err != nil {
		return err
	}
	rows, err := c.HabitCompletions(ctx, h.ID)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(rows) == 0 {
		fmt.Fprintf(out, "%s has no completions yet\n", h.Name)
		return nil
	}
	slices.Reverse(rows)
	if historyLimit > 0 && len(rows) > historyLimit {
		rows = rows[:historyLimit]
	}
	for _, r := range rows {
		fmt.Fprintln(out, r.CompletedDate)
	}
	return nil
}
