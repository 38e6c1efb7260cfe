package cmd

import (
	"fmt"

	"github.com/brk3/habitgrid/internal/view"
	"github.com/spf13/cobra"
)

var gridMonths int

var gridCmd = &cobra.Command{
	Use:   "grid <habit>",
	Short: "Show a habit's calendar grid",
	Long: `The "grid" command shows the current month and the preceding months
(lookback_months, or --months) as a calendar grid of done, missed and
not-yet-tracked days.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return grid(cmd, args[0])
	},
}

func init() {
	gridCmd.Flags().IntVar(&gridMonths, "months", 0, "months to show before the current one (default lookback_months)")
	rootCmd.AddCommand(gridCmd)
}

func grid(cmd *cobra.Command, ref string) error {
	months := cfg.LookbackMonths
	if cmd.Flags().Changed("months") {
		months = gridMonths
	}
	if limit := cfg.LookbackLimit(); months > limit {
		return fmt.Errorf("--months must be <= %d", limit)
	}

	c, loc, err := newClient()
	if err != nil {
		return err
	}
	ctx, cancel := commandContext(cmd)
	defer cancel()

	h, err := c.FindHabit(ctx, ref)
	if err != nil {
		return err
	}

	gv := view.NewGridView(c, h, months, loc)
	gv.Now = timeNow
	printGrid(cmd.OutOrStdout(), gv.Render(ctx, 0))
	return nil
}
