package cmd

import (
	"fmt"

	"github.com/brk3/habitgrid/internal/view"
	"github.com/spf13/cobra"
)

var statsDays int

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show totals across all habits and a daily completion series",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return stats(cmd)
	},
}

func init() {
	statsCmd.Flags().IntVar(&statsDays, "days", 0, "days in the daily series (default series_days)")
	rootCmd.AddCommand(statsCmd)
}

func stats(cmd *cobra.Command) error {
	days := cfg.SeriesDays
	if cmd.Flags().Changed("days") {
		days = statsDays
	}
	if limit := cfg.SeriesLimit(); days > limit {
		return fmt.Errorf("--days must be <= %d", limit)
	}

	c, loc, err := newClient()
	if err != nil {
		return err
	}
	ctx, cancel := commandContext(cmd)
	defer cancel()
	sv := view.NewStatsView(c, days, loc)
	sv.Now = timeNow
	printStats(cmd.OutOrStdout(), sv.Render(ctx, 0))
	return nil
}
