package cmd

import (
	"fmt"

	"github.com/brk3/habitgrid/internal/calendar"
	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List habits",
	Long:  `The "list" command lets you list your tracked habits.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return list(cmd)
	},
}

var addCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Start tracking a new habit",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return add(cmd, args[0])
	},
}

var renameCmd = &cobra.Command{
	Use:   "rename <habit> <new-name>",
	Short: "Rename a habit",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return rename(cmd, args[0], args[1])
	},
}

var deleteCmd = &cobra.Command{
	Use:   "delete <habit>",
	Short: "Delete a habit and all of its completions",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return deleteHabit(cmd, args[0])
	},
}

func init() {
	rootCmd.AddCommand(listCmd, addCmd, renameCmd, deleteCmd)
}

func list(cmd *cobra.Command) error {
	c, loc, err := newClient()
	if err != nil {
		return err
	}
	ctx, cancel := commandContext(cmd)
	defer cancel()

	habits, err := c.ListHabits(ctx)
	if err != nil {
		return fmt.Errorf("error fetching habits: %w", err)
	}
	out := cmd.OutOrStdout()
	if len(habits) == 0 {
		fmt.Fprintln(out, `No habits yet. Add one with "habits add <name>".`)
		return nil
	}
	for _, h := range habits {
		fmt.Fprintf(out, "%-24s %s  since %s\n", h.Name, h.ID, calendar.FormatDate(h.CreatedAt.In(loc)))
	}
	return nil
}

func add(cmd *cobra.Command, name string) error {
	c, _, err := newClient()
	if err != nil {
		return err
	}
	ctx, cancel := commandContext(cmd)
	defer cancel()

	h, err := c.CreateHabit(ctx, name)
	if err != nil {
		return fmt.Errorf("error creating habit: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Added %s (%s)\n", h.Name, h.ID)
	return nil
}

func rename(cmd *cobra.Command, ref, name string) error {
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
	renamed, err := c.RenameHabit(ctx, h.ID, name)
	if err != nil {
		return fmt.Errorf("error renaming habit: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Renamed %s to %s\n", h.Name, renamed.Name)
	return nil
}

func deleteHabit(cmd *cobra.Command, ref string) error {
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
	if err := c.DeleteHabit(ctx, h.ID); err != nil {
		return fmt.Errorf("error deleting habit: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", h.Name)
	return nil
}
