package cmd

import (
	"slices"
	"strings"
	"time"

	"github.com/brk3/habitboard/pkg/habit"
	"github.com/spf13/cobra"
)

var doneDate string

var doneCmd = &cobra.Command{
	Use:   "done ID",
	Short: "Mark a habit done for a day, or undo it",
	Long: `The "done" command toggles a day's completion: running it twice for the
same day removes the mark. The day defaults to today.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		date := strings.TrimSpace(doneDate)
		if date == "" {
			date = time.Now().Format(habit.DateLayout)
		}
		// The server stores days as YYYY-MM-DD; anything it can't parse is
		// sent as-is so its validation error reaches the user.
		if day, err := habit.NormalizeDate(date, time.Local); err == nil {
			date = day
		}
		h, err := newClient().ToggleHabit(cmd.Context(), args[0], date)
		if err != nil {
			return err
		}
		if slices.Contains(h.CompletedDates, date) {
			cmd.Printf("Marked %s done on %s (streak %d)\n", h.Name, date, habit.ComputeStreak(h.CompletedDates, time.Now()))
		} else {
			cmd.Printf("Unmarked %s on %s\n", h.Name, date)
		}
		return nil
	},
}

func init() {
	doneCmd.Flags().StringVar(&doneDate, "date", "", "day to toggle, YYYY-MM-DD (default today)")
	rootCmd.AddCommand(doneCmd)
}
