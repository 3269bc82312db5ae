package cmd

import (
	"time"

	"github.com/brk3/habitboard/internal/render"
	"github.com/spf13/cobra"
)

var showYear int

var showCmd = &cobra.Command{
	Use:   "show ID",
	Short: "Show a habit's streaks, insights and yearly overview",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c := newClient()
		sum, err := c.GetHabitSummary(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		year := showYear
		if year == 0 {
			year = time.Now().Year()
		}
		months, err := c.GetOverview(cmd.Context(), args[0], year)
		if err != nil {
			return err
		}
		cmd.Println(render.Summary(*sum))
		cmd.Print(render.Overview(year, months))
		return nil
	},
}

func init() {
	showCmd.Flags().IntVar(&showYear, "year", 0, "year for the overview (default this year)")
	rootCmd.AddCommand(showCmd)
}
