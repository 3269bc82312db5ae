package cmd

import (
	"time"

	"github.com/brk3/habitboard/internal/render"
	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List habits",
	Long:  `The "list" command shows your habits with the last seven days and current streak.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		habits, err := newClient().ListHabits(cmd.Context())
		if err != nil {
			return err
		}
		cmd.Println(render.HabitTable(habits, time.Now()))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
}
