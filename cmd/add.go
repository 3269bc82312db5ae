package cmd

import (
	"github.com/brk3/habitboard/pkg/habit"
	"github.com/spf13/cobra"
)

var (
	addFrequency    string
	addDescription  string
	addReminderTime string
)

var addCmd = &cobra.Command{
	Use:   "add NAME",
	Short: "Create a habit",
	Long: `The "add" command creates a habit. Frequency is "daily", "weekly", or
"N days per week|month". Setting --reminder-time turns the email reminder on.`,
	Example: `  habits add guitar --frequency "3 days per week" --reminder-time 19:00`,
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		in := habit.NewHabit{
			Name:        args[0],
			Frequency:   addFrequency,
			Description: addDescription,
		}
		if addReminderTime != "" {
			in.Reminder = true
			in.ReminderTime = &addReminderTime
		}
		h, err := newClient().CreateHabit(cmd.Context(), in)
		if err != nil {
			return err
		}
		cmd.Printf("Created habit %s (%s, %s)\n", h.ID, h.Name, h.Frequency)
		return nil
	},
}

func init() {
	addCmd.Flags().StringVarP(&addFrequency, "frequency", "f", "daily", "how often the habit should be done")
	addCmd.Flags().StringVarP(&addDescription, "description", "d", "", "optional description")
	addCmd.Flags().StringVar(&addReminderTime, "reminder-time", "", "daily reminder time, HH:MM")
	rootCmd.AddCommand(addCmd)
}
