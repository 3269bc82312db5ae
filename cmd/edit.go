package cmd

import (
	"errors"

	"github.com/brk3/habitboard/internal/tracker"
	"github.com/spf13/cobra"
)

var editCmd = &cobra.Command{
	Use:   "edit ID",
	Short: "Change a habit's details",
	Long:  `The "edit" command updates only the fields whose flags are given.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := patchFromFlags(cmd)
		if err != nil {
			return err
		}
		h, err := newClient().UpdateHabit(cmd.Context(), args[0], p)
		if err != nil {
			return err
		}
		cmd.Printf("Updated habit %s (%s, %s)\n", h.ID, h.Name, h.Frequency)
		return nil
	},
}

func patchFromFlags(cmd *cobra.Command) (tracker.Patch, error) {
	var p tracker.Patch
	f := cmd.Flags()
	str := func(name string) *string {
		if !f.Changed(name) {
			return nil
		}
		v, _ := f.GetString(name)
		return &v
	}
	p.Name = str("name")
	p.Description = str("description")
	p.Frequency = str("frequency")
	p.ReminderTime = str("reminder-time")
	if f.Changed("reminder") {
		v, _ := f.GetBool("reminder")
		p.Reminder = &v
	}
	if p == (tracker.Patch{}) {
		return p, errors.New("nothing to change: pass at least one of --name, --description, --frequency, --reminder, --reminder-time")
	}
	return p, nil
}

func init() {
	editCmd.Flags().String("name", "", "new name")
	editCmd.Flags().StringP("description", "d", "", "new description")
	editCmd.Flags().StringP("frequency", "f", "", "new frequency")
	editCmd.Flags().Bool("reminder", false, "turn the email reminder on or off")
	editCmd.Flags().String("reminder-time", "", "reminder time, HH:MM (empty clears it)")
	rootCmd.AddCommand(editCmd)
}
