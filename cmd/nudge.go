package cmd

import (
	"fmt"
	"time"

	"github.com/brk3/habitboard/internal/nudge"
	"github.com/brk3/habitboard/internal/nudge/resend"
	"github.com/spf13/cobra"
)

var nudgeCmd = &cobra.Command{
	Use:   "nudge",
	Short: "Email a reminder for habits due and not yet done today",
	Long: `The "nudge" command is meant to run from cron. It sends one email listing
every habit whose reminder time fell within the last nudge window and which
has not been marked done today.`,
	Args: cobra.NoArgs,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.ValidateNudge(); err != nil {
			return fmt.Errorf("invalid nudge config: %w", err)
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		n := &resend.ResendNotifier{
			ApiKey: cfg.Nudge.ResendAPIKey,
			Email:  cfg.Nudge.Email,
			From:   cfg.Nudge.From,
		}
		sent, err := nudge.Nudge(cmd.Context(), newClient(), n, time.Now(), cfg.Nudge.Window)
		if err != nil {
			return err
		}
		cmd.Printf("%d reminder(s) sent\n", sent)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(nudgeCmd)
}
