package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/brk3/habitboard/internal/apiclient"
	"github.com/brk3/habitboard/internal/config"
	"github.com/brk3/habitboard/internal/logger"
	"github.com/spf13/cobra"
)

var (
	cfgPath string
	cfg     *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "habits",
	Short: "Track personal habits, streaks and reminders",
	Long: `
	Habits tracks recurring activities: create a habit with a frequency, mark the
	days you did it, and watch your streaks. The "server" command runs the API;
	every other command talks to it.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load(cfgPath)
		if err != nil {
			return fmt.Errorf("error loading config: %w", err)
		}
		if err := logger.Setup(c.Log.Level, c.Log.Format); err != nil {
			return err
		}
		cfg = c
		return nil
	},
}

func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func newClient() *apiclient.Client {
	return apiclient.New(cfg.APIBaseURL, cfg.AuthToken)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "config file (default $HABITS_CONFIG or config.yaml)")
}
