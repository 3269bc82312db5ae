package cmd

import (
	"github.com/brk3/habitboard/pkg/versioninfo"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Long: `The "version" command displays the current version info for both client
and server if available.`,
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Printf("Client Version: %s (built %s)\n", versioninfo.Version, versioninfo.BuildDate)

		v, err := newClient().Version(cmd.Context())
		if err != nil {
			cmd.Println("Error fetching server version:", err)
			return
		}
		cmd.Printf("Server Version: %s (built %s)\n", v.Version, v.BuildDate)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
