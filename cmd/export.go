package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/brk3/habitboard/internal/server"
	"github.com/spf13/cobra"
)

var exportOutput string

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write all habits as JSON",
	Long: `The "export" command writes your whole habit collection, completion
history included, in the format "import" reads.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		habits, err := newClient().ListHabits(cmd.Context())
		if err != nil {
			return err
		}

		var w io.Writer = cmd.OutOrStdout()
		if exportOutput != "" && exportOutput != "-" {
			f, err := os.Create(exportOutput)
			if err != nil {
				return fmt.Errorf("create export file: %w", err)
			}
			defer f.Close()
			w = f
		}

		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(server.RestoreRequest{Habits: habits}); err != nil {
			return fmt.Errorf("write export: %w", err)
		}
		if exportOutput != "" && exportOutput != "-" {
			cmd.Printf("Exported %d habits to %s\n", len(habits), exportOutput)
		}
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "file to write (default stdout)")
	rootCmd.AddCommand(exportCmd)
}
