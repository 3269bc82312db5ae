package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/brk3/habitboard/internal/server"
	"github.com/spf13/cobra"
)

var importCmd = &cobra.Command{
	Use:   "import FILE",
	Short: "Replace all habits with those in an export file",
	Long: `The "import" command replaces your whole habit collection with the one
in FILE, as written by "export". Use - to read from stdin. Nothing is
changed if any habit in the file is invalid.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var r io.Reader = cmd.InOrStdin()
		if args[0] != "-" {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("open import file: %w", err)
			}
			defer f.Close()
			r = f
		}

		var req server.RestoreRequest
		if err := json.NewDecoder(r).Decode(&req); err != nil {
			return fmt.Errorf("read import file: %w", err)
		}
		habits, err := newClient().RestoreHabits(cmd.Context(), req.Habits)
		if err != nil {
			return err
		}
		cmd.Printf("Imported %d habits\n", len(habits))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(importCmd)
}
