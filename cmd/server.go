package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/brk3/habitboard/internal/config"
	"github.com/brk3/habitboard/internal/logger"
	"github.com/brk3/habitboard/internal/server"
	"github.com/brk3/habitboard/internal/storage"
	"github.com/brk3/habitboard/internal/storage/bolt"
	"github.com/brk3/habitboard/internal/storage/jsonfile"
	"github.com/brk3/habitboard/internal/storage/sqlite"
	"github.com/spf13/cobra"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the HTTP API server",
	RunE:  runServer,
}

func init() {
	rootCmd.AddCommand(serverCmd)
}

func runServer(cmd *cobra.Command, _ []string) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	st, err := openStore(cfg.Storage)
	if err != nil {
		return err
	}
	defer func() {
		if err := st.Close(); err != nil {
			logger.Error("Failed to close store", "error", err)
		}
	}()
	logger.Info("Opened store", "backend", cfg.Storage.Backend, "path", cfg.Storage.Path)

	srv, err := server.New(cfg, st)
	if err != nil {
		return fmt.Errorf("error creating server: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return srv.ListenAndServe(ctx)
}

func openStore(sc config.StorageConfig) (storage.Store, error) {
	var (
		st  storage.Store
		err error
	)
	switch sc.Backend {
	case "bolt":
		st, err = bolt.Open(sc.Path)
	case "sqlite":
		st, err = sqlite.Open(sc.Path)
	case "json":
		st, err = jsonfile.Open(sc.Path)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", sc.Backend)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", sc.Backend, err)
	}
	return st, nil
}
