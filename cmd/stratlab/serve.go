package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the stratlab HTTP API",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	if logLevel == "" && !debug {
		logLevel = "info"
	}
	a, log, err := setup(nil)
	if log != nil {
		defer log.Sync()
	}
	if err != nil {
		return err
	}

	cfg := a.Config()
	log.Info("starting stratlab server",
		zap.String("host", cfg.Server.Host),
		zap.Int("port", cfg.Server.Port),
		zap.String("source", cfg.Data.Source),
		zap.Bool("auth", cfg.Server.APIKey != ""),
	)

	server, err := a.Server()
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	// Wait for a shutdown signal or a listener failure.
	select {
	case err := <-errCh:
		return err
	case <-cmd.Context().Done():
	}

	log.Info("shutting down stratlab server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	return server.Shutdown(ctx)
}
