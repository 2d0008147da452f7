package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/peercam/peercam/internal/core"
)

const shutdownTimeout = 5 * time.Second

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the video-chat node",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runNode()
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runNode() error {
	slog.Info("starting peercam node", "config", configPath, "debug", debug)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	node, err := core.NewNode(configPath)
	if err != nil {
		return fmt.Errorf("failed to create node: %w", err)
	}

	if err := node.StartHealthServer(node.HealthPort()); err != nil {
		return fmt.Errorf("failed to start health server: %w", err)
	}

	errChan := make(chan error, 1)
	go func() {
		errChan <- node.Run(ctx)
	}()

	select {
	case sig := <-sigChan:
		slog.Info("received shutdown signal", "signal", sig)
		cancel()
	case err := <-errChan:
		if err != nil {
			slog.Error("node error", "error", err)
			return err
		}
		slog.Info("node stopped")
		return nil
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := node.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}

	slog.Info("peercam node stopped")
	return nil
}
