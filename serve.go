package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"agent-scheduler/config"
	"agent-scheduler/logging"
	"agent-scheduler/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the scheduling HTTP service",
	Long:  "Start the HTTP API that computes schedules on demand. Configuration comes from the environment (AGENTSCHED_* variables) and an optional YAML config file.",
	RunE:  runServe,
}

func runServe(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := logging.Setup(cfg.Environment)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return server.New(cfg, logger).Run(ctx)
}
