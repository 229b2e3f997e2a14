/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/friendsincode/romcatalog/internal/config"
	"github.com/friendsincode/romcatalog/internal/logging"
	"github.com/friendsincode/romcatalog/internal/server"
	"github.com/friendsincode/romcatalog/internal/telemetry"
	"github.com/friendsincode/romcatalog/internal/version"
)

var (
	logger zerolog.Logger
	cfg    *config.Config
)

var rootCmd = &cobra.Command{
	Use:     "romcatalog",
	Short:   "romcatalog - ROM metadata catalog",
	Long:    "romcatalog identifies ROM images by CRC, merges metadata from the ROM database, user overrides and file names, and tracks the support files of every program.",
	Version: version.String(),
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the catalog HTTP API",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig loads configuration (called by commands that need it)
func loadConfig() error {
	var err error
	cfg, err = config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger = logging.Setup(cfg.Environment)
	return nil
}

// openServer loads configuration, starts tracing and wires the catalog. The
// returned cleanup closes everything in reverse order.
func openServer(ctx context.Context) (*server.Server, func(), error) {
	if err := loadConfig(); err != nil {
		return nil, nil, err
	}

	tracerProvider, err := telemetry.InitTracer(ctx, telemetry.TracerConfig{
		ServiceName:    "romcatalog",
		ServiceVersion: version.Version,
		OTLPEndpoint:   cfg.OTLPEndpoint,
		Enabled:        cfg.TracingEnabled,
		SampleRate:     cfg.TracingSampleRate,
	}, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("initialize tracer: %w", err)
	}

	srv, err := server.New(ctx, cfg, logger)
	if err != nil {
		_ = tracerProvider.Shutdown(context.Background())
		return nil, nil, fmt.Errorf("initialize server: %w", err)
	}

	cleanup := func() {
		if err := srv.Close(); err != nil {
			logger.Error().Err(err).Msg("shutdown cleanup failed")
		}
		if err := tracerProvider.Shutdown(context.Background()); err != nil {
			logger.Error().Err(err).Msg("failed to shutdown tracer provider")
		}
	}
	return srv, cleanup, nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	srv, cleanup, err := openServer(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	logger.Info().Str("version", version.Version).Msg("romcatalog starting")
	if err := srv.ListenAndServe(ctx); err != nil {
		return err
	}
	logger.Info().Msg("romcatalog stopped")
	return nil
}
