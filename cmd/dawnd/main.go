// Command dawnd runs the distributed Wi-Fi client-steering decision
// engine: one process per AP, talking to its local radio manager,
// replicating decisions to its peers, and exposing the control
// surface on the configured address.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/lcalzada-xor/dawnd/internal/app"
	"github.com/lcalzada-xor/dawnd/internal/config"
	"github.com/lcalzada-xor/dawnd/internal/telemetry"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	slog.Info("dawnd starting")

	shutdownTracer, err := telemetry.InitTracer()
	if err != nil {
		slog.Error("tracer initialization failed", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := shutdownTracer(context.Background()); err != nil {
			slog.Error("tracer shutdown failed", "error", err)
		}
	}()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("configuration load failed", "error", err)
		os.Exit(1)
	}

	engine, err := app.New(cfg, logger)
	if err != nil {
		slog.Error("engine bootstrap failed", "error", err)
		os.Exit(1)
	}

	if err := engine.Run(ctx); err != nil {
		slog.Error("dawnd exited with error", "error", err)
		os.Exit(1)
	}

	slog.Info("dawnd stopped")
}
