package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/reshetovitsme/fn-news-bridge/internal/di"
	bridgeService "github.com/reshetovitsme/fn-news-bridge/internal/modules/bridge/service"
	"github.com/reshetovitsme/fn-news-bridge/internal/shared/config"
	"github.com/reshetovitsme/fn-news-bridge/internal/shared/logging"
	"github.com/samber/do/v2"
)

func main() {
	os.Exit(run())
}

func run() int {
	logging.Setup("info")

	injector, err := di.Setup(".")
	if err != nil {
		slog.Error("Failed to setup dependency injection", "error", err)
		return 1
	}

	cfg, err := do.Invoke[*config.Config](injector)
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		return 1
	}

	bridge, err := do.Invoke[*bridgeService.Service](injector)
	if err != nil {
		slog.Error("Failed to initialize the bridge", "error", err)
		return 1
	}
	logger := do.MustInvoke[*slog.Logger](injector)
	logger.Info("Configuration loaded", "config", cfg.String())

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	report, err := bridge.RunOnce(ctx)
	if ctx.Err() != nil {
		logger.Info("Exiting")
		return 0
	}
	if err != nil {
		logger.Error("Failed to run the news bridge", "error", err)
		return 1
	}

	for mode, mr := range report.Modes {
		logger.Info("Mode finished",
			"run_id", report.RunID,
			"mode", mode,
			"seeded", mr.Seeded,
			"new", mr.New,
			"published", mr.Published,
			"failed", mr.Failed,
			"saved", mr.Saved,
		)
	}
	return 0
}
