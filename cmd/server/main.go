package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-telegram/bot"
	"github.com/reshetovitsme/fn-news-bridge/internal/di"
	bridgeService "github.com/reshetovitsme/fn-news-bridge/internal/modules/bridge/service"
	"github.com/reshetovitsme/fn-news-bridge/internal/shared/config"
	"github.com/reshetovitsme/fn-news-bridge/internal/shared/logging"
	httpServer "github.com/reshetovitsme/fn-news-bridge/internal/transport/http"
	"github.com/samber/do/v2"
)

func main() {
	logging.Setup("info")

	// Setup dependency injection
	injector, err := di.Setup(".")
	if err != nil {
		slog.Error("Failed to setup dependency injection", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := di.Shutdown(injector); err != nil {
			slog.Error("Error during shutdown", "error", err)
		}
	}()

	cfg, err := do.Invoke[*config.Config](injector)
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	logger := do.MustInvoke[*slog.Logger](injector)
	bridge := do.MustInvoke[*bridgeService.Service](injector)
	server := do.MustInvoke[*httpServer.Server](injector)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Start the fetch, diff and publish loop
	bridge.Start(ctx)

	// Start HTTP server
	go func() {
		if err := server.Start(); err != nil {
			logger.Error("Failed to start HTTP server", "error", err)
			cancel()
		}
	}()

	// Answer bot commands when Telegram is enabled
	if cfg.Telegram.Enabled {
		b := do.MustInvoke[*bot.Bot](injector)
		go b.Start(ctx)
	}

	logger.Info("Application started", "port", cfg.HTTPPort, "config", cfg.String())
	logger.Info("Press Ctrl+C to stop")

	<-ctx.Done()
	logger.Info("Shutting down...")
}
