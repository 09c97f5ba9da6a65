package di

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-telegram/bot"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	bridgeService "github.com/reshetovitsme/fn-news-bridge/internal/modules/bridge/service"
	feedService "github.com/reshetovitsme/fn-news-bridge/internal/modules/feed/service"
	imageService "github.com/reshetovitsme/fn-news-bridge/internal/modules/image/service"
	newsClient "github.com/reshetovitsme/fn-news-bridge/internal/modules/news/client"
	newsRepo "github.com/reshetovitsme/fn-news-bridge/internal/modules/news/repository"
	newsService "github.com/reshetovitsme/fn-news-bridge/internal/modules/news/service"
	"github.com/reshetovitsme/fn-news-bridge/internal/modules/post/publisher"
	"github.com/reshetovitsme/fn-news-bridge/internal/shared/config"
	sharedErrors "github.com/reshetovitsme/fn-news-bridge/internal/shared/errors"
	"github.com/reshetovitsme/fn-news-bridge/internal/shared/logging"
	"github.com/reshetovitsme/fn-news-bridge/internal/shared/metrics"
	httpServer "github.com/reshetovitsme/fn-news-bridge/internal/transport/http"
	telegramHandler "github.com/reshetovitsme/fn-news-bridge/internal/transport/telegram"
	"github.com/samber/do/v2"
	"github.com/samber/oops"
)

const (
	fetchTimeout = 30 * time.Second
	imageTimeout = 30 * time.Second
)

// Setup initializes the dependency injection container. Config is read from
// configDir.
func Setup(configDir string) (do.Injector, error) {
	injector := do.New()

	// Register Config
	do.Provide(injector, func(i do.Injector) (*config.Config, error) {
		cfg, err := config.Load(configDir)
		if err != nil {
			return nil, oops.With("context", "failed to load config").Wrap(err)
		}
		return cfg, nil
	})

	// Register Logger
	do.Provide(injector, func(i do.Injector) (*slog.Logger, error) {
		cfg := do.MustInvoke[*config.Config](i)
		return logging.Setup(cfg.LogLevel), nil
	})

	// Register Metrics
	do.Provide(injector, func(i do.Injector) (*prometheus.Registry, error) {
		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		return reg, nil
	})

	do.Provide(injector, func(i do.Injector) (*metrics.Collector, error) {
		reg := do.MustInvoke[*prometheus.Registry](i)
		return metrics.NewCollector(reg), nil
	})

	// Register Snapshot Repository
	do.Provide(injector, func(i do.Injector) (newsRepo.Repository, error) {
		cfg := do.MustInvoke[*config.Config](i)
		repo, err := newsRepo.NewFileStorage(cfg.DataDir)
		if err != nil {
			return nil, oops.With("data_dir", cfg.DataDir, "context", "failed to initialize snapshot repository").Wrap(err)
		}
		return repo, nil
	})

	// Register News Client
	do.Provide(injector, func(i do.Injector) (*newsClient.Client, error) {
		cfg := do.MustInvoke[*config.Config](i)
		httpClient := &http.Client{Timeout: fetchTimeout}
		return newsClient.New(httpClient, cfg.FortniteAPI.URL, cfg.FortniteAPI.APIKey, cfg.Language), nil
	})

	// Register Differ
	do.Provide(injector, func(i do.Injector) (*newsService.Differ, error) {
		cfg := do.MustInvoke[*config.Config](i)
		logger := do.MustInvoke[*slog.Logger](i)
		rules := newsService.IgnoreRules{
			Titles:            cfg.IgnoredTitles,
			Bodies:            cfg.IgnoredBodies,
			StopOnIgnoredBody: cfg.StopOnIgnoredBody,
		}
		return newsService.NewDiffer(rules, logger), nil
	})

	// Register Image Downloader
	do.Provide(injector, func(i do.Injector) (*imageService.Downloader, error) {
		return imageService.NewDownloader(imageService.NewSafeHTTPClient(imageTimeout)), nil
	})

	// Register Image Composer, only when enabled
	do.Provide(injector, func(i do.Injector) (*imageService.Composer, error) {
		cfg := do.MustInvoke[*config.Config](i)
		if !cfg.Image.Enabled {
			return nil, oops.With("context", "image composition disabled").Wrap(sharedErrors.ErrPublisherDisabled)
		}
		downloader := do.MustInvoke[*imageService.Downloader](i)
		logger := do.MustInvoke[*slog.Logger](i)
		return imageService.NewComposer(imageService.ComposerConfig{
			Background:  cfg.Image.Background,
			Logo:        cfg.Image.Logo,
			Output:      cfg.Image.Output,
			LogoOffsetY: cfg.Image.LogoOffsetY,
		}, downloader, logger), nil
	})

	// Register Bot, only when Telegram is enabled
	do.Provide(injector, func(i do.Injector) (*bot.Bot, error) {
		cfg := do.MustInvoke[*config.Config](i)
		if !cfg.Telegram.Enabled {
			return nil, oops.With("context", "telegram disabled").Wrap(sharedErrors.ErrPublisherDisabled)
		}
		handler := do.MustInvoke[*telegramHandler.Handler](i)

		opts := []bot.Option{
			bot.WithDefaultHandler(handler.HandleUpdate),
			// getMe runs as the publisher's per-batch authentication instead
			bot.WithSkipGetMe(),
		}

		b, err := bot.New(cfg.Telegram.BotToken, opts...)
		if err != nil {
			return nil, oops.With("context", "failed to create telegram bot").Wrap(err)
		}

		handler.RegisterCommands(b)
		return b, nil
	})

	// Register Publishers
	do.Provide(injector, func(i do.Injector) ([]publisher.Publisher, error) {
		cfg := do.MustInvoke[*config.Config](i)
		logger := do.MustInvoke[*slog.Logger](i)

		var publishers []publisher.Publisher
		if cfg.Twitter.Enabled {
			downloader := do.MustInvoke[*imageService.Downloader](i)
			publishers = append(publishers, publisher.NewTwitter(context.Background(), publisher.TwitterConfig{
				APIKey:       cfg.Twitter.APIKey,
				APISecret:    cfg.Twitter.APISecret,
				AccessToken:  cfg.Twitter.AccessToken,
				AccessSecret: cfg.Twitter.AccessSecret,
			}, downloader, logger))
		}
		if cfg.Telegram.Enabled {
			b, err := do.Invoke[*bot.Bot](i)
			if err != nil {
				return nil, err
			}
			publishers = append(publishers, publisher.NewTelegram(b, cfg.Telegram.ChatID, logger))
		}

		if len(publishers) == 0 {
			logger.Warn("No publisher enabled, new items will only be logged")
		}
		return publishers, nil
	})

	// Register Bridge Service
	do.Provide(injector, func(i do.Injector) (*bridgeService.Service, error) {
		cfg := do.MustInvoke[*config.Config](i)
		logger := do.MustInvoke[*slog.Logger](i)

		publishers, err := do.Invoke[[]publisher.Publisher](i)
		if err != nil {
			return nil, err
		}

		var composer bridgeService.Composer
		if cfg.Image.Enabled {
			composer = do.MustInvoke[*imageService.Composer](i)
		}

		return bridgeService.New(
			bridgeService.Options{
				Modes:          cfg.EnabledModes(),
				Hashtags:       cfg.Hashtags,
				UpdateInterval: time.Duration(cfg.UpdateInterval) * time.Second,
				PostsPerMinute: cfg.PostsPerMinute,
			},
			do.MustInvoke[*newsClient.Client](i),
			do.MustInvoke[newsRepo.Repository](i),
			do.MustInvoke[*newsService.Differ](i),
			publishers,
			composer,
			do.MustInvoke[*metrics.Collector](i),
			logger,
		), nil
	})

	// Register Feed Service
	do.Provide(injector, func(i do.Injector) (*feedService.Service, error) {
		cfg := do.MustInvoke[*config.Config](i)
		repo := do.MustInvoke[newsRepo.Repository](i)
		return feedService.New(repo, cfg.Hashtags, do.MustInvoke[*slog.Logger](i)), nil
	})

	// Register Telegram Handler
	do.Provide(injector, func(i do.Injector) (*telegramHandler.Handler, error) {
		cfg := do.MustInvoke[*config.Config](i)
		repo := do.MustInvoke[newsRepo.Repository](i)
		return telegramHandler.New(cfg, repo, do.MustInvoke[*slog.Logger](i)), nil
	})

	// Register HTTP Server
	do.Provide(injector, func(i do.Injector) (*httpServer.Server, error) {
		cfg := do.MustInvoke[*config.Config](i)
		feedService := do.MustInvoke[*feedService.Service](i)
		reg := do.MustInvoke[*prometheus.Registry](i)
		server := httpServer.New(cfg, feedService, reg)
		server.SetLogger(do.MustInvoke[*slog.Logger](i))
		return server, nil
	})

	return injector, nil
}

// Shutdown gracefully shuts down all services
func Shutdown(injector do.Injector) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Stop the bridge loop first so no cycle is writing snapshots
	if bridge, err := do.Invoke[*bridgeService.Service](injector); err == nil && bridge != nil {
		bridge.Stop()
	}

	if server, err := do.Invoke[*httpServer.Server](injector); err == nil && server != nil {
		if err := server.Shutdown(ctx); err != nil {
			return oops.With("context", "failed to stop http server").Wrap(err)
		}
	}

	return nil
}
