// File: cmd/app/main.go
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"ddns-telegram-relay/internal/application"
	"ddns-telegram-relay/internal/config"
	"ddns-telegram-relay/internal/domain/ports/adapter"
	"ddns-telegram-relay/internal/domain/ports/repository"
	tele "ddns-telegram-relay/internal/infra/adapters/telegram"
	"ddns-telegram-relay/internal/infra/api"
	pg "ddns-telegram-relay/internal/infra/db/postgres"
	adminhttp "ddns-telegram-relay/internal/infra/http"
	"ddns-telegram-relay/internal/infra/i18n"
	"ddns-telegram-relay/internal/infra/kv"
	"ddns-telegram-relay/internal/infra/logging"
	"ddns-telegram-relay/internal/infra/metrics"
	red "ddns-telegram-relay/internal/infra/redis"
	"ddns-telegram-relay/internal/infra/security"
	"ddns-telegram-relay/internal/usecase"
)

// Set with -ldflags "-X main.version=... -X main.commit=...".
var (
	version = "dev"
	commit  = "none"
)

const shutdownTimeout = 10 * time.Second

func main() {
	os.Exit(run())
}

func run() int {
	// ---- CLI flags ----
	cfgPath := flag.String("config", "", "optional path to YAML config file")
	devMode := flag.Bool("dev", false, "console logs; log DDNS notifications instead of sending them")
	flag.Parse()

	boot := zerolog.New(os.Stderr).With().Timestamp().Logger()

	cfg, err := config.Load(*cfgPath, *devMode)
	if err != nil {
		var cerr *config.ConfigError
		if errors.As(err, &cerr) {
			boot.Error().Str("field", cerr.Field).Msg(cerr.Error())
		} else {
			boot.Error().Err(err).Msg("config")
		}
		return 1
	}

	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		logger.Warn().Msg("[DEV MODE] DDNS notifications are logged, not sent")
	}

	metrics.MustRegister()
	metrics.SetBuildInfo(version, commit)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ---- Storage ----
	store, cache, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		logger.Error().Err(err).Str("driver", cfg.Storage.Driver).Msg("storage")
		return 1
	}
	defer closeStore()

	ids, err := security.NewHookIDGenerator(cfg.Hook.IDStyle)
	if err != nil {
		logger.Error().Err(err).Msg("hook id generator")
		return 1
	}
	var bindings repository.BindingRepository = kv.NewBindingRepo(store, ids)
	if cache != nil {
		bindings = pg.NewBindingRepoCacheDecorator(bindings, cache, cfg.Redis.TTL, cfg.Redis.KeyPrefix, logger)
	}

	tr, err := i18n.NewTranslator(i18n.LocalesFS, cfg.Bot.Language)
	if err != nil {
		logger.Error().Err(err).Msg("i18n")
		return 1
	}

	// ---- Use cases ----
	hookUC := usecase.NewHookUseCase(bindings, cfg.Server.BaseURL, cfg.Server.DDNSPrefix, cfg.Runtime.Dev, logger)
	facade := application.NewBotFacade(hookUC, tr)

	// ---- Telegram ----
	bot, err := tele.NewRealTelegramBotAdapter(&cfg.Bot, facade, logger)
	if err != nil {
		logger.Error().Err(err).Msg("telegram")
		return 1
	}
	logger.Info().Str("bot", bot.Username()).Msg("telegram bot authorized")

	var notifier adapter.TelegramBotAdapter = bot
	if cfg.Runtime.Dev {
		notifier = tele.NewNoopBotAdapter(logger)
	}
	relayUC := usecase.NewRelayUseCase(bindings, notifier, usecase.NewReportFormatter(tr), logger)

	// ---- Public HTTP ----
	public := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           api.NewServer(cfg, relayUC, bot, logger).Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	errc := make(chan error, 2)
	go func() {
		logger.Info().Str("addr", public.Addr).
			Str("telegram_path", cfg.Bot.WebhookPath).
			Str("ddns_prefix", cfg.Server.DDNSPrefix).
			Msg("public server listening")
		if err := public.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- fmt.Errorf("public server: %w", err)
		}
	}()

	// ---- Admin HTTP ----
	var admin *adminhttp.Server
	if cfg.Admin.Port != 0 {
		admin = adminhttp.NewServer(cfg, store, logger)
		go func() {
			if err := admin.Start(); err != nil {
				errc <- fmt.Errorf("admin server: %w", err)
			}
		}()
	}

	// ---- Telegram webhook registration ----
	if cfg.Bot.ShouldSetWebhook() {
		if _, err := bot.SetWebhook(ctx, cfg.TelegramWebhookURL()); err != nil {
			logger.Error().Err(err).Msg("telegram setWebhook")
			shutdown(logger, public, admin)
			return 1
		}
	}

	// ---- Graceful shutdown ----
	code := 0
	select {
	case <-ctx.Done():
		logger.Info().Msg("shutdown requested")
	case err := <-errc:
		logger.Error().Err(err).Msg("server stopped")
		code = 1
	}
	shutdown(logger, public, admin)
	return code
}

func shutdown(logger *zerolog.Logger, public *http.Server, admin *adminhttp.Server) {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := public.Shutdown(ctx); err != nil {
		logger.Warn().Err(err).Msg("public server shutdown")
	}
	if admin != nil {
		if err := admin.Shutdown(ctx); err != nil {
			logger.Warn().Err(err).Msg("admin server shutdown")
		}
	}
}

// openStore returns the KV backend selected by storage.driver and, for
// postgres with redis configured, a Redis client for the resolve cache.
func openStore(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) (repository.KV, red.RedisClient, func(), error) {
	switch cfg.Storage.Driver {
	case "redis":
		c, err := red.NewClient(ctx, &cfg.Redis)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("redis: %w", err)
		}
		logger.Info().Msg("storage: redis")
		return red.NewKVStore(c, cfg.Redis.KeyPrefix), nil, func() { _ = c.Close() }, nil

	case "postgres":
		pool, err := pg.Connect(ctx, cfg.Database.URL, cfg.Database.MaxConns)
		if err != nil {
			return nil, nil, nil, err
		}
		if err := pg.EnsureSchema(ctx, pool); err != nil {
			pool.Close()
			return nil, nil, nil, fmt.Errorf("postgres schema: %w", err)
		}
		store := pg.NewKVStore(pool, pg.NewTxManager(pool))
		closeFn := pool.Close
		logger.Info().Msg("storage: postgres")

		if cfg.Redis.URL == "" {
			return store, nil, closeFn, nil
		}
		c, err := red.NewClient(ctx, &cfg.Redis)
		if err != nil {
			// cache is optional
			logger.Warn().Err(err).Msg("redis cache unavailable")
			return store, nil, closeFn, nil
		}
		logger.Info().Dur("ttl", cfg.Redis.TTL).Msg("hook resolve cache: redis")
		return store, c, func() { _ = c.Close(); pool.Close() }, nil

	default:
		logger.Warn().Msg("storage: memory (dev only); bindings are lost on restart")
		return kv.NewMemoryStore(), nil, func() {}, nil
	}
}
