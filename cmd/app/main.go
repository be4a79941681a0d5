// File: cmd/app/main.go
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"telegram-user-bot/internal/config"
	"telegram-user-bot/internal/domain/ports/adapter"
	tele "telegram-user-bot/internal/infra/adapters/telegram"
	pg "telegram-user-bot/internal/infra/db/postgres"
	httpapi "telegram-user-bot/internal/infra/http"
	"telegram-user-bot/internal/infra/i18n"
	"telegram-user-bot/internal/infra/logging"
	"telegram-user-bot/internal/infra/metrics"
	red "telegram-user-bot/internal/infra/redis"
	"telegram-user-bot/internal/infra/worker"
	"telegram-user-bot/internal/usecase"
)

// set via -ldflags "-X main.version=... -X main.commit=..."
var (
	version = "dev"
	commit  = "none"
)

func main() {
	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode (console logs, no-op bot without a token)")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if err := run(cfg, logger); err != nil {
		logger.Fatal().Err(err).Msg("bot stopped with error")
	}
}

func run(cfg *config.Config, logger *zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Runtime.Dev {
		logger.Warn().Msg("[DEV MODE] enabled")
	}

	// ---- Metrics ----
	metrics.MustRegister()
	metrics.SetBuildInfo(version, commit)

	// ---- Postgres ----
	pool, err := pg.NewPgxPool(ctx, cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("postgres: %w", err)
	}
	defer pool.Close()

	if cfg.Database.MigrateOnStart() {
		if err := pg.Migrate(cfg.Database.DSN(), logger); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	go pg.ReportPoolStats(ctx, pool, 15*time.Second)

	checks := []httpapi.ReadinessCheck{pg.NewReadinessChecker(pool)}

	// ---- Use cases ----
	userRepo := pg.NewPostgresUserRepo(pool)
	txManager := pg.NewTxManager(pool)
	directory := usecase.NewUserDirectory(userRepo, txManager, logger)

	if n, err := directory.Count(ctx); err == nil {
		logger.Info().Int("users", n).Msg("user directory ready")
	}

	// ---- Redis (optional) ----
	var limiter *red.RateLimiter
	if cfg.Redis.URL != "" {
		redisClient, err := red.NewClient(ctx, cfg.Redis)
		if err != nil {
			return fmt.Errorf("redis: %w", err)
		}
		defer redisClient.Close()
		limiter = red.NewRateLimiter(redisClient)
		checks = append(checks, redisClient)
	} else {
		logger.Info().Msg("redis.url not set; rate limiting disabled")
	}

	// ---- i18n ----
	translator, err := i18n.NewTranslator(i18n.LocalesFS, cfg.Bot.Language)
	if err != nil {
		return fmt.Errorf("i18n: %w", err)
	}

	// ---- Telegram ----
	var (
		botAdapter adapter.TelegramBotAdapter
		realBot    *tele.RealTelegramBotAdapter
	)
	if cfg.Bot.Token == "" && cfg.Runtime.Dev {
		logger.Warn().Msg("bot.token empty in dev mode; using no-op bot adapter")
		botAdapter = tele.NewNoopBotAdapter(logger)
	} else {
		realBot, err = tele.NewRealTelegramBotAdapter(cfg.Bot, logger)
		if err != nil {
			return fmt.Errorf("telegram: %w", err)
		}
		botAdapter = realBot
	}

	router := tele.NewRouter(botAdapter, translator, logger)
	dispatcher := tele.NewDispatcher(router, tele.NewErrorHandler(logger, cfg.Runtime.Dev), logger)
	if limiter != nil {
		dispatcher.Use(tele.NewRateLimitMiddleware(limiter, botAdapter, translator, cfg.Redis.RateLimit, cfg.Redis.RateWindow, logger))
	}
	dispatcher.UseInner(tele.NewUserMiddleware(directory, logger))

	// Workers outlive the signal context so queued updates can drain.
	workCtx, cancelWork := context.WithCancel(context.Background())
	defer cancelWork()
	workers := worker.NewPool(cfg.Bot.Workers, logger)
	workers.Start(workCtx)
	intake := tele.NewIntake(dispatcher, workers, cfg.Bot.RequestTimeout, logger)

	// ---- Admin HTTP ----
	server := httpapi.NewServer(cfg, logger, checks...)
	if realBot != nil && cfg.Bot.Mode == "webhook" {
		server.Mount(cfg.Bot.WebhookPath, realBot.WebhookHandler(intake))
	}
	serverErr := make(chan error, 1)
	go func() { serverErr <- server.Start() }()

	// ---- Updates ----
	pollErr := make(chan error, 1)
	switch {
	case realBot == nil:
		logger.Info().Msg("no telegram transport; serving admin endpoints only")
	case cfg.Bot.Mode == "webhook":
		if err := realBot.SetWebhook(cfg.Bot.WebhookURL); err != nil {
			return fmt.Errorf("set webhook: %w", err)
		}
	default:
		if err := realBot.DeleteWebhook(); err != nil {
			logger.Warn().Err(err).Msg("failed to delete webhook before polling")
		}
		go func() { pollErr <- realBot.StartPolling(ctx, intake) }()
	}

	logger.Info().Str("mode", cfg.Bot.Mode).Str("version", version).Msg("bot started")

	var runErr error
	select {
	case <-ctx.Done():
		logger.Info().Msg("shutdown requested")
	case err := <-serverErr:
		runErr = fmt.Errorf("admin server: %w", err)
	case err := <-pollErr:
		if err != nil && !errors.Is(err, context.Canceled) {
			runErr = fmt.Errorf("polling: %w", err)
		}
	}
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn().Err(err).Msg("admin server shutdown")
	}
	workers.Stop()
	logger.Info().Msg("bye")
	return runErr
}
