package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/DSACMS/process-information-api/api"
	"github.com/DSACMS/process-information-api/pkg/circuitbreaker"
	"github.com/DSACMS/process-information-api/pkg/core"
	"github.com/DSACMS/process-information-api/pkg/redis"
	"github.com/DSACMS/process-information-api/pkg/templates"
	"github.com/DSACMS/process-information-api/pkg/workbook"

	"github.com/gofiber/fiber/v2"
)

const breakerName = "template-store"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	bootLogger := core.NewLogger(core.DefaultConfig())

	if err := core.LoadEnv(); err != nil {
		bootLogger.Warn("Error loading env files", "err", err)
	}

	cfg, err := core.NewConfigFromEnv()
	if err != nil {
		bootLogger.Error("Error reading config from env", "err", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		bootLogger.Error("Invalid config", "err", err)
		os.Exit(1)
	}

	otel, err := core.NewOtelService(ctx, &cfg)
	if err != nil {
		bootLogger.Error("Error initializing otel", "err", err)
		otel = core.NewNoopOtelService()
	}
	logger := core.NewLoggerWithOtel(cfg, otel)
	defer otel.Shutdown(context.Background(), logger)

	app, err := buildApp(ctx, cfg, otel, logger)
	if err != nil {
		logger.Error("Failed to build app", "err", err)
		return
	}

	logger.Info("Starting server", "addr", cfg.Addr(), "environment", cfg.Environment)

	if err := runServer(ctx, app, cfg.Addr()); err != nil {
		logger.Error("server error", "err", err)
	}
}

func buildApp(ctx context.Context, cfg core.Config, otel core.OtelService, logger *slog.Logger) (*fiber.App, error) {
	appCfg := &api.Config{
		Otel:      otel,
		Logger:    logger,
		Populator: workbook.New(workbook.Options{Logger: logger}),
		Config:    cfg,
	}

	store, err := newTemplateStore(ctx, &cfg, logger)
	if err != nil {
		return nil, err
	}

	if cfg.Breaker.Enabled {
		rdb := redis.NewClient(cfg.Redis, logger)
		if err := redis.Ping(ctx, rdb); err != nil {
			// the breaker fails open, so a cold redis only costs protection
			logger.Warn("Redis unreachable at startup", "addr", cfg.Redis.Addr, "err", err)
		}

		breaker := circuitbreaker.NewRedisBreaker(rdb, breakerName, circuitbreaker.DefaultOptions(), logger)
		store = templates.NewBreakerStore(store, breaker, logger)

		appCfg.Redis = rdb
		appCfg.Breaker = breaker
	}
	appCfg.Store = store

	return api.New(appCfg)
}

func newTemplateStore(ctx context.Context, cfg *core.Config, logger *slog.Logger) (templates.Store, error) {
	if cfg.Template.Store == "local" {
		return templates.NewFileStore(cfg.Template.Dir, cfg.Template.Container, cfg.Template.Blob, logger), nil
	}

	store, err := templates.NewAzureStore(
		ctx,
		templates.NewConfigProvider(cfg, nil),
		templates.Options{Logger: logger},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize template store: %w", err)
	}
	return store, nil
}

func runServer(ctx context.Context, app *fiber.App, addr string) error {
	srvErr := make(chan error, 1)

	go func() {
		srvErr <- app.Listen(addr)
	}()

	select {
	case err := <-srvErr:
		return err
	case <-ctx.Done():
	}

	if err := app.ShutdownWithTimeout(5 * time.Second); err != nil {
		return fmt.Errorf("error during shutdown: %w", err)
	}
	return nil
}
