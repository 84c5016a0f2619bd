package api

import (
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/DSACMS/process-information-api/api/middleware"
	"github.com/DSACMS/process-information-api/api/routes"
	"github.com/DSACMS/process-information-api/pkg/circuitbreaker"
	"github.com/DSACMS/process-information-api/pkg/core"
	"github.com/DSACMS/process-information-api/pkg/templates"
	"github.com/DSACMS/process-information-api/pkg/workbook"

	"go.opentelemetry.io/otel/codes"

	"github.com/goccy/go-json"
	"github.com/gofiber/contrib/otelfiber/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	slogfiber "github.com/samber/slog-fiber"
)

const requestIDKey = "requestid"

func errorHandler(logger *slog.Logger, otel core.OtelService) fiber.ErrorHandler {
	handleFiberError := func(ctx *fiber.Ctx, err *fiber.Error) error {
		span := otel.SpanFromContext(ctx.UserContext())
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Message)

		logger.Error(
			"Fiber Error",
			"Code",
			err.Code,
			"Message",
			err.Message,
		)

		return ctx.
			Status(err.Code).
			SendString(err.Message)
	}

	return func(ctx *fiber.Ctx, err error) error {
		var e *fiber.Error
		if !errors.As(err, &e) {
			e = fiber.ErrInternalServerError
		}
		return handleFiberError(ctx, e)
	}
}

func stackTraceHandler(logger *slog.Logger) func(*fiber.Ctx, any) {
	return func(c *fiber.Ctx, e any) {
		stack := debug.Stack()
		logger.ErrorContext(
			c.UserContext(),
			"panic!",
			"stack",
			stack,
			"err",
			e,
		)
	}
}

// forwardRequestID copies the generated id onto the request so slog-fiber
// logs the same id that is returned to the caller.
func forwardRequestID(c *fiber.Ctx) error {
	if id, ok := c.Locals(requestIDKey).(string); ok && c.Get(fiber.HeaderXRequestID) == "" {
		c.Request().Header.Set(fiber.HeaderXRequestID, id)
	}
	return c.Next()
}

type Config struct {
	Otel      core.OtelService
	Logger    *slog.Logger
	Store     templates.Store
	Populator workbook.TablePopulator
	// Redis and Breaker are nil unless the storage breaker is enabled.
	Redis   *redis.Client
	Breaker circuitbreaker.Breaker
	core.Config
}

func New(cfg *Config) (*fiber.App, error) {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Otel == nil {
		cfg.Otel = core.NewNoopOtelService()
	}
	if cfg.Store == nil {
		return nil, errors.New("template store is required")
	}
	if cfg.Populator == nil {
		cfg.Populator = workbook.New(workbook.Options{Logger: cfg.Logger})
	}

	fiberConfig := fiber.Config{
		AppName:      core.ServiceName,
		ErrorHandler: errorHandler(cfg.Logger, cfg.Otel),
		BodyLimit:    cfg.BodyLimit,
		JSONEncoder:  json.Marshal,
		JSONDecoder:  json.Unmarshal,
	}

	app := fiber.New(fiberConfig)

	app.Use(recover.New(recover.Config{
		Next:              nil,
		EnableStackTrace:  true,
		StackTraceHandler: stackTraceHandler(cfg.Logger),
	}))

	app.Use(requestid.New(requestid.Config{
		Generator:  uuid.NewString,
		ContextKey: requestIDKey,
	}))
	app.Use(forwardRequestID)

	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "*",
		AllowMethods: "GET,POST,OPTIONS",
	}))

	app.Use(otelfiber.Middleware())

	app.Use(slogfiber.NewWithConfig(
		cfg.Logger,
		slogfiber.Config{
			WithRequestID: true,
			WithSpanID:    true,
			WithTraceID:   true,
		},
	))

	var auth fiber.Handler
	if !cfg.SkipAuth {
		verifier, err := middleware.NewTokenVerifier(middleware.VerifierConfig{
			Issuer:   cfg.Auth.Issuer,
			JWKSURL:  cfg.Auth.JWKSURL,
			ClientID: cfg.Auth.ClientID,
			Header:   cfg.Auth.Header,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to initialize auth middleware: %w", err)
		}
		auth = verifier.FiberMiddleware()
	}

	routes.StatusRouter(app, cfg.Redis, cfg.Breaker, cfg.Logger)
	routes.RegisterRoutes(app, &cfg.Config, cfg.Store, cfg.Populator, auth, cfg.Logger)

	return app, nil
}
