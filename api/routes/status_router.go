package routes

import (
	"log/slog"

	"github.com/DSACMS/process-information-api/api/handlers"
	"github.com/DSACMS/process-information-api/pkg/circuitbreaker"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

// StatusRouter mounts /status. rdb and breaker are nil when the storage
// breaker is disabled.
func StatusRouter(app fiber.Router, rdb *redis.Client, breaker circuitbreaker.Breaker, logger *slog.Logger) {
	app.Get("/status", handlers.GetStatus(rdb, breaker, logger))
}
