package handlers

import (
	"context"
	"log/slog"
	"time"

	"github.com/DSACMS/process-information-api/pkg/circuitbreaker"
	redisLocal "github.com/DSACMS/process-information-api/pkg/redis"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

const statusTimeout = 2 * time.Second

type StatusResponse struct {
	Status  string `json:"status"`
	Breaker string `json:"breaker,omitempty"`
}

// GetStatus reports readiness. With the storage breaker enabled it also
// pings Redis, which holds the breaker state.
func GetStatus(rdb *redis.Client, breaker circuitbreaker.Breaker, logger *slog.Logger) fiber.Handler {
	if logger == nil {
		logger = slog.Default()
	}

	return func(c *fiber.Ctx) error {
		if rdb == nil {
			return c.JSON(StatusResponse{Status: "ok"})
		}

		ctx, cancel := context.WithTimeout(c.UserContext(), statusTimeout)
		defer cancel()

		if err := redisLocal.Ping(ctx, rdb); err != nil {
			logger.WarnContext(ctx, "status: redis unreachable", "err", err)
			return fiber.NewError(fiber.StatusServiceUnavailable, "redis unreachable")
		}

		resp := StatusResponse{Status: "ok"}
		if breaker != nil {
			state, err := breaker.State(ctx)
			if err != nil {
				return fiber.NewError(fiber.StatusServiceUnavailable, "breaker state unavailable")
			}
			resp.Breaker = string(state)
		}

		return c.JSON(resp)
	}
}
