package routes

import (
	"log/slog"

	"github.com/DSACMS/process-information-api/api/handlers"
	"github.com/DSACMS/process-information-api/pkg/core"
	"github.com/DSACMS/process-information-api/pkg/templates"
	"github.com/DSACMS/process-information-api/pkg/workbook"
	"github.com/gofiber/fiber/v2"
)

// RegisterRoutes mounts the index and the workbook endpoint. auth guards
// the /api group and may be nil when the platform handles authentication.
func RegisterRoutes(
	app fiber.Router,
	cfg *core.Config,
	store templates.Store,
	populator workbook.TablePopulator,
	auth fiber.Handler,
	logger *slog.Logger,
) {
	if logger == nil {
		logger = slog.Default()
	}

	app.Get("/", func(c *fiber.Ctx) error {
		return c.SendString("OK")
	})

	api := app.Group("/api")
	if auth != nil {
		api.Use(auth)
	}

	processInformation := handlers.ProcessInformationHandler(cfg, store, populator, logger)

	api.Get("/ProcessInformation", processInformation)
	api.Post("/ProcessInformation", processInformation)
}
