package handlers

import (
	"context"
	"encoding/base64"
	"log/slog"

	"github.com/DSACMS/process-information-api/pkg/core"
	"github.com/DSACMS/process-information-api/pkg/records"
	"github.com/DSACMS/process-information-api/pkg/templates"
	"github.com/DSACMS/process-information-api/pkg/workbook"
	"github.com/gofiber/fiber/v2"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/DSACMS/process-information-api/api/handlers"

type workbookMetrics struct {
	generated metric.Int64Counter
	failed    metric.Int64Counter
	records   metric.Int64Histogram
}

func newWorkbookMetrics(logger *slog.Logger) workbookMetrics {
	meter := otel.Meter(instrumentationName)

	generated, err := meter.Int64Counter("workbooks.generated",
		metric.WithDescription("Workbooks returned to callers"))
	if err != nil {
		logger.Warn("workbooks.generated counter unavailable", "err", err)
	}
	failed, err := meter.Int64Counter("workbooks.failed",
		metric.WithDescription("Requests that failed, by error code"))
	if err != nil {
		logger.Warn("workbooks.failed counter unavailable", "err", err)
	}
	recordCount, err := meter.Int64Histogram("workbooks.records",
		metric.WithDescription("Records written per workbook"))
	if err != nil {
		logger.Warn("workbooks.records histogram unavailable", "err", err)
	}

	return workbookMetrics{generated: generated, failed: failed, records: recordCount}
}

// ProcessInformationHandler decodes personal details from the body, fills
// the template table with them and responds with ["<base64 workbook>"].
// The sheet and table query parameters override the configured names.
func ProcessInformationHandler(
	cfg *core.Config,
	store templates.Store,
	populator workbook.TablePopulator,
	logger *slog.Logger,
) fiber.Handler {
	if logger == nil {
		logger = slog.Default()
	}

	logger = logger.With(slog.String("handler", "ProcessInformationHandler"))
	tracer := otel.Tracer(instrumentationName)
	metrics := newWorkbookMetrics(logger)

	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), cfg.RequestTimeout)
		defer cancel()

		sheet := c.Query("sheet", cfg.Template.Sheet)
		table := c.Query("table", cfg.Template.Table)

		fail := func(span trace.Span, err error) error {
			status, code, message := errorStatus(err)

			span.RecordError(err)
			span.SetStatus(codes.Error, code)
			span.End()

			if metrics.failed != nil {
				metrics.failed.Add(ctx, 1, metric.WithAttributes(attribute.String("code", code)))
			}

			level := slog.LevelWarn
			if status >= fiber.StatusInternalServerError {
				level = slog.LevelError
			}
			logger.Log(ctx, level, "process information failed",
				slog.String("code", code),
				slog.Int("status", status),
				slog.String("sheet", sheet),
				slog.String("table", table),
				slog.Any("err", err),
			)

			return c.Status(status).JSON(ErrorResponse{
				Error:     message,
				Code:      code,
				RequestID: requestID(c),
			})
		}

		_, span := tracer.Start(ctx, "records.decode")
		details, err := records.Decode(c.Body())
		if err != nil {
			return fail(span, err)
		}
		span.SetAttributes(attribute.Int("records", len(details)))
		span.End()

		fetchCtx, span := tracer.Start(ctx, "templates.fetch")
		template, err := store.Fetch(fetchCtx)
		if err != nil {
			return fail(span, err)
		}
		span.SetAttributes(attribute.Int("bytes", len(template)))
		span.End()

		_, span = tracer.Start(ctx, "workbook.populate", trace.WithAttributes(
			attribute.String("sheet", sheet),
			attribute.String("table", table),
		))
		populated, err := populator.Populate(details, template, sheet, table)
		if err != nil {
			return fail(span, err)
		}
		span.SetAttributes(attribute.Int("bytes", len(populated)))
		span.End()

		if metrics.generated != nil {
			metrics.generated.Add(ctx, 1)
		}
		if metrics.records != nil {
			metrics.records.Record(ctx, int64(len(details)))
		}

		logger.InfoContext(ctx, "workbook generated",
			slog.Int("records", len(details)),
			slog.Int("bytes", len(populated)),
		)

		return c.JSON([]string{base64.StdEncoding.EncodeToString(populated)})
	}
}
