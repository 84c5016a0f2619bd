package handlers

import (
	"errors"

	"github.com/DSACMS/process-information-api/pkg/core"
	"github.com/gofiber/fiber/v2"
)

const (
	CodeStorageUnavailable = "STORAGE_UNAVAILABLE"
	CodeInternal           = "INTERNAL_ERROR"

	requestIDKey = "requestid"
)

type ErrorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	RequestID string `json:"requestId"`
}

// errorStatus maps a pipeline error to its HTTP status, error code and the
// message safe to show callers. Wrapped causes are never exposed.
func errorStatus(err error) (int, string, string) {
	var e *core.Error
	if !errors.As(err, &e) {
		return fiber.StatusInternalServerError, CodeInternal, "internal error"
	}

	message := e.Message
	if message == "" {
		message = e.Kind.String()
	}

	switch e.Kind {
	case core.KindParse:
		return fiber.StatusBadRequest, e.Kind.String(), message
	case core.KindNotFound:
		return fiber.StatusNotFound, e.Kind.String(), message
	case core.KindStorage:
		if e.Unavailable {
			return fiber.StatusServiceUnavailable, CodeStorageUnavailable, message
		}
		return fiber.StatusBadGateway, e.Kind.String(), message
	case core.KindFormat:
		return fiber.StatusInternalServerError, e.Kind.String(), message
	}
	return fiber.StatusInternalServerError, CodeInternal, "internal error"
}

func requestID(c *fiber.Ctx) string {
	if id, ok := c.Locals(requestIDKey).(string); ok {
		return id
	}
	return c.GetRespHeader(fiber.HeaderXRequestID)
}
