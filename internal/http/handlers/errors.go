package handlers

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/vidora/monetization/internal/http/dto"
	"github.com/vidora/monetization/internal/middleware"
	"github.com/vidora/monetization/internal/models"
	"go.uber.org/zap"
)

// statusFor maps a service error to its HTTP status. Unknown errors are internal.
func statusFor(err error) int {
	switch {
	case errors.Is(err, models.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, models.ErrUnauthenticated):
		return fiber.StatusUnauthorized
	case errors.Is(err, models.ErrForbidden):
		return fiber.StatusForbidden
	case errors.Is(err, models.ErrInvalidInput),
		errors.Is(err, models.ErrInsufficientBalance),
		errors.Is(err, models.ErrNothingToTransfer):
		return fiber.StatusBadRequest
	case errors.Is(err, models.ErrInventoryExhausted),
		errors.Is(err, models.ErrInvalidTransition):
		return fiber.StatusConflict
	default:
		return fiber.StatusInternalServerError
	}
}

// respondError writes err as {success:false, message}. Internal errors are
// logged and their text is not exposed.
func respondError(c *fiber.Ctx, log *zap.Logger, err error) error {
	status := statusFor(err)
	msg := err.Error()
	if status == fiber.StatusInternalServerError {
		log.Error("request failed",
			zap.String("request_id", middleware.GetRequestID(c)),
			zap.String("path", c.Path()),
			zap.Error(err),
		)
		msg = "internal error"
	}
	return c.Status(status).JSON(dto.ErrorResponse{Message: msg, RequestID: middleware.GetRequestID(c)})
}

func badRequest(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Message: msg, RequestID: middleware.GetRequestID(c)})
}

func parseID(c *fiber.Ctx, param string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Params(param))
	return id, err == nil
}

// pagination reads limit/offset query params. Bounds are enforced by the repositories.
func pagination(c *fiber.Ctx) (limit, offset int) {
	limit = 20
	if v := c.Query("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			limit = n
		}
	}
	if v := c.Query("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			offset = n
		}
	}
	return limit, offset
}
