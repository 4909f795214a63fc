package handlers

import (
	"strconv"

	"github.com/devbounty/backend/internal/http/dto"
	"github.com/devbounty/backend/internal/middleware"
	"github.com/devbounty/backend/internal/services"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var statusByKind = map[services.Kind]int{
	services.KindValidation:      fiber.StatusBadRequest,
	services.KindUnauthenticated: fiber.StatusUnauthorized,
	services.KindForbidden:       fiber.StatusForbidden,
	services.KindNotFound:        fiber.StatusNotFound,
	services.KindConflict:        fiber.StatusConflict,
	services.KindInternal:        fiber.StatusInternalServerError,
}

// StatusOf maps a service error to its HTTP status.
func StatusOf(err error) int {
	if st, ok := statusByKind[services.KindOf(err)]; ok {
		return st
	}
	return fiber.StatusInternalServerError
}

func respondError(c *fiber.Ctx, log *zap.Logger, err error) error {
	status := StatusOf(err)
	if status >= fiber.StatusInternalServerError {
		log.Error("request failed",
			zap.String("request_id", middleware.GetRequestID(c)),
			zap.String("path", c.Path()),
			zap.Error(err),
		)
	}
	return c.Status(status).JSON(dto.ErrorResponse{
		Error:     services.Message(err),
		RequestID: middleware.GetRequestID(c),
	})
}

func badRequest(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: msg, RequestID: middleware.GetRequestID(c)})
}

// parseID parses a uuid from a path param or body field.
func parseID(raw, field string) (uuid.UUID, error) {
	if raw == "" {
		return uuid.Nil, &services.Error{Kind: services.KindValidation, Msg: field + " is required"}
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, &services.Error{Kind: services.KindValidation, Msg: "invalid " + field}
	}
	return id, nil
}

func pagination(c *fiber.Ctx) (limit, offset int) {
	limit, offset = 20, 0
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
