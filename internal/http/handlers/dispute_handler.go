package handlers

import (
	"github.com/devbounty/backend/internal/http/dto"
	"github.com/devbounty/backend/internal/middleware"
	"github.com/devbounty/backend/internal/repositories"
	"github.com/devbounty/backend/internal/services"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type DisputeHandler struct {
	bountyService *services.BountyService
	log           *zap.Logger
}

func NewDisputeHandler(bountyService *services.BountyService, log *zap.Logger) *DisputeHandler {
	return &DisputeHandler{bountyService: bountyService, log: log}
}

func (h *DisputeHandler) ListDisputes(c *fiber.Ctx) error {
	var filter repositories.DisputeFilter
	filter.Limit, filter.Offset = pagination(c)
	if v := c.Query("status"); v != "" {
		filter.Status = &v
	}
	if v := c.Query("bounty_id"); v != "" {
		id, err := parseID(v, "bounty_id")
		if err != nil {
			return respondError(c, h.log, err)
		}
		filter.BountyID = &id
	}

	disputes, err := h.bountyService.ListDisputes(c.Context(), middleware.GetActor(c), filter)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: disputes})
}

func (h *DisputeHandler) MarkInReview(c *fiber.Ctx) error {
	id, err := parseID(c.Params("id"), "dispute id")
	if err != nil {
		return respondError(c, h.log, err)
	}
	d, err := h.bountyService.MarkDisputeInReview(c.Context(), middleware.GetActor(c), id)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: d})
}
