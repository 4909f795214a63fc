package handlers

import (
	"github.com/devbounty/backend/internal/http/dto"
	"github.com/devbounty/backend/internal/middleware"
	"github.com/devbounty/backend/internal/repositories"
	"github.com/devbounty/backend/internal/services"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type BountyHandler struct {
	bountyService *services.BountyService
	log           *zap.Logger
}

func NewBountyHandler(bountyService *services.BountyService, log *zap.Logger) *BountyHandler {
	return &BountyHandler{bountyService: bountyService, log: log}
}

func (h *BountyHandler) CreateBounty(c *fiber.Ctx) error {
	var req dto.CreateBountyRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}

	b, err := h.bountyService.CreateBounty(c.Context(), middleware.GetActor(c), services.CreateBountyInput{
		Title:            req.Title,
		Description:      req.Description,
		GithubRepo:       req.GithubRepo,
		Category:         req.Category,
		Tags:             req.Tags,
		Amount:           req.Amount,
		ExpiresAt:        req.ExpiresAt,
		DibsDurationDays: req.DibsDurationDays,
	})
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.SuccessResponse{OK: true, Data: b})
}

func (h *BountyHandler) ListBounties(c *fiber.Ctx) error {
	var filter repositories.BountyFilter
	filter.Limit, filter.Offset = pagination(c)
	if v := c.Query("status"); v != "" {
		filter.Status = &v
	}

	switch c.Query("role") {
	case "client":
		actor := middleware.GetActor(c)
		if actor.ClientProfileID == nil {
			return c.JSON(dto.SuccessResponse{OK: true, Data: []any{}})
		}
		filter.ClientID = actor.ClientProfileID
	case "":
	default:
		return badRequest(c, "role must be client")
	}

	bounties, err := h.bountyService.ListBounties(c.Context(), filter)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: bounties})
}

func (h *BountyHandler) GetBounty(c *fiber.Ctx) error {
	id, err := parseID(c.Params("id"), "bounty id")
	if err != nil {
		return respondError(c, h.log, err)
	}
	b, err := h.bountyService.GetBounty(c.Context(), id)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: b})
}

func (h *BountyHandler) GetBountyEvents(c *fiber.Ctx) error {
	id, err := parseID(c.Params("id"), "bounty id")
	if err != nil {
		return respondError(c, h.log, err)
	}
	limit, offset := pagination(c)
	logs, err := h.bountyService.GetBountyEvents(c.Context(), id, limit, offset)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: logs})
}

func (h *BountyHandler) GetPayment(c *fiber.Ctx) error {
	id, err := parseID(c.Params("id"), "bounty id")
	if err != nil {
		return respondError(c, h.log, err)
	}
	p, err := h.bountyService.GetPayment(c.Context(), middleware.GetActor(c), id)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: p})
}

func bountyIDFrom(raw string) (uuid.UUID, error) { return parseID(raw, "bounty_id") }
