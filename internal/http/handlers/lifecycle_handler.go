package handlers

import (
	"github.com/devbounty/backend/internal/http/dto"
	"github.com/devbounty/backend/internal/middleware"
	"github.com/devbounty/backend/internal/services"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// LifecycleHandler serves the claim, complete, approve and dispute operations.
// Response bodies are the lifecycle results themselves, without the
// {ok, data} envelope.
type LifecycleHandler struct {
	bountyService *services.BountyService
	log           *zap.Logger
}

func NewLifecycleHandler(bountyService *services.BountyService, log *zap.Logger) *LifecycleHandler {
	return &LifecycleHandler{bountyService: bountyService, log: log}
}

func (h *LifecycleHandler) Claim(c *fiber.Ctx) error {
	var req dto.BountyRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	bountyID, err := bountyIDFrom(req.BountyID)
	if err != nil {
		return respondError(c, h.log, err)
	}

	claim, err := h.bountyService.ClaimBounty(c.Context(), middleware.GetActor(c), bountyID)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.ClaimResponse{ClaimedBounty: claim})
}

func (h *LifecycleHandler) Complete(c *fiber.Ctx) error {
	var req dto.CompleteBountyRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	bountyID, err := bountyIDFrom(req.BountyID)
	if err != nil {
		return respondError(c, h.log, err)
	}

	res, err := h.bountyService.SubmitCompletion(c.Context(), middleware.GetActor(c), bountyID, req.PullRequestURL)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(res)
}

func (h *LifecycleHandler) Approve(c *fiber.Ctx) error {
	var req dto.BountyRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	bountyID, err := bountyIDFrom(req.BountyID)
	if err != nil {
		return respondError(c, h.log, err)
	}

	res, err := h.bountyService.ApproveBounty(c.Context(), middleware.GetActor(c), bountyID)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(res)
}

func (h *LifecycleHandler) Dispute(c *fiber.Ctx) error {
	var req dto.DisputeRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	bountyID, err := bountyIDFrom(req.BountyID)
	if err != nil {
		return respondError(c, h.log, err)
	}

	res, err := h.bountyService.OpenDispute(c.Context(), middleware.GetActor(c), bountyID, req.Reason)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(res)
}

func (h *LifecycleHandler) ResolveDispute(c *fiber.Ctx) error {
	var req dto.ResolveDisputeRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	disputeID, err := parseID(req.DisputeID, "dispute_id")
	if err != nil {
		return respondError(c, h.log, err)
	}

	res, err := h.bountyService.ResolveDispute(c.Context(), middleware.GetActor(c), disputeID, req.Resolution, req.Outcome)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(res)
}
