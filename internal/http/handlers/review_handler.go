package handlers

import (
	"github.com/devbounty/backend/internal/http/dto"
	"github.com/devbounty/backend/internal/middleware"
	"github.com/devbounty/backend/internal/services"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type ReviewHandler struct {
	reviewService *services.ReviewService
	log           *zap.Logger
}

func NewReviewHandler(reviewService *services.ReviewService, log *zap.Logger) *ReviewHandler {
	return &ReviewHandler{reviewService: reviewService, log: log}
}

func (h *ReviewHandler) AddReview(c *fiber.Ctx) error {
	bountyID, err := parseID(c.Params("id"), "bounty id")
	if err != nil {
		return respondError(c, h.log, err)
	}
	var req dto.ReviewRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}

	review, err := h.reviewService.AddReview(c.Context(), middleware.GetActor(c), bountyID, req.Rating, req.Comment)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.SuccessResponse{OK: true, Data: review})
}

func (h *ReviewHandler) ListBountyReviews(c *fiber.Ctx) error {
	bountyID, err := parseID(c.Params("id"), "bounty id")
	if err != nil {
		return respondError(c, h.log, err)
	}
	reviews, err := h.reviewService.ListBountyReviews(c.Context(), bountyID)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: reviews})
}

// GET /users/:id/reviews
func (h *ReviewHandler) ListUserReviews(c *fiber.Ctx) error {
	userID, err := parseID(c.Params("id"), "user id")
	if err != nil {
		return respondError(c, h.log, err)
	}
	limit, offset := pagination(c)
	reviews, err := h.reviewService.ListUserReviews(c.Context(), userID, limit, offset)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: reviews})
}
