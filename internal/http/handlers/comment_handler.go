package handlers

import (
	"github.com/devbounty/backend/internal/http/dto"
	"github.com/devbounty/backend/internal/middleware"
	"github.com/devbounty/backend/internal/services"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type CommentHandler struct {
	commentService *services.CommentService
	log            *zap.Logger
}

func NewCommentHandler(commentService *services.CommentService, log *zap.Logger) *CommentHandler {
	return &CommentHandler{commentService: commentService, log: log}
}

func (h *CommentHandler) AddComment(c *fiber.Ctx) error {
	bountyID, err := parseID(c.Params("id"), "bounty id")
	if err != nil {
		return respondError(c, h.log, err)
	}
	var req dto.CommentRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}

	comment, err := h.commentService.AddComment(c.Context(), middleware.GetActor(c), bountyID, req.Content)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.SuccessResponse{OK: true, Data: comment})
}

func (h *CommentHandler) ListComments(c *fiber.Ctx) error {
	bountyID, err := parseID(c.Params("id"), "bounty id")
	if err != nil {
		return respondError(c, h.log, err)
	}
	limit, offset := pagination(c)
	comments, err := h.commentService.ListComments(c.Context(), bountyID, limit, offset)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: comments})
}
