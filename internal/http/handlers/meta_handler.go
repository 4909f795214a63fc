package handlers

import (
	"github.com/devbounty/backend/internal/http/dto"
	"github.com/devbounty/backend/internal/models"
	"github.com/gofiber/fiber/v2"
)

type MetaHandler struct{}

func NewMetaHandler() *MetaHandler {
	return &MetaHandler{}
}

type MetaCategory struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

var predefinedCategories = []MetaCategory{
	{ID: "bug", Label: "Bug fix"},
	{ID: "feature", Label: "Feature"},
	{ID: "performance", Label: "Performance"},
	{ID: "security", Label: "Security"},
	{ID: "docs", Label: "Documentation"},
	{ID: "tests", Label: "Tests"},
	{ID: "refactor", Label: "Refactoring"},
	{ID: "devops", Label: "CI / DevOps"},
	{ID: "other", Label: "Other"},
}

func (h *MetaHandler) GetCategories(c *fiber.Ctx) error {
	return c.JSON(dto.SuccessResponse{OK: true, Data: predefinedCategories})
}

// GetStatuses lists bounty and claim statuses with their allowed transitions.
func (h *MetaHandler) GetStatuses(c *fiber.Ctx) error {
	return c.JSON(dto.SuccessResponse{OK: true, Data: fiber.Map{
		"bounty": models.ValidBountyTransitions,
		"claim":  models.ValidClaimTransitions,
	}})
}
