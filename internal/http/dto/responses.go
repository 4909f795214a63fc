package dto

import "github.com/devbounty/backend/internal/models"

type ErrorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

type SuccessResponse struct {
	OK   bool `json:"ok"`
	Data any  `json:"data,omitempty"`
}

type ClaimResponse struct {
	ClaimedBounty *models.Claim `json:"claimed_bounty"`
}
