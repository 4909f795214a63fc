package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	MinRating = 1
	MaxRating = 5
)

// Review is one party's rating of the other after approved work.
type Review struct {
	ID         uuid.UUID `json:"id"`
	BountyID   uuid.UUID `json:"bounty_id"`
	ReviewerID uuid.UUID `json:"reviewer_id"`
	RevieweeID uuid.UUID `json:"reviewee_id"`
	Rating     int       `json:"rating"`
	Comment    *string   `json:"comment,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

type RatingSummary struct {
	AverageRating float64 `json:"average_rating"`
	RatingCount   int     `json:"rating_count"`
}

func IsValidRating(rating int) bool {
	return rating >= MinRating && rating <= MaxRating
}
