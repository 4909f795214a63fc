package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	DisputeStatusOpen     = "open"
	DisputeStatusInReview = "in_review"
	DisputeStatusResolved = "resolved"
)

// Resolution outcomes: who the admin sided with.
const (
	OutcomeClient    = "client"
	OutcomeDeveloper = "developer"
	OutcomeSplit     = "split"
)

const (
	PartyClient    = "client"
	PartyDeveloper = "developer"
)

func IsValidOutcome(outcome string) bool {
	switch outcome {
	case OutcomeClient, OutcomeDeveloper, OutcomeSplit:
		return true
	}
	return false
}

type Dispute struct {
	ID                uuid.UUID  `json:"id"`
	BountyID          uuid.UUID  `json:"bounty_id"`
	ClaimID           *uuid.UUID `json:"claimed_bounty_id,omitempty"`
	ClientID          uuid.UUID  `json:"client_id"`
	DeveloperID       *uuid.UUID `json:"developer_id,omitempty"`
	CreatedByType     string     `json:"created_by_type"`
	Reason            string     `json:"reason"`
	Status            string     `json:"status"`
	Resolution        *string    `json:"resolution,omitempty"`
	ResolutionOutcome *string    `json:"resolution_outcome,omitempty"`
	ResolvedByID      *uuid.UUID `json:"resolved_by_id,omitempty"`
	ResolvedAt        *time.Time `json:"resolved_at,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// ResolutionEffect is what an outcome does to the bounty, its claim and the payout.
type ResolutionEffect struct {
	BountyStatus  string
	ClaimStatus   string
	PaymentStatus string
	CreatePayment bool
}

var resolutionEffects = map[string]ResolutionEffect{
	OutcomeClient:    {BountyStatus: BountyStatusOpen, ClaimStatus: ClaimStatusCanceled, PaymentStatus: PaymentStatusCanceled},
	OutcomeDeveloper: {BountyStatus: BountyStatusCompleted, ClaimStatus: ClaimStatusApproved, PaymentStatus: PaymentStatusReady, CreatePayment: true},
	OutcomeSplit:     {BountyStatus: BountyStatusCompleted, ClaimStatus: ClaimStatusApproved, PaymentStatus: PaymentStatusPartial, CreatePayment: true},
}

func EffectOf(outcome string) (ResolutionEffect, bool) {
	e, ok := resolutionEffects[outcome]
	return e, ok
}

// PayoutAmount is the developer's share of amount for an outcome. A split
// pays half, rounded down to the minor unit.
func PayoutAmount(outcome string, amount int64) int64 {
	switch outcome {
	case OutcomeDeveloper:
		return amount
	case OutcomeSplit:
		return amount / 2
	}
	return 0
}
