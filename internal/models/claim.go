package models

import (
	"regexp"
	"time"

	"github.com/google/uuid"
)

// Claim statuses
const (
	ClaimStatusInProgress = "in_progress"
	ClaimStatusDelivered  = "delivered"
	ClaimStatusApproved   = "approved"
	ClaimStatusRejected   = "rejected"
	ClaimStatusExpired    = "expired"
	ClaimStatusCanceled   = "canceled"
)

// Claim payment statuses
const (
	PaymentStatusPending  = "pending"
	PaymentStatusPaid     = "paid"
	PaymentStatusCanceled = "canceled"
	PaymentStatusReady    = "ready"
	PaymentStatusPartial  = "partial"
)

// A disputed claim is parked in expired until an admin resolves it.
var ValidClaimTransitions = map[string][]string{
	ClaimStatusInProgress: {ClaimStatusDelivered, ClaimStatusExpired, ClaimStatusCanceled},
	ClaimStatusDelivered:  {ClaimStatusApproved, ClaimStatusRejected, ClaimStatusExpired},
	ClaimStatusExpired:    {ClaimStatusApproved, ClaimStatusCanceled},
	ClaimStatusApproved:   {},
	ClaimStatusRejected:   {},
	ClaimStatusCanceled:   {},
}

func IsValidClaimTransition(from, to string) bool {
	return isValidTransition(ValidClaimTransitions, from, to)
}

// IsActiveClaimStatus reports whether a claim in this status blocks other claims.
func IsActiveClaimStatus(status string) bool {
	return status == ClaimStatusInProgress || status == ClaimStatusDelivered
}

var pullRequestURLPattern = regexp.MustCompile(`^https://github\.com/[^/]+/[^/]+/pull/\d+$`)

// IsValidPullRequestURL checks the GitHub pull request URL shape.
func IsValidPullRequestURL(s string) bool {
	return pullRequestURLPattern.MatchString(s)
}

type Claim struct {
	ID               uuid.UUID  `json:"id"`
	BountyID         uuid.UUID  `json:"bounty_id"`
	DeveloperID      uuid.UUID  `json:"developer_id"` // developer_profiles.id
	Status           string     `json:"status"`
	PaymentStatus    string     `json:"payment_status"`
	DeliveryDeadline time.Time  `json:"delivery_deadline"`
	PullRequestURL   *string    `json:"pull_request_url,omitempty"`
	ClaimedAt        time.Time  `json:"claimed_at"`
	CompletedAt      *time.Time `json:"completed_at,omitempty"`
	ApprovedAt       *time.Time `json:"approved_at,omitempty"`
}

// ClaimWithDeveloper embeds Claim and adds the claiming developer's identity
// and payout address.
type ClaimWithDeveloper struct {
	Claim
	DeveloperUserID uuid.UUID `json:"developer_user_id"`
	PaymentAddress  string    `json:"-"`
}
