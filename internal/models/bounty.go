package models

import (
	"time"

	"github.com/google/uuid"
)

// Bounty statuses
const (
	BountyStatusOpen      = "open"
	BountyStatusClaimed   = "claimed"
	BountyStatusCompleted = "completed" // delivered and awaiting review, or approved
	BountyStatusExpired   = "expired"
)

// Valid state transitions: from -> []to
var ValidBountyTransitions = map[string][]string{
	BountyStatusOpen:      {BountyStatusClaimed, BountyStatusExpired, BountyStatusCompleted},
	BountyStatusClaimed:   {BountyStatusCompleted, BountyStatusOpen, BountyStatusExpired},
	BountyStatusCompleted: {BountyStatusCompleted, BountyStatusOpen},
	BountyStatusExpired:   {},
}

func IsValidBountyTransition(from, to string) bool {
	return isValidTransition(ValidBountyTransitions, from, to)
}

func isValidTransition(table map[string][]string, from, to string) bool {
	allowed, ok := table[from]
	if !ok {
		return false
	}
	for _, s := range allowed {
		if s == to {
			return true
		}
	}
	return false
}

type Bounty struct {
	ID                  uuid.UUID  `json:"id"`
	ClientID            uuid.UUID  `json:"client_id"` // client_profiles.id
	Title               string     `json:"title"`
	Description         string     `json:"description"`
	GithubRepo          string     `json:"github_repo"`
	Category            string     `json:"category"`
	Tags                []string   `json:"tags"`
	Amount              int64      `json:"amount"` // minor currency units
	Status              string     `json:"status"`
	DibsDurationSeconds int64      `json:"dibs_duration_seconds"`
	ExpiresAt           time.Time  `json:"expires_at"`
	CompletedAt         *time.Time `json:"completed_at,omitempty"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`
}

// DibsDuration returns the claim work window, or fallback when none was set.
func (b *Bounty) DibsDuration(fallback time.Duration) time.Duration {
	if b.DibsDurationSeconds <= 0 {
		return fallback
	}
	return time.Duration(b.DibsDurationSeconds) * time.Second
}

// EffectiveStatus reports expired for an open bounty past its expiry.
// Expiry is not a stored transition until the sweeper persists it.
func (b *Bounty) EffectiveStatus(now time.Time) string {
	if b.Status == BountyStatusOpen && !b.ExpiresAt.IsZero() && now.After(b.ExpiresAt) {
		return BountyStatusExpired
	}
	return b.Status
}

// BountyWithClient embeds Bounty and adds the owning client's user id.
type BountyWithClient struct {
	Bounty
	ClientUserID uuid.UUID `json:"client_user_id"`
}

// BountyDetails is the read model served by GET /bounties/:id.
type BountyDetails struct {
	BountyWithClient
	EffectiveStatus string              `json:"effective_status"`
	Claim           *ClaimWithDeveloper `json:"claimed_bounty,omitempty"`
}
