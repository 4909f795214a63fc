package dto

import "time"

type RegisterRequest struct {
	Email          string   `json:"email"`
	Password       string   `json:"password"`
	FullName       string   `json:"full_name"`
	Role           string   `json:"role"` // client / developer
	CompanyName    string   `json:"company_name,omitempty"`
	PaymentEmail   string   `json:"payment_email,omitempty"`
	PaymentAddress string   `json:"payment_address,omitempty"`
	Skills         []string `json:"skills,omitempty"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type CreateBountyRequest struct {
	Title            string    `json:"title"`
	Description      string    `json:"description"`
	GithubRepo       string    `json:"github_repo"`
	Category         string    `json:"category,omitempty"`
	Tags             []string  `json:"tags,omitempty"`
	Amount           int64     `json:"amount"`
	ExpiresAt        time.Time `json:"expires_at"`
	DibsDurationDays int       `json:"dibs_duration_days,omitempty"`
}

// Lifecycle

type BountyRequest struct {
	BountyID string `json:"bounty_id"`
}

type CompleteBountyRequest struct {
	BountyID       string `json:"bounty_id"`
	PullRequestURL string `json:"pull_request_url"`
}

type DisputeRequest struct {
	BountyID string `json:"bounty_id"`
	Reason   string `json:"reason"`
}

type ResolveDisputeRequest struct {
	DisputeID  string `json:"dispute_id"`
	Resolution string `json:"resolution"`
	Outcome    string `json:"outcome"` // client / developer / split
}

type CommentRequest struct {
	Content string `json:"content"`
}

type ReviewRequest struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}
