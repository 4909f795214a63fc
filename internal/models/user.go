package models

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	FullName     string    `json:"full_name"`
	IsAdmin      bool      `json:"is_admin"`
	CreatedAt    time.Time `json:"created_at"`
}

type ClientProfile struct {
	ID           uuid.UUID `json:"id"`
	UserID       uuid.UUID `json:"user_id"`
	CompanyName  *string   `json:"company_name,omitempty"`
	PaymentEmail string    `json:"payment_email"`
	CreatedAt    time.Time `json:"created_at"`
}

type DeveloperProfile struct {
	ID             uuid.UUID `json:"id"`
	UserID         uuid.UUID `json:"user_id"`
	PaymentAddress string    `json:"payment_address"`
	Skills         []string  `json:"skills"`
	CreatedAt      time.Time `json:"created_at"`
}

// Actor is the authenticated caller of a request, resolved once per request
// and passed explicitly into every service call.
type Actor struct {
	UserID             uuid.UUID  `json:"user_id"`
	IsAdmin            bool       `json:"is_admin"`
	ClientProfileID    *uuid.UUID `json:"client_profile_id,omitempty"`
	DeveloperProfileID *uuid.UUID `json:"developer_profile_id,omitempty"`
}

func (a Actor) IsClientOf(b *Bounty) bool {
	return a.ClientProfileID != nil && *a.ClientProfileID == b.ClientID
}

func (a Actor) IsDeveloperOf(c *Claim) bool {
	return c != nil && a.DeveloperProfileID != nil && *a.DeveloperProfileID == c.DeveloperID
}
