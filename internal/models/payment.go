package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	PaymentRecordPending  = "pending"
	PaymentRecordReady    = "ready"
	PaymentRecordPaid     = "paid"
	PaymentRecordCanceled = "canceled"
)

type Payment struct {
	ID             uuid.UUID  `json:"id"`
	BountyID       uuid.UUID  `json:"bounty_id"`
	ClaimID        uuid.UUID  `json:"claimed_bounty_id"`
	DisputeID      *uuid.UUID `json:"dispute_id,omitempty"`
	ClientID       uuid.UUID  `json:"client_id"`
	DeveloperID    uuid.UUID  `json:"developer_id"`
	Amount         int64      `json:"amount"`
	PaymentMethod  string     `json:"payment_method"`
	PaymentAddress string     `json:"payment_address"`
	Status         string     `json:"status"`
	CreatedAt      time.Time  `json:"created_at"`
}
