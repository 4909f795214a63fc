package repositories

import (
	"context"

	"github.com/devbounty/backend/internal/models"
	"github.com/google/uuid"
)

type PaymentRepo struct {
	db DBTX
}

func NewPaymentRepo(db DBTX) *PaymentRepo {
	return &PaymentRepo{db: db}
}

const paymentColumns = `id, bounty_id, claimed_bounty_id, dispute_id, client_id, developer_id, amount,
	payment_method, payment_address, status, created_at`

func scanPayment(row interface{ Scan(...any) error }) (*models.Payment, error) {
	var p models.Payment
	err := row.Scan(&p.ID, &p.BountyID, &p.ClaimID, &p.DisputeID, &p.ClientID, &p.DeveloperID, &p.Amount,
		&p.PaymentMethod, &p.PaymentAddress, &p.Status, &p.CreatedAt)
	if err != nil {
		return nil, mapErr(err)
	}
	return &p, nil
}

func (r *PaymentRepo) Create(ctx context.Context, p *models.Payment) error {
	return mapErr(r.db.QueryRow(ctx, `
		INSERT INTO payments (bounty_id, claimed_bounty_id, dispute_id, client_id, developer_id, amount, payment_method, payment_address, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at
	`, p.BountyID, p.ClaimID, p.DisputeID, p.ClientID, p.DeveloperID, p.Amount, p.PaymentMethod, p.PaymentAddress, p.Status,
	).Scan(&p.ID, &p.CreatedAt))
}

func (r *PaymentRepo) GetByClaim(ctx context.Context, claimID uuid.UUID) (*models.Payment, error) {
	return scanPayment(r.db.QueryRow(ctx, `SELECT `+paymentColumns+` FROM payments WHERE claimed_bounty_id = $1`, claimID))
}

func (r *PaymentRepo) GetLatestByBounty(ctx context.Context, bountyID uuid.UUID) (*models.Payment, error) {
	return scanPayment(r.db.QueryRow(ctx, `
		SELECT `+paymentColumns+` FROM payments
		WHERE bounty_id = $1
		ORDER BY created_at DESC LIMIT 1
	`, bountyID))
}
