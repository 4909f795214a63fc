package repositories

import (
	"context"
	"time"

	"github.com/devbounty/backend/internal/models"
	"github.com/google/uuid"
)

type ClaimRepo struct {
	db DBTX
}

func NewClaimRepo(db DBTX) *ClaimRepo {
	return &ClaimRepo{db: db}
}

const claimColumns = `c.id, c.bounty_id, c.developer_id, c.status, c.payment_status, c.delivery_deadline,
	c.pull_request_url, c.claimed_at, c.completed_at, c.approved_at`

const claimWithDeveloperSelect = `
	SELECT ` + claimColumns + `, dp.user_id, dp.payment_address
	FROM claimed_bounties c
	JOIN developer_profiles dp ON dp.id = c.developer_id
`

func scanClaim(row interface{ Scan(...any) error }, c *models.Claim, extra ...any) error {
	dest := []any{&c.ID, &c.BountyID, &c.DeveloperID, &c.Status, &c.PaymentStatus, &c.DeliveryDeadline,
		&c.PullRequestURL, &c.ClaimedAt, &c.CompletedAt, &c.ApprovedAt}
	return row.Scan(append(dest, extra...)...)
}

func scanClaimWithDeveloper(row interface{ Scan(...any) error }) (*models.ClaimWithDeveloper, error) {
	var c models.ClaimWithDeveloper
	if err := scanClaim(row, &c.Claim, &c.DeveloperUserID, &c.PaymentAddress); err != nil {
		return nil, mapErr(err)
	}
	return &c, nil
}

func (r *ClaimRepo) Create(ctx context.Context, c *models.Claim) error {
	return mapErr(r.db.QueryRow(ctx, `
		INSERT INTO claimed_bounties (bounty_id, developer_id, status, payment_status, delivery_deadline)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, claimed_at
	`, c.BountyID, c.DeveloperID, c.Status, c.PaymentStatus, c.DeliveryDeadline,
	).Scan(&c.ID, &c.ClaimedAt))
}

func (r *ClaimRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.ClaimWithDeveloper, error) {
	return scanClaimWithDeveloper(r.db.QueryRow(ctx, claimWithDeveloperSelect+` WHERE c.id = $1`, id))
}

func (r *ClaimRepo) FindByBounty(ctx context.Context, bountyID uuid.UUID, status string) (*models.ClaimWithDeveloper, error) {
	return scanClaimWithDeveloper(r.db.QueryRow(ctx, claimWithDeveloperSelect+`
		WHERE c.bounty_id = $1 AND c.status = $2
		ORDER BY c.claimed_at DESC LIMIT 1
	`, bountyID, status))
}

func (r *ClaimRepo) LatestByBounty(ctx context.Context, bountyID uuid.UUID) (*models.ClaimWithDeveloper, error) {
	return scanClaimWithDeveloper(r.db.QueryRow(ctx, claimWithDeveloperSelect+`
		WHERE c.bounty_id = $1
		ORDER BY c.claimed_at DESC LIMIT 1
	`, bountyID))
}

func (r *ClaimRepo) Update(ctx context.Context, c *models.Claim, fromStatus string) error {
	return requireAffected(r.db.Exec(ctx, `
		UPDATE claimed_bounties
		SET status = $1, payment_status = $2, delivery_deadline = $3, pull_request_url = $4,
		    completed_at = $5, approved_at = $6
		WHERE id = $7 AND status = $8
	`, c.Status, c.PaymentStatus, c.DeliveryDeadline, c.PullRequestURL, c.CompletedAt, c.ApprovedAt, c.ID, fromStatus))
}

func (r *ClaimRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return requireAffected(r.db.Exec(ctx, `DELETE FROM claimed_bounties WHERE id = $1`, id))
}

func (r *ClaimRepo) ListOverdue(ctx context.Context, now time.Time, limit int) ([]models.Claim, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.db.Query(ctx, `
		SELECT `+claimColumns+` FROM claimed_bounties c
		WHERE c.status = $1 AND c.delivery_deadline < $2
		ORDER BY c.delivery_deadline LIMIT $3
	`, models.ClaimStatusInProgress, now, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var claims []models.Claim
	for rows.Next() {
		var c models.Claim
		if err := scanClaim(rows, &c); err != nil {
			return nil, err
		}
		claims = append(claims, c)
	}
	return claims, rows.Err()
}

func (r *ClaimRepo) ListAwaitingPayment(ctx context.Context, limit int) ([]models.ClaimWithDeveloper, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.db.Query(ctx, claimWithDeveloperSelect+`
		LEFT JOIN payments p ON p.claimed_bounty_id = c.id
		WHERE c.status = $1 AND p.id IS NULL
		ORDER BY c.approved_at LIMIT $2
	`, models.ClaimStatusApproved, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var claims []models.ClaimWithDeveloper
	for rows.Next() {
		c, err := scanClaimWithDeveloper(rows)
		if err != nil {
			return nil, err
		}
		claims = append(claims, *c)
	}
	return claims, rows.Err()
}
