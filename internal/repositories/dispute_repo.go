package repositories

import (
	"context"
	"fmt"
	"strings"

	"github.com/devbounty/backend/internal/models"
	"github.com/google/uuid"
)

type DisputeRepo struct {
	db DBTX
}

func NewDisputeRepo(db DBTX) *DisputeRepo {
	return &DisputeRepo{db: db}
}

const disputeColumns = `id, bounty_id, claimed_bounty_id, client_id, developer_id, created_by_type, reason, status,
	resolution, resolution_outcome, resolved_by_id, resolved_at, created_at, updated_at`

func scanDispute(row interface{ Scan(...any) error }) (*models.Dispute, error) {
	var d models.Dispute
	err := row.Scan(&d.ID, &d.BountyID, &d.ClaimID, &d.ClientID, &d.DeveloperID, &d.CreatedByType, &d.Reason, &d.Status,
		&d.Resolution, &d.ResolutionOutcome, &d.ResolvedByID, &d.ResolvedAt, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return nil, mapErr(err)
	}
	return &d, nil
}

func (r *DisputeRepo) Create(ctx context.Context, d *models.Dispute) error {
	return mapErr(r.db.QueryRow(ctx, `
		INSERT INTO disputes (bounty_id, claimed_bounty_id, client_id, developer_id, created_by_type, reason, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at
	`, d.BountyID, d.ClaimID, d.ClientID, d.DeveloperID, d.CreatedByType, d.Reason, d.Status,
	).Scan(&d.ID, &d.CreatedAt, &d.UpdatedAt))
}

func (r *DisputeRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Dispute, error) {
	return scanDispute(r.db.QueryRow(ctx, `SELECT `+disputeColumns+` FROM disputes WHERE id = $1`, id))
}

func (r *DisputeRepo) GetUnresolvedByBounty(ctx context.Context, bountyID uuid.UUID) (*models.Dispute, error) {
	return scanDispute(r.db.QueryRow(ctx, `
		SELECT `+disputeColumns+` FROM disputes
		WHERE bounty_id = $1 AND status <> $2
		ORDER BY created_at DESC LIMIT 1
	`, bountyID, models.DisputeStatusResolved))
}

func (r *DisputeRepo) GetResolvedByClaim(ctx context.Context, claimID uuid.UUID) (*models.Dispute, error) {
	return scanDispute(r.db.QueryRow(ctx, `
		SELECT `+disputeColumns+` FROM disputes
		WHERE claimed_bounty_id = $1 AND status = $2
		ORDER BY resolved_at DESC LIMIT 1
	`, claimID, models.DisputeStatusResolved))
}

func (r *DisputeRepo) Update(ctx context.Context, d *models.Dispute, fromStatus string) error {
	return requireAffected(r.db.Exec(ctx, `
		UPDATE disputes
		SET status = $1, resolution = $2, resolution_outcome = $3, resolved_by_id = $4, resolved_at = $5, updated_at = now()
		WHERE id = $6 AND status = $7
	`, d.Status, d.Resolution, d.ResolutionOutcome, d.ResolvedByID, d.ResolvedAt, d.ID, fromStatus))
}

func (r *DisputeRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return requireAffected(r.db.Exec(ctx, `DELETE FROM disputes WHERE id = $1`, id))
}

func (r *DisputeRepo) List(ctx context.Context, f DisputeFilter) ([]models.Dispute, error) {
	query := `SELECT ` + disputeColumns + ` FROM disputes`
	args := []any{}
	argIdx := 1
	where := []string{}

	if f.Status != nil {
		where = append(where, fmt.Sprintf("status = $%d", argIdx))
		args = append(args, *f.Status)
		argIdx++
	}
	if f.BountyID != nil {
		where = append(where, fmt.Sprintf("bounty_id = $%d", argIdx))
		args = append(args, *f.BountyID)
		argIdx++
	}
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", argIdx, argIdx+1)
	args = append(args, NormalizeLimit(f.Limit), max(f.Offset, 0))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var disputes []models.Dispute
	for rows.Next() {
		d, err := scanDispute(rows)
		if err != nil {
			return nil, err
		}
		disputes = append(disputes, *d)
	}
	return disputes, rows.Err()
}
