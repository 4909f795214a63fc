package repositories

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/devbounty/backend/internal/models"
	"github.com/google/uuid"
)

type BountyRepo struct {
	db DBTX
}

func NewBountyRepo(db DBTX) *BountyRepo {
	return &BountyRepo{db: db}
}

const bountyColumns = `b.id, b.client_id, b.title, b.description, b.github_repo, b.category, b.tags,
	b.amount, b.status, b.dibs_duration_seconds, b.expires_at, b.completed_at, b.created_at, b.updated_at`

func scanBounty(row interface{ Scan(...any) error }, b *models.Bounty, extra ...any) error {
	dest := []any{&b.ID, &b.ClientID, &b.Title, &b.Description, &b.GithubRepo, &b.Category, &b.Tags,
		&b.Amount, &b.Status, &b.DibsDurationSeconds, &b.ExpiresAt, &b.CompletedAt, &b.CreatedAt, &b.UpdatedAt}
	return row.Scan(append(dest, extra...)...)
}

func (r *BountyRepo) Create(ctx context.Context, b *models.Bounty) error {
	if b.Tags == nil {
		b.Tags = []string{}
	}
	return mapErr(r.db.QueryRow(ctx, `
		INSERT INTO bounties (client_id, title, description, github_repo, category, tags, amount, status, dibs_duration_seconds, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at, updated_at
	`, b.ClientID, b.Title, b.Description, b.GithubRepo, b.Category, b.Tags, b.Amount, b.Status, b.DibsDurationSeconds, b.ExpiresAt,
	).Scan(&b.ID, &b.CreatedAt, &b.UpdatedAt))
}

func (r *BountyRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Bounty, error) {
	var b models.Bounty
	err := scanBounty(r.db.QueryRow(ctx, `SELECT `+bountyColumns+` FROM bounties b WHERE b.id = $1`, id), &b)
	if err != nil {
		return nil, mapErr(err)
	}
	return &b, nil
}

func (r *BountyRepo) GetWithClient(ctx context.Context, id uuid.UUID) (*models.BountyWithClient, error) {
	var b models.BountyWithClient
	err := scanBounty(r.db.QueryRow(ctx, `
		SELECT `+bountyColumns+`, cp.user_id
		FROM bounties b
		JOIN client_profiles cp ON cp.id = b.client_id
		WHERE b.id = $1
	`, id), &b.Bounty, &b.ClientUserID)
	if err != nil {
		return nil, mapErr(err)
	}
	return &b, nil
}

func (r *BountyRepo) List(ctx context.Context, f BountyFilter) ([]models.BountyWithClient, error) {
	query := `
		SELECT ` + bountyColumns + `, cp.user_id
		FROM bounties b
		JOIN client_profiles cp ON cp.id = b.client_id
	`
	args := []any{}
	argIdx := 1
	where := []string{}

	if f.Status != nil {
		where = append(where, fmt.Sprintf("b.status = $%d", argIdx))
		args = append(args, *f.Status)
		argIdx++
	}
	if f.ClientID != nil {
		where = append(where, fmt.Sprintf("b.client_id = $%d", argIdx))
		args = append(args, *f.ClientID)
		argIdx++
	}
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}

	query += fmt.Sprintf(" ORDER BY b.created_at DESC LIMIT $%d OFFSET $%d", argIdx, argIdx+1)
	args = append(args, NormalizeLimit(f.Limit), max(f.Offset, 0))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bounties []models.BountyWithClient
	for rows.Next() {
		var b models.BountyWithClient
		if err := scanBounty(rows, &b.Bounty, &b.ClientUserID); err != nil {
			return nil, err
		}
		bounties = append(bounties, b)
	}
	return bounties, rows.Err()
}

func (r *BountyRepo) UpdateStatus(ctx context.Context, id uuid.UUID, from, to string, completedAt *time.Time) error {
	return requireAffected(r.db.Exec(ctx, `
		UPDATE bounties SET status = $1, completed_at = $2, updated_at = now()
		WHERE id = $3 AND status = $4
	`, to, completedAt, id, from))
}

func (r *BountyRepo) LockForUpdate(ctx context.Context, id uuid.UUID) error {
	var locked uuid.UUID
	return mapErr(r.db.QueryRow(ctx, `SELECT id FROM bounties WHERE id = $1 FOR UPDATE`, id).Scan(&locked))
}

func (r *BountyRepo) ListExpirable(ctx context.Context, now time.Time, limit int) ([]models.Bounty, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.db.Query(ctx, `
		SELECT `+bountyColumns+` FROM bounties b
		WHERE b.status = $1 AND b.expires_at < $2
		ORDER BY b.expires_at LIMIT $3
	`, models.BountyStatusOpen, now, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bounties []models.Bounty
	for rows.Next() {
		var b models.Bounty
		if err := scanBounty(rows, &b); err != nil {
			return nil, err
		}
		bounties = append(bounties, b)
	}
	return bounties, rows.Err()
}
