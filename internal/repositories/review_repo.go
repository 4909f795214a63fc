package repositories

import (
	"context"

	"github.com/devbounty/backend/internal/models"
	"github.com/google/uuid"
)

type ReviewRepo struct {
	db DBTX
}

func NewReviewRepo(db DBTX) *ReviewRepo {
	return &ReviewRepo{db: db}
}

const reviewColumns = `id, bounty_id, reviewer_id, reviewee_id, rating, comment, created_at`

func (r *ReviewRepo) Create(ctx context.Context, rv *models.Review) error {
	return mapErr(r.db.QueryRow(ctx, `
		INSERT INTO reviews (bounty_id, reviewer_id, reviewee_id, rating, comment)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`, rv.BountyID, rv.ReviewerID, rv.RevieweeID, rv.Rating, rv.Comment).Scan(&rv.ID, &rv.CreatedAt))
}

func (r *ReviewRepo) ListByReviewee(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Review, error) {
	return r.list(ctx, `
		SELECT `+reviewColumns+` FROM reviews
		WHERE reviewee_id = $1
		ORDER BY created_at DESC LIMIT $2 OFFSET $3
	`, userID, NormalizeLimit(limit), max(offset, 0))
}

func (r *ReviewRepo) ListByBounty(ctx context.Context, bountyID uuid.UUID) ([]models.Review, error) {
	return r.list(ctx, `
		SELECT `+reviewColumns+` FROM reviews
		WHERE bounty_id = $1
		ORDER BY created_at ASC
	`, bountyID)
}

func (r *ReviewRepo) Summary(ctx context.Context, userID uuid.UUID) (models.RatingSummary, error) {
	var s models.RatingSummary
	err := r.db.QueryRow(ctx, `
		SELECT COALESCE(AVG(rating), 0)::float8, COUNT(*)
		FROM reviews WHERE reviewee_id = $1
	`, userID).Scan(&s.AverageRating, &s.RatingCount)
	return s, mapErr(err)
}

func (r *ReviewRepo) list(ctx context.Context, query string, args ...any) ([]models.Review, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reviews []models.Review
	for rows.Next() {
		var rv models.Review
		if err := rows.Scan(&rv.ID, &rv.BountyID, &rv.ReviewerID, &rv.RevieweeID, &rv.Rating, &rv.Comment, &rv.CreatedAt); err != nil {
			return nil, err
		}
		reviews = append(reviews, rv)
	}
	return reviews, rows.Err()
}
