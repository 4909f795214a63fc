package repositories

import (
	"context"

	"github.com/devbounty/backend/internal/models"
	"github.com/google/uuid"
)

type CommentRepo struct {
	db DBTX
}

func NewCommentRepo(db DBTX) *CommentRepo {
	return &CommentRepo{db: db}
}

func (r *CommentRepo) Create(ctx context.Context, c *models.Comment) error {
	return mapErr(r.db.QueryRow(ctx, `
		INSERT INTO comments (bounty_id, user_id, content)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`, c.BountyID, c.UserID, c.Content).Scan(&c.ID, &c.CreatedAt))
}

func (r *CommentRepo) ListByBounty(ctx context.Context, bountyID uuid.UUID, limit, offset int) ([]models.Comment, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, bounty_id, user_id, content, created_at
		FROM comments WHERE bounty_id = $1
		ORDER BY created_at ASC LIMIT $2 OFFSET $3
	`, bountyID, NormalizeLimit(limit), max(offset, 0))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var comments []models.Comment
	for rows.Next() {
		var c models.Comment
		if err := rows.Scan(&c.ID, &c.BountyID, &c.UserID, &c.Content, &c.CreatedAt); err != nil {
			return nil, err
		}
		comments = append(comments, c)
	}
	return comments, rows.Err()
}
