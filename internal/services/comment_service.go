package services

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/devbounty/backend/internal/events"
	"github.com/devbounty/backend/internal/models"
	"github.com/devbounty/backend/internal/repositories"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const maxCommentLength = 5000

type CommentService struct {
	store     repositories.Store
	publisher events.Publisher
	log       *zap.Logger
}

func NewCommentService(store repositories.Store, publisher events.Publisher, log *zap.Logger) *CommentService {
	return &CommentService{store: store, publisher: publisher, log: log}
}

func (s *CommentService) AddComment(ctx context.Context, actor models.Actor, bountyID uuid.UUID, content string) (*models.Comment, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, validationErr("content is required")
	}
	if utf8.RuneCountInString(content) > maxCommentLength {
		return nil, validationErr("content is too long")
	}

	r := s.store.Repos()
	b, err := r.Bounties.GetWithClient(ctx, bountyID)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, notFoundErr("bounty not found")
	}
	if err != nil {
		return nil, internalErr("load bounty", err)
	}

	comment := &models.Comment{BountyID: bountyID, UserID: actor.UserID, Content: content}
	if err := r.Comments.Create(ctx, comment); err != nil {
		return nil, internalErr("create comment", err)
	}

	recipients := []string{b.ClientUserID.String()}
	if claim, err := r.Claims.LatestByBounty(ctx, bountyID); err == nil && models.IsActiveClaimStatus(claim.Status) {
		recipients = append(recipients, claim.DeveloperUserID.String())
	}
	_ = s.publisher.Publish(ctx, events.StreamBounty, events.Event{
		Type: events.EventCommentAdded,
		Payload: map[string]any{
			"bounty_id":  bountyID.String(),
			"comment_id": comment.ID.String(),
			"user_id":    actor.UserID.String(),
			"recipients": recipients,
		},
	})
	return comment, nil
}

func (s *CommentService) ListComments(ctx context.Context, bountyID uuid.UUID, limit, offset int) ([]models.Comment, error) {
	r := s.store.Repos()
	if _, err := r.Bounties.GetByID(ctx, bountyID); errors.Is(err, repositories.ErrNotFound) {
		return nil, notFoundErr("bounty not found")
	} else if err != nil {
		return nil, internalErr("load bounty", err)
	}

	comments, err := r.Comments.ListByBounty(ctx, bountyID, limit, offset)
	if err != nil {
		return nil, internalErr("list comments", err)
	}
	if comments == nil {
		comments = []models.Comment{}
	}
	return comments, nil
}
