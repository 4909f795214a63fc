package services

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/devbounty/backend/internal/events"
	"github.com/devbounty/backend/internal/models"
	"github.com/devbounty/backend/internal/rbac"
	"github.com/devbounty/backend/internal/repositories"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const maxReviewCommentLength = 2000

type ReviewService struct {
	store     repositories.Store
	publisher events.Publisher
	log       *zap.Logger
}

func NewReviewService(store repositories.Store, publisher events.Publisher, log *zap.Logger) *ReviewService {
	return &ReviewService{store: store, publisher: publisher, log: log}
}

// AddReview lets the client rate the developer, or the developer rate the
// client, once the bounty's work has been approved. One review per party per
// bounty.
func (s *ReviewService) AddReview(ctx context.Context, actor models.Actor, bountyID uuid.UUID, rating int, comment string) (*models.Review, error) {
	if !models.IsValidRating(rating) {
		return nil, validationErr("rating must be between 1 and 5")
	}
	comment = strings.TrimSpace(comment)
	if utf8.RuneCountInString(comment) > maxReviewCommentLength {
		return nil, validationErr("comment is too long")
	}

	r := s.store.Repos()
	b, err := r.Bounties.GetWithClient(ctx, bountyID)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, notFoundErr("bounty not found")
	}
	if err != nil {
		return nil, internalErr("load bounty", err)
	}
	claim, err := r.Claims.LatestByBounty(ctx, bountyID)
	if err != nil && !errors.Is(err, repositories.ErrNotFound) {
		return nil, internalErr("load claim", err)
	}

	isClient := actor.IsClientOf(&b.Bounty)
	isDeveloper := claim != nil && actor.IsDeveloperOf(&claim.Claim)
	if (!isClient && !isDeveloper) || !rbac.Can(actor, rbac.PermReviewParty) {
		return nil, forbiddenErr("only the bounty client or its developer can leave a review")
	}
	if b.Status != models.BountyStatusCompleted || claim == nil || claim.Status != models.ClaimStatusApproved {
		return nil, conflictErr("reviews open once the work is approved")
	}

	review := &models.Review{
		BountyID:   bountyID,
		ReviewerID: actor.UserID,
		RevieweeID: b.ClientUserID,
		Rating:     rating,
	}
	if isClient {
		review.RevieweeID = claim.DeveloperUserID
	}
	if comment != "" {
		review.Comment = &comment
	}

	err = r.Reviews.Create(ctx, review)
	if errors.Is(err, repositories.ErrDuplicate) {
		return nil, conflictErr("you have already reviewed this bounty")
	}
	if err != nil {
		return nil, internalErr("create review", err)
	}

	_ = s.publisher.Publish(ctx, events.StreamBounty, events.Event{
		Type: events.EventReviewAdded,
		Payload: map[string]any{
			"bounty_id":  bountyID.String(),
			"review_id":  review.ID.String(),
			"rating":     rating,
			"recipients": []string{review.RevieweeID.String()},
		},
	})
	return review, nil
}

type UserReviews struct {
	UserID uuid.UUID `json:"user_id"`
	models.RatingSummary
	Reviews []models.Review `json:"reviews"`
}

// ListUserReviews returns the reviews a user has received, newest first, with
// their rating average over all of them.
func (s *ReviewService) ListUserReviews(ctx context.Context, userID uuid.UUID, limit, offset int) (*UserReviews, error) {
	r := s.store.Repos()
	if _, err := r.Users.GetByID(ctx, userID); errors.Is(err, repositories.ErrNotFound) {
		return nil, notFoundErr("user not found")
	} else if err != nil {
		return nil, internalErr("load user", err)
	}

	summary, err := r.Reviews.Summary(ctx, userID)
	if err != nil {
		return nil, internalErr("summarize reviews", err)
	}
	reviews, err := r.Reviews.ListByReviewee(ctx, userID, limit, offset)
	if err != nil {
		return nil, internalErr("list reviews", err)
	}
	if reviews == nil {
		reviews = []models.Review{}
	}
	return &UserReviews{UserID: userID, RatingSummary: summary, Reviews: reviews}, nil
}

func (s *ReviewService) ListBountyReviews(ctx context.Context, bountyID uuid.UUID) ([]models.Review, error) {
	r := s.store.Repos()
	if _, err := r.Bounties.GetByID(ctx, bountyID); errors.Is(err, repositories.ErrNotFound) {
		return nil, notFoundErr("bounty not found")
	} else if err != nil {
		return nil, internalErr("load bounty", err)
	}

	reviews, err := r.Reviews.ListByBounty(ctx, bountyID)
	if err != nil {
		return nil, internalErr("list reviews", err)
	}
	if reviews == nil {
		reviews = []models.Review{}
	}
	return reviews, nil
}
