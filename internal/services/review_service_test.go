package services

import (
	"context"
	"strings"
	"testing"

	"github.com/devbounty/backend/internal/events"
	"github.com/devbounty/backend/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestAddReview(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	s := NewReviewService(e.store, e.pub, zap.NewNop())
	b := e.delivered(t, 100)

	for _, rating := range []int{0, 6, -1} {
		_, err := s.AddReview(ctx, e.client, b.ID, rating, "")
		requireKind(t, err, KindValidation)
	}
	_, err := s.AddReview(ctx, e.client, b.ID, 5, strings.Repeat("x", 2001))
	requireKind(t, err, KindValidation)
	_, err = s.AddReview(ctx, e.client, uuid.New(), 5, "")
	requireKind(t, err, KindNotFound)

	_, err = s.AddReview(ctx, e.client, b.ID, 5, "")
	requireKind(t, err, KindConflict)

	_, err = e.svc.ApproveBounty(ctx, e.client, b.ID)
	require.NoError(t, err)

	_, err = s.AddReview(ctx, e.dev2, b.ID, 5, "")
	requireKind(t, err, KindForbidden)
	_, err = s.AddReview(ctx, e.admin, b.ID, 5, "")
	requireKind(t, err, KindForbidden)

	byClient, err := s.AddReview(ctx, e.client, b.ID, 5, "  Clean PR, fast turnaround ")
	require.NoError(t, err)
	assert.Equal(t, e.dev.UserID, byClient.RevieweeID)
	require.NotNil(t, byClient.Comment)
	assert.Equal(t, "Clean PR, fast turnaround", *byClient.Comment)

	_, err = s.AddReview(ctx, e.client, b.ID, 1, "changed my mind")
	requireKind(t, err, KindConflict)

	byDev, err := s.AddReview(ctx, e.dev, b.ID, 4, "")
	require.NoError(t, err)
	assert.Equal(t, e.client.UserID, byDev.RevieweeID)
	assert.Nil(t, byDev.Comment)

	added := e.pub.ofType(events.EventReviewAdded)
	require.Len(t, added, 2)
	assert.Equal(t, []string{e.dev.UserID.String()}, added[0].Recipients())

	list, err := s.ListBountyReviews(ctx, b.ID)
	require.NoError(t, err)
	assert.Len(t, list, 2)
	_, err = s.ListBountyReviews(ctx, uuid.New())
	requireKind(t, err, KindNotFound)
}

func TestListUserReviews(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	s := NewReviewService(e.store, e.pub, zap.NewNop())

	for _, rating := range []int{5, 2} {
		b := e.delivered(t, 100)
		_, err := e.svc.ApproveBounty(ctx, e.client, b.ID)
		require.NoError(t, err)
		_, err = s.AddReview(ctx, e.client, b.ID, rating, "")
		require.NoError(t, err)
	}

	got, err := s.ListUserReviews(ctx, e.dev.UserID, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, got.RatingCount)
	assert.InDelta(t, 3.5, got.AverageRating, 1e-9)
	require.Len(t, got.Reviews, 2)
	assert.Equal(t, 2, got.Reviews[0].Rating)

	firstPage, err := s.ListUserReviews(ctx, e.dev.UserID, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, firstPage.RatingCount)
	require.Len(t, firstPage.Reviews, 1)
	assert.Equal(t, 5, firstPage.Reviews[0].Rating)

	none, err := s.ListUserReviews(ctx, e.client.UserID, 10, 0)
	require.NoError(t, err)
	assert.Zero(t, none.RatingCount)
	assert.Empty(t, none.Reviews)

	_, err = s.ListUserReviews(ctx, uuid.New(), 10, 0)
	requireKind(t, err, KindNotFound)
}

func TestReviewNotAllowedAfterClientWinsDispute(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	s := NewReviewService(e.store, e.pub, zap.NewNop())
	b := e.delivered(t, 100)

	opened, err := e.svc.OpenDispute(ctx, e.client, b.ID, "does not build")
	require.NoError(t, err)
	_, err = e.svc.ResolveDispute(ctx, e.admin, opened.Dispute.ID, "refund", models.OutcomeClient)
	require.NoError(t, err)

	_, err = s.AddReview(ctx, e.client, b.ID, 1, "")
	requireKind(t, err, KindConflict)
}
