package services

import (
	"context"
	"strings"
	"testing"

	"github.com/devbounty/backend/internal/events"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestComments(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	s := NewCommentService(e.store, e.pub, zap.NewNop())
	b := e.claimed(t, 100)

	_, err := s.AddComment(ctx, e.dev, b.ID, "  ")
	requireKind(t, err, KindValidation)
	_, err = s.AddComment(ctx, e.dev, b.ID, strings.Repeat("x", 5001))
	requireKind(t, err, KindValidation)
	_, err = s.AddComment(ctx, e.dev, uuid.New(), "hello")
	requireKind(t, err, KindNotFound)

	c, err := s.AddComment(ctx, e.dev, b.ID, " Is the retry cap configurable? ")
	require.NoError(t, err)
	assert.Equal(t, "Is the retry cap configurable?", c.Content)

	_, err = s.AddComment(ctx, e.client, b.ID, "Yes, via env")
	require.NoError(t, err)

	list, err := s.ListComments(ctx, b.ID, 10, 0)
	require.NoError(t, err)
	require.Len(t, list, 2)

	added := e.pub.ofType(events.EventCommentAdded)
	require.Len(t, added, 2)
	recipients := added[0].Recipients()
	assert.ElementsMatch(t, []string{e.client.UserID.String(), e.dev.UserID.String()}, recipients)

	_, err = s.ListComments(ctx, uuid.New(), 10, 0)
	requireKind(t, err, KindNotFound)
}
