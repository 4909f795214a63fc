package memstore

import (
	"context"
	"testing"
	"time"

	"github.com/devbounty/backend/internal/models"
	"github.com/devbounty/backend/internal/repositories"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBountyUpdateStatusIsConditional(t *testing.T) {
	ctx := context.Background()
	r := New().Repos()

	b := &models.Bounty{ClientID: uuid.New(), Status: models.BountyStatusOpen, Amount: 10}
	require.NoError(t, r.Bounties.Create(ctx, b))

	require.NoError(t, r.Bounties.UpdateStatus(ctx, b.ID, models.BountyStatusOpen, models.BountyStatusClaimed, nil))
	err := r.Bounties.UpdateStatus(ctx, b.ID, models.BountyStatusOpen, models.BountyStatusClaimed, nil)
	assert.ErrorIs(t, err, repositories.ErrStale)

	err = r.Bounties.UpdateStatus(ctx, uuid.New(), models.BountyStatusOpen, models.BountyStatusClaimed, nil)
	assert.ErrorIs(t, err, repositories.ErrStale)
}

func TestClaimActiveUniqueness(t *testing.T) {
	ctx := context.Background()
	r := New().Repos()
	bountyID := uuid.New()

	first := &models.Claim{BountyID: bountyID, DeveloperID: uuid.New(), Status: models.ClaimStatusInProgress}
	require.NoError(t, r.Claims.Create(ctx, first))

	second := &models.Claim{BountyID: bountyID, DeveloperID: uuid.New(), Status: models.ClaimStatusInProgress}
	assert.ErrorIs(t, r.Claims.Create(ctx, second), repositories.ErrDuplicate)

	first.Status = models.ClaimStatusExpired
	require.NoError(t, r.Claims.Update(ctx, first, models.ClaimStatusInProgress))
	require.NoError(t, r.Claims.Create(ctx, second))

	// reactivating the old claim would leave two active claims
	first.Status = models.ClaimStatusInProgress
	assert.ErrorIs(t, r.Claims.Update(ctx, first, models.ClaimStatusExpired), repositories.ErrDuplicate)

	latest, err := r.Claims.LatestByBounty(ctx, bountyID)
	require.NoError(t, err)
	assert.Equal(t, second.ID, latest.ID)
}

func TestListAwaitingPayment(t *testing.T) {
	ctx := context.Background()
	r := New().Repos()

	approved := &models.Claim{BountyID: uuid.New(), DeveloperID: uuid.New(), Status: models.ClaimStatusApproved}
	paid := &models.Claim{BountyID: uuid.New(), DeveloperID: uuid.New(), Status: models.ClaimStatusApproved}
	working := &models.Claim{BountyID: uuid.New(), DeveloperID: uuid.New(), Status: models.ClaimStatusInProgress}
	for _, c := range []*models.Claim{approved, paid, working} {
		require.NoError(t, r.Claims.Create(ctx, c))
	}
	require.NoError(t, r.Payments.Create(ctx, &models.Payment{BountyID: paid.BountyID, ClaimID: paid.ID}))
	assert.ErrorIs(t, r.Payments.Create(ctx, &models.Payment{BountyID: paid.BountyID, ClaimID: paid.ID}), repositories.ErrDuplicate)

	claims, err := r.Claims.ListAwaitingPayment(ctx, 10)
	require.NoError(t, err)
	require.Len(t, claims, 1)
	assert.Equal(t, approved.ID, claims[0].ID)
}

func TestListExpirableAndOverdue(t *testing.T) {
	ctx := context.Background()
	r := New().Repos()
	now := time.Now()

	stale := &models.Bounty{Status: models.BountyStatusOpen, ExpiresAt: now.Add(-time.Hour)}
	fresh := &models.Bounty{Status: models.BountyStatusOpen, ExpiresAt: now.Add(time.Hour)}
	require.NoError(t, r.Bounties.Create(ctx, stale))
	require.NoError(t, r.Bounties.Create(ctx, fresh))

	bounties, err := r.Bounties.ListExpirable(ctx, now, 10)
	require.NoError(t, err)
	require.Len(t, bounties, 1)
	assert.Equal(t, stale.ID, bounties[0].ID)

	overdue := &models.Claim{BountyID: fresh.ID, Status: models.ClaimStatusInProgress, DeliveryDeadline: now.Add(-time.Minute)}
	require.NoError(t, r.Claims.Create(ctx, overdue))
	claims, err := r.Claims.ListOverdue(ctx, now, 10)
	require.NoError(t, err)
	require.Len(t, claims, 1)
	assert.Equal(t, overdue.ID, claims[0].ID)
}

func TestActorAndUsers(t *testing.T) {
	ctx := context.Background()
	r := New().Repos()

	u := &models.User{Email: " Dev@Example.com ", PasswordHash: "x"}
	require.NoError(t, r.Users.Create(ctx, u))
	assert.Equal(t, "dev@example.com", u.Email)
	assert.ErrorIs(t, r.Users.Create(ctx, &models.User{Email: "dev@example.com"}), repositories.ErrDuplicate)

	dp := &models.DeveloperProfile{UserID: u.ID, PaymentAddress: "addr"}
	require.NoError(t, r.Users.CreateDeveloperProfile(ctx, dp))

	require.NoError(t, r.Users.SetAdmin(ctx, "DEV@example.com", true))
	a, err := r.Users.GetActor(ctx, u.ID)
	require.NoError(t, err)
	assert.True(t, a.IsAdmin)
	require.NotNil(t, a.DeveloperProfileID)
	assert.Equal(t, dp.ID, *a.DeveloperProfileID)
	assert.Nil(t, a.ClientProfileID)

	assert.ErrorIs(t, r.Users.SetAdmin(ctx, "ghost@example.com", true), repositories.ErrNotFound)
}

func TestReviewsOnePerReviewerPerBounty(t *testing.T) {
	ctx := context.Background()
	r := New().Repos()
	bountyID, client, dev := uuid.New(), uuid.New(), uuid.New()

	require.NoError(t, r.Reviews.Create(ctx, &models.Review{BountyID: bountyID, ReviewerID: client, RevieweeID: dev, Rating: 5}))
	err := r.Reviews.Create(ctx, &models.Review{BountyID: bountyID, ReviewerID: client, RevieweeID: dev, Rating: 1})
	assert.ErrorIs(t, err, repositories.ErrDuplicate)
	require.NoError(t, r.Reviews.Create(ctx, &models.Review{BountyID: uuid.New(), ReviewerID: client, RevieweeID: dev, Rating: 2}))

	sum, err := r.Reviews.Summary(ctx, dev)
	require.NoError(t, err)
	assert.Equal(t, 2, sum.RatingCount)
	assert.InDelta(t, 3.5, sum.AverageRating, 1e-9)

	list, err := r.Reviews.ListByReviewee(ctx, dev, 10, 0)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, 2, list[0].Rating)

	none, err := r.Reviews.Summary(ctx, client)
	require.NoError(t, err)
	assert.Zero(t, none.RatingCount)
}

func TestLockForUpdateRequiresBounty(t *testing.T) {
	ctx := context.Background()
	r := New().Repos()
	b := &models.Bounty{ClientID: uuid.New(), Status: models.BountyStatusOpen, Amount: 10}
	require.NoError(t, r.Bounties.Create(ctx, b))

	assert.NoError(t, r.Bounties.LockForUpdate(ctx, b.ID))
	assert.ErrorIs(t, r.Bounties.LockForUpdate(ctx, uuid.New()), repositories.ErrNotFound)
}
