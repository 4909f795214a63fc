package services

import (
	"context"
	"testing"
	"time"

	"github.com/devbounty/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSweepExpiredReleasesOverdueClaim(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	b := e.claimed(t, 100)
	fresh := e.claimed(t, 100)

	// nothing overdue yet
	res, err := e.svc.SweepExpired(ctx)
	require.NoError(t, err)
	assert.Zero(t, res.ExpiredClaims)

	later := time.Now().Add(8 * 24 * time.Hour)
	e.svc.now = func() time.Time { return later }
	require.NoError(t, e.mem.Repos().Claims.Update(ctx, withDeadline(e.latestClaim(t, fresh.ID).Claim, later.Add(time.Hour)), models.ClaimStatusInProgress))

	res, err = e.svc.SweepExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, res.ExpiredClaims)

	claim := e.latestClaim(t, b.ID)
	assert.Equal(t, models.ClaimStatusExpired, claim.Status)
	assert.Equal(t, models.PaymentStatusCanceled, claim.PaymentStatus)
	assert.Equal(t, models.BountyStatusOpen, e.bounty(t, b.ID).Status)
	assert.Equal(t, models.BountyStatusClaimed, e.bounty(t, fresh.ID).Status)

	// released bounty is claimable again
	_, err = e.svc.ClaimBounty(ctx, e.dev2, b.ID)
	require.NoError(t, err)
}

func withDeadline(c models.Claim, deadline time.Time) *models.Claim {
	c.DeliveryDeadline = deadline
	return &c
}

func TestSweepExpiredExpiresBountiesPastExpiry(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	open := e.newBounty(t, 100)
	claimed := e.claimed(t, 100)

	e.svc.now = func() time.Time { return time.Now().Add(60 * 24 * time.Hour) }
	res, err := e.svc.SweepExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, res.ExpiredClaims)
	assert.Equal(t, 1, res.ExpiredBounties)

	assert.Equal(t, models.BountyStatusExpired, e.bounty(t, open.ID).Status)
	assert.Equal(t, models.BountyStatusExpired, e.bounty(t, claimed.ID).Status)

	again, err := e.svc.SweepExpired(ctx)
	require.NoError(t, err)
	assert.Zero(t, again)
}

func TestSweepExpiredSkipsDisputedBounties(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	b := e.claimed(t, 100)
	_, err := e.svc.OpenDispute(ctx, e.client, b.ID, "gone silent")
	require.NoError(t, err)

	e.svc.now = func() time.Time { return time.Now().Add(60 * 24 * time.Hour) }
	res, err := e.svc.SweepExpired(ctx)
	require.NoError(t, err)
	assert.Zero(t, res.ExpiredBounties)
	assert.Equal(t, models.BountyStatusOpen, e.bounty(t, b.ID).Status)
}

func TestSweepExpiredLeavesDeliveredWorkAlone(t *testing.T) {
	e := newTestEnv(t)
	b := e.delivered(t, 100)

	e.svc.now = func() time.Time { return time.Now().Add(8 * 24 * time.Hour) }
	res, err := e.svc.SweepExpired(context.Background())
	require.NoError(t, err)
	assert.Zero(t, res.ExpiredClaims)
	assert.Equal(t, models.ClaimStatusDelivered, e.latestClaim(t, b.ID).Status)
	assert.Equal(t, models.BountyStatusCompleted, e.bounty(t, b.ID).Status)
}
