package services

import (
	"context"
	"errors"

	"github.com/devbounty/backend/internal/models"
	"github.com/devbounty/backend/internal/repositories"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type SweepResult struct {
	ExpiredClaims   int `json:"expired_claims"`
	ExpiredBounties int `json:"expired_bounties"`
}

// SweepExpired persists time-based expiry. In-progress claims past their
// delivery deadline expire and release the bounty; open bounties past
// expires_at become expired. Bounties under dispute are left alone.
func (s *BountyService) SweepExpired(ctx context.Context) (SweepResult, error) {
	var res SweepResult
	r := s.store.Repos()
	now := s.now()

	claims, err := r.Claims.ListOverdue(ctx, now, s.cfg.ReconcileBatchSize)
	if err != nil {
		return res, internalErr("list overdue claims", err)
	}
	for i := range claims {
		ok, err := s.expireClaim(ctx, &claims[i])
		if err != nil {
			s.log.Error("expire claim failed", zap.String("claimed_bounty_id", claims[i].ID.String()), zap.Error(err))
			continue
		}
		if ok {
			res.ExpiredClaims++
		}
	}

	bounties, err := r.Bounties.ListExpirable(ctx, now, s.cfg.ReconcileBatchSize)
	if err != nil {
		return res, internalErr("list expirable bounties", err)
	}
	for i := range bounties {
		b := &bounties[i]
		if disputed, err := s.hasUnresolvedDispute(ctx, r, b.ID); err != nil || disputed {
			continue
		}
		err := r.Bounties.UpdateStatus(ctx, b.ID, models.BountyStatusOpen, models.BountyStatusExpired, b.CompletedAt)
		if errors.Is(err, repositories.ErrStale) {
			continue
		}
		if err != nil {
			s.log.Error("expire bounty failed", zap.String("bounty_id", b.ID.String()), zap.Error(err))
			continue
		}
		res.ExpiredBounties++
		s.record(ctx, statusChange{
			action:    "bounty_expired",
			actorType: models.ActorTypeSystem,
			bountyID:  b.ID,
			oldStatus: models.BountyStatusOpen,
			newStatus: models.BountyStatusExpired,
		})
	}

	if res.ExpiredClaims > 0 || res.ExpiredBounties > 0 {
		s.log.Info("expiry sweep", zap.Int("expired_claims", res.ExpiredClaims), zap.Int("expired_bounties", res.ExpiredBounties))
	}
	return res, nil
}

func (s *BountyService) hasUnresolvedDispute(ctx context.Context, r repositories.Repos, bountyID uuid.UUID) (bool, error) {
	_, err := r.Disputes.GetUnresolvedByBounty(ctx, bountyID)
	if errors.Is(err, repositories.ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

// expireClaim expires one overdue claim and releases its bounty: back to open,
// or straight to expired when the bounty itself is past expires_at.
func (s *BountyService) expireClaim(ctx context.Context, c *models.Claim) (bool, error) {
	r := s.store.Repos()
	b, err := r.Bounties.GetWithClient(ctx, c.BountyID)
	if err != nil {
		return false, err
	}
	if disputed, err := s.hasUnresolvedDispute(ctx, r, b.ID); err != nil || disputed {
		return false, err
	}

	now := s.now()
	newStatus := b.Status
	if b.Status == models.BountyStatusClaimed {
		newStatus = models.BountyStatusOpen
		if now.After(b.ExpiresAt) {
			newStatus = models.BountyStatusExpired
		}
	}

	prev := *c
	next := prev
	next.Status = models.ClaimStatusExpired
	next.PaymentStatus = models.PaymentStatusCanceled

	err = runUnit(ctx, s.store, "expire_claim", b.ID, s.log, s.metrics, func(r repositories.Repos, sg *saga) error {
		if err := sg.do(ctx, "claim",
			func(ctx context.Context) error { return r.Claims.Update(ctx, &next, models.ClaimStatusInProgress) },
			func(ctx context.Context) error {
				restore := prev
				return r.Claims.Update(ctx, &restore, models.ClaimStatusExpired)
			},
		); err != nil {
			return err
		}
		if b.Status != models.BountyStatusClaimed {
			return nil
		}
		return sg.do(ctx, "bounty", func(ctx context.Context) error {
			return r.Bounties.UpdateStatus(ctx, b.ID, models.BountyStatusClaimed, newStatus, b.CompletedAt)
		}, nil)
	})
	if errors.Is(err, repositories.ErrStale) {
		// delivered or reclaimed meanwhile
		return false, nil
	}
	if err != nil {
		return false, err
	}

	dev, _ := r.Claims.GetByID(ctx, c.ID)
	recipients := []uuid.UUID{b.ClientUserID}
	if dev != nil {
		recipients = append(recipients, dev.DeveloperUserID)
	}
	s.record(ctx, statusChange{
		action:      "claim_expired",
		actorType:   models.ActorTypeSystem,
		bountyID:    b.ID,
		oldStatus:   b.Status,
		newStatus:   newStatus,
		claimStatus: next.Status,
		recipients:  recipients,
		meta:        map[string]any{"claimed_bounty_id": c.ID.String()},
	})
	return true, nil
}
