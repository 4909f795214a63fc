package services

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/devbounty/backend/internal/events"
	"github.com/devbounty/backend/internal/models"
	"github.com/devbounty/backend/internal/repositories"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// createPayment writes p with retries. A payment that already exists for the
// claim is loaded into p and counts as success. Failures are logged and
// counted; the caller decides whether they matter.
func (s *BountyService) createPayment(ctx context.Context, p *models.Payment, source string) error {
	payments := s.store.Repos().Payments

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 50 * time.Millisecond
	bo.MaxElapsedTime = s.cfg.PaymentRetryBudget()

	err := backoff.Retry(func() error {
		err := payments.Create(ctx, p)
		if errors.Is(err, repositories.ErrDuplicate) {
			return backoff.Permanent(err)
		}
		return err
	}, backoff.WithContext(bo, ctx))

	if errors.Is(err, repositories.ErrDuplicate) {
		existing, getErr := payments.GetByClaim(ctx, p.ClaimID)
		if getErr == nil {
			*p = *existing
			return nil
		}
		err = getErr
	}
	if err != nil {
		s.log.Error("payment record creation failed, left for reconciliation",
			zap.String("source", source),
			zap.String("bounty_id", p.BountyID.String()),
			zap.String("claimed_bounty_id", p.ClaimID.String()),
			zap.Int64("amount", p.Amount),
			zap.Error(err),
		)
		s.metrics.PaymentFailed(ctx, source)
		return err
	}

	s.metrics.PaymentCreated(ctx, source)
	_ = s.publisher.Publish(ctx, events.StreamBounty, events.Event{
		Type: events.EventPaymentCreated,
		Payload: map[string]any{
			"bounty_id":  p.BountyID.String(),
			"payment_id": p.ID.String(),
			"amount":     p.Amount,
			"status":     p.Status,
		},
	})
	return nil
}

// ReconcilePayments creates the missing payment record for every approved
// claim that has none, such as after a failed write during approval.
// Returns how many records were created.
func (s *BountyService) ReconcilePayments(ctx context.Context) (int, error) {
	r := s.store.Repos()
	claims, err := r.Claims.ListAwaitingPayment(ctx, s.cfg.ReconcileBatchSize)
	if err != nil {
		return 0, internalErr("list claims awaiting payment", err)
	}

	created := 0
	for i := range claims {
		c := &claims[i]
		b, err := r.Bounties.GetByID(ctx, c.BountyID)
		if err != nil {
			s.log.Error("reconcile: load bounty", zap.String("bounty_id", c.BountyID.String()), zap.Error(err))
			continue
		}

		amount := b.Amount
		var disputeID *uuid.UUID
		if c.PaymentStatus == models.PaymentStatusReady || c.PaymentStatus == models.PaymentStatusPartial {
			d, err := r.Disputes.GetResolvedByClaim(ctx, c.ID)
			if err == nil && d.ResolutionOutcome != nil {
				amount = models.PayoutAmount(*d.ResolutionOutcome, b.Amount)
				disputeID = &d.ID
			} else if err != nil && !errors.Is(err, repositories.ErrNotFound) {
				s.log.Error("reconcile: load dispute", zap.String("claimed_bounty_id", c.ID.String()), zap.Error(err))
				continue
			}
		}

		if err := s.createPayment(ctx, s.newPayment(b, c, amount, disputeID), "reconcile"); err != nil {
			continue
		}
		created++
	}

	if created > 0 {
		s.log.Info("payments reconciled", zap.Int("created", created), zap.Int("scanned", len(claims)))
	}
	return created, nil
}
