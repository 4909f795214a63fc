package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/devbounty/backend/internal/models"
	"github.com/devbounty/backend/internal/rbac"
	"github.com/devbounty/backend/internal/repositories"
	"github.com/google/uuid"
)

// ClaimBounty gives the developer dibs on an open bounty. Of several
// concurrent claims exactly one wins; the rest get Conflict.
func (s *BountyService) ClaimBounty(ctx context.Context, actor models.Actor, bountyID uuid.UUID) (claim *models.Claim, err error) {
	defer s.observe(ctx, "claim", s.now(), &err)

	if actor.DeveloperProfileID == nil || !rbac.Can(actor, rbac.PermClaimBounty) {
		return nil, forbiddenErr("developer profile required")
	}

	r := s.store.Repos()
	b, err := s.loadBounty(ctx, r, bountyID)
	if err != nil {
		return nil, err
	}
	if actor.IsClientOf(&b.Bounty) {
		return nil, forbiddenErr("cannot claim your own bounty")
	}
	now := s.now()
	if b.Status != models.BountyStatusOpen {
		return nil, conflictErr("bounty is not open")
	}
	if b.EffectiveStatus(now) == models.BountyStatusExpired {
		return nil, conflictErr("bounty has expired")
	}
	if _, err := r.Disputes.GetUnresolvedByBounty(ctx, bountyID); err == nil {
		return nil, conflictErr("bounty has an unresolved dispute")
	} else if !errors.Is(err, repositories.ErrNotFound) {
		return nil, internalErr("load dispute", err)
	}

	claim = &models.Claim{
		BountyID:         bountyID,
		DeveloperID:      *actor.DeveloperProfileID,
		Status:           models.ClaimStatusInProgress,
		PaymentStatus:    models.PaymentStatusPending,
		DeliveryDeadline: now.Add(b.DibsDuration(s.cfg.DefaultDibsDuration)),
	}

	err = runUnit(ctx, s.store, "claim", bountyID, s.log, s.metrics, func(r repositories.Repos, sg *saga) error {
		if err := sg.do(ctx, "bounty",
			func(ctx context.Context) error {
				return r.Bounties.UpdateStatus(ctx, bountyID, models.BountyStatusOpen, models.BountyStatusClaimed, b.CompletedAt)
			},
			func(ctx context.Context) error {
				return r.Bounties.UpdateStatus(ctx, bountyID, models.BountyStatusClaimed, models.BountyStatusOpen, b.CompletedAt)
			},
		); err != nil {
			return err
		}
		return sg.do(ctx, "claim", func(ctx context.Context) error { return r.Claims.Create(ctx, claim) }, nil)
	})
	if errors.Is(err, repositories.ErrStale) || errors.Is(err, repositories.ErrDuplicate) {
		return nil, &Error{Kind: KindConflict, Msg: "bounty is not open", Err: err}
	}
	if err != nil {
		return nil, storeErr("claim bounty", err)
	}

	s.record(ctx, statusChange{
		action:      "bounty_claimed",
		actorID:     &actor.UserID,
		actorType:   models.ActorTypeUser,
		bountyID:    bountyID,
		oldStatus:   models.BountyStatusOpen,
		newStatus:   models.BountyStatusClaimed,
		claimStatus: claim.Status,
		recipients:  []uuid.UUID{b.ClientUserID, actor.UserID},
		meta:        map[string]any{"claimed_bounty_id": claim.ID.String()},
	})
	return claim, nil
}

type SubmissionResult struct {
	BountyID       uuid.UUID `json:"bounty_id"`
	PullRequestURL string    `json:"pull_request_url"`
	Status         string    `json:"status"`
	CompletedAt    time.Time `json:"completed_at"`
}

// SubmissionStatusReview is reported for a delivered bounty so callers never
// confuse it with an approved one; both are stored as completed.
const SubmissionStatusReview = "review"

// SubmitCompletion delivers the developer's pull request for review.
func (s *BountyService) SubmitCompletion(ctx context.Context, actor models.Actor, bountyID uuid.UUID, prURL string) (res *SubmissionResult, err error) {
	defer s.observe(ctx, "complete", s.now(), &err)

	prURL = strings.TrimSpace(prURL)
	if prURL == "" {
		return nil, validationErr("pull_request_url is required")
	}
	if !models.IsValidPullRequestURL(prURL) {
		return nil, validationErr("pull_request_url must look like https://github.com/owner/repo/pull/123")
	}
	if actor.DeveloperProfileID == nil || !rbac.Can(actor, rbac.PermSubmitWork) {
		return nil, forbiddenErr("developer profile required")
	}

	r := s.store.Repos()
	b, err := s.loadBounty(ctx, r, bountyID)
	if err != nil {
		return nil, err
	}
	if b.Status != models.BountyStatusClaimed {
		return nil, conflictErr("bounty is not claimed")
	}
	claim, err := r.Claims.FindByBounty(ctx, bountyID, models.ClaimStatusInProgress)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, conflictErr("no in-progress claim for this bounty")
	}
	if err != nil {
		return nil, internalErr("load claim", err)
	}
	if !actor.IsDeveloperOf(&claim.Claim) {
		return nil, forbiddenErr("only the claiming developer can submit work")
	}

	now := s.now()
	prev := claim.Claim
	next := prev
	next.Status = models.ClaimStatusDelivered
	next.PullRequestURL = &prURL
	next.CompletedAt = &now

	err = runUnit(ctx, s.store, "complete", bountyID, s.log, s.metrics, func(r repositories.Repos, sg *saga) error {
		if err := sg.do(ctx, "claim",
			func(ctx context.Context) error { return r.Claims.Update(ctx, &next, models.ClaimStatusInProgress) },
			func(ctx context.Context) error {
				restore := prev
				return r.Claims.Update(ctx, &restore, models.ClaimStatusDelivered)
			},
		); err != nil {
			return err
		}
		return sg.do(ctx, "bounty", func(ctx context.Context) error {
			return r.Bounties.UpdateStatus(ctx, bountyID, models.BountyStatusClaimed, models.BountyStatusCompleted, b.CompletedAt)
		}, nil)
	})
	if err != nil {
		return nil, storeErr("submit completion", err)
	}

	s.record(ctx, statusChange{
		action:      "bounty_submitted",
		actorID:     &actor.UserID,
		actorType:   models.ActorTypeUser,
		bountyID:    bountyID,
		oldStatus:   models.BountyStatusClaimed,
		newStatus:   models.BountyStatusCompleted,
		claimStatus: next.Status,
		recipients:  []uuid.UUID{b.ClientUserID, actor.UserID},
		meta:        map[string]any{"pull_request_url": prURL},
	})

	return &SubmissionResult{
		BountyID:       bountyID,
		PullRequestURL: prURL,
		Status:         SubmissionStatusReview,
		CompletedAt:    now,
	}, nil
}

type ApprovalResult struct {
	BountyID   uuid.UUID       `json:"bounty_id"`
	Status     string          `json:"status"`
	Payment    *models.Payment `json:"payment"`
	ApprovedAt time.Time       `json:"approved_at"`
	// PaymentQueued is set, and Payment left nil, when the payment record
	// could not be written yet and the reconciler will create it.
	PaymentQueued bool `json:"payment_queued,omitempty"`
}

// ApproveBounty accepts the delivered work and records the payout.
func (s *BountyService) ApproveBounty(ctx context.Context, actor models.Actor, bountyID uuid.UUID) (res *ApprovalResult, err error) {
	defer s.observe(ctx, "approve", s.now(), &err)

	r := s.store.Repos()
	b, err := s.loadBounty(ctx, r, bountyID)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin && !(actor.IsClientOf(&b.Bounty) && rbac.Can(actor, rbac.PermApproveBounty)) {
		return nil, forbiddenErr("only the bounty owner or an admin can approve")
	}
	if b.Status != models.BountyStatusCompleted {
		return nil, conflictErr("bounty is not awaiting approval")
	}
	claim, err := r.Claims.FindByBounty(ctx, bountyID, models.ClaimStatusDelivered)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, conflictErr("no delivered claim for this bounty")
	}
	if err != nil {
		return nil, internalErr("load claim", err)
	}

	now := s.now()
	prev := claim.Claim
	next := prev
	next.Status = models.ClaimStatusApproved
	next.PaymentStatus = models.PaymentStatusPending
	next.ApprovedAt = &now

	err = runUnit(ctx, s.store, "approve", bountyID, s.log, s.metrics, func(r repositories.Repos, sg *saga) error {
		if err := sg.do(ctx, "claim",
			func(ctx context.Context) error { return r.Claims.Update(ctx, &next, models.ClaimStatusDelivered) },
			func(ctx context.Context) error {
				restore := prev
				return r.Claims.Update(ctx, &restore, models.ClaimStatusApproved)
			},
		); err != nil {
			return err
		}
		return sg.do(ctx, "bounty", func(ctx context.Context) error {
			return r.Bounties.UpdateStatus(ctx, bountyID, models.BountyStatusCompleted, models.BountyStatusCompleted, &now)
		}, nil)
	})
	if err != nil {
		return nil, storeErr("approve bounty", err)
	}

	claim.Claim = next
	res = &ApprovalResult{BountyID: bountyID, Status: models.BountyStatusCompleted, ApprovedAt: now}
	payment := s.newPayment(&b.Bounty, claim, b.Amount, nil)
	if err := s.createPayment(ctx, payment, "approve"); err != nil {
		res.PaymentQueued = true
	} else {
		res.Payment = payment
	}

	s.record(ctx, statusChange{
		action:      "bounty_approved",
		actorID:     &actor.UserID,
		actorType:   actorTypeOf(actor),
		bountyID:    bountyID,
		oldStatus:   models.BountyStatusCompleted,
		newStatus:   models.BountyStatusCompleted,
		claimStatus: next.Status,
		recipients:  []uuid.UUID{b.ClientUserID, claim.DeveloperUserID},
		meta:        map[string]any{"amount": b.Amount, "payment_queued": res.PaymentQueued},
	})
	return res, nil
}
