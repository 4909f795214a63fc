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

type DisputeResult struct {
	Dispute  *models.Dispute `json:"dispute"`
	BountyID uuid.UUID       `json:"bounty_id"`
	Status   string          `json:"status"`
}

const DisputeResultStatus = "disputed"

// OpenDispute contests the bounty's outstanding claim. The bounty returns to
// open and the claim is parked as expired until an admin resolves it.
func (s *BountyService) OpenDispute(ctx context.Context, actor models.Actor, bountyID uuid.UUID, reason string) (res *DisputeResult, err error) {
	defer s.observe(ctx, "dispute", s.now(), &err)

	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, validationErr("reason is required")
	}

	r := s.store.Repos()
	b, err := s.loadBounty(ctx, r, bountyID)
	if err != nil {
		return nil, err
	}

	claim, err := r.Claims.LatestByBounty(ctx, bountyID)
	if err != nil && !errors.Is(err, repositories.ErrNotFound) {
		return nil, internalErr("load claim", err)
	}
	isClient := actor.IsClientOf(&b.Bounty)
	isDeveloper := claim != nil && actor.IsDeveloperOf(&claim.Claim)
	if (!isClient && !isDeveloper) || !rbac.Can(actor, rbac.PermOpenDispute) {
		return nil, forbiddenErr("only the bounty client or the claiming developer can open a dispute")
	}

	if _, err := r.Disputes.GetUnresolvedByBounty(ctx, bountyID); err == nil {
		return nil, conflictErr("an unresolved dispute already exists for this bounty")
	} else if !errors.Is(err, repositories.ErrNotFound) {
		return nil, internalErr("load dispute", err)
	}
	if b.Status != models.BountyStatusClaimed && b.Status != models.BountyStatusCompleted {
		return nil, conflictErr("bounty has no claim in progress or under review")
	}
	if claim == nil || !models.IsActiveClaimStatus(claim.Status) {
		return nil, conflictErr("bounty has no claim in progress or under review")
	}

	createdBy := models.PartyDeveloper
	if isClient {
		createdBy = models.PartyClient
	}
	d := &models.Dispute{
		BountyID:      bountyID,
		ClaimID:       &claim.ID,
		ClientID:      b.ClientID,
		DeveloperID:   &claim.DeveloperID,
		CreatedByType: createdBy,
		Reason:        reason,
		Status:        models.DisputeStatusOpen,
	}
	prevClaim := claim.Claim
	nextClaim := prevClaim
	nextClaim.Status = models.ClaimStatusExpired

	err = runUnit(ctx, s.store, "dispute", bountyID, s.log, s.metrics, func(r repositories.Repos, sg *saga) error {
		if err := sg.do(ctx, "dispute",
			func(ctx context.Context) error { return r.Disputes.Create(ctx, d) },
			func(ctx context.Context) error { return r.Disputes.Delete(ctx, d.ID) },
		); err != nil {
			return err
		}
		if err := sg.do(ctx, "bounty",
			func(ctx context.Context) error {
				return r.Bounties.UpdateStatus(ctx, bountyID, b.Status, models.BountyStatusOpen, b.CompletedAt)
			},
			func(ctx context.Context) error {
				return r.Bounties.UpdateStatus(ctx, bountyID, models.BountyStatusOpen, b.Status, b.CompletedAt)
			},
		); err != nil {
			return err
		}
		return sg.do(ctx, "claim", func(ctx context.Context) error {
			return r.Claims.Update(ctx, &nextClaim, prevClaim.Status)
		}, nil)
	})
	if errors.Is(err, repositories.ErrDuplicate) {
		return nil, &Error{Kind: KindConflict, Msg: "an unresolved dispute already exists for this bounty", Err: err}
	}
	if err != nil {
		return nil, storeErr("open dispute", err)
	}

	s.record(ctx, statusChange{
		action:      "dispute_opened",
		actorID:     &actor.UserID,
		actorType:   models.ActorTypeUser,
		bountyID:    bountyID,
		oldStatus:   b.Status,
		newStatus:   models.BountyStatusOpen,
		claimStatus: nextClaim.Status,
		recipients:  []uuid.UUID{b.ClientUserID, claim.DeveloperUserID},
		meta:        map[string]any{"dispute_id": d.ID.String(), "created_by_type": createdBy},
	})

	return &DisputeResult{Dispute: d, BountyID: bountyID, Status: DisputeResultStatus}, nil
}

type ResolutionResult struct {
	DisputeID  uuid.UUID       `json:"dispute_id"`
	Resolution string          `json:"resolution"`
	Outcome    string          `json:"outcome"`
	Status     string          `json:"status"`
	ResolvedAt time.Time       `json:"resolved_at"`
	Payment    *models.Payment `json:"payment,omitempty"`
	// PaymentQueued is set when an owed payment is left for the reconciler.
	PaymentQueued bool `json:"payment_queued,omitempty"`
}

// ResolveDispute applies an admin decision to the bounty, its claim and the payout.
func (s *BountyService) ResolveDispute(ctx context.Context, actor models.Actor, disputeID uuid.UUID, resolution, outcome string) (res *ResolutionResult, err error) {
	defer s.observe(ctx, "resolve_dispute", s.now(), &err)

	resolution = strings.TrimSpace(resolution)
	if resolution == "" {
		return nil, validationErr("resolution is required")
	}
	effect, ok := models.EffectOf(outcome)
	if !ok {
		return nil, validationErr("outcome must be one of client, developer, split")
	}
	if !actor.IsAdmin || !rbac.Can(actor, rbac.PermResolveDispute) {
		return nil, forbiddenErr("admin access required")
	}

	r := s.store.Repos()
	d, err := r.Disputes.GetByID(ctx, disputeID)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, notFoundErr("dispute not found")
	}
	if err != nil {
		return nil, internalErr("load dispute", err)
	}
	if d.Status == models.DisputeStatusResolved {
		return nil, conflictErr("dispute already resolved")
	}

	b, err := s.loadBounty(ctx, r, d.BountyID)
	if err != nil {
		return nil, err
	}
	var claim *models.ClaimWithDeveloper
	if d.ClaimID != nil {
		claim, err = r.Claims.GetByID(ctx, *d.ClaimID)
		if err != nil {
			return nil, internalErr("load claim", err)
		}
	}

	now := s.now()
	writeBounty := effect.BountyStatus != b.Status || effect.BountyStatus == models.BountyStatusCompleted
	if writeBounty && !models.IsValidBountyTransition(b.Status, effect.BountyStatus) {
		return nil, conflictf("bounty cannot move from %s to %s", b.Status, effect.BountyStatus)
	}
	bountyCompletedAt := b.CompletedAt
	if effect.BountyStatus == models.BountyStatusCompleted {
		bountyCompletedAt = &now
	}

	var prevClaim, nextClaim models.Claim
	if claim != nil {
		if !models.IsValidClaimTransition(claim.Status, effect.ClaimStatus) {
			return nil, conflictf("claim cannot move from %s to %s", claim.Status, effect.ClaimStatus)
		}
		prevClaim = claim.Claim
		nextClaim = prevClaim
		nextClaim.Status = effect.ClaimStatus
		nextClaim.PaymentStatus = effect.PaymentStatus
		if effect.ClaimStatus == models.ClaimStatusApproved {
			nextClaim.ApprovedAt = &now
		}
	}

	prevDispute := *d
	next := *d
	next.Status = models.DisputeStatusResolved
	next.Resolution = &resolution
	next.ResolutionOutcome = &outcome
	next.ResolvedByID = &actor.UserID
	next.ResolvedAt = &now

	var disputeStale bool
	err = runUnit(ctx, s.store, "resolve_dispute", b.ID, s.log, s.metrics, func(r repositories.Repos, sg *saga) error {
		if err := sg.do(ctx, "dispute",
			func(ctx context.Context) error {
				err := r.Disputes.Update(ctx, &next, prevDispute.Status)
				disputeStale = errors.Is(err, repositories.ErrStale)
				return err
			},
			func(ctx context.Context) error {
				restore := prevDispute
				return r.Disputes.Update(ctx, &restore, models.DisputeStatusResolved)
			},
		); err != nil {
			return err
		}
		if writeBounty {
			if err := sg.do(ctx, "bounty",
				func(ctx context.Context) error {
					return r.Bounties.UpdateStatus(ctx, b.ID, b.Status, effect.BountyStatus, bountyCompletedAt)
				},
				func(ctx context.Context) error {
					return r.Bounties.UpdateStatus(ctx, b.ID, effect.BountyStatus, b.Status, b.CompletedAt)
				},
			); err != nil {
				return err
			}
		}
		if claim == nil {
			return nil
		}
		return sg.do(ctx, "claim", func(ctx context.Context) error {
			return r.Claims.Update(ctx, &nextClaim, prevClaim.Status)
		}, nil)
	})
	if disputeStale {
		return nil, &Error{Kind: KindConflict, Msg: "dispute already resolved", Err: err}
	}
	if err != nil {
		return nil, storeErr("resolve dispute", err)
	}

	res = &ResolutionResult{
		DisputeID:  disputeID,
		Resolution: resolution,
		Outcome:    outcome,
		Status:     models.DisputeStatusResolved,
		ResolvedAt: now,
	}
	if effect.CreatePayment && claim != nil {
		claim.Claim = nextClaim
		payment := s.newPayment(&b.Bounty, claim, models.PayoutAmount(outcome, b.Amount), &d.ID)
		if err := s.createPayment(ctx, payment, "resolve_dispute"); err != nil {
			res.PaymentQueued = true
		} else {
			res.Payment = payment
		}
	}

	recipients := []uuid.UUID{b.ClientUserID}
	claimStatus := ""
	if claim != nil {
		recipients = append(recipients, claim.DeveloperUserID)
		claimStatus = nextClaim.Status
	}
	s.record(ctx, statusChange{
		action:      "dispute_resolved",
		actorID:     &actor.UserID,
		actorType:   models.ActorTypeAdmin,
		bountyID:    b.ID,
		oldStatus:   b.Status,
		newStatus:   effect.BountyStatus,
		claimStatus: claimStatus,
		recipients:  recipients,
		meta:        map[string]any{"dispute_id": disputeID.String(), "outcome": outcome},
	})
	return res, nil
}

// MarkDisputeInReview lets an admin signal that an open dispute is being looked at.
func (s *BountyService) MarkDisputeInReview(ctx context.Context, actor models.Actor, disputeID uuid.UUID) (_ *models.Dispute, err error) {
	defer s.observe(ctx, "review_dispute", s.now(), &err)

	if !actor.IsAdmin {
		return nil, forbiddenErr("admin access required")
	}

	r := s.store.Repos()
	d, err := r.Disputes.GetByID(ctx, disputeID)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, notFoundErr("dispute not found")
	}
	if err != nil {
		return nil, internalErr("load dispute", err)
	}
	if d.Status != models.DisputeStatusOpen {
		return nil, conflictErr("only open disputes can be taken into review")
	}

	d.Status = models.DisputeStatusInReview
	if err := r.Disputes.Update(ctx, d, models.DisputeStatusOpen); err != nil {
		return nil, storeErr("mark dispute in review", err)
	}

	s.audit(ctx, models.AuditLog{
		ActorUserID: &actor.UserID,
		ActorType:   models.ActorTypeAdmin,
		Action:      "dispute_in_review",
		EntityType:  "bounty",
		EntityID:    &d.BountyID,
		Meta:        map[string]any{"dispute_id": d.ID.String()},
	})
	return d, nil
}
