package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/devbounty/backend/internal/config"
	"github.com/devbounty/backend/internal/events"
	"github.com/devbounty/backend/internal/models"
	"github.com/devbounty/backend/internal/rbac"
	"github.com/devbounty/backend/internal/repositories"
	"github.com/devbounty/backend/internal/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// BountyService is the lifecycle engine. Every operation takes the calling
// actor explicitly.
type BountyService struct {
	store     repositories.Store
	publisher events.Publisher
	metrics   *telemetry.Metrics
	cfg       *config.Config
	log       *zap.Logger
	now       func() time.Time
}

func NewBountyService(
	store repositories.Store,
	publisher events.Publisher,
	metrics *telemetry.Metrics,
	cfg *config.Config,
	log *zap.Logger,
) *BountyService {
	return &BountyService{
		store:     store,
		publisher: publisher,
		metrics:   metrics,
		cfg:       cfg,
		log:       log,
		now:       time.Now,
	}
}

// observe records the outcome of a lifecycle operation. Use with a named error.
func (s *BountyService) observe(ctx context.Context, op string, started time.Time, err *error) {
	result := "ok"
	if *err != nil {
		result = string(KindOf(*err))
	}
	s.metrics.Operation(ctx, op, result, started)
}

// statusChange is the audit and event record of one committed transition.
type statusChange struct {
	action      string
	actorID     *uuid.UUID
	actorType   string
	bountyID    uuid.UUID
	oldStatus   string
	newStatus   string
	claimStatus string
	recipients  []uuid.UUID
	meta        map[string]any
}

func actorTypeOf(a models.Actor) string {
	if a.IsAdmin {
		return models.ActorTypeAdmin
	}
	return models.ActorTypeUser
}

// record writes the audit entry and publishes the status event. Both are
// best-effort; the transition has already committed.
func (s *BountyService) record(ctx context.Context, ch statusChange) {
	meta := map[string]any{"old_status": ch.oldStatus, "new_status": ch.newStatus}
	if ch.claimStatus != "" {
		meta["claim_status"] = ch.claimStatus
	}
	for k, v := range ch.meta {
		meta[k] = v
	}

	s.audit(ctx, models.AuditLog{
		ActorUserID: ch.actorID,
		ActorType:   ch.actorType,
		Action:      ch.action,
		EntityType:  "bounty",
		EntityID:    &ch.bountyID,
		Meta:        meta,
	})

	recipients := make([]string, 0, len(ch.recipients))
	for _, id := range ch.recipients {
		if id != uuid.Nil {
			recipients = append(recipients, id.String())
		}
	}
	payload := map[string]any{
		"bounty_id":  ch.bountyID.String(),
		"old_status": ch.oldStatus,
		"new_status": ch.newStatus,
		"action":     ch.action,
		"recipients": recipients,
	}
	if ch.claimStatus != "" {
		payload["claim_status"] = ch.claimStatus
	}
	_ = s.publisher.Publish(ctx, events.StreamBounty, events.Event{
		Type:    events.EventBountyStatusChanged,
		Payload: payload,
	})
}

func (s *BountyService) audit(ctx context.Context, entry models.AuditLog) {
	if err := s.store.Repos().Audit.Log(ctx, entry); err != nil {
		s.log.Warn("audit log failed", zap.String("action", entry.Action), zap.Error(err))
	}
}

// storeErr maps repository failures that escaped the precondition checks.
// A stale or duplicate write means another request won the race.
func storeErr(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repositories.ErrStale), errors.Is(err, repositories.ErrDuplicate):
		return &Error{Kind: KindConflict, Msg: "bounty changed concurrently, reload and retry", Err: err}
	default:
		var se *Error
		if errors.As(err, &se) {
			return err
		}
		return internalErr(op+" failed", err)
	}
}

func (s *BountyService) loadBounty(ctx context.Context, r repositories.Repos, id uuid.UUID) (*models.BountyWithClient, error) {
	b, err := r.Bounties.GetWithClient(ctx, id)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, notFoundErr("bounty not found")
	}
	if err != nil {
		return nil, internalErr("load bounty", err)
	}
	return b, nil
}

type CreateBountyInput struct {
	Title            string
	Description      string
	GithubRepo       string
	Category         string
	Tags             []string
	Amount           int64
	ExpiresAt        time.Time
	DibsDurationDays int
}

func (s *BountyService) CreateBounty(ctx context.Context, actor models.Actor, in CreateBountyInput) (*models.Bounty, error) {
	if actor.ClientProfileID == nil || !rbac.Can(actor, rbac.PermCreateBounty) {
		return nil, forbiddenErr("client profile required")
	}

	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	in.GithubRepo = strings.TrimSpace(in.GithubRepo)
	switch {
	case in.Title == "":
		return nil, validationErr("title is required")
	case in.Description == "":
		return nil, validationErr("description is required")
	case in.GithubRepo == "":
		return nil, validationErr("github_repo is required")
	case in.Amount <= 0:
		return nil, validationErr("amount must be positive")
	case !in.ExpiresAt.After(s.now()):
		return nil, validationErr("expires_at must be in the future")
	case in.DibsDurationDays < 0:
		return nil, validationErr("dibs_duration_days must not be negative")
	}

	dibs := s.cfg.DefaultDibsDuration
	if in.DibsDurationDays > 0 {
		dibs = time.Duration(in.DibsDurationDays) * 24 * time.Hour
	}

	b := &models.Bounty{
		ClientID:            *actor.ClientProfileID,
		Title:               in.Title,
		Description:         in.Description,
		GithubRepo:          in.GithubRepo,
		Category:            strings.TrimSpace(in.Category),
		Tags:                in.Tags,
		Amount:              in.Amount,
		Status:              models.BountyStatusOpen,
		DibsDurationSeconds: int64(dibs / time.Second),
		ExpiresAt:           in.ExpiresAt,
	}
	if err := s.store.Repos().Bounties.Create(ctx, b); err != nil {
		return nil, internalErr("create bounty", err)
	}

	_ = s.store.Repos().Audit.Log(ctx, models.AuditLog{
		ActorUserID: &actor.UserID,
		ActorType:   models.ActorTypeUser,
		Action:      "bounty_created",
		EntityType:  "bounty",
		EntityID:    &b.ID,
		Meta:        map[string]any{"amount": b.Amount, "github_repo": b.GithubRepo},
	})

	return b, nil
}

func (s *BountyService) GetBounty(ctx context.Context, id uuid.UUID) (*models.BountyDetails, error) {
	r := s.store.Repos()
	b, err := s.loadBounty(ctx, r, id)
	if err != nil {
		return nil, err
	}

	details := &models.BountyDetails{BountyWithClient: *b, EffectiveStatus: b.EffectiveStatus(s.now())}
	claim, err := r.Claims.LatestByBounty(ctx, id)
	switch {
	case err == nil:
		details.Claim = claim
	case !errors.Is(err, repositories.ErrNotFound):
		return nil, internalErr("load claim", err)
	}
	return details, nil
}

func (s *BountyService) ListBounties(ctx context.Context, f repositories.BountyFilter) ([]models.BountyWithClient, error) {
	if f.Status != nil && *f.Status != "" {
		if _, ok := models.ValidBountyTransitions[*f.Status]; !ok {
			return nil, validationErr("unknown status filter")
		}
	}
	bounties, err := s.store.Repos().Bounties.List(ctx, f)
	if err != nil {
		return nil, internalErr("list bounties", err)
	}
	if bounties == nil {
		bounties = []models.BountyWithClient{}
	}
	return bounties, nil
}

// GetBountyEvents returns the bounty's audit trail, newest first.
func (s *BountyService) GetBountyEvents(ctx context.Context, bountyID uuid.UUID, limit, offset int) ([]models.AuditLog, error) {
	r := s.store.Repos()
	if _, err := s.loadBounty(ctx, r, bountyID); err != nil {
		return nil, err
	}
	logs, err := r.Audit.GetByEntity(ctx, "bounty", bountyID, limit, offset)
	if err != nil {
		return nil, internalErr("load bounty events", err)
	}
	if logs == nil {
		logs = []models.AuditLog{}
	}
	return logs, nil
}

// GetPayment returns the latest payment for the bounty. Only the client, the
// paid developer and admins may see it.
func (s *BountyService) GetPayment(ctx context.Context, actor models.Actor, bountyID uuid.UUID) (*models.Payment, error) {
	r := s.store.Repos()
	b, err := s.loadBounty(ctx, r, bountyID)
	if err != nil {
		return nil, err
	}

	p, err := r.Payments.GetLatestByBounty(ctx, bountyID)
	if errors.Is(err, repositories.ErrNotFound) {
		if !actor.IsAdmin && !actor.IsClientOf(&b.Bounty) {
			return nil, forbiddenErr("not a participant of this bounty")
		}
		return nil, notFoundErr("no payment for this bounty")
	}
	if err != nil {
		return nil, internalErr("load payment", err)
	}

	isDeveloper := actor.DeveloperProfileID != nil && *actor.DeveloperProfileID == p.DeveloperID
	if !actor.IsAdmin && !actor.IsClientOf(&b.Bounty) && !isDeveloper {
		return nil, forbiddenErr("not a participant of this bounty")
	}
	return p, nil
}

func (s *BountyService) ListDisputes(ctx context.Context, actor models.Actor, f repositories.DisputeFilter) ([]models.Dispute, error) {
	if !rbac.Can(actor, rbac.PermListDisputes) {
		return nil, forbiddenErr("admin access required")
	}
	disputes, err := s.store.Repos().Disputes.List(ctx, f)
	if err != nil {
		return nil, internalErr("list disputes", err)
	}
	if disputes == nil {
		disputes = []models.Dispute{}
	}
	return disputes, nil
}

func (s *BountyService) newPayment(b *models.Bounty, c *models.ClaimWithDeveloper, amount int64, disputeID *uuid.UUID) *models.Payment {
	return &models.Payment{
		BountyID:       b.ID,
		ClaimID:        c.ID,
		DisputeID:      disputeID,
		ClientID:       b.ClientID,
		DeveloperID:    c.DeveloperID,
		Amount:         amount,
		PaymentMethod:  s.cfg.PaymentMethod,
		PaymentAddress: c.PaymentAddress,
		Status:         models.PaymentRecordPending,
	}
}

func conflictf(format string, args ...any) error {
	return conflictErr(fmt.Sprintf(format, args...))
}
