package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/devbounty/backend/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrStale     = errors.New("row changed concurrently")
	ErrDuplicate = errors.New("duplicate row")
)

// DBTX is satisfied by both *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type BountyRepository interface {
	Create(ctx context.Context, b *models.Bounty) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Bounty, error)
	GetWithClient(ctx context.Context, id uuid.UUID) (*models.BountyWithClient, error)
	List(ctx context.Context, f BountyFilter) ([]models.BountyWithClient, error)
	// UpdateStatus moves the bounty from -> to and overwrites completed_at.
	// Returns ErrStale when the stored status is no longer from.
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to string, completedAt *time.Time) error
	ListExpirable(ctx context.Context, now time.Time, limit int) ([]models.Bounty, error)
	// LockForUpdate row-locks the bounty for the rest of the transaction.
	// Every multi-row unit takes this lock before writing anything else.
	LockForUpdate(ctx context.Context, id uuid.UUID) error
}

type ClaimRepository interface {
	// Create returns ErrDuplicate when the bounty already has an active claim.
	Create(ctx context.Context, c *models.Claim) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.ClaimWithDeveloper, error)
	FindByBounty(ctx context.Context, bountyID uuid.UUID, status string) (*models.ClaimWithDeveloper, error)
	LatestByBounty(ctx context.Context, bountyID uuid.UUID) (*models.ClaimWithDeveloper, error)
	// Update writes every mutable column of c, guarded on the stored status being fromStatus.
	Update(ctx context.Context, c *models.Claim, fromStatus string) error
	Delete(ctx context.Context, id uuid.UUID) error
	ListOverdue(ctx context.Context, now time.Time, limit int) ([]models.Claim, error)
	// ListAwaitingPayment returns approved claims that have no payment row.
	ListAwaitingPayment(ctx context.Context, limit int) ([]models.ClaimWithDeveloper, error)
}

type DisputeRepository interface {
	// Create returns ErrDuplicate when the bounty already has an unresolved dispute.
	Create(ctx context.Context, d *models.Dispute) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Dispute, error)
	GetUnresolvedByBounty(ctx context.Context, bountyID uuid.UUID) (*models.Dispute, error)
	GetResolvedByClaim(ctx context.Context, claimID uuid.UUID) (*models.Dispute, error)
	Update(ctx context.Context, d *models.Dispute, fromStatus string) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, f DisputeFilter) ([]models.Dispute, error)
}

type PaymentRepository interface {
	// Create returns ErrDuplicate when the claim already has a payment.
	Create(ctx context.Context, p *models.Payment) error
	GetByClaim(ctx context.Context, claimID uuid.UUID) (*models.Payment, error)
	GetLatestByBounty(ctx context.Context, bountyID uuid.UUID) (*models.Payment, error)
}

type UserRepository interface {
	Create(ctx context.Context, u *models.User) error
	CreateClientProfile(ctx context.Context, p *models.ClientProfile) error
	CreateDeveloperProfile(ctx context.Context, p *models.DeveloperProfile) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetClientProfile(ctx context.Context, userID uuid.UUID) (*models.ClientProfile, error)
	GetDeveloperProfile(ctx context.Context, userID uuid.UUID) (*models.DeveloperProfile, error)
	GetActor(ctx context.Context, userID uuid.UUID) (*models.Actor, error)
	SetAdmin(ctx context.Context, email string, admin bool) error
}

type CommentRepository interface {
	Create(ctx context.Context, c *models.Comment) error
	ListByBounty(ctx context.Context, bountyID uuid.UUID, limit, offset int) ([]models.Comment, error)
}

type ReviewRepository interface {
	// Create returns ErrDuplicate when the reviewer already reviewed the bounty.
	Create(ctx context.Context, rv *models.Review) error
	ListByReviewee(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Review, error)
	ListByBounty(ctx context.Context, bountyID uuid.UUID) ([]models.Review, error)
	Summary(ctx context.Context, userID uuid.UUID) (models.RatingSummary, error)
}

type AuditRepository interface {
	Log(ctx context.Context, entry models.AuditLog) error
	GetByEntity(ctx context.Context, entityType string, entityID uuid.UUID, limit, offset int) ([]models.AuditLog, error)
}

// Repos groups the per-entity repositories bound to one connection or transaction.
type Repos struct {
	Bounties BountyRepository
	Claims   ClaimRepository
	Disputes DisputeRepository
	Payments PaymentRepository
	Users    UserRepository
	Comments CommentRepository
	Reviews  ReviewRepository
	Audit    AuditRepository
}

// Store hands out repositories and runs multi-write units of work.
//
// Atomic on a transactional store commits fn's writes together or not at all.
// A store that reports Transactional() == false applies each write as it
// happens, and callers are responsible for compensating on failure.
type Store interface {
	Repos() Repos
	Atomic(ctx context.Context, fn func(r Repos) error) error
	Transactional() bool
}

type BountyFilter struct {
	Status   *string
	ClientID *uuid.UUID
	Limit    int
	Offset   int
}

type DisputeFilter struct {
	Status   *string
	BountyID *uuid.UUID
	Limit    int
	Offset   int
}

// NormalizeLimit clamps list page sizes.
func NormalizeLimit(limit int) int {
	if limit <= 0 || limit > 100 {
		return 20
	}
	return limit
}

func mapErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505": // unique_violation
			return ErrDuplicate
		case "40001", "40P01": // serialization_failure, deadlock_detected
			return fmt.Errorf("%w: %s", ErrStale, pgErr.Message)
		}
	}
	return err
}

func requireAffected(tag pgconn.CommandTag, err error) error {
	if err != nil {
		return mapErr(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrStale
	}
	return nil
}
