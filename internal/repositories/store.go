package repositories

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

type PgStore struct {
	pool *pgxpool.Pool
}

func NewPgStore(pool *pgxpool.Pool) *PgStore {
	return &PgStore{pool: pool}
}

func newRepos(db DBTX) Repos {
	return Repos{
		Bounties: NewBountyRepo(db),
		Claims:   NewClaimRepo(db),
		Disputes: NewDisputeRepo(db),
		Payments: NewPaymentRepo(db),
		Users:    NewUserRepo(db),
		Comments: NewCommentRepo(db),
		Reviews:  NewReviewRepo(db),
		Audit:    NewAuditRepo(db),
	}
}

func (s *PgStore) Repos() Repos {
	return newRepos(s.pool)
}

func (s *PgStore) Atomic(ctx context.Context, fn func(r Repos) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(newRepos(tx)); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", mapErr(err))
	}
	return nil
}

func (s *PgStore) Transactional() bool { return true }
