package services

import (
	"context"

	"github.com/devbounty/backend/internal/repositories"
	"github.com/devbounty/backend/internal/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type sagaStep struct {
	name string
	undo func(ctx context.Context) error
}

// saga records the compensation for each write that succeeded so a failed
// multi-write operation can be unwound on a store without transactions.
type saga struct {
	op    string
	steps []sagaStep
}

// do runs the write and, when it succeeds, remembers undo. A nil undo marks a
// step that needs no compensation.
func (sg *saga) do(ctx context.Context, name string, write, undo func(ctx context.Context) error) error {
	if err := write(ctx); err != nil {
		return err
	}
	if undo != nil {
		sg.steps = append(sg.steps, sagaStep{name: name, undo: undo})
	}
	return nil
}

// compensate runs recorded undos newest first. Failures are logged and
// counted, never returned: the caller still reports the original error.
func (sg *saga) compensate(ctx context.Context, log *zap.Logger, metrics *telemetry.Metrics) {
	ctx = context.WithoutCancel(ctx)
	for i := len(sg.steps) - 1; i >= 0; i-- {
		step := sg.steps[i]
		if err := step.undo(ctx); err != nil {
			log.Warn("compensation failed, manual reconciliation required",
				zap.String("operation", sg.op),
				zap.String("step", step.name),
				zap.Error(err),
			)
			metrics.CompensationFailed(ctx, sg.op, step.name)
		}
	}
}

// runUnit executes fn as one unit of work on bountyID. On a transactional
// store the transaction discards partial writes; otherwise the saga
// compensates.
//
// The bounty row is locked before fn runs, so every unit acquires row locks
// in the same order (bounty, then dispute or claim) and two units on the same
// bounty queue up instead of deadlocking.
func runUnit(
	ctx context.Context,
	store repositories.Store,
	op string,
	bountyID uuid.UUID,
	log *zap.Logger,
	metrics *telemetry.Metrics,
	fn func(r repositories.Repos, sg *saga) error,
) error {
	return store.Atomic(ctx, func(r repositories.Repos) error {
		if err := r.Bounties.LockForUpdate(ctx, bountyID); err != nil {
			return err
		}
		sg := &saga{op: op}
		err := fn(r, sg)
		if err != nil && !store.Transactional() {
			sg.compensate(ctx, log, metrics)
		}
		return err
	})
}
