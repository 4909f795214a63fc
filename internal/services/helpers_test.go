package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/devbounty/backend/internal/config"
	"github.com/devbounty/backend/internal/events"
	"github.com/devbounty/backend/internal/models"
	"github.com/devbounty/backend/internal/repositories"
	"github.com/devbounty/backend/internal/repositories/memstore"
	"github.com/devbounty/backend/internal/telemetry"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

var errBoom = errors.New("boom")

func testConfig() *config.Config {
	return &config.Config{
		JWTSecret:              "test-secret",
		JWTExpiration:          time.Hour,
		DefaultDibsDuration:    7 * 24 * time.Hour,
		PaymentMethod:          "USD",
		PaymentRetryMaxElapsed: 20 * time.Millisecond,
		ReconcileBatchSize:     100,
	}
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(_ context.Context, _ string, e events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) ofType(typ string) []events.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []events.Event
	for _, e := range p.events {
		if e.Type == typ {
			out = append(out, e)
		}
	}
	return out
}

// faultyStore is a memstore whose repositories can be swapped for failing ones.
type faultyStore struct {
	*memstore.Store
	wrap func(r repositories.Repos) repositories.Repos
}

func (f *faultyStore) Repos() repositories.Repos {
	r := f.Store.Repos()
	if f.wrap != nil {
		r = f.wrap(r)
	}
	return r
}

func (f *faultyStore) Atomic(_ context.Context, fn func(r repositories.Repos) error) error {
	return fn(f.Repos())
}

type failingBounties struct {
	repositories.BountyRepository
	failTo string
}

func (f failingBounties) UpdateStatus(ctx context.Context, id uuid.UUID, from, to string, completedAt *time.Time) error {
	if to == f.failTo {
		return errBoom
	}
	return f.BountyRepository.UpdateStatus(ctx, id, from, to, completedAt)
}

// staleBounties reports a transaction aborted by the database (deadlock or
// serialization failure) the way the Postgres repositories surface it.
type staleBounties struct {
	repositories.BountyRepository
}

func (staleBounties) UpdateStatus(context.Context, uuid.UUID, string, string, *time.Time) error {
	return fmt.Errorf("%w: deadlock detected", repositories.ErrStale)
}

type failingAudit struct {
	repositories.AuditRepository
}

func (failingAudit) Log(context.Context, models.AuditLog) error { return errBoom }

// raceLostDisputes behaves as if another admin resolved the dispute between
// the read and the guarded write.
type raceLostDisputes struct {
	repositories.DisputeRepository
}

func (raceLostDisputes) Update(context.Context, *models.Dispute, string) error {
	return repositories.ErrStale
}

// writeLog records the order in which a unit touches rows.
type writeLog struct {
	mu  sync.Mutex
	ops []string
}

func (l *writeLog) add(op string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.ops = append(l.ops, op)
}

func (l *writeLog) reset() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	ops := l.ops
	l.ops = nil
	return ops
}

type loggedBounties struct {
	repositories.BountyRepository
	log *writeLog
}

func (b loggedBounties) LockForUpdate(ctx context.Context, id uuid.UUID) error {
	b.log.add("lock bounty")
	return b.BountyRepository.LockForUpdate(ctx, id)
}

func (b loggedBounties) UpdateStatus(ctx context.Context, id uuid.UUID, from, to string, completedAt *time.Time) error {
	b.log.add("write bounty")
	return b.BountyRepository.UpdateStatus(ctx, id, from, to, completedAt)
}

type loggedClaims struct {
	repositories.ClaimRepository
	log *writeLog
}

func (c loggedClaims) Create(ctx context.Context, claim *models.Claim) error {
	c.log.add("write claim")
	return c.ClaimRepository.Create(ctx, claim)
}

func (c loggedClaims) Update(ctx context.Context, claim *models.Claim, fromStatus string) error {
	c.log.add("write claim")
	return c.ClaimRepository.Update(ctx, claim, fromStatus)
}

type loggedDisputes struct {
	repositories.DisputeRepository
	log *writeLog
}

func (d loggedDisputes) Create(ctx context.Context, dispute *models.Dispute) error {
	d.log.add("write dispute")
	return d.DisputeRepository.Create(ctx, dispute)
}

func (d loggedDisputes) Update(ctx context.Context, dispute *models.Dispute, fromStatus string) error {
	d.log.add("write dispute")
	return d.DisputeRepository.Update(ctx, dispute, fromStatus)
}

type failingClaims struct {
	repositories.ClaimRepository
	failTo string
}

func (f failingClaims) Update(ctx context.Context, c *models.Claim, fromStatus string) error {
	if c.Status == f.failTo {
		return errBoom
	}
	return f.ClaimRepository.Update(ctx, c, fromStatus)
}

type failingDisputes struct {
	repositories.DisputeRepository
}

func (failingDisputes) Delete(context.Context, uuid.UUID) error { return errBoom }

type failingPayments struct {
	repositories.PaymentRepository
	mu    *sync.Mutex
	calls *int
}

func (f failingPayments) Create(context.Context, *models.Payment) error {
	f.mu.Lock()
	*f.calls++
	f.mu.Unlock()
	return errBoom
}

// panicStore fails the test if anything touches persistence.
type panicStore struct{}

func (panicStore) Repos() repositories.Repos { panic("store touched") }
func (panicStore) Atomic(context.Context, func(repositories.Repos) error) error {
	panic("store touched")
}
func (panicStore) Transactional() bool { return false }

type testEnv struct {
	mem     *memstore.Store
	store   *faultyStore
	svc     *BountyService
	pub     *recordingPublisher
	reader  *sdkmetric.ManualReader
	logs    *observer.ObservedLogs
	client  models.Actor
	dev     models.Actor
	dev2    models.Actor
	admin   models.Actor
	devAddr string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	mem := memstore.New()
	store := &faultyStore{Store: mem}
	pub := &recordingPublisher{}
	reader := sdkmetric.NewManualReader()
	metrics := telemetry.NewMetricsFrom(sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)))
	core, logs := observer.New(zapcore.DebugLevel)

	e := &testEnv{
		mem:     mem,
		store:   store,
		svc:     NewBountyService(store, pub, metrics, testConfig(), zap.New(core)),
		pub:     pub,
		reader:  reader,
		logs:    logs,
		devAddr: "acct-dev-1",
	}
	e.client = e.newActor(t, "client@example.com", "client", "")
	e.dev = e.newActor(t, "dev1@example.com", "developer", e.devAddr)
	e.dev2 = e.newActor(t, "dev2@example.com", "developer", "acct-dev-2")
	e.admin = e.newActor(t, "admin@example.com", "", "")
	require.NoError(t, mem.Repos().Users.SetAdmin(context.Background(), "admin@example.com", true))
	e.admin.IsAdmin = true
	return e
}

func (e *testEnv) newActor(t *testing.T, email, role, paymentAddress string) models.Actor {
	t.Helper()
	ctx := context.Background()
	r := e.mem.Repos()

	u := &models.User{Email: email, PasswordHash: "x", FullName: email}
	require.NoError(t, r.Users.Create(ctx, u))
	switch role {
	case "client":
		require.NoError(t, r.Users.CreateClientProfile(ctx, &models.ClientProfile{UserID: u.ID, PaymentEmail: email}))
	case "developer":
		require.NoError(t, r.Users.CreateDeveloperProfile(ctx, &models.DeveloperProfile{UserID: u.ID, PaymentAddress: paymentAddress}))
	}
	a, err := r.Users.GetActor(ctx, u.ID)
	require.NoError(t, err)
	return *a
}

func (e *testEnv) newBounty(t *testing.T, amount int64) *models.Bounty {
	t.Helper()
	b := &models.Bounty{
		ClientID:    *e.client.ClientProfileID,
		Title:       "Add retries to webhook sender",
		Description: "Deliveries are dropped on 5xx",
		GithubRepo:  "acme/hooks",
		Amount:      amount,
		Status:      models.BountyStatusOpen,
		ExpiresAt:   time.Now().Add(30 * 24 * time.Hour),
	}
	require.NoError(t, e.mem.Repos().Bounties.Create(context.Background(), b))
	return b
}

func (e *testEnv) bounty(t *testing.T, id uuid.UUID) *models.Bounty {
	t.Helper()
	b, err := e.mem.Repos().Bounties.GetByID(context.Background(), id)
	require.NoError(t, err)
	return b
}

func (e *testEnv) latestClaim(t *testing.T, bountyID uuid.UUID) *models.ClaimWithDeveloper {
	t.Helper()
	c, err := e.mem.Repos().Claims.LatestByBounty(context.Background(), bountyID)
	require.NoError(t, err)
	return c
}

// claimed returns a bounty with an in-progress claim by dev.
func (e *testEnv) claimed(t *testing.T, amount int64) *models.Bounty {
	t.Helper()
	b := e.newBounty(t, amount)
	_, err := e.svc.ClaimBounty(context.Background(), e.dev, b.ID)
	require.NoError(t, err)
	return b
}

// delivered returns a bounty whose claim has been submitted for review.
func (e *testEnv) delivered(t *testing.T, amount int64) *models.Bounty {
	t.Helper()
	b := e.claimed(t, amount)
	_, err := e.svc.SubmitCompletion(context.Background(), e.dev, b.ID, "https://github.com/acme/hooks/pull/7")
	require.NoError(t, err)
	return b
}

func (e *testEnv) counter(t *testing.T, name string) int64 {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, e.reader.Collect(context.Background(), &rm))
	var total int64
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if sum, ok := m.Data.(metricdata.Sum[int64]); ok && m.Name == name {
				for _, dp := range sum.DataPoints {
					total += dp.Value
				}
			}
		}
	}
	return total
}

func requireKind(t *testing.T, err error, kind Kind) {
	t.Helper()
	require.Error(t, err)
	require.Equal(t, kind, KindOf(err), "error: %v", err)
}
