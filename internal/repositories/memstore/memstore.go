// Package memstore is an in-process repositories.Store. Each repository call
// holds the store mutex and applies the same conditional-write checks as the
// Postgres queries, but Atomic does not roll anything back.
package memstore

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/devbounty/backend/internal/models"
	"github.com/devbounty/backend/internal/repositories"
	"github.com/google/uuid"
)

type Store struct {
	mu  sync.Mutex
	now func() time.Time

	users      map[uuid.UUID]models.User
	clients    map[uuid.UUID]models.ClientProfile
	developers map[uuid.UUID]models.DeveloperProfile
	bounties   map[uuid.UUID]models.Bounty
	claims     map[uuid.UUID]models.Claim
	disputes   map[uuid.UUID]models.Dispute
	payments   map[uuid.UUID]models.Payment
	comments   []models.Comment
	reviews    []models.Review
	audit      []models.AuditLog

	// insertion order, oldest first
	bountyOrder  []uuid.UUID
	claimOrder   []uuid.UUID
	disputeOrder []uuid.UUID
	paymentOrder []uuid.UUID
}

func New() *Store {
	return &Store{
		now:        time.Now,
		users:      make(map[uuid.UUID]models.User),
		clients:    make(map[uuid.UUID]models.ClientProfile),
		developers: make(map[uuid.UUID]models.DeveloperProfile),
		bounties:   make(map[uuid.UUID]models.Bounty),
		claims:     make(map[uuid.UUID]models.Claim),
		disputes:   make(map[uuid.UUID]models.Dispute),
		payments:   make(map[uuid.UUID]models.Payment),
	}
}

func (s *Store) Repos() repositories.Repos {
	return repositories.Repos{
		Bounties: bountyRepo{s},
		Claims:   claimRepo{s},
		Disputes: disputeRepo{s},
		Payments: paymentRepo{s},
		Users:    userRepo{s},
		Comments: commentRepo{s},
		Reviews:  reviewRepo{s},
		Audit:    auditRepo{s},
	}
}

func (s *Store) Atomic(_ context.Context, fn func(r repositories.Repos) error) error {
	return fn(s.Repos())
}

func (s *Store) Transactional() bool { return false }

func page[T any](items []T, limit, offset int) []T {
	offset = max(offset, 0)
	if offset >= len(items) {
		return nil
	}
	items = items[offset:]
	if limit < len(items) {
		items = items[:limit]
	}
	return items
}

func remove(order []uuid.UUID, id uuid.UUID) []uuid.UUID {
	for i, v := range order {
		if v == id {
			return append(order[:i], order[i+1:]...)
		}
	}
	return order
}

// Bounties

type bountyRepo struct{ s *Store }

func (r bountyRepo) Create(_ context.Context, b *models.Bounty) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	if b.Tags == nil {
		b.Tags = []string{}
	}
	b.CreatedAt = s.now()
	b.UpdatedAt = b.CreatedAt
	s.bounties[b.ID] = *b
	s.bountyOrder = append(s.bountyOrder, b.ID)
	return nil
}

func (r bountyRepo) GetByID(_ context.Context, id uuid.UUID) (*models.Bounty, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.bounties[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return &b, nil
}

func (r bountyRepo) GetWithClient(_ context.Context, id uuid.UUID) (*models.BountyWithClient, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.bounties[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	cp, ok := s.clients[b.ClientID]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return &models.BountyWithClient{Bounty: b, ClientUserID: cp.UserID}, nil
}

func (r bountyRepo) List(_ context.Context, f repositories.BountyFilter) ([]models.BountyWithClient, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []models.BountyWithClient
	for i := len(s.bountyOrder) - 1; i >= 0; i-- {
		b := s.bounties[s.bountyOrder[i]]
		if f.Status != nil && b.Status != *f.Status {
			continue
		}
		if f.ClientID != nil && b.ClientID != *f.ClientID {
			continue
		}
		out = append(out, models.BountyWithClient{Bounty: b, ClientUserID: s.clients[b.ClientID].UserID})
	}
	return page(out, repositories.NormalizeLimit(f.Limit), f.Offset), nil
}

func (r bountyRepo) UpdateStatus(_ context.Context, id uuid.UUID, from, to string, completedAt *time.Time) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.bounties[id]
	if !ok || b.Status != from {
		return repositories.ErrStale
	}
	b.Status = to
	b.CompletedAt = completedAt
	b.UpdatedAt = s.now()
	s.bounties[id] = b
	return nil
}

// LockForUpdate only checks existence; every call already holds the store mutex.
func (r bountyRepo) LockForUpdate(_ context.Context, id uuid.UUID) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.bounties[id]; !ok {
		return repositories.ErrNotFound
	}
	return nil
}

func (r bountyRepo) ListExpirable(_ context.Context, now time.Time, limit int) ([]models.Bounty, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []models.Bounty
	for _, id := range s.bountyOrder {
		b := s.bounties[id]
		if b.Status == models.BountyStatusOpen && b.ExpiresAt.Before(now) {
			out = append(out, b)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ExpiresAt.Before(out[j].ExpiresAt) })
	if limit <= 0 {
		limit = 100
	}
	return page(out, limit, 0), nil
}

// Claims

type claimRepo struct{ s *Store }

func (s *Store) withDeveloper(c models.Claim) *models.ClaimWithDeveloper {
	dp := s.developers[c.DeveloperID]
	return &models.ClaimWithDeveloper{Claim: c, DeveloperUserID: dp.UserID, PaymentAddress: dp.PaymentAddress}
}

func (r claimRepo) Create(_ context.Context, c *models.Claim) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.claims {
		if existing.BountyID == c.BountyID && models.IsActiveClaimStatus(existing.Status) && models.IsActiveClaimStatus(c.Status) {
			return repositories.ErrDuplicate
		}
	}
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	c.ClaimedAt = s.now()
	s.claims[c.ID] = *c
	s.claimOrder = append(s.claimOrder, c.ID)
	return nil
}

func (r claimRepo) GetByID(_ context.Context, id uuid.UUID) (*models.ClaimWithDeveloper, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.claims[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return s.withDeveloper(c), nil
}

func (r claimRepo) FindByBounty(_ context.Context, bountyID uuid.UUID, status string) (*models.ClaimWithDeveloper, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := len(s.claimOrder) - 1; i >= 0; i-- {
		c := s.claims[s.claimOrder[i]]
		if c.BountyID == bountyID && c.Status == status {
			return s.withDeveloper(c), nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (r claimRepo) LatestByBounty(_ context.Context, bountyID uuid.UUID) (*models.ClaimWithDeveloper, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := len(s.claimOrder) - 1; i >= 0; i-- {
		c := s.claims[s.claimOrder[i]]
		if c.BountyID == bountyID {
			return s.withDeveloper(c), nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (r claimRepo) Update(_ context.Context, c *models.Claim, fromStatus string) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.claims[c.ID]
	if !ok || stored.Status != fromStatus {
		return repositories.ErrStale
	}
	if models.IsActiveClaimStatus(c.Status) && !models.IsActiveClaimStatus(stored.Status) {
		for id, other := range s.claims {
			if id != c.ID && other.BountyID == c.BountyID && models.IsActiveClaimStatus(other.Status) {
				return repositories.ErrDuplicate
			}
		}
	}
	// identity columns are not writable
	c.BountyID, c.DeveloperID, c.ClaimedAt = stored.BountyID, stored.DeveloperID, stored.ClaimedAt
	s.claims[c.ID] = *c
	return nil
}

func (r claimRepo) Delete(_ context.Context, id uuid.UUID) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.claims[id]; !ok {
		return repositories.ErrStale
	}
	delete(s.claims, id)
	s.claimOrder = remove(s.claimOrder, id)
	return nil
}

func (r claimRepo) ListOverdue(_ context.Context, now time.Time, limit int) ([]models.Claim, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []models.Claim
	for _, id := range s.claimOrder {
		c := s.claims[id]
		if c.Status == models.ClaimStatusInProgress && c.DeliveryDeadline.Before(now) {
			out = append(out, c)
		}
	}
	if limit <= 0 {
		limit = 100
	}
	return page(out, limit, 0), nil
}

func (r claimRepo) ListAwaitingPayment(_ context.Context, limit int) ([]models.ClaimWithDeveloper, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	paid := make(map[uuid.UUID]bool, len(s.payments))
	for _, p := range s.payments {
		paid[p.ClaimID] = true
	}
	var out []models.ClaimWithDeveloper
	for _, id := range s.claimOrder {
		c := s.claims[id]
		if c.Status == models.ClaimStatusApproved && !paid[c.ID] {
			out = append(out, *s.withDeveloper(c))
		}
	}
	if limit <= 0 {
		limit = 100
	}
	return page(out, limit, 0), nil
}

// Disputes

type disputeRepo struct{ s *Store }

func (r disputeRepo) Create(_ context.Context, d *models.Dispute) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.disputes {
		if existing.BountyID == d.BountyID && existing.Status != models.DisputeStatusResolved {
			return repositories.ErrDuplicate
		}
	}
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	d.CreatedAt = s.now()
	d.UpdatedAt = d.CreatedAt
	s.disputes[d.ID] = *d
	s.disputeOrder = append(s.disputeOrder, d.ID)
	return nil
}

func (r disputeRepo) GetByID(_ context.Context, id uuid.UUID) (*models.Dispute, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.disputes[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return &d, nil
}

func (r disputeRepo) GetUnresolvedByBounty(_ context.Context, bountyID uuid.UUID) (*models.Dispute, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := len(s.disputeOrder) - 1; i >= 0; i-- {
		d := s.disputes[s.disputeOrder[i]]
		if d.BountyID == bountyID && d.Status != models.DisputeStatusResolved {
			return &d, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (r disputeRepo) GetResolvedByClaim(_ context.Context, claimID uuid.UUID) (*models.Dispute, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := len(s.disputeOrder) - 1; i >= 0; i-- {
		d := s.disputes[s.disputeOrder[i]]
		if d.ClaimID != nil && *d.ClaimID == claimID && d.Status == models.DisputeStatusResolved {
			return &d, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (r disputeRepo) Update(_ context.Context, d *models.Dispute, fromStatus string) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.disputes[d.ID]
	if !ok || stored.Status != fromStatus {
		return repositories.ErrStale
	}
	stored.Status = d.Status
	stored.Resolution = d.Resolution
	stored.ResolutionOutcome = d.ResolutionOutcome
	stored.ResolvedByID = d.ResolvedByID
	stored.ResolvedAt = d.ResolvedAt
	stored.UpdatedAt = s.now()
	s.disputes[d.ID] = stored
	*d = stored
	return nil
}

func (r disputeRepo) Delete(_ context.Context, id uuid.UUID) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.disputes[id]; !ok {
		return repositories.ErrStale
	}
	delete(s.disputes, id)
	s.disputeOrder = remove(s.disputeOrder, id)
	return nil
}

func (r disputeRepo) List(_ context.Context, f repositories.DisputeFilter) ([]models.Dispute, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []models.Dispute
	for i := len(s.disputeOrder) - 1; i >= 0; i-- {
		d := s.disputes[s.disputeOrder[i]]
		if f.Status != nil && d.Status != *f.Status {
			continue
		}
		if f.BountyID != nil && d.BountyID != *f.BountyID {
			continue
		}
		out = append(out, d)
	}
	return page(out, repositories.NormalizeLimit(f.Limit), f.Offset), nil
}

// Payments

type paymentRepo struct{ s *Store }

func (r paymentRepo) Create(_ context.Context, p *models.Payment) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.payments {
		if existing.ClaimID == p.ClaimID {
			return repositories.ErrDuplicate
		}
	}
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	p.CreatedAt = s.now()
	s.payments[p.ID] = *p
	s.paymentOrder = append(s.paymentOrder, p.ID)
	return nil
}

func (r paymentRepo) GetByClaim(_ context.Context, claimID uuid.UUID) (*models.Payment, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range s.payments {
		if p.ClaimID == claimID {
			return &p, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (r paymentRepo) GetLatestByBounty(_ context.Context, bountyID uuid.UUID) (*models.Payment, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := len(s.paymentOrder) - 1; i >= 0; i-- {
		p := s.payments[s.paymentOrder[i]]
		if p.BountyID == bountyID {
			return &p, nil
		}
	}
	return nil, repositories.ErrNotFound
}

// Users

type userRepo struct{ s *Store }

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (r userRepo) Create(_ context.Context, u *models.User) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	u.Email = normalizeEmail(u.Email)
	for _, existing := range s.users {
		if existing.Email == u.Email {
			return repositories.ErrDuplicate
		}
	}
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	u.CreatedAt = s.now()
	s.users[u.ID] = *u
	return nil
}

func (r userRepo) CreateClientProfile(_ context.Context, p *models.ClientProfile) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.clients {
		if existing.UserID == p.UserID {
			return repositories.ErrDuplicate
		}
	}
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	p.CreatedAt = s.now()
	s.clients[p.ID] = *p
	return nil
}

func (r userRepo) CreateDeveloperProfile(_ context.Context, p *models.DeveloperProfile) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.developers {
		if existing.UserID == p.UserID {
			return repositories.ErrDuplicate
		}
	}
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.Skills == nil {
		p.Skills = []string{}
	}
	p.CreatedAt = s.now()
	s.developers[p.ID] = *p
	return nil
}

func (r userRepo) GetByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return &u, nil
}

func (r userRepo) GetByEmail(_ context.Context, email string) (*models.User, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	email = normalizeEmail(email)
	for _, u := range s.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (r userRepo) GetClientProfile(_ context.Context, userID uuid.UUID) (*models.ClientProfile, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range s.clients {
		if p.UserID == userID {
			return &p, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (r userRepo) GetDeveloperProfile(_ context.Context, userID uuid.UUID) (*models.DeveloperProfile, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range s.developers {
		if p.UserID == userID {
			return &p, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (r userRepo) GetActor(_ context.Context, userID uuid.UUID) (*models.Actor, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[userID]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	a := &models.Actor{UserID: u.ID, IsAdmin: u.IsAdmin}
	for _, p := range s.clients {
		if p.UserID == userID {
			id := p.ID
			a.ClientProfileID = &id
		}
	}
	for _, p := range s.developers {
		if p.UserID == userID {
			id := p.ID
			a.DeveloperProfileID = &id
		}
	}
	return a, nil
}

func (r userRepo) SetAdmin(_ context.Context, email string, admin bool) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	email = normalizeEmail(email)
	for id, u := range s.users {
		if u.Email == email {
			u.IsAdmin = admin
			s.users[id] = u
			return nil
		}
	}
	return repositories.ErrNotFound
}

// Comments

type commentRepo struct{ s *Store }

func (r commentRepo) Create(_ context.Context, c *models.Comment) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	c.CreatedAt = s.now()
	s.comments = append(s.comments, *c)
	return nil
}

func (r commentRepo) ListByBounty(_ context.Context, bountyID uuid.UUID, limit, offset int) ([]models.Comment, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []models.Comment
	for _, c := range s.comments {
		if c.BountyID == bountyID {
			out = append(out, c)
		}
	}
	return page(out, repositories.NormalizeLimit(limit), offset), nil
}

// Reviews

type reviewRepo struct{ s *Store }

func (r reviewRepo) Create(_ context.Context, rv *models.Review) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.reviews {
		if existing.BountyID == rv.BountyID && existing.ReviewerID == rv.ReviewerID {
			return repositories.ErrDuplicate
		}
	}
	if rv.ID == uuid.Nil {
		rv.ID = uuid.New()
	}
	rv.CreatedAt = s.now()
	s.reviews = append(s.reviews, *rv)
	return nil
}

func (r reviewRepo) ListByReviewee(_ context.Context, userID uuid.UUID, limit, offset int) ([]models.Review, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []models.Review
	for i := len(s.reviews) - 1; i >= 0; i-- {
		if s.reviews[i].RevieweeID == userID {
			out = append(out, s.reviews[i])
		}
	}
	return page(out, repositories.NormalizeLimit(limit), offset), nil
}

func (r reviewRepo) ListByBounty(_ context.Context, bountyID uuid.UUID) ([]models.Review, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []models.Review
	for _, rv := range s.reviews {
		if rv.BountyID == bountyID {
			out = append(out, rv)
		}
	}
	return out, nil
}

func (r reviewRepo) Summary(_ context.Context, userID uuid.UUID) (models.RatingSummary, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	var sum models.RatingSummary
	total := 0
	for _, rv := range s.reviews {
		if rv.RevieweeID == userID {
			sum.RatingCount++
			total += rv.Rating
		}
	}
	if sum.RatingCount > 0 {
		sum.AverageRating = float64(total) / float64(sum.RatingCount)
	}
	return sum, nil
}

// Audit

type auditRepo struct{ s *Store }

func (r auditRepo) Log(_ context.Context, entry models.AuditLog) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	entry.ID = uuid.New()
	entry.CreatedAt = s.now()
	s.audit = append(s.audit, entry)
	return nil
}

func (r auditRepo) GetByEntity(_ context.Context, entityType string, entityID uuid.UUID, limit, offset int) ([]models.AuditLog, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []models.AuditLog
	for i := len(s.audit) - 1; i >= 0; i-- {
		l := s.audit[i]
		if l.EntityType == entityType && l.EntityID != nil && *l.EntityID == entityID {
			out = append(out, l)
		}
	}
	return page(out, repositories.NormalizeLimit(limit), offset), nil
}
