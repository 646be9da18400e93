package testhelpers

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/techcircle/community-site/backend/shared/go-models"
	"github.com/techcircle/community-site/backend/shared/go-repositories"
	"github.com/techcircle/community-site/backend/shared/go-utils"
)

// MemoryMemberRepository is an in-process repositories.MemberRepository.
// It enforces the same unique keys as the members table, but WithTx does
// not serialize callers, so concurrent reconciliations race exactly like
// they would against Postgres and hit the unique-violation path.
type MemoryMemberRepository struct {
	mu        sync.Mutex
	byID      map[string]*models.Member
	mutations int

	// Fault injection. Checked before the corresponding operation runs.
	FindErr   error
	CreateErr error
	UpdateErr error
	MarkErr   error

	// BeforeCreate runs outside the lock just before each insert.
	BeforeCreate func(m *models.Member)
}

var _ repositories.MemberRepository = (*MemoryMemberRepository)(nil)

func NewMemoryMemberRepository() *MemoryMemberRepository {
	return &MemoryMemberRepository{byID: map[string]*models.Member{}}
}

// Seed stores m directly, bypassing uniqueness checks and the mutation count.
func (r *MemoryMemberRepository) Seed(m *models.Member) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := *m
	r.byID[c.ID.String()] = &c
}

// Mutations counts successful writes since construction.
func (r *MemoryMemberRepository) Mutations() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.mutations
}

func (r *MemoryMemberRepository) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byID)
}

func (r *MemoryMemberRepository) All() []models.Member {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.Member, 0, len(r.byID))
	for _, m := range r.byID {
		out = append(out, *m)
	}
	return out
}

func (r *MemoryMemberRepository) FindByReferenceOrEmail(_ context.Context, reference, email string) (*models.Member, error) {
	if r.FindErr != nil {
		return nil, r.FindErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	var byEmail *models.Member
	for _, m := range r.byID {
		if m.PaymentReference == reference {
			c := *m
			return &c, nil
		}
		if m.Email == email && byEmail == nil {
			byEmail = m
		}
	}
	if byEmail == nil {
		return nil, nil
	}
	c := *byEmail
	return &c, nil
}

func (r *MemoryMemberRepository) GetByEmail(_ context.Context, email string) (*models.Member, error) {
	return r.find(func(m *models.Member) bool { return m.Email == email }), nil
}

func (r *MemoryMemberRepository) GetByPaymentReference(_ context.Context, reference string) (*models.Member, error) {
	return r.find(func(m *models.Member) bool { return m.PaymentReference == reference }), nil
}

func (r *MemoryMemberRepository) Create(_ context.Context, m *models.Member) error {
	if r.CreateErr != nil {
		return r.CreateErr
	}
	if r.BeforeCreate != nil {
		r.BeforeCreate(m)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.byID {
		if existing.Email == m.Email {
			return fmt.Errorf("insert member: %w", utils.ErrEmailExists)
		}
		if existing.PaymentReference == m.PaymentReference {
			return fmt.Errorf("insert member: %w", utils.ErrPaymentReferenceExists)
		}
	}

	now := time.Now().UTC()
	m.CreatedAt, m.UpdatedAt = now, now
	c := *m
	r.byID[c.ID.String()] = &c
	r.mutations++
	return nil
}

func (r *MemoryMemberRepository) UpdatePayment(_ context.Context, m *models.Member) error {
	if r.UpdateErr != nil {
		return r.UpdateErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.byID[m.ID.String()]
	if !ok {
		return utils.ErrNoRowsUpdated
	}
	for id, other := range r.byID {
		if id != m.ID.String() && other.PaymentReference == m.PaymentReference {
			return fmt.Errorf("update member: %w", utils.ErrPaymentReferenceExists)
		}
	}

	existing.Name = m.Name
	existing.PaymentReference = m.PaymentReference
	existing.PaymentAmount = m.PaymentAmount
	existing.PaymentCurrency = m.PaymentCurrency
	existing.PaymentStatus = m.PaymentStatus
	existing.MembershipStatus = m.MembershipStatus
	existing.UpdatedAt = time.Now().UTC()
	m.UpdatedAt = existing.UpdatedAt
	r.mutations++
	return nil
}

func (r *MemoryMemberRepository) MarkSlackInvited(_ context.Context, email string, at time.Time) error {
	if r.MarkErr != nil {
		return r.MarkErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, m := range r.byID {
		if m.Email == email {
			m.SlackInvited = true
			m.SlackInviteSentAt = &at
			m.UpdatedAt = time.Now().UTC()
			r.mutations++
			return nil
		}
	}
	return utils.ErrNoRowsUpdated
}

func (r *MemoryMemberRepository) WithTx(_ context.Context, fn func(repo repositories.MemberRepository) error) error {
	return fn(r)
}

func (r *MemoryMemberRepository) find(match func(*models.Member) bool) *models.Member {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.byID {
		if match(m) {
			c := *m
			return &c
		}
	}
	return nil
}

// MemoryLeadRepository is an in-process repositories.LeadRepository with the
// (kind, email, event_slug) natural key.
type MemoryLeadRepository struct {
	mu    sync.Mutex
	leads []models.Lead

	CreateErr error
}

var _ repositories.LeadRepository = (*MemoryLeadRepository)(nil)

func NewMemoryLeadRepository() *MemoryLeadRepository {
	return &MemoryLeadRepository{}
}

func (r *MemoryLeadRepository) Create(_ context.Context, l *models.Lead) error {
	if r.CreateErr != nil {
		return r.CreateErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.leads {
		if existing.Kind == l.Kind && existing.Email == l.Email && existing.EventSlug == l.EventSlug {
			return fmt.Errorf("insert lead: %w", utils.ErrDuplicateLead)
		}
	}
	l.CreatedAt = time.Now().UTC()
	r.leads = append(r.leads, *l)
	return nil
}

func (r *MemoryLeadRepository) Get(_ context.Context, kind models.LeadKind, email, eventSlug string) (*models.Lead, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, l := range r.leads {
		if l.Kind == kind && l.Email == email && l.EventSlug == eventSlug {
			c := l
			return &c, nil
		}
	}
	return nil, nil
}

func (r *MemoryLeadRepository) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.leads)
}
