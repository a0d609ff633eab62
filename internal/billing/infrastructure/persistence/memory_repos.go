package persistence

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/felixgeelhaar/payved/internal/billing/domain"
	"github.com/google/uuid"
)

// MemoryPaymentRepository is a mutex-guarded in-memory PaymentRepository.
// Used in tests and when no database is configured.
type MemoryPaymentRepository struct {
	mu       sync.RWMutex
	payments map[uuid.UUID]*domain.Payment
	order    []uuid.UUID
}

// NewMemoryPaymentRepository creates an empty in-memory repository.
func NewMemoryPaymentRepository() *MemoryPaymentRepository {
	return &MemoryPaymentRepository{payments: make(map[uuid.UUID]*domain.Payment)}
}

// Save stores the payment and bumps its version.
func (r *MemoryPaymentRepository) Save(_ context.Context, payment *domain.Payment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.payments[payment.ID()]; ok {
		if existing != payment && existing.Version() != payment.Version() {
			return domain.ErrVersionConflict
		}
	} else {
		r.order = append(r.order, payment.ID())
	}
	payment.IncrementVersion()
	r.payments[payment.ID()] = payment
	return nil
}

// FindByID returns the payment, or nil when absent.
func (r *MemoryPaymentRepository) FindByID(_ context.Context, id uuid.UUID) (*domain.Payment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.payments[id], nil
}

// FindBySubscription returns a subscription's payments, newest first.
func (r *MemoryPaymentRepository) FindBySubscription(_ context.Context, subscriptionID uuid.UUID) ([]*domain.Payment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*domain.Payment
	for i := len(r.order) - 1; i >= 0; i-- {
		p := r.payments[r.order[i]]
		if p.SubscriptionID() != nil && *p.SubscriptionID() == subscriptionID {
			out = append(out, p)
		}
	}
	return out, nil
}

// List returns all payments, newest first.
func (r *MemoryPaymentRepository) List(_ context.Context) ([]*domain.Payment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*domain.Payment, 0, len(r.order))
	for i := len(r.order) - 1; i >= 0; i-- {
		out = append(out, r.payments[r.order[i]])
	}
	return out, nil
}

var _ domain.PaymentRepository = (*MemoryPaymentRepository)(nil)

// MemorySubscriptionRepository is a mutex-guarded in-memory
// SubscriptionRepository.
type MemorySubscriptionRepository struct {
	mu            sync.RWMutex
	subscriptions map[uuid.UUID]*domain.Subscription
	order         []uuid.UUID
}

// NewMemorySubscriptionRepository creates an empty in-memory repository.
func NewMemorySubscriptionRepository() *MemorySubscriptionRepository {
	return &MemorySubscriptionRepository{subscriptions: make(map[uuid.UUID]*domain.Subscription)}
}

// Save stores the subscription and bumps its version.
func (r *MemorySubscriptionRepository) Save(_ context.Context, subscription *domain.Subscription) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.subscriptions[subscription.ID()]; ok {
		if existing != subscription && existing.Version() != subscription.Version() {
			return domain.ErrVersionConflict
		}
	} else {
		r.order = append(r.order, subscription.ID())
	}
	subscription.IncrementVersion()
	r.subscriptions[subscription.ID()] = subscription
	return nil
}

// FindByID returns the subscription, or nil when absent.
func (r *MemorySubscriptionRepository) FindByID(_ context.Context, id uuid.UUID) (*domain.Subscription, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.subscriptions[id], nil
}

// FindDue returns active subscriptions due at or before now, ordered by due
// date then id.
func (r *MemorySubscriptionRepository) FindDue(_ context.Context, now time.Time) ([]*domain.Subscription, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var due []*domain.Subscription
	for _, id := range r.order {
		if s := r.subscriptions[id]; s.IsPaymentDue(now) {
			due = append(due, s)
		}
	}
	sort.Slice(due, func(i, j int) bool {
		if !due[i].NextPaymentDue().Equal(due[j].NextPaymentDue()) {
			return due[i].NextPaymentDue().Before(due[j].NextPaymentDue())
		}
		return due[i].ID().String() < due[j].ID().String()
	})
	return due, nil
}

// List returns all subscriptions in insertion order.
func (r *MemorySubscriptionRepository) List(_ context.Context) ([]*domain.Subscription, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*domain.Subscription, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.subscriptions[id])
	}
	return out, nil
}

var _ domain.SubscriptionRepository = (*MemorySubscriptionRepository)(nil)
