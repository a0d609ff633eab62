package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// PaymentRepository defines access for payment persistence.
type PaymentRepository interface {
	// Save inserts or updates the payment and bumps its version.
	Save(ctx context.Context, payment *Payment) error
	FindByID(ctx context.Context, id uuid.UUID) (*Payment, error)
	FindBySubscription(ctx context.Context, subscriptionID uuid.UUID) ([]*Payment, error)
	List(ctx context.Context) ([]*Payment, error)
}

// SubscriptionRepository defines access for subscription persistence.
type SubscriptionRepository interface {
	// Save inserts or updates the subscription and bumps its version.
	// Implementations return ErrVersionConflict when the stored version has
	// moved since the aggregate was loaded.
	Save(ctx context.Context, subscription *Subscription) error
	FindByID(ctx context.Context, id uuid.UUID) (*Subscription, error)
	// FindDue returns active subscriptions whose next payment is due at or
	// before now, ordered by due date then id for stable batch processing.
	FindDue(ctx context.Context, now time.Time) ([]*Subscription, error)
	List(ctx context.Context) ([]*Subscription, error)
}
