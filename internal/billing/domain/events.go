package domain

import (
	"time"

	"github.com/felixgeelhaar/payved/internal/shared/domain"
	"github.com/google/uuid"
)

const (
	PaymentAggregateType      = "Payment"
	SubscriptionAggregateType = "Subscription"

	RoutingKeyPaymentCreated   = "billing.payment.created"
	RoutingKeyPaymentCompleted = "billing.payment.completed"
	RoutingKeyPaymentFailed    = "billing.payment.failed"
	RoutingKeyPaymentRefunded  = "billing.payment.refunded"

	RoutingKeySubscriptionCreated   = "billing.subscription.created"
	RoutingKeySubscriptionPaused    = "billing.subscription.paused"
	RoutingKeySubscriptionResumed   = "billing.subscription.resumed"
	RoutingKeySubscriptionCancelled = "billing.subscription.cancelled"
	RoutingKeySubscriptionCharged   = "billing.subscription.charged"
)

// PaymentCreated is emitted when a pending payment record is opened.
type PaymentCreated struct {
	domain.BaseEvent
	Amount        string `json:"amount"`
	Currency      string `json:"currency"`
	CustomerEmail string `json:"customer_email"`
}

// NewPaymentCreated creates a PaymentCreated event.
func NewPaymentCreated(paymentID uuid.UUID, money Money, customerEmail string) PaymentCreated {
	return PaymentCreated{
		BaseEvent:     domain.NewBaseEvent(paymentID, PaymentAggregateType, RoutingKeyPaymentCreated),
		Amount:        money.Amount().StringFixed(2),
		Currency:      money.Currency(),
		CustomerEmail: customerEmail,
	}
}

// PaymentCompleted is emitted when the gateway approves a charge.
type PaymentCompleted struct {
	domain.BaseEvent
	Amount        string `json:"amount"`
	Currency      string `json:"currency"`
	TransactionID string `json:"transaction_id"`
}

// NewPaymentCompleted creates a PaymentCompleted event.
func NewPaymentCompleted(paymentID uuid.UUID, money Money, transactionID string) PaymentCompleted {
	return PaymentCompleted{
		BaseEvent:     domain.NewBaseEvent(paymentID, PaymentAggregateType, RoutingKeyPaymentCompleted),
		Amount:        money.Amount().StringFixed(2),
		Currency:      money.Currency(),
		TransactionID: transactionID,
	}
}

// PaymentFailed is emitted when the gateway declines a charge.
type PaymentFailed struct {
	domain.BaseEvent
	Reason string `json:"reason"`
}

// NewPaymentFailed creates a PaymentFailed event.
func NewPaymentFailed(paymentID uuid.UUID, reason string) PaymentFailed {
	return PaymentFailed{
		BaseEvent: domain.NewBaseEvent(paymentID, PaymentAggregateType, RoutingKeyPaymentFailed),
		Reason:    reason,
	}
}

// PaymentRefunded is emitted when a completed charge is compensated.
type PaymentRefunded struct {
	domain.BaseEvent
	TransactionID string `json:"transaction_id"`
}

// NewPaymentRefunded creates a PaymentRefunded event.
func NewPaymentRefunded(paymentID uuid.UUID, transactionID string) PaymentRefunded {
	return PaymentRefunded{
		BaseEvent:     domain.NewBaseEvent(paymentID, PaymentAggregateType, RoutingKeyPaymentRefunded),
		TransactionID: transactionID,
	}
}

// SubscriptionCreated is emitted when a new billing agreement starts.
type SubscriptionCreated struct {
	domain.BaseEvent
	CustomerEmail string `json:"customer_email"`
	Amount        string `json:"amount"`
	Currency      string `json:"currency"`
	Interval      string `json:"interval"`
}

// NewSubscriptionCreated creates a SubscriptionCreated event.
func NewSubscriptionCreated(subscriptionID uuid.UUID, customerEmail string, money Money, interval BillingInterval) SubscriptionCreated {
	return SubscriptionCreated{
		BaseEvent:     domain.NewBaseEvent(subscriptionID, SubscriptionAggregateType, RoutingKeySubscriptionCreated),
		CustomerEmail: customerEmail,
		Amount:        money.Amount().StringFixed(2),
		Currency:      money.Currency(),
		Interval:      interval.String(),
	}
}

// SubscriptionCharged is emitted when a recurring charge succeeds and the
// next payment due date advances by one billing period.
type SubscriptionCharged struct {
	domain.BaseEvent
	PaymentID      string `json:"payment_id"`
	NextPaymentDue string `json:"next_payment_due"`
}

// NewSubscriptionCharged creates a SubscriptionCharged event.
func NewSubscriptionCharged(subscriptionID, paymentID uuid.UUID, nextPaymentDue time.Time) SubscriptionCharged {
	return SubscriptionCharged{
		BaseEvent:      domain.NewBaseEvent(subscriptionID, SubscriptionAggregateType, RoutingKeySubscriptionCharged),
		PaymentID:      paymentID.String(),
		NextPaymentDue: nextPaymentDue.UTC().Format(time.RFC3339),
	}
}

// SubscriptionPaused is emitted when billing is suspended.
type SubscriptionPaused struct {
	domain.BaseEvent
}

// NewSubscriptionPaused creates a SubscriptionPaused event.
func NewSubscriptionPaused(subscriptionID uuid.UUID) SubscriptionPaused {
	return SubscriptionPaused{
		BaseEvent: domain.NewBaseEvent(subscriptionID, SubscriptionAggregateType, RoutingKeySubscriptionPaused),
	}
}

// SubscriptionResumed is emitted when a paused subscription reactivates.
type SubscriptionResumed struct {
	domain.BaseEvent
}

// NewSubscriptionResumed creates a SubscriptionResumed event.
func NewSubscriptionResumed(subscriptionID uuid.UUID) SubscriptionResumed {
	return SubscriptionResumed{
		BaseEvent: domain.NewBaseEvent(subscriptionID, SubscriptionAggregateType, RoutingKeySubscriptionResumed),
	}
}

// SubscriptionCancelled is emitted when a subscription is terminated.
type SubscriptionCancelled struct {
	domain.BaseEvent
}

// NewSubscriptionCancelled creates a SubscriptionCancelled event.
func NewSubscriptionCancelled(subscriptionID uuid.UUID) SubscriptionCancelled {
	return SubscriptionCancelled{
		BaseEvent: domain.NewBaseEvent(subscriptionID, SubscriptionAggregateType, RoutingKeySubscriptionCancelled),
	}
}
