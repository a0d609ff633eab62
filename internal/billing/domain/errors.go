package domain

import "errors"

var (
	ErrPaymentNotFound      = errors.New("payment not found")
	ErrSubscriptionNotFound = errors.New("subscription not found")

	// ErrInvalidTransition is returned when a status change would skip or
	// reverse a step of the payment lifecycle.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrNotRefundable is returned when a refund is requested for a payment
	// that is not in the completed state.
	ErrNotRefundable = errors.New("payment is not refundable")

	ErrSubscriptionNotActive  = errors.New("subscription is not active")
	ErrSubscriptionCancelled  = errors.New("subscription is cancelled")
	ErrEmptyCustomerEmail     = errors.New("customer email cannot be empty")
	ErrInvalidBillingInterval = errors.New("invalid billing interval")

	// ErrVersionConflict is returned by repositories when a save races a
	// concurrent update of the same aggregate.
	ErrVersionConflict = errors.New("aggregate version conflict")
)
