package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/felixgeelhaar/payved/internal/shared/domain"
	"github.com/google/uuid"
)

// PaymentStatus represents the payment lifecycle state.
type PaymentStatus int

const (
	PaymentStatusPending PaymentStatus = iota
	PaymentStatusCompleted
	PaymentStatusFailed
	PaymentStatusRefunded
)

func (s PaymentStatus) String() string {
	switch s {
	case PaymentStatusPending:
		return "pending"
	case PaymentStatusCompleted:
		return "completed"
	case PaymentStatusFailed:
		return "failed"
	case PaymentStatusRefunded:
		return "refunded"
	default:
		return "unknown"
	}
}

// ParsePaymentStatus creates a PaymentStatus from its string form.
func ParsePaymentStatus(s string) (PaymentStatus, error) {
	switch strings.ToLower(s) {
	case "pending":
		return PaymentStatusPending, nil
	case "completed":
		return PaymentStatusCompleted, nil
	case "failed":
		return PaymentStatusFailed, nil
	case "refunded":
		return PaymentStatusRefunded, nil
	default:
		return PaymentStatusPending, fmt.Errorf("unknown payment status %q", s)
	}
}

// Payment records a single monetary transfer attempt.
//
// Status moves along pending -> completed -> refunded or pending -> failed;
// no step is skipped and none is reversed. The gateway transaction id is set
// exactly when the payment completes and survives a refund.
type Payment struct {
	domain.BaseAggregateRoot
	money          Money
	status         PaymentStatus
	transactionID  string
	paidAt         *time.Time
	failureReason  string
	customerEmail  string
	subscriptionID *uuid.UUID
}

// NewPayment creates a pending payment for the given customer.
func NewPayment(money Money, customerEmail string) (*Payment, error) {
	customerEmail = strings.TrimSpace(customerEmail)
	if customerEmail == "" {
		return nil, ErrEmptyCustomerEmail
	}
	if !strings.Contains(customerEmail, "@") {
		return nil, fmt.Errorf("%w: %q is not an email address", ErrEmptyCustomerEmail, customerEmail)
	}
	if money.IsZero() {
		return nil, ErrAmountTooSmall
	}

	p := &Payment{
		BaseAggregateRoot: domain.NewBaseAggregateRoot(),
		money:             money,
		status:            PaymentStatusPending,
		customerEmail:     customerEmail,
	}
	p.AddDomainEvent(NewPaymentCreated(p.ID(), money, customerEmail))
	return p, nil
}

// RehydratePayment recreates a payment from persisted state.
func RehydratePayment(
	id uuid.UUID,
	money Money,
	status PaymentStatus,
	transactionID string,
	paidAt *time.Time,
	failureReason string,
	customerEmail string,
	subscriptionID *uuid.UUID,
	createdAt, updatedAt time.Time,
	version int,
) *Payment {
	return &Payment{
		BaseAggregateRoot: domain.RehydrateBaseAggregateRoot(id, createdAt, updatedAt, version),
		money:             money,
		status:            status,
		transactionID:     transactionID,
		paidAt:            paidAt,
		failureReason:     failureReason,
		customerEmail:     customerEmail,
		subscriptionID:    subscriptionID,
	}
}

func (p *Payment) Money() Money               { return p.money }
func (p *Payment) Status() PaymentStatus      { return p.status }
func (p *Payment) TransactionID() string      { return p.transactionID }
func (p *Payment) PaidAt() *time.Time         { return p.paidAt }
func (p *Payment) FailureReason() string      { return p.failureReason }
func (p *Payment) CustomerEmail() string      { return p.customerEmail }
func (p *Payment) SubscriptionID() *uuid.UUID { return p.subscriptionID }
func (p *Payment) IsCompleted() bool          { return p.status == PaymentStatusCompleted }

// Complete marks the payment as completed with the gateway transaction id.
func (p *Payment) Complete(transactionID string) error {
	if p.status != PaymentStatusPending {
		return fmt.Errorf("%w: cannot complete a %s payment", ErrInvalidTransition, p.status)
	}
	if transactionID == "" {
		return fmt.Errorf("%w: completed payment requires a transaction id", ErrInvalidTransition)
	}
	now := time.Now().UTC()
	p.status = PaymentStatusCompleted
	p.transactionID = transactionID
	p.paidAt = &now
	p.Touch()
	p.AddDomainEvent(NewPaymentCompleted(p.ID(), p.money, transactionID))
	return nil
}

// Fail marks the payment as failed, recording the gateway's reason.
func (p *Payment) Fail(reason string) error {
	if p.status != PaymentStatusPending {
		return fmt.Errorf("%w: cannot fail a %s payment", ErrInvalidTransition, p.status)
	}
	p.status = PaymentStatusFailed
	p.failureReason = reason
	p.Touch()
	p.AddDomainEvent(NewPaymentFailed(p.ID(), reason))
	return nil
}

// Refund marks a completed payment as refunded. The transaction id is kept so
// the original charge remains traceable.
func (p *Payment) Refund() error {
	if p.status != PaymentStatusCompleted {
		return fmt.Errorf("%w: payment is %s", ErrNotRefundable, p.status)
	}
	p.status = PaymentStatusRefunded
	p.Touch()
	p.AddDomainEvent(NewPaymentRefunded(p.ID(), p.transactionID))
	return nil
}

// AttachSubscription links the payment to the subscription that generated it.
func (p *Payment) AttachSubscription(subscriptionID uuid.UUID) {
	p.subscriptionID = &subscriptionID
	p.Touch()
}

func (p *Payment) String() string {
	return fmt.Sprintf("Payment(%s, %s, %s, %s)", p.ID(), p.customerEmail, p.money, p.status)
}
