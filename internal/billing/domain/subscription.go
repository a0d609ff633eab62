package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/felixgeelhaar/payved/internal/shared/domain"
	"github.com/google/uuid"
)

// BillingInterval is how often a subscription is charged.
type BillingInterval int

const (
	IntervalDaily BillingInterval = iota
	IntervalWeekly
	IntervalMonthly
	IntervalYearly
)

func (i BillingInterval) String() string {
	switch i {
	case IntervalDaily:
		return "daily"
	case IntervalWeekly:
		return "weekly"
	case IntervalMonthly:
		return "monthly"
	case IntervalYearly:
		return "yearly"
	default:
		return "unknown"
	}
}

// Period returns the fixed offset one billing cycle adds to the due date.
// Monthly and yearly use calendar-naive 30/365 day approximations.
func (i BillingInterval) Period() time.Duration {
	switch i {
	case IntervalDaily:
		return 24 * time.Hour
	case IntervalWeekly:
		return 7 * 24 * time.Hour
	case IntervalMonthly:
		return 30 * 24 * time.Hour
	case IntervalYearly:
		return 365 * 24 * time.Hour
	default:
		return 0
	}
}

// ParseBillingInterval creates a BillingInterval from its string form.
func ParseBillingInterval(s string) (BillingInterval, error) {
	switch strings.ToLower(s) {
	case "daily":
		return IntervalDaily, nil
	case "weekly":
		return IntervalWeekly, nil
	case "monthly":
		return IntervalMonthly, nil
	case "yearly":
		return IntervalYearly, nil
	default:
		return IntervalMonthly, fmt.Errorf("%w: %q", ErrInvalidBillingInterval, s)
	}
}

// SubscriptionStatus represents the subscription lifecycle state.
type SubscriptionStatus int

const (
	SubscriptionStatusActive SubscriptionStatus = iota
	SubscriptionStatusPaused
	SubscriptionStatusCancelled
)

func (s SubscriptionStatus) String() string {
	switch s {
	case SubscriptionStatusActive:
		return "active"
	case SubscriptionStatusPaused:
		return "paused"
	case SubscriptionStatusCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// ParseSubscriptionStatus creates a SubscriptionStatus from its string form.
func ParseSubscriptionStatus(s string) (SubscriptionStatus, error) {
	switch strings.ToLower(s) {
	case "active":
		return SubscriptionStatusActive, nil
	case "paused":
		return SubscriptionStatusPaused, nil
	case "cancelled":
		return SubscriptionStatusCancelled, nil
	default:
		return SubscriptionStatusActive, fmt.Errorf("unknown subscription status %q", s)
	}
}

// Subscription is a recurring billing agreement.
//
// The next-payment-due timestamp only moves forward, by exactly one billing
// period per successful recurring charge. Cancellation is terminal.
type Subscription struct {
	domain.BaseAggregateRoot
	customerEmail  string
	money          Money
	interval       BillingInterval
	status         SubscriptionStatus
	nextPaymentDue time.Time
	startedAt      time.Time
}

// NewSubscription creates an active subscription. When firstDue is nil the
// first charge is due immediately.
func NewSubscription(customerEmail string, money Money, interval BillingInterval, firstDue *time.Time) (*Subscription, error) {
	customerEmail = strings.TrimSpace(customerEmail)
	if customerEmail == "" || !strings.Contains(customerEmail, "@") {
		return nil, ErrEmptyCustomerEmail
	}
	if money.IsZero() {
		return nil, ErrAmountTooSmall
	}
	if interval.Period() == 0 {
		return nil, ErrInvalidBillingInterval
	}

	now := time.Now().UTC()
	due := now
	if firstDue != nil {
		due = firstDue.UTC()
	}

	s := &Subscription{
		BaseAggregateRoot: domain.NewBaseAggregateRoot(),
		customerEmail:     customerEmail,
		money:             money,
		interval:          interval,
		status:            SubscriptionStatusActive,
		nextPaymentDue:    due,
		startedAt:         now,
	}
	s.AddDomainEvent(NewSubscriptionCreated(s.ID(), customerEmail, money, interval))
	return s, nil
}

// RehydrateSubscription recreates a subscription from persisted state.
func RehydrateSubscription(
	id uuid.UUID,
	customerEmail string,
	money Money,
	interval BillingInterval,
	status SubscriptionStatus,
	nextPaymentDue, startedAt time.Time,
	createdAt, updatedAt time.Time,
	version int,
) *Subscription {
	return &Subscription{
		BaseAggregateRoot: domain.RehydrateBaseAggregateRoot(id, createdAt, updatedAt, version),
		customerEmail:     customerEmail,
		money:             money,
		interval:          interval,
		status:            status,
		nextPaymentDue:    nextPaymentDue,
		startedAt:         startedAt,
	}
}

func (s *Subscription) CustomerEmail() string      { return s.customerEmail }
func (s *Subscription) Money() Money               { return s.money }
func (s *Subscription) Interval() BillingInterval  { return s.interval }
func (s *Subscription) Status() SubscriptionStatus { return s.status }
func (s *Subscription) NextPaymentDue() time.Time  { return s.nextPaymentDue }
func (s *Subscription) StartedAt() time.Time       { return s.startedAt }
func (s *Subscription) IsActive() bool             { return s.status == SubscriptionStatusActive }

// IsPaymentDue reports whether a recurring charge is due at the given time.
// Paused and cancelled subscriptions are never due, regardless of date.
func (s *Subscription) IsPaymentDue(now time.Time) bool {
	return s.status == SubscriptionStatusActive && !s.nextPaymentDue.After(now)
}

// AdvanceNextPayment moves the due date forward by one billing period after
// the charge recorded by paymentID succeeded. The due date only moves forward.
func (s *Subscription) AdvanceNextPayment(paymentID uuid.UUID) {
	s.nextPaymentDue = s.nextPaymentDue.Add(s.interval.Period())
	s.Touch()
	s.AddDomainEvent(NewSubscriptionCharged(s.ID(), paymentID, s.nextPaymentDue))
}

// Pause suspends billing. Only an active subscription can be paused.
func (s *Subscription) Pause() error {
	switch s.status {
	case SubscriptionStatusCancelled:
		return ErrSubscriptionCancelled
	case SubscriptionStatusPaused:
		return fmt.Errorf("%w: subscription already paused", ErrInvalidTransition)
	}
	s.status = SubscriptionStatusPaused
	s.Touch()
	s.AddDomainEvent(NewSubscriptionPaused(s.ID()))
	return nil
}

// Resume reactivates a paused subscription.
func (s *Subscription) Resume() error {
	switch s.status {
	case SubscriptionStatusCancelled:
		return ErrSubscriptionCancelled
	case SubscriptionStatusActive:
		return fmt.Errorf("%w: subscription already active", ErrInvalidTransition)
	}
	s.status = SubscriptionStatusActive
	s.Touch()
	s.AddDomainEvent(NewSubscriptionResumed(s.ID()))
	return nil
}

// Cancel terminates the subscription. Cancellation is permanent.
func (s *Subscription) Cancel() error {
	if s.status == SubscriptionStatusCancelled {
		return ErrSubscriptionCancelled
	}
	s.status = SubscriptionStatusCancelled
	s.Touch()
	s.AddDomainEvent(NewSubscriptionCancelled(s.ID()))
	return nil
}

func (s *Subscription) String() string {
	return fmt.Sprintf("Subscription(%s, %s, %s %s, %s)", s.ID(), s.customerEmail, s.money, s.interval, s.status)
}
