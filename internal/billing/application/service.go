// Package application orchestrates billing use cases: one-off charges,
// subscription lifecycle, recurring billing runs and refunds. Writes go
// through undoable commands so recent operations can be compensated.
package application

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/felixgeelhaar/payved/internal/billing/application/commands"
	"github.com/felixgeelhaar/payved/internal/billing/domain"
	"github.com/felixgeelhaar/payved/internal/billing/infrastructure/gateway"
	shareddomain "github.com/felixgeelhaar/payved/internal/shared/domain"
	"github.com/felixgeelhaar/payved/internal/shared/infrastructure/eventbus"
	"github.com/felixgeelhaar/payved/internal/shared/infrastructure/locking"
	"github.com/google/uuid"
)

// BillingService is the application-facing entry point for all billing
// operations.
type BillingService struct {
	payments      domain.PaymentRepository
	subscriptions domain.SubscriptionRepository
	gw            gateway.Gateway
	invoker       *commands.Invoker
	scheduler     *Scheduler
	publisher     eventbus.Publisher
	logger        *slog.Logger
}

// NewBillingService creates a billing service. A nil publisher falls back to
// the no-op publisher and a nil invoker to one with the default capacity.
func NewBillingService(
	payments domain.PaymentRepository,
	subscriptions domain.SubscriptionRepository,
	gw gateway.Gateway,
	invoker *commands.Invoker,
	locker locking.Locker,
	publisher eventbus.Publisher,
	logger *slog.Logger,
) *BillingService {
	if logger == nil {
		logger = slog.Default()
	}
	if publisher == nil {
		publisher = eventbus.NewNoopPublisher(logger)
	}
	if invoker == nil {
		invoker = commands.NewInvoker(commands.DefaultHistoryCapacity, logger)
	}
	scheduler := NewScheduler(subscriptions, payments, gw, invoker, locker, publisher, DefaultSchedulerConfig(), logger)
	return &BillingService{
		payments:      payments,
		subscriptions: subscriptions,
		gw:            gw,
		invoker:       invoker,
		scheduler:     scheduler,
		publisher:     publisher,
		logger:        logger,
	}
}

// Invoker exposes the command history for undo and inspection.
func (s *BillingService) Invoker() *commands.Invoker { return s.invoker }

// SubmitPayment charges a one-off payment for the customer. The payment
// record persists in every outcome; on a decline it is returned in Failed
// state alongside the error.
func (s *BillingService) SubmitPayment(ctx context.Context, money domain.Money, customerEmail string) (*domain.Payment, error) {
	cmd := commands.NewProcessPaymentCommand(money, customerEmail, s.gw, s.payments, s.logger)
	result, err := s.invoker.ExecuteCommand(ctx, cmd)

	if payment := cmd.Payment(); payment != nil {
		s.publishEvents(ctx, payment)
	}
	if err != nil {
		return cmd.Payment(), err
	}
	return result.Payment, nil
}

// RefundPayment compensates a completed payment through the gateway. Only
// completed payments can be refunded; a declined refund leaves the payment
// completed.
func (s *BillingService) RefundPayment(ctx context.Context, paymentID uuid.UUID) (*domain.Payment, error) {
	payment, err := s.payments.FindByID(ctx, paymentID)
	if err != nil {
		return nil, fmt.Errorf("loading payment %s: %w", paymentID, err)
	}
	if payment == nil {
		return nil, domain.ErrPaymentNotFound
	}
	if payment.Status() != domain.PaymentStatusCompleted {
		return nil, fmt.Errorf("payment %s is %s: %w", paymentID, payment.Status(), domain.ErrNotRefundable)
	}

	res, err := s.gw.Refund(ctx, gateway.RefundRequest{
		TransactionID: payment.TransactionID(),
		Amount:        payment.Money().Amount(),
	})
	if err != nil {
		return nil, fmt.Errorf("gateway refund for payment %s: %w", paymentID, err)
	}
	if !res.Approved {
		return nil, fmt.Errorf("%w: %s", gateway.ErrDeclined, res.Message)
	}

	if err := payment.Refund(); err != nil {
		return nil, err
	}
	if err := s.payments.Save(ctx, payment); err != nil {
		return nil, fmt.Errorf("saving refunded payment %s: %w", paymentID, err)
	}

	s.logger.Info("payment refunded",
		"payment_id", paymentID.String(),
		"refund_id", res.RefundID,
	)
	s.publishEvents(ctx, payment)
	return payment, nil
}

// UndoLastPayment reverses the most recent undoable command in the history.
// Returns (nil, nil) when the history is empty.
func (s *BillingService) UndoLastPayment(ctx context.Context) (*commands.Result, error) {
	result, err := s.invoker.UndoLastCommand(ctx)
	if err != nil {
		return nil, err
	}
	if result != nil && result.Payment != nil {
		s.publishEvents(ctx, result.Payment)
	}
	return result, nil
}

// RunDueBilling charges every subscription whose next payment is due. The
// scheduler publishes the events each charge raises.
func (s *BillingService) RunDueBilling(ctx context.Context) (*BatchResult, error) {
	return s.scheduler.ProcessDuePayments(ctx)
}

// BillSubscription charges a single subscription's current cycle, whether or
// not it is part of a scheduled run.
func (s *BillingService) BillSubscription(ctx context.Context, id uuid.UUID) (*commands.Result, error) {
	return s.scheduler.ProcessSubscription(ctx, id)
}

// CreateSubscription registers a recurring billing agreement. A nil firstDue
// makes the first payment due immediately.
func (s *BillingService) CreateSubscription(
	ctx context.Context,
	customerEmail string,
	money domain.Money,
	interval domain.BillingInterval,
	firstDue *time.Time,
) (*domain.Subscription, error) {
	sub, err := domain.NewSubscription(customerEmail, money, interval, firstDue)
	if err != nil {
		return nil, err
	}
	if err := s.subscriptions.Save(ctx, sub); err != nil {
		return nil, fmt.Errorf("saving subscription: %w", err)
	}

	s.logger.Info("subscription created",
		"subscription_id", sub.ID().String(),
		"interval", interval.String(),
		"next_payment_due", sub.NextPaymentDue().Format(time.RFC3339),
	)
	s.publishEvents(ctx, sub)
	return sub, nil
}

// PauseSubscription suspends billing without ending the agreement.
func (s *BillingService) PauseSubscription(ctx context.Context, id uuid.UUID) (*domain.Subscription, error) {
	return s.transitionSubscription(ctx, id, (*domain.Subscription).Pause)
}

// ResumeSubscription reactivates a paused subscription. The due date is not
// shifted, so a cycle missed while paused is charged on the next run.
func (s *BillingService) ResumeSubscription(ctx context.Context, id uuid.UUID) (*domain.Subscription, error) {
	return s.transitionSubscription(ctx, id, (*domain.Subscription).Resume)
}

// CancelSubscription permanently ends the agreement.
func (s *BillingService) CancelSubscription(ctx context.Context, id uuid.UUID) (*domain.Subscription, error) {
	return s.transitionSubscription(ctx, id, (*domain.Subscription).Cancel)
}

func (s *BillingService) transitionSubscription(
	ctx context.Context,
	id uuid.UUID,
	transition func(*domain.Subscription) error,
) (*domain.Subscription, error) {
	sub, err := s.subscriptions.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("loading subscription %s: %w", id, err)
	}
	if sub == nil {
		return nil, domain.ErrSubscriptionNotFound
	}
	if err := transition(sub); err != nil {
		return nil, err
	}
	if err := s.subscriptions.Save(ctx, sub); err != nil {
		return nil, fmt.Errorf("saving subscription %s: %w", id, err)
	}
	s.publishEvents(ctx, sub)
	return sub, nil
}

// GetPayment loads a single payment.
func (s *BillingService) GetPayment(ctx context.Context, id uuid.UUID) (*domain.Payment, error) {
	payment, err := s.payments.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if payment == nil {
		return nil, domain.ErrPaymentNotFound
	}
	return payment, nil
}

// ListPayments returns all payments, newest first.
func (s *BillingService) ListPayments(ctx context.Context) ([]*domain.Payment, error) {
	return s.payments.List(ctx)
}

// ListSubscriptionPayments returns the payment history of one subscription.
func (s *BillingService) ListSubscriptionPayments(ctx context.Context, subscriptionID uuid.UUID) ([]*domain.Payment, error) {
	return s.payments.FindBySubscription(ctx, subscriptionID)
}

// GetSubscription loads a single subscription.
func (s *BillingService) GetSubscription(ctx context.Context, id uuid.UUID) (*domain.Subscription, error) {
	sub, err := s.subscriptions.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if sub == nil {
		return nil, domain.ErrSubscriptionNotFound
	}
	return sub, nil
}

// ListSubscriptions returns all subscriptions.
func (s *BillingService) ListSubscriptions(ctx context.Context) ([]*domain.Subscription, error) {
	return s.subscriptions.List(ctx)
}

// VerifyTransaction asks the gateway whether it knows a transaction id.
func (s *BillingService) VerifyTransaction(ctx context.Context, transactionID string) (*gateway.VerifyResult, error) {
	return s.gw.Verify(ctx, transactionID)
}

// publishEvents drains and publishes an aggregate's pending domain events.
func (s *BillingService) publishEvents(ctx context.Context, aggregate shareddomain.AggregateRoot) {
	events := aggregate.DomainEvents()
	aggregate.ClearDomainEvents()
	eventbus.Dispatch(ctx, s.publisher, s.logger, events...)
}
