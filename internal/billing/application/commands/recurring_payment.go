package commands

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/felixgeelhaar/payved/internal/billing/domain"
	"github.com/felixgeelhaar/payved/internal/billing/infrastructure/gateway"
	"github.com/google/uuid"
)

// RecurringPaymentCommand charges one billing cycle of a subscription by
// delegating to a ProcessPaymentCommand.
//
// Due-ness is re-checked at execution time, not construction time, so a
// command built from a stale scan tolerates scheduling delay. A not-due
// subscription is a no-op result, not a failure.
//
// Undoing a recurring charge refunds the payment but does NOT move the
// advanced due date back. Refunding a cycle does not re-open it; the next
// charge still happens on the already-advanced schedule.
type RecurringPaymentCommand struct {
	subscriptionID uuid.UUID
	subscriptions  domain.SubscriptionRepository
	payments       domain.PaymentRepository
	gw             gateway.Gateway
	logger         *slog.Logger

	inner    *ProcessPaymentCommand
	sub      *domain.Subscription
	executed bool
	result   *Result
}

// NewRecurringPaymentCommand creates a recurring-payment command for the
// given subscription.
func NewRecurringPaymentCommand(
	subscriptionID uuid.UUID,
	subscriptions domain.SubscriptionRepository,
	payments domain.PaymentRepository,
	gw gateway.Gateway,
	logger *slog.Logger,
) *RecurringPaymentCommand {
	if logger == nil {
		logger = slog.Default()
	}
	return &RecurringPaymentCommand{
		subscriptionID: subscriptionID,
		subscriptions:  subscriptions,
		payments:       payments,
		gw:             gw,
		logger:         logger,
	}
}

func (c *RecurringPaymentCommand) Executed() bool  { return c.executed }
func (c *RecurringPaymentCommand) Result() *Result { return c.result }

// Subscription returns the charged subscription, nil until a charge advanced
// its due date.
func (c *RecurringPaymentCommand) Subscription() *domain.Subscription { return c.sub }

func (c *RecurringPaymentCommand) Describe() string {
	return fmt.Sprintf("recurring-payment for subscription %s", c.subscriptionID)
}

// Execute charges the subscription's current cycle if it is due.
func (c *RecurringPaymentCommand) Execute(ctx context.Context) (*Result, error) {
	if c.executed {
		return nil, ErrAlreadyExecuted
	}

	// The subscription is re-loaded here so the command always works on the
	// current persisted state rather than a snapshot from scan time.
	sub, err := c.subscriptions.FindByID(ctx, c.subscriptionID)
	if err != nil {
		return nil, err
	}
	if sub == nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrSubscriptionNotFound, c.subscriptionID)
	}

	if !sub.IsActive() {
		return nil, fmt.Errorf("%w: subscription %s is %s",
			domain.ErrSubscriptionNotActive, sub.ID(), sub.Status())
	}

	if !sub.IsPaymentDue(time.Now().UTC()) {
		c.logger.Debug("payment not due",
			"subscription_id", sub.ID().String(),
			"next_payment_due", sub.NextPaymentDue(),
		)
		c.executed = true
		c.result = &Result{Outcome: OutcomeNotDue}
		return c.result, nil
	}

	c.inner = NewProcessPaymentCommand(sub.Money(), sub.CustomerEmail(), c.gw, c.payments, c.logger)
	res, err := c.inner.Execute(ctx)
	if err != nil {
		// The charge failed; the due date stays where it was so the next
		// scheduler run retries this cycle.
		return nil, err
	}

	// The charge went through; linking and advancing the due date settle
	// regardless of caller cancellation.
	ctx = context.WithoutCancel(ctx)

	payment := res.Payment
	payment.AttachSubscription(sub.ID())
	if err := c.payments.Save(ctx, payment); err != nil {
		return nil, fmt.Errorf("linking payment to subscription: %w", err)
	}

	sub.AdvanceNextPayment(payment.ID())
	if err := c.subscriptions.Save(ctx, sub); err != nil {
		return nil, fmt.Errorf("advancing next payment date: %w", err)
	}

	c.logger.Info("recurring payment processed",
		"subscription_id", sub.ID().String(),
		"payment_id", payment.ID().String(),
		"next_payment_due", sub.NextPaymentDue(),
	)

	c.sub = sub
	c.executed = true
	c.result = &Result{Outcome: OutcomeCharged, Payment: payment}
	return c.result, nil
}

// Undo refunds the delegated charge. The advanced due date is left alone.
func (c *RecurringPaymentCommand) Undo(ctx context.Context) (*Result, error) {
	if c.inner == nil {
		return nil, fmt.Errorf("%w: no charge to refund", ErrNotUndoable)
	}
	return c.inner.Undo(ctx)
}

// CanUndo delegates to the inner charge command.
func (c *RecurringPaymentCommand) CanUndo() bool {
	return c.inner != nil && c.inner.CanUndo()
}
