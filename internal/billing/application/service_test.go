package application

import (
	"context"
	"testing"
	"time"

	"github.com/felixgeelhaar/payved/internal/billing/application/commands"
	"github.com/felixgeelhaar/payved/internal/billing/domain"
	"github.com/felixgeelhaar/payved/internal/billing/infrastructure/gateway"
	"github.com/felixgeelhaar/payved/internal/billing/infrastructure/persistence"
	"github.com/felixgeelhaar/payved/internal/shared/infrastructure/eventbus"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type serviceFixture struct {
	payments  *persistence.MemoryPaymentRepository
	subs      *persistence.MemorySubscriptionRepository
	publisher *eventbus.MemoryPublisher
	service   *BillingService
}

func newServiceFixture(t *testing.T, gw gateway.Gateway) *serviceFixture {
	t.Helper()
	payments := persistence.NewMemoryPaymentRepository()
	subs := persistence.NewMemorySubscriptionRepository()
	publisher := eventbus.NewMemoryPublisher()
	service := NewBillingService(payments, subs, gw, nil, nil, publisher, nil)
	return &serviceFixture{payments: payments, subs: subs, publisher: publisher, service: service}
}

func (f *serviceFixture) routingKeys() []string {
	messages := f.publisher.Messages()
	keys := make([]string, 0, len(messages))
	for _, m := range messages {
		keys = append(keys, m.RoutingKey)
	}
	return keys
}

func TestBillingServiceSubmitPayment(t *testing.T) {
	ctx := context.Background()

	t.Run("approved charge completes and publishes", func(t *testing.T) {
		f := newServiceFixture(t, gateway.AlwaysApprove())

		payment, err := f.service.SubmitPayment(ctx, domain.MustMoney("49.99", "USD"), "ana@example.com")

		require.NoError(t, err)
		assert.Equal(t, domain.PaymentStatusCompleted, payment.Status())
		assert.Contains(t, f.routingKeys(), "billing.payment.created")
		assert.Contains(t, f.routingKeys(), "billing.payment.completed")

		stored, err := f.payments.FindByID(ctx, payment.ID())
		require.NoError(t, err)
		require.NotNil(t, stored)
		assert.Equal(t, domain.PaymentStatusCompleted, stored.Status())
	})

	t.Run("declined charge returns the failed payment and an error", func(t *testing.T) {
		f := newServiceFixture(t, gateway.NewSimulatedGateway(gateway.SimulatedConfig{Seed: 1}, nil))

		payment, err := f.service.SubmitPayment(ctx, domain.MustMoney("49.99", "USD"), "ana@example.com")

		require.ErrorIs(t, err, gateway.ErrDeclined)
		require.NotNil(t, payment)
		assert.Equal(t, domain.PaymentStatusFailed, payment.Status())
		assert.Contains(t, f.routingKeys(), "billing.payment.failed")
	})

	t.Run("invalid email never reaches the gateway", func(t *testing.T) {
		f := newServiceFixture(t, gateway.AlwaysApprove())

		_, err := f.service.SubmitPayment(ctx, domain.MustMoney("49.99", "USD"), "not-an-email")

		require.Error(t, err)
		all, listErr := f.payments.List(ctx)
		require.NoError(t, listErr)
		assert.Empty(t, all)
	})
}

func TestBillingServiceRefundPayment(t *testing.T) {
	ctx := context.Background()

	t.Run("refunds a completed payment", func(t *testing.T) {
		f := newServiceFixture(t, gateway.AlwaysApprove())
		payment, err := f.service.SubmitPayment(ctx, domain.MustMoney("49.99", "USD"), "ana@example.com")
		require.NoError(t, err)

		refunded, err := f.service.RefundPayment(ctx, payment.ID())

		require.NoError(t, err)
		assert.Equal(t, domain.PaymentStatusRefunded, refunded.Status())
		assert.Contains(t, f.routingKeys(), "billing.payment.refunded")
	})

	t.Run("unknown payment", func(t *testing.T) {
		f := newServiceFixture(t, gateway.AlwaysApprove())

		_, err := f.service.RefundPayment(ctx, uuid.New())

		assert.ErrorIs(t, err, domain.ErrPaymentNotFound)
	})

	t.Run("only completed payments are refundable", func(t *testing.T) {
		f := newServiceFixture(t, gateway.NewSimulatedGateway(gateway.SimulatedConfig{Seed: 1}, nil))
		payment, err := f.service.SubmitPayment(ctx, domain.MustMoney("49.99", "USD"), "ana@example.com")
		require.ErrorIs(t, err, gateway.ErrDeclined)

		_, err = f.service.RefundPayment(ctx, payment.ID())

		assert.ErrorIs(t, err, domain.ErrNotRefundable)
	})
}

func TestBillingServiceUndoLastPayment(t *testing.T) {
	ctx := context.Background()

	t.Run("undo refunds the most recent charge", func(t *testing.T) {
		f := newServiceFixture(t, gateway.AlwaysApprove())
		payment, err := f.service.SubmitPayment(ctx, domain.MustMoney("49.99", "USD"), "ana@example.com")
		require.NoError(t, err)

		result, err := f.service.UndoLastPayment(ctx)

		require.NoError(t, err)
		require.NotNil(t, result)
		assert.Equal(t, commands.OutcomeRefunded, result.Outcome)

		stored, err := f.payments.FindByID(ctx, payment.ID())
		require.NoError(t, err)
		assert.Equal(t, domain.PaymentStatusRefunded, stored.Status())
	})

	t.Run("empty history is a no-op", func(t *testing.T) {
		f := newServiceFixture(t, gateway.AlwaysApprove())

		result, err := f.service.UndoLastPayment(ctx)

		require.NoError(t, err)
		assert.Nil(t, result)
	})
}

func TestBillingServiceRecurring(t *testing.T) {
	ctx := context.Background()

	t.Run("monthly subscription due yesterday is charged once", func(t *testing.T) {
		f := newServiceFixture(t, gateway.AlwaysApprove())
		due := time.Now().UTC().Add(-24 * time.Hour)
		sub, err := f.service.CreateSubscription(ctx, "ana@example.com", domain.MustMoney("29.99", "USD"), domain.IntervalMonthly, &due)
		require.NoError(t, err)

		result, err := f.service.RunDueBilling(ctx)

		require.NoError(t, err)
		assert.Equal(t, 1, result.Processed())
		assert.Contains(t, f.routingKeys(), "billing.subscription.created")
		assert.Contains(t, f.routingKeys(), "billing.payment.completed")
		assert.Contains(t, f.routingKeys(), "billing.subscription.charged")

		payments, err := f.service.ListSubscriptionPayments(ctx, sub.ID())
		require.NoError(t, err)
		require.Len(t, payments, 1)
		assert.Equal(t, domain.PaymentStatusCompleted, payments[0].Status())

		reloaded, err := f.service.GetSubscription(ctx, sub.ID())
		require.NoError(t, err)
		assert.True(t, reloaded.NextPaymentDue().After(time.Now().UTC()))
	})

	t.Run("bill a single subscription on demand", func(t *testing.T) {
		f := newServiceFixture(t, gateway.AlwaysApprove())
		due := time.Now().UTC().Add(-time.Minute)
		sub, err := f.service.CreateSubscription(ctx, "ana@example.com", domain.MustMoney("29.99", "USD"), domain.IntervalWeekly, &due)
		require.NoError(t, err)

		result, err := f.service.BillSubscription(ctx, sub.ID())

		require.NoError(t, err)
		require.NotNil(t, result.Payment)
		assert.Equal(t, domain.PaymentStatusCompleted, result.Payment.Status())
	})
}

func TestBillingServiceSubscriptionLifecycle(t *testing.T) {
	ctx := context.Background()
	due := time.Now().UTC().Add(time.Hour)

	t.Run("pause and resume", func(t *testing.T) {
		f := newServiceFixture(t, gateway.AlwaysApprove())
		sub, err := f.service.CreateSubscription(ctx, "ana@example.com", domain.MustMoney("9.99", "USD"), domain.IntervalMonthly, &due)
		require.NoError(t, err)

		paused, err := f.service.PauseSubscription(ctx, sub.ID())
		require.NoError(t, err)
		assert.Equal(t, domain.SubscriptionStatusPaused, paused.Status())
		assert.Contains(t, f.routingKeys(), "billing.subscription.paused")

		resumed, err := f.service.ResumeSubscription(ctx, sub.ID())
		require.NoError(t, err)
		assert.Equal(t, domain.SubscriptionStatusActive, resumed.Status())
	})

	t.Run("cancellation is terminal", func(t *testing.T) {
		f := newServiceFixture(t, gateway.AlwaysApprove())
		sub, err := f.service.CreateSubscription(ctx, "ana@example.com", domain.MustMoney("9.99", "USD"), domain.IntervalMonthly, &due)
		require.NoError(t, err)

		_, err = f.service.CancelSubscription(ctx, sub.ID())
		require.NoError(t, err)

		_, err = f.service.ResumeSubscription(ctx, sub.ID())
		assert.Error(t, err)
	})

	t.Run("unknown subscription", func(t *testing.T) {
		f := newServiceFixture(t, gateway.AlwaysApprove())

		_, err := f.service.PauseSubscription(ctx, uuid.New())

		assert.ErrorIs(t, err, domain.ErrSubscriptionNotFound)
	})
}
