package application

import (
	"context"
	"testing"
	"time"

	"github.com/felixgeelhaar/payved/internal/billing/application/commands"
	"github.com/felixgeelhaar/payved/internal/billing/domain"
	"github.com/felixgeelhaar/payved/internal/billing/infrastructure/gateway"
	"github.com/felixgeelhaar/payved/internal/billing/infrastructure/persistence"
	"github.com/felixgeelhaar/payved/internal/shared/infrastructure/locking"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type schedulerFixture struct {
	subs      *persistence.MemorySubscriptionRepository
	payments  *persistence.MemoryPaymentRepository
	invoker   *commands.Invoker
	scheduler *Scheduler
}

func newSchedulerFixture(t *testing.T, gw gateway.Gateway) *schedulerFixture {
	t.Helper()
	subs := persistence.NewMemorySubscriptionRepository()
	payments := persistence.NewMemoryPaymentRepository()
	invoker := commands.NewInvoker(commands.DefaultHistoryCapacity, nil)
	scheduler := NewScheduler(subs, payments, gw, invoker, locking.NewMemoryLocker(), nil, DefaultSchedulerConfig(), nil)
	return &schedulerFixture{subs: subs, payments: payments, invoker: invoker, scheduler: scheduler}
}

func (f *schedulerFixture) addSubscription(t *testing.T, email string, due time.Time) *domain.Subscription {
	t.Helper()
	sub, err := domain.NewSubscription(email, domain.MustMoney("9.99", "USD"), domain.IntervalMonthly, &due)
	require.NoError(t, err)
	require.NoError(t, f.subs.Save(context.Background(), sub))
	return sub
}

func TestSchedulerProcessDuePayments(t *testing.T) {
	ctx := context.Background()

	t.Run("charges only due subscriptions", func(t *testing.T) {
		f := newSchedulerFixture(t, gateway.AlwaysApprove())
		past := time.Now().UTC().Add(-time.Hour)
		future := time.Now().UTC().Add(time.Hour)

		dueA := f.addSubscription(t, "a@example.com", past.Add(-time.Minute))
		dueB := f.addSubscription(t, "b@example.com", past)
		f.addSubscription(t, "later@example.com", future)

		result, err := f.scheduler.ProcessDuePayments(ctx)

		require.NoError(t, err)
		assert.Equal(t, 2, result.Attempted)
		assert.Equal(t, 2, result.Processed())
		assert.Empty(t, result.Failures)

		// Earliest due date first.
		require.Len(t, result.Payments, 2)
		require.NotNil(t, result.Payments[0].SubscriptionID())
		assert.Equal(t, dueA.ID(), *result.Payments[0].SubscriptionID())
		assert.Equal(t, dueB.ID(), *result.Payments[1].SubscriptionID())
	})

	t.Run("empty batch is a clean no-op", func(t *testing.T) {
		f := newSchedulerFixture(t, gateway.AlwaysApprove())

		result, err := f.scheduler.ProcessDuePayments(ctx)

		require.NoError(t, err)
		assert.Zero(t, result.Attempted)
		assert.Empty(t, result.Payments)
	})

	t.Run("one failing subscription does not stop the batch", func(t *testing.T) {
		f := newSchedulerFixture(t, declineEvery(2))
		past := time.Now().UTC().Add(-time.Hour)

		for _, email := range []string{"a@example.com", "b@example.com", "c@example.com"} {
			f.addSubscription(t, email, past)
			past = past.Add(time.Minute)
		}

		result, err := f.scheduler.ProcessDuePayments(ctx)

		require.NoError(t, err, "per-item failures never fail the batch")
		assert.Equal(t, 3, result.Attempted)
		assert.Equal(t, 2, result.Processed())
		require.Len(t, result.Failures, 1)
		assert.Error(t, result.Failures[0].Err)
	})

	t.Run("charged subscriptions are not due on the next run", func(t *testing.T) {
		f := newSchedulerFixture(t, gateway.AlwaysApprove())
		f.addSubscription(t, "a@example.com", time.Now().UTC().Add(-time.Hour))

		first, err := f.scheduler.ProcessDuePayments(ctx)
		require.NoError(t, err)
		require.Equal(t, 1, first.Processed())

		second, err := f.scheduler.ProcessDuePayments(ctx)
		require.NoError(t, err)
		assert.Zero(t, second.Attempted)
	})
}

func TestSchedulerProcessSubscription(t *testing.T) {
	ctx := context.Background()

	t.Run("charges one subscription on demand", func(t *testing.T) {
		f := newSchedulerFixture(t, gateway.AlwaysApprove())
		sub := f.addSubscription(t, "a@example.com", time.Now().UTC().Add(-time.Minute))

		result, err := f.scheduler.ProcessSubscription(ctx, sub.ID())

		require.NoError(t, err)
		assert.Equal(t, commands.OutcomeCharged, result.Outcome)
	})

	t.Run("not due reports the no-op outcome", func(t *testing.T) {
		f := newSchedulerFixture(t, gateway.AlwaysApprove())
		sub := f.addSubscription(t, "a@example.com", time.Now().UTC().Add(time.Hour))

		result, err := f.scheduler.ProcessSubscription(ctx, sub.ID())

		require.NoError(t, err)
		assert.Equal(t, commands.OutcomeNotDue, result.Outcome)
	})

	t.Run("failures propagate to the caller", func(t *testing.T) {
		f := newSchedulerFixture(t, gateway.NewSimulatedGateway(gateway.SimulatedConfig{Seed: 1}, nil))
		sub := f.addSubscription(t, "a@example.com", time.Now().UTC().Add(-time.Minute))

		_, err := f.scheduler.ProcessSubscription(ctx, sub.ID())

		assert.ErrorIs(t, err, gateway.ErrDeclined)
	})
}

// declineEvery returns a gateway that declines every nth charge (1-based)
// and approves the rest. Refunds are always approved.
func declineEvery(n int) gateway.Gateway {
	return &countingGateway{inner: gateway.AlwaysApprove(), declineAt: n}
}

type countingGateway struct {
	inner     *gateway.SimulatedGateway
	declineAt int
	calls     int
}

func (g *countingGateway) Charge(ctx context.Context, req gateway.ChargeRequest) (*gateway.ChargeResult, error) {
	g.calls++
	if g.calls == g.declineAt {
		return &gateway.ChargeResult{Approved: false, Message: "card declined or insufficient funds"}, nil
	}
	return g.inner.Charge(ctx, req)
}

func (g *countingGateway) Refund(ctx context.Context, req gateway.RefundRequest) (*gateway.RefundResult, error) {
	return g.inner.Refund(ctx, req)
}

func (g *countingGateway) Verify(ctx context.Context, transactionID string) (*gateway.VerifyResult, error) {
	return g.inner.Verify(ctx, transactionID)
}
