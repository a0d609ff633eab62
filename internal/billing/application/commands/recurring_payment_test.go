package commands

import (
	"context"
	"testing"
	"time"

	"github.com/felixgeelhaar/payved/internal/billing/domain"
	"github.com/felixgeelhaar/payved/internal/billing/infrastructure/gateway"
	"github.com/felixgeelhaar/payved/internal/billing/infrastructure/persistence"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dueSubscription(t *testing.T, subs *persistence.MemorySubscriptionRepository, interval domain.BillingInterval) *domain.Subscription {
	t.Helper()
	due := time.Now().UTC().Add(-time.Hour)
	sub, err := domain.NewSubscription("customer@example.com", domain.MustMoney("29.99", "USD"), interval, &due)
	require.NoError(t, err)
	require.NoError(t, subs.Save(context.Background(), sub))
	return sub
}

func TestRecurringPaymentCommandExecute(t *testing.T) {
	ctx := context.Background()

	t.Run("charges a due subscription and advances the due date", func(t *testing.T) {
		subs := persistence.NewMemorySubscriptionRepository()
		payments := persistence.NewMemoryPaymentRepository()
		sub := dueSubscription(t, subs, domain.IntervalMonthly)
		dueBefore := sub.NextPaymentDue()

		cmd := NewRecurringPaymentCommand(sub.ID(), subs, payments, gateway.AlwaysApprove(), nil)
		result, err := cmd.Execute(ctx)

		require.NoError(t, err)
		assert.Equal(t, OutcomeCharged, result.Outcome)
		require.NotNil(t, result.Payment)
		assert.Equal(t, domain.PaymentStatusCompleted, result.Payment.Status())
		require.NotNil(t, result.Payment.SubscriptionID())
		assert.Equal(t, sub.ID(), *result.Payment.SubscriptionID())

		reloaded, err := subs.FindByID(ctx, sub.ID())
		require.NoError(t, err)
		assert.True(t, reloaded.NextPaymentDue().Equal(dueBefore.Add(30*24*time.Hour)),
			"due date advances by exactly one period")
	})

	t.Run("not due is a no-op result, not an error", func(t *testing.T) {
		subs := persistence.NewMemorySubscriptionRepository()
		payments := persistence.NewMemoryPaymentRepository()
		future := time.Now().UTC().Add(24 * time.Hour)
		sub, err := domain.NewSubscription("customer@example.com", domain.MustMoney("29.99", "USD"), domain.IntervalMonthly, &future)
		require.NoError(t, err)
		require.NoError(t, subs.Save(ctx, sub))

		cmd := NewRecurringPaymentCommand(sub.ID(), subs, payments, gateway.AlwaysApprove(), nil)
		result, err := cmd.Execute(ctx)

		require.NoError(t, err)
		assert.Equal(t, OutcomeNotDue, result.Outcome)
		assert.Nil(t, result.Payment)
		assert.False(t, cmd.CanUndo())

		all, _ := payments.List(ctx)
		assert.Empty(t, all, "no payment record for a not-due cycle")
	})

	t.Run("unknown subscription fails", func(t *testing.T) {
		subs := persistence.NewMemorySubscriptionRepository()
		payments := persistence.NewMemoryPaymentRepository()

		cmd := NewRecurringPaymentCommand(uuid.New(), subs, payments, gateway.AlwaysApprove(), nil)
		_, err := cmd.Execute(ctx)

		assert.ErrorIs(t, err, domain.ErrSubscriptionNotFound)
	})

	t.Run("paused subscription fails loudly", func(t *testing.T) {
		subs := persistence.NewMemorySubscriptionRepository()
		payments := persistence.NewMemoryPaymentRepository()
		sub := dueSubscription(t, subs, domain.IntervalMonthly)
		require.NoError(t, sub.Pause())
		require.NoError(t, subs.Save(ctx, sub))

		cmd := NewRecurringPaymentCommand(sub.ID(), subs, payments, gateway.AlwaysApprove(), nil)
		_, err := cmd.Execute(ctx)

		assert.ErrorIs(t, err, domain.ErrSubscriptionNotActive)
	})

	t.Run("declined charge leaves the due date unchanged", func(t *testing.T) {
		subs := persistence.NewMemorySubscriptionRepository()
		payments := persistence.NewMemoryPaymentRepository()
		sub := dueSubscription(t, subs, domain.IntervalMonthly)
		dueBefore := sub.NextPaymentDue()

		cmd := NewRecurringPaymentCommand(sub.ID(), subs, payments, declineAll(), nil)
		_, err := cmd.Execute(ctx)

		require.Error(t, err)
		assert.ErrorIs(t, err, gateway.ErrDeclined)

		reloaded, findErr := subs.FindByID(ctx, sub.ID())
		require.NoError(t, findErr)
		assert.True(t, reloaded.NextPaymentDue().Equal(dueBefore),
			"failed cycle is retried on the next run")
	})
}

func TestRecurringPaymentCommandUndo(t *testing.T) {
	ctx := context.Background()

	t.Run("refunds the charge but keeps the advanced due date", func(t *testing.T) {
		subs := persistence.NewMemorySubscriptionRepository()
		payments := persistence.NewMemoryPaymentRepository()
		sub := dueSubscription(t, subs, domain.IntervalWeekly)
		dueBefore := sub.NextPaymentDue()

		cmd := NewRecurringPaymentCommand(sub.ID(), subs, payments, gateway.AlwaysApprove(), nil)
		executed, err := cmd.Execute(ctx)
		require.NoError(t, err)
		require.True(t, cmd.CanUndo())

		result, err := cmd.Undo(ctx)

		require.NoError(t, err)
		assert.Equal(t, OutcomeRefunded, result.Outcome)
		assert.Equal(t, domain.PaymentStatusRefunded, executed.Payment.Status())

		reloaded, err := subs.FindByID(ctx, sub.ID())
		require.NoError(t, err)
		assert.True(t, reloaded.NextPaymentDue().Equal(dueBefore.Add(7*24*time.Hour)),
			"refund does not re-open the billing cycle")
	})

	t.Run("undo of a not-due execution is not undoable", func(t *testing.T) {
		subs := persistence.NewMemorySubscriptionRepository()
		payments := persistence.NewMemoryPaymentRepository()
		future := time.Now().UTC().Add(time.Hour)
		sub, err := domain.NewSubscription("customer@example.com", domain.MustMoney("5", "USD"), domain.IntervalDaily, &future)
		require.NoError(t, err)
		require.NoError(t, subs.Save(ctx, sub))

		cmd := NewRecurringPaymentCommand(sub.ID(), subs, payments, gateway.AlwaysApprove(), nil)
		_, err = cmd.Execute(ctx)
		require.NoError(t, err)

		_, err = cmd.Undo(ctx)
		assert.ErrorIs(t, err, ErrNotUndoable)
	})
}
