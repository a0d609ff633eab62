package persistence

import (
	"context"
	"testing"

	"github.com/felixgeelhaar/payved/internal/billing/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryPaymentRepositorySave(t *testing.T) {
	ctx := context.Background()

	t.Run("repeated saves of the same record bump the version", func(t *testing.T) {
		repo := NewMemoryPaymentRepository()
		payment := newTestPayment(t)

		require.NoError(t, repo.Save(ctx, payment))
		require.NoError(t, payment.Complete("txn_abc123"))
		require.NoError(t, repo.Save(ctx, payment))

		found, err := repo.FindByID(ctx, payment.ID())
		require.NoError(t, err)
		assert.Equal(t, domain.PaymentStatusCompleted, found.Status())
		assert.Equal(t, 2, found.Version())
	})

	t.Run("stale version is rejected", func(t *testing.T) {
		repo := NewMemoryPaymentRepository()
		payment := newTestPayment(t)
		require.NoError(t, repo.Save(ctx, payment))

		stale := domain.RehydratePayment(
			payment.ID(), payment.Money(), domain.PaymentStatusPending,
			"", nil, "", payment.CustomerEmail(), nil,
			payment.CreatedAt(), payment.UpdatedAt(), 5,
		)
		err := repo.Save(ctx, stale)

		assert.ErrorIs(t, err, domain.ErrVersionConflict)
	})
}

func TestMemorySubscriptionRepositorySave(t *testing.T) {
	ctx := context.Background()

	t.Run("stale version is rejected", func(t *testing.T) {
		repo := NewMemorySubscriptionRepository()
		sub, err := domain.NewSubscription("ana@example.com", domain.MustMoney("9.99", "USD"), domain.IntervalMonthly, nil)
		require.NoError(t, err)
		require.NoError(t, repo.Save(ctx, sub))

		stale := domain.RehydrateSubscription(
			sub.ID(), sub.CustomerEmail(), sub.Money(), sub.Interval(),
			domain.SubscriptionStatusActive, sub.NextPaymentDue(), sub.StartedAt(),
			sub.CreatedAt(), sub.UpdatedAt(), 5,
		)
		err = repo.Save(ctx, stale)

		assert.ErrorIs(t, err, domain.ErrVersionConflict)
	})
}
