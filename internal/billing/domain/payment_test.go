package domain

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPayment(t *testing.T) {
	t.Run("starts pending with a creation event", func(t *testing.T) {
		payment, err := NewPayment(MustMoney("49.99", "USD"), "customer@example.com")

		require.NoError(t, err)
		assert.Equal(t, PaymentStatusPending, payment.Status())
		assert.Empty(t, payment.TransactionID())
		assert.Nil(t, payment.PaidAt())
		assert.Nil(t, payment.SubscriptionID())

		events := payment.DomainEvents()
		require.Len(t, events, 1)
		assert.Equal(t, "billing.payment.created", events[0].RoutingKey())
	})

	t.Run("rejects missing or malformed email", func(t *testing.T) {
		_, err := NewPayment(MustMoney("10", "USD"), "")
		assert.ErrorIs(t, err, ErrEmptyCustomerEmail)

		_, err = NewPayment(MustMoney("10", "USD"), "not-an-email")
		assert.ErrorIs(t, err, ErrEmptyCustomerEmail)
	})

	t.Run("rejects zero money", func(t *testing.T) {
		_, err := NewPayment(Money{}, "customer@example.com")
		assert.ErrorIs(t, err, ErrAmountTooSmall)
	})
}

func TestPaymentComplete(t *testing.T) {
	t.Run("records transaction id and paid time", func(t *testing.T) {
		payment, _ := NewPayment(MustMoney("10", "USD"), "customer@example.com")
		payment.ClearDomainEvents()

		err := payment.Complete("txn_abc123")

		require.NoError(t, err)
		assert.Equal(t, PaymentStatusCompleted, payment.Status())
		assert.Equal(t, "txn_abc123", payment.TransactionID())
		require.NotNil(t, payment.PaidAt())

		events := payment.DomainEvents()
		require.Len(t, events, 1)
		assert.Equal(t, "billing.payment.completed", events[0].RoutingKey())
	})

	t.Run("requires a transaction id", func(t *testing.T) {
		payment, _ := NewPayment(MustMoney("10", "USD"), "customer@example.com")

		err := payment.Complete("")
		assert.ErrorIs(t, err, ErrInvalidTransition)
	})

	t.Run("rejects completing twice", func(t *testing.T) {
		payment, _ := NewPayment(MustMoney("10", "USD"), "customer@example.com")
		require.NoError(t, payment.Complete("txn_1"))

		err := payment.Complete("txn_2")
		assert.ErrorIs(t, err, ErrInvalidTransition)
		assert.Equal(t, "txn_1", payment.TransactionID())
	})
}

func TestPaymentFail(t *testing.T) {
	t.Run("records the failure reason", func(t *testing.T) {
		payment, _ := NewPayment(MustMoney("10", "USD"), "customer@example.com")

		err := payment.Fail("insufficient funds")

		require.NoError(t, err)
		assert.Equal(t, PaymentStatusFailed, payment.Status())
		assert.Equal(t, "insufficient funds", payment.FailureReason())
	})

	t.Run("rejects failing a completed payment", func(t *testing.T) {
		payment, _ := NewPayment(MustMoney("10", "USD"), "customer@example.com")
		require.NoError(t, payment.Complete("txn_1"))

		err := payment.Fail("too late")
		assert.ErrorIs(t, err, ErrInvalidTransition)
	})
}

func TestPaymentRefund(t *testing.T) {
	t.Run("refunds a completed payment and keeps the transaction id", func(t *testing.T) {
		payment, _ := NewPayment(MustMoney("10", "USD"), "customer@example.com")
		require.NoError(t, payment.Complete("txn_1"))
		payment.ClearDomainEvents()

		err := payment.Refund()

		require.NoError(t, err)
		assert.Equal(t, PaymentStatusRefunded, payment.Status())
		assert.Equal(t, "txn_1", payment.TransactionID())

		events := payment.DomainEvents()
		require.Len(t, events, 1)
		assert.Equal(t, "billing.payment.refunded", events[0].RoutingKey())
	})

	t.Run("rejects refunding pending and failed payments", func(t *testing.T) {
		pending, _ := NewPayment(MustMoney("10", "USD"), "customer@example.com")
		assert.ErrorIs(t, pending.Refund(), ErrNotRefundable)

		failed, _ := NewPayment(MustMoney("10", "USD"), "customer@example.com")
		require.NoError(t, failed.Fail("declined"))
		assert.ErrorIs(t, failed.Refund(), ErrNotRefundable)
	})

	t.Run("rejects refunding twice", func(t *testing.T) {
		payment, _ := NewPayment(MustMoney("10", "USD"), "customer@example.com")
		require.NoError(t, payment.Complete("txn_1"))
		require.NoError(t, payment.Refund())

		assert.ErrorIs(t, payment.Refund(), ErrNotRefundable)
	})
}

func TestPaymentAttachSubscription(t *testing.T) {
	payment, _ := NewPayment(MustMoney("10", "USD"), "customer@example.com")
	subID := uuid.New()

	payment.AttachSubscription(subID)

	require.NotNil(t, payment.SubscriptionID())
	assert.Equal(t, subID, *payment.SubscriptionID())
}

func TestParsePaymentStatus(t *testing.T) {
	for _, status := range []PaymentStatus{PaymentStatusPending, PaymentStatusCompleted, PaymentStatusFailed, PaymentStatusRefunded} {
		parsed, err := ParsePaymentStatus(status.String())
		require.NoError(t, err)
		assert.Equal(t, status, parsed)
	}

	_, err := ParsePaymentStatus("bogus")
	assert.Error(t, err)
}
