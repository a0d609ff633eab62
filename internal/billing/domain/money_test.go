package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMoney(t *testing.T) {
	t.Run("creates money with valid amount and currency", func(t *testing.T) {
		m, err := NewMoney(decimal.RequireFromString("49.99"), "USD")

		require.NoError(t, err)
		assert.Equal(t, "49.99", m.Amount().String())
		assert.Equal(t, "USD", m.Currency())
	})

	t.Run("accepts the minimum chargeable amount", func(t *testing.T) {
		m, err := NewMoney(decimal.RequireFromString("0.01"), "EUR")

		require.NoError(t, err)
		assert.Equal(t, "0.01", m.Amount().String())
	})

	t.Run("rejects amounts below one cent", func(t *testing.T) {
		_, err := NewMoney(decimal.RequireFromString("0.009"), "USD")
		assert.ErrorIs(t, err, ErrAmountTooSmall)

		_, err = NewMoney(decimal.Zero, "USD")
		assert.ErrorIs(t, err, ErrAmountTooSmall)

		_, err = NewMoney(decimal.RequireFromString("-5"), "USD")
		assert.ErrorIs(t, err, ErrAmountTooSmall)
	})

	t.Run("normalizes lowercase currency codes", func(t *testing.T) {
		m, err := NewMoney(decimal.RequireFromString("10"), "usd")

		require.NoError(t, err)
		assert.Equal(t, "USD", m.Currency())
	})

	t.Run("rejects malformed currency codes", func(t *testing.T) {
		for _, currency := range []string{"", "US", "USDX", "U$D"} {
			_, err := NewMoney(decimal.RequireFromString("10"), currency)
			assert.ErrorIs(t, err, ErrInvalidCurrency, "currency %q", currency)
		}
	})
}

func TestMoneyEquals(t *testing.T) {
	a := MustMoney("10.00", "USD")
	b := MustMoney("10", "USD")
	c := MustMoney("10.00", "EUR")

	assert.True(t, a.Equals(b), "same value in different notation")
	assert.False(t, a.Equals(c), "different currency")
}

func TestMoneyString(t *testing.T) {
	m := MustMoney("29.99", "USD")
	assert.Equal(t, "29.99 USD", m.String())
}
