package domain

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	ErrAmountTooSmall  = errors.New("amount must be at least 0.01")
	ErrInvalidCurrency = errors.New("currency must be a 3-letter ISO code")
)

// minChargeable is the smallest amount the engine will attempt to charge.
var minChargeable = decimal.New(1, -2)

// Money is an exact monetary amount in a single currency.
type Money struct {
	amount   decimal.Decimal
	currency string
}

// NewMoney creates a Money value, validating the amount and currency code.
func NewMoney(amount decimal.Decimal, currency string) (Money, error) {
	if amount.LessThan(minChargeable) {
		return Money{}, fmt.Errorf("%w: got %s", ErrAmountTooSmall, amount.String())
	}
	currency = strings.ToUpper(strings.TrimSpace(currency))
	if len(currency) != 3 {
		return Money{}, fmt.Errorf("%w: got %q", ErrInvalidCurrency, currency)
	}
	for _, r := range currency {
		if r < 'A' || r > 'Z' {
			return Money{}, fmt.Errorf("%w: got %q", ErrInvalidCurrency, currency)
		}
	}
	return Money{amount: amount, currency: currency}, nil
}

// MustMoney is a convenience constructor for trusted inputs.
// It panics on validation failure.
func MustMoney(amount string, currency string) Money {
	m, err := NewMoney(decimal.RequireFromString(amount), currency)
	if err != nil {
		panic(err)
	}
	return m
}

func (m Money) Amount() decimal.Decimal { return m.amount }
func (m Money) Currency() string        { return m.currency }

// IsZero reports whether the value is the zero Money.
func (m Money) IsZero() bool {
	return m.currency == ""
}

// Equals reports whether two Money values are the same amount and currency.
func (m Money) Equals(other Money) bool {
	return m.currency == other.currency && m.amount.Equal(other.amount)
}

func (m Money) String() string {
	return m.amount.StringFixed(2) + " " + m.currency
}
