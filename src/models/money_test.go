package models

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestMoney(t *testing.T) {
	t.Run("add same currency", func(t *testing.T) {
		a := NewMoneyFromFloat(100.50, "USD")
		b := NewMoneyFromFloat(49.50, "USD")

		sum, err := a.Add(b)
		require.NoError(t, err)
		require.True(t, sum.Amount.Equal(decimal.NewFromInt(150)))
		require.Equal(t, "USD", sum.Currency)
	})

	t.Run("add currency mismatch", func(t *testing.T) {
		a := NewMoneyFromFloat(100, "USD")
		b := NewMoneyFromFloat(100, "EUR")

		_, err := a.Add(b)
		require.ErrorIs(t, err, ErrCurrencyMismatch)
	})

	t.Run("sub same currency", func(t *testing.T) {
		a := NewMoneyFromFloat(100, "USD")
		b := NewMoneyFromFloat(30, "USD")

		diff, err := a.Sub(b)
		require.NoError(t, err)
		require.True(t, diff.Amount.Equal(decimal.NewFromInt(70)))
	})

	t.Run("sub currency mismatch", func(t *testing.T) {
		a := NewMoneyFromFloat(100, "USD")
		b := NewMoneyFromFloat(100, "BTC")

		_, err := a.Sub(b)
		require.ErrorIs(t, err, ErrCurrencyMismatch)
	})

	t.Run("mul", func(t *testing.T) {
		a := NewMoneyFromFloat(100, "USD")

		product := a.Mul(decimal.NewFromFloat(0.5))
		require.True(t, product.Amount.Equal(decimal.NewFromInt(50)))
		require.Equal(t, "USD", product.Currency)
	})

	t.Run("string", func(t *testing.T) {
		require.Equal(t, "100.5 USD", NewMoneyFromFloat(100.5, "USD").String())
	})

	t.Run("zero", func(t *testing.T) {
		zero := ZeroMoney("USD")
		require.True(t, zero.IsZero())
		require.False(t, zero.IsPositive())
	})
}
