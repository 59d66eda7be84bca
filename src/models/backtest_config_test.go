package models

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestBacktestConfig(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC)

	t.Run("defaults are valid", func(t *testing.T) {
		cfg := NewBacktestConfig(start, end, NewMoneyFromFloat(100000, "USD"))

		require.NoError(t, cfg.Validate())
		require.True(t, cfg.CommissionRate.Equal(decimal.NewFromFloat(0.001)))
		require.True(t, cfg.SlippageRate.Equal(decimal.NewFromFloat(0.0005)))
		require.True(t, cfg.MarketImpactRate.Equal(decimal.NewFromFloat(0.0001)))
		require.Equal(t, DefaultPeriodsPerYear, cfg.PeriodsPerYear)
		require.Equal(t, "USD", cfg.Currency())
	})

	t.Run("end date must follow start date", func(t *testing.T) {
		cfg := NewBacktestConfig(end, start, NewMoneyFromFloat(100000, "USD"))
		require.ErrorIs(t, cfg.Validate(), ErrInvalidDateRange)

		cfg = NewBacktestConfig(start, start, NewMoneyFromFloat(100000, "USD"))
		require.ErrorIs(t, cfg.Validate(), ErrInvalidDateRange)
	})

	t.Run("initial capital must be positive", func(t *testing.T) {
		cfg := NewBacktestConfig(start, end, ZeroMoney("USD"))
		require.ErrorIs(t, cfg.Validate(), ErrInvalidInitialCapital)
	})

	t.Run("negative rates are rejected", func(t *testing.T) {
		cfg := NewBacktestConfig(start, end, NewMoneyFromFloat(100000, "USD"))
		cfg.SlippageRate = decimal.NewFromFloat(-0.001)
		require.ErrorIs(t, cfg.Validate(), ErrNegativeRate)
	})

	t.Run("zero rates are allowed", func(t *testing.T) {
		cfg := NewBacktestConfig(start, end, NewMoneyFromFloat(100000, "USD"))
		cfg.CommissionRate = decimal.Zero
		cfg.SlippageRate = decimal.Zero
		cfg.MarketImpactRate = decimal.Zero
		cfg.SpreadBps = decimal.Zero
		require.NoError(t, cfg.Validate())
	})

	t.Run("risk caps must be positive when set", func(t *testing.T) {
		cfg := NewBacktestConfig(start, end, NewMoneyFromFloat(100000, "USD"))
		zero := decimal.Zero
		cfg.MaxPositionSize = &zero
		require.Error(t, cfg.Validate())

		cfg.MaxPositionSize = nil
		cfg.MaxLeverage = &zero
		require.Error(t, cfg.Validate())
	})
}
