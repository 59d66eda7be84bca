package strategy

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/quantsim/backtester/src/backtest"
	"github.com/quantsim/backtester/src/data"
	"github.com/quantsim/backtester/src/models"
)

func TestBuyAndHoldConfigValidate(t *testing.T) {
	t.Run("default is valid", func(t *testing.T) {
		cfg := DefaultBuyAndHoldConfig()
		require.NoError(t, cfg.Validate())
		require.True(t, cfg.Allocation.Equal(decimal.NewFromFloat(0.95)))
	})

	t.Run("allocation bounds", func(t *testing.T) {
		require.Error(t, BuyAndHoldConfig{Allocation: decimal.Zero}.Validate())
		require.Error(t, BuyAndHoldConfig{Allocation: decimal.NewFromFloat(1.01)}.Validate())
		require.NoError(t, BuyAndHoldConfig{Allocation: decimal.NewFromInt(1)}.Validate())
	})

	t.Run("constructor rejects invalid config", func(t *testing.T) {
		_, err := NewBuyAndHold("bh", BuyAndHoldConfig{})
		require.Error(t, err)
	})
}

func TestBuyAndHoldBacktest(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	cfg := models.NewBacktestConfig(start, start.Add(30*24*time.Hour), models.NewMoneyFromFloat(100000, "USD"))

	strategy, err := NewBuyAndHold("bh-test", DefaultBuyAndHoldConfig())
	require.NoError(t, err)

	closes := []float64{100, 102, 104, 106, 108, 110}
	feed := data.NewInMemoryFeed(testBars(start, closes))

	results, err := backtest.NewEngine().Run(context.Background(), strategy, cfg, feed)
	require.NoError(t, err)

	// exactly one opening buy, filled on the second bar
	require.Len(t, results.Fills, 1)

	fill := results.Fills[0]
	require.Equal(t, models.OrderSideBuy, fill.Side)
	require.Equal(t, start.Add(24*time.Hour), fill.Timestamp)

	// the market rallied after the entry, so the run ends ahead
	require.True(t, results.FinalCapital.Amount.GreaterThan(decimal.NewFromInt(100000)))
	require.True(t, results.TotalReturn.GreaterThan(decimal.NewFromInt(1)))

	// one long position held to the end
	require.Len(t, results.Positions, 1)
	require.Equal(t, models.PositionSideLong, results.Positions[0].Side)
	require.True(t, results.Positions[0].Quantity.Equal(fill.Quantity))
}
