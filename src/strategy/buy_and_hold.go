package strategy

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/quantsim/backtester/src/backtest"
	"github.com/quantsim/backtester/src/models"
)

// BuyAndHoldConfig is the typed configuration for the benchmark strategy.
type BuyAndHoldConfig struct {
	// Allocation is the fraction of the portfolio committed on the first
	// bar; the remainder covers commission and slippage.
	Allocation decimal.Decimal
}

func DefaultBuyAndHoldConfig() BuyAndHoldConfig {
	return BuyAndHoldConfig{Allocation: decimal.NewFromFloat(0.95)}
}

func (c BuyAndHoldConfig) Validate() error {
	if !c.Allocation.IsPositive() || c.Allocation.GreaterThan(decimal.NewFromInt(1)) {
		return fmt.Errorf("allocation must be in (0, 1]")
	}

	return nil
}

// BuyAndHold buys once on the first bar and holds to the end. Used as a
// benchmark against anything fancier.
type BuyAndHold struct {
	backtest.BaseStrategy

	config BuyAndHoldConfig
	bought bool
}

func NewBuyAndHold(id string, config BuyAndHoldConfig) (*BuyAndHold, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid buy-and-hold config: %w", err)
	}

	return &BuyAndHold{
		BaseStrategy: backtest.NewBaseStrategy(id),
		config:       config,
	}, nil
}

func (s *BuyAndHold) Initialize(ctx context.Context, engine *backtest.Engine, config *models.BacktestConfig) error {
	if err := s.BaseStrategy.Initialize(ctx, engine, config); err != nil {
		return err
	}

	s.bought = false

	return nil
}

func (s *BuyAndHold) OnMarketData(ctx context.Context, bar *models.Bar, state *models.MarketState) error {
	if s.bought {
		return nil
	}

	quantity := s.GetPortfolioValue().Amount.Mul(s.config.Allocation).Div(state.Mid)

	orderID, err := s.SubmitMarketOrder(bar.Instrument, models.OrderSideBuy, quantity)
	if err != nil {
		return err
	}

	s.Logger().Infof("submitted opening buy %s: %s %s at mid %s", orderID, quantity.StringFixed(6), bar.Instrument, state.Mid)

	s.bought = true

	return nil
}
