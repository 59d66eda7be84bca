package strategy

import (
	"context"
	"fmt"

	"github.com/montanaflynn/stats"
	"github.com/shopspring/decimal"

	"github.com/quantsim/backtester/src/backtest"
	"github.com/quantsim/backtester/src/models"
)

// SMAConfig is the typed configuration for the moving-average crossover
// strategy. Unset fields take the documented defaults.
type SMAConfig struct {
	ShortWindow  int
	LongWindow   int
	PositionSize decimal.Decimal
}

// DefaultSMAConfig: 10/30 windows, 10% of portfolio per trade.
func DefaultSMAConfig() SMAConfig {
	return SMAConfig{
		ShortWindow:  10,
		LongWindow:   30,
		PositionSize: decimal.NewFromFloat(0.1),
	}
}

func (c SMAConfig) Validate() error {
	if c.ShortWindow <= 0 || c.LongWindow <= 0 {
		return fmt.Errorf("sma windows must be positive")
	}

	if c.ShortWindow >= c.LongWindow {
		return fmt.Errorf("short window %d must be less than long window %d", c.ShortWindow, c.LongWindow)
	}

	if !c.PositionSize.IsPositive() || c.PositionSize.GreaterThan(decimal.NewFromInt(1)) {
		return fmt.Errorf("position size must be in (0, 1]")
	}

	return nil
}

// SMACrossover buys when the short moving average crosses above the long
// one and sells when it crosses below.
type SMACrossover struct {
	backtest.BaseStrategy

	config     SMAConfig
	closes     []float64
	lastSignal models.OrderSide
}

func NewSMACrossover(id string, config SMAConfig) (*SMACrossover, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid sma config: %w", err)
	}

	return &SMACrossover{
		BaseStrategy: backtest.NewBaseStrategy(id),
		config:       config,
	}, nil
}

func (s *SMACrossover) Initialize(ctx context.Context, engine *backtest.Engine, config *models.BacktestConfig) error {
	if err := s.BaseStrategy.Initialize(ctx, engine, config); err != nil {
		return err
	}

	s.closes = nil
	s.lastSignal = ""

	s.Logger().Infof("initialized sma crossover: windows %d/%d, position size %s",
		s.config.ShortWindow, s.config.LongWindow, s.config.PositionSize)

	return nil
}

func (s *SMACrossover) OnMarketData(ctx context.Context, bar *models.Bar, state *models.MarketState) error {
	s.closes = append(s.closes, bar.Close.InexactFloat64())

	if len(s.closes) > s.config.LongWindow*2 {
		s.closes = s.closes[len(s.closes)-s.config.LongWindow*2:]
	}

	if len(s.closes) < s.config.LongWindow {
		return nil
	}

	shortMA, err := stats.Mean(s.closes[len(s.closes)-s.config.ShortWindow:])
	if err != nil {
		return fmt.Errorf("failed to calculate short moving average: %w", err)
	}

	longMA, err := stats.Mean(s.closes[len(s.closes)-s.config.LongWindow:])
	if err != nil {
		return fmt.Errorf("failed to calculate long moving average: %w", err)
	}

	var signal models.OrderSide
	if shortMA > longMA {
		signal = models.OrderSideBuy
	} else if shortMA < longMA {
		signal = models.OrderSideSell
	}

	if signal == "" || signal == s.lastSignal {
		return nil
	}

	if err := s.executeSignal(signal, bar, state); err != nil {
		return err
	}

	s.lastSignal = signal

	return nil
}

func (s *SMACrossover) executeSignal(signal models.OrderSide, bar *models.Bar, state *models.MarketState) error {
	position := s.GetPosition(bar.Instrument)

	quantity := s.GetPortfolioValue().Amount.Mul(s.config.PositionSize).Div(state.Mid)

	// close the opposing exposure first so the new order opens fresh
	if position != nil && position.Quantity.IsPositive() {
		opposing := (signal == models.OrderSideBuy && position.Side == models.PositionSideShort) ||
			(signal == models.OrderSideSell && position.Side == models.PositionSideLong)
		if opposing {
			if _, err := s.SubmitMarketOrder(bar.Instrument, signal, position.Quantity); err != nil {
				return err
			}

			s.Logger().Infof("closing %s position of %s", position.Side, position.Quantity)
		}
	}

	if _, err := s.SubmitMarketOrder(bar.Instrument, signal, quantity); err != nil {
		return err
	}

	s.Logger().Infof("signal %s: %s %s at mid %s", signal, signal, quantity.StringFixed(6), state.Mid)

	return nil
}
