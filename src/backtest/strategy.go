package backtest

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"github.com/quantsim/backtester/src/models"
)

// Strategy is the contract the engine drives. OnMarketData is the only
// decision point; orders submitted from it are queued and execute in the
// next order-processing phase, never immediately.
type Strategy interface {
	ID() string
	Initialize(ctx context.Context, engine *Engine, config *models.BacktestConfig) error
	OnMarketData(ctx context.Context, bar *models.Bar, state *models.MarketState) error
}

// FillListener is an optional capability: strategies implementing it are
// notified after each of their orders fills.
type FillListener interface {
	OnOrderFilled(ctx context.Context, order *models.Order, fill *models.Fill)
}

// RejectListener is an optional capability: strategies implementing it are
// notified when one of their orders is rejected.
type RejectListener interface {
	OnOrderRejected(ctx context.Context, order *models.Order, reason string)
}

// BaseStrategy provides the order-submission facade and no-op plumbing.
// Concrete strategies embed it and override Initialize/OnMarketData,
// calling the embedded Initialize first to bind the engine.
type BaseStrategy struct {
	id     string
	engine *Engine
	logger *log.Entry
}

func NewBaseStrategy(id string) BaseStrategy {
	return BaseStrategy{
		id:     id,
		logger: log.WithField("strategy", id),
	}
}

func (s *BaseStrategy) ID() string {
	return s.id
}

func (s *BaseStrategy) Initialize(ctx context.Context, engine *Engine, config *models.BacktestConfig) error {
	s.engine = engine
	return nil
}

func (s *BaseStrategy) Logger() *log.Entry {
	return s.logger
}

func (s *BaseStrategy) SubmitMarketOrder(instrument models.Instrument, side models.OrderSide, quantity decimal.Decimal) (uuid.UUID, error) {
	if s.engine == nil {
		return uuid.Nil, fmt.Errorf("strategy %s not initialized with engine", s.id)
	}

	return s.engine.SubmitMarketOrder(instrument, side, quantity)
}

func (s *BaseStrategy) SubmitLimitOrder(instrument models.Instrument, side models.OrderSide, quantity, price decimal.Decimal) (uuid.UUID, error) {
	if s.engine == nil {
		return uuid.Nil, fmt.Errorf("strategy %s not initialized with engine", s.id)
	}

	return s.engine.SubmitLimitOrder(instrument, side, quantity, price)
}

func (s *BaseStrategy) CancelOrder(orderID uuid.UUID) bool {
	if s.engine == nil {
		return false
	}

	return s.engine.CancelOrder(orderID)
}

func (s *BaseStrategy) GetPosition(instrument models.Instrument) *models.Position {
	if s.engine == nil {
		return nil
	}

	return s.engine.GetPosition(instrument)
}

func (s *BaseStrategy) GetPortfolioValue() models.Money {
	return s.engine.GetPortfolioValue()
}

func (s *BaseStrategy) GetCashBalance() models.Money {
	return s.engine.GetCashBalance()
}

func (s *BaseStrategy) CurrentTime() time.Time {
	return s.engine.CurrentTime()
}
