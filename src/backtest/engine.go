package backtest

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"github.com/quantsim/backtester/src/analytics"
	"github.com/quantsim/backtester/src/data"
	"github.com/quantsim/backtester/src/models"
)

// Engine owns all mutable state for one backtest run: the clock, the cash
// ledger, positions, the order book, the fill log and the equity curve.
// One engine per run; independent runs share nothing.
type Engine struct {
	config    *models.BacktestConfig
	clock     *Clock
	simulator *Simulator
	strategy  Strategy
	matching  analytics.MatchMethod

	cash           models.Money
	portfolioValue models.Money
	positions      map[string]*models.Position
	orders         map[uuid.UUID]*models.Order
	orderQueue     []*models.Order
	fills          []*models.Fill
	marketStates   map[string]*models.MarketState
	equityCurve    []models.EquityPoint
	totalSlippage  models.Money
}

func NewEngine() *Engine {
	return &Engine{matching: analytics.MatchFIFO}
}

// SetTradeMatching selects FIFO (default) or LIFO round-trip attribution
// for the final report.
func (e *Engine) SetTradeMatching(matching analytics.MatchMethod) {
	e.matching = matching
}

// Run replays the feed bar-by-bar through the strategy and returns the
// performance report. Configuration and data problems are fatal before the
// loop starts; order-level problems reject the order and the run continues.
func (e *Engine) Run(ctx context.Context, strategy Strategy, config *models.BacktestConfig, feed data.Feed) (*models.BacktestResults, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid backtest config: %w", err)
	}

	bars, err := e.loadBars(feed, config)
	if err != nil {
		return nil, err
	}

	if len(bars) == 0 {
		return nil, fmt.Errorf("no market data for backtest period %s - %s: %w", config.StartDate, config.EndDate, models.ErrNoMarketData)
	}

	log.Infof("starting backtest for strategy %s: %s - %s, %d bars, initial capital %s",
		strategy.ID(), config.StartDate.Format(time.RFC3339), config.EndDate.Format(time.RFC3339), len(bars), config.InitialCapital)

	e.initialize(config, strategy)

	if err := strategy.Initialize(ctx, e, config); err != nil {
		return nil, fmt.Errorf("initializing strategy %s: %w", strategy.ID(), err)
	}

	for i, bar := range bars {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("backtest cancelled: %w", err)
		}

		if err := e.processBar(ctx, bar); err != nil {
			return nil, err
		}

		if i%1000 == 0 {
			log.Debugf("processed %d/%d bars", i, len(bars))
		}
	}

	analyzer := analytics.NewAnalyzer(config, e.matching)
	results, err := analyzer.Analyze(strategy.ID(), e.equityCurve, e.fills, e.positionList(), e.totalSlippage)
	if err != nil {
		return nil, fmt.Errorf("analyzing results: %w", err)
	}

	log.Infof("backtest complete for strategy %s: return %s%%, max drawdown %s",
		strategy.ID(), results.ReturnPercentage().StringFixed(2), results.MaxDrawdown.StringFixed(4))

	return results, nil
}

func (e *Engine) initialize(config *models.BacktestConfig, strategy Strategy) {
	e.config = config
	e.clock = NewClock(config.StartDate, config.EndDate)
	e.simulator = NewSimulator(config)
	e.strategy = strategy
	e.cash = config.InitialCapital
	e.portfolioValue = config.InitialCapital
	e.positions = make(map[string]*models.Position)
	e.orders = make(map[uuid.UUID]*models.Order)
	e.orderQueue = nil
	e.fills = nil
	e.marketStates = make(map[string]*models.MarketState)
	e.equityCurve = nil
	e.totalSlippage = models.ZeroMoney(config.Currency())
}

// loadBars drains the feed, keeps bars inside the configured window, and
// verifies each bar and the overall ordering before the loop starts.
func (e *Engine) loadBars(feed data.Feed, config *models.BacktestConfig) ([]*models.Bar, error) {
	all, err := data.ReadAll(feed)
	if err != nil {
		return nil, fmt.Errorf("reading bar feed: %w", err)
	}

	var bars []*models.Bar
	for _, bar := range all {
		if bar.Timestamp.Before(config.StartDate) || bar.Timestamp.After(config.EndDate) {
			continue
		}

		if err := bar.Validate(); err != nil {
			return nil, fmt.Errorf("invalid bar in feed: %w", err)
		}

		if len(bars) > 0 && bar.Timestamp.Before(bars[len(bars)-1].Timestamp) {
			return nil, fmt.Errorf("bar feed is not in ascending timestamp order at %s", bar.Timestamp)
		}

		bars = append(bars, bar)
	}

	return bars, nil
}

// processBar runs the fixed per-bar phases: advance the clock, refresh the
// quote, mark the portfolio, record equity, work the order queue, then and
// only then let the strategy react. Strategy orders therefore never see
// the bar that triggered them.
func (e *Engine) processBar(ctx context.Context, bar *models.Bar) error {
	if err := e.clock.AdvanceTo(bar.Timestamp); err != nil {
		return err
	}

	state, err := e.updateMarketState(bar)
	if err != nil {
		return err
	}

	e.updatePortfolioValue()

	e.equityCurve = append(e.equityCurve, models.EquityPoint{
		Timestamp: e.clock.CurrentTime,
		Equity:    e.portfolioValue.Amount,
	})

	if err := e.processOrders(ctx); err != nil {
		return err
	}

	if err := e.strategy.OnMarketData(ctx, bar, state); err != nil {
		return fmt.Errorf("strategy %s on market data: %w", e.strategy.ID(), err)
	}

	return nil
}

// updateMarketState synthesizes a bid/ask around the bar close using the
// configured spread; input bars carry OHLCV only.
func (e *Engine) updateMarketState(bar *models.Bar) (*models.MarketState, error) {
	mid := bar.Close
	halfSpread := mid.Mul(e.config.SpreadBps).Div(decimal.NewFromInt(10000)).Div(decimal.NewFromInt(2))

	state := &models.MarketState{
		Timestamp:  bar.Timestamp,
		Instrument: bar.Instrument,
		Bid:        mid.Sub(halfSpread),
		Ask:        mid.Add(halfSpread),
		Mid:        mid,
		Volume:     bar.Volume,
	}

	if err := state.Validate(); err != nil {
		return nil, fmt.Errorf("synthesized market state: %w", err)
	}

	e.marketStates[bar.Instrument.Key()] = state

	return state, nil
}

func (e *Engine) updatePortfolioValue() {
	total := e.cash.Amount

	for key, position := range e.positions {
		if position.Side == models.PositionSideFlat {
			continue
		}

		price := position.AvgPrice
		if state, ok := e.marketStates[key]; ok {
			price = state.Mid
		}

		total = total.Add(position.MarketValue(price))
	}

	e.portfolioValue = models.NewMoney(total, e.cash.Currency)
}

// processOrders runs the simulator over every order still open for
// trading, in submission order for determinism.
func (e *Engine) processOrders(ctx context.Context) error {
	for _, order := range e.orderQueue {
		if !order.Status.IsTradingAllowed() {
			continue
		}

		state := e.marketStates[order.Instrument.Key()]

		snapshot := AccountSnapshot{
			Cash:     e.cash.Amount,
			Equity:   e.portfolioValue.Amount,
			Position: e.positions[order.Instrument.Key()],
		}

		result := e.simulator.Execute(order, state, snapshot, e.clock.CurrentTime)
		if err := result.Validate(); err != nil {
			return fmt.Errorf("execution simulator produced an invalid result: %w", err)
		}

		if result.Rejected() {
			order.Reject(result.RejectReason)
			if listener, ok := e.strategy.(RejectListener); ok {
				listener.OnOrderRejected(ctx, order, result.RejectReason)
			}
			continue
		}

		if !result.Executed {
			continue
		}

		if err := e.applyFill(order, result); err != nil {
			return err
		}

		if listener, ok := e.strategy.(FillListener); ok {
			listener.OnOrderFilled(ctx, order, result.Fill)
		}
	}

	return nil
}

// applyFill commits one execution to the ledger: order state, position,
// cash, the fill log and the slippage tally move together.
func (e *Engine) applyFill(order *models.Order, result *models.ExecutionResult) error {
	fill := result.Fill

	if err := fill.Validate(); err != nil {
		return fmt.Errorf("execution simulator produced an invalid fill: %w", err)
	}

	if err := order.ApplyFill(fill); err != nil {
		return fmt.Errorf("applying fill to order %s: %w", order.ID, err)
	}

	key := order.Instrument.Key()
	position, ok := e.positions[key]
	if !ok {
		position = models.NewPosition(order.Instrument, e.config.Currency())
		e.positions[key] = position
	}

	if err := position.ApplyFill(fill); err != nil {
		return fmt.Errorf("applying fill to position %s: %w", key, err)
	}

	if err := position.Validate(); err != nil {
		return fmt.Errorf("position %s invalid after fill: %w", key, err)
	}

	notional := fill.Notional()
	if fill.Side == models.OrderSideBuy {
		e.cash.Amount = e.cash.Amount.Sub(notional).Sub(fill.Commission.Amount)
	} else {
		e.cash.Amount = e.cash.Amount.Add(notional).Sub(fill.Commission.Amount)
	}

	e.fills = append(e.fills, fill)
	e.totalSlippage.Amount = e.totalSlippage.Amount.Add(result.Slippage.Add(result.MarketImpact).Mul(fill.Quantity))

	e.updatePortfolioValue()

	log.Debugf("order %s filled: %s %s %s @ %s, commission %s",
		order.ID, fill.Side, fill.Quantity, fill.Instrument, fill.Price, fill.Commission)

	return nil
}

// SubmitOrder validates and queues an order. It takes effect in the next
// order-processing phase, never immediately.
func (e *Engine) SubmitOrder(order *models.Order) (uuid.UUID, error) {
	if err := order.Validate(); err != nil {
		return uuid.Nil, err
	}

	order.Status = models.OrderStatusSubmitted
	e.orders[order.ID] = order
	e.orderQueue = append(e.orderQueue, order)

	log.Debugf("submitted order %s: %s %s %s", order.ID, order.Side, order.Quantity, order.Instrument)

	return order.ID, nil
}

func (e *Engine) SubmitMarketOrder(instrument models.Instrument, side models.OrderSide, quantity decimal.Decimal) (uuid.UUID, error) {
	order := models.NewOrder(uuid.New(), instrument, side, models.Market, quantity, nil, models.GTC, e.clock.CurrentTime, e.config.Currency())

	return e.SubmitOrder(order)
}

func (e *Engine) SubmitLimitOrder(instrument models.Instrument, side models.OrderSide, quantity, price decimal.Decimal) (uuid.UUID, error) {
	order := models.NewOrder(uuid.New(), instrument, side, models.Limit, quantity, &price, models.GTC, e.clock.CurrentTime, e.config.Currency())

	return e.SubmitOrder(order)
}

// CancelOrder cancels a pending or submitted order. Cancelling a terminal
// or actively filled order is a no-op returning false.
func (e *Engine) CancelOrder(orderID uuid.UUID) bool {
	order, ok := e.orders[orderID]
	if !ok {
		return false
	}

	if err := order.Cancel(); err != nil {
		return false
	}

	log.Debugf("cancelled order %s", orderID)

	return true
}

// GetOrder returns a read-only copy, or nil if unknown.
func (e *Engine) GetOrder(orderID uuid.UUID) *models.Order {
	order, ok := e.orders[orderID]
	if !ok {
		return nil
	}

	cp := *order
	return &cp
}

// GetPosition returns a copy of the current position for an instrument, or
// nil when the instrument has never traded.
func (e *Engine) GetPosition(instrument models.Instrument) *models.Position {
	position, ok := e.positions[instrument.Key()]
	if !ok {
		return nil
	}

	return position.Copy()
}

func (e *Engine) GetPortfolioValue() models.Money {
	return e.portfolioValue
}

func (e *Engine) GetCashBalance() models.Money {
	return e.cash
}

func (e *Engine) CurrentTime() time.Time {
	return e.clock.CurrentTime
}

func (e *Engine) positionList() []*models.Position {
	keys := make([]string, 0, len(e.positions))
	for key := range e.positions {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	positions := make([]*models.Position, 0, len(keys))
	for _, key := range keys {
		positions = append(positions, e.positions[key])
	}

	return positions
}
