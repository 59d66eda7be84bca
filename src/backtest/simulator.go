package backtest

import (
	"math"
	"time"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"github.com/quantsim/backtester/src/models"
)

// Rejection reasons recorded on orders and reported to strategies.
const (
	RejectReasonNoMarketData      = "No market data available"
	RejectReasonInsufficientFunds = "Insufficient funds or position"
	RejectReasonPositionSizeCap   = "Position size cap exceeded"
	RejectReasonLeverageCap       = "Leverage cap exceeded"
)

// AccountSnapshot is the slice of account state the simulator needs to
// judge feasibility. Position may be nil when the instrument has never
// traded.
type AccountSnapshot struct {
	Cash     decimal.Decimal
	Equity   decimal.Decimal
	Position *models.Position
}

// Simulator prices one pending order against the current market state. It
// produces at most one all-or-nothing fill and never mutates the order,
// the position, or the account; applying side effects is the engine's job.
type Simulator struct {
	config *models.BacktestConfig
}

func NewSimulator(config *models.BacktestConfig) *Simulator {
	return &Simulator{config: config}
}

// Execute applies the pricing, slippage, impact, commission and feasibility
// rules. A limit order whose price has not been reached returns an
// unexecuted result with no rejection reason and stays pending.
func (s *Simulator) Execute(order *models.Order, state *models.MarketState, account AccountSnapshot, now time.Time) *models.ExecutionResult {
	result := &models.ExecutionResult{
		OrderID:           order.ID,
		RemainingQuantity: order.RemainingQuantity(),
		Commission:        models.ZeroMoney(s.config.Currency()),
	}

	if state == nil {
		log.Warnf("order %s: no market data for %s, rejecting", order.ID, order.Instrument)
		result.RejectReason = RejectReasonNoMarketData
		return result
	}

	basePrice, crossed := s.executionPrice(order, state)
	if !crossed {
		// limit conditions not met; order stays pending
		return result
	}

	slippage := s.slippage(order, state)
	impact := s.marketImpact(order, state)

	finalPrice := basePrice.Add(slippage).Add(impact)
	if order.Side == models.OrderSideSell {
		finalPrice = basePrice.Sub(slippage).Sub(impact)
	}

	quantity := order.RemainingQuantity()
	commission := models.NewMoney(quantity.Mul(finalPrice).Mul(s.config.CommissionRate), s.config.Currency())

	if reason := s.checkFeasibility(order, finalPrice, commission, account); reason != "" {
		log.Warnf("order %s rejected: %s", order.ID, reason)
		result.RejectReason = reason
		return result
	}

	liquidity := models.LiquidityTaker
	if order.Type == models.Limit {
		liquidity = models.LiquidityMaker
	}

	fill := models.NewFill(order.ID, order.Instrument, order.Side, quantity, finalPrice, now, commission, liquidity)

	result.Executed = true
	result.Fill = fill
	result.RemainingQuantity = decimal.Zero
	result.Slippage = slippage
	result.MarketImpact = impact
	result.Commission = commission

	return result
}

// executionPrice returns the candidate price and whether the order can
// trade at all on this bar. Market orders always trade at the touch; limit
// orders only when the book has crossed their price.
func (s *Simulator) executionPrice(order *models.Order, state *models.MarketState) (decimal.Decimal, bool) {
	if order.Type == models.Market {
		if order.Side == models.OrderSideBuy {
			return state.Ask, true
		}
		return state.Bid, true
	}

	limit := *order.LimitPrice
	if order.Side == models.OrderSideBuy {
		if state.Ask.LessThanOrEqual(limit) {
			return decimal.Min(limit, state.Ask), true
		}
	} else {
		if state.Bid.GreaterThanOrEqual(limit) {
			return decimal.Max(limit, state.Bid), true
		}
	}

	return decimal.Zero, false
}

// slippage grows with order size: mid * rate * (1 + min(qty/1000, 2)),
// capping the degradation at 3x the base rate.
func (s *Simulator) slippage(order *models.Order, state *models.MarketState) decimal.Decimal {
	base := state.Mid.Mul(s.config.SlippageRate)

	sizeFactor := decimal.Min(order.RemainingQuantity().Div(decimal.NewFromInt(1000)), decimal.NewFromInt(2))

	return base.Mul(decimal.NewFromInt(1).Add(sizeFactor))
}

// marketImpact follows a square-root model in order size relative to bar
// volume: mid * rate * sqrt(qty / volume).
func (s *Simulator) marketImpact(order *models.Order, state *models.MarketState) decimal.Decimal {
	volume := state.Volume
	if !volume.IsPositive() {
		volume = decimal.NewFromInt(1)
	}

	ratio, _ := order.RemainingQuantity().Div(volume).Float64()

	return state.Mid.Mul(s.config.MarketImpactRate).Mul(decimal.NewFromFloat(math.Sqrt(ratio)))
}

func (s *Simulator) checkFeasibility(order *models.Order, price decimal.Decimal, commission models.Money, account AccountSnapshot) string {
	quantity := order.RemainingQuantity()

	if order.Side == models.OrderSideBuy {
		required := quantity.Mul(price).Add(commission.Amount)
		if account.Cash.LessThan(required) {
			return RejectReasonInsufficientFunds
		}
	} else {
		if account.Position == nil || account.Position.Side != models.PositionSideLong || account.Position.Quantity.LessThan(quantity) {
			return RejectReasonInsufficientFunds
		}
	}

	if s.config.MaxPositionSize != nil {
		resulting := quantity
		if account.Position != nil {
			resulting = account.Position.SignedQuantity().Add(signedQuantity(order)).Abs()
		}
		if resulting.GreaterThan(*s.config.MaxPositionSize) {
			return RejectReasonPositionSizeCap
		}
	}

	if s.config.MaxLeverage != nil && account.Equity.IsPositive() {
		exposure := signedQuantity(order)
		if account.Position != nil {
			exposure = exposure.Add(account.Position.SignedQuantity())
		}
		if exposure.Abs().Mul(price).GreaterThan(account.Equity.Mul(*s.config.MaxLeverage)) {
			return RejectReasonLeverageCap
		}
	}

	return ""
}

func signedQuantity(order *models.Order) decimal.Decimal {
	if order.Side == models.OrderSideSell {
		return order.RemainingQuantity().Neg()
	}

	return order.RemainingQuantity()
}
