package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type EquityPoint struct {
	Timestamp time.Time       `json:"timestamp"`
	Equity    decimal.Decimal `json:"equity"`
}

// TradeStats aggregates completed round trips.
type TradeStats struct {
	TotalTrades      int             `json:"total_trades"`
	WinningTrades    int             `json:"winning_trades"`
	LosingTrades     int             `json:"losing_trades"`
	WinRate          decimal.Decimal `json:"win_rate"`
	ProfitFactor     decimal.Decimal `json:"profit_factor"`
	AvgTradeDuration time.Duration   `json:"avg_trade_duration"`
	AvgWinningTrade  Money           `json:"avg_winning_trade"`
	AvgLosingTrade   Money           `json:"avg_losing_trade"`
	LargestWin       Money           `json:"largest_win"`
	LargestLoss      Money           `json:"largest_loss"`
	TotalCommission  Money           `json:"total_commission"`
	TotalSlippage    Money           `json:"total_slippage"`
}

// BacktestResults is the immutable report for one completed run.
type BacktestResults struct {
	StrategyID          string           `json:"strategy_id"`
	Config              *BacktestConfig  `json:"-"`
	StartDate           time.Time        `json:"start_date"`
	EndDate             time.Time        `json:"end_date"`
	InitialCapital      Money            `json:"initial_capital"`
	FinalCapital        Money            `json:"final_capital"`
	TotalReturn         decimal.Decimal  `json:"total_return"`
	AnnualizedReturn    decimal.Decimal  `json:"annualized_return"`
	Volatility          decimal.Decimal  `json:"volatility"`
	SharpeRatio         decimal.Decimal  `json:"sharpe_ratio"`
	SortinoRatio        decimal.Decimal  `json:"sortino_ratio"`
	MaxDrawdown         decimal.Decimal  `json:"max_drawdown"`
	MaxDrawdownDuration time.Duration    `json:"max_drawdown_duration"`
	MaxDrawdownPeriods  int              `json:"max_drawdown_periods"`
	CalmarRatio         decimal.Decimal  `json:"calmar_ratio"`
	TradeStats          TradeStats       `json:"trade_stats"`
	Positions           []*Position      `json:"positions"`
	Fills               []*Fill          `json:"fills"`
	EquityCurve         []EquityPoint    `json:"equity_curve"`
}

func (r *BacktestResults) TotalPNL() (Money, error) {
	return r.FinalCapital.Sub(r.InitialCapital)
}

func (r *BacktestResults) ReturnPercentage() decimal.Decimal {
	return r.TotalReturn.Sub(decimal.NewFromInt(1)).Mul(decimal.NewFromInt(100))
}

func (r *BacktestResults) Validate() error {
	if !r.StartDate.Before(r.EndDate) {
		return ErrInvalidDateRange
	}

	if r.TradeStats.TotalTrades < 0 {
		return fmt.Errorf("total trades cannot be negative")
	}

	if r.TradeStats.WinningTrades+r.TradeStats.LosingTrades > r.TradeStats.TotalTrades {
		return fmt.Errorf("winning + losing trades cannot exceed total trades")
	}

	one := decimal.NewFromInt(1)
	if r.TradeStats.WinRate.IsNegative() || r.TradeStats.WinRate.GreaterThan(one) {
		return fmt.Errorf("win rate must be between 0 and 1")
	}

	if r.MaxDrawdown.IsNegative() {
		return fmt.Errorf("max drawdown must be non-negative")
	}

	return nil
}

// ToMap flattens the report into a plain key-value structure for reporting
// collaborators. Numeric values are rendered as strings to avoid float
// round-tripping.
func (r *BacktestResults) ToMap() map[string]interface{} {
	return map[string]interface{}{
		"strategy_id":                r.StrategyID,
		"start_date":                 r.StartDate.Format(time.RFC3339),
		"end_date":                   r.EndDate.Format(time.RFC3339),
		"initial_capital":            r.InitialCapital.Amount.String(),
		"final_capital":              r.FinalCapital.Amount.String(),
		"currency":                   r.InitialCapital.Currency,
		"total_return":               r.TotalReturn.String(),
		"return_percentage":          r.ReturnPercentage().String(),
		"annualized_return":          r.AnnualizedReturn.String(),
		"volatility":                 r.Volatility.String(),
		"sharpe_ratio":               r.SharpeRatio.String(),
		"sortino_ratio":              r.SortinoRatio.String(),
		"max_drawdown":               r.MaxDrawdown.String(),
		"max_drawdown_duration_days": int(r.MaxDrawdownDuration.Hours() / 24),
		"max_drawdown_periods":       r.MaxDrawdownPeriods,
		"calmar_ratio":               r.CalmarRatio.String(),
		"win_rate":                   r.TradeStats.WinRate.String(),
		"profit_factor":              r.TradeStats.ProfitFactor.String(),
		"total_trades":               r.TradeStats.TotalTrades,
		"winning_trades":             r.TradeStats.WinningTrades,
		"losing_trades":              r.TradeStats.LosingTrades,
		"avg_trade_duration_hours":   r.TradeStats.AvgTradeDuration.Hours(),
		"avg_winning_trade":          r.TradeStats.AvgWinningTrade.Amount.String(),
		"avg_losing_trade":           r.TradeStats.AvgLosingTrade.Amount.String(),
		"largest_win":                r.TradeStats.LargestWin.Amount.String(),
		"largest_loss":               r.TradeStats.LargestLoss.Amount.String(),
		"total_commission":           r.TradeStats.TotalCommission.Amount.String(),
		"total_slippage":             r.TradeStats.TotalSlippage.Amount.String(),
	}
}
