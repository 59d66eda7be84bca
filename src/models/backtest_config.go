package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

const DefaultPeriodsPerYear = 252

// BacktestConfig is immutable once validated. These fields are the entire
// recognized configuration surface; the yaml loader rejects unknown keys.
type BacktestConfig struct {
	StartDate        time.Time
	EndDate          time.Time
	InitialCapital   Money
	CommissionRate   decimal.Decimal
	SlippageRate     decimal.Decimal
	MarketImpactRate decimal.Decimal
	// SpreadBps is the synthesized bid/ask spread around each bar's close,
	// in basis points.
	SpreadBps       decimal.Decimal
	MaxPositionSize *decimal.Decimal
	MaxLeverage     *decimal.Decimal
	RiskFreeRate    decimal.Decimal
	PeriodsPerYear  int
}

// NewBacktestConfig returns a config with the default cost model: 10 bps
// commission, 5 bps slippage, 1 bp market impact, 5 bps synthetic spread,
// 2% annual risk-free rate.
func NewBacktestConfig(startDate, endDate time.Time, initialCapital Money) *BacktestConfig {
	return &BacktestConfig{
		StartDate:        startDate,
		EndDate:          endDate,
		InitialCapital:   initialCapital,
		CommissionRate:   decimal.NewFromFloat(0.001),
		SlippageRate:     decimal.NewFromFloat(0.0005),
		MarketImpactRate: decimal.NewFromFloat(0.0001),
		SpreadBps:        decimal.NewFromInt(5),
		RiskFreeRate:     decimal.NewFromFloat(0.02),
		PeriodsPerYear:   DefaultPeriodsPerYear,
	}
}

func (c *BacktestConfig) Currency() string {
	return c.InitialCapital.Currency
}

func (c *BacktestConfig) Validate() error {
	if !c.StartDate.Before(c.EndDate) {
		return ErrInvalidDateRange
	}

	if !c.InitialCapital.IsPositive() {
		return ErrInvalidInitialCapital
	}

	for name, rate := range map[string]decimal.Decimal{
		"commission_rate":    c.CommissionRate,
		"slippage_rate":      c.SlippageRate,
		"market_impact_rate": c.MarketImpactRate,
		"spread_bps":         c.SpreadBps,
	} {
		if rate.IsNegative() {
			return fmt.Errorf("%s: %w", name, ErrNegativeRate)
		}
	}

	if c.MaxPositionSize != nil && !c.MaxPositionSize.IsPositive() {
		return fmt.Errorf("max_position_size must be positive")
	}

	if c.MaxLeverage != nil && !c.MaxLeverage.IsPositive() {
		return fmt.Errorf("max_leverage must be positive")
	}

	if c.PeriodsPerYear <= 0 {
		return fmt.Errorf("periods_per_year must be positive")
	}

	return nil
}
