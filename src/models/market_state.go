package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// MarketState is the per-instrument quote snapshot for the current bar.
// The engine replaces it wholesale every bar.
type MarketState struct {
	Timestamp  time.Time       `json:"timestamp"`
	Instrument Instrument      `json:"instrument"`
	Bid        decimal.Decimal `json:"bid"`
	Ask        decimal.Decimal `json:"ask"`
	Mid        decimal.Decimal `json:"mid"`
	Volume     decimal.Decimal `json:"volume"`
}

func (m *MarketState) Spread() decimal.Decimal {
	return m.Ask.Sub(m.Bid)
}

func (m *MarketState) SpreadBps() decimal.Decimal {
	return m.Spread().Div(m.Mid).Mul(decimal.NewFromInt(10000))
}

func (m *MarketState) Validate() error {
	if !m.Bid.IsPositive() {
		return fmt.Errorf("market state %s: bid price must be positive", m.Instrument)
	}

	if !m.Ask.IsPositive() {
		return fmt.Errorf("market state %s: ask price must be positive", m.Instrument)
	}

	// zero-spread synthetic quotes are allowed; crossed quotes are not
	if m.Bid.GreaterThan(m.Ask) {
		return fmt.Errorf("market state %s: %w", m.Instrument, ErrInvalidBidAsk)
	}

	if m.Volume.IsNegative() {
		return fmt.Errorf("market state %s: volume cannot be negative", m.Instrument)
	}

	return nil
}
