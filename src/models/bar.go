package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Bar is one OHLCV record for an instrument over a fixed interval.
type Bar struct {
	Instrument Instrument      `json:"instrument"`
	Timestamp  time.Time       `json:"timestamp"`
	Open       decimal.Decimal `json:"open"`
	High       decimal.Decimal `json:"high"`
	Low        decimal.Decimal `json:"low"`
	Close      decimal.Decimal `json:"close"`
	Volume     decimal.Decimal `json:"volume"`
}

func (b *Bar) Validate() error {
	if !b.Open.IsPositive() || !b.High.IsPositive() || !b.Low.IsPositive() || !b.Close.IsPositive() {
		return fmt.Errorf("bar %s @ %s: prices must be positive", b.Instrument, b.Timestamp)
	}

	if b.High.LessThan(b.Low) {
		return fmt.Errorf("bar %s @ %s: high is below low", b.Instrument, b.Timestamp)
	}

	if b.Volume.IsNegative() {
		return fmt.Errorf("bar %s @ %s: volume cannot be negative", b.Instrument, b.Timestamp)
	}

	return nil
}
