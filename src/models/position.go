package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Position is the per-instrument inventory record. Quantity is always
// non-negative; direction lives in Side. Only the engine mutates it, and
// only through ApplyFill.
type Position struct {
	Instrument  Instrument      `json:"instrument"`
	Side        PositionSide    `json:"side"`
	Quantity    decimal.Decimal `json:"quantity"`
	AvgPrice    decimal.Decimal `json:"avg_price"`
	RealizedPNL Money           `json:"realized_pnl"`
	OpenedAt    time.Time       `json:"opened_at"`
}

func NewPosition(instrument Instrument, currency string) *Position {
	return &Position{
		Instrument:  instrument,
		Side:        PositionSideFlat,
		Quantity:    decimal.Zero,
		AvgPrice:    decimal.Zero,
		RealizedPNL: ZeroMoney(currency),
	}
}

// SignedQuantity is positive for long, negative for short, zero for flat.
func (p *Position) SignedQuantity() decimal.Decimal {
	if p.Side == PositionSideShort {
		return p.Quantity.Neg()
	}

	return p.Quantity
}

func (p *Position) MarketValue(currentPrice decimal.Decimal) decimal.Decimal {
	return p.SignedQuantity().Mul(currentPrice)
}

// UnrealizedPNL marks the open quantity against the current price.
func (p *Position) UnrealizedPNL(currentPrice decimal.Decimal) Money {
	if p.Side == PositionSideFlat {
		return ZeroMoney(p.RealizedPNL.Currency)
	}

	priceDiff := currentPrice.Sub(p.AvgPrice)
	if p.Side == PositionSideShort {
		priceDiff = priceDiff.Neg()
	}

	return NewMoney(p.Quantity.Mul(priceDiff), p.RealizedPNL.Currency)
}

// ApplyFill mutates the position for one fill: weighted-average on same-side
// additions, proportional reduction on opposite-side fills, and a side flip
// with a fresh average price when the fill exceeds the current exposure.
func (p *Position) ApplyFill(fill *Fill) error {
	if err := fill.Validate(); err != nil {
		return fmt.Errorf("position %s: %w", p.Instrument, err)
	}

	fillSide := PositionSideLong
	if fill.Side == OrderSideSell {
		fillSide = PositionSideShort
	}

	if p.Side == PositionSideFlat {
		p.Side = fillSide
		p.Quantity = fill.Quantity
		p.AvgPrice = fill.Price
		p.OpenedAt = fill.Timestamp
		return nil
	}

	if p.Side == fillSide {
		// same-side addition: volume-weighted average entry
		notional := p.AvgPrice.Mul(p.Quantity).Add(fill.Price.Mul(fill.Quantity))
		p.Quantity = p.Quantity.Add(fill.Quantity)
		p.AvgPrice = notional.Div(p.Quantity)
		return nil
	}

	// opposite side: reduce, and flip if the fill exceeds current exposure
	closeQuantity := decimal.Min(p.Quantity, fill.Quantity)

	priceDiff := fill.Price.Sub(p.AvgPrice)
	if p.Side == PositionSideShort {
		priceDiff = priceDiff.Neg()
	}
	p.RealizedPNL.Amount = p.RealizedPNL.Amount.Add(priceDiff.Mul(closeQuantity))

	excess := fill.Quantity.Sub(closeQuantity)
	if excess.IsPositive() {
		p.Side = fillSide
		p.Quantity = excess
		p.AvgPrice = fill.Price
		p.OpenedAt = fill.Timestamp
	} else {
		p.Quantity = p.Quantity.Sub(closeQuantity)
		if p.Quantity.IsZero() {
			p.Side = PositionSideFlat
			p.AvgPrice = decimal.Zero
		}
	}

	return nil
}

func (p *Position) Validate() error {
	if p.Side == PositionSideFlat {
		if !p.Quantity.IsZero() {
			return fmt.Errorf("position %s: flat position must have zero quantity", p.Instrument)
		}
		return nil
	}

	if !p.Quantity.IsPositive() {
		return fmt.Errorf("position %s: %w", p.Instrument, ErrInvalidPositionQuantity)
	}

	if !p.AvgPrice.IsPositive() {
		return fmt.Errorf("position %s: %w", p.Instrument, ErrInvalidPositionAvgPrice)
	}

	return nil
}

// Copy returns a snapshot safe to hand to strategies.
func (p *Position) Copy() *Position {
	cp := *p
	return &cp
}
