package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Fill is immutable once created and lives in the engine's append-only log.
type Fill struct {
	ID            uuid.UUID       `json:"id"`
	OrderID       uuid.UUID       `json:"order_id"`
	Instrument    Instrument      `json:"instrument"`
	Side          OrderSide       `json:"side"`
	Quantity      decimal.Decimal `json:"quantity"`
	Price         decimal.Decimal `json:"price"`
	Timestamp     time.Time       `json:"timestamp"`
	Commission    Money           `json:"commission"`
	LiquiditySide LiquiditySide   `json:"liquidity_side"`
}

func NewFill(orderID uuid.UUID, instrument Instrument, side OrderSide, quantity, price decimal.Decimal, timestamp time.Time, commission Money, liquiditySide LiquiditySide) *Fill {
	return &Fill{
		ID:            uuid.New(),
		OrderID:       orderID,
		Instrument:    instrument,
		Side:          side,
		Quantity:      quantity,
		Price:         price,
		Timestamp:     timestamp,
		Commission:    commission,
		LiquiditySide: liquiditySide,
	}
}

// SignedQuantity is positive for buys and negative for sells.
func (f *Fill) SignedQuantity() decimal.Decimal {
	if f.Side == OrderSideSell {
		return f.Quantity.Neg()
	}

	return f.Quantity
}

func (f *Fill) Notional() decimal.Decimal {
	return f.Quantity.Mul(f.Price)
}

func (f *Fill) Validate() error {
	if !f.Quantity.IsPositive() {
		return fmt.Errorf("fill %s: %w", f.ID, ErrInvalidFillQuantity)
	}

	if !f.Price.IsPositive() {
		return fmt.Errorf("fill %s: %w", f.ID, ErrInvalidFillPrice)
	}

	if !f.Side.Validate() {
		return fmt.Errorf("fill %s: invalid side %q", f.ID, f.Side)
	}

	if !f.LiquiditySide.Validate() {
		return fmt.Errorf("fill %s: invalid liquidity side %q", f.ID, f.LiquiditySide)
	}

	return nil
}
