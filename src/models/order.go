package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Order is owned by the engine once submitted; strategies only ever see
// read-only copies.
type Order struct {
	ID             uuid.UUID        `json:"id"`
	Instrument     Instrument       `json:"instrument"`
	Side           OrderSide        `json:"side"`
	Type           OrderType        `json:"type"`
	Quantity       decimal.Decimal  `json:"quantity"`
	LimitPrice     *decimal.Decimal `json:"limit_price,omitempty"`
	TimeInForce    TimeInForce      `json:"time_in_force"`
	CreateDate     time.Time        `json:"create_date"`
	Status         OrderStatus      `json:"status"`
	FilledQuantity decimal.Decimal  `json:"filled_quantity"`
	AvgFillPrice   decimal.Decimal  `json:"avg_fill_price"`
	Commission     Money            `json:"commission"`
	RejectReason   *string          `json:"reject_reason,omitempty"`
}

func NewOrder(id uuid.UUID, instrument Instrument, side OrderSide, orderType OrderType, quantity decimal.Decimal, limitPrice *decimal.Decimal, tif TimeInForce, createDate time.Time, currency string) *Order {
	return &Order{
		ID:             id,
		Instrument:     instrument,
		Side:           side,
		Type:           orderType,
		Quantity:       quantity,
		LimitPrice:     limitPrice,
		TimeInForce:    tif,
		CreateDate:     createDate,
		Status:         OrderStatusPending,
		FilledQuantity: decimal.Zero,
		AvgFillPrice:   decimal.Zero,
		Commission:     ZeroMoney(currency),
	}
}

func (o *Order) RemainingQuantity() decimal.Decimal {
	return o.Quantity.Sub(o.FilledQuantity)
}

func (o *Order) IsComplete() bool {
	return o.FilledQuantity.GreaterThanOrEqual(o.Quantity)
}

func (o *Order) Cancel() error {
	if !o.Status.IsCancellable() {
		return fmt.Errorf("cannot cancel order %s in status %s: %w", o.ID, o.Status, ErrOrderNotCancellable)
	}

	o.Status = OrderStatusCancelled

	return nil
}

func (o *Order) Reject(reason string) {
	o.Status = OrderStatusRejected
	o.RejectReason = &reason
}

// ApplyFill records a fill against the order and advances the status
// machine. The fill must have passed its own validation first.
func (o *Order) ApplyFill(fill *Fill) error {
	if !o.Status.IsTradingAllowed() {
		return fmt.Errorf("order %s is not open for trading (status %s)", o.ID, o.Status)
	}

	if fill.Quantity.GreaterThan(o.RemainingQuantity()) {
		return fmt.Errorf("fill quantity %s exceeds remaining order quantity %s: %w", fill.Quantity, o.RemainingQuantity(), ErrInvalidFilledQuantity)
	}

	// volume-weighted average across fills
	notional := o.AvgFillPrice.Mul(o.FilledQuantity).Add(fill.Price.Mul(fill.Quantity))
	o.FilledQuantity = o.FilledQuantity.Add(fill.Quantity)
	o.AvgFillPrice = notional.Div(o.FilledQuantity)

	commission, err := o.Commission.Add(fill.Commission)
	if err != nil {
		return fmt.Errorf("accruing commission on order %s: %w", o.ID, err)
	}
	o.Commission = commission

	if o.IsComplete() {
		o.Status = OrderStatusFilled
	} else {
		o.Status = OrderStatusPartiallyFilled
	}

	return nil
}

func (o *Order) Validate() error {
	if !o.Side.Validate() {
		return fmt.Errorf("invalid order side %q", o.Side)
	}

	if !o.Type.Validate() {
		return fmt.Errorf("invalid order type %q", o.Type)
	}

	if !o.Quantity.IsPositive() {
		return fmt.Errorf("order %s: %w", o.ID, ErrInvalidOrderQuantity)
	}

	if o.Type == Limit {
		if o.LimitPrice == nil {
			return fmt.Errorf("order %s: %w", o.ID, ErrLimitPriceRequired)
		}

		if !o.LimitPrice.IsPositive() {
			return fmt.Errorf("order %s: limit price must be positive", o.ID)
		}
	}

	if o.FilledQuantity.IsNegative() || o.FilledQuantity.GreaterThan(o.Quantity) {
		return fmt.Errorf("order %s: %w", o.ID, ErrInvalidFilledQuantity)
	}

	return nil
}
