package models

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ExecutionResult is the simulator's verdict on one pending order at one
// bar: either a single all-or-nothing fill with its cost breakdown, a
// rejection with a reason, or neither when a limit order stays pending.
type ExecutionResult struct {
	OrderID           uuid.UUID       `json:"order_id"`
	Executed          bool            `json:"executed"`
	Fill              *Fill           `json:"fill,omitempty"`
	RemainingQuantity decimal.Decimal `json:"remaining_quantity"`
	Slippage          decimal.Decimal `json:"slippage"`
	MarketImpact      decimal.Decimal `json:"market_impact"`
	Commission        Money           `json:"commission"`
	RejectReason      string          `json:"reject_reason,omitempty"`
}

func (r *ExecutionResult) Rejected() bool {
	return !r.Executed && r.RejectReason != ""
}

func (r *ExecutionResult) Validate() error {
	if r.RemainingQuantity.IsNegative() {
		return fmt.Errorf("execution result for order %s: %w", r.OrderID, ErrInvalidRemainingQuantity)
	}

	if r.Executed && r.Fill == nil {
		return fmt.Errorf("execution result for order %s: executed order must have a fill", r.OrderID)
	}

	if r.Slippage.IsNegative() {
		return fmt.Errorf("execution result for order %s: slippage cannot be negative", r.OrderID)
	}

	return nil
}
