package models

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func newTestOrder(t *testing.T, side OrderSide, orderType OrderType, quantity float64, limitPrice *float64) *Order {
	t.Helper()

	var price *decimal.Decimal
	if limitPrice != nil {
		p := decimal.NewFromFloat(*limitPrice)
		price = &p
	}

	instrument := NewInstrument("BTC-USD", "BINANCE")

	return NewOrder(uuid.New(), instrument, side, orderType, decimal.NewFromFloat(quantity), price, GTC, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), "USD")
}

func newTestFill(t *testing.T, order *Order, quantity, price float64) *Fill {
	t.Helper()

	return NewFill(order.ID, order.Instrument, order.Side, decimal.NewFromFloat(quantity), decimal.NewFromFloat(price), time.Date(2024, 1, 1, 1, 0, 0, 0, time.UTC), ZeroMoney("USD"), LiquidityTaker)
}

func TestOrderValidate(t *testing.T) {
	t.Run("valid market order", func(t *testing.T) {
		order := newTestOrder(t, OrderSideBuy, Market, 1.5, nil)
		require.NoError(t, order.Validate())
	})

	t.Run("non-positive quantity", func(t *testing.T) {
		order := newTestOrder(t, OrderSideBuy, Market, 0, nil)
		require.ErrorIs(t, order.Validate(), ErrInvalidOrderQuantity)
	})

	t.Run("limit order requires price", func(t *testing.T) {
		order := newTestOrder(t, OrderSideSell, Limit, 1, nil)
		require.ErrorIs(t, order.Validate(), ErrLimitPriceRequired)
	})

	t.Run("filled quantity out of range", func(t *testing.T) {
		order := newTestOrder(t, OrderSideBuy, Market, 1, nil)
		order.FilledQuantity = decimal.NewFromInt(2)
		require.ErrorIs(t, order.Validate(), ErrInvalidFilledQuantity)
	})
}

func TestOrderFillArithmetic(t *testing.T) {
	t.Run("remaining quantity tracks fills", func(t *testing.T) {
		order := newTestOrder(t, OrderSideBuy, Market, 10, nil)
		order.Status = OrderStatusSubmitted

		require.True(t, order.RemainingQuantity().Equal(decimal.NewFromInt(10)))
		require.False(t, order.IsComplete())

		require.NoError(t, order.ApplyFill(newTestFill(t, order, 4, 100)))
		require.True(t, order.RemainingQuantity().Equal(decimal.NewFromInt(6)))
		require.Equal(t, OrderStatusPartiallyFilled, order.Status)
		require.False(t, order.IsComplete())

		require.NoError(t, order.ApplyFill(newTestFill(t, order, 6, 110)))
		require.True(t, order.RemainingQuantity().IsZero())
		require.Equal(t, OrderStatusFilled, order.Status)
		require.True(t, order.IsComplete())
	})

	t.Run("average fill price is volume weighted", func(t *testing.T) {
		order := newTestOrder(t, OrderSideBuy, Market, 10, nil)
		order.Status = OrderStatusSubmitted

		require.NoError(t, order.ApplyFill(newTestFill(t, order, 4, 100)))
		require.NoError(t, order.ApplyFill(newTestFill(t, order, 6, 110)))

		// (4*100 + 6*110) / 10 = 106
		require.True(t, order.AvgFillPrice.Equal(decimal.NewFromInt(106)))
	})

	t.Run("fill exceeding remaining quantity fails", func(t *testing.T) {
		order := newTestOrder(t, OrderSideBuy, Market, 1, nil)
		order.Status = OrderStatusSubmitted

		err := order.ApplyFill(newTestFill(t, order, 2, 100))
		require.ErrorIs(t, err, ErrInvalidFilledQuantity)
	})

	t.Run("terminal order cannot be filled", func(t *testing.T) {
		order := newTestOrder(t, OrderSideBuy, Market, 1, nil)
		order.Status = OrderStatusCancelled

		require.Error(t, order.ApplyFill(newTestFill(t, order, 1, 100)))
	})
}

func TestOrderStateMachine(t *testing.T) {
	t.Run("cancel pending order", func(t *testing.T) {
		order := newTestOrder(t, OrderSideBuy, Market, 1, nil)
		require.NoError(t, order.Cancel())
		require.Equal(t, OrderStatusCancelled, order.Status)
	})

	t.Run("cancel submitted order", func(t *testing.T) {
		order := newTestOrder(t, OrderSideBuy, Market, 1, nil)
		order.Status = OrderStatusSubmitted
		require.NoError(t, order.Cancel())
	})

	t.Run("cancel terminal order fails", func(t *testing.T) {
		for _, status := range []OrderStatus{OrderStatusFilled, OrderStatusCancelled, OrderStatusRejected} {
			order := newTestOrder(t, OrderSideBuy, Market, 1, nil)
			order.Status = status
			require.ErrorIs(t, order.Cancel(), ErrOrderNotCancellable)
		}
	})

	t.Run("reject records reason", func(t *testing.T) {
		order := newTestOrder(t, OrderSideSell, Market, 1, nil)
		order.Reject("Insufficient funds or position")

		require.Equal(t, OrderStatusRejected, order.Status)
		require.NotNil(t, order.RejectReason)
		require.Equal(t, "Insufficient funds or position", *order.RejectReason)
	})

	t.Run("terminal statuses", func(t *testing.T) {
		require.True(t, OrderStatusFilled.IsTerminal())
		require.True(t, OrderStatusCancelled.IsTerminal())
		require.True(t, OrderStatusRejected.IsTerminal())
		require.False(t, OrderStatusPending.IsTerminal())
		require.False(t, OrderStatusSubmitted.IsTerminal())
		require.False(t, OrderStatusPartiallyFilled.IsTerminal())
	})
}
