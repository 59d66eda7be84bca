package models

import "errors"

var (
	ErrCurrencyMismatch         = errors.New("currency mismatch")
	ErrInvalidOrderQuantity     = errors.New("order quantity must be positive")
	ErrLimitPriceRequired       = errors.New("limit order requires a price")
	ErrInvalidFilledQuantity    = errors.New("filled quantity must be between zero and order quantity")
	ErrInvalidFillQuantity      = errors.New("fill quantity must be positive")
	ErrInvalidFillPrice         = errors.New("fill price must be positive")
	ErrInvalidBidAsk            = errors.New("bid price cannot exceed ask price")
	ErrInvalidPositionQuantity  = errors.New("position quantity must be positive for non-flat positions")
	ErrInvalidPositionAvgPrice  = errors.New("average price must be positive for non-flat positions")
	ErrInvalidDateRange         = errors.New("start date must be before end date")
	ErrInvalidInitialCapital    = errors.New("initial capital must be positive")
	ErrNegativeRate             = errors.New("rate cannot be negative")
	ErrNoMarketData             = errors.New("no market data available")
	ErrOrderNotCancellable      = errors.New("order is not in a cancellable state")
	ErrEmptyEquityCurve         = errors.New("no equity curve data available")
	ErrInvalidRemainingQuantity = errors.New("remaining quantity cannot be negative")
)
