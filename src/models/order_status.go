package models

type OrderStatus string

const (
	OrderStatusPending         OrderStatus = "pending"
	OrderStatusSubmitted       OrderStatus = "submitted"
	OrderStatusPartiallyFilled OrderStatus = "partially_filled"
	OrderStatusFilled          OrderStatus = "filled"
	OrderStatusCancelled       OrderStatus = "cancelled"
	OrderStatusRejected        OrderStatus = "rejected"
)

// IsTradingAllowed reports whether the order may still receive fills.
func (status OrderStatus) IsTradingAllowed() bool {
	return status == OrderStatusPending || status == OrderStatusSubmitted || status == OrderStatusPartiallyFilled
}

// IsCancellable reports whether a cancel request is accepted. Only orders
// that have not yet traded to completion or terminated can be cancelled.
func (status OrderStatus) IsCancellable() bool {
	return status == OrderStatusPending || status == OrderStatusSubmitted
}

func (status OrderStatus) IsTerminal() bool {
	return status == OrderStatusFilled || status == OrderStatusCancelled || status == OrderStatusRejected
}

func (status OrderStatus) IsFilled() bool {
	return status == OrderStatusFilled || status == OrderStatusPartiallyFilled
}
