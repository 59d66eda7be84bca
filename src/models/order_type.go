package models

type OrderType string

const (
	Market OrderType = "market"
	Limit  OrderType = "limit"
)

func (t OrderType) Validate() bool {
	return t == Market || t == Limit
}
