package models

// TimeInForce is carried on orders for reporting. The simulator fills
// all-or-nothing, so expiry semantics beyond GTC are not modeled.
type TimeInForce string

const (
	GTC TimeInForce = "gtc"
	Day TimeInForce = "day"
)
