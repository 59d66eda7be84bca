package models

type LiquiditySide string

const (
	LiquidityTaker LiquiditySide = "taker"
	LiquidityMaker LiquiditySide = "maker"
)

func (s LiquiditySide) Validate() bool {
	return s == LiquidityTaker || s == LiquidityMaker
}
