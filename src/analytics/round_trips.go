package analytics

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/quantsim/backtester/src/models"
)

// MatchMethod selects how closing fills are matched against open lots.
type MatchMethod string

const (
	MatchFIFO MatchMethod = "fifo"
	MatchLIFO MatchMethod = "lifo"
)

// RoundTrip is one matched open/close pair: the unit of trade-level P&L
// attribution. A single closing fill can produce several round trips when
// it consumes several open lots.
type RoundTrip struct {
	Instrument models.Instrument
	Side       models.PositionSide
	Quantity   decimal.Decimal
	EntryPrice decimal.Decimal
	ExitPrice  decimal.Decimal
	OpenTime   time.Time
	CloseTime  time.Time
	PNL        decimal.Decimal
}

func (t *RoundTrip) Duration() time.Duration {
	return t.CloseTime.Sub(t.OpenTime)
}

type openLot struct {
	quantity decimal.Decimal
	price    decimal.Decimal
	openTime time.Time
}

// lotBook keeps the open lots for one instrument in fill order. Closing
// fills consume lots oldest-first (FIFO) or newest-first (LIFO); an
// opposite-side excess flips the book and opens a fresh lot.
type lotBook struct {
	side     models.PositionSide
	lots     []openLot
	matching MatchMethod
}

func newLotBook(matching MatchMethod) *lotBook {
	return &lotBook{side: models.PositionSideFlat, matching: matching}
}

func (b *lotBook) apply(fill *models.Fill) []RoundTrip {
	fillSide := models.PositionSideLong
	if fill.Side == models.OrderSideSell {
		fillSide = models.PositionSideShort
	}

	if b.side == models.PositionSideFlat || b.side == fillSide {
		b.side = fillSide
		b.lots = append(b.lots, openLot{quantity: fill.Quantity, price: fill.Price, openTime: fill.Timestamp})
		return nil
	}

	var trips []RoundTrip

	remaining := fill.Quantity
	for remaining.IsPositive() && len(b.lots) > 0 {
		idx := 0
		if b.matching == MatchLIFO {
			idx = len(b.lots) - 1
		}
		lot := &b.lots[idx]

		matched := decimal.Min(lot.quantity, remaining)

		pnl := fill.Price.Sub(lot.price).Mul(matched)
		if b.side == models.PositionSideShort {
			pnl = pnl.Neg()
		}

		trips = append(trips, RoundTrip{
			Instrument: fill.Instrument,
			Side:       b.side,
			Quantity:   matched,
			EntryPrice: lot.price,
			ExitPrice:  fill.Price,
			OpenTime:   lot.openTime,
			CloseTime:  fill.Timestamp,
			PNL:        pnl,
		})

		remaining = remaining.Sub(matched)
		lot.quantity = lot.quantity.Sub(matched)
		if lot.quantity.IsZero() {
			b.lots = append(b.lots[:idx], b.lots[idx+1:]...)
		}
	}

	if remaining.IsPositive() {
		// excess flips the book
		b.side = fillSide
		b.lots = append(b.lots, openLot{quantity: remaining, price: fill.Price, openTime: fill.Timestamp})
	} else if len(b.lots) == 0 {
		b.side = models.PositionSideFlat
	}

	return trips
}

// MatchRoundTrips pairs fills into completed round trips per instrument.
// Fills must be in timestamp order, which the engine's append-only log
// guarantees.
func MatchRoundTrips(fills []*models.Fill, matching MatchMethod) []RoundTrip {
	books := make(map[string]*lotBook)
	var trips []RoundTrip

	for _, fill := range fills {
		key := fill.Instrument.Key()
		book, ok := books[key]
		if !ok {
			book = newLotBook(matching)
			books[key] = book
		}

		trips = append(trips, book.apply(fill)...)
	}

	return trips
}
