package models

import "fmt"

// Instrument is an opaque lookup key: a symbol on a venue. The engine never
// interprets either field.
type Instrument struct {
	Symbol string `json:"symbol"`
	Venue  string `json:"venue"`
}

func NewInstrument(symbol, venue string) Instrument {
	return Instrument{Symbol: symbol, Venue: venue}
}

func (i Instrument) Key() string {
	return fmt.Sprintf("%s.%s", i.Symbol, i.Venue)
}

func (i Instrument) String() string {
	return i.Key()
}
