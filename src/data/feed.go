package data

import (
	"errors"
	"sort"

	"github.com/quantsim/backtester/src/models"
)

// ErrEndOfFeed signals a normally exhausted feed.
var ErrEndOfFeed = errors.New("end of feed")

// Feed is an ordered, finite, non-restartable sequence of bars.
type Feed interface {
	Next() (*models.Bar, error)
}

// ReadAll drains a feed to completion.
func ReadAll(feed Feed) ([]*models.Bar, error) {
	var bars []*models.Bar

	for {
		bar, err := feed.Next()
		if errors.Is(err, ErrEndOfFeed) {
			return bars, nil
		}
		if err != nil {
			return nil, err
		}

		bars = append(bars, bar)
	}
}

// InMemoryFeed replays a pre-loaded bar slice in timestamp order.
type InMemoryFeed struct {
	bars []*models.Bar
	idx  int
}

func NewInMemoryFeed(bars []*models.Bar) *InMemoryFeed {
	sorted := make([]*models.Bar, len(bars))
	copy(sorted, bars)

	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.Before(sorted[j].Timestamp)
	})

	return &InMemoryFeed{bars: sorted}
}

func (f *InMemoryFeed) Next() (*models.Bar, error) {
	if f.idx >= len(f.bars) {
		return nil, ErrEndOfFeed
	}

	bar := f.bars[f.idx]
	f.idx++

	return bar, nil
}
