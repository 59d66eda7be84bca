package data

import (
	"fmt"
	"os"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"github.com/quantsim/backtester/src/models"
)

type csvBarDTO struct {
	Timestamp string  `csv:"timestamp"`
	Open      float64 `csv:"open"`
	High      float64 `csv:"high"`
	Low       float64 `csv:"low"`
	Close     float64 `csv:"close"`
	Volume    float64 `csv:"volume"`
}

var csvTimestampLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func (dto *csvBarDTO) toBar(instrument models.Instrument) (*models.Bar, error) {
	var timestamp time.Time
	var err error

	for _, layout := range csvTimestampLayouts {
		timestamp, err = time.Parse(layout, dto.Timestamp)
		if err == nil {
			break
		}
	}

	if err != nil {
		return nil, fmt.Errorf("unable to parse timestamp %q: %w", dto.Timestamp, err)
	}

	bar := &models.Bar{
		Instrument: instrument,
		Timestamp:  timestamp.UTC(),
		Open:       decimal.NewFromFloat(dto.Open),
		High:       decimal.NewFromFloat(dto.High),
		Low:        decimal.NewFromFloat(dto.Low),
		Close:      decimal.NewFromFloat(dto.Close),
		Volume:     decimal.NewFromFloat(dto.Volume),
	}

	if err := bar.Validate(); err != nil {
		return nil, err
	}

	return bar, nil
}

// NewCSVFeed loads OHLCV bars for one instrument from a CSV file with
// columns timestamp,open,high,low,close,volume and returns them as a
// timestamp-ordered feed.
func NewCSVFeed(path string, instrument models.Instrument) (*InMemoryFeed, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	var dtos []*csvBarDTO
	if err := gocsv.UnmarshalFile(f, &dtos); err != nil {
		return nil, fmt.Errorf("failed to unmarshal %s: %w", path, err)
	}

	bars := make([]*models.Bar, 0, len(dtos))
	for _, dto := range dtos {
		bar, err := dto.toBar(instrument)
		if err != nil {
			return nil, fmt.Errorf("row %q: %w", dto.Timestamp, err)
		}

		bars = append(bars, bar)
	}

	log.Infof("loaded %d bars for %s from %s", len(bars), instrument, path)

	return NewInMemoryFeed(bars), nil
}
