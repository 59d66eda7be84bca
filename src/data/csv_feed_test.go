package data

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/quantsim/backtester/src/models"
)

func writeTempCSV(t *testing.T, contents string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "bars.csv")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0644))

	return path
}

func TestNewCSVFeed(t *testing.T) {
	instrument := models.NewInstrument("BTC-USD", "BINANCE")

	t.Run("parses and orders bars", func(t *testing.T) {
		// rows deliberately out of order
		path := writeTempCSV(t, `timestamp,open,high,low,close,volume
2024-01-02,101,106,100,105,2000
2024-01-01,100,105,99,104,1500
`)

		feed, err := NewCSVFeed(path, instrument)
		require.NoError(t, err)

		bars, err := ReadAll(feed)
		require.NoError(t, err)
		require.Len(t, bars, 2)

		require.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), bars[0].Timestamp)
		require.Equal(t, time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), bars[1].Timestamp)
		require.True(t, bars[0].Close.Equal(decimal.NewFromInt(104)))
		require.Equal(t, instrument, bars[0].Instrument)
	})

	t.Run("accepts datetime and rfc3339 timestamps", func(t *testing.T) {
		path := writeTempCSV(t, `timestamp,open,high,low,close,volume
2024-01-01 09:30:00,100,105,99,104,1500
2024-01-01T10:30:00Z,104,108,103,107,1200
`)

		feed, err := NewCSVFeed(path, instrument)
		require.NoError(t, err)

		bars, err := ReadAll(feed)
		require.NoError(t, err)
		require.Len(t, bars, 2)
		require.Equal(t, time.Date(2024, 1, 1, 9, 30, 0, 0, time.UTC), bars[0].Timestamp)
	})

	t.Run("rejects malformed timestamps", func(t *testing.T) {
		path := writeTempCSV(t, `timestamp,open,high,low,close,volume
01/02/2024,100,105,99,104,1500
`)

		_, err := NewCSVFeed(path, instrument)
		require.Error(t, err)
	})

	t.Run("rejects invalid bars", func(t *testing.T) {
		// high below low
		path := writeTempCSV(t, `timestamp,open,high,low,close,volume
2024-01-01,100,90,99,104,1500
`)

		_, err := NewCSVFeed(path, instrument)
		require.Error(t, err)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := NewCSVFeed(filepath.Join(t.TempDir(), "absent.csv"), instrument)
		require.Error(t, err)
	})
}

func TestInMemoryFeed(t *testing.T) {
	instrument := models.NewInstrument("BTC-USD", "BINANCE")

	bar := func(day int) *models.Bar {
		price := decimal.NewFromInt(100)
		return &models.Bar{
			Instrument: instrument,
			Timestamp:  time.Date(2024, 1, day, 0, 0, 0, 0, time.UTC),
			Open:       price,
			High:       price,
			Low:        price,
			Close:      price,
			Volume:     decimal.NewFromInt(10),
		}
	}

	t.Run("replays in timestamp order", func(t *testing.T) {
		feed := NewInMemoryFeed([]*models.Bar{bar(3), bar(1), bar(2)})

		bars, err := ReadAll(feed)
		require.NoError(t, err)
		require.Len(t, bars, 3)
		require.True(t, bars[0].Timestamp.Before(bars[1].Timestamp))
		require.True(t, bars[1].Timestamp.Before(bars[2].Timestamp))
	})

	t.Run("exhausted feed reports end", func(t *testing.T) {
		feed := NewInMemoryFeed(nil)

		_, err := feed.Next()
		require.ErrorIs(t, err, ErrEndOfFeed)
	})
}
