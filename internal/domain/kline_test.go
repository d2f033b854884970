package domain

import (
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var seriesStart = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func candle(i int, open, high, low, close int64) Observation {
	openTime := seriesStart.Add(time.Duration(i) * 5 * time.Minute)
	return Observation{
		OpenTime:  openTime,
		Open:      decimal.NewFromInt(open),
		High:      decimal.NewFromInt(high),
		Low:       decimal.NewFromInt(low),
		Close:     decimal.NewFromInt(close),
		Volume:    decimal.NewFromInt(1),
		CloseTime: openTime.Add(5*time.Minute - time.Millisecond),
	}
}

func TestNewPriceSeries(t *testing.T) {
	t.Run("valid series keeps order", func(t *testing.T) {
		series, err := NewPriceSeries([]Observation{
			candle(0, 10, 12, 9, 11),
			candle(1, 11, 13, 10, 12),
		})
		require.NoError(t, err)
		assert.Equal(t, 2, series.Len())
		assert.True(t, series.Latest().Close.Equal(decimal.NewFromInt(12)))
		assert.True(t, series.At(0).Open.Equal(decimal.NewFromInt(10)))
	})

	t.Run("empty series", func(t *testing.T) {
		_, err := NewPriceSeries(nil)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrInsufficientData))
	})

	tests := []struct {
		name         string
		observations []Observation
	}{
		{
			name:         "high below close",
			observations: []Observation{candle(0, 10, 11, 9, 12)},
		},
		{
			name:         "low above open",
			observations: []Observation{candle(0, 10, 12, 11, 12)},
		},
		{
			name:         "duplicate close time",
			observations: []Observation{candle(0, 10, 12, 9, 11), candle(0, 11, 13, 10, 12)},
		},
		{
			name:         "descending close time",
			observations: []Observation{candle(1, 10, 12, 9, 11), candle(0, 11, 13, 10, 12)},
		},
		{
			name: "close time not after open time",
			observations: []Observation{func() Observation {
				o := candle(0, 10, 12, 9, 11)
				o.CloseTime = o.OpenTime
				return o
			}()},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			series, err := NewPriceSeries(tt.observations)
			require.Error(t, err)
			assert.Nil(t, series)
			assert.True(t, errors.Is(err, ErrMalformedSeries), "unexpected error: %v", err)
		})
	}
}

func TestPriceSeries_IsDetachedFromInput(t *testing.T) {
	observations := []Observation{candle(0, 10, 12, 9, 11), candle(1, 11, 13, 10, 12)}
	series, err := NewPriceSeries(observations)
	require.NoError(t, err)

	observations[1].Close = decimal.NewFromInt(1000)
	closes := series.Closes()
	closes[0] = decimal.NewFromInt(-1)

	assert.True(t, series.Latest().Close.Equal(decimal.NewFromInt(12)))
	assert.True(t, series.At(0).Close.Equal(decimal.NewFromInt(11)))
}
