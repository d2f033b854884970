package momentum

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/vadiminshakov/momentum/internal/domain"
)

var testStart = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

// observationsFromCloses builds 5m candles whose open is the previous close.
func observationsFromCloses(closes []float64) []domain.Observation {
	prices := make([]decimal.Decimal, len(closes))
	for i, c := range closes {
		prices[i] = decimal.NewFromFloat(c)
	}
	return observationsFromPrices(prices)
}

func observationsFromPrices(closes []decimal.Decimal) []domain.Observation {
	observations := make([]domain.Observation, len(closes))
	for i, closePrice := range closes {
		openPrice := closePrice
		if i > 0 {
			openPrice = closes[i-1]
		}
		openTime := testStart.Add(time.Duration(i) * 5 * time.Minute)
		observations[i] = domain.Observation{
			OpenTime:  openTime,
			Open:      openPrice,
			High:      decimal.Max(openPrice, closePrice),
			Low:       decimal.Min(openPrice, closePrice),
			Close:     closePrice,
			Volume:    decimal.NewFromInt(10),
			CloseTime: openTime.Add(5*time.Minute - time.Millisecond),
		}
	}
	return observations
}

// priceSteps is an exact decimal ramp for fractional prices such as 0.1 or a 0.01 tick.
func priceSteps(start, step string, n int) []decimal.Decimal {
	from, by := decimal.RequireFromString(start), decimal.RequireFromString(step)
	prices := make([]decimal.Decimal, n)
	for i := range prices {
		prices[i] = from.Add(by.Mul(decimal.NewFromInt(int64(i))))
	}
	return prices
}

func linearCloses(start, step float64, n int) []float64 {
	closes := make([]float64, n)
	for i := range closes {
		closes[i] = start + step*float64(i)
	}
	return closes
}

// sawtoothCloses drifts down: -3, +2, -3, ... and always ends on a drop when n is even.
func sawtoothCloses(n int) []float64 {
	closes := make([]float64, n)
	closes[0] = 100
	for i := 1; i < n; i++ {
		if i%2 == 1 {
			closes[i] = closes[i-1] - 3
		} else {
			closes[i] = closes[i-1] + 2
		}
	}
	return closes
}

func mustSeries(closes []float64) *domain.PriceSeries {
	series, err := domain.NewPriceSeries(observationsFromCloses(closes))
	if err != nil {
		panic(err)
	}
	return series
}

func mustPriceSeries(closes []decimal.Decimal) *domain.PriceSeries {
	series, err := domain.NewPriceSeries(observationsFromPrices(closes))
	if err != nil {
		panic(err)
	}
	return series
}

func d(v float64) decimal.Decimal {
	return decimal.NewFromFloat(v)
}
