package domain

import (
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// Observation single OHLCV candlestick.
type Observation struct {
	OpenTime  time.Time
	Open      decimal.Decimal
	High      decimal.Decimal
	Low       decimal.Decimal
	Close     decimal.Decimal
	Volume    decimal.Decimal
	CloseTime time.Time
}

// Validate checks the time and price invariants of a single candle.
func (o Observation) Validate() error {
	if !o.CloseTime.After(o.OpenTime) {
		return errors.Wrapf(ErrMalformedSeries, "close time %s is not after open time %s",
			o.CloseTime.Format(time.RFC3339), o.OpenTime.Format(time.RFC3339))
	}

	upper := decimal.Max(o.Open, o.Close)
	lower := decimal.Min(o.Open, o.Close)
	if o.High.LessThan(upper) {
		return errors.Wrapf(ErrMalformedSeries, "high %s is below max(open, close) %s", o.High, upper)
	}
	if o.Low.GreaterThan(lower) {
		return errors.Wrapf(ErrMalformedSeries, "low %s is above min(open, close) %s", o.Low, lower)
	}

	return nil
}

// PriceSeries immutable sequence of observations ordered by ascending close time.
type PriceSeries struct {
	observations []Observation
}

// NewPriceSeries validates the observations and returns a series holding its own copy of them.
func NewPriceSeries(observations []Observation) (*PriceSeries, error) {
	if len(observations) == 0 {
		return nil, errors.Wrap(ErrInsufficientData, "price series needs at least one observation")
	}

	for i, o := range observations {
		if err := o.Validate(); err != nil {
			return nil, errors.Wrapf(err, "observation %d", i)
		}
		if i > 0 && !o.CloseTime.After(observations[i-1].CloseTime) {
			return nil, errors.Wrapf(ErrMalformedSeries, "observation %d: close time %s does not follow %s",
				i, o.CloseTime.Format(time.RFC3339), observations[i-1].CloseTime.Format(time.RFC3339))
		}
	}

	owned := make([]Observation, len(observations))
	copy(owned, observations)

	return &PriceSeries{observations: owned}, nil
}

// Len returns the number of observations.
func (s *PriceSeries) Len() int {
	return len(s.observations)
}

// At returns the i-th observation.
func (s *PriceSeries) At(i int) Observation {
	return s.observations[i]
}

// Latest returns the most recent observation.
func (s *PriceSeries) Latest() Observation {
	return s.observations[len(s.observations)-1]
}

// Closes returns a fresh slice of close prices.
func (s *PriceSeries) Closes() []decimal.Decimal {
	closes := make([]decimal.Decimal, len(s.observations))
	for i, o := range s.observations {
		closes[i] = o.Close
	}
	return closes
}
