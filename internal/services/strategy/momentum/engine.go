// Package momentum implements the EMA crossover / RSI momentum strategy.
package momentum

import (
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/vadiminshakov/momentum/internal/domain"
	"github.com/vadiminshakov/momentum/pkg/indicators"
)

const (
	DefaultShortPeriod = 12
	DefaultLongPeriod  = 26
	DefaultRSIPeriod   = 26
)

// Engine computes short EMA, long EMA and RSI for the latest observation of a series.
type Engine struct {
	shortPeriod int
	longPeriod  int
	rsiPeriod   int
}

// NewEngine returns an engine for the given periods.
func NewEngine(shortPeriod, longPeriod, rsiPeriod int) (*Engine, error) {
	if shortPeriod < 1 || longPeriod < 1 || rsiPeriod < 1 {
		return nil, errors.Errorf("periods must be positive, got short=%d long=%d rsi=%d", shortPeriod, longPeriod, rsiPeriod)
	}
	if shortPeriod >= longPeriod {
		return nil, errors.Errorf("short period %d must be less than long period %d", shortPeriod, longPeriod)
	}

	return &Engine{shortPeriod: shortPeriod, longPeriod: longPeriod, rsiPeriod: rsiPeriod}, nil
}

// MinObservations returns the shortest series the engine accepts.
func (e *Engine) MinObservations() int {
	return max(e.longPeriod, e.rsiPeriod+1)
}

// Compute returns the indicator values at the last observation of the series.
func (e *Engine) Compute(series *domain.PriceSeries) (domain.IndicatorResult, error) {
	if series == nil {
		return domain.IndicatorResult{}, errors.Wrap(domain.ErrInsufficientData, "no price series")
	}

	n := series.Len()
	if n < e.longPeriod {
		return domain.IndicatorResult{}, errors.Wrapf(domain.ErrInsufficientData,
			"long EMA(%d) needs %d observations, got %d", e.longPeriod, e.longPeriod, n)
	}
	if n < e.rsiPeriod+1 {
		return domain.IndicatorResult{}, errors.Wrapf(domain.ErrInsufficientData,
			"RSI(%d) needs %d observations, got %d", e.rsiPeriod, e.rsiPeriod+1, n)
	}

	closes := series.Closes()

	shortEMA, err := latest(indicators.CalculateEMA(closes, e.shortPeriod))
	if err != nil {
		return domain.IndicatorResult{}, errors.Wrap(err, "failed to calculate short EMA")
	}
	longEMA, err := latest(indicators.CalculateEMA(closes, e.longPeriod))
	if err != nil {
		return domain.IndicatorResult{}, errors.Wrap(err, "failed to calculate long EMA")
	}
	rsi, err := latest(indicators.CalculateRSI(closes, e.rsiPeriod))
	if err != nil {
		return domain.IndicatorResult{}, errors.Wrap(err, "failed to calculate RSI")
	}

	return domain.IndicatorResult{ShortEMA: shortEMA, LongEMA: longEMA, RSI: rsi}, nil
}

func latest(values []decimal.Decimal, err error) (decimal.Decimal, error) {
	if err != nil {
		return decimal.Zero, err
	}
	return indicators.Latest(values)
}
