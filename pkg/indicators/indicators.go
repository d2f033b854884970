// Package indicators provides the technical analysis indicators used by the momentum strategy (EMA, RSI).
package indicators

import (
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// emaScale bounds the fractional digits carried between EMA steps.
const emaScale = 18

var (
	one     = decimal.NewFromInt(1)
	two     = decimal.NewFromInt(2)
	hundred = decimal.NewFromInt(100)
	// neutralRSI is reported when the window shows no price movement at all.
	neutralRSI = decimal.NewFromInt(50)
)

// ErrNotEnoughData is returned when the input is shorter than the indicator warmup.
var ErrNotEnoughData = errors.New("not enough data points")

// CalculateEMA calculates the Exponential Moving Average for the given period.
// The first value is the SMA of the first period closes, so the result has len(closes)-period+1 values.
//
// Every later value is close*alpha + prev*(1-alpha) with alpha = 2/(period+1). The weights sum to exactly
// one, so a constant series yields that constant and every value stays within the range of the closes.
func CalculateEMA(closes []decimal.Decimal, period int) ([]decimal.Decimal, error) {
	if period < 1 {
		return nil, errors.Errorf("EMA period must be positive, got %d", period)
	}
	if len(closes) < period {
		return nil, errors.Wrapf(ErrNotEnoughData, "EMA(%d) needs %d closes, got %d", period, period, len(closes))
	}

	alpha := two.Div(decimal.NewFromInt(int64(period + 1)))
	keep := one.Sub(alpha)

	seed := decimal.Sum(closes[0], closes[1:period]...)
	ema := seed.Div(decimal.NewFromInt(int64(period))).Round(emaScale)

	result := make([]decimal.Decimal, 0, len(closes)-period+1)
	result = append(result, ema)

	for _, c := range closes[period:] {
		ema = c.Mul(alpha).Add(ema.Mul(keep)).Round(emaScale)
		result = append(result, ema)
	}

	return result, nil
}

// CalculateRSI calculates the Relative Strength Index for the given period using Wilder smoothing.
//
// The first average gain and loss are plain means over the first period changes, every later one is
// avg = (avg*(period-1) + x) / period. A window without losses yields 100, a window without any
// movement yields 50. The result has len(closes)-period values.
func CalculateRSI(closes []decimal.Decimal, period int) ([]decimal.Decimal, error) {
	if period < 1 {
		return nil, errors.Errorf("RSI period must be positive, got %d", period)
	}
	if len(closes) < period+1 {
		return nil, errors.Wrapf(ErrNotEnoughData, "RSI(%d) needs %d closes, got %d", period, period+1, len(closes))
	}

	p := decimal.NewFromInt(int64(period))
	pMinusOne := decimal.NewFromInt(int64(period - 1))

	avgGain, avgLoss := decimal.Zero, decimal.Zero
	for i := 1; i <= period; i++ {
		gain, loss := splitChange(closes[i].Sub(closes[i-1]))
		avgGain = avgGain.Add(gain)
		avgLoss = avgLoss.Add(loss)
	}
	avgGain = avgGain.Div(p)
	avgLoss = avgLoss.Div(p)

	result := make([]decimal.Decimal, 0, len(closes)-period)
	result = append(result, relativeStrength(avgGain, avgLoss))

	for i := period + 1; i < len(closes); i++ {
		gain, loss := splitChange(closes[i].Sub(closes[i-1]))
		avgGain = avgGain.Mul(pMinusOne).Add(gain).Div(p)
		avgLoss = avgLoss.Mul(pMinusOne).Add(loss).Div(p)
		result = append(result, relativeStrength(avgGain, avgLoss))
	}

	return result, nil
}

// Latest returns the last value of an indicator series.
func Latest(values []decimal.Decimal) (decimal.Decimal, error) {
	if len(values) == 0 {
		return decimal.Zero, errors.Wrap(ErrNotEnoughData, "indicator series is empty")
	}
	return values[len(values)-1], nil
}

func splitChange(change decimal.Decimal) (gain, loss decimal.Decimal) {
	if change.IsPositive() {
		return change, decimal.Zero
	}
	return decimal.Zero, change.Neg()
}

// relativeStrength maps average gain and loss to RSI = 100 - 100/(1+gain/loss).
func relativeStrength(avgGain, avgLoss decimal.Decimal) decimal.Decimal {
	switch {
	case avgLoss.IsZero() && avgGain.IsZero():
		return neutralRSI
	case avgLoss.IsZero():
		return hundred
	}

	rs := avgGain.Div(avgLoss)
	return hundred.Sub(hundred.Div(one.Add(rs)))
}
