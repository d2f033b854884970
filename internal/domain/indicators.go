package domain

import "github.com/shopspring/decimal"

// IndicatorResult indicator values for the latest observation of a series.
type IndicatorResult struct {
	ShortEMA decimal.Decimal
	LongEMA  decimal.Decimal
	RSI      decimal.Decimal
}

// TrendDirection sign of the short/long EMA spread.
type TrendDirection string

const (
	TrendDirectionUp   TrendDirection = "up"
	TrendDirectionDown TrendDirection = "down"
	// TrendDirectionFlat both EMAs are equal, i.e. the crossing point.
	TrendDirectionFlat TrendDirection = "flat"
)

// TrendState short EMA minus long EMA and its direction.
type TrendState struct {
	Delta     decimal.Decimal
	Direction TrendDirection
}
