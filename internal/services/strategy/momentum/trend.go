package momentum

import (
	"github.com/shopspring/decimal"
	"github.com/vadiminshakov/momentum/internal/domain"
)

// ClassifyTrend derives the EMA spread and its direction. Zero spread is the crossing point.
func ClassifyTrend(shortEMA, longEMA decimal.Decimal) domain.TrendState {
	delta := shortEMA.Sub(longEMA)

	direction := domain.TrendDirectionFlat
	switch delta.Sign() {
	case 1:
		direction = domain.TrendDirectionUp
	case -1:
		direction = domain.TrendDirectionDown
	}

	return domain.TrendState{Delta: delta, Direction: direction}
}
