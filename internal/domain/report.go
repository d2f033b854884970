package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ReportRecord one row of the trading report.
type ReportRecord struct {
	Date     time.Time
	Symbol   string
	ShortEMA decimal.Decimal
	LongEMA  decimal.Decimal
	RSI      decimal.Decimal
	Side     Side
}
