package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// DecisionEvent journaled record of one cycle's decision.
type DecisionEvent struct {
	Timestamp      time.Time       `json:"ts"`
	CandleClosedAt time.Time       `json:"candle_closed_at"`
	Pair           string          `json:"pair"`
	Side           Side            `json:"side"`
	Rule           int             `json:"rule"`
	Strength       Strength        `json:"strength"`
	Open           decimal.Decimal `json:"open"`
	Close          decimal.Decimal `json:"close"`
	ShortEMA       decimal.Decimal `json:"short_ema"`
	LongEMA        decimal.Decimal `json:"long_ema"`
	TrendDelta     decimal.Decimal `json:"trend_delta"`
	RSI            decimal.Decimal `json:"rsi"`
	ClientOrderID  string          `json:"client_order_id,omitempty"`
}

// DecisionEventRecord bundles a decision event with its journal index.
type DecisionEventRecord struct {
	Index uint64
	Event DecisionEvent
}
