package domain

import "github.com/shopspring/decimal"

// Side trading side of a decision.
type Side string

const (
	SideBuy     Side = "BUY"
	SideSell    Side = "SELL"
	SideNeutral Side = "NEUTRAL"
)

// String returns the string representation.
func (s Side) String() string {
	return string(s)
}

// Actionable reports whether the side asks for an order.
func (s Side) Actionable() bool {
	return s == SideBuy || s == SideSell
}

// Strength how decisive the matched rule was.
type Strength string

const (
	StrengthStrong Strength = "strong"
	StrengthWeak   Strength = "weak"
	StrengthNone   Strength = "none"
)

// Basis inputs the decision was derived from.
type Basis struct {
	Open       decimal.Decimal
	Close      decimal.Decimal
	TrendDelta decimal.Decimal
	RSI        decimal.Decimal
}

// Decision trading decision produced once per polling cycle.
type Decision struct {
	Side     Side
	Rule     int
	Strength Strength
	Basis    Basis
}
