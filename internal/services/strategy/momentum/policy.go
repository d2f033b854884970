package momentum

import (
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/vadiminshakov/momentum/internal/domain"
)

var (
	DefaultRSIOversold   = decimal.NewFromInt(30)
	DefaultRSIOverbought = decimal.NewFromInt(70)
)

// Policy maps candle direction, EMA spread and RSI to a trading side.
type Policy struct {
	oversold   decimal.Decimal
	overbought decimal.Decimal
}

// NewPolicy returns a policy with the given RSI thresholds.
func NewPolicy(oversold, overbought decimal.Decimal) (Policy, error) {
	if oversold.IsNegative() || overbought.GreaterThan(decimal.NewFromInt(100)) {
		return Policy{}, errors.Errorf("RSI thresholds must lie in [0, 100], got oversold=%s overbought=%s", oversold, overbought)
	}
	if !oversold.LessThan(overbought) {
		return Policy{}, errors.Errorf("oversold threshold %s must be below overbought threshold %s", oversold, overbought)
	}

	return Policy{oversold: oversold, overbought: overbought}, nil
}

// Decide evaluates the rules top to bottom and returns the first match.
//
//  1. BUY  if (close > open OR delta > 0) AND rsi < oversold
//  2. BUY  if rsi < oversold OR (close > open AND delta > 0)
//  3. SELL if (open > close OR delta < 0) AND rsi > overbought
//  4. SELL if rsi > overbought OR (open > close AND delta < 0)
//  5. NEUTRAL
//
// Rules 2 and 4 are weaker catches behind 1 and 3; the order decides boundary inputs and must not be folded.
// A steadily falling series drives RSI to 0, so it lands on rule 2 and yields BUY even though its
// candle and trend both point down: the oversold test in rule 2 is reached before the sell rules are.
func (p Policy) Decide(open, close, trendDelta, rsi decimal.Decimal) domain.Decision {
	rising := close.GreaterThan(open)
	falling := open.GreaterThan(close)
	up := trendDelta.IsPositive()
	down := trendDelta.IsNegative()
	oversold := rsi.LessThan(p.oversold)
	overbought := rsi.GreaterThan(p.overbought)

	decision := domain.Decision{
		Basis: domain.Basis{Open: open, Close: close, TrendDelta: trendDelta, RSI: rsi},
	}

	switch {
	case (rising || up) && oversold:
		decision.Side, decision.Rule, decision.Strength = domain.SideBuy, 1, domain.StrengthStrong
	case oversold || (rising && up):
		decision.Side, decision.Rule, decision.Strength = domain.SideBuy, 2, domain.StrengthWeak
	case (falling || down) && overbought:
		decision.Side, decision.Rule, decision.Strength = domain.SideSell, 3, domain.StrengthStrong
	case overbought || (falling && down):
		decision.Side, decision.Rule, decision.Strength = domain.SideSell, 4, domain.StrengthWeak
	default:
		decision.Side, decision.Rule, decision.Strength = domain.SideNeutral, 5, domain.StrengthNone
	}

	return decision
}
