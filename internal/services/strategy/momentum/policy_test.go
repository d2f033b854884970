package momentum

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vadiminshakov/momentum/internal/domain"
)

func TestNewPolicy(t *testing.T) {
	_, err := NewPolicy(d(70), d(30))
	assert.Error(t, err)
	_, err = NewPolicy(d(50), d(50))
	assert.Error(t, err)
	_, err = NewPolicy(d(-1), d(70))
	assert.Error(t, err)
	_, err = NewPolicy(d(30), d(101))
	assert.Error(t, err)

	_, err = NewPolicy(d(0), d(100))
	assert.NoError(t, err)
}

func TestPolicy_Decide(t *testing.T) {
	policy := defaultPolicy(t)

	tests := []struct {
		name     string
		open     float64
		close    float64
		delta    float64
		rsi      float64
		side     domain.Side
		rule     int
		strength domain.Strength
	}{
		{name: "oversold with rising candle", open: 10, close: 11, delta: -1, rsi: 20, side: domain.SideBuy, rule: 1, strength: domain.StrengthStrong},
		{name: "oversold with up trend", open: 11, close: 10, delta: 1, rsi: 20, side: domain.SideBuy, rule: 1, strength: domain.StrengthStrong},
		{name: "oversold against falling market", open: 11, close: 10, delta: -1, rsi: 20, side: domain.SideBuy, rule: 2, strength: domain.StrengthWeak},
		{name: "rising candle and up trend", open: 10, close: 11, delta: 1, rsi: 50, side: domain.SideBuy, rule: 2, strength: domain.StrengthWeak},
		{name: "up move wins over overbought", open: 10, close: 11, delta: 1, rsi: 85, side: domain.SideBuy, rule: 2, strength: domain.StrengthWeak},
		{name: "overbought with falling candle", open: 11, close: 10, delta: 1, rsi: 80, side: domain.SideSell, rule: 3, strength: domain.StrengthStrong},
		{name: "overbought with down trend", open: 10, close: 11, delta: -1, rsi: 80, side: domain.SideSell, rule: 3, strength: domain.StrengthStrong},
		{name: "overbought flat market", open: 10, close: 10, delta: 0, rsi: 70.01, side: domain.SideSell, rule: 4, strength: domain.StrengthWeak},
		{name: "falling candle and down trend", open: 11, close: 10, delta: -1, rsi: 50, side: domain.SideSell, rule: 4, strength: domain.StrengthWeak},
		{name: "oversold flat market", open: 10, close: 10, delta: 0, rsi: 29.99, side: domain.SideBuy, rule: 2, strength: domain.StrengthWeak},
		{name: "mixed signals", open: 10, close: 11, delta: -1, rsi: 50, side: domain.SideNeutral, rule: 5, strength: domain.StrengthNone},
		{name: "flat everything", open: 10, close: 10, delta: 0, rsi: 50, side: domain.SideNeutral, rule: 5, strength: domain.StrengthNone},
		{name: "rsi at oversold bound", open: 10, close: 10, delta: 0, rsi: 30, side: domain.SideNeutral, rule: 5, strength: domain.StrengthNone},
		{name: "rsi at overbought bound", open: 10, close: 10, delta: 0, rsi: 70, side: domain.SideNeutral, rule: 5, strength: domain.StrengthNone},
		{name: "rsi at oversold bound with rising candle", open: 10, close: 11, delta: 0, rsi: 30, side: domain.SideNeutral, rule: 5, strength: domain.StrengthNone},
		{name: "rsi at overbought bound with falling candle", open: 11, close: 10, delta: 0, rsi: 70, side: domain.SideNeutral, rule: 5, strength: domain.StrengthNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			decision := policy.Decide(d(tt.open), d(tt.close), d(tt.delta), d(tt.rsi))
			assert.Equal(t, tt.side, decision.Side)
			assert.Equal(t, tt.rule, decision.Rule)
			assert.Equal(t, tt.strength, decision.Strength)
			assert.True(t, decision.Basis.RSI.Equal(d(tt.rsi)))
			assert.True(t, decision.Basis.TrendDelta.Equal(d(tt.delta)))
		})
	}
}

func TestPolicy_TotalAndDeterministic(t *testing.T) {
	policy := defaultPolicy(t)
	prices := []float64{9, 10, 11}
	deltas := []float64{-0.5, 0, 0.5}
	rsis := []float64{0, 29.999, 30, 50, 70, 70.001, 100}

	expectedSide := map[int]domain.Side{
		1: domain.SideBuy, 2: domain.SideBuy, 3: domain.SideSell, 4: domain.SideSell, 5: domain.SideNeutral,
	}

	for _, open := range prices {
		for _, close := range prices {
			for _, delta := range deltas {
				for _, rsi := range rsis {
					first := policy.Decide(d(open), d(close), d(delta), d(rsi))
					second := policy.Decide(d(open), d(close), d(delta), d(rsi))

					require.Equal(t, first, second)
					require.Contains(t, []domain.Side{domain.SideBuy, domain.SideSell, domain.SideNeutral}, first.Side)
					require.Equal(t, expectedSide[first.Rule], first.Side)

					if decimal.NewFromFloat(rsi).Equal(DefaultRSIOversold) && first.Side == domain.SideBuy {
						require.True(t, close > open && delta > 0, "oversold bound must not buy on rsi alone")
					}
					if decimal.NewFromFloat(rsi).Equal(DefaultRSIOverbought) && first.Side == domain.SideSell {
						require.True(t, open > close && delta < 0, "overbought bound must not sell on rsi alone")
					}
				}
			}
		}
	}
}
