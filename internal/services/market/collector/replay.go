package collector

import (
	"context"
	"os"
	"sync"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/vadiminshakov/momentum/internal/domain"
)

// ReplayKlineProvider serves recorded klines as a window that slides forward one candle per fetch.
type ReplayKlineProvider struct {
	mu       sync.Mutex
	candles  []domain.Observation
	end      int
	lastSeen *domain.Observation
}

// NewReplayKlineProvider loads raw kline rows from a JSON file.
func NewReplayKlineProvider(path string, columns []string) (*ReplayKlineProvider, error) {
	payload, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read replay file")
	}

	if len(columns) == 0 {
		columns = DefaultColumns
	}

	candles, err := DecodeKlineRows(payload, columns)
	if err != nil {
		return nil, errors.Wrapf(err, "decode replay file %s", path)
	}
	if len(candles) == 0 {
		return nil, errors.Errorf("replay file %s has no klines", path)
	}

	return NewReplayKlineProviderFromObservations(candles), nil
}

// NewReplayKlineProviderFromObservations replays already decoded candles.
func NewReplayKlineProviderFromObservations(candles []domain.Observation) *ReplayKlineProvider {
	owned := make([]domain.Observation, len(candles))
	copy(owned, candles)
	return &ReplayKlineProvider{candles: owned}
}

// GetKlines returns up to limit candles ending at the replay cursor and advances it.
func (p *ReplayKlineProvider) GetKlines(_ context.Context, _ domain.Pair, _ string, limit int) ([]domain.Observation, error) {
	if limit < 1 {
		return nil, errors.Errorf("limit must be positive, got %d", limit)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.end == 0 {
		p.end = min(limit, len(p.candles))
	} else {
		p.end++
	}
	if p.end > len(p.candles) {
		return nil, errors.Wrapf(domain.ErrFeedExhausted, "replayed all %d klines", len(p.candles))
	}

	start := max(0, p.end-limit)
	window := make([]domain.Observation, p.end-start)
	copy(window, p.candles[start:p.end])

	last := window[len(window)-1]
	p.lastSeen = &last

	return window, nil
}

// GetPrice returns the close of the most recently served candle.
func (p *ReplayKlineProvider) GetPrice(_ context.Context, _ domain.Pair) (decimal.Decimal, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.lastSeen == nil {
		return decimal.Zero, errors.New("replay has not served any klines yet")
	}
	return p.lastSeen.Close, nil
}
