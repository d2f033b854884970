// Package collector fetches candlestick data and turns it into domain observations.
package collector

import (
	"context"
	"time"

	"github.com/adshao/go-binance/v2"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/vadiminshakov/momentum/internal/domain"
)

// BinanceKlineProvider fetches klines from the Binance REST API.
type BinanceKlineProvider struct {
	client *binance.Client
}

// NewBinanceKlineProvider creates a new Binance kline provider.
func NewBinanceKlineProvider(client *binance.Client) *BinanceKlineProvider {
	return &BinanceKlineProvider{client: client}
}

// GetKlines fetches the latest limit klines of the given interval.
// Quote volume, trade count and taker volumes are dropped.
func (p *BinanceKlineProvider) GetKlines(ctx context.Context, pair domain.Pair, interval string, limit int) ([]domain.Observation, error) {
	klines, err := p.client.NewKlinesService().
		Symbol(pair.Symbol()).
		Interval(interval).
		Limit(limit).
		Do(ctx)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to fetch klines from Binance for %s", pair.String())
	}

	result := make([]domain.Observation, len(klines))
	for i, k := range klines {
		open, err := decimal.NewFromString(k.Open)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to parse open price at index %d", i)
		}
		high, err := decimal.NewFromString(k.High)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to parse high price at index %d", i)
		}
		low, err := decimal.NewFromString(k.Low)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to parse low price at index %d", i)
		}
		close, err := decimal.NewFromString(k.Close)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to parse close price at index %d", i)
		}
		volume, err := decimal.NewFromString(k.Volume)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to parse volume at index %d", i)
		}

		result[i] = domain.Observation{
			OpenTime:  millisToTime(k.OpenTime),
			Open:      open,
			High:      high,
			Low:       low,
			Close:     close,
			Volume:    volume,
			CloseTime: millisToTime(k.CloseTime),
		}
	}

	return result, nil
}

// AssetInfo base and quote assets of a listed symbol.
type AssetInfo struct {
	Symbol     string
	BaseAsset  string
	QuoteAsset string
	Status     string
}

// ResolvePair looks the pair up in Binance exchange info.
func ResolvePair(ctx context.Context, client *binance.Client, pair domain.Pair) (AssetInfo, error) {
	info, err := client.NewExchangeInfoService().Symbol(pair.Symbol()).Do(ctx)
	if err != nil {
		return AssetInfo{}, errors.Wrapf(err, "failed to fetch exchange info for %s", pair.String())
	}

	for _, s := range info.Symbols {
		if s.Symbol == pair.Symbol() {
			return AssetInfo{Symbol: s.Symbol, BaseAsset: s.BaseAsset, QuoteAsset: s.QuoteAsset, Status: s.Status}, nil
		}
	}

	return AssetInfo{}, errors.Errorf("symbol %s is not listed on Binance", pair.Symbol())
}

func millisToTime(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}
