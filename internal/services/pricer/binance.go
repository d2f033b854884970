// Package pricer resolves the current market price of a pair.
package pricer

import (
	"context"

	"github.com/adshao/go-binance/v2"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/vadiminshakov/momentum/internal/domain"
)

// BinancePricer reads last trade prices from the Binance public API, no credentials needed.
type BinancePricer struct {
	client *binance.Client
}

func NewBinancePricer(client *binance.Client) *BinancePricer {
	return &BinancePricer{client: client}
}

// GetPrice fetches the latest price of the pair.
func (p *BinancePricer) GetPrice(ctx context.Context, pair domain.Pair) (decimal.Decimal, error) {
	prices, err := p.client.NewListPricesService().Symbol(pair.Symbol()).Do(ctx)
	if err != nil {
		return decimal.Zero, errors.Wrapf(err, "failed to fetch price for %s", pair.String())
	}
	if len(prices) == 0 {
		return decimal.Zero, errors.Errorf("binance API returned empty prices for %s", pair.String())
	}

	price, err := decimal.NewFromString(prices[0].Price)
	if err != nil {
		return decimal.Zero, errors.Wrap(err, "failed to parse price")
	}
	return price, nil
}
