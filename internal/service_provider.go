package internal

import (
	"context"
	"fmt"

	binance "github.com/adshao/go-binance/v2"
	"go.uber.org/zap"

	"github.com/vadiminshakov/momentum/internal/clients"
	"github.com/vadiminshakov/momentum/internal/domain"
	"github.com/vadiminshakov/momentum/internal/services/market/collector"
	"github.com/vadiminshakov/momentum/internal/services/pricer"
	"github.com/vadiminshakov/momentum/internal/services/trader"
)

type orderService interface {
	ExecuteOrder(ctx context.Context, order domain.Order) error
}

type klineService interface {
	GetKlines(ctx context.Context, pair domain.Pair, interval string, limit int) ([]domain.Observation, error)
}

// serviceProvider creates platform-specific services.
type serviceProvider interface {
	Trader(pair domain.Pair) (orderService, error)
	KlineProvider() (klineService, error)
}

// newServiceProvider dispatches on the client type.
func newServiceProvider(client any, logger *zap.Logger) (serviceProvider, error) {
	switch c := client.(type) {
	case *binance.Client:
		return &binanceProvider{client: c}, nil
	case *clients.SimulateClient:
		return &simulateProvider{client: c, logger: logger}, nil
	case *collector.ReplayKlineProvider:
		return &replayProvider{replay: c, logger: logger}, nil
	default:
		return nil, fmt.Errorf("unsupported client type: %T", client)
	}
}

type binanceProvider struct {
	client *binance.Client
}

func (p *binanceProvider) Trader(domain.Pair) (orderService, error) {
	return trader.NewBinanceTrader(p.client), nil
}
func (p *binanceProvider) KlineProvider() (klineService, error) {
	return collector.NewBinanceKlineProvider(p.client), nil
}

// simulateProvider reads live Binance data and paper-trades at the current price.
type simulateProvider struct {
	client *clients.SimulateClient
	logger *zap.Logger
}

func (p *simulateProvider) Trader(pair domain.Pair) (orderService, error) {
	return trader.NewSimulateTrader(pair, p.logger, pricer.NewBinancePricer(p.client.GetBinanceClient()))
}
func (p *simulateProvider) KlineProvider() (klineService, error) {
	return collector.NewBinanceKlineProvider(p.client.GetBinanceClient()), nil
}

// replayProvider paper-trades recorded klines at the close of the last served candle.
type replayProvider struct {
	replay *collector.ReplayKlineProvider
	logger *zap.Logger
}

func (p *replayProvider) Trader(pair domain.Pair) (orderService, error) {
	return trader.NewSimulateTrader(pair, p.logger, p.replay)
}
func (p *replayProvider) KlineProvider() (klineService, error) {
	return p.replay, nil
}
