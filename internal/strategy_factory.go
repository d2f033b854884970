package internal

import (
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/vadiminshakov/momentum/config"
	"github.com/vadiminshakov/momentum/internal/metrics"
	"github.com/vadiminshakov/momentum/internal/services/report"
	"github.com/vadiminshakov/momentum/internal/services/strategy/momentum"
)

// strategyFactory creates trading strategies.
type strategyFactory struct {
	logger *zap.Logger
}

func newStrategyFactory(logger *zap.Logger) *strategyFactory {
	return &strategyFactory{logger: logger}
}

// createMomentumStrategy wires the indicator engine, decision policy and platform services.
func (f *strategyFactory) createMomentumStrategy(
	conf config.Config,
	provider serviceProvider,
	reporter report.Sink,
	journal DecisionJournal,
	m *metrics.Metrics,
) (*momentum.MomentumStrategy, error) {
	engine, err := momentum.NewEngine(conf.ShortPeriod, conf.LongPeriod, conf.RSIPeriod)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create indicator engine")
	}

	policy, err := momentum.NewPolicy(conf.RSIOversold, conf.RSIOverbought)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create decision policy")
	}

	klines, err := provider.KlineProvider()
	if err != nil {
		return nil, errors.Wrap(err, "failed to create kline provider")
	}

	opts := []momentum.Option{
		momentum.WithMetrics(m),
		momentum.WithFetchBackoff(conf.FetchRetries, conf.FetchBackoff, conf.FetchBackoffMax),
	}
	if journal != nil {
		opts = append(opts, momentum.WithJournal(journal))
	}
	if conf.Quantity.IsPositive() {
		orders, err := provider.Trader(conf.Pair)
		if err != nil {
			return nil, errors.Wrap(err, "failed to create trader")
		}
		opts = append(opts, momentum.WithTrader(orders))
	}

	params := momentum.Params{
		Pair:     conf.Pair,
		Interval: conf.Interval,
		Limit:    conf.KlinesLimit,
		Quantity: conf.Quantity,
	}

	strategy, err := momentum.NewMomentumStrategy(
		f.logger.With(zap.String("pair", conf.Pair.String())),
		params, engine, policy, klines, reporter, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create momentum strategy")
	}

	return strategy, nil
}
