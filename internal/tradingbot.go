package internal

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/vadiminshakov/momentum/config"
	"github.com/vadiminshakov/momentum/internal/domain"
	"github.com/vadiminshakov/momentum/internal/metrics"
	"github.com/vadiminshakov/momentum/internal/services/report"
)

type TradingStrategy interface {
	Trade(ctx context.Context) (*domain.Decision, error)
}

// DecisionJournal stores every produced decision.
type DecisionJournal interface {
	Save(event domain.DecisionEvent) error
}

// BotOptions collaborators shared by the bot and the rest of the process.
type BotOptions struct {
	Logger   *zap.Logger
	Reporter report.Sink
	// Journal is optional.
	Journal DecisionJournal
	// Metrics is optional.
	Metrics *metrics.Metrics
}

// TradingBot runs the momentum strategy for a single pair on a schedule.
type TradingBot struct {
	Config          config.Config
	tradingStrategy TradingStrategy
	schedule        cron.Schedule
	metrics         *metrics.Metrics
	logger          *zap.Logger
	now             func() time.Time
}

// NewTradingBot creates a new trading bot instance. client is a *binance.Client,
// *clients.SimulateClient or *collector.ReplayKlineProvider.
func NewTradingBot(conf config.Config, client any, opts BotOptions) (*TradingBot, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Reporter == nil {
		return nil, errors.New("report sink is required")
	}

	schedule, err := conf.TickSchedule()
	if err != nil {
		return nil, err
	}

	provider, err := newServiceProvider(client, logger)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create service provider")
	}

	strategy, err := newStrategyFactory(logger).createMomentumStrategy(conf, provider, opts.Reporter, opts.Journal, opts.Metrics)
	if err != nil {
		return nil, err
	}

	return newTradingBot(conf, strategy, schedule, logger, opts.Metrics), nil
}

func newTradingBot(conf config.Config, strategy TradingStrategy, schedule cron.Schedule, logger *zap.Logger, m *metrics.Metrics) *TradingBot {
	return &TradingBot{
		Config:          conf,
		tradingStrategy: strategy,
		schedule:        schedule,
		metrics:         m,
		logger:          logger,
		now:             time.Now,
	}
}

// Run executes one cycle immediately and then one per schedule tick, strictly in sequence.
// It returns ctx.Err() on cancellation, or the feed error once the kline source is exhausted.
func (b *TradingBot) Run(ctx context.Context) error {
	pair := b.Config.Pair.String()
	b.logger.Info("Starting trading loop", zap.String("pair", pair), zap.String("platform", b.Config.Platform))

	for {
		if err := b.cycle(ctx); err != nil {
			return err
		}

		now := b.now()
		timer := time.NewTimer(b.schedule.Next(now).Sub(now))
		select {
		case <-ctx.Done():
			timer.Stop()
			b.logger.Info("Context done, stopping trading bot run loop.", zap.String("pair", pair))
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// cycle runs one Trade call. Only a terminal feed error is returned.
func (b *TradingBot) cycle(ctx context.Context) error {
	pair := b.Config.Pair.String()

	decision, err := b.tradingStrategy.Trade(ctx)
	switch {
	case err == nil:
		b.metrics.ObserveCycle(pair, metrics.ResultOK)
		b.logger.Debug("Cycle finished", zap.String("pair", pair), zap.Stringer("side", decision.Side))
	case ctx.Err() != nil:
		// cancellation is reported by Run
	case errors.Is(err, domain.ErrFeedExhausted):
		b.metrics.ObserveCycle(pair, metrics.ResultFailed)
		return errors.Wrap(err, "kline feed finished")
	case errors.Is(err, domain.ErrInsufficientData):
		b.metrics.ObserveCycle(pair, metrics.ResultInsufficient)
		b.logger.Warn("Not enough klines for indicators, skipping cycle", zap.String("pair", pair), zap.Error(err))
	default:
		b.metrics.ObserveCycle(pair, metrics.ResultFailed)
		b.logger.Error("Trading strategy failed", zap.String("pair", pair), zap.Error(err))
	}

	return nil
}
