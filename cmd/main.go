// Command momentum polls candles for one trading pair, derives EMA/RSI momentum
// signals and turns them into BUY, SELL or NEUTRAL decisions.
//
// Usage:
//
//	momentum --config config.yaml
//	momentum --platform simulate --pair ETH_USDC (uses CLI arguments)
//
// Required environment variables for the binance platform:
//
//	BINANCE_API_KEY, BINANCE_API_SECRET
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/vadiminshakov/momentum/config"
	"github.com/vadiminshakov/momentum/internal"
	"github.com/vadiminshakov/momentum/internal/clients"
	"github.com/vadiminshakov/momentum/internal/domain"
	"github.com/vadiminshakov/momentum/internal/metrics"
	"github.com/vadiminshakov/momentum/internal/services/market/collector"
	"github.com/vadiminshakov/momentum/internal/services/report"
	"github.com/vadiminshakov/momentum/internal/storage/decisions"
	"github.com/vadiminshakov/momentum/internal/web"
)

func main() {
	conf, err := config.Get(os.Args[1:])
	if err != nil {
		log.Fatal(err)
	}

	logger, err := newLogger(conf.LogLevel)
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, conf, logger); err != nil {
		logger.Fatal("momentum bot stopped", zap.Error(err))
	}
}

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid log level %q", level)
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = lvl
	return cfg.Build()
}

func run(ctx context.Context, conf config.Config, logger *zap.Logger) (err error) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m, err := metrics.New(reg)
	if err != nil {
		return errors.Wrap(err, "register metrics")
	}

	reporter, closeSinks, err := openSinks(conf)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, closeSinks()) }()

	opts := internal.BotOptions{Logger: logger, Reporter: reporter, Metrics: m}

	var journal *decisions.WALStore
	if conf.WALDir != "" {
		journal, err = decisions.NewWALStore(conf.WALDir)
		if err != nil {
			return err
		}
		defer func() { err = multierr.Append(err, journal.Close()) }()
		opts.Journal = journal
	}

	client, err := newClient(ctx, conf, logger)
	if err != nil {
		return err
	}

	bot, err := internal.NewTradingBot(conf, client, opts)
	if err != nil {
		return err
	}

	if conf.HTTPAddr != "" {
		var store interface {
			EventsAfter(index uint64) ([]domain.DecisionEventRecord, error)
		}
		if journal != nil {
			store = journal
		}
		server := web.NewServer(conf.HTTPAddr, logger, store, reg)
		go func() {
			if err := server.Start(ctx); err != nil {
				logger.Error("status server failed", zap.Error(err))
			}
		}()
	}

	err = bot.Run(ctx)
	switch {
	case errors.Is(err, context.Canceled):
		logger.Info("shutting down")
		return nil
	case errors.Is(err, domain.ErrFeedExhausted):
		logger.Info("replay finished", zap.Error(err))
		return nil
	default:
		return err
	}
}

// openSinks opens the configured report sinks.
func openSinks(conf config.Config) (*report.MultiSink, func() error, error) {
	var (
		sinks   []report.Sink
		closers []func() error
	)
	closeAll := func() error {
		var err error
		for _, c := range closers {
			err = multierr.Append(err, c())
		}
		return err
	}

	if conf.ReportCSV != "" {
		csvSink, err := report.NewCSVSink(conf.ReportCSV)
		if err != nil {
			return nil, nil, err
		}
		sinks = append(sinks, csvSink)
		closers = append(closers, csvSink.Close)
	}
	if conf.ReportSQLite != "" {
		sqliteSink, err := report.NewSQLiteSink(conf.ReportSQLite)
		if err != nil {
			return nil, nil, multierr.Append(err, closeAll())
		}
		sinks = append(sinks, sqliteSink)
		closers = append(closers, sqliteSink.Close)
	}
	if len(sinks) == 0 {
		return nil, nil, errors.New("at least one of report_csv or report_sqlite must be set")
	}

	return report.NewMultiSink(sinks...), closeAll, nil
}

// newClient builds the platform client and checks the pair is listed.
func newClient(ctx context.Context, conf config.Config, logger *zap.Logger) (any, error) {
	switch conf.Platform {
	case config.PlatformBinance:
		apiKey := os.Getenv("BINANCE_API_KEY")
		apiSecret := os.Getenv("BINANCE_API_SECRET")
		if apiKey == "" || apiSecret == "" {
			return nil, errors.New("BINANCE_API_KEY and BINANCE_API_SECRET environment variables must be set")
		}
		client := clients.NewBinanceClient(apiKey, apiSecret, conf.Testnet)
		info, err := collector.ResolvePair(ctx, client, conf.Pair)
		if err != nil {
			return nil, err
		}
		logger.Info("pair resolved", zap.String("base", info.BaseAsset), zap.String("quote", info.QuoteAsset), zap.String("status", info.Status))
		return client, nil
	case config.PlatformSimulate:
		client := clients.NewSimulateClient()
		info, err := collector.ResolvePair(ctx, client.GetBinanceClient(), conf.Pair)
		if err != nil {
			return nil, err
		}
		logger.Info("pair resolved", zap.String("base", info.BaseAsset), zap.String("quote", info.QuoteAsset), zap.String("status", info.Status))
		return client, nil
	case config.PlatformReplay:
		return collector.NewReplayKlineProvider(conf.ReplayFile, nil)
	default:
		return nil, errors.Errorf("unsupported platform: %s", conf.Platform)
	}
}
