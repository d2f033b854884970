package momentum

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/vadiminshakov/momentum/internal/domain"
	"github.com/vadiminshakov/momentum/internal/metrics"
	"github.com/vadiminshakov/momentum/pkg/retrier"
)

type klineProvider interface {
	GetKlines(ctx context.Context, pair domain.Pair, interval string, limit int) ([]domain.Observation, error)
}

type orderExecutor interface {
	ExecuteOrder(ctx context.Context, order domain.Order) error
}

type reportWriter interface {
	Write(ctx context.Context, record domain.ReportRecord) error
}

type decisionJournal interface {
	Save(event domain.DecisionEvent) error
}

const (
	defaultFetchRetries    = 3
	defaultFetchBackoff    = time.Second
	defaultFetchBackoffMax = 30 * time.Second
)

// Params market parameters of a strategy instance.
type Params struct {
	Pair     domain.Pair
	Interval string
	Limit    int
	// Quantity order size in base currency; zero disables order submission.
	Quantity decimal.Decimal
}

// Option configures optional collaborators of MomentumStrategy.
type Option func(*MomentumStrategy)

// WithTrader sets the gateway orders are submitted to.
func WithTrader(trader orderExecutor) Option {
	return func(s *MomentumStrategy) {
		s.trader = trader
	}
}

// WithJournal sets the decision journal.
func WithJournal(journal decisionJournal) Option {
	return func(s *MomentumStrategy) {
		s.journal = journal
	}
}

// WithMetrics sets the metrics recorder.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *MomentumStrategy) {
		s.metrics = m
	}
}

// WithRetrier sets the retry policy for kline fetches.
func WithRetrier(r *retrier.Retrier) Option {
	return func(s *MomentumStrategy) {
		s.retrier = r
	}
}

// WithFetchBackoff retries transient kline fetch failures up to retries times, waiting initial
// before the first retry and doubling the wait up to maxWait.
func WithFetchBackoff(retries int, initial, maxWait time.Duration) Option {
	return WithRetrier(newFetchRetrier(retries, initial, maxWait))
}

func newFetchRetrier(retries int, initial, maxWait time.Duration) *retrier.Retrier {
	return retrier.New(
		retrier.WithMaxRetries(retries),
		retrier.WithInitialInterval(initial),
		retrier.WithMaxInterval(maxWait),
		retrier.WithRetryIf(isTransient),
	)
}

// MomentumStrategy runs one fetch-compute-decide-report cycle per Trade call.
type MomentumStrategy struct {
	params   Params
	engine   *Engine
	policy   Policy
	klines   klineProvider
	reporter reportWriter
	trader   orderExecutor
	journal  decisionJournal
	metrics  *metrics.Metrics
	retrier  *retrier.Retrier
	l        *zap.Logger
	now      func() time.Time
}

// NewMomentumStrategy returns a configured momentum strategy.
func NewMomentumStrategy(l *zap.Logger, params Params, engine *Engine, policy Policy,
	klines klineProvider, reporter reportWriter, opts ...Option) (*MomentumStrategy, error) {
	if engine == nil {
		return nil, errors.New("indicator engine is required")
	}
	if klines == nil {
		return nil, errors.New("kline provider is required")
	}
	if reporter == nil {
		return nil, errors.New("report writer is required")
	}
	if params.Limit < engine.MinObservations() {
		return nil, errors.Errorf("klines limit %d is below the %d observations the indicators need",
			params.Limit, engine.MinObservations())
	}
	if params.Quantity.IsNegative() {
		return nil, errors.Errorf("order quantity must not be negative, got %s", params.Quantity)
	}
	if l == nil {
		l = zap.NewNop()
	}

	s := &MomentumStrategy{
		params:   params,
		engine:   engine,
		policy:   policy,
		klines:   klines,
		reporter: reporter,
		l:        l,
		now:      time.Now,
		retrier:  newFetchRetrier(defaultFetchRetries, defaultFetchBackoff, defaultFetchBackoffMax),
	}
	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

// Trade runs a single polling cycle and returns the decision it produced.
func (s *MomentumStrategy) Trade(ctx context.Context) (*domain.Decision, error) {
	observations, err := retrier.DoWithData(s.retrier, ctx, func(ctx context.Context) ([]domain.Observation, error) {
		return s.klines.GetKlines(ctx, s.params.Pair, s.params.Interval, s.params.Limit)
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to fetch klines")
	}

	series, err := domain.NewPriceSeries(observations)
	if err != nil {
		return nil, errors.Wrap(err, "rejected price series")
	}

	result, err := s.engine.Compute(series)
	if err != nil {
		return nil, errors.Wrap(err, "failed to compute indicators")
	}

	trendState := ClassifyTrend(result.ShortEMA, result.LongEMA)
	latest := series.Latest()
	decision := s.policy.Decide(latest.Open, latest.Close, trendState.Delta, result.RSI)

	s.l.Info("momentum decision",
		zap.String("pair", s.params.Pair.String()),
		zap.Time("candle_closed_at", latest.CloseTime),
		zap.Stringer("side", decision.Side),
		zap.Int("rule", decision.Rule),
		zap.String("strength", string(decision.Strength)),
		zap.String("open", latest.Open.String()),
		zap.String("close", latest.Close.String()),
		zap.String("short_ema", result.ShortEMA.String()),
		zap.String("long_ema", result.LongEMA.String()),
		zap.String("trend", string(trendState.Direction)),
		zap.String("rsi", result.RSI.String()))

	s.metrics.ObserveIndicators(s.params.Pair.String(), result, trendState)
	s.metrics.ObserveDecision(s.params.Pair.String(), decision.Side)

	clientOrderID := s.submit(ctx, decision)

	record := domain.ReportRecord{
		Date:     latest.CloseTime,
		Symbol:   s.params.Pair.Symbol(),
		ShortEMA: result.ShortEMA,
		LongEMA:  result.LongEMA,
		RSI:      result.RSI,
		Side:     decision.Side,
	}
	if err := s.reporter.Write(ctx, record); err != nil {
		return &decision, errors.Wrap(err, "failed to write trading report")
	}

	if s.journal != nil {
		event := domain.DecisionEvent{
			Timestamp:      s.now().UTC(),
			CandleClosedAt: latest.CloseTime,
			Pair:           s.params.Pair.String(),
			Side:           decision.Side,
			Rule:           decision.Rule,
			Strength:       decision.Strength,
			Open:           latest.Open,
			Close:          latest.Close,
			ShortEMA:       result.ShortEMA,
			LongEMA:        result.LongEMA,
			TrendDelta:     trendState.Delta,
			RSI:            result.RSI,
			ClientOrderID:  clientOrderID,
		}
		if err := s.journal.Save(event); err != nil {
			s.l.Error("failed to journal decision", zap.String("pair", s.params.Pair.String()), zap.Error(err))
		}
	}

	return &decision, nil
}

// submit places a market order for actionable decisions and returns its client order id.
// Submission results are not interpreted beyond logging.
func (s *MomentumStrategy) submit(ctx context.Context, decision domain.Decision) string {
	if !decision.Side.Actionable() || s.trader == nil {
		return ""
	}
	if s.params.Quantity.IsZero() {
		s.l.Debug("order quantity is zero, skipping submission", zap.String("pair", s.params.Pair.String()))
		return ""
	}

	order := domain.Order{
		Symbol:        s.params.Pair.Symbol(),
		Side:          decision.Side,
		Type:          domain.OrderTypeMarket,
		Quantity:      s.params.Quantity,
		ClientOrderID: uuid.New().String(),
	}

	if err := s.trader.ExecuteOrder(ctx, order); err != nil {
		s.l.Error("failed to submit order",
			zap.String("pair", s.params.Pair.String()),
			zap.Stringer("side", order.Side),
			zap.String("client_order_id", order.ClientOrderID),
			zap.Error(err))
		s.metrics.ObserveOrder(s.params.Pair.String(), false)
		return ""
	}

	s.l.Info("order submitted",
		zap.String("pair", s.params.Pair.String()),
		zap.Stringer("side", order.Side),
		zap.String("quantity", order.Quantity.String()),
		zap.String("client_order_id", order.ClientOrderID))
	s.metrics.ObserveOrder(s.params.Pair.String(), true)

	return order.ClientOrderID
}

// isTransient reports whether a fetch failure is worth retrying.
func isTransient(err error) bool {
	return !errors.Is(err, domain.ErrMalformedSeries) &&
		!errors.Is(err, domain.ErrUnknownColumn) &&
		!errors.Is(err, domain.ErrFeedExhausted) &&
		!errors.Is(err, context.Canceled) &&
		!errors.Is(err, context.DeadlineExceeded)
}
