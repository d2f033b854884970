// Package metrics exposes Prometheus collectors for polling cycles, decisions and orders.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/vadiminshakov/momentum/internal/domain"
)

const namespace = "momentum"

// Cycle results.
const (
	ResultOK           = "ok"
	ResultInsufficient = "insufficient_data"
	ResultFailed       = "failed"
)

// Metrics holds the bot collectors. A nil *Metrics records nothing.
type Metrics struct {
	cycles     *prometheus.CounterVec
	decisions  *prometheus.CounterVec
	orders     *prometheus.CounterVec
	shortEMA   *prometheus.GaugeVec
	longEMA    *prometheus.GaugeVec
	rsi        *prometheus.GaugeVec
	trendDelta *prometheus.GaugeVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		cycles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cycles_total",
			Help:      "Polling cycles by result.",
		}, []string{"pair", "result"}),
		decisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "decisions_total",
			Help:      "Trading decisions by side.",
		}, []string{"pair", "side"}),
		orders: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "orders_total",
			Help:      "Order submissions by result.",
		}, []string{"pair", "result"}),
		shortEMA:   newGauge("short_ema", "Short EMA at the latest candle."),
		longEMA:    newGauge("long_ema", "Long EMA at the latest candle."),
		rsi:        newGauge("rsi", "RSI at the latest candle."),
		trendDelta: newGauge("trend_delta", "Short EMA minus long EMA at the latest candle."),
	}

	for _, c := range []prometheus.Collector{m.cycles, m.decisions, m.orders, m.shortEMA, m.longEMA, m.rsi, m.trendDelta} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}

	return m, nil
}

func newGauge(name, help string) *prometheus.GaugeVec {
	return prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      name,
		Help:      help,
	}, []string{"pair"})
}

// ObserveCycle counts a finished polling cycle.
func (m *Metrics) ObserveCycle(pair, result string) {
	if m == nil {
		return
	}
	m.cycles.WithLabelValues(pair, result).Inc()
}

// ObserveDecision counts a decision.
func (m *Metrics) ObserveDecision(pair string, side domain.Side) {
	if m == nil {
		return
	}
	m.decisions.WithLabelValues(pair, side.String()).Inc()
}

// ObserveOrder counts an order submission.
func (m *Metrics) ObserveOrder(pair string, ok bool) {
	if m == nil {
		return
	}
	result := ResultOK
	if !ok {
		result = ResultFailed
	}
	m.orders.WithLabelValues(pair, result).Inc()
}

// ObserveIndicators publishes the latest indicator values.
func (m *Metrics) ObserveIndicators(pair string, result domain.IndicatorResult, trend domain.TrendState) {
	if m == nil {
		return
	}
	m.shortEMA.WithLabelValues(pair).Set(result.ShortEMA.InexactFloat64())
	m.longEMA.WithLabelValues(pair).Set(result.LongEMA.InexactFloat64())
	m.rsi.WithLabelValues(pair).Set(result.RSI.InexactFloat64())
	m.trendDelta.WithLabelValues(pair).Set(trend.Delta.InexactFloat64())
}
