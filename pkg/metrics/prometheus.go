package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	ticksIngested *prometheus.CounterVec
	decisions     *prometheus.CounterVec
	errorsTotal   *prometheus.CounterVec
	lastPrice     *prometheus.GaugeVec
	latency       *prometheus.HistogramVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		ticksIngested: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tradepulse_ticks_ingested_total",
				Help: "Total number of ticks ingested per source",
			},
			[]string{"source", "symbol"},
		),
		decisions: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tradepulse_decisions_total",
				Help: "Total number of consensus decisions by direction",
			},
			[]string{"symbol", "decision"},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tradepulse_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		lastPrice: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "tradepulse_last_price",
				Help: "Last recorded price for a symbol",
			},
			[]string{"symbol"},
		),
		latency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "tradepulse_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// RecordTickIngested records one ingested tick for a source backend.
func (r *Recorder) RecordTickIngested(source, symbol string) {
	r.ticksIngested.WithLabelValues(source, symbol).Inc()
}

// RecordDecision records one consensus decision.
func (r *Recorder) RecordDecision(symbol string, decision string) {
	r.decisions.WithLabelValues(symbol, decision).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLastPrice records the last price for a symbol.
func (r *Recorder) RecordLastPrice(symbol string, price float64) {
	r.lastPrice.WithLabelValues(symbol).Set(price)
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}
