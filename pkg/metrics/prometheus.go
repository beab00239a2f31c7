package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	scansTotal     prometheus.Counter
	scanDuration   prometheus.Histogram
	lastScanned    prometheus.Gauge
	lastSkipped    prometheus.Gauge
	skipsTotal     *prometheus.CounterVec
	decisionsTotal *prometheus.CounterVec
	scores         *prometheus.HistogramVec
	sinkErrors     *prometheus.CounterVec
	latency        *prometheus.HistogramVec
}

// New creates a recorder registered on the default registry.
func New() *Recorder {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry registers the collectors on reg. Tests pass a fresh registry.
func NewWithRegistry(reg prometheus.Registerer) *Recorder {
	f := promauto.With(reg)
	return &Recorder{
		scansTotal: f.NewCounter(prometheus.CounterOpts{
			Name: "swingdesk_scans_total",
			Help: "Total number of completed board scans",
		}),
		scanDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "swingdesk_scan_duration_seconds",
			Help:    "Duration of full universe scans",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 20, 30, 60, 120},
		}),
		lastScanned: f.NewGauge(prometheus.GaugeOpts{
			Name: "swingdesk_last_scan_scanned",
			Help: "Tickers evaluated in the last scan",
		}),
		lastSkipped: f.NewGauge(prometheus.GaugeOpts{
			Name: "swingdesk_last_scan_skipped",
			Help: "Tickers skipped in the last scan",
		}),
		skipsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "swingdesk_skips_total",
			Help: "Tickers skipped by reason",
		}, []string{"reason"}),
		decisionsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "swingdesk_decisions_total",
			Help: "Decisions produced by account and state",
		}, []string{"account", "state"}),
		scores: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "swingdesk_decision_score",
			Help:    "Distribution of setup scores",
			Buckets: []float64{0, 25, 45, 55, 65, 75, 80, 90, 100},
		}, []string{"account"}),
		sinkErrors: f.NewCounterVec(prometheus.CounterOpts{
			Name: "swingdesk_sink_errors_total",
			Help: "Errors writing decisions to a sink backend",
		}, []string{"backend"}),
		latency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "swingdesk_operation_duration_seconds",
			Help:    "Duration of operations in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation"}),
	}
}

func (r *Recorder) RecordScan(seconds float64, scanned, skipped int) {
	r.scansTotal.Inc()
	r.scanDuration.Observe(seconds)
	r.lastScanned.Set(float64(scanned))
	r.lastSkipped.Set(float64(skipped))
}

func (r *Recorder) RecordSkip(reason string) {
	r.skipsTotal.WithLabelValues(reason).Inc()
}

// RecordDecision counts a decision. Account ids are bounded (0..8) so the label stays low-cardinality.
func (r *Recorder) RecordDecision(accountID int, state string, score int) {
	acct := strconv.Itoa(accountID)
	r.decisionsTotal.WithLabelValues(acct, state).Inc()
	r.scores.WithLabelValues(acct).Observe(float64(score))
}

func (r *Recorder) RecordSinkError(backend string) {
	r.sinkErrors.WithLabelValues(backend).Inc()
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}

// Nop discards everything.
type Nop struct{}

func (Nop) RecordScan(float64, int, int)    {}
func (Nop) RecordSkip(string)               {}
func (Nop) RecordDecision(int, string, int) {}
func (Nop) RecordSinkError(string)          {}
func (Nop) RecordLatency(string, float64)   {}
