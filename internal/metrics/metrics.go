package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Registry holds all Prometheus metrics.
type Registry struct {
	*prometheus.Registry

	// Collector metrics
	fetchesTotal  *prometheus.CounterVec
	fetchDuration *prometheus.HistogramVec
	seriesPoints  *prometheus.GaugeVec

	// Pipeline metrics
	signalsGenerated *prometheus.CounterVec
	backtestsTotal   *prometheus.CounterVec
	backtestDuration prometheus.Histogram
	journalWrites    prometheus.Counter
}

// NewRegistry creates a new metrics registry with all metrics registered.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()

	// Register Go runtime metrics
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	r := &Registry{
		Registry: reg,

		fetchesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "marketmood_fetches_total",
				Help: "Total number of upstream data fetches",
			},
			[]string{"source", "status"},
		),

		fetchDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "marketmood_fetch_duration_seconds",
				Help:    "Upstream fetch duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"source"},
		),

		seriesPoints: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "marketmood_series_points",
				Help: "Number of points in the last fetched series",
			},
			[]string{"source"},
		),
	}

	reg.MustRegister(r.fetchesTotal)
	reg.MustRegister(r.fetchDuration)
	reg.MustRegister(r.seriesPoints)

	// Pipeline metrics
	r.signalsGenerated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "marketmood_signals_generated_total",
			Help: "Total number of signals generated",
		},
		[]string{"action"},
	)
	r.backtestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "marketmood_backtests_total",
			Help: "Total number of backtests",
		},
		[]string{"status"},
	)
	r.backtestDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "marketmood_backtest_duration_seconds",
			Help:    "Backtest duration in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10},
		},
	)
	r.journalWrites = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "marketmood_journal_writes_total",
			Help: "Total number of runs written to the journal",
		},
	)

	reg.MustRegister(r.signalsGenerated)
	reg.MustRegister(r.backtestsTotal)
	reg.MustRegister(r.backtestDuration)
	reg.MustRegister(r.journalWrites)

	return r
}

// RecordFetch records an upstream fetch outcome.
func (r *Registry) RecordFetch(source, status string, duration float64, points int) {
	r.fetchesTotal.WithLabelValues(source, status).Inc()
	r.fetchDuration.WithLabelValues(source).Observe(duration)
	if status == "ok" {
		r.seriesPoints.WithLabelValues(source).Set(float64(points))
	}
}

// RecordSignal records a generated signal.
func (r *Registry) RecordSignal(action string) {
	r.signalsGenerated.WithLabelValues(action).Inc()
}

// RecordBacktest records a backtest completion.
func (r *Registry) RecordBacktest(status string, duration float64) {
	r.backtestsTotal.WithLabelValues(status).Inc()
	r.backtestDuration.Observe(duration)
}

// RecordJournalWrite records a run persisted to the journal.
func (r *Registry) RecordJournalWrite() {
	r.journalWrites.Inc()
}
