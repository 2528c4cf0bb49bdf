package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Registry holds all Prometheus metrics.
type Registry struct {
	*prometheus.Registry

	// HTTP metrics
	httpRequestsTotal    *prometheus.CounterVec
	httpRequestDuration  *prometheus.HistogramVec
	httpRequestsInFlight prometheus.Gauge

	// Business metrics
	backtestsTotal   *prometheus.CounterVec
	backtestDuration prometheus.Histogram
	positionsTotal   *prometheus.CounterVec
	sweepRuns        prometheus.Counter
	collectorFetches *prometheus.CounterVec
	jobsActive       *prometheus.GaugeVec
}

// NewRegistry creates a new metrics registry with all metrics registered.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()

	// Register Go runtime metrics
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	r := &Registry{
		Registry: reg,

		httpRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),

		httpRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),

		httpRequestsInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_requests_in_flight",
				Help: "Number of HTTP requests currently in flight",
			},
		),
	}

	reg.MustRegister(r.httpRequestsTotal)
	reg.MustRegister(r.httpRequestDuration)
	reg.MustRegister(r.httpRequestsInFlight)

	// Business metrics
	r.backtestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stratlab_backtests_total",
			Help: "Total number of backtests",
		},
		[]string{"strategy", "status"},
	)
	r.backtestDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "stratlab_backtest_duration_seconds",
			Help:    "Backtest duration in seconds, including data fetch",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30},
		},
	)
	r.positionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stratlab_positions_total",
			Help: "Total number of periods assigned to each position by a strategy",
		},
		[]string{"strategy", "position"},
	)
	r.sweepRuns = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "stratlab_sweep_evaluations_total",
			Help: "Total number of parameter combinations evaluated by sweeps",
		},
	)
	r.collectorFetches = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stratlab_collector_fetches_total",
			Help: "Total number of price history fetches",
		},
		[]string{"collector", "status"},
	)
	r.jobsActive = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "stratlab_jobs_active",
			Help: "Number of active jobs",
		},
		[]string{"type"},
	)

	reg.MustRegister(r.backtestsTotal)
	reg.MustRegister(r.backtestDuration)
	reg.MustRegister(r.positionsTotal)
	reg.MustRegister(r.sweepRuns)
	reg.MustRegister(r.collectorFetches)
	reg.MustRegister(r.jobsActive)

	return r
}

// RecordRequest records metrics for an HTTP request.
func (r *Registry) RecordRequest(method, path string, status int, duration float64) {
	statusStr := statusToString(status)
	r.httpRequestsTotal.WithLabelValues(method, path, statusStr).Inc()
	r.httpRequestDuration.WithLabelValues(method, path).Observe(duration)
}

// InFlightInc increments in-flight requests.
func (r *Registry) InFlightInc() {
	r.httpRequestsInFlight.Inc()
}

// InFlightDec decrements in-flight requests.
func (r *Registry) InFlightDec() {
	r.httpRequestsInFlight.Dec()
}

// RecordBacktest records a backtest completion.
func (r *Registry) RecordBacktest(strategy, status string, duration float64) {
	r.backtestsTotal.WithLabelValues(strategy, status).Inc()
	r.backtestDuration.Observe(duration)
}

// RecordPositions adds count periods held in position by strategy.
func (r *Registry) RecordPositions(strategy, position string, count int) {
	if count <= 0 {
		return
	}
	r.positionsTotal.WithLabelValues(strategy, position).Add(float64(count))
}

// RecordSweep records evaluated sweep combinations.
func (r *Registry) RecordSweep(evaluations int) {
	r.sweepRuns.Add(float64(evaluations))
}

// RecordFetch records a collector fetch.
func (r *Registry) RecordFetch(collector, status string) {
	r.collectorFetches.WithLabelValues(collector, status).Inc()
}

// SetJobsActive sets the number of active jobs of a type.
func (r *Registry) SetJobsActive(jobType string, count int) {
	r.jobsActive.WithLabelValues(jobType).Set(float64(count))
}

func statusToString(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	case status >= 200:
		return "2xx"
	default:
		return "1xx"
	}
}
