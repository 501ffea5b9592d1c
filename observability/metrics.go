package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the pipeline.
type Metrics struct {
	// Per-symbol fetch metrics
	SymbolFetchTotal    *prometheus.CounterVec
	SymbolFetchDuration *prometheus.HistogramVec
	SymbolFetchErrors   *prometheus.CounterVec

	// Run metrics
	RunTotal        *prometheus.CounterVec
	RunDuration     prometheus.Histogram
	RunSuccessRatio prometheus.Gauge
	MarketBearish   prometheus.Gauge

	// Upstream source metrics
	UpstreamRequestsTotal *prometheus.CounterVec
	UpstreamErrorsTotal   *prometheus.CounterVec
	UpstreamDuration      *prometheus.HistogramVec

	// Result cache metrics
	CacheHitsTotal   prometheus.Counter
	CacheMissesTotal prometheus.Counter

	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Circuit breaker metrics
	CircuitBreakerState *prometheus.GaugeVec
	CircuitBreakerTrips *prometheus.CounterVec
}

// defaultBuckets are the default histogram buckets for duration metrics (in seconds)
var defaultBuckets = []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30}

// runBuckets cover full fan-out runs, which span many upstream calls
var runBuckets = []float64{.5, 1, 2.5, 5, 10, 30, 60, 120, 300}

// globalMetrics is the global metrics instance
var globalMetrics *Metrics

// NewMetrics creates and registers all Prometheus metrics.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	factory := promauto.With(reg)

	m := &Metrics{
		SymbolFetchTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "nse_pulse",
				Subsystem: "fetch",
				Name:      "symbols_total",
				Help:      "Total number of per-symbol fetch attempts",
			},
			[]string{"symbol"},
		),
		SymbolFetchDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "nse_pulse",
				Subsystem: "fetch",
				Name:      "symbol_duration_seconds",
				Help:      "Duration of per-symbol fetch and indicator computation",
				Buckets:   defaultBuckets,
			},
			[]string{"symbol", "status"},
		),
		SymbolFetchErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "nse_pulse",
				Subsystem: "fetch",
				Name:      "symbol_errors_total",
				Help:      "Total number of symbols dropped after exhausting retries",
			},
			[]string{"symbol", "reason"},
		),
		RunTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "nse_pulse",
				Subsystem: "run",
				Name:      "total",
				Help:      "Total number of pipeline runs",
			},
			[]string{"status"},
		),
		RunDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: "nse_pulse",
				Subsystem: "run",
				Name:      "duration_seconds",
				Help:      "Duration of full pipeline runs",
				Buckets:   runBuckets,
			},
		),
		RunSuccessRatio: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "nse_pulse",
				Subsystem: "run",
				Name:      "success_ratio",
				Help:      "Fraction of symbols that produced a record in the last run",
			},
		),
		MarketBearish: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "nse_pulse",
				Subsystem: "run",
				Name:      "market_bearish",
				Help:      "Whether the benchmark read bearish in the last run (1=bearish)",
			},
		),
		UpstreamRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "nse_pulse",
				Subsystem: "upstream",
				Name:      "requests_total",
				Help:      "Total number of upstream API requests",
			},
			[]string{"source", "operation"},
		),
		UpstreamErrorsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "nse_pulse",
				Subsystem: "upstream",
				Name:      "errors_total",
				Help:      "Total number of upstream API errors",
			},
			[]string{"source", "operation"},
		),
		UpstreamDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "nse_pulse",
				Subsystem: "upstream",
				Name:      "duration_seconds",
				Help:      "Duration of upstream API calls",
				Buckets:   defaultBuckets,
			},
			[]string{"source", "operation"},
		),
		CacheHitsTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: "nse_pulse",
				Subsystem: "cache",
				Name:      "hits_total",
				Help:      "Total number of result cache hits",
			},
		),
		CacheMissesTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: "nse_pulse",
				Subsystem: "cache",
				Name:      "misses_total",
				Help:      "Total number of result cache misses triggering a recompute",
			},
		),
		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "nse_pulse",
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "nse_pulse",
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "Duration of HTTP requests",
				Buckets:   defaultBuckets,
			},
			[]string{"method", "path"},
		),
		CircuitBreakerState: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "nse_pulse",
				Subsystem: "circuit_breaker",
				Name:      "state",
				Help:      "Circuit breaker state (0=closed, 1=half-open, 2=open)",
			},
			[]string{"source"},
		),
		CircuitBreakerTrips: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "nse_pulse",
				Subsystem: "circuit_breaker",
				Name:      "trips_total",
				Help:      "Total number of circuit breaker trips",
			},
			[]string{"source"},
		),
	}

	return m
}

// InitMetrics initializes the global metrics instance.
func InitMetrics() *Metrics {
	globalMetrics = NewMetrics(nil)
	return globalMetrics
}

// GetMetrics returns the global metrics instance, creating one on an
// isolated registry if InitMetrics was never called (tests).
func GetMetrics() *Metrics {
	if globalMetrics == nil {
		globalMetrics = NewMetrics(prometheus.NewRegistry())
	}
	return globalMetrics
}

// RecordSymbolFetch records a per-symbol fetch attempt.
func (m *Metrics) RecordSymbolFetch(symbol string) {
	m.SymbolFetchTotal.WithLabelValues(symbol).Inc()
}

// RecordSymbolError records a symbol dropped from the run.
func (m *Metrics) RecordSymbolError(symbol, reason string) {
	m.SymbolFetchErrors.WithLabelValues(symbol, reason).Inc()
}

// RecordRun records a completed pipeline run.
func (m *Metrics) RecordRun(status string, duration time.Duration, successRatio float64) {
	m.RunTotal.WithLabelValues(status).Inc()
	m.RunDuration.Observe(duration.Seconds())
	m.RunSuccessRatio.Set(successRatio)
}

// SetMarketBearish exports the benchmark trend flag.
func (m *Metrics) SetMarketBearish(bearish bool) {
	if bearish {
		m.MarketBearish.Set(1)
	} else {
		m.MarketBearish.Set(0)
	}
}

// RecordUpstreamRequest records an upstream API request.
func (m *Metrics) RecordUpstreamRequest(source, operation string) {
	m.UpstreamRequestsTotal.WithLabelValues(source, operation).Inc()
}

// RecordUpstreamError records an upstream API error.
func (m *Metrics) RecordUpstreamError(source, operation string) {
	m.UpstreamErrorsTotal.WithLabelValues(source, operation).Inc()
}

// RecordCacheHit records a result cache hit.
func (m *Metrics) RecordCacheHit() { m.CacheHitsTotal.Inc() }

// RecordCacheMiss records a result cache miss.
func (m *Metrics) RecordCacheMiss() { m.CacheMissesTotal.Inc() }

// RecordHTTPRequest records an HTTP request.
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// SetCircuitBreakerState sets the current state of a circuit breaker.
func (m *Metrics) SetCircuitBreakerState(source string, state int) {
	m.CircuitBreakerState.WithLabelValues(source).Set(float64(state))
}

// RecordCircuitBreakerTrip records a circuit breaker trip.
func (m *Metrics) RecordCircuitBreakerTrip(source string) {
	m.CircuitBreakerTrips.WithLabelValues(source).Inc()
}

// Timer is a helper for timing operations.
type Timer struct {
	start   time.Time
	metrics *Metrics
}

// NewTimer creates a new timer.
func (m *Metrics) NewTimer() *Timer {
	return &Timer{start: time.Now(), metrics: m}
}

// ObserveSymbol records the per-symbol fetch duration and status.
func (t *Timer) ObserveSymbol(symbol, status string) {
	t.metrics.SymbolFetchDuration.WithLabelValues(symbol, status).Observe(time.Since(t.start).Seconds())
}

// ObserveUpstream records the upstream call duration.
func (t *Timer) ObserveUpstream(source, operation string) {
	t.metrics.UpstreamDuration.WithLabelValues(source, operation).Observe(time.Since(t.start).Seconds())
}

// Duration returns the elapsed time.
func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}
