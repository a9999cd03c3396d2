// Package metrics exposes prometheus instruments for the metrics engine itself.
package metrics

import (
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

// Config carries the constant labels stamped onto every series.
type Config struct {
	ServiceName string
	Environment string
}

// HTTPMetrics captures request-level signals.
type HTTPMetrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// Metrics captures domain-level signals.
type Metrics struct {
	eventsIngested *prometheus.CounterVec
	rollupRuns     *prometheus.CounterVec
	rollupDuration prometheus.Observer
}

func constLabels(cfg Config) prometheus.Labels {
	serviceName := strings.TrimSpace(cfg.ServiceName)
	if serviceName == "" {
		serviceName = "upr-metrics"
	}
	environment := strings.TrimSpace(cfg.Environment)
	if environment == "" {
		environment = "unknown"
	}
	return prometheus.Labels{
		"service": serviceName,
		"env":     environment,
	}
}

func NewHTTPMetrics(cfg Config) *HTTPMetrics {
	return newHTTPMetrics(prometheus.DefaultRegisterer, cfg)
}

func newHTTPMetrics(registerer prometheus.Registerer, cfg Config) *HTTPMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	labels := constLabels(cfg)

	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "upr_http_requests_total",
		Help:        "HTTP requests by route and status.",
		ConstLabels: labels,
	}, []string{"method", "route", "status"})

	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:        "upr_http_request_duration_seconds",
		Help:        "HTTP request latency by route.",
		ConstLabels: labels,
		Buckets:     prometheus.DefBuckets,
	}, []string{"method", "route"})

	registerer.MustRegister(requests, duration)

	return &HTTPMetrics{requests: requests, duration: duration}
}

func New(cfg Config) *Metrics {
	return newMetrics(prometheus.DefaultRegisterer, cfg)
}

func newMetrics(registerer prometheus.Registerer, cfg Config) *Metrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	labels := constLabels(cfg)

	eventsIngested := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "upr_events_ingested_total",
		Help:        "Ingested events by kind.",
		ConstLabels: labels,
	}, []string{"kind"})

	rollupRuns := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "upr_rollup_runs_total",
		Help:        "Daily rollup runs by outcome.",
		ConstLabels: labels,
	}, []string{"outcome"})

	rollupDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:        "upr_rollup_duration_seconds",
		Help:        "Daily rollup run latency.",
		ConstLabels: labels,
		Buckets:     []float64{0.1, 0.5, 1, 5, 15, 60, 300},
	})

	registerer.MustRegister(eventsIngested, rollupRuns, rollupDuration)

	return &Metrics{
		eventsIngested: eventsIngested,
		rollupRuns:     rollupRuns,
		rollupDuration: rollupDuration,
	}
}

// IncEventIngested increments the ingest counter for one event kind
// (usage, performance, outreach).
func (m *Metrics) IncEventIngested(kind string) {
	if m == nil {
		return
	}
	m.eventsIngested.WithLabelValues(kind).Inc()
}

// ObserveRollupRun records outcome and duration of one rollup run.
func (m *Metrics) ObserveRollupRun(outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.rollupRuns.WithLabelValues(outcome).Inc()
	m.rollupDuration.Observe(elapsed.Seconds())
}

// GinMiddleware records request counts and latency per route.
func GinMiddleware(m *HTTPMetrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		if m == nil {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		method := c.Request.Method
		status := strconv.Itoa(c.Writer.Status())

		m.requests.WithLabelValues(method, route, status).Inc()
		m.duration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
	}
}
