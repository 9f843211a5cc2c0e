package metrics

import (
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

// HTTPMetrics exposes Prometheus request counters scraped from /metrics.
type HTTPMetrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
	errors   *prometheus.CounterVec
}

// OutboxMetrics tracks the event relay.
type OutboxMetrics struct {
	batches      *prometheus.CounterVec
	batchTime    *prometheus.HistogramVec
	backlog      prometheus.Gauge
	publishedEvt *prometheus.CounterVec
}

var (
	httpMetricsOnce sync.Once
	httpMetrics     *HTTPMetrics

	outboxMetricsOnce sync.Once
	outboxMetrics     *OutboxMetrics
)

// NewHTTPMetrics returns the process-wide HTTP metrics registered on the default registry.
func NewHTTPMetrics() *HTTPMetrics {
	httpMetricsOnce.Do(func() {
		httpMetrics = newHTTPMetrics(prometheus.DefaultRegisterer)
	})
	return httpMetrics
}

func newHTTPMetrics(registerer prometheus.Registerer) *HTTPMetrics {
	m := &HTTPMetrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "chirp_http_requests_total",
			Help: "Counts HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "chirp_http_request_duration_seconds",
			Help:    "HTTP request latency per method and route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "chirp_http_request_errors_total",
			Help: "Failed HTTP requests by error type.",
		}, []string{"route", "error_type", "reason"}),
	}
	registerer.MustRegister(m.requests, m.duration, m.errors)
	return m
}

// ObserveRequest records a request and its latency.
func (m *HTTPMetrics) ObserveRequest(method, route string, status int, duration time.Duration, err error) {
	if m == nil {
		return
	}
	route = sanitizeLabel(route)
	method = sanitizeLabel(strings.ToUpper(method))
	m.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.duration.WithLabelValues(method, route).Observe(duration.Seconds())
	if err != nil {
		errorType, reason := ClassifyError(err)
		m.errors.WithLabelValues(route, errorType, sanitizeLabel(reason)).Inc()
	}
}

// GinMiddleware records request metrics after handlers complete.
func (m *HTTPMetrics) GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		var err error
		if last := c.Errors.Last(); last != nil {
			err = last.Err
		}
		m.ObserveRequest(c.Request.Method, c.FullPath(), c.Writer.Status(), time.Since(start), err)
	}
}

// NewOutboxMetrics returns the process-wide relay metrics.
func NewOutboxMetrics() *OutboxMetrics {
	outboxMetricsOnce.Do(func() {
		outboxMetrics = newOutboxMetrics(prometheus.DefaultRegisterer)
	})
	return outboxMetrics
}

func newOutboxMetrics(registerer prometheus.Registerer) *OutboxMetrics {
	m := &OutboxMetrics{
		batches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "chirp_outbox_relay_batches_total",
			Help: "Counts relay batches by status.",
		}, []string{"status"}),
		batchTime: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "chirp_outbox_relay_duration_seconds",
			Help:    "Relay batch durations.",
			Buckets: prometheus.DefBuckets,
		}, []string{"status"}),
		backlog: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "chirp_outbox_backlog",
			Help: "Number of unpublished events in the outbox.",
		}),
		publishedEvt: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "chirp_outbox_events_published_total",
			Help: "Events published by type.",
		}, []string{"event_type"}),
	}
	registerer.MustRegister(m.batches, m.batchTime, m.backlog, m.publishedEvt)
	return m
}

// RecordBatch registers relay batch metrics.
func (m *OutboxMetrics) RecordBatch(status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.batches.WithLabelValues(sanitizeLabel(status)).Inc()
	m.batchTime.WithLabelValues(sanitizeLabel(status)).Observe(duration.Seconds())
}

func (m *OutboxMetrics) RecordPublished(eventType string) {
	if m == nil {
		return
	}
	m.publishedEvt.WithLabelValues(sanitizeLabel(eventType)).Inc()
}

// SetBacklog updates the backlog gauge.
func (m *OutboxMetrics) SetBacklog(value float64) {
	if m == nil {
		return
	}
	m.backlog.Set(value)
}

func sanitizeLabel(val string) string {
	if strings.TrimSpace(val) == "" {
		return "unknown"
	}
	return val
}
