package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "vault_ledger"

// Metrics holds the ledger collectors and the registry they are exposed from.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	Registry *prometheus.Registry

	transactionsPosted   *prometheus.CounterVec
	transactionsRejected *prometheus.CounterVec
	revaluationRuns      *prometheus.CounterVec
	revaluationDuration  prometheus.Histogram
	httpRequests         *prometheus.CounterVec
	httpDuration         *prometheus.HistogramVec
}

// New creates the collectors on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		transactionsPosted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "ledger",
				Name:      "transactions_posted_total",
				Help:      "Ledger transactions committed, by type.",
			},
			[]string{"type"},
		),
		transactionsRejected: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "ledger",
				Name:      "transactions_rejected_total",
				Help:      "Postings rejected before commit, by reason.",
			},
			[]string{"reason"},
		),
		revaluationRuns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "vault",
				Name:      "revaluations_total",
				Help:      "Vault revaluation runs, by outcome.",
			},
			[]string{"status"},
		),
		revaluationDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "vault",
				Name:      "revaluation_duration_seconds",
				Help:      "Duration of one vault revaluation.",
				Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12),
			},
		),
		httpRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "Total number of HTTP requests handled.",
			},
			[]string{"method", "path", "status"},
		),
		httpDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "Duration of HTTP requests.",
				Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10),
			},
			[]string{"method", "path"},
		),
	}

	m.Registry.MustRegister(
		m.transactionsPosted,
		m.transactionsRejected,
		m.revaluationRuns,
		m.revaluationDuration,
		m.httpRequests,
		m.httpDuration,
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
	)
	return m
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}

// TransactionPosted counts a committed transaction.
func (m *Metrics) TransactionPosted(txType string) {
	if m == nil {
		return
	}
	m.transactionsPosted.WithLabelValues(txType).Inc()
}

// TransactionRejected counts a posting that failed validation or storage.
func (m *Metrics) TransactionRejected(reason string) {
	if m == nil {
		return
	}
	m.transactionsRejected.WithLabelValues(reason).Inc()
}

// RevaluationObserved records one vault revaluation.
func (m *Metrics) RevaluationObserved(status string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.revaluationRuns.WithLabelValues(status).Inc()
	m.revaluationDuration.Observe(elapsed.Seconds())
}

// GinMiddleware records request count and latency per route template.
func (m *Metrics) GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if m == nil || c.Request.URL.Path == "/metrics" {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		m.httpRequests.WithLabelValues(c.Request.Method, path, strconv.Itoa(c.Writer.Status())).Inc()
		m.httpDuration.WithLabelValues(c.Request.Method, path).Observe(time.Since(start).Seconds())
	}
}
