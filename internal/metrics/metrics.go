// Package metrics holds the prometheus collectors for outbound wallet RPC
// calls and the simulator's HTTP surface.
package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "sentra_wallet"

type Metrics struct {
	RPCRequestsTotal   *prometheus.CounterVec
	RPCRequestDuration *prometheus.HistogramVec
	RPCAttempts        *prometheus.HistogramVec

	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// simulator activity
	PermissionsGranted prometheus.Counter
	BundlesPrepared    prometheus.Counter
	BundlesSent        prometheus.Counter
}

// New creates the collectors and registers them with reg. Pass
// prometheus.NewRegistry() in tests to keep them isolated.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		RPCRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "rpc_requests_total",
				Help:      "Wallet JSON-RPC requests by method and outcome.",
			},
			[]string{"method", "status"},
		),
		RPCRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "rpc_request_duration_seconds",
				Help:      "Wallet JSON-RPC latency including retries.",
				Buckets:   []float64{0.05, 0.1, 0.3, 0.5, 1.0, 2.0, 5.0},
			},
			[]string{"method"},
		),
		RPCAttempts: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "rpc_request_attempts",
				Help:      "Attempts made per wallet JSON-RPC request.",
				Buckets:   []float64{1, 2, 3, 4, 6},
			},
			[]string{"method"},
		),
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests.",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request latency distributions.",
				Buckets:   []float64{0.1, 0.3, 0.5, 1.0, 2.0, 5.0},
			},
			[]string{"method", "path"},
		),
		PermissionsGranted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sim_permissions_granted_total",
			Help:      "Permissions granted by the simulator.",
		}),
		BundlesPrepared: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sim_bundles_prepared_total",
			Help:      "Call bundles prepared by the simulator.",
		}),
		BundlesSent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sim_bundles_sent_total",
			Help:      "Prepared bundles submitted to the simulator.",
		}),
	}
	if reg != nil {
		reg.MustRegister(
			m.RPCRequestsTotal, m.RPCRequestDuration, m.RPCAttempts,
			m.HTTPRequestsTotal, m.HTTPRequestDuration,
			m.PermissionsGranted, m.BundlesPrepared, m.BundlesSent,
		)
	}
	return m
}

// ObserveRequest satisfies rpc.Metrics.
func (m *Metrics) ObserveRequest(method, status string, attempts int, d time.Duration) {
	m.RPCRequestsTotal.WithLabelValues(method, status).Inc()
	m.RPCRequestDuration.WithLabelValues(method).Observe(d.Seconds())
	m.RPCAttempts.WithLabelValues(method).Observe(float64(attempts))
}

// Middleware records gin request counts and latency by route template.
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.FullPath()

		c.Next()

		// unmatched routes would blow up label cardinality
		if path == "" {
			return
		}
		status := strconv.Itoa(c.Writer.Status())
		m.HTTPRequestsTotal.WithLabelValues(c.Request.Method, path, status).Inc()
		m.HTTPRequestDuration.WithLabelValues(c.Request.Method, path).Observe(time.Since(start).Seconds())
	}
}
