package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const metricsNamespace = "filegate"

// Metrics holds a private Prometheus registry with the gateway's HTTP and
// operation metrics.
type Metrics struct {
	reg         *prometheus.Registry
	inflight    prometheus.Gauge
	requests    *prometheus.CounterVec
	latency     *prometheus.HistogramVec
	uploadBytes prometheus.Counter
	presigns    *prometheus.CounterVec
}

// NewMetrics creates a Metrics instance with a fresh registry and registers collectors.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		reg: reg,
		inflight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of inflight HTTP requests.",
		}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests processed, partitioned by route, method and status code.",
		}, []string{"route", "method", "code"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Histogram of latencies for HTTP requests.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method", "code"}),
		uploadBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "upload_bytes_total",
			Help:      "Bytes accepted by successful uploads.",
		}),
		presigns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "presigned_urls_total",
			Help:      "Download URLs requested, partitioned by result.",
		}, []string{"result"}),
	}

	reg.MustRegister(m.inflight, m.requests, m.latency, m.uploadBytes, m.presigns)

	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{})
}

// Registry returns the underlying Prometheus registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.reg
}

// Middleware records inflight requests, request counts and latencies. The
// route label is the chi pattern so object names never become labels. A
// handler that panics, such as an aborted list stream, is counted with code
// "aborted" before the panic continues.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		m.inflight.Inc()

		rec := &responseRecorder{ResponseWriter: w, status: http.StatusOK}
		completed := false

		defer func() {
			m.inflight.Dec()

			route := "unmatched"
			if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
				route = rctx.RoutePattern()
			}
			code := strconv.Itoa(rec.status)
			if !completed {
				code = "aborted"
			}

			m.requests.WithLabelValues(route, r.Method, code).Inc()
			m.latency.WithLabelValues(route, r.Method, code).Observe(time.Since(start).Seconds())
		}()

		next.ServeHTTP(rec, r)
		completed = true
	})
}

func (m *Metrics) observeUpload(size int64) {
	if m == nil {
		return
	}
	m.uploadBytes.Add(float64(size))
}

func (m *Metrics) observePresign(result string) {
	if m == nil {
		return
	}
	m.presigns.WithLabelValues(result).Inc()
}
