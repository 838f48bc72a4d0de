package metrics

import (
	"bufio"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sony/gobreaker/v2"

	"github.com/kirillkom/compliance-assistant/internal/core/domain"
)

type HTTPServerMetrics struct {
	registry *prometheus.Registry
	service  string

	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestInFlight prometheus.Gauge

	queriesTotal       *prometheus.CounterVec
	queryDuration      *prometheus.HistogramVec
	degradedTotal      *prometheus.CounterVec
	lexicalIndexSize   prometheus.Gauge
	indexRebuildsTotal *prometheus.CounterVec
	breakerState       *prometheus.GaugeVec
	rateLimitedTotal   prometheus.Counter
}

func NewHTTPServerMetrics(service string) *HTTPServerMetrics {
	registry := prometheus.NewRegistry()
	serviceLabel := prometheus.Labels{"service": service}

	requestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "compliance",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests processed.",
		},
		[]string{"service", "method", "path", "status"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "compliance",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "method", "path"},
	)
	requestInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace:   "compliance",
			Subsystem:   "http",
			Name:        "in_flight_requests",
			Help:        "Number of in-flight HTTP requests.",
			ConstLabels: serviceLabel,
		},
	)
	queriesTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "compliance",
			Subsystem: "query",
			Name:      "executions_total",
			Help:      "Executed questions by route, backend and cache use.",
		},
		[]string{"service", "route", "backend", "cached"},
	)
	queryDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "compliance",
			Subsystem: "query",
			Name:      "duration_seconds",
			Help:      "Question execution duration in seconds by route.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"service", "route"},
	)
	degradedTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "compliance",
			Subsystem: "fusion",
			Name:      "degraded_total",
			Help:      "RAG executions that fell back to a partial or lexical-only ranking.",
		},
		[]string{"service", "reason"},
	)
	lexicalIndexSize := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace:   "compliance",
			Subsystem:   "fusion",
			Name:        "lexical_index_documents",
			Help:        "Documents in the active lexical index.",
			ConstLabels: serviceLabel,
		},
	)
	indexRebuildsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "compliance",
			Subsystem: "fusion",
			Name:      "index_rebuilds_total",
			Help:      "Lexical index rebuilds by status.",
		},
		[]string{"service", "status"},
	)
	breakerState := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "compliance",
			Subsystem: "resilience",
			Name:      "circuit_breaker_state",
			Help:      "Circuit breaker state per operation (0 closed, 1 half-open, 2 open).",
		},
		[]string{"service", "operation"},
	)
	rateLimitedTotal := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace:   "compliance",
			Subsystem:   "http",
			Name:        "rejected_requests_total",
			Help:        "Requests rejected by rate limiting or backpressure.",
			ConstLabels: serviceLabel,
		},
	)

	registry.MustRegister(
		requestTotal,
		requestDuration,
		requestInFlight,
		queriesTotal,
		queryDuration,
		degradedTotal,
		lexicalIndexSize,
		indexRebuildsTotal,
		breakerState,
		rateLimitedTotal,
	)

	return &HTTPServerMetrics{
		registry:           registry,
		service:            service,
		requestTotal:       requestTotal,
		requestDuration:    requestDuration,
		requestInFlight:    requestInFlight,
		queriesTotal:       queriesTotal,
		queryDuration:      queryDuration,
		degradedTotal:      degradedTotal,
		lexicalIndexSize:   lexicalIndexSize,
		indexRebuildsTotal: indexRebuildsTotal,
		breakerState:       breakerState,
		rateLimitedTotal:   rateLimitedTotal,
	}
}

func (m *HTTPServerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *HTTPServerMetrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		path := normalizePath(r.URL.Path)
		recorder := &statusRecorder{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		m.requestInFlight.Inc()
		defer m.requestInFlight.Dec()

		next.ServeHTTP(recorder, r)

		m.requestTotal.WithLabelValues(
			m.service,
			r.Method,
			path,
			strconv.Itoa(recorder.statusCode),
		).Inc()
		m.requestDuration.WithLabelValues(m.service, r.Method, path).Observe(time.Since(start).Seconds())
	})
}

func normalizePath(path string) string {
	switch {
	case strings.HasPrefix(path, "/v1/documents/"):
		return "/v1/documents/{document_id}"
	case strings.HasPrefix(path, "/mcp"):
		return "/mcp"
	default:
		return path
	}
}

func (m *HTTPServerMetrics) ObserveQuery(route domain.RouteKind, backend domain.BackendTag, cached bool, duration time.Duration) {
	m.queriesTotal.WithLabelValues(m.service, string(route), string(backend), strconv.FormatBool(cached)).Inc()
	m.queryDuration.WithLabelValues(m.service, string(route)).Observe(duration.Seconds())
}

func (m *HTTPServerMetrics) ObserveDegraded(reason string) {
	if reason == "" {
		reason = "unknown"
	}
	m.degradedTotal.WithLabelValues(m.service, reason).Inc()
}

// RecordIndexRebuild counts a rebuild and, on success, publishes the new index size.
func (m *HTTPServerMetrics) RecordIndexRebuild(documents int, err error) {
	if err != nil {
		m.indexRebuildsTotal.WithLabelValues(m.service, "error").Inc()
		return
	}
	m.indexRebuildsTotal.WithLabelValues(m.service, "success").Inc()
	m.lexicalIndexSize.Set(float64(documents))
}

// ObserveBreakerState matches resilience.StateListener.
func (m *HTTPServerMetrics) ObserveBreakerState(operation string, to gobreaker.State) {
	m.breakerState.WithLabelValues(m.service, operation).Set(float64(to))
}

func (m *HTTPServerMetrics) RecordRejected() {
	m.rateLimitedTotal.Inc()
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (w *statusRecorder) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *statusRecorder) Flush() {
	flusher, ok := w.ResponseWriter.(http.Flusher)
	if ok {
		flusher.Flush()
	}
}

func (w *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hijacker, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not implement http.Hijacker")
	}
	return hijacker.Hijack()
}

func (w *statusRecorder) Push(target string, opts *http.PushOptions) error {
	pusher, ok := w.ResponseWriter.(http.Pusher)
	if !ok {
		return http.ErrNotSupported
	}
	return pusher.Push(target, opts)
}
