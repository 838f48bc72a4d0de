package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kirillkom/compliance-assistant/internal/core/domain"
)

const unknownCollection = "unknown"

// WorkerMetrics tracks the ingest pipeline per target collection. A document is
// searchable only once its chunks are indexed and the corpus-changed event has
// reached the API instances, so both steps are exported.
type WorkerMetrics struct {
	registry *prometheus.Registry

	processTotal    *prometheus.CounterVec
	processDuration *prometheus.HistogramVec
	processInFlight prometheus.Gauge
	queueLag        *prometheus.HistogramVec
	chunksIndexed   *prometheus.CounterVec
	corpusPublished *prometheus.CounterVec
}

func NewWorkerMetrics(service string) *WorkerMetrics {
	registry := prometheus.NewRegistry()
	registerer := prometheus.WrapRegistererWith(prometheus.Labels{"service": service}, registry)

	m := &WorkerMetrics{
		registry: registry,
		processTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "compliance",
				Subsystem: "worker",
				Name:      "document_process_total",
				Help:      "Processed documents by collection and final status.",
			},
			[]string{"collection", "status"},
		),
		processDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "compliance",
				Subsystem: "worker",
				Name:      "document_process_duration_seconds",
				Help:      "Extract, chunk, embed and index duration by collection and final status.",
				Buckets:   []float64{0.5, 1, 2, 5, 10, 30, 60, 120, 300},
			},
			[]string{"collection", "status"},
		),
		processInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "compliance",
				Subsystem: "worker",
				Name:      "document_process_in_flight",
				Help:      "Documents currently being processed.",
			},
		),
		queueLag: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "compliance",
				Subsystem: "worker",
				Name:      "queue_lag_seconds",
				Help:      "Delay between upload and processing start by collection.",
				Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120, 300, 600},
			},
			[]string{"collection"},
		),
		chunksIndexed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "compliance",
				Subsystem: "worker",
				Name:      "chunks_indexed_total",
				Help:      "Evidence chunks written to the vector store by collection.",
			},
			[]string{"collection"},
		),
		corpusPublished: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "compliance",
				Subsystem: "worker",
				Name:      "corpus_changed_publish_total",
				Help:      "Corpus-changed announcements by collection and outcome.",
			},
			[]string{"collection", "outcome"},
		),
	}

	registerer.MustRegister(
		m.processTotal,
		m.processDuration,
		m.processInFlight,
		m.queueLag,
		m.chunksIndexed,
		m.corpusPublished,
	)
	return m
}

func (m *WorkerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *WorkerMetrics) StartDocument() {
	m.processInFlight.Inc()
}

func (m *WorkerMetrics) FinishDocument(collection string, duration time.Duration, err error) {
	m.processInFlight.Dec()

	status := string(domain.StatusReady)
	if err != nil {
		status = string(domain.StatusFailed)
	}
	collection = collectionLabel(collection)
	m.processTotal.WithLabelValues(collection, status).Inc()
	m.processDuration.WithLabelValues(collection, status).Observe(duration.Seconds())
}

func (m *WorkerMetrics) ObserveQueueLag(collection string, lag time.Duration) {
	if lag < 0 {
		return
	}
	m.queueLag.WithLabelValues(collectionLabel(collection)).Observe(lag.Seconds())
}

func (m *WorkerMetrics) ObserveIndexed(collection string, chunks int) {
	if chunks <= 0 {
		return
	}
	m.chunksIndexed.WithLabelValues(collectionLabel(collection)).Add(float64(chunks))
}

// ObserveCorpusPublish records whether API instances were told to rebuild. A
// failed publish leaves their lexical index stale until the next event.
func (m *WorkerMetrics) ObserveCorpusPublish(collection string, err error) {
	outcome := "published"
	if err != nil {
		outcome = "failed"
	}
	m.corpusPublished.WithLabelValues(collectionLabel(collection), outcome).Inc()
}

func collectionLabel(collection string) string {
	if collection == "" {
		return unknownCollection
	}
	return collection
}
