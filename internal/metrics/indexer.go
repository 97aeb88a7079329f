// Package metrics exposes Prometheus collectors for the indexer.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Document outcomes.
const (
	StatusIndexed = "indexed"
	StatusSkipped = "skipped"
	StatusFailed  = "failed"
	StatusLearned = "learned"
)

// Indexer holds the counters recorded during indexing passes. A nil *Indexer
// records nothing.
type Indexer struct {
	registry *prometheus.Registry

	documentsTotal   *prometheus.CounterVec
	batchesTotal     *prometheus.CounterVec
	batchDuration    prometheus.Histogram
	publishTotal     *prometheus.CounterVec
	passesTotal      *prometheus.CounterVec
	lastPassDocument prometheus.Gauge
}

// NewIndexer creates the indexer collectors and registers them with registry.
func NewIndexer(registry *prometheus.Registry) (*Indexer, error) {
	m := &Indexer{
		registry: registry,
		documentsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "annif_indexer_documents_total",
			Help: "Corpus documents processed, by project and outcome",
		}, []string{"project", "status"}),
		batchesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "annif_indexer_batches_total",
			Help: "Suggest-batch requests sent, by project and status",
		}, []string{"project", "status"}),
		batchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "annif_indexer_batch_duration_seconds",
			Help:    "Time taken by suggest-batch requests",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
		}),
		publishTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "annif_indexer_publish_total",
			Help: "Suggestion events handed to publishers, by status",
		}, []string{"status"}),
		passesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "annif_indexer_passes_total",
			Help: "Indexing passes run, by status",
		}, []string{"status"}),
		lastPassDocument: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "annif_indexer_last_pass_documents",
			Help: "Documents submitted during the most recent pass",
		}),
	}

	for _, c := range []prometheus.Collector{
		m.documentsTotal, m.batchesTotal, m.batchDuration,
		m.publishTotal, m.passesTotal, m.lastPassDocument,
	} {
		if err := registry.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// RecordDocument counts one document outcome.
func (m *Indexer) RecordDocument(project, status string) {
	if m == nil {
		return
	}
	m.documentsTotal.WithLabelValues(project, status).Inc()
}

// RecordBatch counts one suggest-batch request and its latency.
func (m *Indexer) RecordBatch(project string, elapsed time.Duration, err error) {
	if m == nil {
		return
	}
	m.batchesTotal.WithLabelValues(project, statusOf(err)).Inc()
	m.batchDuration.Observe(elapsed.Seconds())
}

// RecordPublish counts one event fan-out.
func (m *Indexer) RecordPublish(err error) {
	if m == nil {
		return
	}
	m.publishTotal.WithLabelValues(statusOf(err)).Inc()
}

// RecordPass counts one indexing pass and the documents it submitted.
func (m *Indexer) RecordPass(submitted int, err error) {
	if m == nil {
		return
	}
	m.passesTotal.WithLabelValues(statusOf(err)).Inc()
	m.lastPassDocument.Set(float64(submitted))
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Indexer) Handler() http.Handler {
	if m == nil || m.registry == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		ErrorHandling: promhttp.HTTPErrorOnError,
	})
}

func statusOf(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
