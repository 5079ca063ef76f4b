package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Ingestion Prometheus metrics.
var (
	RowsReadTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ingest_rows_read_total",
			Help:      "CSV rows read",
		},
	)

	RowsRejectedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ingest_rows_rejected_total",
			Help:      "CSV rows skipped because they could not be parsed",
		},
		[]string{"reason"},
	)

	DocumentsEmbeddedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ingest_documents_embedded_total",
			Help:      "Documents embedded per index",
		},
		[]string{"index"},
	)

	VectorsUpsertedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ingest_vectors_upserted_total",
			Help:      "Vectors written per index and namespace",
		},
		[]string{"index", "namespace"},
	)

	UpsertDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "ingest_upsert_duration_seconds",
			Help:      "Duration of a pipelined upsert",
			Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"index"},
	)

	IndexVectorCount = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "index_vector_count",
			Help:      "Vector count last reported by the index",
		},
		[]string{"index"},
	)
)

var ingestMetricsOnce sync.Once

// RegisterIngestMetrics registers the ingestion collectors with the default registry.
// Repeated calls are no-ops.
func RegisterIngestMetrics() {
	ingestMetricsOnce.Do(func() {
		prometheus.MustRegister(
			RowsReadTotal,
			RowsRejectedTotal,
			DocumentsEmbeddedTotal,
			VectorsUpsertedTotal,
			UpsertDuration,
			IndexVectorCount,
		)
	})
}
