// Package metrics defines the Prometheus metric collectors used across the
// platform and exposes an HTTP handler for scraping.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus collectors for the overlap pipeline.
type Metrics struct {
	DocumentsScannedTotal prometheus.Counter
	BytesScannedTotal     prometheus.Counter
	NgramsProbedTotal     *prometheus.CounterVec
	NgramMatchesTotal     *prometheus.CounterVec
	EntriesMarkedTotal    *prometheus.CounterVec
	FilesScannedTotal     *prometheus.CounterVec
	ScanDuration          prometheus.Histogram
	IndexNgramCount       *prometheus.GaugeVec
	IndexBuildDuration    prometheus.Histogram
	KafkaMessagesTotal    *prometheus.CounterVec
	SummaryFlushesTotal   *prometheus.CounterVec
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	m := &Metrics{
		DocumentsScannedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "overlap_documents_scanned_total",
				Help: "Total training documents scanned.",
			},
		),
		BytesScannedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "overlap_bytes_scanned_total",
				Help: "Total bytes of training document text scanned.",
			},
		),
		NgramsProbedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "overlap_ngrams_probed_total",
				Help: "Total document n-grams probed against the index, by n.",
			},
			[]string{"n"},
		),
		NgramMatchesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "overlap_ngram_matches_total",
				Help: "Total document n-grams that hit an index bucket, by n.",
			},
			[]string{"n"},
		),
		EntriesMarkedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "overlap_entries_marked_total",
				Help: "Total overlap flag writes, by part (input, reference).",
			},
			[]string{"part"},
		),
		FilesScannedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "overlap_files_scanned_total",
				Help: "Total corpus files processed, by status (ok, error, skipped).",
			},
			[]string{"status"},
		),
		ScanDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "overlap_scan_duration_seconds",
				Help:    "Wall-clock duration of corpus file scans in seconds.",
				Buckets: []float64{0.1, 0.5, 1, 5, 15, 60, 300, 1800, 7200},
			},
		),
		IndexNgramCount: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "overlap_index_ngram_count",
				Help: "Number of distinct benchmark n-grams in the reverse index, by n.",
			},
			[]string{"n"},
		),
		IndexBuildDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "overlap_index_build_duration_seconds",
				Help:    "Time spent building the benchmark reverse index.",
				Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 15, 60},
			},
		),
		KafkaMessagesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "overlap_kafka_messages_total",
				Help: "Total Kafka document messages consumed, by status (ok, decode_error).",
			},
			[]string{"status"},
		),
		SummaryFlushesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "overlap_summary_flushes_total",
				Help: "Total summary flushes to the results store, by status.",
			},
			[]string{"status"},
		),
	}

	prometheus.MustRegister(
		m.DocumentsScannedTotal,
		m.BytesScannedTotal,
		m.NgramsProbedTotal,
		m.NgramMatchesTotal,
		m.EntriesMarkedTotal,
		m.FilesScannedTotal,
		m.ScanDuration,
		m.IndexNgramCount,
		m.IndexBuildDuration,
		m.KafkaMessagesTotal,
		m.SummaryFlushesTotal,
	)

	return m
}

// Handler returns the Prometheus scrape HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
