// Package metrics exposes Prometheus instruments for index builds and queries.
//
// Usage:
//
//	defer metrics.ObserveBuild(time.Now(), err)
//	metrics.RecordQuery("recommend", "ok", time.Since(start))
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// BuildsTotal counts finished builds by outcome.
	BuildsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommender_builds_total",
			Help: "Total number of index builds",
		},
		[]string{"outcome"},
	)

	// BuildDuration tracks how long a full build takes.
	BuildDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "recommender_build_duration_seconds",
			Help:    "Duration of index builds in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
	)

	// CatalogItems is the number of items in the most recent build.
	CatalogItems = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "recommender_catalog_items",
			Help: "Number of items in the built catalog",
		},
	)

	// DroppedRecords counts records discarded by the normalizer.
	DroppedRecords = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommender_dropped_records_total",
			Help: "Total number of source records dropped during normalization",
		},
		[]string{"reason"},
	)

	// MatrixBytes is the size of the most recent similarity matrix.
	MatrixBytes = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "recommender_similarity_matrix_bytes",
			Help: "Memory held by the similarity matrix",
		},
	)

	// QueriesTotal counts queries by operation and outcome.
	QueriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommender_queries_total",
			Help: "Total number of engine queries",
		},
		[]string{"operation", "outcome"},
	)

	// QueryDuration tracks query latency.
	QueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "recommender_query_duration_seconds",
			Help:    "Duration of engine queries in seconds",
			Buckets: []float64{0.00001, 0.0001, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
		},
		[]string{"operation"},
	)
)

// ObserveBuild records the outcome and duration of a build started at start.
func ObserveBuild(start time.Time, err error) {
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	BuildsTotal.WithLabelValues(outcome).Inc()
	BuildDuration.Observe(time.Since(start).Seconds())
}

// RecordCatalog publishes the shape of a finished build.
func RecordCatalog(items int, dropped map[string]int, matrixBytes int64) {
	CatalogItems.Set(float64(items))
	MatrixBytes.Set(float64(matrixBytes))
	for reason, n := range dropped {
		DroppedRecords.WithLabelValues(reason).Add(float64(n))
	}
}

// RecordQuery records one query.
func RecordQuery(operation, outcome string, d time.Duration) {
	QueriesTotal.WithLabelValues(operation, outcome).Inc()
	QueryDuration.WithLabelValues(operation).Observe(d.Seconds())
}
