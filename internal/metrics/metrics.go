package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"
)

var (
	// Ingestion metrics
	IngestedRecordsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sitepulse_ingested_records_total",
			Help: "Total number of ingestion attempts by record kind and outcome",
		},
		[]string{"kind", "status"},
	)

	// Query metrics
	QueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sitepulse_query_duration_seconds",
			Help:    "Duration of dashboard queries in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"query"},
	)

	// Retention metrics
	RetentionDeletedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sitepulse_retention_deleted_total",
			Help: "Total number of records removed by the retention sweep",
		},
		[]string{"table"},
	)
)

// Ingestion outcomes
const (
	StatusCreated = "created"
	StatusInvalid = "invalid"
	StatusError   = "error"
)

// ObserveQuery records the time elapsed since start for the named query.
func ObserveQuery(query string, start time.Time) {
	QueryDuration.WithLabelValues(query).Observe(time.Since(start).Seconds())
}

// ObservedQueries returns how many durations have been recorded for the named
// query since the process started.
func ObservedQueries(query string) uint64 {
	histogram, ok := QueryDuration.WithLabelValues(query).(prometheus.Histogram)
	if !ok {
		return 0
	}
	var m dto.Metric
	if err := histogram.Write(&m); err != nil {
		return 0
	}
	return m.GetHistogram().GetSampleCount()
}
