// Package metrics provides Prometheus metrics for the Bramble service.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// MutationsTotal tracks record mutations by record type and operation
	MutationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "bramble",
			Subsystem: "store",
			Name:      "mutations_total",
			Help:      "Total number of record mutations by record type, operation, and status",
		},
		[]string{"record_type", "operation", "status"},
	)

	// QueryDuration tracks repository query duration in seconds
	QueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "bramble",
			Subsystem: "store",
			Name:      "query_duration_seconds",
			Help:      "Duration of repository queries in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		},
		[]string{"record_type", "operation"},
	)

	// ListResultSize tracks how many rows list queries return
	ListResultSize = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "bramble",
			Subsystem: "store",
			Name:      "list_result_size",
			Help:      "Number of rows returned by list queries",
			Buckets:   []float64{0, 1, 5, 10, 25, 50, 100, 250, 500},
		},
		[]string{"record_type"},
	)

	// KafkaMessagesPublished tracks record events published to Kafka
	KafkaMessagesPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "bramble",
			Subsystem: "kafka",
			Name:      "messages_published_total",
			Help:      "Total number of record events published to Kafka",
		},
		[]string{"event_type", "status"},
	)
)

// RecordMutation records a mutation metric
func RecordMutation(recordType, operation, status string) {
	MutationsTotal.WithLabelValues(recordType, operation, status).Inc()
}

// RecordQuery records a repository query duration
func RecordQuery(recordType, operation string, durationSeconds float64) {
	QueryDuration.WithLabelValues(recordType, operation).Observe(durationSeconds)
}

// TimeQuery returns a stop function that observes the elapsed duration:
//
//	defer metrics.TimeQuery("contact", "list")()
func TimeQuery(recordType, operation string) func() {
	start := time.Now()
	return func() {
		QueryDuration.WithLabelValues(recordType, operation).Observe(time.Since(start).Seconds())
	}
}

// RecordListResult records the size of a list query result
func RecordListResult(recordType string, size int) {
	ListResultSize.WithLabelValues(recordType).Observe(float64(size))
}

// RecordKafkaPublish records a Kafka publish attempt
func RecordKafkaPublish(eventType, status string) {
	KafkaMessagesPublished.WithLabelValues(eventType, status).Inc()
}
