// Package observability holds the logger and the process-wide prometheus collectors.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	recordPersistGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "babylog",
		Subsystem: "persistence",
		Name:      "last_record_persisted_timestamp_seconds",
		Help:      "Unix timestamp of the most recent activity record written to the store.",
	})
	summaryMaterializedGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "babylog",
		Subsystem: "persistence",
		Name:      "last_summary_materialized_timestamp_seconds",
		Help:      "Unix timestamp of the most recent daily summary upsert.",
	})
	reportsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "babylog",
		Subsystem: "aggregate",
		Name:      "reports_total",
		Help:      "Day reports and range summaries computed, by operation.",
	}, []string{"operation"})
	malformedRecordsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "babylog",
		Subsystem: "aggregate",
		Name:      "malformed_records_total",
		Help:      "Aggregations aborted because a record could not be normalized.",
	})
	reportDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "babylog",
		Subsystem: "aggregate",
		Name:      "report_duration_seconds",
		Help:      "Time spent loading and aggregating records for a report.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"operation"})
)

func init() {
	prometheus.MustRegister(recordPersistGauge, summaryMaterializedGauge, reportsTotal, malformedRecordsTotal, reportDuration)
}

// RecordPersisted updates the persistence watermark gauge.
func RecordPersisted(ts time.Time) {
	if ts.IsZero() {
		return
	}
	recordPersistGauge.Set(float64(ts.Unix()))
}

// SummaryMaterialized updates the materialization watermark gauge.
func SummaryMaterialized(ts time.Time) {
	if ts.IsZero() {
		return
	}
	summaryMaterializedGauge.Set(float64(ts.Unix()))
}

// ObserveReport records one aggregation run.
func ObserveReport(operation string, started time.Time) {
	reportsTotal.WithLabelValues(operation).Inc()
	reportDuration.WithLabelValues(operation).Observe(time.Since(started).Seconds())
}

// RecordMalformed counts an aggregation aborted by a malformed record.
func RecordMalformed() {
	malformedRecordsTotal.Inc()
}
