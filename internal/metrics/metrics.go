// Package metrics defines the Prometheus collectors for batch processing.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "qrforge"

// Metrics holds the batch collectors. A nil *Metrics is valid and records
// nothing, so callers never need to guard.
type Metrics struct {
	csvRows           *prometheus.CounterVec
	validationResults *prometheus.CounterVec
	archiveEntries    prometheus.Counter
	archives          *prometheus.CounterVec
	batchDuration     *prometheus.HistogramVec
}

// New creates the collectors and registers them on reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		csvRows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "csv_rows_total",
			Help:      "CSV data rows seen by ingest, by whether they were kept or dropped.",
		}, []string{"status"}),
		validationResults: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "validation_results_total",
			Help:      "Validation records produced, by outcome.",
		}, []string{"outcome"}),
		archiveEntries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "archive_entries_total",
			Help:      "Image entries written into archives.",
		}),
		archives: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "archives_total",
			Help:      "Archive requests, by final status.",
		}, []string{"status"}),
		batchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "batch_duration_seconds",
			Help:      "Duration of batch operations.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 14),
		}, []string{"op"}),
	}

	reg.MustRegister(m.csvRows, m.validationResults, m.archiveEntries, m.archives, m.batchDuration)
	return m
}

// CSVRows counts kept and dropped rows from one ingest.
func (m *Metrics) CSVRows(kept, dropped int) {
	if m == nil {
		return
	}
	m.csvRows.WithLabelValues("kept").Add(float64(kept))
	m.csvRows.WithLabelValues("dropped").Add(float64(dropped))
}

// ValidationResult counts one validation record. Outcome is a short label
// such as "match", "mismatch" or "error".
func (m *Metrics) ValidationResult(outcome string) {
	if m == nil {
		return
	}
	m.validationResults.WithLabelValues(outcome).Inc()
}

// ArchiveEntry counts one written archive entry.
func (m *Metrics) ArchiveEntry() {
	if m == nil {
		return
	}
	m.archiveEntries.Inc()
}

// Archive counts one archive request by status: success, cancelled or failed.
func (m *Metrics) Archive(status string) {
	if m == nil {
		return
	}
	m.archives.WithLabelValues(status).Inc()
}

// ObserveDuration records how long op took since start.
func (m *Metrics) ObserveDuration(op string, start time.Time) {
	if m == nil {
		return
	}
	m.batchDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}
