package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Record(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.CSVRows(3, 1)
	m.CSVRows(2, 0)
	m.ValidationResult("match")
	m.ValidationResult("match")
	m.ValidationResult("error")
	m.ArchiveEntry()
	m.Archive("success")
	m.ObserveDuration("parse", time.Now().Add(-time.Second))

	assert.Equal(t, 5.0, testutil.ToFloat64(m.csvRows.WithLabelValues("kept")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.csvRows.WithLabelValues("dropped")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.validationResults.WithLabelValues("match")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.archiveEntries))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.archives.WithLabelValues("success")))

	families, err := reg.Gather()
	require.NoError(t, err)
	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.ElementsMatch(t, []string{
		"qrforge_csv_rows_total",
		"qrforge_validation_results_total",
		"qrforge_archive_entries_total",
		"qrforge_archives_total",
		"qrforge_batch_duration_seconds",
	}, names)
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.CSVRows(1, 1)
		m.ValidationResult("match")
		m.ArchiveEntry()
		m.Archive("failed")
		m.ObserveDuration("export", time.Now())
	})
}

func TestNew_DuplicateRegistrationPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	New(reg)
	assert.Panics(t, func() { New(reg) })
}
