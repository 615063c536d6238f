package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// ImportMetrics tracks bulk import batch outcomes per import kind.
type ImportMetrics struct {
	batches  *prometheus.CounterVec
	rows     *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewImportMetrics registers the import metrics on the provided registerer.
func NewImportMetrics(reg prometheus.Registerer) *ImportMetrics {
	if reg == nil {
		return &ImportMetrics{}
	}
	batches := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "import_batches_total",
		Help: "Import batches by kind and outcome (committed/aborted).",
	}, []string{"kind", "outcome"})
	rows := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "import_rows_total",
		Help: "Import rows by kind and disposition (accepted/skipped).",
	}, []string{"kind", "disposition"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "import_batch_duration_seconds",
		Help:    "Duration of import batch commits in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"kind"})
	reg.MustRegister(batches, rows, duration)
	return &ImportMetrics{batches: batches, rows: rows, duration: duration}
}

// ObserveBatch records one finished batch with its row dispositions.
func (m *ImportMetrics) ObserveBatch(kind string, committed bool, accepted, skipped int, duration time.Duration) {
	if m == nil || m.batches == nil {
		return
	}
	outcome := "committed"
	if !committed {
		outcome = "aborted"
	}
	kind = normalizeLabel(kind)
	m.batches.WithLabelValues(kind, outcome).Inc()
	m.rows.WithLabelValues(kind, "accepted").Add(float64(accepted))
	m.rows.WithLabelValues(kind, "skipped").Add(float64(skipped))
	m.duration.WithLabelValues(kind).Observe(duration.Seconds())
}
