package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/a3tai/ctreport-extractor/internal/report"
)

// Metrics holds the Prometheus metrics for one extraction run. Each run
// owns its registry so the textfile output only carries this run.
type Metrics struct {
	registry *prometheus.Registry

	DocumentsTotal   *prometheus.CounterVec
	VendorsTotal     *prometheus.CounterVec
	StrategiesTotal  *prometheus.CounterVec
	DuplicatesTotal  prometheus.Counter
	PagesExtracted   prometheus.Histogram
	DocumentDuration prometheus.Histogram
	RunDuration      prometheus.Gauge
	LastRunTimestamp prometheus.Gauge
	RecordsExported  prometheus.Gauge
}

// NewMetrics creates and registers all metrics, labelled with runID.
func NewMetrics(runID string) *Metrics {
	reg := prometheus.NewRegistry()
	constLabels := prometheus.Labels{"run_id": runID}
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		DocumentsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name:        "ctreport_documents_total",
				Help:        "Documents processed by final status",
				ConstLabels: constLabels,
			},
			[]string{"status"},
		),

		VendorsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name:        "ctreport_documents_by_vendor_total",
				Help:        "Documents processed by detected vendor",
				ConstLabels: constLabels,
			},
			[]string{"vendor"},
		),

		StrategiesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name:        "ctreport_results_strategy_total",
				Help:        "Results panels recovered per extraction pass",
				ConstLabels: constLabels,
			},
			[]string{"strategy"},
		),

		DuplicatesTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name:        "ctreport_duplicates_total",
				Help:        "Documents whose key was already taken",
				ConstLabels: constLabels,
			},
		),

		PagesExtracted: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:        "ctreport_document_pages",
				Help:        "Pages of text extracted per document",
				Buckets:     []float64{1, 2, 3, 5, 8, 13, 21},
				ConstLabels: constLabels,
			},
		),

		DocumentDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:        "ctreport_document_duration_seconds",
				Help:        "Time to extract and assemble one document",
				Buckets:     []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
				ConstLabels: constLabels,
			},
		),

		RunDuration: factory.NewGauge(
			prometheus.GaugeOpts{
				Name:        "ctreport_run_duration_seconds",
				Help:        "Wall time of the whole run",
				ConstLabels: constLabels,
			},
		),

		LastRunTimestamp: factory.NewGauge(
			prometheus.GaugeOpts{
				Name:        "ctreport_last_run_timestamp_seconds",
				Help:        "Unix time the run finished",
				ConstLabels: constLabels,
			},
		),

		RecordsExported: factory.NewGauge(
			prometheus.GaugeOpts{
				Name:        "ctreport_records_exported",
				Help:        "Rows written to the export",
				ConstLabels: constLabels,
			},
		),
	}
}

// Registry exposes the run's registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveDocument records one assembled record
func (m *Metrics) ObserveDocument(rec report.Record, pages int, elapsed time.Duration) {
	m.DocumentsTotal.WithLabelValues(rec.Status.String()).Inc()
	m.VendorsTotal.WithLabelValues(string(rec.Vendor)).Inc()
	m.StrategiesTotal.WithLabelValues(string(rec.Strategy)).Inc()
	if pages > 0 {
		m.PagesExtracted.Observe(float64(pages))
	}
	m.DocumentDuration.Observe(elapsed.Seconds())
}

// ObserveDuplicate counts a document skipped or replaced for its key
func (m *Metrics) ObserveDuplicate() {
	m.DuplicatesTotal.Inc()
}

// ObserveRun records the end of a run
func (m *Metrics) ObserveRun(elapsed time.Duration, exported int, finished time.Time) {
	m.RunDuration.Set(elapsed.Seconds())
	m.RecordsExported.Set(float64(exported))
	m.LastRunTimestamp.Set(float64(finished.Unix()))
}

// WriteTextfile writes the registry in the node_exporter textfile format
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.registry)
}
