// Package metrics exposes Prometheus instrumentation for contact imports.
package metrics

import (
	"errors"
	"net/http"

	"github.com/JonMunkholm/contacts/internal/core"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Import results used as the "result" label.
const (
	ResultSuccess  = "success"
	ResultFailed   = "failed"
	ResultRejected = "rejected"
)

// Metrics records import activity. It satisfies core.Recorder.
type Metrics struct {
	gatherer prometheus.Gatherer

	importsTotal   *prometheus.CounterVec
	rowsTotal      *prometheus.CounterVec
	importDuration *prometheus.HistogramVec
	bytesRead      prometheus.Counter
}

// New registers the import metrics with reg.
// A nil reg uses a fresh registry, which keeps tests isolated.
func New(reg *prometheus.Registry) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	factory := promauto.With(reg)

	return &Metrics{
		gatherer: reg,
		importsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "contacts",
			Name:      "imports_total",
			Help:      "Total number of import calls by result.",
		}, []string{"result"}),
		rowsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "contacts",
			Name:      "import_rows_total",
			Help:      "Total number of data rows processed by outcome.",
		}, []string{"outcome"}),
		importDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "contacts",
			Name:      "import_duration_seconds",
			Help:      "Latency distribution for import calls.",
			Buckets: []float64{
				0.01, 0.05,
				0.1, 0.5,
				1, 2, 5,
				10, 30, 60, 300,
			},
		}, []string{"result"}),
		bytesRead: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "contacts",
			Name:      "import_bytes_read_total",
			Help:      "Total bytes read from uploaded files.",
		}),
	}
}

// ObserveImport records one finished import call.
func (m *Metrics) ObserveImport(result core.ImportResult, err error) {
	label := resultLabel(err)

	m.importsTotal.WithLabelValues(label).Inc()
	m.importDuration.WithLabelValues(label).Observe(result.Duration.Seconds())
	m.rowsTotal.WithLabelValues("inserted").Add(float64(result.Outcome.Inserted))
	m.rowsTotal.WithLabelValues("skipped").Add(float64(result.Outcome.Skipped))
	m.bytesRead.Add(float64(result.BytesRead))
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

func resultLabel(err error) string {
	switch {
	case err == nil:
		return ResultSuccess
	case errors.Is(err, core.ErrTooManyImports):
		return ResultRejected
	default:
		return ResultFailed
	}
}
