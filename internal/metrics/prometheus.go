// Package metrics exposes Prometheus counters for list processing.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/JonMunkholm/maillist/internal/core"
)

// Metrics holds all prometheus metrics. It implements core.RunObserver.
type Metrics struct {
	registry *prometheus.Registry

	RunsTotal         *prometheus.CounterVec
	EmailsProcessed   prometheus.Counter
	InvalidEmails     prometheus.Counter
	DuplicatesRemoved prometheus.Counter
	MergeDropped      prometheus.Counter
	ExportsTotal      *prometheus.CounterVec
	RecordsExported   prometheus.Counter
	RunDuration       prometheus.Histogram
	HTTPRequests      *prometheus.CounterVec
}

var _ core.RunObserver = (*Metrics)(nil)

// New registers the metrics on a fresh registry, alongside the Go runtime
// and process collectors.
func New(namespace string) *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		RunsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Processing runs by outcome code (ok on success).",
		}, []string{"outcome"}),
		EmailsProcessed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "emails_processed_total",
			Help:      "Non-empty addresses read from uploaded files.",
		}),
		InvalidEmails: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "emails_invalid_total",
			Help:      "Blank or malformed addresses.",
		}),
		DuplicatesRemoved: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "duplicates_removed_total",
			Help:      "Records dropped by deduplication.",
		}),
		MergeDropped: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "merge_dropped_total",
			Help:      "Uploaded records already present in the working set.",
		}),
		ExportsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "exports_total",
			Help:      "Exports by format.",
		}, []string{"format"}),
		RecordsExported: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_exported_total",
			Help:      "Records written to export files.",
		}),
		RunDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Time from upload start to saved working set.",
			Buckets:   prometheus.DefBuckets,
		}),
		HTTPRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route pattern and status class.",
		}, []string{"route", "status"}),
	}
}

// ObserveRun records a finished run. Failed runs are counted under their
// user error code.
func (m *Metrics) ObserveRun(result *core.RunResult, err error, elapsed time.Duration) {
	m.RunDuration.Observe(elapsed.Seconds())

	if err != nil {
		m.RunsTotal.WithLabelValues(core.MapError(err).Code).Inc()
		return
	}

	m.RunsTotal.WithLabelValues("ok").Inc()
	if result == nil {
		return
	}
	m.EmailsProcessed.Add(float64(result.Stats.TotalEmails))
	m.InvalidEmails.Add(float64(result.Stats.InvalidEmails))
	m.DuplicatesRemoved.Add(float64(result.Stats.DuplicatesRemoved))
	m.MergeDropped.Add(float64(result.MergeDropped))
}

// ObserveExport records a successful export.
func (m *Metrics) ObserveExport(format core.ExportFormat, records int) {
	m.ExportsTotal.WithLabelValues(string(format)).Inc()
	m.RecordsExported.Add(float64(records))
}

// ObserveRequest counts one HTTP response.
func (m *Metrics) ObserveRequest(route string, status int) {
	if route == "" {
		route = "unmatched"
	}
	m.HTTPRequests.WithLabelValues(route, statusClass(status)).Inc()
}

func statusClass(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
