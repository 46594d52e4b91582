// Package metrics exposes Prometheus instrumentation for the dashboard.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Private registry so /metrics only carries our own series.
var registry = prometheus.NewRegistry()

var (
	EventsFetched = promauto.With(registry).NewCounter(prometheus.CounterOpts{
		Namespace: "calendar",
		Subsystem: "dashboard",
		Name:      "events_fetched_total",
		Help:      "Raw events returned by the provider across all calendars.",
	})

	RowsDisplayed = promauto.With(registry).NewCounter(prometheus.CounterOpts{
		Namespace: "calendar",
		Subsystem: "dashboard",
		Name:      "rows_displayed_total",
		Help:      "Rows that survived filtering and were handed to rendering.",
	})

	EventsPurged = promauto.With(registry).NewCounter(prometheus.CounterOpts{
		Namespace: "calendar",
		Subsystem: "dashboard",
		Name:      "events_purged_total",
		Help:      "Stale events successfully deleted from the upstream store.",
	})

	FetchErrors = promauto.With(registry).NewCounter(prometheus.CounterOpts{
		Namespace: "calendar",
		Subsystem: "dashboard",
		Name:      "fetch_errors_total",
		Help:      "Per-calendar event fetches that failed after provider retries.",
	})

	NormalizeErrors = promauto.With(registry).NewCounter(prometheus.CounterOpts{
		Namespace: "calendar",
		Subsystem: "dashboard",
		Name:      "normalize_errors_total",
		Help:      "Provider events skipped because they could not be normalized.",
	})

	DeleteErrors = promauto.With(registry).NewCounter(prometheus.CounterOpts{
		Namespace: "calendar",
		Subsystem: "dashboard",
		Name:      "delete_errors_total",
		Help:      "Upstream deletions of stale events that failed.",
	})

	AssembleDuration = promauto.With(registry).NewHistogram(prometheus.HistogramOpts{
		Namespace: "calendar",
		Subsystem: "dashboard",
		Name:      "assemble_duration_seconds",
		Help:      "Wall time of one full assembly pass over all calendars.",
		Buckets:   prometheus.DefBuckets,
	})
)

// Handler serves the registry in the Prometheus exposition format.
func Handler() http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}
