// Package metrics exposes the daemon's Prometheus collectors.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "hydromate"

var (
	// Registry holds the application-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "path", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 10), // 1ms to ~1s
		},
		[]string{"method", "path"},
	)

	ledgerEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "events_total",
			Help:      "Intake events offered to the journal, by outcome.",
		},
		[]string{"source", "kind", "status"},
	)

	reconcileRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "reconcile",
			Name:      "runs_total",
			Help:      "Widget reconciliation passes.",
		},
		[]string{"result"},
	)

	reconcileEntries = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "reconcile",
			Name:      "entries_total",
			Help:      "Widget queue entries seen by reconciliation, by outcome.",
		},
		[]string{"outcome"},
	)

	reconcileDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "reconcile",
			Name:      "duration_seconds",
			Help:      "Duration of widget reconciliation passes.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12),
		},
	)

	displayPushFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "display",
			Name:      "push_failures_total",
			Help:      "Failed widget display updates.",
		},
	)

	rollovers = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "rollovers_total",
			Help:      "Logical day boundaries observed.",
		},
	)
)

func init() {
	Registry.MustRegister(
		httpRequests,
		httpDuration,
		ledgerEvents,
		reconcileRuns,
		reconcileEntries,
		reconcileDuration,
		displayPushFailures,
		rollovers,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler returns an HTTP handler exposing the registered Prometheus metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// ObserveHTTP records one handled request
func ObserveHTTP(method, path string, status int, duration time.Duration) {
	httpRequests.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	httpDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordEvent counts an append with status "applied", "duplicate" or "error"
func RecordEvent(source, kind, status string) {
	ledgerEvents.WithLabelValues(source, kind, status).Inc()
}

// ObserveReconcile records a finished reconciliation pass
func ObserveReconcile(err error, duration time.Duration) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	reconcileRuns.WithLabelValues(result).Inc()
	reconcileDuration.Observe(duration.Seconds())
}

// RecordReconcileEntries adds per-outcome entry counts from one pass
func RecordReconcileEntries(applied, duplicate, failed int) {
	reconcileEntries.WithLabelValues("applied").Add(float64(applied))
	reconcileEntries.WithLabelValues("duplicate").Add(float64(duplicate))
	reconcileEntries.WithLabelValues("failed").Add(float64(failed))
}

func RecordDisplayPushFailure() {
	displayPushFailures.Inc()
}

func RecordRollover() {
	rollovers.Inc()
}
