// Package metrics exposes Prometheus collectors for update submission and
// propagation monitoring.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Namespace is the Prometheus metric namespace shared by every collector
// this package registers.
const Namespace = "tdns_update"

var (
	// UpdatesSubmitted counts UPDATE submissions by outcome ("ok", "rejected", "error").
	UpdatesSubmitted = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "updates_submitted_total",
		Help:      "Number of RFC 2136 UPDATE submissions, by outcome.",
	}, []string{"outcome"})

	// RetriesPerformed counts retry attempts made by the retry driver, by component.
	RetriesPerformed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "retries_total",
		Help:      "Number of retry attempts performed, by component.",
	}, []string{"component"})

	// EndpointsSatisfied counts how many authority endpoints reached each
	// final state at the end of a monitoring run.
	EndpointsSatisfied = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "monitor_endpoints_total",
		Help:      "Authority endpoints observed at the end of a monitoring run, by final state.",
	}, []string{"state"})

	// ConvergenceDuration records how long a monitoring run took to either
	// converge or hit its deadline.
	ConvergenceDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: Namespace,
		Name:      "convergence_duration_seconds",
		Help:      "Time from the start of a monitoring run to convergence or deadline.",
		Buckets:   prometheus.ExponentialBuckets(0.1, 2, 12),
	})

	// BuildInfo is set once at startup with a version label.
	BuildInfo = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: Namespace,
		Name:      "build_info",
		Help:      "Build metadata for the running binary; value is always 1.",
	}, []string{"version"})
)

// SetBuildInfo records the running binary's version.
func SetBuildInfo(version string) {
	BuildInfo.WithLabelValues(version).Set(1)
}

// RecordReport tallies a monitor.Report's endpoint outcomes and observes its
// duration against ConvergenceDuration.
func RecordReport(stateCounts map[string]int, durationSeconds float64) {
	for state, n := range stateCounts {
		EndpointsSatisfied.WithLabelValues(state).Add(float64(n))
	}
	ConvergenceDuration.Observe(durationSeconds)
}
