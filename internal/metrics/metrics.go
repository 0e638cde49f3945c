// Package metrics provides Prometheus metrics for the detector.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "sentry"

// TicksTotal counts completed detection ticks.
var TicksTotal = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: namespace,
	Name:      "ticks_total",
	Help:      "Total completed detection ticks.",
})

// TickFailures counts ticks skipped because the controller failed.
var TickFailures = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: namespace,
	Name:      "tick_failures_total",
	Help:      "Ticks skipped because hosts or counters could not be fetched.",
})

// TickDuration tracks the time spent gathering readings and evaluating them.
var TickDuration = promauto.NewHistogram(prometheus.HistogramOpts{
	Namespace: namespace,
	Name:      "tick_duration_seconds",
	Help:      "Duration of a detection tick in seconds.",
	Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
})

// KnownHosts tracks the number of hosts with a sample window.
var KnownHosts = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: namespace,
	Name:      "known_hosts",
	Help:      "Hosts ever observed by the detector.",
})

// BannedHosts tracks the current blacklist size.
var BannedHosts = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: namespace,
	Name:      "banned_hosts",
	Help:      "Hosts currently on the blacklist.",
})

// BansTotal counts hosts banned by the window rule.
var BansTotal = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: namespace,
	Name:      "bans_total",
	Help:      "Total hosts banned by the bandwidth rule.",
})

// UnbansTotal counts explicit unbans.
var UnbansTotal = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: namespace,
	Name:      "unbans_total",
	Help:      "Total hosts removed from the blacklist.",
})

// WriterErrors counts failed report writes by writer.
var WriterErrors = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Name:      "writer_errors_total",
	Help:      "Failed report writes.",
}, []string{"writer"})

// AlertsSent counts notifications delivered by the alerter.
var AlertsSent = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: namespace,
	Name:      "alerts_sent_total",
	Help:      "Ban notifications delivered.",
})

// Handler exposes the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
