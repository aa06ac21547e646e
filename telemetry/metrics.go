// Package telemetry exposes the foundation's Prometheus instrumentation:
// circuit-breaker state, retry activity, span counts, and registry
// sizes. Collection is always cheap; serving the scrape endpoint is
// gated by TelemetryConfig.MetricsEnabled.
package telemetry

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// CircuitBreakerState tracks each breaker's state as a numeric
	// gauge: 0 closed, 1 open, 2 half-open.
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "foundation_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=open, 2=half-open)",
		},
		[]string{"breaker"},
	)

	// CircuitBreakerTransitionsTotal counts state transitions.
	CircuitBreakerTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "foundation_circuit_breaker_transitions_total",
			Help: "Total circuit breaker state transitions",
		},
		[]string{"breaker", "from", "to"},
	)

	// RetryAttemptsTotal counts retry attempts by outcome.
	RetryAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "foundation_retry_attempts_total",
			Help: "Total retry attempts",
		},
		[]string{"function", "outcome"},
	)

	// FallbackExecutionsTotal counts fallback chain executions by
	// outcome ("success" or "all_failed").
	FallbackExecutionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "foundation_fallback_executions_total",
			Help: "Total fallback chain executions by outcome",
		},
		[]string{"outcome"},
	)

	// SpansStartedTotal and SpansFinishedTotal count tracer activity.
	SpansStartedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "foundation_spans_started_total",
		Help: "Total spans started",
	})

	SpansFinishedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "foundation_spans_finished_total",
			Help: "Total spans finished, by status",
		},
		[]string{"status"},
	)

	// RegistryEntries tracks live entries per registry dimension.
	RegistryEntries = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "foundation_registry_entries",
			Help: "Current number of registry entries per dimension",
		},
		[]string{"dimension"},
	)

	// LogEventsDroppedTotal counts pipeline rate-limit drops.
	LogEventsDroppedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "foundation_log_events_dropped_total",
			Help: "Total log events dropped by rate limiting",
		},
		[]string{"logger"},
	)
)

// Handler returns the Prometheus scrape handler for callers that mount
// it themselves.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Serve mounts the scrape handler on addr when enabled, returning the
// server so the caller owns shutdown. Returns nil when disabled.
func Serve(addr string, enabled bool) *http.Server {
	if !enabled {
		return nil
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler())
	srv := &http.Server{Addr: addr, Handler: mux}
	go srv.ListenAndServe()
	return srv
}
