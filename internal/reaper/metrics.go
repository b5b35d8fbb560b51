package reaper

import (
	"github.com/prometheus/client_golang/prometheus"

	"frameworks/api_reaper/pkg/monitoring"
)

// Metrics holds the reaper's Prometheus metrics.
type Metrics struct {
	Cycles     *prometheus.CounterVec
	Stops      *prometheus.CounterVec
	Evidence   *prometheus.CounterVec
	Reconnects *prometheus.CounterVec
	Tracked    *prometheus.GaugeVec
}

// NewMetrics registers the reaper's metrics on the collector.
func NewMetrics(mc *monitoring.MetricsCollector) *Metrics {
	return &Metrics{
		Cycles: mc.NewCounter(
			"reap_cycles_total",
			"Total poll cycles by outcome",
			[]string{"status"},
		),
		Stops: mc.NewCounter(
			"session_stops_total",
			"Stop attempts by readiness reason, mode and outcome",
			[]string{"reason", "mode", "status"},
		),
		Evidence: mc.NewCounter(
			"activity_evidence_total",
			"Activity evidence hits by source",
			[]string{"source"},
		),
		Reconnects: mc.NewCounter(
			"event_stream_reconnects_total",
			"Event stream reconnect attempts",
			[]string{},
		),
		Tracked: mc.NewGauge(
			"tracked_sessions",
			"Live sessions currently tracked",
			[]string{},
		),
	}
}
