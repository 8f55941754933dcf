package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Playback metrics
var (
	EventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "omniplayer_events_total",
			Help: "Total number of canonical playback events delivered to the host",
		},
		[]string{"backend", "event"},
	)

	StaleEventsDropped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "omniplayer_stale_events_dropped_total",
			Help: "Events discarded because they came from an adapter that is no longer mounted",
		},
		[]string{"backend"},
	)

	ProgressReports = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "omniplayer_progress_reports_total",
			Help: "Total number of progress reports emitted by adapters",
		},
		[]string{"backend"},
	)
)

// Adapter lifecycle metrics
var (
	AdapterMountsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "omniplayer_adapter_mounts_total",
			Help: "Total number of adapters mounted, by backend",
		},
		[]string{"backend"},
	)

	AdapterErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "omniplayer_adapter_errors_total",
			Help: "Total number of errors surfaced to the host, by backend and error kind",
		},
		[]string{"backend", "kind"},
	)

	AdapterLoadDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "omniplayer_adapter_load_duration_seconds",
			Help:    "Time from mount until the adapter is ready to accept control calls",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"backend"},
	)

	ActiveBackend = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "omniplayer_active_backend",
			Help: "Whether a backend is currently mounted (1 = mounted, 0 = not)",
		},
		[]string{"backend"},
	)
)

// SetActiveBackend flips the active backend gauge so exactly one label (or none) reads 1
func SetActiveBackend(backend string, all []string) {
	for _, b := range all {
		value := 0.0
		if b == backend {
			value = 1
		}
		ActiveBackend.WithLabelValues(b).Set(value)
	}
}
