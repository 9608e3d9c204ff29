package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus instruments for the service.
type Metrics struct {
	CheckinsTotal      *prometheus.CounterVec
	LockConflictsTotal prometheus.Counter
	LocksSweptTotal    prometheus.Counter
	ImportedRowsTotal  prometheus.Counter
	AccessDeniedTotal  prometheus.Counter
	EventLatency       *prometheus.HistogramVec
}

// New creates and registers all Prometheus metrics on the default registry.
func New() *Metrics {
	return &Metrics{
		CheckinsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "gatekeeper_checkins_total",
			Help: "Committed check-ins by disposition.",
		}, []string{"disposition"}),
		LockConflictsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "gatekeeper_lock_conflicts_total",
			Help: "Soft lock acquisitions rejected because another operator held the participant.",
		}),
		LocksSweptTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "gatekeeper_locks_swept_total",
			Help: "Expired soft locks removed by lazy sweeps.",
		}),
		ImportedRowsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "gatekeeper_imported_rows_total",
			Help: "Participant rows upserted by bulk imports.",
		}),
		AccessDeniedTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "gatekeeper_access_denied_total",
			Help: "Events rejected by the operator authorization guard.",
		}),
		EventLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "gatekeeper_event_duration_seconds",
			Help:    "Inbound event handling latency by kind.",
			Buckets: prometheus.DefBuckets,
		}, []string{"kind"}),
	}
}

// ObserveEvent records handling latency for one inbound event.
func (m *Metrics) ObserveEvent(kind string, start time.Time) {
	m.EventLatency.WithLabelValues(kind).Observe(time.Since(start).Seconds())
}
