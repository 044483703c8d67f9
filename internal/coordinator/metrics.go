package coordinator

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ReconnectsTotal counts stream sessions that ended and triggered a
	// reconnect-delay-then-resubscribe cycle.
	ReconnectsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "polymarket_coordinator_reconnects_total",
		Help: "Total number of stream subscription restarts",
	})

	// FlushAttemptsTotal counts persistence flush cycles the coordinator
	// initiated (throttled by db_interval_s).
	FlushAttemptsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "polymarket_coordinator_flush_attempts_total",
		Help: "Total number of persistence flush cycles initiated",
	})

	// EventsDroppedTotal counts book events of unrecognized kind dropped
	// before reaching book state.
	EventsDroppedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "polymarket_coordinator_events_dropped_total",
		Help: "Total number of unrecognized book events dropped",
	})
)
