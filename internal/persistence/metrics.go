package persistence

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// FlushesTotal counts persistence projector flush cycles attempted.
	FlushesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "polymarket_persistence_flushes_total",
		Help: "Total number of persistence flush cycles attempted",
	})

	// WriteErrorsTotal counts write failures by operation.
	WriteErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "polymarket_persistence_write_errors_total",
			Help: "Total number of persistence write failures by operation",
		},
		[]string{"op"},
	)

	// SignalsInsertedTotal counts arbitrage signal rows persisted.
	SignalsInsertedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "polymarket_persistence_signals_inserted_total",
		Help: "Total number of arbitrage signal rows persisted",
	})
)
