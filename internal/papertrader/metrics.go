package papertrader

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// OpensTotal counts basket OPEN transitions.
	OpensTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "polymarket_papertrader_opens_total",
		Help: "Total number of basket open transitions",
	})

	// ClosesTotal counts basket CLOSE transitions.
	ClosesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "polymarket_papertrader_closes_total",
		Help: "Total number of basket close transitions",
	})

	// SkippedOpensTotal counts open attempts skipped due to a missing yes_ask.
	SkippedOpensTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "polymarket_papertrader_skipped_opens_total",
		Help: "Total number of open attempts skipped due to a missing yes ask",
	})

	// SkippedClosesTotal counts close attempts held due to a missing yes_bid.
	SkippedClosesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "polymarket_papertrader_skipped_closes_total",
		Help: "Total number of close attempts held due to a missing yes bid",
	})

	// RealizedPnLGauge reports the current realized PnL.
	RealizedPnLGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "polymarket_papertrader_realized_pnl",
		Help: "Current realized PnL for the configured event",
	})
)
