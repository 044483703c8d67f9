package bookstate

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SnapshotsApplied counts apply_snapshot calls.
	SnapshotsApplied = promauto.NewCounter(prometheus.CounterOpts{
		Name: "polymarket_bookstate_snapshots_applied_total",
		Help: "Total number of order book snapshots applied",
	})

	// ChangesApplied counts individual delta entries applied across all assets.
	ChangesApplied = promauto.NewCounter(prometheus.CounterOpts{
		Name: "polymarket_bookstate_changes_applied_total",
		Help: "Total number of order book delta entries applied",
	})

	// AssetsTracked tracks the number of distinct assets with book state.
	AssetsTracked = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "polymarket_bookstate_assets_tracked",
		Help: "Number of assets with book state in memory",
	})
)
