package markets

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ResolutionsTotal counts Gamma API market lookups attempted, by outcome.
	ResolutionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "polymarket_markets_resolutions_total",
			Help: "Total number of market metadata resolutions attempted",
		},
		[]string{"outcome"},
	)

	// CacheHitsTotal counts resolver lookups served from cache.
	CacheHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "polymarket_markets_cache_hits_total",
		Help: "Total number of market metadata lookups served from cache",
	})
)
