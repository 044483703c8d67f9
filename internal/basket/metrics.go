package basket

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// EvaluationsTotal counts basket evaluations performed.
	EvaluationsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "polymarket_basket_evaluations_total",
		Help: "Total number of basket evaluations performed",
	})

	// OpenConditionGauge reports 1 when the basket open condition currently holds.
	OpenConditionGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "polymarket_basket_open_condition",
		Help: "1 if the basket open condition currently holds, else 0",
	})

	// SumYesAskGauge reports the current sum of configured markets' yes asks.
	SumYesAskGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "polymarket_basket_sum_yes_ask",
		Help: "Current sum of yes asks across configured markets, when ready",
	})
)
