// Package basket computes, on every book mutation, the per-market bid/ask
// view and the basket readiness/open condition across the configured set of
// sibling markets.
package basket

import (
	"github.com/mselser95/polymarket-arb/internal/bookstate"
	"github.com/mselser95/polymarket-arb/pkg/types"
	"github.com/shopspring/decimal"
)

// Evaluator is a pure function of the current book state and the configured
// market set; it holds no mutable state of its own.
type Evaluator struct {
	markets   []types.MarketDescriptor
	threshold decimal.Decimal
}

// New creates an Evaluator for the given ordered market descriptors and
// open-condition threshold (spec default 1).
func New(markets []types.MarketDescriptor, threshold decimal.Decimal) *Evaluator {
	return &Evaluator{markets: markets, threshold: threshold}
}

// Evaluate derives the current BasketView from the book store's tops. It
// tolerates one-sided staleness: each market's view is whatever the book
// store currently holds for its yes/no assets, with no global snapshot
// semantics.
func (e *Evaluator) Evaluate(books *bookstate.Store) types.BasketView {
	view := types.BasketView{PerMarket: make(map[int64]types.MarketView, len(e.markets))}

	sum := decimal.Zero
	allPresent := true

	for _, m := range e.markets {
		mv := types.MarketView{MarketID: m.MarketID}

		if top, ok := books.Top(m.YesAssetID); ok {
			mv.YesBid = top.BestBid
			mv.YesAsk = top.BestAsk
		}
		if top, ok := books.Top(m.NoAssetID); ok {
			mv.NoBid = top.BestBid
			mv.NoAsk = top.BestAsk
		}

		view.PerMarket[m.MarketID] = mv

		if mv.YesAsk == nil {
			allPresent = false
			continue
		}
		sum = sum.Add(*mv.YesAsk)
	}

	view.Ready = allPresent
	if allPresent {
		s := sum
		view.SumYesAsk = &s
		view.Open = s.LessThan(e.threshold)
		sumF, _ := s.Float64()
		SumYesAskGauge.Set(sumF)
	}

	EvaluationsTotal.Inc()
	if view.Open {
		OpenConditionGauge.Set(1)
	} else {
		OpenConditionGauge.Set(0)
	}

	return view
}

// Edge computes (threshold - sum_yes_ask) / threshold at the moment of
// open; callers MUST only invoke this when view.Open is true.
func (e *Evaluator) Edge(view types.BasketView) decimal.Decimal {
	return e.threshold.Sub(*view.SumYesAsk).Div(e.threshold)
}

// Threshold returns the configured open-condition threshold.
func (e *Evaluator) Threshold() decimal.Decimal {
	return e.threshold
}

// Markets returns the configured market descriptors, in order.
func (e *Evaluator) Markets() []types.MarketDescriptor {
	return e.markets
}
