// Package papertrader runs the flat/open paper-trading state machine: it
// simulates lifting the YES ask on every configured leg when the basket
// opens, and hitting the YES bid on every leg when it closes, at zero real
// execution risk.
package papertrader

import (
	"sync"
	"time"

	"github.com/mselser95/polymarket-arb/pkg/types"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const feeDecimalPlaces = 8

// Config holds the paper trader's fee and sizing parameters.
type Config struct {
	QtyPerLeg decimal.Decimal
	FeeRate   decimal.Decimal
	// FixedFeePerLeg is an optional flat per-leg charge layered on top of the
	// proportional fee model; zero by default, leaving the required live
	// path fee model unchanged when unset.
	FixedFeePerLeg decimal.Decimal
	EventID        int64
	Logger         *zap.Logger
}

// Trader owns the basket position (nil when flat) and the running PnL for
// one configured event. Step is called from the coordinator's event-loop
// goroutine; IsOpen/Position/PnL are also read from the HTTP debug handler's
// goroutine, so mu guards every access the same way bookstate.Store guards
// its books.
type Trader struct {
	cfg Config

	mu       sync.RWMutex
	position *types.BasketPosition
	pnl      types.RunningPnL
}

// New creates a flat Trader.
func New(cfg Config) *Trader {
	if cfg.QtyPerLeg.IsZero() {
		cfg.QtyPerLeg = decimal.NewFromInt(1)
	}
	return &Trader{cfg: cfg}
}

// IsOpen reports whether a basket position is currently held.
func (t *Trader) IsOpen() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.position != nil
}

// PnL returns a copy of the current running PnL.
func (t *Trader) PnL() types.RunningPnL {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.pnl
}

// Position returns a copy of the current position, or nil if flat.
func (t *Trader) Position() *types.BasketPosition {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.position == nil {
		return nil
	}
	pos := *t.position
	return &pos
}

// Step drives the state machine for one evaluated BasketView. threshold and
// edge are the evaluator's configured threshold and the edge computed at
// this tick (meaningful only when view.Open). It returns the emitted
// ArbSignal on an OPEN transition, else nil.
func (t *Trader) Step(view types.BasketView, threshold, edge decimal.Decimal, now time.Time) *types.ArbSignal {
	t.mu.Lock()
	defer t.mu.Unlock()

	switch {
	case t.position == nil && view.Open:
		sig := t.open(view, threshold, edge, now)
		t.markToMarket(view)
		return sig
	case t.position != nil && !view.Open:
		t.close(view, now)
		return nil
	}
	// FLAT & !open, or OPEN & open: hold.
	t.markToMarket(view)
	return nil
}

// open records entry prices and fees for every configured leg and emits the
// arbitrage signal. Per spec, an open attempt with any yes_ask absent is
// skipped, not an error — the caller only reaches here when view.Open is
// already true, which implies readiness, so this only guards defensively.
// Caller must hold t.mu.
func (t *Trader) open(view types.BasketView, threshold, edge decimal.Decimal, now time.Time) *types.ArbSignal {
	entryPrices := make(map[int64]decimal.Decimal, len(view.PerMarket))
	entryFees := make(map[int64]decimal.Decimal, len(view.PerMarket))
	marketIDs := make([]int64, 0, len(view.PerMarket))

	for marketID, mv := range view.PerMarket {
		if mv.YesAsk == nil {
			SkippedOpensTotal.Inc()
			if t.cfg.Logger != nil {
				t.cfg.Logger.Debug("papertrader-open-skipped-missing-ask", zap.Int64("market-id", marketID))
			}
			return nil
		}
		entryPrices[marketID] = *mv.YesAsk
		entryFees[marketID] = t.fee(*mv.YesAsk)
		marketIDs = append(marketIDs, marketID)
	}

	t.position = &types.BasketPosition{
		QtyPerLeg:      t.cfg.QtyPerLeg,
		EntryYesPrices: entryPrices,
		EntryFees:      entryFees,
		OpenedAt:       now,
	}

	OpensTotal.Inc()
	if t.cfg.Logger != nil {
		t.cfg.Logger.Info("basket-opened",
			zap.Int("legs", len(marketIDs)),
			zap.String("sum-yes-ask", view.SumYesAsk.String()),
			zap.String("edge", edge.String()))
	}

	detail := map[string]any{
		"threshold": threshold.String(),
		"sum":       view.SumYesAsk.String(),
		"markets":   marketIDs,
	}

	return &types.ArbSignal{
		EventID: t.cfg.EventID,
		AsOf:    now,
		Kind:    types.BuyYesAll,
		Edge:    edge,
		Detail:  detail,
	}
}

// close hits the yes_bid on every leg and realizes PnL. Per spec, a close
// attempted with any yes_bid absent is skipped (hold) rather than closing
// partially. Caller must hold t.mu.
func (t *Trader) close(view types.BasketView, now time.Time) {
	pos := t.position

	exitPnL := decimal.Zero
	exitFees := decimal.Zero
	entryFeeSum := decimal.Zero

	for marketID, entryPrice := range pos.EntryYesPrices {
		mv, ok := view.PerMarket[marketID]
		if !ok || mv.YesBid == nil {
			SkippedClosesTotal.Inc()
			if t.cfg.Logger != nil {
				t.cfg.Logger.Debug("papertrader-close-held-missing-bid", zap.Int64("market-id", marketID))
			}
			return // hold; stay OPEN
		}

		legPnL := mv.YesBid.Sub(entryPrice).Mul(pos.QtyPerLeg)
		exitPnL = exitPnL.Add(legPnL)
		exitFees = exitFees.Add(t.fee(*mv.YesBid))
		entryFeeSum = entryFeeSum.Add(pos.EntryFees[marketID])
	}

	t.pnl.RealizedPnL = t.pnl.RealizedPnL.Add(exitPnL).Sub(entryFeeSum).Sub(exitFees)
	t.pnl.UnrealizedPnL = nil
	t.pnl.UpdatedAt = now
	t.position = nil

	ClosesTotal.Inc()
	RealizedPnLGauge.Set(mustFloat64(t.pnl.RealizedPnL))

	if t.cfg.Logger != nil {
		t.cfg.Logger.Info("basket-closed",
			zap.String("realized-pnl", t.pnl.RealizedPnL.String()))
	}
}

// markToMarket recomputes unrealized PnL while OPEN. When any yes_bid is
// absent, unrealized is left absent (not zero) so the operator can
// distinguish "unknown" from "flat". Caller must hold t.mu.
func (t *Trader) markToMarket(view types.BasketView) {
	if t.position == nil {
		t.pnl.UnrealizedPnL = nil
		return
	}

	unrealized := decimal.Zero
	entryFeeSum := decimal.Zero
	exitFeeSum := decimal.Zero

	for marketID, entryPrice := range t.position.EntryYesPrices {
		mv, ok := view.PerMarket[marketID]
		if !ok || mv.YesBid == nil {
			t.pnl.UnrealizedPnL = nil
			return
		}
		unrealized = unrealized.Add(mv.YesBid.Sub(entryPrice).Mul(t.position.QtyPerLeg))
		entryFeeSum = entryFeeSum.Add(t.position.EntryFees[marketID])
		exitFeeSum = exitFeeSum.Add(t.fee(*mv.YesBid))
	}

	u := unrealized.Sub(entryFeeSum).Sub(exitFeeSum)
	t.pnl.UnrealizedPnL = &u
}

// fee computes the proportional fee on one leg's notional, plus the
// optional fixed per-leg charge, rounded to 8 fractional digits half-to-even.
func (t *Trader) fee(price decimal.Decimal) decimal.Decimal {
	notional := price.Mul(t.cfg.QtyPerLeg)
	fee := t.cfg.FeeRate.Mul(notional)
	if !t.cfg.FixedFeePerLeg.IsZero() {
		fee = fee.Add(t.cfg.FixedFeePerLeg)
	}
	return fee.RoundBank(feeDecimalPlaces)
}

// mustFloat64 converts a decimal to float64 for metrics export, where the
// lossy conversion is acceptable.
func mustFloat64(d decimal.Decimal) float64 {
	f, _ := d.Float64()
	return f
}
