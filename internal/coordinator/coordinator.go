// Package coordinator wires the Book State, Basket Evaluator, Paper Trader
// and Persistence Projector to a Stream Client subscription, owning every
// piece of long-lived mutable state (books, position, throttle timestamps,
// database handle) per spec.md §4.7 and §9's "global coordinator state"
// design note.
package coordinator

import (
	"context"
	"time"

	"github.com/mselser95/polymarket-arb/internal/basket"
	"github.com/mselser95/polymarket-arb/internal/bookstate"
	"github.com/mselser95/polymarket-arb/internal/papertrader"
	"github.com/mselser95/polymarket-arb/internal/persistence"
	"github.com/mselser95/polymarket-arb/internal/streamclient"
	"github.com/mselser95/polymarket-arb/pkg/types"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// assetMeta resolves a wire asset id back to its market and side, for
// building the outcome label the Persistence Projector needs.
type assetMeta struct {
	marketID int64
	outcome  string
}

// Config holds everything the Coordinator needs: the resolved market set,
// the paper-trading parameters, the transport endpoint, and the flush/print
// cadence. All fields arrive pre-resolved — config parsing and market
// metadata resolution are outer-ring concerns (cmd/, internal/markets).
type Config struct {
	EventID        int64
	Markets        []types.MarketDescriptor
	Threshold      decimal.Decimal
	Qty            decimal.Decimal
	FeeRate        decimal.Decimal
	FixedFeePerLeg decimal.Decimal

	StreamURL    string
	PingInterval time.Duration
	RecvTimeout  time.Duration
	Auth         *streamclient.Auth

	PrintInterval  time.Duration
	ReconnectDelay time.Duration
	DBInterval     time.Duration
	WriteTicks     bool

	Projector persistence.Projector
	Logger    *zap.Logger
}

// Coordinator owns the book state map, the paper trader, the print throttle
// and the persistence projector, and drives the stream client's restartable
// subscription sequence.
type Coordinator struct {
	cfg       Config
	client    *streamclient.Client
	books     *bookstate.Store
	evaluator *basket.Evaluator
	trader    *papertrader.Trader
	assetMeta map[string]assetMeta
	assetIDs  []string

	lastFlush time.Time
	lastPrint time.Time
}

// New builds a Coordinator from a fully-resolved Config.
func New(cfg Config) *Coordinator {
	assetIDs := make([]string, 0, len(cfg.Markets)*2)
	meta := make(map[string]assetMeta, len(cfg.Markets)*2)
	for _, m := range cfg.Markets {
		meta[m.YesAssetID] = assetMeta{marketID: m.MarketID, outcome: "YES"}
		meta[m.NoAssetID] = assetMeta{marketID: m.MarketID, outcome: "NO"}
		assetIDs = append(assetIDs, m.YesAssetID, m.NoAssetID)
	}

	return &Coordinator{
		cfg: cfg,
		client: streamclient.New(streamclient.Config{
			URL:          cfg.StreamURL,
			PingInterval: cfg.PingInterval,
			RecvTimeout:  cfg.RecvTimeout,
			Logger:       cfg.Logger,
		}),
		books:     bookstate.New(cfg.Logger),
		evaluator: basket.New(cfg.Markets, cfg.Threshold),
		trader: papertrader.New(papertrader.Config{
			QtyPerLeg:      cfg.Qty,
			FeeRate:        cfg.FeeRate,
			FixedFeePerLeg: cfg.FixedFeePerLeg,
			EventID:        cfg.EventID,
			Logger:         cfg.Logger,
		}),
		assetMeta: meta,
		assetIDs:  assetIDs,
	}
}

// Run drives the subscription: stream, handle events, and on termination
// sleep reconnect_delay_s and resubscribe with the same asset identifiers,
// per spec.md §4.7. It returns only when ctx is cancelled.
func (c *Coordinator) Run(ctx context.Context) error {
	for {
		if ctx.Err() != nil {
			return nil
		}

		frames, errc, err := c.client.Stream(ctx, c.assetIDs, c.cfg.Auth)
		if err != nil {
			c.cfg.Logger.Error("stream-dial-failed", zap.Error(err))
			if !c.sleepReconnect(ctx) {
				return nil
			}
			continue
		}

		c.runSession(ctx, frames, errc)

		if ctx.Err() != nil {
			return nil
		}

		c.cfg.Logger.Warn("stream-session-ended", zap.Duration("reconnect-delay", c.cfg.ReconnectDelay))
		ReconnectsTotal.Inc()
		streamclient.ReconnectsTotal.Inc()
		if !c.sleepReconnect(ctx) {
			return nil
		}
	}
}

// runSession drains one subscription session to completion: every inbound
// frame is applied to book state in receive order, re-evaluated, stepped
// through the paper trader, and opportunistically persisted/printed.
func (c *Coordinator) runSession(ctx context.Context, frames <-chan streamclient.Frame, errc <-chan error) {
	for {
		select {
		case <-ctx.Done():
			return
		case frame, ok := <-frames:
			if !ok {
				return
			}
			c.handleFrame(ctx, frame)
		case err, ok := <-errc:
			if ok && err != nil {
				c.cfg.Logger.Warn("stream-session-error", zap.Error(err))
			}
		}
	}
}

// handleFrame processes every event a wire frame flattened to independently
// and in order: a batched price_changes message or a list-wrapped frame can
// legitimately carry several events for different assets, and each one must
// be applied, re-evaluated and stepped through the paper trader on its own
// before the next is considered, per spec.md §4.2/§4.4/§4.7 — otherwise a
// transient open/close condition that exists only between two events of the
// same wire message would never be observed.
func (c *Coordinator) handleFrame(ctx context.Context, frame streamclient.Frame) {
	for _, evt := range frame.Events {
		c.handleEvent(ctx, evt, frame.AsOf)
	}
}

func (c *Coordinator) handleEvent(ctx context.Context, evt types.BookEvent, asOf time.Time) {
	c.applyEvent(evt, asOf)

	view := c.evaluator.Evaluate(c.books)
	var edge decimal.Decimal
	if view.Open {
		edge = c.evaluator.Edge(view)
	}
	signal := c.trader.Step(view, c.cfg.Threshold, edge, asOf)

	if signal != nil {
		c.cfg.Logger.Info("basket-opened", zap.Int64("event-id", c.cfg.EventID), zap.String("edge", signal.Edge.String()))
		if err := c.cfg.Projector.InsertSignal(ctx, *signal); err != nil {
			c.cfg.Logger.Warn("signal-persist-failed", zap.Error(err))
		}
	}

	c.maybeFlush(ctx, asOf)
	c.maybePrint()
}

func (c *Coordinator) applyEvent(evt types.BookEvent, asOf time.Time) {
	switch evt.Kind {
	case types.EventSnapshot:
		c.books.ApplySnapshot(evt.AssetID, evt.Bids, evt.Asks, asOf, evt.Raw)
	case types.EventChanges:
		c.books.ApplyChanges(evt.AssetID, evt.Changes, asOf, evt.Raw)
	case types.EventTop:
		c.books.ApplyTop(evt.AssetID, evt.BestBid, evt.BestAsk, asOf, evt.Raw)
	default:
		EventsDroppedTotal.Inc()
	}
}

// maybeFlush upserts latest/pnl (and appends ticks, if enabled) for every
// tracked asset at most once per db_interval_s.
func (c *Coordinator) maybeFlush(ctx context.Context, now time.Time) {
	if c.cfg.DBInterval > 0 && !c.lastFlush.IsZero() && now.Sub(c.lastFlush) < c.cfg.DBInterval {
		return
	}
	c.lastFlush = now
	FlushAttemptsTotal.Inc()
	persistence.FlushesTotal.Inc()

	for assetID, meta := range c.assetMeta {
		top, ok := c.books.Top(assetID)
		if !ok {
			continue
		}

		rec := types.TickRecord{
			AssetID:  assetID,
			AsOf:     now,
			MarketID: meta.marketID,
			Outcome:  meta.outcome,
			BestBid:  top.BestBid,
			BestAsk:  top.BestAsk,
			Mid:      top.Mid(),
			Source:   "clob_ws",
		}

		if err := c.cfg.Projector.UpsertLatest(ctx, types.LatestRecord{TickRecord: rec, UpdatedAt: now}); err != nil {
			c.cfg.Logger.Warn("latest-upsert-failed", zap.String("asset-id", assetID), zap.Error(err))
		}

		if c.cfg.WriteTicks {
			if err := c.cfg.Projector.InsertTick(ctx, rec); err != nil {
				c.cfg.Logger.Warn("tick-insert-failed", zap.String("asset-id", assetID), zap.Error(err))
			}
		}
	}

	if err := c.cfg.Projector.UpsertPnL(ctx, c.cfg.EventID, c.trader.PnL()); err != nil {
		c.cfg.Logger.Warn("pnl-upsert-failed", zap.Error(err))
	}
}

// maybePrint logs a status line at most once per print_interval_s.
func (c *Coordinator) maybePrint() {
	now := time.Now()
	if c.cfg.PrintInterval > 0 && !c.lastPrint.IsZero() && now.Sub(c.lastPrint) < c.cfg.PrintInterval {
		return
	}
	c.lastPrint = now

	pnl := c.trader.PnL()
	unrealized := "absent"
	if pnl.UnrealizedPnL != nil {
		unrealized = pnl.UnrealizedPnL.String()
	}

	c.cfg.Logger.Info("status",
		zap.Bool("open", c.trader.IsOpen()),
		zap.String("realized-pnl", pnl.RealizedPnL.String()),
		zap.String("unrealized-pnl", unrealized))
}

// Books exposes the book state store for read-only debug inspection.
func (c *Coordinator) Books() *bookstate.Store {
	return c.books
}

// Position exposes the paper trader's current open position (nil if flat)
// for read-only debug inspection.
func (c *Coordinator) Position() *types.BasketPosition {
	return c.trader.Position()
}

// PnL exposes the paper trader's running PnL for read-only debug inspection.
func (c *Coordinator) PnL() types.RunningPnL {
	return c.trader.PnL()
}

// sleepReconnect waits reconnect_delay_s, returning false if ctx is
// cancelled first.
func (c *Coordinator) sleepReconnect(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(c.cfg.ReconnectDelay):
		return true
	}
}
