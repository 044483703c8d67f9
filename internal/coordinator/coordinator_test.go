package coordinator

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/mselser95/polymarket-arb/internal/streamclient"
	"github.com/mselser95/polymarket-arb/pkg/types"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// recordingProjector is an in-memory persistence.Projector for assertions.
type recordingProjector struct {
	mu      sync.Mutex
	latest  []types.LatestRecord
	ticks   []types.TickRecord
	signals []types.ArbSignal
	pnls    []types.RunningPnL
}

func (r *recordingProjector) UpsertLatest(_ context.Context, rec types.LatestRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.latest = append(r.latest, rec)
	return nil
}

func (r *recordingProjector) InsertTick(_ context.Context, rec types.TickRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ticks = append(r.ticks, rec)
	return nil
}

func (r *recordingProjector) InsertSignal(_ context.Context, sig types.ArbSignal) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.signals = append(r.signals, sig)
	return nil
}

func (r *recordingProjector) UpsertPnL(_ context.Context, _ int64, pnl types.RunningPnL) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pnls = append(r.pnls, pnl)
	return nil
}

func (r *recordingProjector) Close() error { return nil }

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func fourMarkets() []types.MarketDescriptor {
	return []types.MarketDescriptor{
		{MarketID: 1, Question: "A", YesAssetID: "a", NoAssetID: "a-no"},
		{MarketID: 2, Question: "B", YesAssetID: "b", NoAssetID: "b-no"},
		{MarketID: 3, Question: "C", YesAssetID: "c", NoAssetID: "c-no"},
		{MarketID: 4, Question: "D", YesAssetID: "d", NoAssetID: "d-no"},
	}
}

func newTestCoordinator(proj *recordingProjector) *Coordinator {
	return New(Config{
		EventID:        1,
		Markets:        fourMarkets(),
		Threshold:      dec("1"),
		Qty:            dec("1"),
		FeeRate:        dec("0"),
		PrintInterval:  time.Hour,
		ReconnectDelay: time.Second,
		DBInterval:     0,
		WriteTicks:     true,
		Projector:      proj,
		Logger:         zap.NewNop(),
	})
}

func snapshotEvent(assetID, ask string) types.BookEvent {
	a := dec(ask)
	return types.BookEvent{
		Kind:    types.EventSnapshot,
		AssetID: assetID,
		Asks:    []types.Level{{Price: a, Size: dec("100")}},
	}
}

func snapshotBidAskEvent(assetID, bid, ask string) types.BookEvent {
	b, a := dec(bid), dec(ask)
	return types.BookEvent{
		Kind:    types.EventSnapshot,
		AssetID: assetID,
		Bids:    []types.Level{{Price: b, Size: dec("100")}},
		Asks:    []types.Level{{Price: a, Size: dec("100")}},
	}
}

func TestCoordinator_OpenTransitionPersistsSignal(t *testing.T) {
	proj := &recordingProjector{}
	c := newTestCoordinator(proj)
	ctx := context.Background()
	now := time.Now()

	frame := streamclient.Frame{
		AsOf: now,
		Events: []types.BookEvent{
			snapshotEvent("a", "0.20"),
			snapshotEvent("b", "0.30"),
			snapshotEvent("c", "0.20"),
			snapshotEvent("d", "0.20"),
		},
	}

	c.handleFrame(ctx, frame)

	require.True(t, c.trader.IsOpen())
	require.Len(t, proj.signals, 1)
	require.Equal(t, types.BuyYesAll, proj.signals[0].Kind)
}

// TestCoordinator_TransientOpenCloseWithinSameFrameIsObserved pins down that
// a batched/list-wrapped wire frame carrying several BookEvents for the same
// asset is evaluated event-by-event, not once for the whole frame: a
// transient open-then-close that exists only between two events of the same
// frame must still be caught and acted on.
func TestCoordinator_TransientOpenCloseWithinSameFrameIsObserved(t *testing.T) {
	proj := &recordingProjector{}
	c := newTestCoordinator(proj)
	ctx := context.Background()
	now := time.Now()

	c.handleFrame(ctx, streamclient.Frame{
		AsOf: now,
		Events: []types.BookEvent{
			snapshotBidAskEvent("a", "0.29", "0.30"),
			snapshotBidAskEvent("b", "0.29", "0.30"),
			snapshotBidAskEvent("c", "0.29", "0.30"),
			snapshotBidAskEvent("d", "0.29", "0.30"),
		},
	})
	require.False(t, c.trader.IsOpen(), "sum 1.20 should not open at threshold 1")
	require.Empty(t, proj.signals)

	// Within a single later frame, d's ask dips low enough to open the
	// basket and then, in the very next event of the same frame, rises back
	// above threshold, closing it again. A per-frame (rather than
	// per-event) evaluation would never observe either transition.
	c.handleFrame(ctx, streamclient.Frame{
		AsOf: now.Add(time.Second),
		Events: []types.BookEvent{
			snapshotBidAskEvent("d", "0.04", "0.05"),
			snapshotBidAskEvent("d", "0.49", "0.50"),
		},
	})

	require.False(t, c.trader.IsOpen(), "basket should have closed again by the end of the frame")
	require.Len(t, proj.signals, 1, "the transient open must still emit exactly one signal")
	require.False(t, c.trader.PnL().RealizedPnL.IsZero(), "the transient open/close must realize PnL")
}

func TestCoordinator_FlushWritesLatestAndPnLForEveryTrackedAsset(t *testing.T) {
	proj := &recordingProjector{}
	c := newTestCoordinator(proj)
	ctx := context.Background()
	now := time.Now()

	frame := streamclient.Frame{
		AsOf: now,
		Events: []types.BookEvent{
			snapshotEvent("a", "0.20"),
		},
	}
	c.handleFrame(ctx, frame)

	require.Len(t, proj.latest, 1)
	require.Len(t, proj.ticks, 1)
	require.Len(t, proj.pnls, 1)
	require.Equal(t, "a", proj.latest[0].AssetID)
	require.Equal(t, int64(1), proj.latest[0].MarketID)
	require.Equal(t, "YES", proj.latest[0].Outcome)
}

func TestCoordinator_FlushThrottledByDBInterval(t *testing.T) {
	proj := &recordingProjector{}
	c := newTestCoordinator(proj)
	c.cfg.DBInterval = time.Hour
	ctx := context.Background()
	now := time.Now()

	c.handleFrame(ctx, streamclient.Frame{AsOf: now, Events: []types.BookEvent{snapshotEvent("a", "0.20")}})
	c.handleFrame(ctx, streamclient.Frame{AsOf: now.Add(time.Second), Events: []types.BookEvent{snapshotEvent("a", "0.21")}})

	require.Len(t, proj.pnls, 1, "second flush within db_interval_s should be skipped")
}

func TestCoordinator_UnknownEventKindIncrementsDroppedCounter(t *testing.T) {
	proj := &recordingProjector{}
	c := newTestCoordinator(proj)
	ctx := context.Background()

	before := testutil.ToFloat64(EventsDroppedTotal)
	c.handleFrame(ctx, streamclient.Frame{
		AsOf:   time.Now(),
		Events: []types.BookEvent{{Kind: types.EventUnknown, AssetID: "a"}},
	})
	after := testutil.ToFloat64(EventsDroppedTotal)

	require.Equal(t, before+1, after)
}
