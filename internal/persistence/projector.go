// Package persistence projects in-memory book state and paper-trading
// outcomes into durable storage: throttled "latest" upserts, optional
// append-only ticks, unthrottled arbitrage signal inserts, and running PnL
// upserts.
package persistence

import (
	"context"

	"github.com/mselser95/polymarket-arb/pkg/types"
)

// Projector is the Persistence Projector's storage-facing interface. All
// methods are best-effort from the coordinator's perspective: a returned
// error is logged by the caller and triggers connection recovery, never a
// process exit.
type Projector interface {
	// UpsertLatest writes or replaces the one row per asset in the latest
	// table.
	UpsertLatest(ctx context.Context, rec types.LatestRecord) error

	// InsertTick appends one row to the ticks table, ignoring a duplicate
	// (asset_id, as_of) conflict.
	InsertTick(ctx context.Context, rec types.TickRecord) error

	// InsertSignal records an arbitrage signal. Unthrottled; called once per
	// open transition.
	InsertSignal(ctx context.Context, sig types.ArbSignal) error

	// UpsertPnL writes the current running PnL for one event.
	UpsertPnL(ctx context.Context, eventID int64, pnl types.RunningPnL) error

	// Close releases the underlying storage handle.
	Close() error
}
