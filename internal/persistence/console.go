package persistence

import (
	"context"
	"fmt"

	"github.com/mselser95/polymarket-arb/pkg/types"
	"go.uber.org/zap"
)

// Console is a Projector that pretty-prints to stdout instead of writing to
// a database; used when write_db is disabled.
type Console struct {
	logger *zap.Logger
}

// NewConsole creates a Console projector.
func NewConsole(logger *zap.Logger) *Console {
	logger.Info("console-projector-initialized")
	return &Console{logger: logger}
}

// UpsertLatest is a no-op print; console mode has no "latest" table.
func (c *Console) UpsertLatest(_ context.Context, rec types.LatestRecord) error {
	c.logger.Debug("console-latest",
		zap.String("asset-id", rec.AssetID),
		zap.Int64("market-id", rec.MarketID),
		zap.String("outcome", rec.Outcome))
	return nil
}

// InsertTick is a no-op print; console mode does not log ticks.
func (c *Console) InsertTick(_ context.Context, rec types.TickRecord) error {
	c.logger.Debug("console-tick", zap.String("asset-id", rec.AssetID))
	return nil
}

// InsertSignal pretty-prints an arbitrage signal to stdout, matching the
// teacher's box-drawing console report style.
func (c *Console) InsertSignal(_ context.Context, sig types.ArbSignal) error {
	fmt.Println("\n" + "━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	fmt.Printf("ARBITRAGE SIGNAL: %s\n", sig.Kind)
	fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	fmt.Printf("Event:    %d\n", sig.EventID)
	fmt.Printf("Time:     %s\n", sig.AsOf.Format("2006-01-02 15:04:05"))
	fmt.Printf("Edge:     %s\n", sig.Edge.StringFixed(4))
	fmt.Printf("Detail:   %v\n", sig.Detail)
	fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	return nil
}

// UpsertPnL prints the running PnL snapshot.
func (c *Console) UpsertPnL(_ context.Context, eventID int64, pnl types.RunningPnL) error {
	unrealized := "n/a"
	if pnl.UnrealizedPnL != nil {
		unrealized = pnl.UnrealizedPnL.StringFixed(4)
	}
	fmt.Printf("[event %d] realized=%s unrealized=%s\n", eventID, pnl.RealizedPnL.StringFixed(4), unrealized)
	return nil
}

// Close is a no-op for console projection.
func (c *Console) Close() error {
	c.logger.Info("closing-console-projector")
	return nil
}
