package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// MarketDescriptor is the immutable tuple the external metadata collaborator
// supplies at startup: a market's identity plus its YES/NO asset ids.
type MarketDescriptor struct {
	MarketID   int64
	Question   string
	YesAssetID string
	NoAssetID  string
}

// MarketView is the per-market derived view the Basket Evaluator computes on
// every event, built from the current top of the yes/no asset books.
type MarketView struct {
	MarketID int64
	YesBid   *decimal.Decimal
	YesAsk   *decimal.Decimal
	NoBid    *decimal.Decimal
	NoAsk    *decimal.Decimal
}

// BasketView is the evaluator's output for the full configured market set.
type BasketView struct {
	PerMarket map[int64]MarketView
	SumYesAsk *decimal.Decimal // absent unless every configured market has a YesAsk
	Ready     bool
	Open      bool
}

// BasketPosition is the paper trader's open-basket state; absent (nil) when
// flat.
type BasketPosition struct {
	QtyPerLeg      decimal.Decimal
	EntryYesPrices map[int64]decimal.Decimal
	EntryFees      map[int64]decimal.Decimal
	OpenedAt       time.Time
}

// RunningPnL tracks realized and unrealized profit for the configured event.
// Unrealized is nil while flat or while any leg's yes_bid is unknown, per
// spec: "absent" and "zero" are distinct.
type RunningPnL struct {
	RealizedPnL   decimal.Decimal
	UnrealizedPnL *decimal.Decimal
	UpdatedAt     time.Time
}

// SignalKind enumerates the kinds of arbitrage signal the system can emit.
type SignalKind string

// BuyYesAll is emitted on every basket open transition.
const BuyYesAll SignalKind = "BUY_YES_ALL"

// ArbSignal is one emitted arbitrage-opportunity record, persisted
// unthrottled on every open transition.
type ArbSignal struct {
	EventID int64
	AsOf    time.Time
	Kind    SignalKind
	Edge    decimal.Decimal
	Detail  map[string]any
}

// TickRecord is one point-in-time observation of an asset's top of book,
// destined for the append-only ticks table (or the latest table, same
// shape plus UpdatedAt).
type TickRecord struct {
	AssetID  string
	AsOf     time.Time
	MarketID int64
	Outcome  string
	BestBid  *decimal.Decimal
	BestAsk  *decimal.Decimal
	Mid      *decimal.Decimal
	Source   string
	Raw      map[string]any
}

// LatestRecord is a TickRecord plus the timestamp of the upsert that wrote
// it; one row per asset, keyed by AssetID.
type LatestRecord struct {
	TickRecord
	UpdatedAt time.Time
}
