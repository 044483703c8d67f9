package types

import "github.com/shopspring/decimal"

// EventKind tags the normalized shape the feed parser produced from one wire
// message, per spec §4.2.
type EventKind int

const (
	EventUnknown EventKind = iota
	EventSnapshot
	EventTop
	EventChanges
)

// BookEvent is the tagged union the Feed Parser emits and the Book State and
// Coordinator consume. Exactly one group of payload fields is meaningful,
// selected by Kind; Raw always carries the originating wire message.
type BookEvent struct {
	Kind    EventKind
	AssetID string

	// EventSnapshot
	Bids []Level
	Asks []Level

	// EventTop
	BestBid *decimal.Decimal
	BestAsk *decimal.Decimal

	// EventChanges
	Changes []Change

	Raw map[string]any
}
