package types

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Side identifies which side of an order book a level or change belongs to.
type Side int

const (
	// SideUnknown is returned for a side tag the feed parser does not recognize.
	SideUnknown Side = iota
	SideBid
	SideAsk
)

// ParseSide normalizes the feed's side strings ("buy", "bid", "sell", "ask",
// case-insensitive) into a Side. Unknown tags return SideUnknown.
func ParseSide(raw string) Side {
	switch strings.ToLower(raw) {
	case "buy", "bid":
		return SideBid
	case "sell", "ask":
		return SideAsk
	default:
		return SideUnknown
	}
}

// Level is a single price/size pair in an order book. Size is strictly
// positive for a resting level; a level carrying size <= 0 signals removal
// and is never stored.
type Level struct {
	Price decimal.Decimal
	Size  decimal.Decimal
}

// Change is one incremental mutation to an order book: set or remove the
// level at Price on Side, depending on whether Size is positive.
type Change struct {
	Side  Side
	Price decimal.Decimal
	Size  decimal.Decimal
}

// Top is the derived top-of-book view for one asset at a point in time.
type Top struct {
	BestBid *decimal.Decimal
	BestAsk *decimal.Decimal
	AsOf    time.Time
	Raw     map[string]any
}

// Mid returns (BestBid+BestAsk)/2 when both sides are present, else nil.
func (t Top) Mid() *decimal.Decimal {
	if t.BestBid == nil || t.BestAsk == nil {
		return nil
	}
	mid := t.BestBid.Add(*t.BestAsk).Div(decimal.NewFromInt(2))
	return &mid
}
