// Package bookstate maintains per-asset limit order book state from a mixed
// feed of snapshots, top-of-book updates, and incremental deltas.
package bookstate

import (
	"sync"
	"time"

	"github.com/mselser95/polymarket-arb/pkg/types"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Book is one asset's order book: bid/ask depth maps plus the derived top.
// Zero value is not usable; construct with newBook.
type Book struct {
	bids map[string]types.Level // keyed by price.String()
	asks map[string]types.Level
	top  types.Top
}

func newBook() *Book {
	return &Book{
		bids: make(map[string]types.Level),
		asks: make(map[string]types.Level),
	}
}

// Store is a concurrency-safe registry of Books keyed by asset id. Books are
// created lazily on first event and live for the duration of the process.
type Store struct {
	mu     sync.RWMutex
	books  map[string]*Book
	logger *zap.Logger
}

// New creates an empty Store.
func New(logger *zap.Logger) *Store {
	return &Store{
		books:  make(map[string]*Book),
		logger: logger,
	}
}

func (s *Store) book(assetID string) *Book {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.books[assetID]
	if !ok {
		b = newBook()
		s.books[assetID] = b
		AssetsTracked.Set(float64(len(s.books)))
	}
	return b
}

// ApplySnapshot clears both sides of the named asset's book and loads the
// given levels, then recomputes the top. Levels with non-positive size are
// dropped; duplicate prices within the snapshot leave the last one applied.
func (s *Store) ApplySnapshot(assetID string, bids, asks []types.Level, asOf time.Time, raw map[string]any) {
	b := s.book(assetID)

	s.mu.Lock()
	defer s.mu.Unlock()

	b.bids = make(map[string]types.Level, len(bids))
	b.asks = make(map[string]types.Level, len(asks))

	for _, lvl := range bids {
		if lvl.Size.Sign() <= 0 {
			continue
		}
		b.bids[lvl.Price.String()] = lvl
	}
	for _, lvl := range asks {
		if lvl.Size.Sign() <= 0 {
			continue
		}
		b.asks[lvl.Price.String()] = lvl
	}

	s.recomputeTop(b, asOf, raw)
	SnapshotsApplied.Inc()

	if s.logger != nil {
		s.logger.Debug("book-snapshot-applied",
			zap.String("asset-id", assetID),
			zap.Int("bid-levels", len(b.bids)),
			zap.Int("ask-levels", len(b.asks)))
	}
}

// ApplyChanges applies incremental deltas to the named asset's book: a
// non-positive size removes the level (a no-op if absent), a positive size
// sets it. Unknown side tags are ignored. Recomputes the top.
func (s *Store) ApplyChanges(assetID string, changes []types.Change, asOf time.Time, raw map[string]any) {
	b := s.book(assetID)

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, ch := range changes {
		var side map[string]types.Level
		switch ch.Side {
		case types.SideBid:
			side = b.bids
		case types.SideAsk:
			side = b.asks
		default:
			continue
		}

		key := ch.Price.String()
		if ch.Size.Sign() <= 0 {
			delete(side, key)
			continue
		}
		side[key] = types.Level{Price: ch.Price, Size: ch.Size}
	}

	ChangesApplied.Add(float64(len(changes)))
	s.recomputeTop(b, asOf, raw)

	if s.logger != nil {
		s.logger.Debug("book-changes-applied",
			zap.String("asset-id", assetID),
			zap.Int("change-count", len(changes)))
	}
}

// ApplyTop directly overwrites the named asset's top without touching the
// depth maps, which may go stale relative to it; the top path is
// authoritative for the top view regardless.
func (s *Store) ApplyTop(assetID string, bestBid, bestAsk *decimal.Decimal, asOf time.Time, raw map[string]any) {
	b := s.book(assetID)

	s.mu.Lock()
	defer s.mu.Unlock()

	b.top = types.Top{
		BestBid: bestBid,
		BestAsk: bestAsk,
		AsOf:    asOf,
		Raw:     raw,
	}

	if s.logger != nil {
		s.logger.Debug("book-top-applied", zap.String("asset-id", assetID))
	}
}

// Top returns the current top-of-book view for an asset. The second return
// value is false if the asset has never received an event.
func (s *Store) Top(assetID string) (types.Top, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, ok := s.books[assetID]
	if !ok {
		return types.Top{}, false
	}
	return b.top, true
}

// Snapshot returns the current top-of-book view for every tracked asset, for
// debug/observability surfaces; it is not used by the coordinator's event
// pipeline.
func (s *Store) Snapshot() map[string]types.Top {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]types.Top, len(s.books))
	for assetID, b := range s.books {
		out[assetID] = b.top
	}
	return out
}

// recomputeTop derives best_bid/best_ask from the depth maps. Caller must
// hold s.mu.
func (s *Store) recomputeTop(b *Book, asOf time.Time, raw map[string]any) {
	var bestBid, bestAsk *types.Level
	for _, lvl := range b.bids {
		if bestBid == nil || lvl.Price.GreaterThan(bestBid.Price) {
			l := lvl
			bestBid = &l
		}
	}
	for _, lvl := range b.asks {
		if bestAsk == nil || lvl.Price.LessThan(bestAsk.Price) {
			l := lvl
			bestAsk = &l
		}
	}

	top := types.Top{AsOf: asOf, Raw: raw}
	if bestBid != nil {
		p := bestBid.Price
		top.BestBid = &p
	}
	if bestAsk != nil {
		p := bestAsk.Price
		top.BestAsk = &p
	}
	b.top = top
}
