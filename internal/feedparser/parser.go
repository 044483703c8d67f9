// Package feedparser normalizes heterogeneous CLOB wire messages into the
// small tagged event set the Book State and Coordinator consume.
package feedparser

import (
	"encoding/json"
	"fmt"

	"github.com/mselser95/polymarket-arb/pkg/types"
	"github.com/shopspring/decimal"
)

// assetIDFields is the ordered list of field names inspected to extract an
// asset id from a wire message; first hit wins.
var assetIDFields = []string{"asset_id", "assetId", "token_id", "tokenId"}

// Parse decodes one wire frame (a JSON object, a JSON array of objects, or a
// batch object carrying "price_changes") into zero or more BookEvents, in
// wire order. The caller (Stream Client) is expected to have already
// screened out non-JSON and keepalive frames; Parse returns an error for
// malformed JSON or for a top-level value that is neither an object nor an
// array, so the caller can count it as a transient feed error. Non-object
// elements of a list frame are skipped.
func Parse(raw []byte) ([]types.BookEvent, error) {
	var top any
	if err := json.Unmarshal(raw, &top); err != nil {
		return nil, fmt.Errorf("decode frame: %w", err)
	}

	msgs, err := flattenFrame(top)
	if err != nil {
		return nil, err
	}

	events := make([]types.BookEvent, 0, len(msgs))
	for _, m := range msgs {
		ev, ok := parseMessage(m)
		if !ok {
			continue
		}
		events = append(events, ev)
	}
	return events, nil
}

// flattenFrame expands a top-level list frame and "price_changes" batch
// wrappers into the individual message objects to be parsed, in order.
func flattenFrame(top any) ([]map[string]any, error) {
	switch v := top.(type) {
	case []any:
		out := make([]map[string]any, 0, len(v))
		for _, elem := range v {
			obj, ok := elem.(map[string]any)
			if !ok {
				continue
			}
			flattened, err := flattenFrame(obj)
			if err != nil {
				return nil, err
			}
			out = append(out, flattened...)
		}
		return out, nil
	case map[string]any:
		if batch, ok := v["price_changes"].([]any); ok {
			out := make([]map[string]any, 0, len(batch))
			for _, elem := range batch {
				item, ok := elem.(map[string]any)
				if !ok {
					continue
				}
				inherit(item, v, "timestamp")
				inherit(item, v, "market")
				inherit(item, v, "event_type")
				out = append(out, item)
			}
			return out, nil
		}
		return []map[string]any{v}, nil
	default:
		return nil, fmt.Errorf("unrecognized frame shape %T", top)
	}
}

// inherit copies field from parent into child if child doesn't already carry it.
func inherit(child, parent map[string]any, field string) {
	if _, present := child[field]; present {
		return
	}
	if v, ok := parent[field]; ok {
		child[field] = v
	}
}

// parseMessage classifies and parses a single message object. The second
// return value is false if the message carries none of the known asset-id
// fields, in which case it is dropped per spec.
func parseMessage(m map[string]any) (types.BookEvent, bool) {
	assetID, ok := extractAssetID(m)
	if !ok {
		return types.BookEvent{}, false
	}

	ev := types.BookEvent{AssetID: assetID, Raw: m}

	bidsRaw, hasBids := m["bids"]
	asksRaw, hasAsks := m["asks"]
	if hasBids && hasAsks {
		ev.Kind = types.EventSnapshot
		ev.Bids = parseLevels(bidsRaw)
		ev.Asks = parseLevels(asksRaw)
		return ev, true
	}

	_, hasBestBid := m["best_bid"]
	_, hasBestAsk := m["best_ask"]
	if hasBestBid || hasBestAsk {
		ev.Kind = types.EventTop
		ev.BestBid = parseOptionalDecimal(m["best_bid"])
		ev.BestAsk = parseOptionalDecimal(m["best_ask"])
		return ev, true
	}

	if changesRaw, ok := m["changes"].([]any); ok {
		ev.Kind = types.EventChanges
		ev.Changes = parseChanges(changesRaw)
		return ev, true
	}

	ev.Kind = types.EventUnknown
	return ev, true
}

// extractAssetID inspects, in order, the fields commonly emitted by
// prediction-market CLOB feeds.
func extractAssetID(m map[string]any) (string, bool) {
	for _, field := range assetIDFields {
		if v, ok := m[field]; ok {
			if s, ok := asString(v); ok && s != "" {
				return s, true
			}
		}
	}
	return "", false
}

func asString(v any) (string, bool) {
	s, ok := v.(string)
	return s, ok
}

// parseLevels parses a bids/asks list where each element is either a
// [price, size] pair or a {price, size|quantity} object. Elements that fail
// to parse as decimal are dropped silently; neither the parser nor the Book
// State logs them, since the Book State only ever sees the levels kept here.
func parseLevels(raw any) []types.Level {
	list, ok := raw.([]any)
	if !ok {
		return nil
	}
	levels := make([]types.Level, 0, len(list))
	for _, elem := range list {
		lvl, ok := parseLevel(elem)
		if !ok {
			continue
		}
		levels = append(levels, lvl)
	}
	return levels
}

func parseLevel(elem any) (types.Level, bool) {
	switch v := elem.(type) {
	case []any:
		if len(v) < 2 {
			return types.Level{}, false
		}
		price, ok1 := parseDecimal(v[0])
		size, ok2 := parseDecimal(v[1])
		if !ok1 || !ok2 {
			return types.Level{}, false
		}
		return types.Level{Price: price, Size: size}, true
	case map[string]any:
		price, ok1 := parseDecimal(v["price"])
		sizeRaw, hasSize := v["size"]
		if !hasSize {
			sizeRaw, hasSize = v["quantity"]
		}
		if !hasSize {
			return types.Level{}, false
		}
		size, ok2 := parseDecimal(sizeRaw)
		if !ok1 || !ok2 {
			return types.Level{}, false
		}
		return types.Level{Price: price, Size: size}, true
	default:
		return types.Level{}, false
	}
}

// parseChanges parses a changes list where each element is either a
// [side, price, size] triple or a {side|type, price, size|quantity} object.
func parseChanges(raw []any) []types.Change {
	changes := make([]types.Change, 0, len(raw))
	for _, elem := range raw {
		ch, ok := parseChange(elem)
		if !ok {
			continue
		}
		changes = append(changes, ch)
	}
	return changes
}

func parseChange(elem any) (types.Change, bool) {
	switch v := elem.(type) {
	case []any:
		if len(v) < 3 {
			return types.Change{}, false
		}
		sideStr, ok0 := asString(v[0])
		price, ok1 := parseDecimal(v[1])
		size, ok2 := parseDecimal(v[2])
		if !ok0 || !ok1 || !ok2 {
			return types.Change{}, false
		}
		return types.Change{Side: types.ParseSide(sideStr), Price: price, Size: size}, true
	case map[string]any:
		sideRaw, hasSide := v["side"]
		if !hasSide {
			sideRaw, hasSide = v["type"]
		}
		sideStr, _ := asString(sideRaw)
		price, ok1 := parseDecimal(v["price"])
		sizeRaw, hasSize := v["size"]
		if !hasSize {
			sizeRaw, hasSize = v["quantity"]
		}
		if !hasSide || !hasSize {
			return types.Change{}, false
		}
		size, ok2 := parseDecimal(sizeRaw)
		if !ok1 || !ok2 {
			return types.Change{}, false
		}
		return types.Change{Side: types.ParseSide(sideStr), Price: price, Size: size}, true
	default:
		return types.Change{}, false
	}
}

// parseDecimal parses a wire numeric value (string or float64, the two
// shapes encoding/json ever produces for untyped numbers) as decimal.
func parseDecimal(v any) (decimal.Decimal, bool) {
	switch t := v.(type) {
	case string:
		d, err := decimal.NewFromString(t)
		if err != nil {
			return decimal.Decimal{}, false
		}
		return d, true
	case float64:
		return decimal.NewFromFloat(t), true
	default:
		return decimal.Decimal{}, false
	}
}

// parseOptionalDecimal is parseDecimal but returns nil instead of false for
// an absent or unparsable field.
func parseOptionalDecimal(v any) *decimal.Decimal {
	if v == nil {
		return nil
	}
	d, ok := parseDecimal(v)
	if !ok {
		return nil
	}
	return &d
}
