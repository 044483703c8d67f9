// Package markets resolves a market identifier to its immutable
// MarketDescriptor (question, YES/NO asset ids) via the Gamma API, the
// external metadata collaborator spec.md treats as an out-of-scope
// interface. Resolution happens once per market at startup; failures here
// are fatal (spec kind 4).
package markets

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/mselser95/polymarket-arb/pkg/cache"
	"github.com/mselser95/polymarket-arb/pkg/types"
	"go.uber.org/zap"
)

// gammaMarket is the subset of the Gamma API's market object this resolver
// needs. outcomes and clobTokenIds MAY arrive as JSON-encoded strings
// instead of arrays — the Gamma API does this for some market shapes — and
// MUST be decoded before use.
type gammaMarket struct {
	Question     string          `json:"question"`
	Outcomes     json.RawMessage `json:"outcomes"`
	ClobTokenIDs json.RawMessage `json:"clobTokenIds"`
}

// Resolver looks up market descriptors from the Gamma API, caching results
// so a market referenced more than once (unexpected, given the fixed
// startup configuration, but harmless) costs one HTTP round trip.
type Resolver struct {
	baseURL    string
	httpClient *http.Client
	cache      cache.Cache
	logger     *zap.Logger
}

// Config holds the resolver's HTTP and caching parameters.
type Config struct {
	BaseURL string
	Timeout time.Duration
	Cache   cache.Cache
	Logger  *zap.Logger
}

// New creates a Resolver. Cache may be nil, in which case lookups are never
// cached.
func New(cfg Config) *Resolver {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &Resolver{
		baseURL:    cfg.BaseURL,
		httpClient: &http.Client{Timeout: timeout},
		cache:      cfg.Cache,
		logger:     cfg.Logger,
	}
}

const cacheTTL = 10 * time.Minute

// Resolve fetches and decodes the market descriptor for marketID. A
// non-binary outcome set (more than two outcomes are logged as a warning
// first), a mismatched outcomes/clobTokenIds length, or no case-insensitive
// "yes"/"no" pair is a fatal configuration error, per spec §6's failure
// modes.
func (r *Resolver) Resolve(ctx context.Context, marketID int64) (types.MarketDescriptor, error) {
	cacheKey := fmt.Sprintf("market:%d", marketID)
	if r.cache != nil {
		if v, ok := r.cache.Get(cacheKey); ok {
			if desc, ok := v.(types.MarketDescriptor); ok {
				CacheHitsTotal.Inc()
				return desc, nil
			}
		}
	}

	desc, err := r.resolveUncached(ctx, marketID)
	if err != nil {
		ResolutionsTotal.WithLabelValues("error").Inc()
		return types.MarketDescriptor{}, err
	}
	ResolutionsTotal.WithLabelValues("ok").Inc()

	if r.cache != nil {
		r.cache.Set(cacheKey, desc, cacheTTL)
	}

	return desc, nil
}

func (r *Resolver) resolveUncached(ctx context.Context, marketID int64) (types.MarketDescriptor, error) {
	gm, err := r.fetch(ctx, marketID)
	if err != nil {
		return types.MarketDescriptor{}, fmt.Errorf("fetch market %d: %w", marketID, err)
	}

	outcomes, err := decodeStringArray(gm.Outcomes)
	if err != nil {
		return types.MarketDescriptor{}, fmt.Errorf("decode outcomes for market %d: %w", marketID, err)
	}
	tokenIDs, err := decodeStringArray(gm.ClobTokenIDs)
	if err != nil {
		return types.MarketDescriptor{}, fmt.Errorf("decode clobTokenIds for market %d: %w", marketID, err)
	}

	if len(outcomes) < 2 || len(tokenIDs) < 2 {
		return types.MarketDescriptor{}, fmt.Errorf("market %d: outcomes/clobTokenIds length < 2 (outcomes=%d tokens=%d)",
			marketID, len(outcomes), len(tokenIDs))
	}
	if len(outcomes) != len(tokenIDs) {
		return types.MarketDescriptor{}, fmt.Errorf("market %d: outcomes/clobTokenIds length mismatch (%d vs %d)",
			marketID, len(outcomes), len(tokenIDs))
	}
	if len(outcomes) > 2 {
		r.logger.Warn("market-has-more-than-two-outcomes",
			zap.Int64("market-id", marketID),
			zap.Int("outcome-count", len(outcomes)))
		return types.MarketDescriptor{}, fmt.Errorf("market %d: expected a binary market, got %d outcomes %v",
			marketID, len(outcomes), outcomes)
	}

	yesIdx, noIdx := -1, -1
	for i, outcome := range outcomes {
		switch strings.ToLower(outcome) {
		case "yes":
			yesIdx = i
		case "no":
			noIdx = i
		}
	}
	if yesIdx == -1 || noIdx == -1 {
		return types.MarketDescriptor{}, fmt.Errorf("market %d: no yes/no outcome pair found in %v", marketID, outcomes)
	}

	return types.MarketDescriptor{
		MarketID:   marketID,
		Question:   gm.Question,
		YesAssetID: tokenIDs[yesIdx],
		NoAssetID:  tokenIDs[noIdx],
	}, nil
}

// ResolveAll resolves every market id in order, fatal-fast on the first
// failure so startup surfaces an actionable message.
func (r *Resolver) ResolveAll(ctx context.Context, marketIDs []int64) ([]types.MarketDescriptor, error) {
	descs := make([]types.MarketDescriptor, 0, len(marketIDs))
	for _, id := range marketIDs {
		d, err := r.Resolve(ctx, id)
		if err != nil {
			return nil, err
		}
		descs = append(descs, d)
	}
	return descs, nil
}

func (r *Resolver) fetch(ctx context.Context, marketID int64) (gammaMarket, error) {
	url := fmt.Sprintf("%s/markets/%d", r.baseURL, marketID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return gammaMarket{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return gammaMarket{}, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return gammaMarket{}, fmt.Errorf("read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return gammaMarket{}, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body))
	}

	var gm gammaMarket
	if err := json.Unmarshal(body, &gm); err != nil {
		return gammaMarket{}, fmt.Errorf("unmarshal market: %w", err)
	}
	return gm, nil
}

// decodeStringArray decodes a Gamma API field that may arrive either as a
// JSON array of strings or as a JSON string containing an encoded array.
func decodeStringArray(raw json.RawMessage) ([]string, error) {
	if len(raw) == 0 {
		return nil, nil
	}

	var arr []string
	if err := json.Unmarshal(raw, &arr); err == nil {
		return arr, nil
	}

	var encoded string
	if err := json.Unmarshal(raw, &encoded); err != nil {
		return nil, fmt.Errorf("field is neither an array nor an encoded string: %w", err)
	}
	if err := json.Unmarshal([]byte(encoded), &arr); err != nil {
		return nil, fmt.Errorf("decode nested encoded array: %w", err)
	}
	return arr, nil
}
