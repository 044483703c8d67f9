package httpserver

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/mselser95/polymarket-arb/internal/coordinator"
	"go.uber.org/zap"
)

// DebugHandler serves read-only snapshots of coordinator state: book tops
// and paper-trader position/PnL.
type DebugHandler struct {
	coord  *coordinator.Coordinator
	logger *zap.Logger
}

// NewDebugHandler creates a debug handler bound to a running Coordinator.
func NewDebugHandler(coord *coordinator.Coordinator, logger *zap.Logger) *DebugHandler {
	return &DebugHandler{coord: coord, logger: logger}
}

// bookTopResponse mirrors types.Top with JSON-friendly decimal strings.
type bookTopResponse struct {
	AssetID string  `json:"asset_id"`
	BestBid *string `json:"best_bid"`
	BestAsk *string `json:"best_ask"`
}

// HandleBooks handles GET /debug/books, returning the current top of every
// tracked asset's book.
func (h *DebugHandler) HandleBooks(w http.ResponseWriter, r *http.Request) {
	snapshot := h.coord.Books().Snapshot()

	resp := make([]bookTopResponse, 0, len(snapshot))
	for assetID, top := range snapshot {
		entry := bookTopResponse{AssetID: assetID}
		if top.BestBid != nil {
			s := top.BestBid.String()
			entry.BestBid = &s
		}
		if top.BestAsk != nil {
			s := top.BestAsk.String()
			entry.BestAsk = &s
		}
		resp = append(resp, entry)
	}

	h.writeJSON(w, resp)
}

// positionResponse mirrors types.BasketPosition with JSON-friendly decimal
// strings, plus the current running PnL.
type positionResponse struct {
	Open          bool              `json:"open"`
	QtyPerLeg     *string           `json:"qty_per_leg,omitempty"`
	EntryPrices   map[string]string `json:"entry_yes_prices,omitempty"`
	RealizedPnL   string            `json:"realized_pnl"`
	UnrealizedPnL *string           `json:"unrealized_pnl"`
}

// HandlePosition handles GET /debug/position, returning the paper trader's
// current position and running PnL.
func (h *DebugHandler) HandlePosition(w http.ResponseWriter, r *http.Request) {
	pos := h.coord.Position()
	pnl := h.coord.PnL()

	resp := positionResponse{
		Open:        pos != nil,
		RealizedPnL: pnl.RealizedPnL.String(),
	}
	if pnl.UnrealizedPnL != nil {
		s := pnl.UnrealizedPnL.String()
		resp.UnrealizedPnL = &s
	}
	if pos != nil {
		qty := pos.QtyPerLeg.String()
		resp.QtyPerLeg = &qty
		resp.EntryPrices = make(map[string]string, len(pos.EntryYesPrices))
		for marketID, price := range pos.EntryYesPrices {
			resp.EntryPrices[strconv.FormatInt(marketID, 10)] = price.String()
		}
	}

	h.writeJSON(w, resp)
}

func (h *DebugHandler) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("failed-to-encode-response", zap.Error(err))
	}
}
