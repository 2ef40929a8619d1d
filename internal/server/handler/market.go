package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/alanyoungcy/polydepth/internal/depth"
	"github.com/alanyoungcy/polydepth/internal/domain"
	"github.com/alanyoungcy/polydepth/internal/service"
)

// MarketGateway is the listing passthrough the market handler forwards to.
// It is declared locally so the handler package does not depend on the
// concrete service implementation.
type MarketGateway interface {
	Fetch(ctx context.Context, filters url.Values) ([]byte, int, error)
}

// DepthService defines the card computations the handlers require.
type DepthService interface {
	MarketDepth(ctx context.Context, marketID string, opts service.Options) (depth.Card, error)
	Dashboard(ctx context.Context, filters url.Values, opts service.Options) ([]depth.Card, error)
}

// MarketHandler serves market listing and per-market depth endpoints.
type MarketHandler struct {
	gateway MarketGateway
	depth   DepthService
	logger  *slog.Logger
}

// NewMarketHandler creates a MarketHandler with the given services and logger.
func NewMarketHandler(gateway MarketGateway, depthSvc DepthService, logger *slog.Logger) *MarketHandler {
	return &MarketHandler{
		gateway: gateway,
		depth:   depthSvc,
		logger:  logger.With(slog.String("handler", "market")),
	}
}

// ListMarkets passes the upstream listing through unchanged.
// GET /api/markets?active=true&limit=10
func (h *MarketHandler) ListMarkets(w http.ResponseWriter, r *http.Request) {
	body, status, err := h.gateway.Fetch(r.Context(), r.URL.Query())
	if err != nil {
		// The gateway has already logged the upstream detail.
		writeFetchFailed(w)
		return
	}
	writeRaw(w, status, body)
}

// GetDepth returns the card for a single market.
// GET /api/markets/{id}/depth?token_index=0&mid_source=market&ladder_depth=10
func (h *MarketHandler) GetDepth(w http.ResponseWriter, r *http.Request) {
	id := pathParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing market id")
		return
	}

	opts, err := parseOptions(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	card, err := h.depth.MarketDepth(r.Context(), id, opts)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "market not found")
			return
		}
		h.logger.ErrorContext(r.Context(), "handler: market depth failed",
			slog.String("market_id", id),
			slog.String("error", err.Error()),
		)
		writeFetchFailed(w)
		return
	}

	writeJSON(w, http.StatusOK, card)
}

// dashboardResponse wraps the dashboard cards with a leverage summary.
type dashboardResponse struct {
	Cards        []depth.Card `json:"cards"`
	Count        int          `json:"count"`
	Leverageable int          `json:"leverageable"`
}

// Dashboard lists markets with the given filters and returns every card.
// GET /api/dashboard?limit=5&order=liquidity
func (h *MarketHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	opts, err := parseOptions(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	cards, err := h.depth.Dashboard(r.Context(), r.URL.Query(), opts)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "handler: dashboard failed",
			slog.String("error", err.Error()),
		)
		writeFetchFailed(w)
		return
	}

	resp := dashboardResponse{Cards: cards, Count: len(cards)}
	for _, c := range cards {
		if c.CanBeLeveraged {
			resp.Leverageable++
		}
	}
	writeJSON(w, http.StatusOK, resp)
}
