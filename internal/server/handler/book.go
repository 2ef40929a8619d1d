package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/alanyoungcy/polydepth/internal/depth"
	"github.com/alanyoungcy/polydepth/internal/service"
)

// TokenDepthService computes a card straight from a token book.
type TokenDepthService interface {
	TokenDepth(ctx context.Context, tokenID string, bestBid, bestAsk *decimal.Decimal, opts service.Options) depth.Card
}

// BookHandler serves the token book depth endpoint.
type BookHandler struct {
	depth  TokenDepthService
	logger *slog.Logger
}

// NewBookHandler creates a BookHandler.
func NewBookHandler(depthSvc TokenDepthService, logger *slog.Logger) *BookHandler {
	return &BookHandler{
		depth:  depthSvc,
		logger: logger.With(slog.String("handler", "book")),
	}
}

// GetBook computes depth for one token. best_bid and best_ask are optional;
// without them use mid_source=book.
// GET /api/book?token_id=...&best_bid=0.50&best_ask=0.52
func (h *BookHandler) GetBook(w http.ResponseWriter, r *http.Request) {
	tokenID := r.URL.Query().Get("token_id")
	if tokenID == "" {
		writeError(w, http.StatusBadRequest, "token_id is required")
		return
	}

	opts, err := parseOptions(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	bestBid, err := parseDecimalParam(r, "best_bid")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	bestAsk, err := parseDecimalParam(r, "best_ask")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	card := h.depth.TokenDepth(r.Context(), tokenID, bestBid, bestAsk, opts)
	if card.Status != depth.StatusOK {
		h.logger.DebugContext(r.Context(), "handler: token card degraded",
			slog.String("token_id", tokenID),
			slog.String("status", string(card.Status)),
		)
	}

	writeJSON(w, http.StatusOK, card)
}
