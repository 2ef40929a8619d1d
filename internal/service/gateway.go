package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"

	"github.com/alanyoungcy/polydepth/internal/domain"
	"github.com/alanyoungcy/polydepth/internal/platform/polymarket"
)

// FetchFailedMessage is the only error text callers of the market
// passthrough ever see.
const FetchFailedMessage = "Failed to fetch market data"

// filterKeys are the listing filters forwarded upstream. Anything else in
// the incoming query is dropped.
var filterKeys = []string{
	"active",
	"archived",
	"closed",
	"liquidity_num_min",
	"volume_num_min",
	"limit",
	"offset",
	"order",
	"ascending",
	"end_date_max",
}

// filterDefaults fill absent keys when defaults are enabled.
var filterDefaults = [][2]string{
	{"active", "true"},
	{"archived", "false"},
	{"closed", "false"},
	{"liquidity_num_min", "100000"},
}

// MarketLister is the upstream listing API the gateway forwards to.
type MarketLister interface {
	ListMarketsRaw(ctx context.Context, params url.Values) ([]byte, int, error)
}

// Gateway forwards market listing requests to the upstream API under a
// fixed filter policy.
type Gateway struct {
	lister        MarketLister
	applyDefaults bool
	logger        *slog.Logger
}

// NewGateway creates a Gateway. When applyDefaults is false, recognized
// filters are forwarded exactly as received.
func NewGateway(lister MarketLister, applyDefaults bool, logger *slog.Logger) *Gateway {
	return &Gateway{
		lister:        lister,
		applyDefaults: applyDefaults,
		logger:        logger.With(slog.String("component", "gateway")),
	}
}

// Params applies the filter policy to an incoming query.
func (g *Gateway) Params(in url.Values) url.Values {
	out := url.Values{}
	for _, k := range filterKeys {
		if vs, ok := in[k]; ok {
			out[k] = append([]string(nil), vs...)
		}
	}
	if g.applyDefaults {
		for _, kv := range filterDefaults {
			if _, ok := out[kv[0]]; !ok {
				out.Set(kv[0], kv[1])
			}
		}
	}
	return out
}

// Fetch performs the upstream listing call and returns the body and status
// to pass through. Non-2xx statuses, transport failures, and bodies that
// are not valid JSON all return an error; the upstream detail is logged
// here and must not be shown to the caller.
func (g *Gateway) Fetch(ctx context.Context, in url.Values) ([]byte, int, error) {
	params := g.Params(in)

	body, status, err := g.lister.ListMarketsRaw(ctx, params)
	if err != nil {
		g.logger.ErrorContext(ctx, "gateway: upstream request failed",
			slog.Int("upstream_status", status),
			slog.String("query", params.Encode()),
			slog.String("error", err.Error()),
		)
		return nil, status, fmt.Errorf("gateway: fetch markets: %w", err)
	}

	if !json.Valid(body) {
		g.logger.ErrorContext(ctx, "gateway: upstream returned invalid json",
			slog.Int("upstream_status", status),
			slog.Int("bytes", len(body)),
		)
		return nil, status, fmt.Errorf("gateway: fetch markets: %w", domain.ErrInvalidJSON)
	}

	return body, status, nil
}

// Markets fetches and decodes a listing under the same filter policy.
func (g *Gateway) Markets(ctx context.Context, in url.Values) ([]domain.Market, error) {
	body, _, err := g.Fetch(ctx, in)
	if err != nil {
		return nil, err
	}
	markets, err := polymarket.DecodeMarkets(body)
	if err != nil {
		g.logger.ErrorContext(ctx, "gateway: decode markets failed",
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("gateway: %w", err)
	}
	return markets, nil
}
