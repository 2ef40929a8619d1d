package polymarket

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/alanyoungcy/polydepth/internal/domain"
)

// GammaClient is the REST client for the Polymarket Gamma API, which
// provides market discovery and metadata.
type GammaClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewGammaClient creates a new Gamma API client.
//
// baseURL is the Gamma API root, e.g. "https://gamma-api.polymarket.com".
// A non-positive timeout falls back to 30s.
func NewGammaClient(baseURL string, timeout time.Duration) *GammaClient {
	return &GammaClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: newHTTPClient(timeout),
	}
}

// BaseURL returns the configured API root.
func (g *GammaClient) BaseURL() string { return g.baseURL }

// ListMarketsRaw fetches /markets with the given query and returns the
// undecoded body together with the upstream status code.
func (g *GammaClient) ListMarketsRaw(ctx context.Context, params url.Values) ([]byte, int, error) {
	path := "/markets"
	if len(params) > 0 {
		path += "?" + params.Encode()
	}

	body, status, err := doGet(ctx, g.httpClient, g.baseURL+path)
	if err != nil {
		return body, status, fmt.Errorf("polymarket/gamma: list markets: %w", err)
	}
	return body, status, nil
}

// ListMarkets fetches /markets with the given query and decodes the result.
func (g *GammaClient) ListMarkets(ctx context.Context, params url.Values) ([]domain.Market, error) {
	body, _, err := g.ListMarketsRaw(ctx, params)
	if err != nil {
		return nil, err
	}
	return DecodeMarkets(body)
}

// GetMarket returns a single market by its ID.
func (g *GammaClient) GetMarket(ctx context.Context, id string) (domain.Market, error) {
	path := fmt.Sprintf("/markets/%s", url.PathEscape(id))

	body, _, err := doGet(ctx, g.httpClient, g.baseURL+path)
	if err != nil {
		return domain.Market{}, fmt.Errorf("polymarket/gamma: get market %s: %w", id, err)
	}

	var apiMarket APIMarket
	if err := json.Unmarshal(body, &apiMarket); err != nil {
		return domain.Market{}, fmt.Errorf("polymarket/gamma: decode market: %w: %w", domain.ErrInvalidJSON, err)
	}

	return apiMarket.ToDomainMarket(), nil
}

// DecodeMarkets decodes a Gamma /markets response body.
func DecodeMarkets(body []byte) ([]domain.Market, error) {
	var apiMarkets []APIMarket
	if err := json.Unmarshal(body, &apiMarkets); err != nil {
		return nil, fmt.Errorf("polymarket/gamma: decode markets: %w: %w", domain.ErrInvalidJSON, err)
	}

	markets := make([]domain.Market, 0, len(apiMarkets))
	for i := range apiMarkets {
		markets = append(markets, apiMarkets[i].ToDomainMarket())
	}
	return markets, nil
}
