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

// ClobClient is the read-only REST client for the Polymarket CLOB
// (Central Limit Order Book) API.
type ClobClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewClobClient creates a new CLOB REST client.
//
// baseURL is the CLOB API root, e.g. "https://clob.polymarket.com".
func NewClobClient(baseURL string, timeout time.Duration) *ClobClient {
	return &ClobClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: newHTTPClient(timeout),
	}
}

// BaseURL returns the configured API root.
func (c *ClobClient) BaseURL() string { return c.baseURL }

// GetBook fetches the order book snapshot for a single token.
func (c *ClobClient) GetBook(ctx context.Context, tokenID string) (domain.OrderBook, error) {
	params := url.Values{}
	params.Set("token_id", tokenID)

	body, _, err := doGet(ctx, c.httpClient, c.baseURL+"/book?"+params.Encode())
	if err != nil {
		return domain.OrderBook{}, fmt.Errorf("polymarket/clob: get book %s: %w", tokenID, err)
	}

	var apiBook APIBook
	if err := json.Unmarshal(body, &apiBook); err != nil {
		return domain.OrderBook{}, fmt.Errorf("polymarket/clob: decode book: %w: %w", domain.ErrInvalidJSON, err)
	}

	return apiBook.ToDomainBook(tokenID), nil
}
