package domain

import "github.com/shopspring/decimal"

// Market is a prediction market as listed by the upstream market API.
// Values are fetched per request and never mutated afterwards.
type Market struct {
	ID        string           `json:"id"`
	Question  string           `json:"question"`
	Slug      string           `json:"slug,omitempty"`
	Liquidity decimal.Decimal  `json:"liquidity"`
	Volume    decimal.Decimal  `json:"volume"`
	Active    bool             `json:"active"`
	Archived  bool             `json:"archived"`
	Closed    bool             `json:"closed"`
	BestBid   *decimal.Decimal `json:"best_bid,omitempty"`
	BestAsk   *decimal.Decimal `json:"best_ask,omitempty"`

	// TokenIDs are the tradable outcome tokens, first outcome first.
	TokenIDs []string `json:"token_ids"`
	// TokenIDsValid is false when the upstream encoding could not be parsed
	// and TokenIDs was degraded to an empty list.
	TokenIDsValid bool `json:"token_ids_valid"`
}

// TokenID returns the token at index i, or "" when out of range.
func (m Market) TokenID(i int) string {
	if i < 0 || i >= len(m.TokenIDs) {
		return ""
	}
	return m.TokenIDs[i]
}
