package domain

import "github.com/shopspring/decimal"

// PriceLevel is a single resting order entry. Price or Size is zero when the
// upstream string could not be parsed; Malformed records that.
type PriceLevel struct {
	Price     decimal.Decimal `json:"price"`
	Size      decimal.Decimal `json:"size"`
	Malformed bool            `json:"malformed,omitempty"`
}

// OrderBook is a snapshot of resting orders for one token. The order of
// entries on each side is whatever the upstream sent and is not trusted.
type OrderBook struct {
	TokenID   string       `json:"token_id"`
	Market    string       `json:"market,omitempty"`
	Bids      []PriceLevel `json:"bids"`
	Asks      []PriceLevel `json:"asks"`
	Malformed int          `json:"malformed"`
}
