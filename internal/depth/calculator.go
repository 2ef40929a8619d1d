// Package depth derives mid-price and banded order-book depth from a raw
// book snapshot. It performs no I/O; callers feed it pre-fetched data.
package depth

import (
	"github.com/shopspring/decimal"

	"github.com/alanyoungcy/polydepth/internal/domain"
)

var (
	one  = decimal.NewFromInt(1)
	half = decimal.New(5, -1)
)

// Quote is a best bid/ask pair. Either side may be absent.
type Quote struct {
	BestBid *decimal.Decimal `json:"best_bid,omitempty"`
	BestAsk *decimal.Decimal `json:"best_ask,omitempty"`
}

// Complete reports whether both sides are present.
func (q Quote) Complete() bool {
	return q.BestBid != nil && q.BestAsk != nil
}

// QuoteFromMarket takes the quote published with the market listing.
func QuoteFromMarket(m domain.Market) Quote {
	return Quote{BestBid: m.BestBid, BestAsk: m.BestAsk}
}

// QuoteFromBook scans the whole book for the highest bid and the lowest ask.
// Malformed levels are ignored. A side with no usable level is absent.
// sorted is false when bids[0] or asks[0] was not the top of its side.
func QuoteFromBook(book domain.OrderBook) (q Quote, sorted bool) {
	sorted = true
	for i, lvl := range book.Bids {
		if lvl.Malformed {
			continue
		}
		if q.BestBid == nil || lvl.Price.GreaterThan(*q.BestBid) {
			p := lvl.Price
			q.BestBid = &p
			if i > 0 {
				sorted = false
			}
		}
	}
	for i, lvl := range book.Asks {
		if lvl.Malformed {
			continue
		}
		if q.BestAsk == nil || lvl.Price.LessThan(*q.BestAsk) {
			p := lvl.Price
			q.BestAsk = &p
			if i > 0 {
				sorted = false
			}
		}
	}
	return q, sorted
}

// Result holds the derived metrics for one book.
type Result struct {
	Source       MidSource       `json:"source"`
	Computed     bool            `json:"computed"`
	MidPrice     decimal.Decimal `json:"mid_price"`
	LowerBound   decimal.Decimal `json:"lower_bound"`
	UpperBound   decimal.Decimal `json:"upper_bound"`
	BidLiquidity decimal.Decimal `json:"bid_liquidity"`
	AskLiquidity decimal.Decimal `json:"ask_liquidity"`
	TotalDepth   decimal.Decimal `json:"total_depth"`
}

// Calculator applies a Config to book snapshots. It is safe for concurrent
// use; it holds no mutable state.
type Calculator struct {
	cfg Config
}

// NewCalculator creates a Calculator for the given policy.
func NewCalculator(cfg Config) *Calculator {
	return &Calculator{cfg: cfg}
}

// Config returns the policy in use.
func (c *Calculator) Config() Config {
	return c.cfg
}

// Evaluate picks the quote for source, then calculates. sorted is false
// when the book's first entries were not its top of book (book source only).
func (c *Calculator) Evaluate(source MidSource, market Quote, book domain.OrderBook) (res Result, sorted bool, err error) {
	q, sorted := market, true
	if source == MidSourceBook {
		q, sorted = QuoteFromBook(book)
	}
	res, err = c.Calculate(q, book)
	res.Source = source
	return res, sorted, err
}

// Calculate derives mid-price and band depth from q and book. When either
// side of q is absent it returns a zero Result and domain.ErrMissingQuote.
// Malformed levels never qualify for either band.
func (c *Calculator) Calculate(q Quote, book domain.OrderBook) (Result, error) {
	if !q.Complete() {
		return Result{}, domain.ErrMissingQuote
	}

	mid := q.BestBid.Add(*q.BestAsk).Mul(half)
	lower := mid.Mul(one.Sub(c.cfg.BandWidthFraction))
	upper := mid.Mul(one.Add(c.cfg.BandWidthFraction))

	bidLiq := decimal.Zero
	for _, lvl := range book.Bids {
		if qualifies(lvl) && lvl.Price.GreaterThanOrEqual(lower) {
			bidLiq = bidLiq.Add(lvl.Size)
		}
	}
	askLiq := decimal.Zero
	for _, lvl := range book.Asks {
		if qualifies(lvl) && lvl.Price.LessThanOrEqual(upper) {
			askLiq = askLiq.Add(lvl.Size)
		}
	}

	return Result{
		Computed:     true,
		MidPrice:     mid,
		LowerBound:   lower,
		UpperBound:   upper,
		BidLiquidity: bidLiq,
		AskLiquidity: askLiq,
		TotalDepth:   bidLiq.Add(askLiq),
	}, nil
}

// qualifies keeps negative sizes and unparsable entries out of the sums.
func qualifies(lvl domain.PriceLevel) bool {
	return !lvl.Malformed && lvl.Size.IsPositive()
}
