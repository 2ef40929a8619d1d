package depth

import (
	"errors"

	"github.com/shopspring/decimal"

	"github.com/alanyoungcy/polydepth/internal/domain"
)

// CardStatus describes the last outcome applied to a Card.
type CardStatus string

const (
	StatusPending     CardStatus = "pending"
	StatusOK          CardStatus = "ok"
	StatusNoQuote     CardStatus = "no_quote"
	StatusNoToken     CardStatus = "no_token"
	StatusUnavailable CardStatus = "unavailable"
)

// Card is the view value for one market. It is never mutated in place;
// Apply returns the next value.
type Card struct {
	MarketID       string          `json:"market_id"`
	Question       string          `json:"question"`
	Liquidity      decimal.Decimal `json:"liquidity"`
	TokenID        string          `json:"token_id,omitempty"`
	Quote          Quote           `json:"quote"`
	Status         CardStatus      `json:"status"`
	Depth          Result          `json:"depth"`
	CanBeLeveraged bool            `json:"can_be_leveraged"`
	Malformed      int             `json:"malformed_levels"`
	BookSorted     bool            `json:"book_sorted"`
	Ladder         *Ladder         `json:"ladder,omitempty"`
}

// NewCard starts a pending card for the token at tokenIndex of m.
func NewCard(m domain.Market, tokenIndex int) Card {
	return Card{
		MarketID:   m.ID,
		Question:   m.Question,
		Liquidity:  m.Liquidity,
		TokenID:    m.TokenID(tokenIndex),
		Quote:      QuoteFromMarket(m),
		Status:     StatusPending,
		BookSorted: true,
	}
}

// Event is something that happened to a card's market.
type Event interface {
	isEvent()
}

// BookLoaded carries a fetched book. LadderDepth > 0 attaches a ladder of
// that many levels per side; LadderDepth < 0 attaches every level.
type BookLoaded struct {
	Book        domain.OrderBook
	Source      MidSource
	LadderDepth int
}

// BookFailed records that the book could not be fetched.
type BookFailed struct {
	Err error
}

// NoToken records that the market has no token to fetch a book for.
type NoToken struct{}

func (BookLoaded) isEvent() {}
func (BookFailed) isEvent() {}
func (NoToken) isEvent()    {}

// Apply returns the card that results from ev. When no metrics can be
// derived, the previous metrics are kept (zero for a new card).
func (c Card) Apply(ev Event, calc *Calculator) Card {
	next := c
	switch e := ev.(type) {
	case BookLoaded:
		if e.Book.TokenID != "" {
			next.TokenID = e.Book.TokenID
		}
		next.Malformed = e.Book.Malformed
		if e.LadderDepth != 0 {
			l := BuildLadder(e.Book, max(e.LadderDepth, 0))
			next.Ladder = &l
		}

		source := e.Source
		if source == "" {
			source = calc.Config().MidSource
		}
		res, sorted, err := calc.Evaluate(source, c.Quote, e.Book)
		next.BookSorted = sorted
		if errors.Is(err, domain.ErrMissingQuote) {
			next.Status = StatusNoQuote
			return next
		}
		if source == MidSourceBook {
			next.Quote, _ = QuoteFromBook(e.Book)
		}
		next.Status = StatusOK
		next.Depth = res
		next.CanBeLeveraged = calc.Config().CanBeLeveraged(res.TotalDepth, c.Liquidity)
	case BookFailed:
		next.Status = StatusUnavailable
	case NoToken:
		next.Status = StatusNoToken
	}
	return next
}
