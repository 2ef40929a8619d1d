package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/alanyoungcy/polydepth/internal/depth"
	"github.com/alanyoungcy/polydepth/internal/domain"
)

// DepthChannelPrefix prefixes every bus channel that carries a card.
const DepthChannelPrefix = "depth:"

// MarketFetcher loads a single market by ID.
type MarketFetcher interface {
	GetMarket(ctx context.Context, id string) (domain.Market, error)
}

// BookFetcher loads the order book of a token.
type BookFetcher interface {
	GetBook(ctx context.Context, tokenID string) (domain.OrderBook, error)
}

// MarketSource lists markets under the gateway's filter policy.
type MarketSource interface {
	Markets(ctx context.Context, filters url.Values) ([]domain.Market, error)
}

// Options tunes a single depth computation.
type Options struct {
	// TokenIndex selects the outcome token, 0 being the first outcome.
	TokenIndex int
	// MidSource overrides the configured mid-price source when non-empty.
	MidSource depth.MidSource
	// LadderDepth attaches a ladder (see depth.BookLoaded).
	LadderDepth int
}

// DepthService computes market cards from listings and order books.
type DepthService struct {
	markets        MarketFetcher
	books          BookFetcher
	listing        MarketSource
	calc           *depth.Calculator
	bus            domain.SignalBus
	maxConcurrency int
	logger         *slog.Logger
}

// NewDepthService creates a DepthService with all required dependencies.
// A non-positive maxConcurrency means one book fetch at a time.
func NewDepthService(
	markets MarketFetcher,
	books BookFetcher,
	listing MarketSource,
	calc *depth.Calculator,
	bus domain.SignalBus,
	maxConcurrency int,
	logger *slog.Logger,
) *DepthService {
	if maxConcurrency <= 0 {
		maxConcurrency = 1
	}
	return &DepthService{
		markets:        markets,
		books:          books,
		listing:        listing,
		calc:           calc,
		bus:            bus,
		maxConcurrency: maxConcurrency,
		logger:         logger.With(slog.String("component", "depth_service")),
	}
}

// Calculator returns the calculator the service applies.
func (s *DepthService) Calculator() *depth.Calculator { return s.calc }

// MarketDepth computes the card for one market. Only a failure to load the
// market itself is returned; book failures are reported on the card.
func (s *DepthService) MarketDepth(ctx context.Context, marketID string, opts Options) (depth.Card, error) {
	m, err := s.markets.GetMarket(ctx, marketID)
	if err != nil {
		return depth.Card{}, fmt.Errorf("depth_service: get market %s: %w", marketID, err)
	}

	card := s.computeCard(ctx, m, opts)
	s.publish(ctx, card)
	return card, nil
}

// TokenDepth computes a card straight from a token's book. bestBid and
// bestAsk may be nil; with the market mid source that yields no metrics.
// A failed book fetch is logged and shows only as the card status.
func (s *DepthService) TokenDepth(ctx context.Context, tokenID string, bestBid, bestAsk *decimal.Decimal, opts Options) depth.Card {
	m := domain.Market{
		TokenIDs:      []string{tokenID},
		TokenIDsValid: true,
		BestBid:       bestBid,
		BestAsk:       bestAsk,
	}
	card := depth.NewCard(m, 0)

	book, err := s.books.GetBook(ctx, tokenID)
	if err != nil {
		s.logger.WarnContext(ctx, "depth_service: book fetch failed",
			slog.String("token_id", tokenID),
			slog.String("error", err.Error()),
		)
		card = card.Apply(depth.BookFailed{Err: err}, s.calc)
		s.publish(ctx, card)
		return card
	}

	card = card.Apply(depth.BookLoaded{
		Book:        book,
		Source:      opts.MidSource,
		LadderDepth: opts.LadderDepth,
	}, s.calc)
	s.publish(ctx, card)
	return card
}

// Dashboard lists markets and computes every card concurrently. The result
// keeps listing order. A listing failure or a cancelled context fails the
// call; a single market's failure only degrades its card.
func (s *DepthService) Dashboard(ctx context.Context, filters url.Values, opts Options) ([]depth.Card, error) {
	markets, err := s.listing.Markets(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("depth_service: list markets: %w", err)
	}

	cards := make([]depth.Card, len(markets))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.maxConcurrency)

	for i, m := range markets {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			cards[i] = s.computeCard(gctx, m, opts)
			s.publish(gctx, cards[i])
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("depth_service: dashboard: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("depth_service: dashboard: %w", err)
	}

	s.logger.InfoContext(ctx, "depth_service: dashboard computed",
		slog.Int("markets", len(cards)),
	)
	return cards, nil
}

// computeCard runs one market through the card update. It never fails.
func (s *DepthService) computeCard(ctx context.Context, m domain.Market, opts Options) depth.Card {
	card := depth.NewCard(m, opts.TokenIndex)

	if !m.TokenIDsValid {
		s.logger.WarnContext(ctx, "depth_service: market has malformed token ids",
			slog.String("market_id", m.ID),
		)
	}
	if card.TokenID == "" {
		s.logger.WarnContext(ctx, "depth_service: no token to price",
			slog.String("market_id", m.ID),
			slog.Int("token_index", opts.TokenIndex),
			slog.String("error", domain.ErrNoTokens.Error()),
		)
		return card.Apply(depth.NoToken{}, s.calc)
	}

	book, err := s.books.GetBook(ctx, card.TokenID)
	if err != nil {
		s.logger.WarnContext(ctx, "depth_service: book fetch failed",
			slog.String("market_id", m.ID),
			slog.String("token_id", card.TokenID),
			slog.String("error", err.Error()),
		)
		return card.Apply(depth.BookFailed{Err: err}, s.calc)
	}

	card = card.Apply(depth.BookLoaded{
		Book:        book,
		Source:      opts.MidSource,
		LadderDepth: opts.LadderDepth,
	}, s.calc)

	if !card.BookSorted {
		s.logger.DebugContext(ctx, "depth_service: book sides not best-first",
			slog.String("market_id", m.ID),
			slog.String("token_id", card.TokenID),
		)
	}
	if card.Malformed > 0 {
		s.logger.WarnContext(ctx, "depth_service: book has malformed levels",
			slog.String("market_id", m.ID),
			slog.Int("count", card.Malformed),
		)
	}
	if card.Status == depth.StatusNoQuote {
		s.logger.InfoContext(ctx, "depth_service: no quote for market",
			slog.String("market_id", m.ID),
		)
	}
	return card
}

// publish pushes a card to the bus. Failures are logged and ignored.
func (s *DepthService) publish(ctx context.Context, card depth.Card) {
	if s.bus == nil {
		return
	}

	key := card.MarketID
	if key == "" {
		key = "token:" + card.TokenID
	}

	data, err := json.Marshal(card)
	if err != nil {
		s.logger.ErrorContext(ctx, "depth_service: marshal card failed",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
		return
	}
	if err := s.bus.Publish(ctx, DepthChannelPrefix+key, data); err != nil {
		s.logger.WarnContext(ctx, "depth_service: publish failed",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
	}
}
