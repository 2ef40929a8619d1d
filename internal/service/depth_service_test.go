package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/alanyoungcy/polydepth/internal/depth"
	"github.com/alanyoungcy/polydepth/internal/domain"
	"github.com/alanyoungcy/polydepth/internal/pubsub/memory"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func decp(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

type fakeMarkets map[string]domain.Market

func (f fakeMarkets) GetMarket(_ context.Context, id string) (domain.Market, error) {
	m, ok := f[id]
	if !ok {
		return domain.Market{}, domain.ErrNotFound
	}
	return m, nil
}

type fakeBooks struct {
	mu    sync.Mutex
	books map[string]domain.OrderBook
	calls int
}

func (f *fakeBooks) GetBook(_ context.Context, tokenID string) (domain.OrderBook, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	b, ok := f.books[tokenID]
	if !ok {
		return domain.OrderBook{}, fmt.Errorf("book %s: %w", tokenID, domain.ErrUpstream)
	}
	return b, nil
}

type fakeListing struct {
	markets []domain.Market
	err     error
}

func (f fakeListing) Markets(context.Context, url.Values) ([]domain.Market, error) {
	return f.markets, f.err
}

func workedBook(tokenID string, bidSize, askSize string) domain.OrderBook {
	return domain.OrderBook{
		TokenID: tokenID,
		Bids:    []domain.PriceLevel{{Price: dec("0.50"), Size: dec(bidSize)}, {Price: dec("0.40"), Size: dec("999")}},
		Asks:    []domain.PriceLevel{{Price: dec("0.52"), Size: dec(askSize)}, {Price: dec("0.60"), Size: dec("999")}},
	}
}

func market(id, tokenID, liquidity string) domain.Market {
	m := domain.Market{
		ID:            id,
		Question:      "Question " + id,
		Liquidity:     dec(liquidity),
		BestBid:       decp("0.50"),
		BestAsk:       decp("0.52"),
		TokenIDs:      []string{},
		TokenIDsValid: true,
	}
	if tokenID != "" {
		m.TokenIDs = []string{tokenID, tokenID + "-no"}
	}
	return m
}

func newTestService(markets fakeMarkets, books *fakeBooks, listing MarketSource, bus domain.SignalBus) *DepthService {
	return NewDepthService(markets, books, listing, depth.NewCalculator(depth.DefaultConfig()), bus, 4, discardLogger())
}

func TestMarketDepth(t *testing.T) {
	books := &fakeBooks{books: map[string]domain.OrderBook{"t1": workedBook("t1", "25000", "1000")}}
	svc := newTestService(fakeMarkets{"1": market("1", "t1", "150000")}, books, nil, nil)

	card, err := svc.MarketDepth(context.Background(), "1", Options{})
	if err != nil {
		t.Fatalf("MarketDepth: %v", err)
	}
	if card.Status != depth.StatusOK {
		t.Fatalf("status = %s, want ok", card.Status)
	}
	if !card.Depth.TotalDepth.Equal(dec("26000")) {
		t.Errorf("total depth = %s, want 26000", card.Depth.TotalDepth)
	}
	if !card.CanBeLeveraged {
		t.Error("expected leverageable card")
	}

	if _, err := svc.MarketDepth(context.Background(), "missing", Options{}); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestMarketDepthDegradedCards(t *testing.T) {
	books := &fakeBooks{books: map[string]domain.OrderBook{}}
	svc := newTestService(fakeMarkets{
		"notoken": market("notoken", "", "150000"),
		"nobook":  market("nobook", "t9", "150000"),
	}, books, nil, nil)

	tests := []struct {
		name   string
		id     string
		opts   Options
		status depth.CardStatus
	}{
		{name: "no tokens", id: "notoken", status: depth.StatusNoToken},
		{name: "token index out of range", id: "nobook", opts: Options{TokenIndex: 5}, status: depth.StatusNoToken},
		{name: "book fetch fails", id: "nobook", status: depth.StatusUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			card, err := svc.MarketDepth(context.Background(), tt.id, tt.opts)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if card.Status != tt.status {
				t.Errorf("status = %s, want %s", card.Status, tt.status)
			}
			if !card.Depth.TotalDepth.IsZero() || card.CanBeLeveraged {
				t.Errorf("degraded card has metrics: %+v", card.Depth)
			}
		})
	}
}

func TestTokenDepth(t *testing.T) {
	books := &fakeBooks{books: map[string]domain.OrderBook{"t1": workedBook("t1", "100", "80")}}
	svc := newTestService(nil, books, nil, nil)

	card := svc.TokenDepth(context.Background(), "t1", decp("0.50"), decp("0.52"), Options{})
	if !card.Depth.MidPrice.Equal(dec("0.51")) || !card.Depth.TotalDepth.Equal(dec("180")) {
		t.Errorf("mid/total = %s/%s, want 0.51/180", card.Depth.MidPrice, card.Depth.TotalDepth)
	}

	card = svc.TokenDepth(context.Background(), "t1", nil, nil, Options{})
	if card.Status != depth.StatusNoQuote {
		t.Errorf("status = %s, want no_quote", card.Status)
	}

	card = svc.TokenDepth(context.Background(), "t1", nil, nil, Options{MidSource: depth.MidSourceBook})
	if card.Status != depth.StatusOK || !card.Depth.MidPrice.Equal(dec("0.51")) {
		t.Errorf("book source: status=%s mid=%s, want ok 0.51", card.Status, card.Depth.MidPrice)
	}

	card = svc.TokenDepth(context.Background(), "none", decp("0.50"), decp("0.52"), Options{})
	if card.Status != depth.StatusUnavailable {
		t.Errorf("status = %s, want unavailable", card.Status)
	}
	if card.TokenID != "none" || !card.Depth.TotalDepth.IsZero() || card.CanBeLeveraged {
		t.Errorf("failed book card = %+v, want zero metrics", card)
	}
}

func TestDashboard(t *testing.T) {
	books := &fakeBooks{books: map[string]domain.OrderBook{
		"t1": workedBook("t1", "100", "80"),
		"t3": workedBook("t3", "30000", "0"),
	}}
	listing := fakeListing{markets: []domain.Market{
		market("1", "t1", "150000"),
		market("2", "t2", "150000"),
		market("3", "t3", "200000"),
		market("4", "", "0"),
	}}
	bus := memory.New()
	defer bus.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	events, err := bus.Subscribe(ctx, DepthChannelPrefix+"*")
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}

	svc := newTestService(nil, books, listing, bus)
	cards, err := svc.Dashboard(ctx, url.Values{}, Options{})
	if err != nil {
		t.Fatalf("Dashboard: %v", err)
	}

	want := []struct {
		id     string
		status depth.CardStatus
		total  string
		lever  bool
	}{
		{"1", depth.StatusOK, "180", false},
		{"2", depth.StatusUnavailable, "0", false},
		{"3", depth.StatusOK, "30000", true},
		{"4", depth.StatusNoToken, "0", false},
	}
	if len(cards) != len(want) {
		t.Fatalf("got %d cards, want %d", len(cards), len(want))
	}
	for i, w := range want {
		c := cards[i]
		if c.MarketID != w.id || c.Status != w.status || !c.Depth.TotalDepth.Equal(dec(w.total)) || c.CanBeLeveraged != w.lever {
			t.Errorf("card %d = {%s %s %s %v}, want %+v", i, c.MarketID, c.Status, c.Depth.TotalDepth, c.CanBeLeveraged, w)
		}
	}

	seen := map[string]bool{}
	for range want {
		select {
		case msg := <-events:
			var c depth.Card
			if err := json.Unmarshal(msg, &c); err != nil {
				t.Fatalf("decode published card: %v", err)
			}
			seen[c.MarketID] = true
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for published cards")
		}
	}
	if len(seen) != len(want) {
		t.Errorf("published %d distinct cards, want %d", len(seen), len(want))
	}
}

func TestDashboardListingFailure(t *testing.T) {
	svc := newTestService(nil, &fakeBooks{}, fakeListing{err: domain.ErrUpstreamStatus}, nil)
	if _, err := svc.Dashboard(context.Background(), nil, Options{}); !errors.Is(err, domain.ErrUpstreamStatus) {
		t.Errorf("err = %v, want ErrUpstreamStatus", err)
	}
}

func TestDashboardCancelled(t *testing.T) {
	books := &fakeBooks{books: map[string]domain.OrderBook{}}
	listing := fakeListing{markets: []domain.Market{market("1", "t1", "1"), market("2", "t2", "1")}}
	svc := newTestService(nil, books, listing, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := svc.Dashboard(ctx, nil, Options{}); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}
