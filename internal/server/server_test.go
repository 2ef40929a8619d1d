package server

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alanyoungcy/polydepth/internal/depth"
	"github.com/alanyoungcy/polydepth/internal/platform/polymarket"
	"github.com/alanyoungcy/polydepth/internal/pubsub/memory"
	"github.com/alanyoungcy/polydepth/internal/server/handler"
	"github.com/alanyoungcy/polydepth/internal/service"
)

func newTestHandler(t *testing.T, upstream http.HandlerFunc) http.Handler {
	t.Helper()
	up := httptest.NewServer(upstream)
	t.Cleanup(up.Close)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	gamma := polymarket.NewGammaClient(up.URL, time.Second)
	clob := polymarket.NewClobClient(up.URL, time.Second)
	gw := service.NewGateway(gamma, true, logger)
	cfg := depth.DefaultConfig()
	svc := service.NewDepthService(gamma, clob, gw, depth.NewCalculator(cfg), memory.New(), 2, logger)

	return NewHandler(
		Config{CORSOrigins: []string{"http://localhost:3000"}},
		Handlers{
			Health:  handler.NewHealthHandler(time.Now()),
			Status:  handler.NewStatusHandler("server", cfg, true, "memory"),
			Markets: handler.NewMarketHandler(gw, svc, logger),
			Book:    handler.NewBookHandler(svc, logger),
		},
		nil,
		logger,
	)
}

func TestMarketsUpstreamUnavailable(t *testing.T) {
	h := newTestHandler(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte(`{"detail":"maintenance"}`))
	})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/markets", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
	if got := rec.Body.String(); got != `{"error":"Failed to fetch market data"}` {
		t.Errorf("body = %s", got)
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("missing request id header")
	}
}

func TestMarketsPassthroughAppliesDefaults(t *testing.T) {
	var query string
	h := newTestHandler(t, func(w http.ResponseWriter, r *http.Request) {
		query = r.URL.RawQuery
		w.Write([]byte(`[]`))
	})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/markets?limit=3&bogus=1", nil))

	if rec.Code != http.StatusOK || rec.Body.String() != `[]` {
		t.Fatalf("got %d %s", rec.Code, rec.Body.String())
	}
	want := "active=true&archived=false&closed=false&limit=3&liquidity_num_min=100000"
	if query != want {
		t.Errorf("upstream query = %q, want %q", query, want)
	}
}

func TestMarketDepthRoute(t *testing.T) {
	h := newTestHandler(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/markets/9":
			w.Write([]byte(`{"id":"9","question":"Q","liquidity":"150000","bestBid":"0.50","bestAsk":"0.52","clobTokenIds":"[\"tok\"]"}`))
		case "/book":
			w.Write([]byte(`{"bids":[{"price":"0.50","size":"100"},{"price":"abc","size":"5"}],"asks":[{"price":"0.52","size":"80"}]}`))
		default:
			http.NotFound(w, r)
		}
	})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/markets/9/depth?ladder_depth=-1", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d (%s)", rec.Code, rec.Body.String())
	}

	var card depth.Card
	if err := json.Unmarshal(rec.Body.Bytes(), &card); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if card.Status != depth.StatusOK || card.Depth.TotalDepth.String() != "180" {
		t.Errorf("card = %s %s, want ok 180", card.Status, card.Depth.TotalDepth)
	}
	if card.Malformed != 1 || card.Ladder == nil || len(card.Ladder.Bids) != 2 {
		t.Errorf("malformed=%d ladder=%+v", card.Malformed, card.Ladder)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/markets/404/depth", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("missing market status = %d, want 404", rec.Code)
	}
}

func TestCORSPreflight(t *testing.T) {
	h := newTestHandler(t, func(w http.ResponseWriter, r *http.Request) {})

	req := httptest.NewRequest(http.MethodOptions, "/api/markets", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Errorf("allow origin = %q", got)
	}
	if rec.Code >= 300 {
		t.Errorf("preflight status = %d", rec.Code)
	}
}

func TestHealthAndStatus(t *testing.T) {
	h := newTestHandler(t, func(w http.ResponseWriter, r *http.Request) {})

	for _, path := range []string{"/api/health", "/api/status"} {
		t.Run(path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d", rec.Code)
			}
			var body map[string]any
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if path == "/api/status" && body["mid_source"] != "market" {
				t.Errorf("mid_source = %v", body["mid_source"])
			}
		})
	}
}
