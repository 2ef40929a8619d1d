package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"reflect"
	"testing"
	"time"

	"github.com/alanyoungcy/polydepth/internal/domain"
	"github.com/alanyoungcy/polydepth/internal/platform/polymarket"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestGatewayParams(t *testing.T) {
	tests := []struct {
		name     string
		defaults bool
		in       url.Values
		want     url.Values
	}{
		{
			name:     "defaults fill absent keys",
			defaults: true,
			in:       url.Values{"limit": {"5"}},
			want: url.Values{
				"active":            {"true"},
				"archived":          {"false"},
				"closed":            {"false"},
				"liquidity_num_min": {"100000"},
				"limit":             {"5"},
			},
		},
		{
			name:     "explicit values win over defaults",
			defaults: true,
			in:       url.Values{"active": {"false"}, "liquidity_num_min": {"0"}},
			want: url.Values{
				"active":            {"false"},
				"archived":          {"false"},
				"closed":            {"false"},
				"liquidity_num_min": {"0"},
			},
		},
		{
			name:     "unknown keys dropped",
			defaults: false,
			in:       url.Values{"order": {"liquidity"}, "token": {"secret"}, "ascending": {"false"}},
			want:     url.Values{"order": {"liquidity"}, "ascending": {"false"}},
		},
		{
			name:     "no defaults and no filters",
			defaults: false,
			in:       url.Values{},
			want:     url.Values{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewGateway(nil, tt.defaults, discardLogger())
			if got := g.Params(tt.in); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGatewayFetch(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr error
	}{
		{name: "passthrough", status: http.StatusOK, body: `[{"id":"1"}]`},
		{name: "upstream 503", status: http.StatusServiceUnavailable, body: `{"error":"down"}`, wantErr: domain.ErrUpstreamStatus},
		{name: "invalid json", status: http.StatusOK, body: `not json`, wantErr: domain.ErrInvalidJSON},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			g := NewGateway(polymarket.NewGammaClient(srv.URL, time.Second), true, discardLogger())
			body, status, err := g.Fetch(context.Background(), url.Values{})

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("err = %v, want %v", err, tt.wantErr)
				}
				if body != nil {
					t.Errorf("body = %q, want nil on failure", body)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if status != tt.status || string(body) != tt.body {
				t.Errorf("got %d %q, want %d %q", status, body, tt.status, tt.body)
			}
		})
	}
}

func TestGatewayMarkets(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"id":"1","question":"A","clobTokenIds":"[\"t1\"]"},{"id":"2","question":"B"}]`))
	}))
	defer srv.Close()

	g := NewGateway(polymarket.NewGammaClient(srv.URL, time.Second), true, discardLogger())
	markets, err := g.Markets(context.Background(), nil)
	if err != nil {
		t.Fatalf("Markets: %v", err)
	}
	if len(markets) != 2 || markets[0].TokenID(0) != "t1" {
		t.Errorf("markets = %+v", markets)
	}
}
