package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/alanyoungcy/polydepth/internal/depth"
	"github.com/alanyoungcy/polydepth/internal/server"
	"github.com/alanyoungcy/polydepth/internal/server/handler"
	"github.com/alanyoungcy/polydepth/internal/server/ws"
	"github.com/alanyoungcy/polydepth/internal/service"
)

// shutdownTimeout bounds graceful HTTP shutdown.
const shutdownTimeout = 5 * time.Second

// ServerMode serves the HTTP API and the WebSocket hub until ctx is
// cancelled.
func (a *App) ServerMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting server mode")

	g, ctx := errgroup.WithContext(ctx)
	a.startHTTPServer(ctx, g, deps)
	return g.Wait()
}

// ScanMode computes one dashboard with the scan filters, logs every card,
// and returns.
func (a *App) ScanMode(ctx context.Context, deps *Dependencies) error {
	filters := a.cfg.Scan.ScanFilters()
	a.logger.InfoContext(ctx, "starting scan mode",
		slog.String("filters", filters.Encode()),
	)

	cards, err := deps.Depth.Dashboard(ctx, filters, service.Options{})
	if err != nil {
		return fmt.Errorf("scan mode: %w", err)
	}

	leverageable := 0
	for _, c := range cards {
		if c.CanBeLeveraged {
			leverageable++
		}
		a.logCard(ctx, c)
	}

	a.logger.InfoContext(ctx, "scan complete",
		slog.Int("markets", len(cards)),
		slog.Int("leverageable", leverageable),
	)
	return nil
}

func (a *App) logCard(ctx context.Context, c depth.Card) {
	a.logger.InfoContext(ctx, "market depth",
		slog.String("market_id", c.MarketID),
		slog.String("question", c.Question),
		slog.String("status", string(c.Status)),
		slog.String("mid_price", c.Depth.MidPrice.String()),
		slog.String("total_depth", c.Depth.TotalDepth.String()),
		slog.String("liquidity", c.Liquidity.String()),
		slog.Bool("can_be_leveraged", c.CanBeLeveraged),
	)
}

// startHTTPServer registers the WS hub, the HTTP server, and its graceful
// shutdown on g.
func (a *App) startHTTPServer(ctx context.Context, g *errgroup.Group, deps *Dependencies) {
	startedAt := time.Now().UTC()

	hub := ws.NewHub(deps.SignalBus, a.logger, ws.Config{
		Mode:      a.cfg.Mode,
		StartedAt: startedAt,
	})
	g.Go(func() error {
		return hub.Run(ctx)
	})

	srv := server.NewServer(
		server.Config{
			Port:        a.cfg.Server.Port,
			CORSOrigins: a.cfg.Server.CORSOrigins,
		},
		server.Handlers{
			Health:  handler.NewHealthHandler(startedAt),
			Status:  handler.NewStatusHandler(a.cfg.Mode, deps.DepthConfig, a.cfg.Proxy.ApplyDefaults, deps.BusKind),
			Markets: handler.NewMarketHandler(deps.Gateway, deps.Depth, a.logger),
			Book:    handler.NewBookHandler(deps.Depth, a.logger),
		},
		hub,
		a.logger,
	)

	g.Go(func() error {
		a.logger.InfoContext(ctx, "HTTP server listening",
			slog.Int("port", a.cfg.Server.Port),
			slog.String("url", fmt.Sprintf("http://localhost:%d", a.cfg.Server.Port)),
		)
		return srv.Start()
	})

	g.Go(func() error {
		<-ctx.Done()
		shutCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutCtx)
	})
}
