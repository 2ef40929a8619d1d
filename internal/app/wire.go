package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/alanyoungcy/polydepth/internal/config"
	"github.com/alanyoungcy/polydepth/internal/depth"
	"github.com/alanyoungcy/polydepth/internal/domain"
	"github.com/alanyoungcy/polydepth/internal/platform/polymarket"
	"github.com/alanyoungcy/polydepth/internal/pubsub/memory"
	"github.com/alanyoungcy/polydepth/internal/pubsub/redis"
	"github.com/alanyoungcy/polydepth/internal/service"
)

// Dependencies bundles everything the application modes need. It is
// constructed by Wire and torn down by the returned cleanup function.
type Dependencies struct {
	// Upstream clients
	Gamma *polymarket.GammaClient
	Clob  *polymarket.ClobClient

	// Signal bus and the backend name reported by /api/status.
	SignalBus domain.SignalBus
	BusKind   string

	// Services
	DepthConfig depth.Config
	Gateway     *service.Gateway
	Depth       *service.DepthService
}

// Wire constructs all concrete dependency implementations from the given
// configuration and returns them together with a cleanup function that should
// be called on shutdown to release resources.
func Wire(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	deps := &Dependencies{}

	depthCfg, err := cfg.Depth.Calculator()
	if err != nil {
		return nil, nil, fmt.Errorf("wire: depth config: %w", err)
	}
	deps.DepthConfig = depthCfg

	// --- Signal bus ---
	if cfg.Redis.Enabled {
		rdb, err := redis.Dial(ctx, redis.ClientConfig{
			Addr:       cfg.Redis.Addr,
			Password:   cfg.Redis.Password,
			DB:         cfg.Redis.DB,
			PoolSize:   cfg.Redis.PoolSize,
			TLSEnabled: cfg.Redis.TLSEnabled,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: redis: %w", err)
		}
		deps.SignalBus = redis.NewBus(rdb)
		deps.BusKind = "redis"
		logger.InfoContext(ctx, "wire: redis signal bus connected",
			slog.String("addr", cfg.Redis.Addr),
		)
	} else {
		deps.SignalBus = memory.New()
		deps.BusKind = "memory"
	}
	bus := deps.SignalBus
	closers = append(closers, func() { _ = bus.Close() })

	// --- Upstream clients ---
	timeout := cfg.Polymarket.HTTPTimeout.Duration
	deps.Gamma = polymarket.NewGammaClient(cfg.Polymarket.GammaHost, timeout)
	deps.Clob = polymarket.NewClobClient(cfg.Polymarket.ClobHost, timeout)

	// --- Services ---
	deps.Gateway = service.NewGateway(deps.Gamma, cfg.Proxy.ApplyDefaults, logger)
	deps.Depth = service.NewDepthService(
		deps.Gamma,
		deps.Clob,
		deps.Gateway,
		depth.NewCalculator(depthCfg),
		deps.SignalBus,
		cfg.Depth.MaxConcurrency,
		logger,
	)

	return deps, cleanup, nil
}
