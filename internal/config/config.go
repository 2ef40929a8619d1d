// Package config defines the top-level configuration for polydepth and
// provides validation helpers.
package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/alanyoungcy/polydepth/internal/depth"
)

// Config is the root configuration structure. Fields are populated from a TOML
// file and then optionally overridden by POLYDEPTH_* environment variables.
type Config struct {
	Polymarket PolymarketConfig `toml:"polymarket"`
	Proxy      ProxyConfig      `toml:"proxy"`
	Depth      DepthConfig      `toml:"depth"`
	Redis      RedisConfig      `toml:"redis"`
	Server     ServerConfig     `toml:"server"`
	Scan       ScanConfig       `toml:"scan"`
	Mode       string           `toml:"mode"`
	LogLevel   string           `toml:"log_level"`
}

// PolymarketConfig holds the upstream API endpoints.
type PolymarketConfig struct {
	GammaHost   string   `toml:"gamma_host"`
	ClobHost    string   `toml:"clob_host"`
	HTTPTimeout duration `toml:"http_timeout"`
}

// ProxyConfig controls the market listing passthrough.
type ProxyConfig struct {
	// ApplyDefaults fills absent listing filters with the active, unarchived,
	// open, liquid-market defaults.
	ApplyDefaults bool `toml:"apply_defaults"`
}

// DepthConfig holds the depth band and leverage thresholds.
type DepthConfig struct {
	BandWidthFraction float64 `toml:"band_width_fraction"`
	MinDepth          float64 `toml:"min_depth"`
	MinLiquidity      float64 `toml:"min_liquidity"`
	MidSource         string  `toml:"mid_source"`
	MaxConcurrency    int     `toml:"max_concurrency"`
}

// RedisConfig holds Redis connection parameters. With Enabled false an
// in-process bus is used instead.
type RedisConfig struct {
	Enabled    bool   `toml:"enabled"`
	Addr       string `toml:"addr"`
	Password   string `toml:"password"`
	DB         int    `toml:"db"`
	PoolSize   int    `toml:"pool_size"`
	TLSEnabled bool   `toml:"tls_enabled"`
}

// ServerConfig holds HTTP server parameters.
type ServerConfig struct {
	Port        int      `toml:"port"`
	CORSOrigins []string `toml:"cors_origins"`
}

// ScanConfig drives the one-shot scan mode.
type ScanConfig struct {
	Limit   int               `toml:"limit"`
	Filters map[string]string `toml:"filters"`
}

// duration is a wrapper around time.Duration that supports TOML string decoding
// (e.g. "5m", "30s").
type duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler so the TOML decoder can
// parse duration strings like "5m" or "30s".
func (d *duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText implements encoding.TextMarshaler for round-trip encoding.
func (d duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Defaults returns a Config populated with reasonable default values.
// These match the values in config.example.toml.
func Defaults() Config {
	return Config{
		Polymarket: PolymarketConfig{
			GammaHost:   "https://gamma-api.polymarket.com",
			ClobHost:    "https://clob.polymarket.com",
			HTTPTimeout: duration{30 * time.Second},
		},
		Proxy: ProxyConfig{
			ApplyDefaults: true,
		},
		Depth: DepthConfig{
			BandWidthFraction: 0.02,
			MinDepth:          20000,
			MinLiquidity:      100000,
			MidSource:         string(depth.MidSourceMarket),
			MaxConcurrency:    8,
		},
		Redis: RedisConfig{
			Addr:     "localhost:6379",
			PoolSize: 10,
		},
		Server: ServerConfig{
			Port:        8000,
			CORSOrigins: []string{"http://localhost:3000"},
		},
		Scan: ScanConfig{
			Limit: 5,
		},
		Mode:     "server",
		LogLevel: "info",
	}
}

var validModes = map[string]bool{
	"server": true,
	"scan":   true,
}

var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Calculator converts the depth section into the calculator's config.
func (d DepthConfig) Calculator() (depth.Config, error) {
	src, err := depth.ParseMidSource(d.MidSource)
	if err != nil {
		return depth.Config{}, err
	}
	cfg := depth.Config{
		BandWidthFraction: decimal.NewFromFloat(d.BandWidthFraction),
		MinDepth:          decimal.NewFromFloat(d.MinDepth),
		MinLiquidity:      decimal.NewFromFloat(d.MinLiquidity),
		MidSource:         src,
	}
	if err := cfg.Validate(); err != nil {
		return depth.Config{}, err
	}
	return cfg, nil
}

// ScanFilters returns the scan listing query with the limit applied.
func (s ScanConfig) ScanFilters() url.Values {
	q := url.Values{}
	for k, v := range s.Filters {
		q.Set(k, v)
	}
	if s.Limit > 0 {
		q.Set("limit", fmt.Sprint(s.Limit))
	}
	return q
}

// Validate checks Config for obviously invalid or missing values and returns a
// combined error describing every problem found.
func (c *Config) Validate() error {
	var errs []string

	if !validModes[strings.ToLower(c.Mode)] {
		errs = append(errs, fmt.Sprintf("unknown mode %q (valid: server, scan)", c.Mode))
	}
	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Sprintf("unknown log_level %q (valid: debug, info, warn, error)", c.LogLevel))
	}

	// Polymarket endpoints
	if c.Polymarket.GammaHost == "" {
		errs = append(errs, "polymarket: gamma_host must not be empty")
	} else if u, err := url.Parse(c.Polymarket.GammaHost); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Sprintf("polymarket: gamma_host %q is not an absolute URL", c.Polymarket.GammaHost))
	}
	if c.Polymarket.ClobHost == "" {
		errs = append(errs, "polymarket: clob_host must not be empty")
	} else if u, err := url.Parse(c.Polymarket.ClobHost); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Sprintf("polymarket: clob_host %q is not an absolute URL", c.Polymarket.ClobHost))
	}
	if c.Polymarket.HTTPTimeout.Duration <= 0 {
		errs = append(errs, "polymarket: http_timeout must be positive")
	}

	// Depth
	if _, err := c.Depth.Calculator(); err != nil {
		errs = append(errs, err.Error())
	}
	if c.Depth.MaxConcurrency < 1 {
		errs = append(errs, "depth: max_concurrency must be >= 1")
	}

	// Redis
	if c.Redis.Enabled {
		if c.Redis.Addr == "" {
			errs = append(errs, "redis: addr must not be empty when enabled")
		}
		if c.Redis.PoolSize < 1 {
			errs = append(errs, "redis: pool_size must be >= 1")
		}
		if c.Redis.DB < 0 {
			errs = append(errs, "redis: db must be >= 0")
		}
	}

	// Server
	if c.Mode == "server" && (c.Server.Port <= 0 || c.Server.Port > 65535) {
		errs = append(errs, fmt.Sprintf("server: port must be 1-65535, got %d", c.Server.Port))
	}

	// Scan
	if c.Scan.Limit < 0 {
		errs = append(errs, "scan: limit must be >= 0")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
