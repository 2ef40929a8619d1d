package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, applies POLYDEPTH_* environment variable overrides, and
// returns the final Config. The returned Config has NOT been validated; the
// caller should invoke Config.Validate() after Load.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, fmt.Errorf("config: decode %s: %w", path, err)
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known POLYDEPTH_* environment variables and
// overwrites the corresponding Config fields when a variable is set.
func applyEnvOverrides(cfg *Config) {
	// ── Polymarket ──
	setStr(&cfg.Polymarket.GammaHost, "POLYDEPTH_POLYMARKET_GAMMA_HOST")
	setStr(&cfg.Polymarket.ClobHost, "POLYDEPTH_POLYMARKET_CLOB_HOST")
	setDuration(&cfg.Polymarket.HTTPTimeout, "POLYDEPTH_POLYMARKET_HTTP_TIMEOUT")

	// ── Proxy ──
	setBool(&cfg.Proxy.ApplyDefaults, "POLYDEPTH_PROXY_APPLY_DEFAULTS")

	// ── Depth ──
	setFloat64(&cfg.Depth.BandWidthFraction, "POLYDEPTH_DEPTH_BAND_WIDTH_FRACTION")
	setFloat64(&cfg.Depth.MinDepth, "POLYDEPTH_DEPTH_MIN_DEPTH")
	setFloat64(&cfg.Depth.MinLiquidity, "POLYDEPTH_DEPTH_MIN_LIQUIDITY")
	setStr(&cfg.Depth.MidSource, "POLYDEPTH_DEPTH_MID_SOURCE")
	setInt(&cfg.Depth.MaxConcurrency, "POLYDEPTH_DEPTH_MAX_CONCURRENCY")

	// ── Redis ──
	setBool(&cfg.Redis.Enabled, "POLYDEPTH_REDIS_ENABLED")
	setStr(&cfg.Redis.Addr, "POLYDEPTH_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "POLYDEPTH_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "POLYDEPTH_REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "POLYDEPTH_REDIS_POOL_SIZE")
	setBool(&cfg.Redis.TLSEnabled, "POLYDEPTH_REDIS_TLS_ENABLED")

	// ── Server ──
	setInt(&cfg.Server.Port, "POLYDEPTH_SERVER_PORT")
	setStringSlice(&cfg.Server.CORSOrigins, "POLYDEPTH_SERVER_CORS_ORIGINS")

	// ── Scan ──
	setInt(&cfg.Scan.Limit, "POLYDEPTH_SCAN_LIMIT")

	// ── Top-level ──
	setStr(&cfg.Mode, "POLYDEPTH_MODE")
	setStr(&cfg.LogLevel, "POLYDEPTH_LOG_LEVEL")
}

// ---------------------------------------------------------------------------
// Typed env-var helpers. Each only mutates the target when the environment
// variable is present and non-empty.
// ---------------------------------------------------------------------------

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setFloat64(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			dst.Duration = d
		}
	}
}

func setStringSlice(dst *[]string, key string) {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		cleaned := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				cleaned = append(cleaned, p)
			}
		}
		if len(cleaned) > 0 {
			*dst = cleaned
		}
	}
}
