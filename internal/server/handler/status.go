package handler

import (
	"net/http"

	"github.com/alanyoungcy/polydepth/internal/depth"
)

// StatusHandler reports the active mode and depth thresholds.
type StatusHandler struct {
	mode          string
	depth         depth.Config
	applyDefaults bool
	bus           string
}

// NewStatusHandler creates a StatusHandler. bus names the signal bus
// backend ("redis" or "memory").
func NewStatusHandler(mode string, cfg depth.Config, applyDefaults bool, bus string) *StatusHandler {
	return &StatusHandler{mode: mode, depth: cfg, applyDefaults: applyDefaults, bus: bus}
}

// GetStatus responds with the current mode and depth configuration.
// GET /api/status
func (h *StatusHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"mode":                h.mode,
		"mid_source":          h.depth.MidSource,
		"band_width_fraction": h.depth.BandWidthFraction,
		"min_depth":           h.depth.MinDepth,
		"min_liquidity":       h.depth.MinLiquidity,
		"proxy_defaults":      h.applyDefaults,
		"signal_bus":          h.bus,
	})
}
