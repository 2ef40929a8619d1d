package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/alanyoungcy/polydepth/internal/depth"
	"github.com/alanyoungcy/polydepth/internal/service"
)

// maxLadderDepth caps the ladder levels a client may request per side.
const maxLadderDepth = 200

// writeJSON marshals v as JSON and writes it to the response with the given
// HTTP status code. If marshaling fails, it falls back to a plain-text 500.
func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		http.Error(w, `{"error":"internal server error"}`, http.StatusInternalServerError)
		return
	}
	writeRaw(w, status, data)
}

// writeRaw writes an already-encoded JSON body.
func writeRaw(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	w.Write(body)
}

// writeError sends a JSON-formatted error response.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeFetchFailed sends the fixed upstream failure envelope.
func writeFetchFailed(w http.ResponseWriter) {
	writeError(w, http.StatusInternalServerError, service.FetchFailedMessage)
}

// parseOptions extracts the depth options shared by the card endpoints:
// token_index (>= 0), mid_source (market|book), and ladder_depth
// (-1 for every level, 0 for none, up to maxLadderDepth).
func parseOptions(r *http.Request) (service.Options, error) {
	q := r.URL.Query()
	var opts service.Options

	if v := q.Get("token_index"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return opts, fmt.Errorf("token_index must be a non-negative integer")
		}
		opts.TokenIndex = n
	}

	if v := q.Get("mid_source"); v != "" {
		src, err := depth.ParseMidSource(v)
		if err != nil {
			return opts, fmt.Errorf("mid_source must be market or book")
		}
		opts.MidSource = src
	}

	if v := q.Get("ladder_depth"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < -1 || n > maxLadderDepth {
			return opts, fmt.Errorf("ladder_depth must be an integer between -1 and %d", maxLadderDepth)
		}
		opts.LadderDepth = n
	}

	return opts, nil
}

// parseDecimalParam reads an optional decimal query parameter. An absent
// or blank value returns nil.
func parseDecimalParam(r *http.Request, name string) (*decimal.Decimal, error) {
	v := strings.TrimSpace(r.URL.Query().Get(name))
	if v == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		return nil, fmt.Errorf("%s must be a decimal number", name)
	}
	return &d, nil
}

// pathParam extracts a named path parameter from the request using Go 1.22+
// built-in routing (http.Request.PathValue).
func pathParam(r *http.Request, name string) string {
	return r.PathValue(name)
}
