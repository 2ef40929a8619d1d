package domain

import "errors"

var (
	ErrNotFound        = errors.New("not found")
	ErrUpstream        = errors.New("upstream unavailable")
	ErrUpstreamStatus  = errors.New("upstream returned non-success status")
	ErrInvalidJSON     = errors.New("invalid json")
	ErrInvalidTokenIDs = errors.New("invalid token identifiers")
	ErrNoTokens        = errors.New("market has no tokens")
	ErrMissingQuote    = errors.New("missing best bid or ask")
)
