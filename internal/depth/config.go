package depth

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// MidSource selects where the mid-price anchor comes from.
type MidSource string

const (
	// MidSourceMarket uses the best bid/ask published with the market listing.
	MidSourceMarket MidSource = "market"
	// MidSourceBook uses the top of the fetched order book.
	MidSourceBook MidSource = "book"
)

// ParseMidSource accepts "market" or "book" (case-insensitive).
func ParseMidSource(s string) (MidSource, error) {
	switch MidSource(strings.ToLower(strings.TrimSpace(s))) {
	case MidSourceMarket:
		return MidSourceMarket, nil
	case MidSourceBook:
		return MidSourceBook, nil
	default:
		return "", fmt.Errorf("depth: unknown mid source %q (valid: market, book)", s)
	}
}

// Config holds every threshold used to turn a book into a liquidity figure
// and a leverage classification.
type Config struct {
	// BandWidthFraction is the half-width of the band around the mid-price,
	// e.g. 0.02 for +/-2%.
	BandWidthFraction decimal.Decimal
	// MinDepth is the total depth a market must exceed to be leverageable.
	MinDepth decimal.Decimal
	// MinLiquidity is the listed liquidity a market must exceed to be
	// leverageable.
	MinLiquidity decimal.Decimal
	MidSource    MidSource
}

// DefaultConfig returns the stock policy: a 2% band, 20000 depth and
// 100000 liquidity, anchored on the listing's best bid/ask.
func DefaultConfig() Config {
	return Config{
		BandWidthFraction: decimal.New(2, -2),
		MinDepth:          decimal.NewFromInt(20000),
		MinLiquidity:      decimal.NewFromInt(100000),
		MidSource:         MidSourceMarket,
	}
}

// Validate reports the first invalid field.
func (c Config) Validate() error {
	if !c.BandWidthFraction.IsPositive() || c.BandWidthFraction.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return fmt.Errorf("depth: band width fraction must be in (0, 1), got %s", c.BandWidthFraction)
	}
	if c.MinDepth.IsNegative() {
		return fmt.Errorf("depth: min depth must be >= 0, got %s", c.MinDepth)
	}
	if c.MinLiquidity.IsNegative() {
		return fmt.Errorf("depth: min liquidity must be >= 0, got %s", c.MinLiquidity)
	}
	if _, err := ParseMidSource(string(c.MidSource)); err != nil {
		return err
	}
	return nil
}

// CanBeLeveraged reports whether both thresholds are strictly exceeded.
func (c Config) CanBeLeveraged(totalDepth, liquidity decimal.Decimal) bool {
	return totalDepth.GreaterThan(c.MinDepth) && liquidity.GreaterThan(c.MinLiquidity)
}
