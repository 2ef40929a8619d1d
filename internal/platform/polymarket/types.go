package polymarket

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/alanyoungcy/polydepth/internal/domain"
)

// flexBool unmarshals from JSON bool or string ("true"/"false") so Gamma API
// responses work whether "active" is sent as bool or string.
type flexBool bool

func (f *flexBool) UnmarshalJSON(data []byte) error {
	var b bool
	if err := json.Unmarshal(data, &b); err == nil {
		*f = flexBool(b)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		// Unknown shapes read as false rather than failing the whole listing.
		*f = false
		return nil
	}
	*f = flexBool(strings.EqualFold(s, "true") || s == "1")
	return nil
}

// flexDecimal accepts a JSON number, a decimal string, or null. Valid is
// false for null, empty, and unparsable values.
type flexDecimal struct {
	Value decimal.Decimal
	Valid bool
}

func (f *flexDecimal) UnmarshalJSON(data []byte) error {
	f.Value, f.Valid = parseDecimal(data)
	return nil
}

// Ptr returns nil when the value is absent.
func (f flexDecimal) Ptr() *decimal.Decimal {
	if !f.Valid {
		return nil
	}
	v := f.Value
	return &v
}

// parseDecimal reads a raw JSON scalar that may be quoted.
func parseDecimal(raw []byte) (decimal.Decimal, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) >= 2 && raw[0] == '"' && raw[len(raw)-1] == '"' {
		raw = raw[1 : len(raw)-1]
	}
	s := strings.TrimSpace(string(raw))
	if s == "" || s == "null" {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

// ParseTokenIDs decodes a token identifier list sent either as a JSON array
// or as a JSON string holding an encoded array. null and "" give an empty
// list. Any other shape returns domain.ErrInvalidTokenIDs.
func ParseTokenIDs(raw []byte) ([]string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return []string{}, nil
	}

	var ids []string
	if err := json.Unmarshal(raw, &ids); err == nil {
		return ids, nil
	}

	var encoded string
	if err := json.Unmarshal(raw, &encoded); err != nil {
		return []string{}, domain.ErrInvalidTokenIDs
	}
	if strings.TrimSpace(encoded) == "" {
		return []string{}, nil
	}
	if err := json.Unmarshal([]byte(encoded), &ids); err != nil {
		return []string{}, domain.ErrInvalidTokenIDs
	}
	return ids, nil
}

// tokenIDs is the decoding boundary for clobTokenIds. A malformed value
// decodes to an empty, invalid list instead of failing the market.
type tokenIDs struct {
	IDs   []string
	Valid bool
}

func (t *tokenIDs) UnmarshalJSON(data []byte) error {
	ids, err := ParseTokenIDs(data)
	t.IDs, t.Valid = ids, err == nil
	return nil
}

// --------------------------------------------------------------------------
// Gamma API DTOs
// --------------------------------------------------------------------------

// APIMarket represents a market as returned by the Polymarket Gamma API.
type APIMarket struct {
	ID           string      `json:"id"`
	Question     string      `json:"question"`
	Slug         string      `json:"slug"`
	Liquidity    flexDecimal `json:"liquidity"`
	LiquidityNum flexDecimal `json:"liquidityNum"`
	Volume       flexDecimal `json:"volume"`
	Active       flexBool    `json:"active"`
	Archived     flexBool    `json:"archived"`
	Closed       flexBool    `json:"closed"`
	BestBid      flexDecimal `json:"bestBid"`
	BestAsk      flexDecimal `json:"bestAsk"`
	ClobTokenIDs tokenIDs    `json:"clobTokenIds"`
}

// ToDomainMarket converts a Gamma APIMarket to a domain.Market. An absent
// clobTokenIds field is a valid empty list.
func (m *APIMarket) ToDomainMarket() domain.Market {
	dm := domain.Market{
		ID:            m.ID,
		Question:      m.Question,
		Slug:          m.Slug,
		Active:        bool(m.Active),
		Archived:      bool(m.Archived),
		Closed:        bool(m.Closed),
		BestBid:       m.BestBid.Ptr(),
		BestAsk:       m.BestAsk.Ptr(),
		TokenIDs:      m.ClobTokenIDs.IDs,
		TokenIDsValid: m.ClobTokenIDs.Valid || m.ClobTokenIDs.IDs == nil,
	}
	if dm.TokenIDs == nil {
		dm.TokenIDs = []string{}
	}

	switch {
	case m.Liquidity.Valid:
		dm.Liquidity = m.Liquidity.Value
	case m.LiquidityNum.Valid:
		dm.Liquidity = m.LiquidityNum.Value
	}
	if m.Volume.Valid {
		dm.Volume = m.Volume.Value
	}

	return dm
}

// --------------------------------------------------------------------------
// CLOB API DTOs
// --------------------------------------------------------------------------

// APIBookLevel is a single price/size pair in a CLOB book response. Both
// fields are normally decimal strings.
type APIBookLevel struct {
	Price json.RawMessage `json:"price"`
	Size  json.RawMessage `json:"size"`
}

// APIBook is the response of GET /book.
type APIBook struct {
	Market    string         `json:"market"`
	AssetID   string         `json:"asset_id"`
	Bids      []APIBookLevel `json:"bids"`
	Asks      []APIBookLevel `json:"asks"`
	Hash      string         `json:"hash"`
	Timestamp string         `json:"timestamp"`
}

// ToDomainBook converts an APIBook to a domain.OrderBook. Levels whose
// price or size cannot be parsed, or whose size is negative, are kept with
// the bad field zeroed and flagged Malformed.
func (b *APIBook) ToDomainBook(tokenID string) domain.OrderBook {
	book := domain.OrderBook{
		TokenID: tokenID,
		Market:  b.Market,
		Bids:    make([]domain.PriceLevel, 0, len(b.Bids)),
		Asks:    make([]domain.PriceLevel, 0, len(b.Asks)),
	}
	if book.TokenID == "" {
		book.TokenID = b.AssetID
	}

	for _, l := range b.Bids {
		lvl := l.toDomain()
		if lvl.Malformed {
			book.Malformed++
		}
		book.Bids = append(book.Bids, lvl)
	}
	for _, l := range b.Asks {
		lvl := l.toDomain()
		if lvl.Malformed {
			book.Malformed++
		}
		book.Asks = append(book.Asks, lvl)
	}
	return book
}

func (l APIBookLevel) toDomain() domain.PriceLevel {
	price, okPrice := parseDecimal(l.Price)
	size, okSize := parseDecimal(l.Size)
	if okSize && size.IsNegative() {
		size, okSize = decimal.Zero, false
	}
	return domain.PriceLevel{
		Price:     price,
		Size:      size,
		Malformed: !okPrice || !okSize,
	}
}
