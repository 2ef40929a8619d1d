package depth

import (
	"github.com/google/btree"

	"github.com/alanyoungcy/polydepth/internal/domain"
)

// Ladder is a book with levels aggregated by price and sorted best-first:
// bids descending, asks ascending.
type Ladder struct {
	Bids []domain.PriceLevel `json:"bids"`
	Asks []domain.PriceLevel `json:"asks"`
}

func lessAsc(a, b domain.PriceLevel) bool  { return a.Price.LessThan(b.Price) }
func lessDesc(a, b domain.PriceLevel) bool { return a.Price.GreaterThan(b.Price) }

// BuildLadder aggregates book into a Ladder. Prices that compare equal
// ("0.5" and "0.50") share a level. limit caps each side; limit <= 0 keeps
// every level.
func BuildLadder(book domain.OrderBook, limit int) Ladder {
	return Ladder{
		Bids: aggregate(book.Bids, lessDesc, limit),
		Asks: aggregate(book.Asks, lessAsc, limit),
	}
}

func aggregate(levels []domain.PriceLevel, less btree.LessFunc[domain.PriceLevel], limit int) []domain.PriceLevel {
	tree := btree.NewG(32, less)
	for _, lvl := range levels {
		if existing, ok := tree.Get(lvl); ok {
			existing.Size = existing.Size.Add(lvl.Size)
			existing.Malformed = existing.Malformed || lvl.Malformed
			tree.ReplaceOrInsert(existing)
			continue
		}
		tree.ReplaceOrInsert(lvl)
	}

	n := tree.Len()
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]domain.PriceLevel, 0, n)
	tree.Ascend(func(lvl domain.PriceLevel) bool {
		out = append(out, lvl)
		return len(out) < n
	})
	return out
}
