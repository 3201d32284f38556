package book

import (
	"sort"

	"orderbook-aggregator/src/models"
)

// -----------------------------------------------------------------------------

// Rank sorts a ladder best-first and trims it to depth. Bids rank by
// descending price, asks by ascending price; among equal prices the larger
// resting amount wins. The sort is stable, so a full price/amount tie keeps
// the order the levels were supplied in; that is the final deterministic
// tie-break, and the reason Merge concatenates exchanges in a fixed order.
//
// The input slice is not modified. Short ladders are returned as-is, never
// padded. Ranking an already-ranked ladder is a no-op.
func Rank(levels []models.MPriceLevel, side models.Side, depth int) []models.MPriceLevel {
	ranked := make([]models.MPriceLevel, len(levels))
	copy(ranked, levels)

	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.Price == b.Price {
			return a.Amount > b.Amount
		}
		if side == models.SideAsk {
			return a.Price < b.Price
		}
		return a.Price > b.Price
	})

	if depth >= 0 && depth < len(ranked) {
		ranked = ranked[:depth]
	}
	return ranked
}
