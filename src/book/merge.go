package book

import (
	"orderbook-aggregator/src/models"
)

// -----------------------------------------------------------------------------

// RankedBook is the latest ranked bid/ask pair for a single exchange. A
// session keeps one per feed and overwrites it wholesale on every frame.
type RankedBook struct {
	Exchange string
	Bids     []models.MPriceLevel
	Asks     []models.MPriceLevel
}

// -----------------------------------------------------------------------------

// Merge combines the latest books of two exchanges into one ranked,
// depth-limited snapshot. Side by side, a's levels are concatenated before
// b's and re-ranked with Rank; because the sort is stable, a level from a
// outranks an identical level from b, which makes cross-exchange ties
// deterministic.
//
// Either book may be nil or empty; an exchange that has not produced a frame
// yet, or is mid-outage, simply contributes no levels. Spread is the best ask
// price minus the best bid price, and is absent unless both merged sides are
// non-empty.
func Merge(a, b *RankedBook, depth int) models.MBookSnapshot {
	bids := concat(a, b, models.SideBid)
	asks := concat(a, b, models.SideAsk)

	snap := models.MBookSnapshot{
		Bids: Rank(bids, models.SideBid, depth),
		Asks: Rank(asks, models.SideAsk, depth),
	}

	if len(snap.Bids) > 0 && len(snap.Asks) > 0 {
		spread := snap.Asks[0].Price - snap.Bids[0].Price
		snap.Spread = &spread
	}
	return snap
}

// -----------------------------------------------------------------------------

func concat(a, b *RankedBook, side models.Side) []models.MPriceLevel {
	ladder := func(rb *RankedBook) []models.MPriceLevel {
		if rb == nil {
			return nil
		}
		if side == models.SideBid {
			return rb.Bids
		}
		return rb.Asks
	}

	la, lb := ladder(a), ladder(b)
	merged := make([]models.MPriceLevel, 0, len(la)+len(lb))
	merged = append(merged, la...)
	merged = append(merged, lb...)
	return merged
}
