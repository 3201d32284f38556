package models

// -----------------------------------------------------------------------------
// Order Book Data Model
// -----------------------------------------------------------------------------

// Side identifies one half of an order book ladder.
type Side string

const (
	SideBid Side = "bid"
	SideAsk Side = "ask"
)

// -----------------------------------------------------------------------------

// MPriceLevel is a single resting level of one exchange's order book.
// It is a value type and is never mutated after construction. A level with
// Amount == 0 is a valid "no liquidity at this price" marker and is carried
// through decoding untouched; levels only ever disappear at the depth trim.
type MPriceLevel struct {
	Exchange string  `json:"exchange"`
	Price    float64 `json:"price"`
	Amount   float64 `json:"amount"`
}

// -----------------------------------------------------------------------------

// MBookUpdate is one decoded inbound frame from a single exchange: the full
// bid and ask ladders as of that frame. The feeds are snapshot feeds, so an
// update always replaces the previous state wholesale, never patches it.
type MBookUpdate struct {
	Exchange string        `json:"exchange"`
	Bids     []MPriceLevel `json:"bids"`
	Asks     []MPriceLevel `json:"asks"`
}

// -----------------------------------------------------------------------------

// MBookSnapshot is one merged, ranked, depth-limited view across both
// exchanges. Spread is nil whenever either side is empty; a zero spread is
// only ever a genuine zero, never an "unknown" sentinel.
type MBookSnapshot struct {
	Bids   []MPriceLevel `json:"bids"`
	Asks   []MPriceLevel `json:"asks"`
	Spread *float64      `json:"spread,omitempty"`
}
