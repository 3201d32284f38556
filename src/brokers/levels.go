package brokers

import (
	"fmt"
	"strconv"

	"orderbook-aggregator/src/models"
)

// -----------------------------------------------------------------------------

// parseLevels decodes one side of a book frame: an array of
// [price-string, amount-string, ...] entries. Extra trailing elements (such
// as Bitstamp's order ids) are ignored. Any entry that is not a pair of
// parseable numeric strings poisons the whole frame; the caller discards it
// as a DecodeError and waits for the next one. A parsed amount of zero is a
// valid level and is kept.
func parseLevels(exchange string, raw []interface{}) ([]models.MPriceLevel, error) {
	levels := make([]models.MPriceLevel, 0, len(raw))

	for i, rawLevel := range raw {
		entry, ok := rawLevel.([]interface{})
		if !ok || len(entry) < 2 {
			return nil, fmt.Errorf("level %d: not a [price, amount] pair", i)
		}

		price, err := parseDecimalString(entry[0])
		if err != nil {
			return nil, fmt.Errorf("level %d price: %w", i, err)
		}
		amount, err := parseDecimalString(entry[1])
		if err != nil {
			return nil, fmt.Errorf("level %d amount: %w", i, err)
		}

		levels = append(levels, models.MPriceLevel{
			Exchange: exchange,
			Price:    price,
			Amount:   amount,
		})
	}
	return levels, nil
}

// -----------------------------------------------------------------------------

func parseDecimalString(v interface{}) (float64, error) {
	s, ok := v.(string)
	if !ok {
		return 0, fmt.Errorf("expected numeric string, got %T", v)
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("unparseable numeric string %q", s)
	}
	if f < 0 {
		return 0, fmt.Errorf("negative value %q", s)
	}
	return f, nil
}
