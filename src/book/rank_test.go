package book

import (
	"reflect"
	"testing"

	"orderbook-aggregator/src/models"
)

func level(exchange string, price, amount float64) models.MPriceLevel {
	return models.MPriceLevel{Exchange: exchange, Price: price, Amount: amount}
}

func TestRankBidsDescending(t *testing.T) {
	in := []models.MPriceLevel{
		level("binance", 99.0, 1),
		level("binance", 101.0, 2),
		level("binance", 100.0, 3),
	}
	got := Rank(in, models.SideBid, 10)
	want := []models.MPriceLevel{
		level("binance", 101.0, 2),
		level("binance", 100.0, 3),
		level("binance", 99.0, 1),
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("bids not ranked best-first: %v", got)
	}
}

func TestRankAsksAscending(t *testing.T) {
	in := []models.MPriceLevel{
		level("bitstamp", 101.0, 2),
		level("bitstamp", 99.0, 1),
		level("bitstamp", 100.0, 3),
	}
	got := Rank(in, models.SideAsk, 10)
	want := []models.MPriceLevel{
		level("bitstamp", 99.0, 1),
		level("bitstamp", 100.0, 3),
		level("bitstamp", 101.0, 2),
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("asks not ranked best-first: %v", got)
	}
}

func TestRankEqualPriceLargerAmountFirst(t *testing.T) {
	in := []models.MPriceLevel{
		level("binance", 100.0, 1),
		level("bitstamp", 100.0, 5),
	}
	for _, side := range []models.Side{models.SideBid, models.SideAsk} {
		got := Rank(in, side, 10)
		if got[0].Amount != 5 || got[1].Amount != 1 {
			t.Fatalf("side %s: larger amount should outrank at equal price, got %v", side, got)
		}
	}
}

func TestRankFullTieKeepsInsertionOrder(t *testing.T) {
	in := []models.MPriceLevel{
		level("binance", 100.0, 2),
		level("bitstamp", 100.0, 2),
	}
	got := Rank(in, models.SideBid, 10)
	if got[0].Exchange != "binance" || got[1].Exchange != "bitstamp" {
		t.Fatalf("full tie must preserve input order, got %v", got)
	}
}

func TestRankTruncatesToDepth(t *testing.T) {
	in := []models.MPriceLevel{
		level("binance", 1, 1),
		level("binance", 2, 1),
		level("binance", 3, 1),
		level("binance", 4, 1),
	}
	got := Rank(in, models.SideAsk, 2)
	if len(got) != 2 {
		t.Fatalf("expected 2 levels, got %d", len(got))
	}
	if got[0].Price != 1 || got[1].Price != 2 {
		t.Fatalf("truncation must keep the best levels, got %v", got)
	}
}

func TestRankShorterThanDepth(t *testing.T) {
	in := []models.MPriceLevel{level("binance", 1, 1)}
	got := Rank(in, models.SideBid, 10)
	if len(got) != 1 {
		t.Fatalf("expected all levels when fewer than depth, got %d", len(got))
	}
}

func TestRankDoesNotMutateInput(t *testing.T) {
	in := []models.MPriceLevel{
		level("binance", 99.0, 1),
		level("binance", 101.0, 2),
	}
	snapshot := append([]models.MPriceLevel(nil), in...)
	Rank(in, models.SideBid, 10)
	if !reflect.DeepEqual(in, snapshot) {
		t.Fatalf("input slice was mutated: %v", in)
	}
}

func TestRankKeepsZeroAmountLevels(t *testing.T) {
	in := []models.MPriceLevel{
		level("binance", 100.0, 0),
		level("binance", 99.0, 1),
	}
	got := Rank(in, models.SideBid, 10)
	if len(got) != 2 || got[0].Amount != 0 {
		t.Fatalf("zero amount levels must be kept, got %v", got)
	}
}

func TestRankIdempotent(t *testing.T) {
	in := []models.MPriceLevel{
		level("binance", 100.0, 1),
		level("bitstamp", 100.0, 5),
		level("binance", 99.0, 2),
	}
	once := Rank(in, models.SideBid, 10)
	twice := Rank(once, models.SideBid, 10)
	if !reflect.DeepEqual(once, twice) {
		t.Fatalf("ranking a ranked list changed it: %v vs %v", once, twice)
	}
}

func TestRankEmpty(t *testing.T) {
	if got := Rank(nil, models.SideAsk, 10); len(got) != 0 {
		t.Fatalf("expected empty result, got %v", got)
	}
}
