package brokers

import (
	"encoding/json"
	"errors"
	"testing"

	"orderbook-aggregator/src/models"
)

func newTestBitstamp(t *testing.T) *Bitstamp {
	t.Helper()
	broker, err := NewBitstamp(testConfig(), testLogger(), "bitstamp")
	if err != nil {
		t.Fatalf("NewBitstamp: %v", err)
	}
	return broker.(*Bitstamp)
}

func TestBitstampBuildSubscription(t *testing.T) {
	broker := newTestBitstamp(t)

	msg, err := broker.BuildSubscription("ETHBTC", 10)
	if err != nil {
		t.Fatalf("BuildSubscription: %v", err)
	}

	var sub struct {
		Event string `json:"event"`
		Data  struct {
			Channel string `json:"channel"`
		} `json:"data"`
	}
	if err := json.Unmarshal(msg, &sub); err != nil {
		t.Fatalf("subscription is not valid JSON: %v", err)
	}
	if sub.Event != "bts:subscribe" {
		t.Fatalf("unexpected event: %s", sub.Event)
	}
	if sub.Data.Channel != "detail_order_book_ethbtc" {
		t.Fatalf("unexpected channel: %s", sub.Data.Channel)
	}
}

func TestBitstampBuildSubscriptionInvalidDepth(t *testing.T) {
	broker := newTestBitstamp(t)
	if _, err := broker.BuildSubscription("ethbtc", 15); !errors.Is(err, models.ErrInvalidDepth) {
		t.Fatalf("expected ErrInvalidDepth, got %v", err)
	}
}

func TestBitstampParseFrame(t *testing.T) {
	broker := newTestBitstamp(t)

	// Detail channel entries carry a trailing order id, which is ignored.
	frame := []byte(`{
		"event": "data",
		"channel": "detail_order_book_ethbtc",
		"data": {
			"timestamp": "1700000000",
			"bids": [["0.0024","14.70","1700000001"],["0.0023","6.40","1700000002"]],
			"asks": [["0.0026","3.60","1700000003"]]
		}
	}`)
	update, err := broker.ParseFrame(frame)
	if err != nil {
		t.Fatalf("ParseFrame: %v", err)
	}
	if update == nil {
		t.Fatal("expected a book update")
	}
	if len(update.Bids) != 2 || len(update.Asks) != 1 {
		t.Fatalf("unexpected level counts: %d bids / %d asks", len(update.Bids), len(update.Asks))
	}
	if update.Asks[0].Price != 0.0026 || update.Asks[0].Amount != 3.60 {
		t.Fatalf("bad ask decode: %+v", update.Asks[0])
	}
	if update.Bids[0].Exchange != "bitstamp" {
		t.Fatalf("levels must be tagged with the exchange, got %q", update.Bids[0].Exchange)
	}
}

func TestBitstampParseFrameAckIgnored(t *testing.T) {
	broker := newTestBitstamp(t)
	update, err := broker.ParseFrame([]byte(`{"event":"bts:subscription_succeeded","channel":"detail_order_book_ethbtc","data":{}}`))
	if err != nil || update != nil {
		t.Fatalf("ack should yield (nil, nil), got (%v, %v)", update, err)
	}
}

func TestBitstampParseFrameUnknownEventIgnored(t *testing.T) {
	broker := newTestBitstamp(t)
	update, err := broker.ParseFrame([]byte(`{"event":"bts:heartbeat","data":{}}`))
	if err != nil || update != nil {
		t.Fatalf("unknown event should yield (nil, nil), got (%v, %v)", update, err)
	}
}

func TestBitstampParseFrameError(t *testing.T) {
	broker := newTestBitstamp(t)
	_, err := broker.ParseFrame([]byte(`{"event":"bts:error","data":{"code":4009,"message":"Channel not found"}}`))
	var connErr *models.ConnectionError
	if !errors.As(err, &connErr) || !connErr.Protocol {
		t.Fatalf("expected a protocol ConnectionError, got %v", err)
	}
}

func TestBitstampParseFrameRequestReconnect(t *testing.T) {
	broker := newTestBitstamp(t)
	_, err := broker.ParseFrame([]byte(`{"event":"bts:request_reconnect","data":{}}`))
	var connErr *models.ConnectionError
	if !errors.As(err, &connErr) {
		t.Fatalf("expected ConnectionError so the session redials, got %v", err)
	}
	if connErr.Protocol {
		t.Fatalf("reconnect request is not a protocol violation: %+v", connErr)
	}
}

func TestBitstampParseFrameMalformed(t *testing.T) {
	broker := newTestBitstamp(t)

	cases := []struct {
		name  string
		frame string
	}{
		{"invalid json", `{not json`},
		{"missing data", `{"event":"data"}`},
		{"missing sides", `{"event":"data","data":{"timestamp":"1"}}`},
		{"bad price", `{"event":"data","data":{"bids":[["x","1","1"]],"asks":[]}}`},
	}
	for _, tc := range cases {
		_, err := broker.ParseFrame([]byte(tc.frame))
		var decodeErr *models.DecodeError
		if !errors.As(err, &decodeErr) {
			t.Fatalf("%s: expected DecodeError, got %v", tc.name, err)
		}
	}
}
