package brokers

import (
	"encoding/json"
	"errors"
	"testing"

	"orderbook-aggregator/src/config"
	"orderbook-aggregator/src/logger"
	"orderbook-aggregator/src/models"
)

func testConfig() *config.Config {
	return &config.Config{MConfig: &models.MConfig{
		Name: "test",
		Exchanges: []*models.MExchangeConfig{
			{Name: "binance", Endpoint: "wss://stream.binance.com:9443/ws", Cadence: "1000ms"},
			{Name: "bitstamp", Endpoint: "wss://ws.bitstamp.net"},
		},
	}}
}

func testLogger() *logger.Logger {
	return logger.NewLogger(&models.MLogConfig{Level: "error"}, "test")
}

func newTestBinance(t *testing.T) *Binance {
	t.Helper()
	broker, err := NewBinance(testConfig(), testLogger(), "binance")
	if err != nil {
		t.Fatalf("NewBinance: %v", err)
	}
	return broker.(*Binance)
}

func TestBinanceRejectsInsecureEndpoint(t *testing.T) {
	cfg := testConfig()
	cfg.Exchanges[0].Endpoint = "ws://stream.binance.com:9443/ws"
	if _, err := NewBinance(cfg, testLogger(), "binance"); err == nil {
		t.Fatal("expected error for ws:// endpoint")
	}
}

func TestBinanceBuildSubscription(t *testing.T) {
	broker := newTestBinance(t)

	msg, err := broker.BuildSubscription("ETHBTC", 10)
	if err != nil {
		t.Fatalf("BuildSubscription: %v", err)
	}

	var sub struct {
		Method string   `json:"method"`
		Params []string `json:"params"`
		ID     int      `json:"id"`
	}
	if err := json.Unmarshal(msg, &sub); err != nil {
		t.Fatalf("subscription is not valid JSON: %v", err)
	}
	if sub.Method != "SUBSCRIBE" || sub.ID != 1 {
		t.Fatalf("unexpected envelope: %+v", sub)
	}
	if len(sub.Params) != 1 || sub.Params[0] != "ethbtc@depth10@1000ms" {
		t.Fatalf("unexpected stream name: %v", sub.Params)
	}
}

func TestBinanceBuildSubscriptionNoCadence(t *testing.T) {
	cfg := testConfig()
	cfg.Exchanges[0].Cadence = ""
	broker, err := NewBinance(cfg, testLogger(), "binance")
	if err != nil {
		t.Fatalf("NewBinance: %v", err)
	}

	msg, err := broker.BuildSubscription("ethbtc", 20)
	if err != nil {
		t.Fatalf("BuildSubscription: %v", err)
	}
	var sub struct {
		Params []string `json:"params"`
	}
	if err := json.Unmarshal(msg, &sub); err != nil {
		t.Fatal(err)
	}
	if sub.Params[0] != "ethbtc@depth20" {
		t.Fatalf("unexpected stream name: %v", sub.Params)
	}
}

func TestBinanceBuildSubscriptionInvalidDepth(t *testing.T) {
	broker := newTestBinance(t)
	if _, err := broker.BuildSubscription("ethbtc", 7); !errors.Is(err, models.ErrInvalidDepth) {
		t.Fatalf("expected ErrInvalidDepth, got %v", err)
	}
}

func TestBinanceParseFrame(t *testing.T) {
	broker := newTestBinance(t)

	frame := []byte(`{
		"lastUpdateId": 160,
		"bids": [["0.0024","14.70"],["0.0023","6.40"]],
		"asks": [["0.0026","3.60"]]
	}`)
	update, err := broker.ParseFrame(frame)
	if err != nil {
		t.Fatalf("ParseFrame: %v", err)
	}
	if update == nil {
		t.Fatal("expected a book update")
	}
	if update.Exchange != "binance" {
		t.Fatalf("unexpected exchange: %s", update.Exchange)
	}
	if len(update.Bids) != 2 || len(update.Asks) != 1 {
		t.Fatalf("unexpected level counts: %d bids / %d asks", len(update.Bids), len(update.Asks))
	}
	if update.Bids[0].Price != 0.0024 || update.Bids[0].Amount != 14.70 {
		t.Fatalf("bad bid decode: %+v", update.Bids[0])
	}
	if update.Bids[0].Exchange != "binance" {
		t.Fatalf("levels must be tagged with the exchange, got %q", update.Bids[0].Exchange)
	}
}

func TestBinanceParseFrameAckIgnored(t *testing.T) {
	broker := newTestBinance(t)
	update, err := broker.ParseFrame([]byte(`{"result":null,"id":1}`))
	if err != nil || update != nil {
		t.Fatalf("ack should yield (nil, nil), got (%v, %v)", update, err)
	}
}

func TestBinanceParseFrameSubscriptionError(t *testing.T) {
	broker := newTestBinance(t)
	_, err := broker.ParseFrame([]byte(`{"error":{"code":2,"msg":"Invalid request"},"id":1}`))
	var connErr *models.ConnectionError
	if !errors.As(err, &connErr) || !connErr.Protocol {
		t.Fatalf("expected a protocol ConnectionError, got %v", err)
	}
}

func TestBinanceParseFrameMalformed(t *testing.T) {
	broker := newTestBinance(t)

	cases := []struct {
		name  string
		frame string
	}{
		{"invalid json", `{not json`},
		{"missing sides", `{"lastUpdateId": 1}`},
		{"non-string price", `{"bids":[[0.0024,"14.70"]],"asks":[]}`},
		{"unparseable amount", `{"bids":[["0.0024","lots"]],"asks":[]}`},
		{"negative price", `{"bids":[["-0.0024","14.70"]],"asks":[]}`},
		{"short entry", `{"bids":[["0.0024"]],"asks":[]}`},
	}
	for _, tc := range cases {
		_, err := broker.ParseFrame([]byte(tc.frame))
		var decodeErr *models.DecodeError
		if !errors.As(err, &decodeErr) {
			t.Fatalf("%s: expected DecodeError, got %v", tc.name, err)
		}
	}
}

func TestBinanceParseFrameZeroAmountKept(t *testing.T) {
	broker := newTestBinance(t)
	update, err := broker.ParseFrame([]byte(`{"bids":[["0.0024","0.0"]],"asks":[]}`))
	if err != nil {
		t.Fatalf("ParseFrame: %v", err)
	}
	if len(update.Bids) != 1 || update.Bids[0].Amount != 0 {
		t.Fatalf("zero amount level must survive decoding, got %+v", update.Bids)
	}
}
