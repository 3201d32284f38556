package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

const validYAML = `
name: "aggregator-test"
server:
  host: "127.0.0.1"
  port: 50051
log:
  level: "debug"
default_depth: 20
exchanges:
  - name: "binance"
    endpoint: "wss://stream.binance.com:9443/ws"
    cadence: "100ms"
    connection:
      handshake_timeout: 5s
      idle_timeout: 45s
  - name: "bitstamp"
    endpoint: "wss://ws.bitstamp.net"
retry:
  max_attempts: 3
  min_backoff: 500ms
  max_backoff: 10s
`

func TestNewConfigValid(t *testing.T) {
	cfg, err := NewConfig(writeConfig(t, validYAML))
	if err != nil {
		t.Fatalf("NewConfig: %v", err)
	}

	if cfg.Name != "aggregator-test" {
		t.Fatalf("unexpected name: %s", cfg.Name)
	}
	if cfg.Server.Port != 50051 {
		t.Fatalf("unexpected port: %d", cfg.Server.Port)
	}
	if cfg.DefaultDepth != 20 {
		t.Fatalf("unexpected default depth: %d", cfg.DefaultDepth)
	}
	if cfg.Retry.MaxAttempts != 3 || cfg.Retry.MinBackoff != 500*time.Millisecond {
		t.Fatalf("unexpected retry config: %+v", cfg.Retry)
	}

	binance := cfg.GetExchangeByName("binance")
	if binance == nil {
		t.Fatal("binance exchange missing")
	}
	if binance.Cadence != "100ms" {
		t.Fatalf("unexpected cadence: %s", binance.Cadence)
	}
	if binance.Connection.HandshakeTimeout != 5*time.Second {
		t.Fatalf("unexpected handshake timeout: %s", binance.Connection.HandshakeTimeout)
	}
}

func TestNewConfigDefaults(t *testing.T) {
	minimal := `
name: "aggregator-test"
server:
  port: 50051
exchanges:
  - name: "binance"
    endpoint: "wss://a"
  - name: "bitstamp"
    endpoint: "wss://b"
`
	cfg, err := NewConfig(writeConfig(t, minimal))
	if err != nil {
		t.Fatalf("NewConfig: %v", err)
	}
	if cfg.DefaultDepth != 10 {
		t.Fatalf("expected default depth 10, got %d", cfg.DefaultDepth)
	}
	if cfg.Retry.MaxAttempts != 5 || cfg.Retry.MinBackoff != time.Second || cfg.Retry.MaxBackoff != 30*time.Second {
		t.Fatalf("expected retry defaults, got %+v", cfg.Retry)
	}
	for _, exchange := range cfg.Exchanges {
		if exchange.Connection.HandshakeTimeout != 10*time.Second {
			t.Fatalf("%s: expected handshake default, got %s", exchange.Name, exchange.Connection.HandshakeTimeout)
		}
		if exchange.Connection.IdleTimeout != 30*time.Second {
			t.Fatalf("%s: expected idle default, got %s", exchange.Name, exchange.Connection.IdleTimeout)
		}
	}
}

func TestNewConfigMissingFile(t *testing.T) {
	if _, err := NewConfig(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestNewConfigInvalid(t *testing.T) {
	cases := []struct {
		name string
		yaml string
	}{
		{"garbage", `{{{not yaml`},
		{"empty name", `
name: ""
server: {port: 50051}
exchanges:
  - {name: "binance", endpoint: "wss://a"}
  - {name: "bitstamp", endpoint: "wss://b"}
`},
		{"privileged port", `
name: "x"
server: {port: 80}
exchanges:
  - {name: "binance", endpoint: "wss://a"}
  - {name: "bitstamp", endpoint: "wss://b"}
`},
		{"bad default depth", `
name: "x"
server: {port: 50051}
default_depth: 7
exchanges:
  - {name: "binance", endpoint: "wss://a"}
  - {name: "bitstamp", endpoint: "wss://b"}
`},
		{"one exchange", `
name: "x"
server: {port: 50051}
exchanges:
  - {name: "binance", endpoint: "wss://a"}
`},
		{"three exchanges", `
name: "x"
server: {port: 50051}
exchanges:
  - {name: "binance", endpoint: "wss://a"}
  - {name: "bitstamp", endpoint: "wss://b"}
  - {name: "kraken", endpoint: "wss://c"}
`},
		{"duplicate exchange", `
name: "x"
server: {port: 50051}
exchanges:
  - {name: "binance", endpoint: "wss://a"}
  - {name: "binance", endpoint: "wss://b"}
`},
		{"missing endpoint", `
name: "x"
server: {port: 50051}
exchanges:
  - {name: "binance", endpoint: "wss://a"}
  - {name: "bitstamp", endpoint: ""}
`},
		{"empty nats servers", `
name: "x"
server: {port: 50051}
exchanges:
  - {name: "binance", endpoint: "wss://a"}
  - {name: "bitstamp", endpoint: "wss://b"}
nats:
  client_id: "x"
`},
	}

	for _, tc := range cases {
		if _, err := NewConfig(writeConfig(t, tc.yaml)); err == nil {
			t.Fatalf("%s: expected validation error", tc.name)
		}
	}
}

func TestExchangeNamesOrder(t *testing.T) {
	cfg, err := NewConfig(writeConfig(t, validYAML))
	if err != nil {
		t.Fatalf("NewConfig: %v", err)
	}
	names := cfg.ExchangeNames()
	if len(names) != 2 || names[0] != "binance" || names[1] != "bitstamp" {
		t.Fatalf("listing order must be preserved, got %v", names)
	}
}
