package models

import (
	"time"
)

// -----------------------------------------------------------------------------
// Configuration Models (YAML-backed)
// -----------------------------------------------------------------------------

// MConfig is the root application configuration.
type MConfig struct {
	Name         string             `yaml:"name"`
	Server       MServerConfig      `yaml:"server"`
	Log          MLogConfig         `yaml:"log"`
	DefaultDepth int                `yaml:"default_depth"`
	Exchanges    []*MExchangeConfig `yaml:"exchanges"`
	Retry        MRetryConfig       `yaml:"retry"`
	NATS         *MNATSConfig       `yaml:"nats,omitempty"`
}

// -----------------------------------------------------------------------------

// MServerConfig is the gRPC listen address.
type MServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// -----------------------------------------------------------------------------

// MLogConfig controls log level and optional rotating file output.
type MLogConfig struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file,omitempty"`
	MaxSizeMB  int    `yaml:"max_size_mb,omitempty"`
	MaxBackups int    `yaml:"max_backups,omitempty"`
	MaxAgeDays int    `yaml:"max_age_days,omitempty"`
}

// -----------------------------------------------------------------------------

// MExchangeConfig describes one exchange feed. The order of exchanges in
// MConfig.Exchanges is meaningful: on a full price/amount tie the exchange
// listed first wins the higher rank in the merged book.
type MExchangeConfig struct {
	Name       string            `yaml:"name"`
	Endpoint   string            `yaml:"endpoint"`
	Cadence    string            `yaml:"cadence,omitempty"` // update cadence suffix, exchange-specific
	Connection MConnectionConfig `yaml:"connection"`
}

// -----------------------------------------------------------------------------

// MConnectionConfig holds per-socket tuning shared by all exchanges.
type MConnectionConfig struct {
	HandshakeTimeout time.Duration `yaml:"handshake_timeout"`
	IdleTimeout      time.Duration `yaml:"idle_timeout"`
	// MaxFrameRate caps inbound frame processing in frames/sec; 0 disables.
	MaxFrameRate float64 `yaml:"max_frame_rate,omitempty"`
}

// -----------------------------------------------------------------------------

// MRetryConfig bounds the session-level reconnect policy for a failed feed.
type MRetryConfig struct {
	MaxAttempts int           `yaml:"max_attempts"`
	MinBackoff  time.Duration `yaml:"min_backoff"`
	MaxBackoff  time.Duration `yaml:"max_backoff"`
}

// -----------------------------------------------------------------------------

// MNATSConfig configures the optional NATS fan-out of merged summaries.
type MNATSConfig struct {
	Servers        []string          `yaml:"servers"`
	ClientID       string            `yaml:"client_id"`
	SubjectPrefix  string            `yaml:"subject_prefix,omitempty"`
	ConnectTimeout time.Duration     `yaml:"connect_timeout"`
	ReconnectWait  time.Duration     `yaml:"reconnect_wait"`
	MaxReconnects  int               `yaml:"max_reconnects"`
	FlushTimeout   time.Duration     `yaml:"flush_timeout"`
	JetStream      *MJetStreamConfig `yaml:"jetstream,omitempty"`
}

// -----------------------------------------------------------------------------

// MJetStreamConfig enables persistent publishing through JetStream.
type MJetStreamConfig struct {
	Enabled    bool          `yaml:"enabled"`
	StreamName string        `yaml:"stream_name"`
	Subjects   []string      `yaml:"subjects"`
	Replicas   int           `yaml:"replicas"`
	MaxAge     time.Duration `yaml:"max_age"`
	MaxMsgs    int64         `yaml:"max_msgs"`
	MaxBytes   int64         `yaml:"max_bytes"`
}
