package config

import (
	"fmt"
	"os"
	"time"

	"orderbook-aggregator/src/models"

	"gopkg.in/yaml.v3"
)

// -----------------------------------------------------------------------------

// Config wraps models.MConfig and provides business logic methods
type Config struct {
	*models.MConfig
}

// -----------------------------------------------------------------------------

// NewConfig creates a new Config instance from a YAML file.
func NewConfig(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", configPath, err)
	}

	var modelConfig models.MConfig
	if err := yaml.Unmarshal(data, &modelConfig); err != nil {
		return nil, fmt.Errorf("failed to parse config from YAML: %w", err)
	}

	config := &Config{MConfig: &modelConfig}
	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

// -----------------------------------------------------------------------------

// applyDefaults fills in values the YAML file may omit.
func (c *Config) applyDefaults() {
	if c.DefaultDepth == 0 {
		c.DefaultDepth = 10
	}
	if c.Retry.MaxAttempts == 0 {
		c.Retry.MaxAttempts = 5
	}
	if c.Retry.MinBackoff == 0 {
		c.Retry.MinBackoff = time.Second
	}
	if c.Retry.MaxBackoff == 0 {
		c.Retry.MaxBackoff = 30 * time.Second
	}
	for _, exchange := range c.Exchanges {
		if exchange.Connection.HandshakeTimeout == 0 {
			exchange.Connection.HandshakeTimeout = 10 * time.Second
		}
		if exchange.Connection.IdleTimeout == 0 {
			exchange.Connection.IdleTimeout = 30 * time.Second
		}
	}
}

// -----------------------------------------------------------------------------

// Validate performs basic configuration validation.
func (c *Config) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("config name cannot be empty")
	}

	if c.Server.Port <= 1024 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port number: %d (must be between 1025 and 65535)", c.Server.Port)
	}

	if err := models.ValidateDepth(c.DefaultDepth); err != nil {
		return fmt.Errorf("default_depth: %w", err)
	}

	// The merge is defined over exactly one exchange pair; the listing order
	// is the cross-exchange tie-break and must therefore be explicit.
	if len(c.Exchanges) != 2 {
		return fmt.Errorf("exactly two exchange feeds must be configured, got %d", len(c.Exchanges))
	}
	seen := make(map[string]bool)
	for i, exchange := range c.Exchanges {
		if exchange.Name == "" {
			return fmt.Errorf("exchange %d: name cannot be empty", i)
		}
		if seen[exchange.Name] {
			return fmt.Errorf("exchange '%s' configured twice", exchange.Name)
		}
		seen[exchange.Name] = true
		if exchange.Endpoint == "" {
			return fmt.Errorf("exchange '%s': endpoint cannot be empty", exchange.Name)
		}
	}

	if c.Retry.MaxAttempts < 0 {
		return fmt.Errorf("retry max_attempts cannot be negative")
	}

	if c.NATS != nil && len(c.NATS.Servers) == 0 {
		return fmt.Errorf("NATS servers list cannot be empty when nats block is present")
	}

	return nil
}

// -----------------------------------------------------------------------------

// GetExchangeByName returns a single exchange feed configuration by name.
func (c *Config) GetExchangeByName(name string) *models.MExchangeConfig {
	for _, exchange := range c.Exchanges {
		if exchange.Name == name {
			return exchange
		}
	}
	return nil
}

// -----------------------------------------------------------------------------

// ExchangeNames returns the configured feed names in merge-priority order.
func (c *Config) ExchangeNames() []string {
	names := make([]string, 0, len(c.Exchanges))
	for _, exchange := range c.Exchanges {
		names = append(names, exchange.Name)
	}
	return names
}
