package brokers

import (
	"fmt"
	"sync"

	"orderbook-aggregator/src/interfaces"
)

// The global registry map. Key is the exchange name (e.g., "binance"), value
// is the constructor function.
var (
	registry = make(map[string]interfaces.IBrokerConstructor)
	mu       sync.RWMutex
)

// Register is called by each broker's init() function to add itself to the map.
func Register(name string, constructor interfaces.IBrokerConstructor) error {
	mu.Lock()
	defer mu.Unlock()
	if _, exists := registry[name]; exists {
		return fmt.Errorf("broker constructor already registered for exchange: %s", name)
	}
	registry[name] = constructor
	return nil
}

// GetConstructor retrieves the constructor for a configured exchange name.
func GetConstructor(name string) (interfaces.IBrokerConstructor, error) {
	mu.RLock()
	defer mu.RUnlock()
	constructor, exists := registry[name]
	if !exists {
		return nil, fmt.Errorf("unknown exchange: %s", name)
	}
	return constructor, nil
}
