package config

import "fmt"

// ServerConfig holds configuration for the fleetd server.
type ServerConfig struct {
	Addr      string // Listen address (default ":8080")
	LogLevel  string // Log level: debug, info, warn, error
	LogFormat string // Log format: text, json

	// JournalPath is the SQLite task-outcome journal location
	// (default ~/.fleetd/fleetd.db, ":memory:" for testing).
	JournalPath string

	// FleetManifest is an optional YAML file declaring robots and their
	// capability strengths, registered at startup.
	FleetManifest string

	// DelegateURL points at a remote delegation service. Mutually
	// exclusive with DelegateScript; when both are empty the built-in
	// strength-table delegator is used.
	DelegateURL string

	// DelegateScript is a JavaScript policy file defining assign(task, robots).
	DelegateScript string

	// ChannelCapacity bounds the dispatch channel; a full channel blocks
	// admission (backpressure).
	ChannelCapacity int

	// APIKeyFile enables operator-key auth on mutating routes when set.
	APIKeyFile string
}

// DefaultServerConfig returns sensible defaults.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Addr:            ":8080",
		LogLevel:        "info",
		LogFormat:       "text",
		ChannelCapacity: 100,
	}
}

// Validate checks invariants that flag parsing cannot express.
func (c *ServerConfig) Validate() error {
	if c.ChannelCapacity <= 0 {
		return fmt.Errorf("channel capacity must be positive, got %d", c.ChannelCapacity)
	}
	if c.DelegateURL != "" && c.DelegateScript != "" {
		return fmt.Errorf("delegate-url and delegate-script are mutually exclusive")
	}
	return nil
}
