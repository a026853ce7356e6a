package config

import (
	"fmt"

	"github.com/LeJamon/goPriceOracle/internal/storage/custody"
)

// DatabaseConfig represents the [database] section holding oracle state
type DatabaseConfig struct {
	// Backend is one of pebble, bbolt, leveldb, memory
	Backend string `mapstructure:"backend"`
	Path    string `mapstructure:"path"`
}

var knownBackends = map[string]bool{
	"pebble":  true,
	"bbolt":   true,
	"leveldb": true,
	"memory":  true,
}

// Validate checks the database section
func (d DatabaseConfig) Validate() error {
	if !knownBackends[d.Backend] {
		return fmt.Errorf("unsupported database backend: %s", d.Backend)
	}
	if d.Backend != "memory" && d.Path == "" {
		return fmt.Errorf("database path is required for backend %s", d.Backend)
	}
	return nil
}

// CustodyConfig represents the [custody] section
type CustodyConfig struct {
	Enabled bool `mapstructure:"enabled"`

	custody.Config `mapstructure:",squash"`
}
