package config

import (
	"fmt"
	"net"
	"strings"
	"time"
)

// Duration is a time.Duration read from strings like "30s".
type Duration = time.Duration

// ServerConfig represents the [server] section
type ServerConfig struct {
	Bind string `mapstructure:"bind"`
	Port int    `mapstructure:"port"`

	ReadTimeout     Duration `mapstructure:"read_timeout"`
	WriteTimeout    Duration `mapstructure:"write_timeout"`
	ShutdownTimeout Duration `mapstructure:"shutdown_timeout"`

	// RateLimit is the sustained requests per second allowed per client
	// address; 0 disables limiting
	RateLimit float64 `mapstructure:"rate_limit"`
	RateBurst int     `mapstructure:"rate_burst"`

	CORSOrigins []string `mapstructure:"cors_origins"`

	// TrustedProxies lists the IPs or CIDRs allowed to set X-Forwarded-For;
	// the header is ignored from any other peer
	TrustedProxies []string `mapstructure:"trusted_proxies"`

	Metrics bool `mapstructure:"metrics"`
}

// Address returns the listen address
func (s ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Bind, s.Port)
}

// Validate checks the server section
func (s ServerConfig) Validate() error {
	if s.Port <= 0 || s.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", s.Port)
	}
	if s.RateLimit < 0 {
		return fmt.Errorf("rate_limit must not be negative")
	}
	if s.RateLimit > 0 && s.RateBurst <= 0 {
		return fmt.Errorf("rate_burst must be positive when rate_limit is set")
	}
	for _, p := range s.TrustedProxies {
		if _, _, err := net.ParseCIDR(p); err == nil {
			continue
		}
		if !strings.Contains(p, "/") && net.ParseIP(p) != nil {
			continue
		}
		return fmt.Errorf("invalid trusted proxy: %s", p)
	}
	return nil
}
