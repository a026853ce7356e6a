package config

import (
	"fmt"

	"github.com/LeJamon/goPriceOracle/internal/core/fixedpoint"
)

// ValidateConfig performs validation on the complete configuration
func ValidateConfig(config *Config) error {
	if err := config.Server.Validate(); err != nil {
		return fmt.Errorf("server config validation failed: %w", err)
	}

	if err := config.Database.Validate(); err != nil {
		return fmt.Errorf("database config validation failed: %w", err)
	}

	if config.Custody.Enabled {
		if err := config.Custody.Config.Validate(); err != nil {
			return fmt.Errorf("custody config validation failed: %w", err)
		}
		if config.Oracle.FeeAsset == "" {
			return fmt.Errorf("oracle.fee_asset is required when custody is enabled")
		}
	}

	if err := validateBootstrap(&config.Oracle.Bootstrap); err != nil {
		return fmt.Errorf("oracle bootstrap validation failed: %w", err)
	}

	if err := validateFeeder(&config.Feeder); err != nil {
		return fmt.Errorf("feeder config validation failed: %w", err)
	}

	if config.Cache.Size < 0 {
		return fmt.Errorf("cache size must not be negative")
	}
	return nil
}

func validateBootstrap(b *BootstrapConfig) error {
	if !b.Enabled {
		return nil
	}
	if b.Admin == "" {
		return fmt.Errorf("admin is required")
	}
	if b.Resolution == 0 {
		return fmt.Errorf("resolution must be positive")
	}
	seen := make(map[string]bool, len(b.Assets))
	for _, a := range b.Assets {
		if seen[a] {
			return fmt.Errorf("asset %s listed twice", a)
		}
		seen[a] = true
	}
	if _, err := fixedpoint.Parse(b.BaseFee); err != nil {
		return fmt.Errorf("invalid base_fee: %w", err)
	}
	return nil
}

func validateFeeder(f *FeederConfig) error {
	if !f.Enabled {
		return nil
	}
	if f.Schedule == "" {
		return fmt.Errorf("schedule is required")
	}
	if f.PrivateKey == "" {
		return fmt.Errorf("private_key is required")
	}
	switch f.Source {
	case "http":
		if f.URL == "" {
			return fmt.Errorf("url is required for the http source")
		}
		for _, a := range f.Assets {
			if a.Path == "" {
				return fmt.Errorf("asset %s has no path", a.Asset)
			}
		}
	case "static":
		for _, a := range f.Assets {
			if a.Price == "" {
				return fmt.Errorf("asset %s has no price", a.Asset)
			}
		}
	default:
		return fmt.Errorf("unsupported source: %s", f.Source)
	}
	if len(f.Assets) == 0 {
		return fmt.Errorf("at least one asset is required")
	}
	return nil
}
