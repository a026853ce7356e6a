// Package config loads the oracled configuration from a TOML file, an
// optional .env file and ORACLED_ environment variables.
package config

import (
	"github.com/LeJamon/goPriceOracle/internal/logging"
)

// Config is the complete daemon configuration
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Database DatabaseConfig `mapstructure:"database"`
	Custody  CustodyConfig  `mapstructure:"custody"`
	Oracle   OracleConfig   `mapstructure:"oracle"`
	Feeder   FeederConfig   `mapstructure:"feeder"`
	Log      logging.Config `mapstructure:"log"`
	Cache    CacheConfig    `mapstructure:"cache"`

	configPath string
}

// ConfigPath returns the file the configuration was read from, if any
func (c *Config) ConfigPath() string {
	return c.configPath
}

// AuthConfig represents the [auth] section
type AuthConfig struct {
	// MaxSkew bounds the age of a signed request
	MaxSkew Duration `mapstructure:"max_skew"`
}

// CacheConfig represents the [cache] section
type CacheConfig struct {
	// Size is the number of stored values kept in memory by the host
	Size int `mapstructure:"size"`
}

// OracleConfig represents the [oracle] section
type OracleConfig struct {
	// FeeAsset is the only asset accepted for deposits
	FeeAsset string `mapstructure:"fee_asset"`

	// CustodyAccount receives deposited tokens
	CustodyAccount string `mapstructure:"custody_account"`

	Bootstrap BootstrapConfig `mapstructure:"bootstrap"`
}

// BootstrapConfig represents [oracle.bootstrap]: the configuration written
// on startup when the oracle has never been configured
type BootstrapConfig struct {
	Enabled    bool     `mapstructure:"enabled"`
	Admin      string   `mapstructure:"admin"`
	BaseAsset  string   `mapstructure:"base_asset"`
	Assets     []string `mapstructure:"assets"`
	Decimals   uint32   `mapstructure:"decimals"`
	Resolution uint32   `mapstructure:"resolution"`
	Period     uint64   `mapstructure:"period"`
	BaseFee    string   `mapstructure:"base_fee"`
}

// FeederConfig represents the [feeder] section
type FeederConfig struct {
	Enabled bool `mapstructure:"enabled"`

	// Schedule is a cron spec, e.g. "@every 5m" or "*/5 * * * *"
	Schedule string `mapstructure:"schedule"`

	// Source is "http" or "static"
	Source string `mapstructure:"source"`

	// URL is fetched once per run by the http source
	URL     string   `mapstructure:"url"`
	Timeout Duration `mapstructure:"timeout"`

	// PrivateKey is the hex secp256k1 key of the admin principal
	PrivateKey string `mapstructure:"private_key"`

	Assets []FeederAsset `mapstructure:"assets"`
}

// FeederAsset maps one registered asset to its quote
type FeederAsset struct {
	Asset string `mapstructure:"asset"`

	// Path is a gjson path into the http response
	Path string `mapstructure:"path"`

	// Price is the decimal price used by the static source
	Price string `mapstructure:"price"`
}
