package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	config, err := LoadConfig("", "")
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:5005", config.Server.Address())
	assert.Equal(t, 15*time.Second, config.Server.ReadTimeout)
	assert.Equal(t, "pebble", config.Database.Backend)
	assert.Equal(t, 30*time.Second, config.Auth.MaxSkew)
	assert.Equal(t, "@every 5m", config.Feeder.Schedule)
	assert.Equal(t, 4096, config.Cache.Size)
	assert.Equal(t, "info", config.Log.Level)
	assert.False(t, config.Custody.Enabled)
	assert.Equal(t, "sqlite", config.Custody.Driver)
}

func TestLoadConfig(t *testing.T) {
	tempDir := t.TempDir()

	path := writeFile(t, tempDir, "oracled.toml", `
[server]
bind = "0.0.0.0"
port = 8080
cors_origins = ["https://example.com"]

[database]
backend = "bbolt"
path = "/tmp/test/oracle.bolt"

[custody]
enabled = true
driver = "sqlite"
path = ":memory:"

[oracle]
fee_asset = "FEE"

[oracle.bootstrap]
enabled = true
admin = "0123456789abcdef0123456789abcdef01234567"
assets = ["BTC", "ETH"]
decimals = 14
resolution = 300
base_fee = "100"

[feeder]
enabled = true
source = "http"
url = "https://quotes.example.com/latest"
private_key = "0101010101010101010101010101010101010101010101010101010101010101"

[[feeder.assets]]
asset = "BTC"
path = "data.BTC.price"

[[feeder.assets]]
asset = "ETH"
path = "data.ETH.price"
`)

	config, err := LoadConfig(path, "")
	require.NoError(t, err)
	require.NotNil(t, config)

	assert.Equal(t, path, config.ConfigPath())
	assert.Equal(t, "0.0.0.0:8080", config.Server.Address())
	assert.Equal(t, []string{"https://example.com"}, config.Server.CORSOrigins)
	assert.Equal(t, "bbolt", config.Database.Backend)
	assert.True(t, config.Custody.Enabled)
	assert.Equal(t, ":memory:", config.Custody.Path)
	assert.Equal(t, []string{"BTC", "ETH"}, config.Oracle.Bootstrap.Assets)
	assert.Equal(t, uint32(300), config.Oracle.Bootstrap.Resolution)
	require.Len(t, config.Feeder.Assets, 2)
	assert.Equal(t, FeederAsset{Asset: "BTC", Path: "data.BTC.price"}, config.Feeder.Assets[0])
}

func TestEnvironmentOverrides(t *testing.T) {
	tempDir := t.TempDir()
	envFile := writeFile(t, tempDir, ".env", "ORACLED_LOG_LEVEL=debug\nORACLED_SERVER_PORT=7000\n")

	t.Setenv("ORACLED_SERVER_PORT", "9000")
	t.Setenv("ORACLED_DATABASE_BACKEND", "memory")
	t.Cleanup(func() { os.Unsetenv("ORACLED_LOG_LEVEL") })

	config, err := LoadConfig("", envFile)
	require.NoError(t, err)

	// process environment wins over the env file
	assert.Equal(t, 9000, config.Server.Port)
	assert.Equal(t, "memory", config.Database.Backend)
	assert.Equal(t, "debug", config.Log.Level)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.toml"), "")
	assert.Error(t, err)

	_, err = LoadConfig("", filepath.Join(t.TempDir(), "missing.env"))
	assert.NoError(t, err)
}

func TestValidateConfig(t *testing.T) {
	base := func(t *testing.T) *Config {
		config, err := LoadConfig("", "")
		require.NoError(t, err)
		return config
	}

	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"bad port", func(c *Config) { c.Server.Port = 0 }},
		{"burst missing", func(c *Config) { c.Server.RateBurst = 0 }},
		{"bad trusted proxy", func(c *Config) { c.Server.TrustedProxies = []string{"10.0.0.0/33"} }},
		{"trusted proxy hostname", func(c *Config) { c.Server.TrustedProxies = []string{"proxy.local"} }},
		{"unknown backend", func(c *Config) { c.Database.Backend = "nudb" }},
		{"missing path", func(c *Config) { c.Database.Path = "" }},
		{"custody without fee asset", func(c *Config) { c.Custody.Enabled = true }},
		{"bootstrap without admin", func(c *Config) { c.Oracle.Bootstrap.Enabled = true }},
		{"bootstrap duplicate asset", func(c *Config) {
			c.Oracle.Bootstrap = BootstrapConfig{Enabled: true, Admin: "a", Resolution: 1, Assets: []string{"X", "X"}, BaseFee: "0"}
		}},
		{"bootstrap bad fee", func(c *Config) {
			c.Oracle.Bootstrap = BootstrapConfig{Enabled: true, Admin: "a", Resolution: 1, BaseFee: "ten"}
		}},
		{"feeder without key", func(c *Config) { c.Feeder.Enabled = true }},
		{"feeder unknown source", func(c *Config) {
			c.Feeder = FeederConfig{Enabled: true, Schedule: "@every 1m", PrivateKey: "k", Source: "ftp"}
		}},
		{"feeder without assets", func(c *Config) {
			c.Feeder = FeederConfig{Enabled: true, Schedule: "@every 1m", PrivateKey: "k", Source: "static"}
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := base(t)
			tt.mutate(config)
			assert.Error(t, ValidateConfig(config))
		})
	}
}
