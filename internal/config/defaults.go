package config

import "github.com/spf13/viper"

// setDefaults registers every key with its default so that environment
// overrides apply to all of them
func setDefaults(v *viper.Viper) {
	// Server
	v.SetDefault("server.bind", "127.0.0.1")
	v.SetDefault("server.port", 5005)
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "15s")
	v.SetDefault("server.shutdown_timeout", "10s")
	v.SetDefault("server.rate_limit", 20.0)
	v.SetDefault("server.rate_burst", 40)
	v.SetDefault("server.cors_origins", []string{})
	v.SetDefault("server.trusted_proxies", []string{})
	v.SetDefault("server.metrics", true)

	// Auth
	v.SetDefault("auth.max_skew", "30s")

	// Database
	v.SetDefault("database.backend", "pebble")
	v.SetDefault("database.path", "./data/oracle.db")

	// Custody
	v.SetDefault("custody.enabled", false)
	v.SetDefault("custody.driver", "sqlite")
	v.SetDefault("custody.path", "./data/custody.sqlite")
	v.SetDefault("custody.connection_string", "")
	v.SetDefault("custody.host", "")
	v.SetDefault("custody.port", 5432)
	v.SetDefault("custody.database", "")
	v.SetDefault("custody.username", "")
	v.SetDefault("custody.password", "")
	v.SetDefault("custody.ssl_mode", "prefer")
	v.SetDefault("custody.max_open_conns", 10)
	v.SetDefault("custody.max_idle_conns", 2)
	v.SetDefault("custody.conn_max_lifetime", "1h")
	v.SetDefault("custody.default_timeout", "30s")

	// Oracle
	v.SetDefault("oracle.fee_asset", "")
	v.SetDefault("oracle.custody_account", "oracle-custody")
	v.SetDefault("oracle.bootstrap.enabled", false)
	v.SetDefault("oracle.bootstrap.admin", "")
	v.SetDefault("oracle.bootstrap.base_asset", "USD")
	v.SetDefault("oracle.bootstrap.assets", []string{})
	v.SetDefault("oracle.bootstrap.decimals", 14)
	v.SetDefault("oracle.bootstrap.resolution", 300)
	v.SetDefault("oracle.bootstrap.period", 86400)
	v.SetDefault("oracle.bootstrap.base_fee", "0")

	// Feeder
	v.SetDefault("feeder.enabled", false)
	v.SetDefault("feeder.schedule", "@every 5m")
	v.SetDefault("feeder.source", "static")
	v.SetDefault("feeder.url", "")
	v.SetDefault("feeder.timeout", "10s")
	v.SetDefault("feeder.private_key", "")

	// Logging
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("log.output", "stderr")

	// Cache
	v.SetDefault("cache.size", 4096)
}
