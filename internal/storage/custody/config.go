package custody

import (
	"fmt"
	"net/url"
	"time"
)

// Config contains the custody database settings
type Config struct {
	// Driver is "sqlite" or "postgres"
	Driver string `mapstructure:"driver"`

	// Path is the sqlite file, or ":memory:"
	Path string `mapstructure:"path"`

	// Postgres connection settings. ConnectionString wins when set.
	ConnectionString string `mapstructure:"connection_string"`
	Host             string `mapstructure:"host"`
	Port             int    `mapstructure:"port"`
	Database         string `mapstructure:"database"`
	Username         string `mapstructure:"username"`
	Password         string `mapstructure:"password"`
	SSLMode          string `mapstructure:"ssl_mode"`

	// Connection pool settings
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`

	DefaultTimeout time.Duration `mapstructure:"default_timeout"`
}

// SQLiteConfig creates a SQLite configuration for path
func SQLiteConfig(path string) Config {
	return Config{
		Driver:         DriverSQLite,
		Path:           path,
		MaxOpenConns:   1, // SQLite limitation
		MaxIdleConns:   1,
		DefaultTimeout: 30 * time.Second,
	}
}

// Validate checks the configuration for common errors and fills defaults
func (c *Config) Validate() error {
	switch c.Driver {
	case "postgres", "postgresql":
		c.Driver = DriverPostgres
	case "sqlite", "sqlite3":
		c.Driver = DriverSQLite
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedDriver, c.Driver)
	}

	if c.Driver == DriverPostgres && c.ConnectionString == "" {
		if c.Host == "" {
			return ErrMissingHost
		}
		if c.Port <= 0 || c.Port > 65535 {
			return ErrInvalidPort
		}
		if c.Database == "" {
			return ErrMissingDatabase
		}
		switch c.SSLMode {
		case "":
			c.SSLMode = "prefer"
		case "disable", "allow", "prefer", "require", "verify-ca", "verify-full":
		default:
			return fmt.Errorf("invalid SSL mode: %s", c.SSLMode)
		}
	}
	if c.Driver == DriverSQLite {
		if c.Path == "" {
			return ErrMissingDatabase
		}
		// every connection to :memory: would see a different database
		c.MaxOpenConns = 1
		c.MaxIdleConns = 1
	}

	if c.MaxOpenConns < 0 || c.MaxIdleConns < 0 {
		return ErrInvalidPoolSize
	}
	if c.DefaultTimeout <= 0 {
		c.DefaultTimeout = 30 * time.Second
	}
	return nil
}

// BuildConnectionString returns the DSN handed to database/sql
func (c *Config) BuildConnectionString() (string, error) {
	switch c.Driver {
	case DriverSQLite:
		return c.Path, nil
	case DriverPostgres:
		if c.ConnectionString != "" {
			return c.ConnectionString, nil
		}
		u := &url.URL{
			Scheme: "postgres",
			Host:   fmt.Sprintf("%s:%d", c.Host, c.Port),
			Path:   "/" + c.Database,
		}
		if c.Username != "" {
			if c.Password != "" {
				u.User = url.UserPassword(c.Username, c.Password)
			} else {
				u.User = url.User(c.Username)
			}
		}
		q := u.Query()
		q.Set("sslmode", c.SSLMode)
		u.RawQuery = q.Encode()
		return u.String(), nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedDriver, c.Driver)
	}
}
