// Package logging builds the logrus loggers used across the daemon.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// Config controls the root logger.
type Config struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

var root = logrus.New()

// Root returns the process-wide logger.
func Root() *logrus.Logger {
	return root
}

// New returns an entry tagged with the component name.
func New(component string) *logrus.Entry {
	return root.WithField("component", component)
}

// Configure applies cfg to the root logger. Output is "stdout", "stderr" or
// a file path opened for appending.
func Configure(cfg Config) error {
	level := cfg.Level
	if level == "" {
		level = "info"
	}
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
	}
	root.SetLevel(lvl)

	switch strings.ToLower(cfg.Format) {
	case "", "text":
		root.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	case "json":
		root.SetFormatter(&logrus.JSONFormatter{})
	default:
		return fmt.Errorf("invalid log format %q", cfg.Format)
	}

	out, err := openOutput(cfg.Output)
	if err != nil {
		return err
	}
	root.SetOutput(out)
	return nil
}

func openOutput(output string) (io.Writer, error) {
	switch output {
	case "", "stderr":
		return os.Stderr, nil
	case "stdout":
		return os.Stdout, nil
	default:
		f, err := os.OpenFile(output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}
		return f, nil
	}
}
