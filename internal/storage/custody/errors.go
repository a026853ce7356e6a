package custody

import (
	"errors"
	"fmt"

	"github.com/LeJamon/goPriceOracle/internal/core/oracle"
)

var (
	ErrUnsupportedDriver = errors.New("unsupported custody database driver")
	ErrMissingHost       = errors.New("custody database host is required")
	ErrInvalidPort       = errors.New("custody database port must be between 1 and 65535")
	ErrMissingDatabase   = errors.New("custody database name or path is required")
	ErrInvalidPoolSize   = errors.New("connection pool sizes must not be negative")

	// ErrInsufficientFunds is returned when the source account cannot cover
	// a transfer. It carries oracle.ErrInsufficientBalance so callers see the
	// client facing kind.
	ErrInsufficientFunds = fmt.Errorf("insufficient funds: %w", oracle.ErrInsufficientBalance)

	// ErrInvalidAmount is returned for non-positive transfer amounts
	ErrInvalidAmount = errors.New("transfer amount must be positive")

	ErrClosed = errors.New("custody ledger is closed")
)
