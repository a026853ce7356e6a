// Package custody is a SQL-backed token ledger. It holds per-asset account
// balances, moves tokens between accounts and implements the transfer
// collaborator used by oracle deposits.
package custody

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq" // PostgreSQL driver
	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/LeJamon/goPriceOracle/internal/core/fixedpoint"
	"github.com/LeJamon/goPriceOracle/internal/core/oracle"
	"github.com/LeJamon/goPriceOracle/internal/logging"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Amounts are 128-bit and stored as decimal text, which both drivers
// compare and round-trip exactly.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS token_balances (
		asset   TEXT NOT NULL,
		account TEXT NOT NULL,
		amount  TEXT NOT NULL,
		PRIMARY KEY (asset, account)
	)`,
	`CREATE TABLE IF NOT EXISTS token_transfers (
		id           TEXT PRIMARY KEY,
		asset        TEXT NOT NULL,
		from_account TEXT NOT NULL,
		to_account   TEXT NOT NULL,
		amount       TEXT NOT NULL,
		created_at   BIGINT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS token_transfers_from ON token_transfers (from_account)`,
}

// Transfer is one journal entry.
type Transfer struct {
	ID        string
	Asset     oracle.Address
	From      oracle.Address
	To        oracle.Address
	Amount    fixedpoint.Int128
	CreatedAt time.Time
}

// Ledger is the token custody ledger.
type Ledger struct {
	db      *sql.DB
	driver  string
	timeout time.Duration
	log     *logrus.Entry
}

// Open connects to the configured database and creates the schema.
func Open(ctx context.Context, cfg Config) (*Ledger, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	dsn, err := cfg.BuildConnectionString()
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(cfg.Driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open custody database: %w", err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	l := &Ledger{
		db:      db,
		driver:  cfg.Driver,
		timeout: cfg.DefaultTimeout,
		log:     logging.New("custody"),
	}

	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping custody database: %w", err)
	}
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to initialize custody schema: %w", err)
		}
	}
	return l, nil
}

// Close closes the database connection
func (l *Ledger) Close() error {
	if l.db == nil {
		return nil
	}
	err := l.db.Close()
	l.db = nil
	return err
}

// Mint credits amount of asset to account out of thin air. Operators use it
// to fund accounts on private deployments.
func (l *Ledger) Mint(ctx context.Context, asset, to oracle.Address, amount fixedpoint.Int128) error {
	return l.move(ctx, asset, "", to, amount)
}

// Transfer moves amount of asset from one account to another. It fails with
// ErrInsufficientFunds, leaving both balances untouched, when from cannot
// cover amount.
func (l *Ledger) Transfer(ctx context.Context, asset, from, to oracle.Address, amount fixedpoint.Int128) error {
	if from == "" {
		return fmt.Errorf("transfer source is required")
	}
	return l.move(ctx, asset, from, to, amount)
}

// BalanceOf returns the balance of account in asset. Unknown accounts hold 0.
func (l *Ledger) BalanceOf(ctx context.Context, asset, account oracle.Address) (fixedpoint.Int128, error) {
	if l.db == nil {
		return fixedpoint.Int128{}, ErrClosed
	}
	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	return l.balance(ctx, l.db, asset, account, false)
}

// Transfers returns the journal entries sent or received by account,
// newest first.
func (l *Ledger) Transfers(ctx context.Context, account oracle.Address, limit int) ([]Transfer, error) {
	if l.db == nil {
		return nil, ErrClosed
	}
	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	rows, err := l.db.QueryContext(ctx, l.rebind(
		`SELECT id, asset, from_account, to_account, amount, created_at
		   FROM token_transfers
		  WHERE from_account = ? OR to_account = ?
		  ORDER BY created_at DESC, id
		  LIMIT ?`), string(account), string(account), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query transfers: %w", err)
	}
	defer rows.Close()

	var out []Transfer
	for rows.Next() {
		var (
			tr             Transfer
			asset, from    string
			to, amount     string
			createdAtNanos int64
		)
		if err := rows.Scan(&tr.ID, &asset, &from, &to, &amount, &createdAtNanos); err != nil {
			return nil, fmt.Errorf("failed to scan transfer: %w", err)
		}
		tr.Asset, tr.From, tr.To = oracle.Address(asset), oracle.Address(from), oracle.Address(to)
		tr.CreatedAt = time.Unix(0, createdAtNanos)
		if tr.Amount, err = fixedpoint.Parse(amount); err != nil {
			return nil, fmt.Errorf("corrupt transfer amount %q: %w", amount, err)
		}
		out = append(out, tr)
	}
	return out, rows.Err()
}

type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (l *Ledger) balance(ctx context.Context, q querier, asset, account oracle.Address, lock bool) (fixedpoint.Int128, error) {
	query := `SELECT amount FROM token_balances WHERE asset = ? AND account = ?`
	if lock && l.driver == DriverPostgres {
		query += ` FOR UPDATE`
	}

	var amount string
	err := q.QueryRowContext(ctx, l.rebind(query), string(asset), string(account)).Scan(&amount)
	if errors.Is(err, sql.ErrNoRows) {
		return fixedpoint.Zero, nil
	}
	if err != nil {
		return fixedpoint.Int128{}, fmt.Errorf("failed to read balance: %w", err)
	}
	v, err := fixedpoint.Parse(amount)
	if err != nil {
		return fixedpoint.Int128{}, fmt.Errorf("corrupt balance %q: %w", amount, err)
	}
	return v, nil
}

// move debits from (unless empty) and credits to inside one transaction and
// journals the movement.
func (l *Ledger) move(ctx context.Context, asset, from, to oracle.Address, amount fixedpoint.Int128) error {
	if l.db == nil {
		return ErrClosed
	}
	if amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	if to == "" {
		return fmt.Errorf("transfer destination is required")
	}

	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if from != "" {
		src, err := l.balance(ctx, tx, asset, from, true)
		if err != nil {
			return err
		}
		if src.Cmp(amount) < 0 {
			return fmt.Errorf("%w: %s holds %s %s", ErrInsufficientFunds, from, src, asset)
		}
		next, err := src.Sub(amount)
		if err != nil {
			return err
		}
		if err := l.store(ctx, tx, asset, from, next); err != nil {
			return err
		}
	}

	dst, err := l.balance(ctx, tx, asset, to, true)
	if err != nil {
		return err
	}
	next, err := dst.Add(amount)
	if err != nil {
		return fmt.Errorf("balance of %s overflows: %w", to, err)
	}
	if err := l.store(ctx, tx, asset, to, next); err != nil {
		return err
	}

	id := uuid.NewString()
	_, err = tx.ExecContext(ctx, l.rebind(
		`INSERT INTO token_transfers (id, asset, from_account, to_account, amount, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`),
		id, string(asset), string(from), string(to), amount.String(), time.Now().UnixNano())
	if err != nil {
		return fmt.Errorf("failed to journal transfer: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transfer: %w", err)
	}

	l.log.WithFields(logrus.Fields{
		"id":     id,
		"asset":  asset,
		"from":   from,
		"to":     to,
		"amount": amount.String(),
	}).Info("Transfer committed")
	return nil
}

func (l *Ledger) store(ctx context.Context, tx *sql.Tx, asset, account oracle.Address, amount fixedpoint.Int128) error {
	_, err := tx.ExecContext(ctx, l.rebind(
		`INSERT INTO token_balances (asset, account, amount) VALUES (?, ?, ?)
		 ON CONFLICT (asset, account) DO UPDATE SET amount = excluded.amount`),
		string(asset), string(account), amount.String())
	if err != nil {
		return fmt.Errorf("failed to store balance: %w", err)
	}
	return nil
}

// rebind rewrites ? placeholders to $n for postgres.
func (l *Ledger) rebind(query string) string {
	if l.driver != DriverPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
