// Package host executes oracle calls against a database.DB with the
// guarantees the core relies on: calls run one at a time, every write of a
// call is buffered, and the buffer is committed as a single batch only when
// the call succeeds.
package host

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/LeJamon/goPriceOracle/internal/core/oracle"
	"github.com/LeJamon/goPriceOracle/internal/logging"
	"github.com/LeJamon/goPriceOracle/internal/storage/database"
)

// Observer receives the outcome of every call.
type Observer interface {
	ObserveCall(op string, committed bool, writes int, elapsed time.Duration)
}

// Host serializes calls over a database.
type Host struct {
	mu       sync.Mutex
	db       database.DB
	cache    *ValueCache
	clock    Clock
	observer Observer
	log      *logrus.Entry
}

// Option configures a Host.
type Option func(*Host) error

// WithClock replaces the system clock.
func WithClock(c Clock) Option {
	return func(h *Host) error {
		h.clock = c
		return nil
	}
}

// WithCacheSize sets the number of cached values.
func WithCacheSize(size int) Option {
	return func(h *Host) error {
		cache, err := NewValueCache(size)
		if err != nil {
			return err
		}
		h.cache = cache
		return nil
	}
}

// WithObserver registers an observer for call outcomes.
func WithObserver(o Observer) Option {
	return func(h *Host) error {
		h.observer = o
		return nil
	}
}

// WithLogger replaces the default logger.
func WithLogger(l *logrus.Entry) Option {
	return func(h *Host) error {
		h.log = l
		return nil
	}
}

// New creates a host over db.
func New(db database.DB, opts ...Option) (*Host, error) {
	h := &Host{
		db:    db,
		clock: SystemClock{},
		log:   logging.New("host"),
	}
	for _, opt := range opts {
		if err := opt(h); err != nil {
			return nil, err
		}
	}
	if h.cache == nil {
		cache, err := NewValueCache(DefaultCacheSize)
		if err != nil {
			return nil, err
		}
		h.cache = cache
	}
	return h, nil
}

// Clock returns the host clock.
func (h *Host) Clock() Clock {
	return h.clock
}

// Now returns the current clock time in unix seconds.
func (h *Host) Now() uint64 {
	return Unix(h.clock)
}

// DB returns the underlying database.
func (h *Host) DB() database.DB {
	return h.db
}

// Cache returns the value cache.
func (h *Host) Cache() *ValueCache {
	return h.cache
}

// Execute runs fn inside a call named op. Writes made through the storage
// handed to fn become visible to later calls only if fn returns nil; any
// error discards them.
func (h *Host) Execute(ctx context.Context, op string, fn func(oracle.Storage) error) error {
	return h.run(ctx, op, true, fn)
}

// View runs fn like Execute but always discards its writes.
func (h *Host) View(ctx context.Context, op string, fn func(oracle.Storage) error) error {
	return h.run(ctx, op, false, fn)
}

func (h *Host) run(ctx context.Context, op string, commit bool, fn func(oracle.Storage) error) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	start := time.Now()
	tx := newTxn(ctx, h)
	err := fn(tx)
	if err == nil && commit {
		err = h.commit(ctx, tx)
	}

	committed := err == nil && commit && len(tx.order) > 0
	if h.observer != nil {
		h.observer.ObserveCall(op, committed, len(tx.order), time.Since(start))
	}

	log := h.log.WithFields(logrus.Fields{
		"op":     op,
		"writes": len(tx.order),
	})
	switch {
	case err != nil:
		log.WithError(err).Debug("Call rolled back")
	case committed:
		log.Debug("Call committed")
	}
	return err
}

func (h *Host) commit(ctx context.Context, tx *txn) error {
	if len(tx.order) == 0 {
		return nil
	}
	ops := make([]database.BatchOperation, 0, len(tx.order))
	for _, k := range tx.order {
		ops = append(ops, database.BatchOperation{
			Type:  database.BatchPut,
			Key:   []byte(k),
			Value: tx.writes[k],
		})
	}
	if err := h.db.Batch(ctx, ops); err != nil {
		return fmt.Errorf("commit failed: %w", err)
	}
	for _, k := range tx.order {
		h.cache.Add(k, tx.writes[k])
	}
	return nil
}

// txn is the write overlay of one call.
type txn struct {
	ctx    context.Context
	host   *Host
	writes map[string][]byte
	order  []string
}

func newTxn(ctx context.Context, h *Host) *txn {
	return &txn{ctx: ctx, host: h, writes: make(map[string][]byte)}
}

func (t *txn) raw(key oracle.DataKey) ([]byte, bool, error) {
	k := string(key.Bytes())
	if v, ok := t.writes[k]; ok {
		return v, true, nil
	}
	if v, ok := t.host.cache.Get(k); ok {
		return v, true, nil
	}
	v, err := t.host.db.Read(t.ctx, []byte(k))
	if err != nil {
		if errors.Is(err, database.ErrKeyNotFound) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("read %s: %w", key, err)
	}
	t.host.cache.Add(k, v)
	return v, true, nil
}

func (t *txn) Has(key oracle.DataKey) (bool, error) {
	_, ok, err := t.raw(key)
	return ok, err
}

func (t *txn) Get(key oracle.DataKey, out any) (bool, error) {
	v, ok, err := t.raw(key)
	if err != nil || !ok {
		return false, err
	}
	if err := Decode(v, out); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

func (t *txn) Set(key oracle.DataKey, value any) error {
	v, err := Encode(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	k := string(key.Bytes())
	if _, exists := t.writes[k]; !exists {
		t.order = append(t.order, k)
	}
	t.writes[k] = v
	return nil
}
