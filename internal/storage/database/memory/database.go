// Package memory is an in-process database backend used by tests and
// throwaway nodes. Nothing survives Close.
package memory

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/LeJamon/goPriceOracle/internal/storage/database"
)

func init() {
	database.Register("memory", func(string) (database.DB, error) {
		return New(), nil
	})
}

type DB struct {
	mu     sync.RWMutex
	data   map[string][]byte
	closed bool
}

func New() *DB {
	return &DB{data: make(map[string][]byte)}
}

func (m *DB) Read(ctx context.Context, key []byte) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, database.ErrDBClosed
	}
	val, ok := m.data[string(key)]
	if !ok {
		return nil, database.ErrKeyNotFound
	}
	return bytes.Clone(val), nil
}

func (m *DB) Write(ctx context.Context, key, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return database.ErrDBClosed
	}
	m.data[string(key)] = bytes.Clone(value)
	return nil
}

func (m *DB) Delete(ctx context.Context, key []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return database.ErrDBClosed
	}
	delete(m.data, string(key))
	return nil
}

func (m *DB) Batch(ctx context.Context, ops []database.BatchOperation) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return database.ErrDBClosed
	}
	for _, op := range ops {
		if op.Type != database.BatchPut && op.Type != database.BatchDelete {
			return fmt.Errorf("unknown batch operation type: %d", op.Type)
		}
	}
	for _, op := range ops {
		switch op.Type {
		case database.BatchPut:
			m.data[string(op.Key)] = bytes.Clone(op.Value)
		case database.BatchDelete:
			delete(m.data, string(op.Key))
		}
	}
	return nil
}

// Iterator returns a snapshot of the range taken at call time.
func (m *DB) Iterator(ctx context.Context, start, end []byte) (database.Iterator, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, database.ErrDBClosed
	}
	it := &Iterator{pos: -1}
	for k, v := range m.data {
		key := []byte(k)
		if start != nil && bytes.Compare(key, start) < 0 {
			continue
		}
		if end != nil && bytes.Compare(key, end) >= 0 {
			continue
		}
		it.keys = append(it.keys, key)
		it.values = append(it.values, bytes.Clone(v))
	}
	sort.Sort(it)
	return it, nil
}

func (m *DB) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closed = true
	m.data = nil
	return nil
}

type Iterator struct {
	keys   [][]byte
	values [][]byte
	pos    int
}

func (it *Iterator) Len() int           { return len(it.keys) }
func (it *Iterator) Less(i, j int) bool { return bytes.Compare(it.keys[i], it.keys[j]) < 0 }
func (it *Iterator) Swap(i, j int) {
	it.keys[i], it.keys[j] = it.keys[j], it.keys[i]
	it.values[i], it.values[j] = it.values[j], it.values[i]
}

func (it *Iterator) Next() bool {
	if it.pos+1 >= len(it.keys) {
		it.pos = len(it.keys)
		return false
	}
	it.pos++
	return true
}

func (it *Iterator) Key() []byte {
	if it.pos < 0 || it.pos >= len(it.keys) {
		return nil
	}
	return it.keys[it.pos]
}

func (it *Iterator) Value() []byte {
	if it.pos < 0 || it.pos >= len(it.values) {
		return nil
	}
	return it.values[it.pos]
}

func (it *Iterator) Error() error {
	return nil
}

func (it *Iterator) Close() error {
	return nil
}
