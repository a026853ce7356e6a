package database

import (
	"fmt"
	"sort"
	"sync"
)

// OpenFunc opens a backend rooted at path.
type OpenFunc func(path string) (DB, error)

var (
	backendsMu sync.RWMutex
	backends   = make(map[string]OpenFunc)
)

// Register makes a backend available to Open. Backends register themselves
// from init.
func Register(name string, open OpenFunc) {
	backendsMu.Lock()
	defer backendsMu.Unlock()

	if _, exists := backends[name]; exists {
		panic(fmt.Sprintf("database backend %s already registered", name))
	}
	backends[name] = open
}

// Open opens the named backend at path.
func Open(name, path string) (DB, error) {
	backendsMu.RLock()
	open, ok := backends[name]
	backendsMu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownBackend, name)
	}
	db, err := open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database at %s: %w", name, path, err)
	}
	return db, nil
}

// Backends lists the registered backend names.
func Backends() []string {
	backendsMu.RLock()
	defer backendsMu.RUnlock()

	names := make([]string, 0, len(backends))
	for name := range backends {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
