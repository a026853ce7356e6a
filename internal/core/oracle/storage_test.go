package oracle

import (
	"fmt"
	"reflect"
)

// memStorage is a map-backed Storage used by the package tests.
type memStorage struct {
	values map[DataKey]any
	sets   int
}

func newMemStorage() *memStorage {
	return &memStorage{values: make(map[DataKey]any)}
}

func (m *memStorage) Has(key DataKey) (bool, error) {
	_, ok := m.values[key]
	return ok, nil
}

func (m *memStorage) Get(key DataKey, out any) (bool, error) {
	v, ok := m.values[key]
	if !ok {
		return false, nil
	}
	dst := reflect.ValueOf(out)
	if dst.Kind() != reflect.Pointer || dst.IsNil() {
		return false, fmt.Errorf("out must be a non-nil pointer, got %T", out)
	}
	src := reflect.ValueOf(v)
	if !src.Type().AssignableTo(dst.Elem().Type()) {
		return false, fmt.Errorf("stored %T is not assignable to %T", v, out)
	}
	dst.Elem().Set(src)
	return true, nil
}

func (m *memStorage) Set(key DataKey, value any) error {
	m.values[key] = value
	m.sets++
	return nil
}
