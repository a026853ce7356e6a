package oracle

// Storage is the key-value state the oracle operates on. Implementations
// are supplied by the host; values round-trip through Set and Get with the
// same Go type.
type Storage interface {
	// Has reports whether key holds a value.
	Has(key DataKey) (bool, error)

	// Get decodes the value stored at key into out, which must be a
	// pointer. It reports false without touching out if key is absent.
	Get(key DataKey, out any) (bool, error)

	// Set stores value at key, replacing any previous value.
	Set(key DataKey, value any) error
}

func get[T any](s Storage, key DataKey) (T, bool, error) {
	var v T
	ok, err := s.Get(key, &v)
	if err != nil {
		var zero T
		return zero, false, err
	}
	return v, ok, nil
}
