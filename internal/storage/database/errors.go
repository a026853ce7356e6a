package database

import "errors"

var (
	// ErrDBClosed is returned when trying to operate on a closed database
	ErrDBClosed = errors.New("database is closed")

	// ErrKeyNotFound is returned when a key doesn't exist in the database
	ErrKeyNotFound = errors.New("key not found")

	// ErrBucketNotFound is returned when a backend's storage bucket is missing
	ErrBucketNotFound = errors.New("bucket not found")

	// ErrUnknownBackend is returned by Open for an unregistered backend name
	ErrUnknownBackend = errors.New("unknown database backend")
)
