// Package store holds the persistent, process-local key/value backends that
// settings are written to. Backends are untyped beyond the small closed set
// of scalar kinds described by Value.
package store

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidKey is returned when a key is empty or whitespace only.
	ErrInvalidKey = errors.New("key cannot be empty")

	// ErrStorage is returned when the persistence medium rejects an operation.
	ErrStorage = errors.New("storage failure")
)

// Backend abstracts the per-user settings container. Implementations must
// persist every mutation before returning and serialize concurrent access.
type Backend interface {
	// Get returns the stored value and whether the key was present.
	Get(key string) (val Value, ok bool, err error)
	// Set inserts or replaces the value for key.
	Set(key string, val Value) error
	// Remove deletes key and reports whether an entry existed.
	Remove(key string) (bool, error)
	// Clear deletes every entry.
	Clear() error
	// Keys lists the stored keys in ascending order.
	Keys() ([]string, error)
	Close() error
}

// ValidateKey rejects empty and whitespace-only keys.
func ValidateKey(key string) error {
	if strings.TrimSpace(key) == "" {
		return ErrInvalidKey
	}
	return nil
}

func storageErr(op, key string, err error) error {
	if key == "" {
		return fmt.Errorf("%w: %s: %v", ErrStorage, op, err)
	}
	return fmt.Errorf("%w: %s %q: %v", ErrStorage, op, key, err)
}
