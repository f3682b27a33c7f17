// Package store defines the durable key-value storage used for sessions and
// personalization, plus the key scheme shared by every backend.
package store

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound is returned by Get when the key does not exist or expired.
	ErrNotFound = errors.New("store: key not found")

	// ErrQuotaExceeded is returned when a backend refuses a value for size or
	// memory reasons.
	ErrQuotaExceeded = errors.New("store: quota exceeded")

	// ErrConflict is returned by Update when concurrent writers kept
	// invalidating the transaction.
	ErrConflict = errors.New("store: too many concurrent updates")
)

// UpdateFunc maps the current value of a key (nil when absent) to the value
// to write. A returned error aborts the update without writing. It may run
// more than once when the backend retries a conflicting transaction.
type UpdateFunc func(current []byte) ([]byte, error)

// Store is a flat key-value store holding small JSON blobs.
type Store interface {
	// Get returns the value for key or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set writes value under key. A ttl <= 0 means no expiry.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Update atomically reads key, applies fn and writes the result with no
	// expiry. A failing read is returned without calling fn.
	Update(ctx context.Context, key string, fn UpdateFunc) error

	// Delete removes keys. Missing keys are not an error.
	Delete(ctx context.Context, keys ...string) error

	// Ping checks the backend is usable.
	Ping(ctx context.Context) error

	// Name identifies the backend in logs and /infra.
	Name() string

	Close() error
}

// Collector is implemented by backends that need periodic housekeeping
// (expired key sweep, value log GC). It returns how much was reclaimed.
type Collector interface {
	Collect(ctx context.Context) (int, error)
}
