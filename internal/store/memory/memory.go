package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/MrSnakeDoc/portal/internal/store"
)

type entry struct {
	value     []byte
	expiresAt time.Time // zero = never
}

// Store provides in-process key-value storage.
// Used for local runs and tests; data does not survive a restart.
type Store struct {
	mu       sync.RWMutex
	entries  map[string]entry
	maxValue int // bytes, 0 = unlimited
	now      func() time.Time
}

// Option configures a memory store
type Option func(*Store)

// WithMaxValueBytes rejects values larger than n bytes with store.ErrQuotaExceeded
func WithMaxValueBytes(n int) Option {
	return func(s *Store) { s.maxValue = n }
}

// WithClock overrides time.Now, for tests
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// New creates a new memory store
func New(opts ...Option) *Store {
	s := &Store{
		entries: make(map[string]entry),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name implements store.Store
func (s *Store) Name() string { return "memory" }

// Get retrieves a value by key
func (s *Store) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.entries[key]
	if !ok || s.expired(e) {
		return nil, store.ErrNotFound
	}
	out := make([]byte, len(e.value))
	copy(out, e.value)
	return out, nil
}

// Set adds or replaces a value
func (s *Store) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if s.maxValue > 0 && len(value) > s.maxValue {
		return fmt.Errorf("%w: %d bytes for %s (max %d)", store.ErrQuotaExceeded, len(value), key, s.maxValue)
	}

	e := entry{value: make([]byte, len(value))}
	copy(e.value, value)
	if ttl > 0 {
		e.expiresAt = s.now().Add(ttl)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[key] = e
	return nil
}

// Update applies fn to the current value under the write lock
func (s *Store) Update(_ context.Context, key string, fn store.UpdateFunc) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var current []byte
	if e, ok := s.entries[key]; ok && !s.expired(e) {
		current = make([]byte, len(e.value))
		copy(current, e.value)
	}

	next, err := fn(current)
	if err != nil {
		return err
	}
	if s.maxValue > 0 && len(next) > s.maxValue {
		return fmt.Errorf("%w: %d bytes for %s (max %d)", store.ErrQuotaExceeded, len(next), key, s.maxValue)
	}

	e := entry{value: make([]byte, len(next))}
	copy(e.value, next)
	s.entries[key] = e
	return nil
}

// Delete removes keys
func (s *Store) Delete(_ context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, k := range keys {
		delete(s.entries, k)
	}
	return nil
}

// Ping always succeeds
func (s *Store) Ping(context.Context) error { return nil }

// Close is a no-op
func (s *Store) Close() error { return nil }

// Count returns the number of live entries
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, e := range s.entries {
		if !s.expired(e) {
			n++
		}
	}
	return n
}

// Collect removes expired entries and returns how many were dropped
func (s *Store) Collect(context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for k, e := range s.entries {
		if s.expired(e) {
			delete(s.entries, k)
			removed++
		}
	}
	return removed, nil
}

func (s *Store) expired(e entry) bool {
	return !e.expiresAt.IsZero() && !s.now().Before(e.expiresAt)
}
