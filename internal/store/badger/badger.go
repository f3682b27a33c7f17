// Package badger stores portal data in an embedded Badger database, for
// single-node deployments without Redis.
package badger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/MrSnakeDoc/portal/internal/store"
)

const (
	// gcDiscardRatio is the value log rewrite threshold passed to RunValueLogGC.
	gcDiscardRatio = 0.5

	// maxUpdateAttempts bounds Update retries on transaction conflicts.
	maxUpdateAttempts = 32
)

// Store wraps a Badger database.
type Store struct {
	db       *badger.DB
	inMemory bool
}

// Open opens (or creates) the database in dir. An empty dir runs Badger
// fully in memory.
func Open(dir string) (*Store, error) {
	opts := badger.DefaultOptions(dir).
		WithLoggingLevel(badger.ERROR)
	if dir == "" {
		opts = opts.WithInMemory(true)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger at %q: %w", dir, err)
	}

	return &Store{db: db, inMemory: dir == ""}, nil
}

// Name implements store.Store
func (s *Store) Name() string { return "badger" }

// Get implements store.Store
func (s *Store) Get(_ context.Context, key string) ([]byte, error) {
	var out []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		out, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get %s: %w", key, err)
	}
	return out, nil
}

// Set implements store.Store
func (s *Store) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		e := badger.NewEntry([]byte(key), value)
		if ttl > 0 {
			e = e.WithTTL(ttl)
		}
		return txn.SetEntry(e)
	})
	if errors.Is(err, badger.ErrTxnTooBig) || errors.Is(err, badger.ErrValueLogSize) {
		return fmt.Errorf("%w: %v", store.ErrQuotaExceeded, err)
	}
	if err != nil {
		return fmt.Errorf("failed to set %s: %w", key, err)
	}
	return nil
}

// Update runs fn inside one read-write transaction and retries it when a
// concurrent commit touched the key.
func (s *Store) Update(ctx context.Context, key string, fn store.UpdateFunc) error {
	for attempt := 0; attempt < maxUpdateAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		err := s.db.Update(func(txn *badger.Txn) error {
			var current []byte
			item, err := txn.Get([]byte(key))
			switch {
			case errors.Is(err, badger.ErrKeyNotFound):
			case err != nil:
				return fmt.Errorf("failed to get %s: %w", key, err)
			default:
				if current, err = item.ValueCopy(nil); err != nil {
					return fmt.Errorf("failed to read %s: %w", key, err)
				}
			}

			next, err := fn(current)
			if err != nil {
				return err
			}
			return txn.SetEntry(badger.NewEntry([]byte(key), next))
		})
		switch {
		case errors.Is(err, badger.ErrConflict):
			continue
		case errors.Is(err, badger.ErrTxnTooBig), errors.Is(err, badger.ErrValueLogSize):
			return fmt.Errorf("%w: %v", store.ErrQuotaExceeded, err)
		case err != nil:
			return fmt.Errorf("failed to update %s: %w", key, err)
		}
		return nil
	}
	return fmt.Errorf("failed to update %s: %w", key, store.ErrConflict)
}

// Delete implements store.Store
func (s *Store) Delete(_ context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return s.db.Update(func(txn *badger.Txn) error {
		for _, k := range keys {
			if err := txn.Delete([]byte(k)); err != nil {
				return fmt.Errorf("failed to delete %s: %w", k, err)
			}
		}
		return nil
	})
}

// Ping reports whether the database is still open
func (s *Store) Ping(context.Context) error {
	if s.db.IsClosed() {
		return errors.New("badger: database closed")
	}
	return nil
}

// Close implements store.Store
func (s *Store) Close() error {
	return s.db.Close()
}

// Collect runs value log GC until nothing is left to rewrite and returns the
// number of rewritten log files. Expired keys are dropped by Badger compaction.
func (s *Store) Collect(ctx context.Context) (int, error) {
	if s.inMemory {
		return 0, nil
	}

	rewritten := 0
	for {
		if err := ctx.Err(); err != nil {
			return rewritten, err
		}
		err := s.db.RunValueLogGC(gcDiscardRatio)
		if errors.Is(err, badger.ErrNoRewrite) || errors.Is(err, badger.ErrRejected) {
			return rewritten, nil
		}
		if err != nil {
			return rewritten, fmt.Errorf("value log gc: %w", err)
		}
		rewritten++
	}
}
