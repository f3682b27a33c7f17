// Package personal persists per-identity favorites and usage history.
//
// Every accessor returns a usable value even when it fails: a corrupt or
// unreadable blob yields the empty state together with an error wrapping
// ErrStorage, so callers can degrade instead of failing the whole view.
package personal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/MrSnakeDoc/portal/internal/domain"
	"github.com/MrSnakeDoc/portal/internal/store"
)

const (
	// DefaultHistoryCap is the number of history records kept per identity.
	DefaultHistoryCap = 50
	// DefaultMaxBlobBytes bounds one serialized favorites or history blob.
	DefaultMaxBlobBytes = 64 * 1024
)

var (
	// ErrNoIdentity is returned when an operation runs without a logged-in identity.
	ErrNoIdentity = errors.New("no identity")

	// ErrStorage wraps every persistence failure (parse, quota, backend).
	ErrStorage = errors.New("personalization storage unavailable")
)

// Options tunes a Store.
type Options struct {
	HistoryCap   int              // 0 -> DefaultHistoryCap
	MaxBlobBytes int              // 0 -> DefaultMaxBlobBytes, < 0 -> unlimited
	Now          func() time.Time // nil -> time.Now
}

// Store reads and writes personalization blobs.
type Store struct {
	kv           store.Store
	historyCap   int
	maxBlobBytes int
	now          func() time.Time
}

// NewStore creates a personalization store on top of kv.
func NewStore(kv store.Store, opts Options) *Store {
	s := &Store{
		kv:           kv,
		historyCap:   opts.HistoryCap,
		maxBlobBytes: opts.MaxBlobBytes,
		now:          opts.Now,
	}
	if s.historyCap <= 0 {
		s.historyCap = DefaultHistoryCap
	}
	if s.maxBlobBytes == 0 {
		s.maxBlobBytes = DefaultMaxBlobBytes
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// HistoryCap returns the configured history length.
func (s *Store) HistoryCap() int { return s.historyCap }

// ─────────────────────────────────────────────────────────────────
// Favorites
// ─────────────────────────────────────────────────────────────────

// LoadFavorites returns the identity's favorites. Absent -> empty, no error.
// Unparsable -> empty plus ErrStorage.
func (s *Store) LoadFavorites(ctx context.Context, identity string) (domain.Favorites, error) {
	favs := domain.Favorites{}
	if identity == "" {
		return favs, ErrNoIdentity
	}
	if err := s.load(ctx, store.FavoritesKey(identity), &favs); err != nil {
		return domain.Favorites{}, err
	}
	if favs == nil {
		favs = domain.Favorites{}
	}
	return favs, nil
}

// SaveFavorites writes favs back.
func (s *Store) SaveFavorites(ctx context.Context, identity string, favs domain.Favorites) error {
	if identity == "" {
		return ErrNoIdentity
	}
	if favs == nil {
		favs = domain.Favorites{}
	}
	return s.save(ctx, store.FavoritesKey(identity), favs)
}

// ToggleFavorite pins link when absent and unpins it when present. It returns
// whether the link ended up pinned and the resulting mapping. On failure the
// mapping is the stored one and nothing is written; an unreadable backend
// never lets the toggle overwrite what it could not read.
func (s *Store) ToggleFavorite(ctx context.Context, identity string, link domain.LinkEntry, teamName string) (bool, domain.Favorites, error) {
	if identity == "" {
		return false, domain.Favorites{}, ErrNoIdentity
	}

	var added bool
	prev := domain.Favorites{}
	next, err := update(ctx, s, store.FavoritesKey(identity), func(favs domain.Favorites) (domain.Favorites, error) {
		prev = favs
		out := make(domain.Favorites, len(favs)+1)
		for k, v := range favs {
			out[k] = v
		}

		added = !out.Has(link.URL)
		if added {
			out[link.URL] = domain.FavoriteRecord{
				LinkEntry: link,
				TeamName:  teamName,
				AddedAt:   s.now(),
			}
		} else {
			delete(out, link.URL)
		}
		return out, nil
	})
	if err != nil {
		if prev == nil {
			prev = domain.Favorites{}
		}
		return prev.Has(link.URL), prev, err
	}
	return added, next, nil
}

// RemoveFavorite unpins url. Unknown URLs are a no-op.
func (s *Store) RemoveFavorite(ctx context.Context, identity, url string) (domain.Favorites, error) {
	if identity == "" {
		return domain.Favorites{}, ErrNoIdentity
	}

	prev := domain.Favorites{}
	next, err := update(ctx, s, store.FavoritesKey(identity), func(favs domain.Favorites) (domain.Favorites, error) {
		prev = favs
		if !favs.Has(url) {
			return favs, errUnchanged
		}
		out := make(domain.Favorites, len(favs))
		for k, v := range favs {
			if k != url {
				out[k] = v
			}
		}
		return out, nil
	})
	if err != nil {
		if prev == nil {
			prev = domain.Favorites{}
		}
		return prev, err
	}
	if next == nil {
		next = domain.Favorites{}
	}
	return next, nil
}

// ClearFavorites deletes every favorite of identity.
func (s *Store) ClearFavorites(ctx context.Context, identity string) error {
	if identity == "" {
		return ErrNoIdentity
	}
	if err := s.kv.Delete(ctx, store.FavoritesKey(identity)); err != nil {
		return fmt.Errorf("%w: %w", ErrStorage, err)
	}
	return nil
}

// ─────────────────────────────────────────────────────────────────
// History
// ─────────────────────────────────────────────────────────────────

// LoadHistory returns the identity's history, most recent first.
func (s *Store) LoadHistory(ctx context.Context, identity string) (domain.History, error) {
	var h domain.History
	if identity == "" {
		return domain.History{}, ErrNoIdentity
	}
	if err := s.load(ctx, store.HistoryKey(identity), &h); err != nil {
		return domain.History{}, err
	}
	if h == nil {
		h = domain.History{}
	}
	return h, nil
}

// RecordHistory prepends an opening of link and trims to the cap. On failure
// the stored history is left as it was.
func (s *Store) RecordHistory(ctx context.Context, identity string, link domain.LinkEntry, teamName string) (domain.History, error) {
	if identity == "" {
		return domain.History{}, ErrNoIdentity
	}

	prev := domain.History{}
	next, err := update(ctx, s, store.HistoryKey(identity), func(h domain.History) (domain.History, error) {
		prev = h
		return h.Prepend(domain.HistoryRecord{
			Name:      link.Name,
			URL:       link.URL,
			TeamName:  teamName,
			Timestamp: s.now(),
		}, s.historyCap), nil
	})
	if err != nil {
		if prev == nil {
			prev = domain.History{}
		}
		return prev, err
	}
	return next, nil
}

// ClearHistory deletes the identity's history.
func (s *Store) ClearHistory(ctx context.Context, identity string) error {
	if identity == "" {
		return ErrNoIdentity
	}
	if err := s.kv.Delete(ctx, store.HistoryKey(identity)); err != nil {
		return fmt.Errorf("%w: %w", ErrStorage, err)
	}
	return nil
}

// ─────────────────────────────────────────────────────────────────
// Aggregates
// ─────────────────────────────────────────────────────────────────

// Stats counts favorites and history records. Storage errors count as empty
// and are returned alongside.
func (s *Store) Stats(ctx context.Context, identity string) (domain.Stats, error) {
	favs, ferr := s.LoadFavorites(ctx, identity)
	hist, herr := s.LoadHistory(ctx, identity)
	return domain.Stats{
		User:      identity,
		Favorites: len(favs),
		History:   len(hist),
	}, errors.Join(ferr, herr)
}

// Export dumps all personalization of identity.
func (s *Store) Export(ctx context.Context, identity string) (domain.Export, error) {
	favs, ferr := s.LoadFavorites(ctx, identity)
	hist, herr := s.LoadHistory(ctx, identity)
	return domain.Export{
		User:       identity,
		Favorites:  favs.Sorted(),
		History:    hist,
		ExportDate: s.now(),
	}, errors.Join(ferr, herr)
}

// ClearAll removes favorites and history of identity.
func (s *Store) ClearAll(ctx context.Context, identity string) error {
	if identity == "" {
		return ErrNoIdentity
	}
	if err := s.kv.Delete(ctx, store.FavoritesKey(identity), store.HistoryKey(identity)); err != nil {
		return fmt.Errorf("%w: %w", ErrStorage, err)
	}
	return nil
}

// ─────────────────────────────────────────────────────────────────
// helpers
// ─────────────────────────────────────────────────────────────────

var (
	// errCorrupt marks a stored blob that does not parse.
	errCorrupt = errors.New("corrupt blob")

	// errUnchanged lets an update skip the write.
	errUnchanged = errors.New("unchanged")
)

func (s *Store) load(ctx context.Context, key string, dst any) error {
	data, err := s.kv.Get(ctx, key)
	if errors.Is(err, store.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("%w: %w", ErrStorage, err)
	}
	if err := decode(key, data, dst); err != nil {
		return fmt.Errorf("%w: %w", ErrStorage, err)
	}
	return nil
}

func decode(key string, data []byte, dst any) error {
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("%w: failed to parse %s: %w", errCorrupt, key, err)
	}
	return nil
}

func (s *Store) encode(key string, v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to marshal %s: %w", ErrStorage, key, err)
	}
	if s.maxBlobBytes > 0 && len(data) > s.maxBlobBytes {
		return nil, fmt.Errorf("%w: %w: %s is %d bytes (max %d)", ErrStorage, store.ErrQuotaExceeded, key, len(data), s.maxBlobBytes)
	}
	return data, nil
}

func (s *Store) save(ctx context.Context, key string, v any) error {
	data, err := s.encode(key, v)
	if err != nil {
		return err
	}
	if err := s.kv.Set(ctx, key, data, 0); err != nil {
		return fmt.Errorf("%w: %w", ErrStorage, err)
	}
	return nil
}

// update is an atomic read-modify-write of one blob. Only a blob that fails
// to parse is replaced, starting apply from the zero value; a backend read
// error aborts before apply runs.
func update[T any](ctx context.Context, s *Store, key string, apply func(T) (T, error)) (T, error) {
	var result T
	err := s.kv.Update(ctx, key, func(current []byte) ([]byte, error) {
		var v T
		if current != nil {
			if err := decode(key, current, &v); err != nil {
				var zero T
				v = zero
			}
		}

		next, err := apply(v)
		if errors.Is(err, errUnchanged) {
			result = next
			return nil, err
		}
		if err != nil {
			return nil, err
		}
		data, err := s.encode(key, next)
		if err != nil {
			return nil, err
		}
		result = next
		return data, nil
	})
	if errors.Is(err, errUnchanged) {
		return result, nil
	}
	if err != nil {
		var zero T
		if errors.Is(err, ErrStorage) {
			return zero, err
		}
		return zero, fmt.Errorf("%w: %w", ErrStorage, err)
	}
	return result, nil
}
