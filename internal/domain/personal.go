package domain

import (
	"sort"
	"time"
)

// FavoriteRecord is a link pinned by one identity.
type FavoriteRecord struct {
	LinkEntry

	// TeamName is the team the link was pinned from.
	TeamName string `json:"teamName"`

	// AddedAt is when the link was pinned.
	AddedAt time.Time `json:"addedAt"`
}

// Favorites maps link URL -> record. One entry per URL.
type Favorites map[string]FavoriteRecord

// Has reports whether url is pinned.
func (f Favorites) Has(url string) bool {
	_, ok := f[url]
	return ok
}

// State returns url -> pinned for the given links, the shape the link list
// renderer wants.
func (f Favorites) State(links []LinkEntry) map[string]bool {
	state := make(map[string]bool, len(links))
	for _, l := range links {
		state[l.URL] = f.Has(l.URL)
	}
	return state
}

// Sorted returns the records oldest-pinned first, ties broken by URL.
func (f Favorites) Sorted() []FavoriteRecord {
	out := make([]FavoriteRecord, 0, len(f))
	for _, rec := range f {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].AddedAt.Equal(out[j].AddedAt) {
			return out[i].URL < out[j].URL
		}
		return out[i].AddedAt.Before(out[j].AddedAt)
	})
	return out
}

// HistoryRecord is one link opening.
type HistoryRecord struct {
	Name      string    `json:"name"`
	URL       string    `json:"url"`
	TeamName  string    `json:"teamName"`
	Timestamp time.Time `json:"timestamp"`
}

// History is most-recent-first.
type History []HistoryRecord

// Prepend adds rec at the head and drops the oldest entries beyond limit.
// A limit <= 0 keeps everything.
func (h History) Prepend(rec HistoryRecord, limit int) History {
	out := make(History, 0, len(h)+1)
	out = append(out, rec)
	out = append(out, h...)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// Stats summarizes the personalization of one identity.
type Stats struct {
	User      string `json:"user"`
	Favorites int    `json:"favorites"`
	History   int    `json:"history"`
}

// Export is the downloadable dump of one identity's data.
type Export struct {
	User       string           `json:"user"`
	Favorites  []FavoriteRecord `json:"favorites"`
	History    History          `json:"history"`
	ExportDate time.Time        `json:"exportDate"`
}
