package domain

import "strings"

// Searchable is anything the portal can filter by text.
type Searchable interface {
	SearchFields() []string
}

// Matches reports whether query is contained, case-insensitively, in any of
// the fields. A blank query matches everything.
func Matches(query string, fields ...string) bool {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return true
	}
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), q) {
			return true
		}
	}
	return false
}

// Filter keeps the items matching query, preserving their order.
// Team list, link list and global search all go through here.
func Filter[T Searchable](items []T, query string) []T {
	if strings.TrimSpace(query) == "" {
		out := make([]T, len(items))
		copy(out, items)
		return out
	}

	out := make([]T, 0, len(items))
	for _, item := range items {
		if Matches(query, item.SearchFields()...) {
			out = append(out, item)
		}
	}
	return out
}
