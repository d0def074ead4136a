package models

import "strings"

// FilterItems returns the items whose title, author or category contains query, case-insensitively.
//
// An empty query matches everything.
func FilterItems(items []Item, query string) []Item {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return items
	}

	var matches []Item
	for _, item := range items {
		if strings.Contains(strings.ToLower(item.Title), q) ||
			strings.Contains(strings.ToLower(item.AuthorString()), q) ||
			strings.Contains(strings.ToLower(item.CategoryName), q) {
			matches = append(matches, item)
		}
	}
	return matches
}

// ByKind keeps the items of the given kind.
func ByKind(items []Item, kind Kind) []Item {
	var out []Item
	for _, item := range items {
		if item.Kind == kind {
			out = append(out, item)
		}
	}
	return out
}
