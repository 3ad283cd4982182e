package internship

import "sort"

// Merge substitutes enriched records into listings by identity. The result
// keeps the length and order of listings; entries without a counterpart in
// enriched are copied unchanged.
func Merge(listings, enriched []Internship) []Internship {
	lookup := make(map[Key]Internship, len(enriched))
	for _, item := range enriched {
		lookup[item.Key()] = item
	}

	merged := make([]Internship, 0, len(listings))
	for _, item := range listings {
		if match, ok := lookup[item.Key()]; ok {
			merged = append(merged, match.Clone())
			continue
		}
		merged = append(merged, item.Clone())
	}

	return merged
}

// Rank sorts items in place by descending score. Missing scores count as 0
// and ties keep their relative order.
func Rank(items []Internship) {
	sort.SliceStable(items, func(a, b int) bool {
		return items[a].Score() > items[b].Score()
	})
}

// Top splits items into the first n and the number of items left over.
func Top(items []Internship, n int) ([]Internship, int) {
	if n < 0 {
		n = 0
	}
	if n >= len(items) {
		return items, 0
	}
	return items[:n], len(items) - n
}

// IndexOf returns the position of the item with the given key or -1.
func IndexOf(items []Internship, key Key) int {
	for idx, item := range items {
		if item.Key() == key {
			return idx
		}
	}
	return -1
}
