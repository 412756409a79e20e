// Package ranking orders counted entries.
package ranking

import (
	"slices"

	"medinsight/internal/failures"
)

// Entry is a key with its count.
type Entry[K comparable] struct {
	Key   K   `json:"key"`
	Count int `json:"count"`
}

// Counter counts keys and remembers the order in which they were first seen.
type Counter[K comparable] struct {
	index   map[K]int
	entries []Entry[K]
}

func NewCounter[K comparable]() *Counter[K] {
	return &Counter[K]{index: make(map[K]int)}
}

// Add increments key by n.
func (c *Counter[K]) Add(key K, n int) {
	if i, ok := c.index[key]; ok {
		c.entries[i].Count += n
		return
	}
	c.index[key] = len(c.entries)
	c.entries = append(c.entries, Entry[K]{Key: key, Count: n})
}

// Inc increments key by one.
func (c *Counter[K]) Inc(key K) { c.Add(key, 1) }

// Get returns the count for key, zero when unseen.
func (c *Counter[K]) Get(key K) int {
	if i, ok := c.index[key]; ok {
		return c.entries[i].Count
	}
	return 0
}

// Len is the number of distinct keys.
func (c *Counter[K]) Len() int { return len(c.entries) }

// Total is the sum of all counts.
func (c *Counter[K]) Total() int {
	total := 0
	for _, e := range c.entries {
		total += e.Count
	}
	return total
}

// Entries returns a copy of the entries in first-seen order.
func (c *Counter[K]) Entries() []Entry[K] {
	return slices.Clone(c.entries)
}

// TopK returns the k entries with the highest counts, highest first. Entries
// with equal counts keep their input order. A k larger than the input returns
// every entry.
func TopK[K comparable](entries []Entry[K], k int) ([]Entry[K], error) {
	if k <= 0 {
		return nil, failures.InvalidRange("k must be positive, got %d", k)
	}

	sorted := slices.Clone(entries)
	slices.SortStableFunc(sorted, func(a, b Entry[K]) int {
		return b.Count - a.Count
	})

	if k < len(sorted) {
		sorted = sorted[:k]
	}
	return sorted, nil
}

// Extremal returns the first entry holding the maximum count and the first
// entry holding the minimum count.
func Extremal[K comparable](entries []Entry[K]) (maxEntry, minEntry Entry[K], err error) {
	if len(entries) == 0 {
		return maxEntry, minEntry, failures.Degenerate("extremal of an empty sequence")
	}

	maxEntry, minEntry = entries[0], entries[0]
	for _, e := range entries[1:] {
		if e.Count > maxEntry.Count {
			maxEntry = e
		}
		if e.Count < minEntry.Count {
			minEntry = e
		}
	}
	return maxEntry, minEntry, nil
}
