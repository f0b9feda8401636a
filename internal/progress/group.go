package progress

import "sort"

// Group is one partition produced by GroupBy.
type Group[K comparable, T any] struct {
	Key   K
	Items []T
}

// Entry pairs a group key with its folded value.
type Entry[K comparable, V any] struct {
	Key   K
	Value V
}

// GroupBy partitions items by key. Groups come back in the order their key
// was first encountered, and items keep their input order inside a group.
func GroupBy[T any, K comparable](items []T, key func(T) K) []Group[K, T] {
	positions := make(map[K]int)
	groups := make([]Group[K, T], 0)
	for _, item := range items {
		k := key(item)
		idx, ok := positions[k]
		if !ok {
			idx = len(groups)
			positions[k] = idx
			groups = append(groups, Group[K, T]{Key: k})
		}
		groups[idx].Items = append(groups[idx].Items, item)
	}
	return groups
}

// MapValues folds every group into a single value, preserving group order.
func MapValues[K comparable, T, V any](groups []Group[K, T], fold func(key K, items []T) V) []Entry[K, V] {
	entries := make([]Entry[K, V], 0, len(groups))
	for _, group := range groups {
		entries = append(entries, Entry[K, V]{Key: group.Key, Value: fold(group.Key, group.Items)})
	}
	return entries
}

// Index turns folded entries into a lookup map.
func Index[K comparable, V any](entries []Entry[K, V]) map[K]V {
	result := make(map[K]V, len(entries))
	for _, entry := range entries {
		result[entry.Key] = entry.Value
	}
	return result
}

// FlatMap concatenates the slices produced by fn for every item.
func FlatMap[T, U any](items []T, fn func(T) []U) []U {
	result := make([]U, 0)
	for _, item := range items {
		result = append(result, fn(item)...)
	}
	return result
}

// SortByPercentage orders items by descending percentage. Ties keep their
// encountered order.
func SortByPercentage[T any](items []T, percentage func(T) float64) {
	sort.SliceStable(items, func(i, j int) bool {
		return percentage(items[i]) > percentage(items[j])
	})
}
