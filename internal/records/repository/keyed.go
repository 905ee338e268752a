package repository

// indexBy returns the index of the first item matching, or -1.
func indexBy[T any](items []T, match func(T) bool) int {
	for i, it := range items {
		if match(it) {
			return i
		}
	}
	return -1
}

// upsertBy replaces the item whose key equals key(item), or appends item.
// The relative order of every other item is preserved.
func upsertBy[T any](items []T, item T, key func(T) string) []T {
	k := key(item)
	if i := indexBy(items, func(x T) bool { return key(x) == k }); i >= 0 {
		items[i] = item
		return items
	}
	return append(items, item)
}
