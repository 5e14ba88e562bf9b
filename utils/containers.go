package utils

import "sort"

// Unique sorts ids and removes duplicates in place, returning the shortened
// slice
func Unique(ids []int) []int {
	if len(ids) == 0 {
		return ids
	}
	sort.Ints(ids)
	j := 0
	for i := 1; i < len(ids); i++ {
		if ids[i] != ids[j] {
			j++
			ids[j] = ids[i]
		}
	}
	return ids[:j+1]
}

// SortedKeys returns the keys of m in increasing order, for deterministic
// iteration
func SortedKeys[V any](m map[int]V) (keys []int) {
	keys = make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return
}
