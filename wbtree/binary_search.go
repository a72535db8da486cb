package wbtree

import "cmp"

// lowerBound returns the first position whose key is >= target.
func lowerBound[K cmp.Ordered, V any](values []V, target K, keyOf func(V) K) int {
	lo, hi := 0, len(values)
	for lo < hi {
		mid := lo + (hi-lo)/2
		if keyOf(values[mid]) < target {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return lo
}

// upperBound returns the first position whose key is > target.
func upperBound[K cmp.Ordered, V any](values []V, target K, keyOf func(V) K) int {
	lo, hi := 0, len(values)
	for lo < hi {
		mid := lo + (hi-lo)/2
		if keyOf(values[mid]) <= target {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return lo
}
