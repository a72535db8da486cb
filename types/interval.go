package types

import (
	"cmp"
	"fmt"
)

// Interval is a one-dimensional range over an ordered key type. Each border
// can be included or excluded independently.
type Interval[K cmp.Ordered] struct {
	Lo, Hi     K
	LoIn, HiIn bool
}

// Closed returns the interval [lo, hi].
func Closed[K cmp.Ordered](lo, hi K) Interval[K] {
	return Interval[K]{Lo: lo, Hi: hi, LoIn: true, HiIn: true}
}

// Point returns the interval [key, key].
func Point[K cmp.Ordered](key K) Interval[K] {
	return Closed(key, key)
}

// IsEmpty reports whether no key can lie inside the interval.
func (iv Interval[K]) IsEmpty() bool {
	c := cmp.Compare(iv.Lo, iv.Hi)
	return c > 0 || (c == 0 && (!iv.LoIn || !iv.HiIn))
}

// Locate returns -1 if key lies left of the interval, 1 if it lies right of
// it and 0 if the interval contains it.
func (iv Interval[K]) Locate(key K) int {
	if c := cmp.Compare(key, iv.Lo); c < 0 || (c == 0 && !iv.LoIn) {
		return -1
	}
	if c := cmp.Compare(key, iv.Hi); c > 0 || (c == 0 && !iv.HiIn) {
		return 1
	}
	return 0
}

func (iv Interval[K]) Contains(key K) bool {
	return iv.Locate(key) == 0
}

// ContainsInterval reports whether other lies completely inside iv.
func (iv Interval[K]) ContainsInterval(other Interval[K]) bool {
	return iv.lowerNotAbove(other) && iv.upperNotBelow(other)
}

// Intersection returns the overlap of both intervals, which may be empty.
func (iv Interval[K]) Intersection(other Interval[K]) Interval[K] {
	res := iv
	if iv.lowerNotAbove(other) {
		res.Lo, res.LoIn = other.Lo, other.LoIn
	}
	if iv.upperNotBelow(other) {
		res.Hi, res.HiIn = other.Hi, other.HiIn
	}
	return res
}

func (iv Interval[K]) Intersects(other Interval[K]) bool {
	return !iv.Intersection(other).IsEmpty()
}

// Union returns the smallest interval covering both intervals.
func (iv Interval[K]) Union(other Interval[K]) Interval[K] {
	res := other
	if iv.lowerNotAbove(other) {
		res.Lo, res.LoIn = iv.Lo, iv.LoIn
	}
	if iv.upperNotBelow(other) {
		res.Hi, res.HiIn = iv.Hi, iv.HiIn
	}
	return res
}

// Split cuts the interval at key. includedLeft decides which half gets key.
func (iv Interval[K]) Split(key K, includedLeft bool) (Interval[K], Interval[K]) {
	left := Interval[K]{Lo: iv.Lo, LoIn: iv.LoIn, Hi: key, HiIn: includedLeft}
	right := Interval[K]{Lo: key, LoIn: !includedLeft, Hi: iv.Hi, HiIn: iv.HiIn}
	return left, right
}

func (iv Interval[K]) String() string {
	lb, rb := "]", "["
	if iv.LoIn {
		lb = "["
	}
	if iv.HiIn {
		rb = "]"
	}
	return fmt.Sprintf("%s%v, %v%s", lb, iv.Lo, iv.Hi, rb)
}

// lowerNotAbove reports whether iv's lower border is at or below other's.
func (iv Interval[K]) lowerNotAbove(other Interval[K]) bool {
	c := cmp.Compare(iv.Lo, other.Lo)
	return c < 0 || (c == 0 && (!other.LoIn || iv.LoIn))
}

// upperNotBelow reports whether iv's upper border is at or above other's.
func (iv Interval[K]) upperNotBelow(other Interval[K]) bool {
	c := cmp.Compare(iv.Hi, other.Hi)
	return c > 0 || (c == 0 && (!other.HiIn || iv.HiIn))
}
