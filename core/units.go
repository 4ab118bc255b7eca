package core

import "golang.org/x/exp/constraints"

// CeilDiv returns n/d rounded up. d must be non-zero.
func CeilDiv[T constraints.Unsigned](n, d T) T {
	q := n / d
	if n%d != 0 {
		q++
	}
	return q
}

// Clamp limits v to [lo, hi].
func Clamp[T constraints.Ordered](v, lo, hi T) T {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
