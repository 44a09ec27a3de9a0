package types

import "math"

// PriceKey wraps a float64 price with a total comparator so it can key a
// btree.BTreeG. IEEE-754 floats have no total order under the natural <,
// but admission validation (see matching/validate.go, run by Submit) rejects
// NaN and non-positive prices before a PriceKey is ever built, so the NaN
// fallback below is unreachable by construction — it exists only so the
// comparator is total even if that invariant is ever violated upstream.
type PriceKey float64

// LessDescending orders PriceKeys from highest to lowest (bid book order).
func LessDescending(a, b PriceKey) bool {
	if math.IsNaN(float64(a)) || math.IsNaN(float64(b)) {
		return false
	}
	return a > b
}

// LessAscending orders PriceKeys from lowest to highest (ask book order).
func LessAscending(a, b PriceKey) bool {
	if math.IsNaN(float64(a)) || math.IsNaN(float64(b)) {
		return false
	}
	return a < b
}

// Equal reports whether two price keys represent the same price level.
// NaN compares equal to NaN here so the comparator stays total.
func (p PriceKey) Equal(other PriceKey) bool {
	if math.IsNaN(float64(p)) && math.IsNaN(float64(other)) {
		return true
	}
	return float64(p) == float64(other)
}
