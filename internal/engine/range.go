package engine

import "math"

// Range is a closed numeric interval [Lo, Hi] over the scaled rate domain.
type Range struct {
	Lo, Hi float64
}

func (r Range) length() float64 {
	return r.Hi - r.Lo
}

// intersect returns the overlap of a and b, or ok=false if they don't
// overlap at all.
func intersect(a, b Range) (Range, bool) {
	lo := math.Max(a.Lo, b.Lo)
	hi := math.Min(a.Hi, b.Hi)
	if lo > hi {
		return Range{}, false
	}
	return Range{lo, hi}, true
}

func intersectLength(a, b Range) float64 {
	r, ok := intersect(a, b)
	if !ok {
		return 0
	}
	return r.length()
}
