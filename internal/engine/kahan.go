package engine

import "math"

// kahanAcc is a Neumaier-compensated running sum. Summing a long run of
// small decay contributions in float64 drifts measurably after a few dozen
// slots; carrying the compensation term keeps the PDF mass close enough to
// 1.0 that repeated renormalization doesn't compound the error.
type kahanAcc struct {
	sum, c float64
}

func (k kahanAcc) add(v float64) kahanAcc {
	t := k.sum + v
	if math.Abs(k.sum) >= math.Abs(v) {
		k.c += (k.sum - t) + v
	} else {
		k.c += (v - t) + k.sum
	}
	k.sum = t
	return k
}

func (k kahanAcc) value() float64 {
	return k.sum + k.c
}

func kahanSum(values []float64) float64 {
	var acc kahanAcc
	for _, v := range values {
		acc = acc.add(v)
	}
	return acc.value()
}

// kahanPrefix returns prefix sums over values, prefix[i] covering values[:i],
// each carrying its own compensation term.
func kahanPrefix(values []float64) []kahanAcc {
	prefix := make([]kahanAcc, len(values)+1)
	for i, v := range values {
		prefix[i+1] = prefix[i].add(v)
	}
	return prefix
}

// kahanRangeSum returns the compensated sum of values[lo:hi] given a prefix
// computed by kahanPrefix, without re-summing the whole slice.
func kahanRangeSum(prefix []kahanAcc, lo, hi int) float64 {
	return (prefix[hi].sum - prefix[lo].sum) + (prefix[hi].c - prefix[lo].c)
}
