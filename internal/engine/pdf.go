package engine

import "math"

// rateDist is a discretized piecewise-uniform probability density over
// integer-width bins of the scaled rate domain [valueStart, valueEnd). It
// backs every decaying-uniform phase: each bin holds the probability mass
// assigned to rates in that unit interval.
type rateDist struct {
	valueStart int
	valueEnd   int
	prob       []float64
}

// newUniformDist builds a rateDist holding a single uniform distribution
// over [lo, hi], discretized onto integer bin boundaries.
func newUniformDist(lo, hi float64) rateDist {
	start := int(math.Floor(lo))
	end := int(math.Ceil(hi))
	if end <= start {
		end = start + 1
	}
	width := hi - lo
	prob := make([]float64, end-start)
	for i := range prob {
		bin := Range{float64(start + i), float64(start + i + 1)}
		if width == 0 {
			if lo >= bin.Lo && lo <= bin.Hi {
				prob[i] = 1
			}
			continue
		}
		prob[i] = intersectLength(bin, Range{lo, hi}) / width
	}
	return rateDist{valueStart: start, valueEnd: end, prob: prob}
}

func (d rateDist) valid() bool {
	return len(d.prob) > 0
}

func (d rateDist) minValue() float64 { return float64(d.valueStart) }
func (d rateDist) maxValue() float64 { return float64(d.valueEnd) }

// rangeLimit conditions the distribution on r: bins outside r are dropped,
// the bin straddling r's edges is weighted by its overlap fraction, and the
// survivors are renormalized. It returns the probability mass that fell
// inside r before renormalization, i.e. the likelihood factor a caller
// should fold into its running product.
func (d *rateDist) rangeLimit(r Range) float64 {
	clampLo := math.Max(r.Lo, d.minValue())
	clampHi := math.Min(r.Hi, d.maxValue())
	if clampLo >= clampHi {
		*d = rateDist{}
		return 0
	}

	startI := int(math.Floor(clampLo))
	endI := int(math.Ceil(clampHi))
	newProb := make([]float64, endI-startI)
	var acc kahanAcc
	for i := startI; i < endI; i++ {
		bin := Range{float64(i), float64(i + 1)}
		w := intersectLength(bin, Range{clampLo, clampHi})
		v := d.prob[i-d.valueStart] * w
		newProb[i-startI] = v
		acc = acc.add(v)
	}
	mass := acc.value()
	if mass != 0 {
		for i := range newProb {
			newProb[i] /= mass
		}
	}
	d.valueStart = startI
	d.valueEnd = endI
	d.prob = newProb
	return mass
}

// decay convolves the distribution with a uniform kernel of width
// [min, max], widening every bin by that span and averaging the mass that
// falls within it. This models one slot's worth of decaying-uniform drift:
// the next slot's rate is this slot's rate minus a fresh U(min, max) draw.
func (d *rateDist) decay(min, max float64) {
	minI := int(math.Round(min))
	maxI := int(math.Round(max))
	span := maxI - minI
	if span == 0 {
		d.valueStart -= maxI
		d.valueEnd -= minI
		return
	}

	oldLen := len(d.prob)
	newLen := oldLen + span
	newProb := make([]float64, newLen)
	prefix := kahanPrefix(d.prob)

	for i := 0; i < newLen; i++ {
		lowerBound := i - span
		upperBound := i
		lo := lowerBound
		if lo < 0 {
			lo = 0
		}
		hi := upperBound
		if hi > oldLen-1 {
			hi = oldLen - 1
		}
		if lo > hi {
			continue
		}
		sum := kahanRangeSum(prefix, lo, hi+1)
		if lowerBound >= 0 {
			sum -= 0.5 * d.prob[lo]
		}
		if upperBound <= oldLen-1 {
			sum -= 0.5 * d.prob[hi]
		}
		newProb[i] = sum / float64(span)
	}

	d.valueStart -= maxI
	d.valueEnd -= minI
	d.prob = newProb
}
