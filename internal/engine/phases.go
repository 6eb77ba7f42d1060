package engine

import "math"

// MinMax is the predicted (or observed, collapsed) price envelope for a
// single slot: Min == Max once a slot is pinned to an observed price.
type MinMax struct {
	Min, Max int
}

func minRateFromPrice(price, buy float64) float64 {
	return RateMultiplier * (price - 0.99999) / buy
}

func maxRateFromPrice(price, buy float64) float64 {
	return RateMultiplier * (price + 0.00001) / buy
}

func envelopeFromRate(lo, hi, buy float64) (int, int) {
	return intCeil(lo * buy / RateMultiplier), intCeil(hi * buy / RateMultiplier)
}

// fudgeAccept checks an observed price against a predicted envelope widened
// by the current fudge factor, clamping the observation back into the
// unwidened envelope when it falls in the tolerance band.
func fudgeAccept(minPred, maxPred int, observed float64, fudge int) (accepted bool, clamped float64) {
	if observed < float64(minPred-fudge) || observed > float64(maxPred+fudge) {
		return false, 0
	}
	clamped = observed
	if clamped < float64(minPred) {
		clamped = float64(minPred)
	}
	if clamped > float64(maxPred) {
		clamped = float64(maxPred)
	}
	return true, clamped
}

// individualRandomPhase models `length` slots drawn i.i.d. from
// U(rateMin, rateMax), starting at slot `start`. It returns the probability
// of the observed prices within that slot range under this phase, or 0 if
// any observation falls outside the fudge-widened envelope.
func individualRandomPhase(obs []float64, prices []MinMax, start, length int, buy, rateMin, rateMax float64, fudge int) float64 {
	prob := 1.0
	width := rateMax - rateMin
	for i := 0; i < length; i++ {
		slot := start + i
		minPred, maxPred := envelopeFromRate(rateMin, rateMax, buy)
		p := obs[slot]
		if math.IsNaN(p) {
			prices[slot] = MinMax{minPred, maxPred}
			continue
		}
		ok, clamped := fudgeAccept(minPred, maxPred, p, fudge)
		if !ok {
			return 0
		}
		realMin := minRateFromPrice(clamped, buy)
		realMax := maxRateFromPrice(clamped, buy)
		prob *= intersectLength(Range{rateMin, rateMax}, Range{realMin, realMax}) / width
		prices[slot] = MinMax{int(p), int(p)}
		if prob == 0 {
			return 0
		}
	}
	return prob
}

// decreasingRandomPhase models `length` slots whose rate decays uniformly
// each slot by a fresh U(decayMin, decayMax) draw, conditioning pdf on each
// observation in turn. dist is mutated in place so callers can chain phases
// that share the same underlying decay process.
func decreasingRandomPhase(obs []float64, prices []MinMax, start, length int, buy float64, dist *rateDist, decayMin, decayMax float64, fudge int) float64 {
	prob := 1.0
	for i := 0; i < length; i++ {
		slot := start + i
		minPred, maxPred := envelopeFromRate(dist.minValue(), dist.maxValue(), buy)
		p := obs[slot]
		if math.IsNaN(p) {
			prices[slot] = MinMax{minPred, maxPred}
		} else {
			ok, clamped := fudgeAccept(minPred, maxPred, p, fudge)
			if !ok {
				return 0
			}
			realMin := minRateFromPrice(clamped, buy)
			realMax := maxRateFromPrice(clamped, buy)
			prob *= dist.rangeLimit(Range{realMin, realMax})
			prices[slot] = MinMax{int(p), int(p)}
			if prob == 0 {
				return 0
			}
		}
		dist.decay(decayMin*RateMultiplier, decayMax*RateMultiplier)
	}
	return prob
}

// peakF is the antiderivative used by peakCDF: the CDF of a "nested
// uniform" random variable built by drawing a rate uniformly, then drawing
// a second rate uniformly below it.
func peakF(t, z float64) float64 {
	if t <= 0 {
		return 0
	}
	if z < t {
		return z
	}
	return t - t*(math.Log(t)-math.Log(z))
}

func peakCDF(t, cOffset, z1, z2 float64) float64 {
	return (peakF(t-cOffset, z2) - peakF(t-cOffset, z1)) / (z2 - z1)
}

// peakPhase models the three-slot "spike peak" shape: a middle slot drawn
// uniformly from rateMin..rateMax, flanked by two slots each drawn uniformly
// between rateMin and the middle's realized rate. The flanking slots'
// marginal distribution is handled analytically via peakCDF rather than by
// enumeration, since the middle rate may itself be unobserved.
func peakPhase(obs []float64, prices []MinMax, start int, buy, rateMin, rateMax float64, fudge int) float64 {
	rateRange := Range{rateMin, rateMax}
	prob := 1.0

	midSlot := start + 1
	midMinPred, midMaxPred := envelopeFromRate(rateRange.Lo, rateRange.Hi, buy)
	midObserved := !math.IsNaN(obs[midSlot])
	if midObserved {
		ok, clamped := fudgeAccept(midMinPred, midMaxPred, obs[midSlot], fudge)
		if !ok {
			return 0
		}
		realMin := minRateFromPrice(clamped, buy)
		realMax := maxRateFromPrice(clamped, buy)
		width := rateRange.length()
		prob *= intersectLength(rateRange, Range{realMin, realMax}) / width
		if prob == 0 {
			return 0
		}
		narrowed, ok2 := intersect(rateRange, Range{realMin, realMax})
		if !ok2 {
			return 0
		}
		rateRange = narrowed
	}

	sideFactor := func(slot int) (factor float64, observed, accepted bool) {
		p := obs[slot]
		if math.IsNaN(p) {
			return 1, false, true
		}
		lo, hi := envelopeFromRate(rateMin, rateMax, buy)
		ok, cl := fudgeAccept(lo-1, hi-1, p, fudge)
		if !ok {
			return 0, true, false
		}
		adjusted := cl + 1
		r0 := minRateFromPrice(adjusted, buy)
		r1 := maxRateFromPrice(adjusted, buy)
		z1 := rateRange.Lo - rateMin
		z2 := rateRange.Hi - rateMin
		f := peakCDF(r1, rateMin, z1, z2) - peakCDF(r0, rateMin, z1, z2)
		return f, true, true
	}

	leftFactor, leftObserved, leftOK := sideFactor(start)
	if !leftOK {
		return 0
	}
	prob *= leftFactor
	if prob == 0 {
		return 0
	}

	rightFactor, rightObserved, rightOK := sideFactor(start + 2)
	if !rightOK {
		return 0
	}
	prob *= rightFactor
	if prob == 0 {
		return 0
	}

	minPrice, maxPrice := intCeil(rateMin*buy/RateMultiplier)-1, intCeil(rateMax*buy/RateMultiplier)-1
	if leftObserved {
		prices[start] = MinMax{int(obs[start]), int(obs[start])}
	} else {
		prices[start] = MinMax{minPrice, maxPrice}
	}

	midMax := intCeil(rateMax * buy / RateMultiplier)
	if midObserved {
		prices[midSlot] = MinMax{int(obs[midSlot]), int(obs[midSlot])}
	} else {
		prices[midSlot] = MinMax{prices[start].Min, midMax}
	}

	rightMax := prices[midSlot].Max - 1
	if rightObserved {
		prices[start+2] = MinMax{int(obs[start+2]), int(obs[start+2])}
	} else {
		prices[start+2] = MinMax{minPrice, rightMax}
	}

	return prob
}
