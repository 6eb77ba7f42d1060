package engine

// scenario is one hidden-parameter assignment's resulting price envelope
// together with its unnormalized probability.
type scenario struct {
	patternNumber int
	prices        [WeekSlots]MinMax
	probability   float64
}

func seedBuySlots(buy float64) [WeekSlots]MinMax {
	var prices [WeekSlots]MinMax
	b := int(buy)
	prices[0] = MinMax{b, b}
	prices[1] = MinMax{b, b}
	return prices
}

// pattern0 enumerates the FLUCTUATING pattern: three "high" i.i.d. blocks
// of prices at 0.9x-1.4x the buy rate, separated by two independent
// decaying-uniform dips starting at 0.6x-0.8x with a 0.04-0.10 per-slot decay.
func pattern0(obs [WeekSlots]float64, buy float64, fudge int) []scenario {
	var out []scenario
	for dec1Len := 2; dec1Len <= 3; dec1Len++ {
		dec2Len := 5 - dec1Len
		for high1Len := 0; high1Len <= 6; high1Len++ {
			for high3Len := 0; high3Len <= 6-high1Len; high3Len++ {
				high2Len := 7 - high1Len - high3Len

				prices := seedBuySlots(buy)
				prob := 1.0
				slot := 2

				prob *= individualRandomPhase(obs[:], prices[:], slot, high1Len, buy, 0.9*RateMultiplier, 1.4*RateMultiplier, fudge)
				slot += high1Len

				if prob != 0 {
					dist := newUniformDist(0.6*RateMultiplier, 0.8*RateMultiplier)
					prob *= decreasingRandomPhase(obs[:], prices[:], slot, dec1Len, buy, &dist, 0.04, 0.10, fudge)
				}
				slot += dec1Len

				if prob != 0 {
					prob *= individualRandomPhase(obs[:], prices[:], slot, high2Len, buy, 0.9*RateMultiplier, 1.4*RateMultiplier, fudge)
				}
				slot += high2Len

				if prob != 0 {
					dist := newUniformDist(0.6*RateMultiplier, 0.8*RateMultiplier)
					prob *= decreasingRandomPhase(obs[:], prices[:], slot, dec2Len, buy, &dist, 0.04, 0.10, fudge)
				}
				slot += dec2Len

				if prob != 0 {
					prob *= individualRandomPhase(obs[:], prices[:], slot, high3Len, buy, 0.9*RateMultiplier, 1.4*RateMultiplier, fudge)
				}

				if prob == 0 {
					continue
				}
				prior := 1.0 / (2 * 7 * float64(7-high1Len))
				out = append(out, scenario{patternNumber: int(Fluctuating), prices: prices, probability: prob * prior})
			}
		}
	}
	return out
}

// pattern1 enumerates the LARGE_SPIKE pattern: a decaying-uniform runway
// starting at 0.85x-0.9x, a fixed five-slot spike sequence of widening and then
// narrowing uniform bands, and a trailing i.i.d. tail at 0.4x-0.9x.
func pattern1(obs [WeekSlots]float64, buy float64, fudge int) []scenario {
	bands := []Range{
		{0.9 * RateMultiplier, 1.4 * RateMultiplier},
		{1.4 * RateMultiplier, 2.0 * RateMultiplier},
		{2.0 * RateMultiplier, 6.0 * RateMultiplier},
		{1.4 * RateMultiplier, 2.0 * RateMultiplier},
		{0.9 * RateMultiplier, 1.4 * RateMultiplier},
	}
	var out []scenario
	for peakStart := 3; peakStart <= 9; peakStart++ {
		prices := seedBuySlots(buy)
		prob := 1.0
		slot := 2

		decLen := peakStart - 2
		dist := newUniformDist(0.85*RateMultiplier, 0.9*RateMultiplier)
		prob *= decreasingRandomPhase(obs[:], prices[:], slot, decLen, buy, &dist, 0.03, 0.05, fudge)
		slot += decLen

		for _, band := range bands {
			if prob == 0 {
				slot++
				continue
			}
			prob *= individualRandomPhase(obs[:], prices[:], slot, 1, buy, band.Lo, band.Hi, fudge)
			slot++
		}

		remLen := WeekSlots - slot
		if prob != 0 && remLen > 0 {
			prob *= individualRandomPhase(obs[:], prices[:], slot, remLen, buy, 0.4*RateMultiplier, 0.9*RateMultiplier, fudge)
		}

		if prob == 0 {
			continue
		}
		out = append(out, scenario{patternNumber: int(LargeSpike), prices: prices, probability: prob / 7.0})
	}
	return out
}

// pattern2 enumerates the DECREASING pattern: a single decaying-uniform run
// across all twelve sell slots, starting at 0.85x-0.9x and decaying
// 0.03-0.05 per slot. No hidden parameters.
func pattern2(obs [WeekSlots]float64, buy float64, fudge int) []scenario {
	prices := seedBuySlots(buy)
	dist := newUniformDist(0.85*RateMultiplier, 0.9*RateMultiplier)
	prob := decreasingRandomPhase(obs[:], prices[:], 2, WeekSlots-2, buy, &dist, 0.03, 0.05, fudge)
	if prob == 0 {
		return nil
	}
	return []scenario{{patternNumber: int(Decreasing), prices: prices, probability: prob}}
}

// pattern3 enumerates the SMALL_SPIKE pattern: a leading decaying-uniform
// run at 0.4x-0.9x, two i.i.d. slots at 0.9x-1.4x, a three-slot nested-peak
// spike between 1.4x and 2.0x, and an optional trailing decaying-uniform run
// sharing the same 0.4x-0.9x band.
func pattern3(obs [WeekSlots]float64, buy float64, fudge int) []scenario {
	var out []scenario
	for peakStart := 2; peakStart <= 9; peakStart++ {
		prices := seedBuySlots(buy)
		prob := 1.0
		slot := 2

		dec1Len := peakStart - 2
		dist1 := newUniformDist(0.4*RateMultiplier, 0.9*RateMultiplier)
		prob *= decreasingRandomPhase(obs[:], prices[:], slot, dec1Len, buy, &dist1, 0.03, 0.05, fudge)
		slot += dec1Len

		if prob != 0 {
			prob *= individualRandomPhase(obs[:], prices[:], slot, 2, buy, 0.9*RateMultiplier, 1.4*RateMultiplier, fudge)
		}
		slot += 2

		if prob != 0 {
			prob *= peakPhase(obs[:], prices[:], slot, buy, 1.4*RateMultiplier, 2.0*RateMultiplier, fudge)
		}
		slot += 3

		remLen := WeekSlots - slot
		if prob != 0 && remLen > 0 {
			dist2 := newUniformDist(0.4*RateMultiplier, 0.9*RateMultiplier)
			prob *= decreasingRandomPhase(obs[:], prices[:], slot, remLen, buy, &dist2, 0.03, 0.05, fudge)
		}

		if prob == 0 {
			continue
		}
		out = append(out, scenario{patternNumber: int(SmallSpike), prices: prices, probability: prob / 8.0})
	}
	return out
}

func runPattern(n int, obs [WeekSlots]float64, buy float64, fudge int) []scenario {
	switch Pattern(n) {
	case Fluctuating:
		return pattern0(obs, buy, fudge)
	case LargeSpike:
		return pattern1(obs, buy, fudge)
	case Decreasing:
		return pattern2(obs, buy, fudge)
	case SmallSpike:
		return pattern3(obs, buy, fudge)
	default:
		return nil
	}
}
