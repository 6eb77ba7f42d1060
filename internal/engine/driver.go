package engine

import (
	"math"
	"sort"
)

// PredictionResult is one ranked row of the inference output: either a
// concrete pattern hypothesis or the synthesized ALL aggregate row.
type PredictionResult struct {
	PatternNumber            int
	PatternName              string
	Prices                   [WeekSlots]MinMax
	Probability              float64
	WeekGuaranteedMinimum    int
	WeekMax                  int
	CategoryTotalProbability float64
}

// NewObservationVector builds the fixed 14-slot observation vector expected
// by Analyze. Unknown slots must be math.NaN(); slot 0 and slot 1 both carry
// the Sunday buy price when it is known.
func NewObservationVector(buyPrice *int, sellPrices [12]*int) [WeekSlots]float64 {
	var obs [WeekSlots]float64
	if buyPrice != nil {
		obs[0] = float64(*buyPrice)
		obs[1] = float64(*buyPrice)
	} else {
		obs[0] = math.NaN()
		obs[1] = math.NaN()
	}
	for i, p := range sellPrices {
		if p == nil {
			obs[2+i] = math.NaN()
		} else {
			obs[2+i] = float64(*p)
		}
	}
	return obs
}

// Analyze runs the full inference pipeline over an observation vector:
// fudge-factor escalation, buy-price enumeration when needed, transition
// weighting against previousPattern, normalization, and ranking. previousPattern
// should be one of Fluctuating..SmallSpike, or a negative value if unknown.
// firstBuy restricts generation to SmallSpike with no transition weighting,
// matching the rule that a player's first tracked week can only be that
// pattern.
func Analyze(obs [WeekSlots]float64, firstBuy bool, previousPattern int) []PredictionResult {
	results, _ := AnalyzeWithFudge(obs, firstBuy, previousPattern)
	return results
}

// AnalyzeWithFudge behaves like Analyze but also returns the fudge factor
// that produced a non-empty scenario set, for callers that want to record
// how much observation noise tolerance was needed.
func AnalyzeWithFudge(obs [WeekSlots]float64, firstBuy bool, previousPattern int) ([]PredictionResult, int) {
	var scenarios []scenario
	fudgeUsed := MaxFudgeFactor
	for fudge := 0; fudge <= MaxFudgeFactor; fudge++ {
		scenarios = generateScenarios(obs, firstBuy, previousPattern, fudge)
		if len(scenarios) > 0 {
			fudgeUsed = fudge
			break
		}
	}
	return finalize(scenarios), fudgeUsed
}

func generateScenarios(obs [WeekSlots]float64, firstBuy bool, previousPattern int, fudge int) []scenario {
	var out []scenario
	buyMissing := math.IsNaN(obs[0])

	weighted := func(buy float64, o [WeekSlots]float64) []scenario {
		var s []scenario
		if firstBuy {
			s = append(s, runPattern(int(SmallSpike), o, buy, fudge)...)
			return s
		}
		for p := 0; p < int(numPatterns); p++ {
			weight := transitionWeight(previousPattern, p)
			for _, sc := range runPattern(p, o, buy, fudge) {
				sc.probability *= weight
				s = append(s, sc)
			}
		}
		return s
	}

	if firstBuy || buyMissing {
		for buy := BuyPriceMin; buy <= BuyPriceMax; buy++ {
			o := obs
			o[0] = float64(buy)
			o[1] = float64(buy)
			out = append(out, weighted(float64(buy), o)...)
		}
		return out
	}

	return weighted(obs[0], obs)
}

func finalize(scenarios []scenario) []PredictionResult {
	probs := make([]float64, len(scenarios))
	for i, s := range scenarios {
		probs[i] = s.probability
	}
	total := kahanSum(probs)
	if total != 0 {
		for i := range scenarios {
			scenarios[i].probability /= total
		}
	}

	var categoryTotals [numPatterns]float64
	for _, s := range scenarios {
		categoryTotals[s.patternNumber] += s.probability
	}

	results := make([]PredictionResult, len(scenarios))
	for i, s := range scenarios {
		gMin, gMax := weekAggregate(s.prices)
		results[i] = PredictionResult{
			PatternNumber:            s.patternNumber,
			PatternName:              patternName(s.patternNumber),
			Prices:                   s.prices,
			Probability:              s.probability,
			WeekGuaranteedMinimum:    gMin,
			WeekMax:                  gMax,
			CategoryTotalProbability: categoryTotals[s.patternNumber],
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].CategoryTotalProbability != results[j].CategoryTotalProbability {
			return results[i].CategoryTotalProbability > results[j].CategoryTotalProbability
		}
		return results[i].Probability > results[j].Probability
	})

	return append([]PredictionResult{aggregateAll(results)}, results...)
}

// weekAggregate walks the sell slots forward, tracking the most recent
// unbroken run of range (non-pinned) slots. A pinned slot resets the run,
// since once a price is observed the earlier envelope no longer bounds what
// comes next. The guaranteed minimum is the highest per-slot minimum in the
// surviving run: whichever day in that run you pick to sell, you're
// guaranteed at least that much.
func weekAggregate(prices [WeekSlots]MinMax) (int, int) {
	var ranges []MinMax
	for slot := 2; slot < WeekSlots; slot++ {
		mm := prices[slot]
		if mm.Min != mm.Max {
			ranges = append(ranges, mm)
		} else if len(ranges) > 0 {
			ranges = nil
		}
	}
	if len(ranges) == 0 {
		final := prices[WeekSlots-1]
		return final.Min, final.Max
	}
	gMin, gMax := ranges[0].Min, ranges[0].Max
	for _, r := range ranges[1:] {
		if r.Min > gMin {
			gMin = r.Min
		}
		if r.Max > gMax {
			gMax = r.Max
		}
	}
	return gMin, gMax
}

func aggregateAll(results []PredictionResult) PredictionResult {
	var prices [WeekSlots]MinMax
	for i := range prices {
		prices[i] = MinMax{Min: 999, Max: 0}
	}
	gMin, gMax := 999, 0
	for _, r := range results {
		for i := 0; i < WeekSlots; i++ {
			if r.Prices[i].Min < prices[i].Min {
				prices[i].Min = r.Prices[i].Min
			}
			if r.Prices[i].Max > prices[i].Max {
				prices[i].Max = r.Prices[i].Max
			}
		}
		if r.WeekGuaranteedMinimum < gMin {
			gMin = r.WeekGuaranteedMinimum
		}
		if r.WeekMax > gMax {
			gMax = r.WeekMax
		}
	}
	return PredictionResult{
		PatternNumber:         AllPatternNumber,
		PatternName:           "ALL",
		Prices:                prices,
		WeekGuaranteedMinimum: gMin,
		WeekMax:               gMax,
	}
}
