package engine

import (
	"math"
	"testing"
)

func TestIntCeil(t *testing.T) {
	tests := []struct {
		name string
		in   float64
		want int
	}{
		{"exact integer", 5.0, 5},
		{"just below integer", 4.9999999, 5},
		{"mid fraction", 4.5, 5},
		{"zero", 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := intCeil(tt.in); got != tt.want {
				t.Errorf("intCeil(%v) = %d, want %d", tt.in, got, tt.want)
			}
		})
	}
}

func TestIntersectLength(t *testing.T) {
	tests := []struct {
		name string
		a, b Range
		want float64
	}{
		{"full overlap", Range{0, 10}, Range{0, 10}, 10},
		{"partial overlap", Range{0, 10}, Range{5, 15}, 5},
		{"no overlap", Range{0, 5}, Range{10, 15}, 0},
		{"touching edges", Range{0, 5}, Range{5, 10}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := intersectLength(tt.a, tt.b); got != tt.want {
				t.Errorf("intersectLength(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestKahanSumMatchesNaiveSum(t *testing.T) {
	values := make([]float64, 1000)
	for i := range values {
		values[i] = 0.00001
	}
	got := kahanSum(values)
	want := 0.01
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("kahanSum = %v, want ~%v", got, want)
	}
}

func TestKahanRangeSumMatchesSlice(t *testing.T) {
	values := []float64{1.5, 2.25, -0.75, 3.0, 0.125}
	prefix := kahanPrefix(values)
	got := kahanRangeSum(prefix, 1, 4)
	want := values[1] + values[2] + values[3]
	if math.Abs(got-want) > 1e-12 {
		t.Errorf("kahanRangeSum = %v, want %v", got, want)
	}
}

func TestUniformDistSumsToOne(t *testing.T) {
	d := newUniformDist(600, 800)
	sum := kahanSum(d.prob)
	if math.Abs(sum-1) > 1e-9 {
		t.Errorf("uniform dist mass = %v, want 1", sum)
	}
}

func TestRangeLimitRenormalizes(t *testing.T) {
	d := newUniformDist(600, 800)
	mass := d.rangeLimit(Range{650, 700})
	if mass <= 0 || mass >= 1 {
		t.Fatalf("rangeLimit mass = %v, want in (0,1)", mass)
	}
	sum := kahanSum(d.prob)
	if math.Abs(sum-1) > 1e-9 {
		t.Errorf("post-rangeLimit mass = %v, want 1", sum)
	}
}

func TestRangeLimitOutsideBoundsInvalidates(t *testing.T) {
	d := newUniformDist(600, 800)
	mass := d.rangeLimit(Range{1000, 1100})
	if mass != 0 {
		t.Errorf("rangeLimit mass = %v, want 0", mass)
	}
	if d.valid() {
		t.Error("expected distribution to be invalidated")
	}
}

func TestDecayPreservesMass(t *testing.T) {
	d := newUniformDist(600, 800)
	d.decay(40, 100)
	sum := kahanSum(d.prob)
	if math.Abs(sum-1) > 1e-9 {
		t.Errorf("post-decay mass = %v, want 1", sum)
	}
}

func TestDecayZeroWidthShiftsOnly(t *testing.T) {
	d := newUniformDist(600, 800)
	before := append([]float64{}, d.prob...)
	d.decay(50, 50)
	if d.minValue() != 550 || d.maxValue() != 750 {
		t.Errorf("zero-width decay shifted bounds to [%v, %v], want [550, 750]", d.minValue(), d.maxValue())
	}
	for i, v := range d.prob {
		if v != before[i] {
			t.Errorf("zero-width decay changed prob[%d]: %v != %v", i, v, before[i])
		}
	}
}

func allUnknown() [WeekSlots]float64 {
	var obs [WeekSlots]float64
	for i := range obs {
		obs[i] = math.NaN()
	}
	return obs
}

func TestAnalyzeAllUnknownProducesFourPatternsAndAggregate(t *testing.T) {
	results := Analyze(allUnknown(), false, -1)
	if len(results) == 0 {
		t.Fatal("expected at least the ALL row")
	}
	if results[0].PatternNumber != AllPatternNumber {
		t.Errorf("results[0].PatternNumber = %d, want %d", results[0].PatternNumber, AllPatternNumber)
	}

	seen := map[int]bool{}
	for _, r := range results[1:] {
		seen[r.PatternNumber] = true
	}
	for p := 0; p < int(numPatterns); p++ {
		if !seen[p] {
			t.Errorf("pattern %d missing from results", p)
		}
	}
}

func TestAnalyzeProbabilitiesSumToOne(t *testing.T) {
	results := Analyze(allUnknown(), false, -1)
	var total float64
	for _, r := range results[1:] {
		total += r.Probability
	}
	if math.Abs(total-1) > 1e-6 {
		t.Errorf("sum of probabilities = %v, want ~1", total)
	}
}

func TestAnalyzeWithFudgeReportsEscalationLevel(t *testing.T) {
	results, fudge := AnalyzeWithFudge(allUnknown(), false, -1)
	if fudge != 0 {
		t.Errorf("fully unknown observations should need no fudge, got %d", fudge)
	}
	if len(results) == 0 {
		t.Fatal("expected at least the ALL row")
	}
}

func TestAnalyzeFirstBuyOnlyProducesSmallSpike(t *testing.T) {
	results := Analyze(allUnknown(), true, -1)
	for _, r := range results[1:] {
		if r.PatternNumber != int(SmallSpike) {
			t.Errorf("firstBuy produced pattern %d, want only %d", r.PatternNumber, int(SmallSpike))
		}
	}
}

func TestAnalyzeDecreasingObservationsFavorsDecreasingPattern(t *testing.T) {
	obs := allUnknown()
	buy := 100
	obs[0] = float64(buy)
	obs[1] = float64(buy)
	price := 90.0
	for i := 2; i < WeekSlots; i++ {
		obs[i] = price
		price -= 4
	}
	results := Analyze(obs, false, -1)
	top := results[1]
	if top.PatternNumber != int(Decreasing) {
		t.Errorf("top pattern = %s, want DECREASING", top.PatternName)
	}
}

func TestAnalyzeWeekGuaranteedMinimumNeverExceedsWeekMax(t *testing.T) {
	results := Analyze(allUnknown(), false, int(LargeSpike))
	for _, r := range results[1:] {
		if r.WeekGuaranteedMinimum > r.WeekMax {
			t.Errorf("pattern %s: guaranteed min %d > max %d", r.PatternName, r.WeekGuaranteedMinimum, r.WeekMax)
		}
	}
}
