package score

import (
	"math"
	"testing"

	"github.com/ChrisMcGann/xlsearch/pkg/align"
	"github.com/ChrisMcGann/xlsearch/pkg/core"
)

func TestPreScore(t *testing.T) {
	tests := []struct {
		name           string
		ma, ta, mb, tb int
		cross          bool
		want           float64
	}{
		{"cross", 4, 8, 2, 8, true, math.Sqrt(0.5 * 0.25)},
		{"cross both full", 3, 3, 5, 5, true, 1},
		{"cross no beta ions", 4, 8, 0, 0, true, 0},
		{"mono", 3, 12, 0, 0, false, 0.25},
		{"no alpha ions", 0, 0, 3, 3, true, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := PreScore(tt.ma, tt.ta, tt.mb, tt.tb, tt.cross)
			if math.Abs(got-tt.want) > 1e-12 {
				t.Errorf("PreScore() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCumulativeBinomial(t *testing.T) {
	tests := []struct {
		name string
		n, k int
		p    float64
		want float64
	}{
		{"p zero k zero", 10, 0, 0, 1},
		{"p zero k positive", 10, 3, 0, 0},
		{"p one k below n", 10, 3, 1, 1},
		{"p one k equals n", 10, 10, 1, 0},
		{"k above n", 5, 6, 0.3, 1},
		{"k zero", 5, 0, 0.3, 0},
		{"fair coin k one", 2, 1, 0.5, 0.25},
		{"fair coin k two", 2, 2, 0.5, 0.75},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CumulativeBinomial(tt.n, tt.k, tt.p)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("CumulativeBinomial(%d, %d, %v) = %v, want %v", tt.n, tt.k, tt.p, got, tt.want)
			}
		})
	}

	if got := CumulativeBinomial(1000, 1000, 0.01); got >= 1 {
		t.Errorf("CumulativeBinomial() = %v, want < 1", got)
	}
}

func ladder(n int, start, step float64) []core.Peak {
	peaks := make([]core.Peak, n)
	for i := range peaks {
		peaks[i] = core.Peak{MZ: start + float64(i)*step, Intensity: 1}
	}
	return peaks
}

func TestMatchOdds(t *testing.T) {
	theo := ladder(20, 200, 50)
	da := core.Tolerance{Value: 0.2, Unit: core.Dalton}
	ppm := core.Tolerance{Value: 10, Unit: core.PPM}

	if got := MatchOdds(nil, 0, da, false, 1); got != 0 {
		t.Errorf("MatchOdds(empty) = %v, want 0", got)
	}
	if got := MatchOdds(theo, 0, da, false, 1); got != 0 {
		t.Errorf("MatchOdds(no matches) = %v, want 0", got)
	}

	prev := -1.0
	for _, k := range []int{1, 5, 10, 20} {
		got := MatchOdds(theo, k, da, false, 1)
		if got < prev {
			t.Errorf("MatchOdds() not monotonic at k=%d: %v < %v", k, got, prev)
		}
		prev = got
	}

	if a, b := MatchOdds(theo, 2, ppm, false, 1), MatchOdds(theo, 2, da, false, 1); a <= b {
		t.Errorf("tighter ppm tolerance should score higher: ppm %v, Da %v", a, b)
	}
	if a, b := MatchOdds(theo, 2, da, true, 2), MatchOdds(theo, 2, da, false, 1); a <= b {
		t.Errorf("fewer trials should score higher: xlink %v, common %v", a, b)
	}
}

func TestCrossLinkCharges(t *testing.T) {
	tests := []struct{ charge, want int }{{2, 1}, {3, 1}, {4, 1}, {5, 2}, {7, 4}}
	for _, tt := range tests {
		if got := CrossLinkCharges(tt.charge); got != tt.want {
			t.Errorf("CrossLinkCharges(%d) = %d, want %d", tt.charge, got, tt.want)
		}
	}
}

func TestMatchedIntensity(t *testing.T) {
	obs := []core.Peak{{MZ: 100, Intensity: 1}, {MZ: 200, Intensity: 2}, {MZ: 300, Intensity: 4}}
	a := []align.Pair{{Theo: 0, Obs: 0}, {Theo: 1, Obs: 2}}
	b := []align.Pair{{Theo: 0, Obs: 2}}

	if got := MatchedIntensity(obs, a, b); got != 5 {
		t.Errorf("MatchedIntensity() = %v, want 5 (shared peak counted once)", got)
	}
	if got := MatchedIntensity(obs); got != 0 {
		t.Errorf("MatchedIntensity() with no alignments = %v, want 0", got)
	}
}

func TestWeightedTIC(t *testing.T) {
	tests := []struct {
		name                    string
		alphaLen, betaLen       int
		alpha, beta, all, total float64
		cross                   bool
		want                    float64
	}{
		// weights (20/10)/11 each
		{"cross equal chains", 10, 10, 30, 20, 50, 100, true, 2.0 / 11 * 0.5},
		// beta length 55-11=44, weight (55/11)/11
		{"mono uses matched current", 11, 3, 99, 99, 40, 100, false, 5.0 / 11 * 0.4},
		{"zero total", 10, 10, 1, 1, 2, 0, true, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := WeightedTIC(tt.alphaLen, tt.betaLen, tt.alpha, tt.beta, tt.all, tt.total, tt.cross)
			if math.Abs(got-tt.want) > 1e-12 {
				t.Errorf("WeightedTIC() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestXCorrelation(t *testing.T) {
	spec := ladder(10, 100, 7.3)

	got := XCorrelation(spec, spec, 2, 0.3)
	if len(got) != 5 {
		t.Fatalf("XCorrelation() returned %d shifts, want 5", len(got))
	}
	if math.Abs(got[2]-1) > 1e-12 {
		t.Errorf("self correlation at shift 0 = %v, want 1", got[2])
	}
	for i, v := range got {
		if v > got[2]+1e-12 {
			t.Errorf("shift %d correlates %v above shift 0", i-2, v)
		}
	}

	for _, v := range XCorrelation(spec, nil, 3, 0.3) {
		if v != 0 {
			t.Errorf("correlation with empty spectrum = %v, want 0", v)
		}
	}
}

func TestNormalizedXCorr(t *testing.T) {
	obs := ladder(12, 150, 11.1)

	if got := NormalizedXCorr(obs, obs, 5, 0.3); math.Abs(got-1) > 1e-12 {
		t.Errorf("NormalizedXCorr(self) = %v, want 1", got)
	}
	if got := NormalizedXCorr(obs, nil, 5, 0.3); got != 0 {
		t.Errorf("NormalizedXCorr(empty theo) = %v, want 0", got)
	}
	if got := NormalizedXCorr(obs, obs[:6], 5, 0.3); got <= 0 || got >= 1 {
		t.Errorf("NormalizedXCorr(half) = %v, want in (0, 1)", got)
	}
}

func TestCombine(t *testing.T) {
	w := DefaultWeights()
	terms := Terms{XCorrX: 0.5, XCorrC: 0.2, MatchOdds: 3, WeightedTIC: 0.1, PercentTIC: 0.4}
	want := 2.488*0.5 + 21.279*0.2 + 1.973*3 + 12.829*0.1 + 1.8*0.4
	if got := w.Combine(terms); math.Abs(got-want) > 1e-9 {
		t.Errorf("Combine() = %v, want %v", got, want)
	}

	terms.MatchOdds = math.NaN()
	terms.XCorrX = math.Inf(1)
	want = 21.279*0.2 + 12.829*0.1 + 1.8*0.4
	if got := w.Combine(terms); math.Abs(got-want) > 1e-9 {
		t.Errorf("Combine() with non-finite terms = %v, want %v", got, want)
	}

	if got := w.Combine(Terms{Intensity: 1e9}); got != 0 {
		t.Errorf("Combine() should ignore absolute intensity, got %v", got)
	}
}
