package align

import (
	"math/rand"
	"testing"

	"github.com/ChrisMcGann/xlsearch/pkg/core"
)

func peaks(mzs ...float64) []core.Peak {
	out := make([]core.Peak, len(mzs))
	for i, mz := range mzs {
		out[i] = core.Peak{MZ: mz, Intensity: 1}
	}
	return out
}

func equalPairs(a, b []Pair) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestAlignAbsolute(t *testing.T) {
	da := Options{Tolerance: core.Tolerance{Value: 0.05, Unit: core.Dalton}}

	tests := []struct {
		name string
		theo []core.Peak
		obs  []core.Peak
		want []Pair
	}{
		{
			name: "skips unmatched observed peak",
			theo: peaks(100, 200, 300),
			obs:  peaks(100.01, 150, 200.02, 299.99),
			want: []Pair{{0, 0}, {1, 2}, {2, 3}},
		},
		{
			name: "nothing within tolerance",
			theo: peaks(100, 200),
			obs:  peaks(100.5, 201),
			want: nil,
		},
		{
			name: "empty observed",
			theo: peaks(100),
			obs:  nil,
			want: nil,
		},
		{
			name: "skips unmatched theoretical peak",
			theo: peaks(100, 150, 200),
			obs:  peaks(100.01, 200.01),
			want: []Pair{{0, 0}, {2, 1}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Align(tt.theo, tt.obs, da)
			if !equalPairs(got, tt.want) {
				t.Errorf("Align() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAlignRelative(t *testing.T) {
	ppm := Options{Tolerance: core.Tolerance{Value: 10, Unit: core.PPM}}

	got := Align(peaks(500, 600), peaks(499.999, 500.0049, 600.001), ppm)
	want := []Pair{{0, 0}, {1, 2}}
	if !equalPairs(got, want) {
		t.Errorf("Align() = %v, want %v", got, want)
	}
}

func TestAlignRelativeIntensityRetry(t *testing.T) {
	opt := Options{Tolerance: core.Tolerance{Value: 10, Unit: core.PPM}, IntensityCutoff: 0.3}
	theo := []core.Peak{{MZ: 500, Intensity: 1}}
	obs := []core.Peak{{MZ: 499.9995, Intensity: 0.1}, {MZ: 500.002, Intensity: 0.8}}

	got := Align(theo, obs, opt)
	want := []Pair{{0, 1}}
	if !equalPairs(got, want) {
		t.Errorf("Align() = %v, want %v", got, want)
	}
}

func TestAlignIntensityAndCharge(t *testing.T) {
	tests := []struct {
		name string
		opt  Options
		theo core.Peak
		obs  core.Peak
		want int
	}{
		{"ratio below cutoff", Options{Tolerance: core.Tolerance{Value: 0.05}, IntensityCutoff: 0.3}, core.Peak{MZ: 100, Intensity: 1}, core.Peak{MZ: 100, Intensity: 0.2}, 0},
		{"ratio above cutoff", Options{Tolerance: core.Tolerance{Value: 0.05}, IntensityCutoff: 0.3}, core.Peak{MZ: 100, Intensity: 1}, core.Peak{MZ: 100, Intensity: 0.5}, 1},
		{"charge mismatch", Options{Tolerance: core.Tolerance{Value: 0.05}}, core.Peak{MZ: 100, Intensity: 1, Charge: 2}, core.Peak{MZ: 100, Intensity: 1, Charge: 3}, 0},
		{"unknown observed charge", Options{Tolerance: core.Tolerance{Value: 0.05}}, core.Peak{MZ: 100, Intensity: 1, Charge: 2}, core.Peak{MZ: 100, Intensity: 1}, 1},
		{"ppm charge mismatch", Options{Tolerance: core.Tolerance{Value: 10, Unit: core.PPM}}, core.Peak{MZ: 100, Intensity: 1, Charge: 1}, core.Peak{MZ: 100, Intensity: 1, Charge: 2}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Align([]core.Peak{tt.theo}, []core.Peak{tt.obs}, tt.opt)
			if len(got) != tt.want {
				t.Errorf("Align() = %v, want %d pairs", got, tt.want)
			}
		})
	}
}

func TestAlignUnsortedPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("Align() with unsorted input did not panic")
		}
	}()
	Align(peaks(200, 100), peaks(100, 200), Options{Tolerance: core.Tolerance{Value: 0.05}})
}

func randomSpectrum(r *rand.Rand, n int) []core.Peak {
	out := make([]core.Peak, n)
	for i := range out {
		out[i] = core.Peak{MZ: 100 + r.Float64()*1500, Intensity: r.Float64() + 0.01}
	}
	core.SortPeaks(out)
	return out
}

func TestAlignMonotonic(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	var a Aligner

	for _, tol := range []core.Tolerance{{Value: 0.3, Unit: core.Dalton}, {Value: 20, Unit: core.PPM}} {
		for trial := 0; trial < 50; trial++ {
			theo := randomSpectrum(r, 20+r.Intn(80))
			obs := randomSpectrum(r, 50+r.Intn(300))
			for _, p := range theo[:len(theo)/2] {
				obs = append(obs, core.Peak{MZ: p.MZ + (r.Float64()-0.5)*0.01, Intensity: 1})
			}
			core.SortPeaks(obs)

			pairs := a.Align(theo, obs, Options{Tolerance: tol})
			for k := 1; k < len(pairs); k++ {
				if pairs[k].Theo <= pairs[k-1].Theo || pairs[k].Obs <= pairs[k-1].Obs {
					t.Fatalf("%v trial %d: pairs not strictly increasing at %d: %v, %v", tol, trial, k, pairs[k-1], pairs[k])
				}
			}
			for _, p := range pairs {
				if !tol.Within(theo[p.Theo].MZ, obs[p.Obs].MZ) {
					t.Fatalf("%v trial %d: pair %v outside tolerance", tol, trial, p)
				}
			}
		}
	}
}
