// Package score computes the per-candidate sub-scores and combines them
// into the final ranking score.
package score

import (
	"math"
	"sort"

	"github.com/ChrisMcGann/xlsearch/pkg/align"
	"github.com/ChrisMcGann/xlsearch/pkg/core"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat/distuv"
)

// Digestion length bounds used by the weighted TIC.
const (
	MinDigestLength = 5
	MaxDigestLength = 50
)

// PreScore is the fraction of matched theoretical peaks. For cross-links
// it is the geometric mean of the alpha and beta fractions. A chain with
// no theoretical peaks scores 0.
func PreScore(matchedAlpha, theoAlpha, matchedBeta, theoBeta int, cross bool) float64 {
	if theoAlpha <= 0 {
		return 0
	}
	fa := float64(matchedAlpha) / float64(theoAlpha)
	if !cross {
		return fa
	}
	if theoBeta <= 0 {
		return 0
	}
	return math.Sqrt(fa * float64(matchedBeta) / float64(theoBeta))
}

// CumulativeBinomial returns P(X < k) for X ~ Binomial(n, p). The result
// stays strictly below 1 so callers can take -log(1 - result).
func CumulativeBinomial(n, k int, p float64) float64 {
	switch {
	case p < 1e-99:
		if k == 0 {
			return 1
		}
		return 0
	case 1-p < 1e-99:
		if k != n {
			return 1
		}
		return 0
	case k > n:
		return 1
	case k <= 0:
		return 0
	}

	cdf := distuv.Binomial{N: float64(n), P: p}.CDF(float64(k - 1))
	if cdf >= 1 {
		cdf = math.Nextafter(1, 0)
	}
	return cdf
}

// MatchOdds scores how unlikely it is to match matched of the theoretical
// peaks at random. theo must be sorted by m/z. For cross-link ion spectra
// the trial count is divided by the number of fragment charges.
func MatchOdds(theo []core.Peak, matched int, tol core.Tolerance, xlinkIons bool, nCharges int) float64 {
	size := len(theo)
	if size == 0 {
		return 0
	}
	span := theo[size-1].MZ - theo[0].MZ

	tolTh := tol.Value
	if tol.IsPPM() {
		mean := 0.0
		for _, p := range theo {
			mean += p.MZ
		}
		mean /= float64(size)
		tolTh = mean * tol.Value * 1e-6
	}

	trials := size
	if xlinkIons && nCharges > 0 {
		trials = size / nCharges
	}
	apriori := 1 - math.Pow(1-2*tolTh/(0.5*span), float64(trials))

	odds := -math.Log(1 - CumulativeBinomial(size, matched, apriori) + 1e-5)
	if odds < 0 || math.IsNaN(odds) {
		return 0
	}
	return odds
}

// CrossLinkCharges returns the charge count used to normalise cross-link
// ion match odds for a precursor of the given charge.
func CrossLinkCharges(precursorCharge int) int {
	n := precursorCharge - 1 - 2
	if n < 1 {
		return 1
	}
	return n
}

// MatchedIntensity sums the intensity of the distinct observed peaks
// referenced by any of the alignments.
func MatchedIntensity(obs []core.Peak, alignments ...[]align.Pair) float64 {
	var idx []int
	for _, pairs := range alignments {
		for _, p := range pairs {
			idx = append(idx, p.Obs)
		}
	}
	sort.Ints(idx)

	sum := 0.0
	for i, j := range idx {
		if i > 0 && idx[i-1] == j {
			continue
		}
		sum += obs[j].Intensity
	}
	return sum
}

// WeightedTIC weights each chain's share of the total ion current by the
// inverse of its share of the residues. Shorter chains are harder to
// match so their current counts for more. Non cross-links are scored as
// if paired with a partner that fills the digestion length range.
func WeightedTIC(alphaLen, betaLen int, alphaCurrent, betaCurrent, matchedCurrent, total float64, cross bool) float64 {
	if total <= 0 || alphaLen <= 0 {
		return 0
	}
	if !cross {
		betaLen = MaxDigestLength + MinDigestLength - alphaLen
		betaCurrent = 0
		alphaCurrent = matchedCurrent
	}
	if betaLen <= 0 {
		return 0
	}

	all := float64(alphaLen + betaLen)
	invMax := 1 / (float64(MinDigestLength) / float64(MinDigestLength+MaxDigestLength))
	wAlpha := (all / float64(alphaLen)) / invMax
	wBeta := (all / float64(betaLen)) / invMax
	return wAlpha*alphaCurrent/total + wBeta*betaCurrent/total
}

// XCorrelation bins both spectra at binSize and returns the Pearson
// correlation of the occupancy vectors for every shift in
// [-maxShift, maxShift]. Occupied bins count 10 regardless of intensity.
// An empty spectrum correlates 0 at every shift.
func XCorrelation(a, b []core.Peak, maxShift int, binSize float64) []float64 {
	out := make([]float64, 2*maxShift+1)
	if len(a) == 0 || len(b) == 0 || binSize <= 0 {
		return out
	}

	maxMZ := math.Max(a[len(a)-1].MZ, b[len(b)-1].MZ)
	size := int(math.Ceil(maxMZ/binSize)) + 1
	ta := binTable(a, size, binSize)
	tb := binTable(b, size, binSize)

	meanA := floats.Sum(ta) / float64(size)
	meanB := floats.Sum(tb) / float64(size)
	floats.AddConst(-meanA, ta)
	floats.AddConst(-meanB, tb)

	denom := math.Sqrt(floats.Dot(ta, ta) * floats.Dot(tb, tb))
	if denom <= 0 {
		return out
	}

	for shift := -maxShift; shift <= maxShift; shift++ {
		s := 0.0
		for i := 0; i < size; i++ {
			j := i + shift
			if j >= 0 && j < size {
				s += ta[i] * tb[j]
			}
		}
		out[shift+maxShift] = s / denom
	}
	return out
}

func binTable(peaks []core.Peak, size int, binSize float64) []float64 {
	t := make([]float64, size)
	for _, p := range peaks {
		if pos := int(math.Ceil(p.MZ / binSize)); pos >= 0 && pos < size {
			t[pos] = 10
		}
	}
	return t
}

// NormalizedXCorr is the summed cross-correlation of obs with theo over
// all shifts, divided by the summed autocorrelation of obs.
func NormalizedXCorr(obs, theo []core.Peak, maxShift int, binSize float64) float64 {
	auto := floats.Sum(XCorrelation(obs, obs, maxShift, binSize))
	if auto == 0 {
		return 0
	}
	return floats.Sum(XCorrelation(obs, theo, maxShift, binSize)) / auto
}
