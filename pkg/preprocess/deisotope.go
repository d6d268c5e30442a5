package preprocess

import (
	"math"
	"sort"

	"github.com/ChrisMcGann/xlsearch/pkg/core"
)

// Deisotope detects isotope chains and replaces each with its monoisotopic
// peak. Peaks are scanned from low to high m/z and charges from
// IsotopeMaxCharge down to IsotopeMinCharge. For isotope i of a chain the
// closest free peak above the seed within tolerance of the expected m/z is
// taken; the first charge that fills at least MinIsotopePeaks positions
// wins and all members are consumed. The monoisotopic peak carries the
// summed chain intensity. Unassigned peaks are kept with charge 0.
//
// Peaks that already carry a charge are passed through unchanged and never
// join a chain, so deisotoped output is a fixed point of Deisotope.
// Input must be sorted by m/z and is not modified.
func (c *Config) Deisotope(peaks []core.Peak) []core.Peak {
	n := len(peaks)
	if n == 0 {
		return []core.Peak{}
	}

	used := make([]bool, n)
	for i, p := range peaks {
		used[i] = p.Charge != 0
	}
	monoCharge := make([]int, n)
	monoIntensity := make([]float64, n)

	maxIso := c.MaxIsotopePeaks
	if maxIso < c.MinIsotopePeaks {
		maxIso = c.MinIsotopePeaks
	}
	chain := make([]int, 0, maxIso)

	for cur := 0; cur < n; cur++ {
		if used[cur] {
			continue
		}
		mz := peaks[cur].MZ

		for q := c.IsotopeMaxCharge; q >= c.IsotopeMinCharge && q > 0; q-- {
			chain = append(chain[:0], cur)
			for i := 1; i < maxIso; i++ {
				expected := mz + float64(i)*core.C13C12MassDiff/float64(q)
				p := c.closestFree(peaks, used, cur, i, q, expected)
				if p < 0 {
					break
				}
				chain = append(chain, p)
			}
			if len(chain) < c.MinIsotopePeaks || len(chain) < 2 {
				continue
			}

			sum := 0.0
			for _, p := range chain {
				used[p] = true
				sum += peaks[p].Intensity
			}
			monoCharge[cur] = q
			monoIntensity[cur] = sum
			break
		}
	}

	out := make([]core.Peak, 0, n)
	for i, peak := range peaks {
		z := monoCharge[i]
		switch {
		case peak.Charge != 0:
			out = append(out, peak)
		case z > 0:
			peak.Intensity = monoIntensity[i]
			if c.MakeSingleCharged {
				peak.MZ = peak.MZ*float64(z) - float64(z-1)*core.ProtonMass
				peak.Charge = 1
			} else {
				peak.Charge = z
			}
			out = append(out, peak)
		case !used[i]:
			out = append(out, peak)
		}
	}

	if c.MakeSingleCharged {
		core.SortPeaks(out)
	}
	return out
}

// closestFree returns the index of the unused peak closest to mz, the
// expected m/z of isotope iso at charge q, or -1. Candidates must lie
// within tolerance and nearer to isotope iso than to any other isotope of
// the seed, which keeps chain members distinct.
func (c *Config) closestFree(peaks []core.Peak, used []bool, seed, iso, q int, mz float64) int {
	window := c.FragmentTolerance.Window(mz)
	spacing := core.C13C12MassDiff / float64(q)
	lo := sort.Search(len(peaks), func(i int) bool { return peaks[i].MZ >= mz-window })

	best, bestDiff := -1, math.Inf(1)
	for i := lo; i < len(peaks) && peaks[i].MZ <= mz+window; i++ {
		if i <= seed || used[i] {
			continue
		}
		if int(math.Round((peaks[i].MZ-peaks[seed].MZ)/spacing)) != iso {
			continue
		}
		if d := math.Abs(peaks[i].MZ - mz); d < bestDiff {
			best, bestDiff = i, d
		}
	}
	return best
}
