package preprocess

import (
	"sort"

	"github.com/ChrisMcGann/xlsearch/pkg/core"
	"gonum.org/v1/gonum/floats"
)

// RemoveLowIntensityPeaks drops peaks with intensity at or below minIntensity.
func RemoveLowIntensityPeaks(peaks []core.Peak, minIntensity float64) []core.Peak {
	filtered := make([]core.Peak, 0, len(peaks))
	for _, peak := range peaks {
		if peak.Intensity > minIntensity {
			filtered = append(filtered, peak)
		}
	}
	return filtered
}

// Normalize scales intensities in place so the base peak equals max.
func Normalize(peaks []core.Peak, max float64) {
	if len(peaks) == 0 || max <= 0 {
		return
	}

	intensities := make([]float64, len(peaks))
	for i, peak := range peaks {
		intensities[i] = peak.Intensity
	}
	base := floats.Max(intensities)
	if base <= 0 {
		return
	}

	scale := max / base
	for i := range peaks {
		peaks[i].Intensity *= scale
	}
}

// TopN keeps the n most intense peaks and returns them sorted by m/z.
// Ties in intensity keep the lower m/z peak.
func TopN(peaks []core.Peak, n int) []core.Peak {
	if n <= 0 || len(peaks) <= n {
		return peaks
	}

	// Create a copy and sort by intensity descending
	byIntensity := make([]core.Peak, len(peaks))
	copy(byIntensity, peaks)
	sort.SliceStable(byIntensity, func(i, j int) bool {
		return byIntensity[i].Intensity > byIntensity[j].Intensity
	})

	kept := byIntensity[:n]
	core.SortPeaks(kept)
	return kept
}
