// Package preprocess turns raw MS/MS spectra into deisotoped, intensity
// bounded peak lists ready for candidate matching.
package preprocess

import (
	"github.com/ChrisMcGann/xlsearch/pkg/core"
)

// Config holds preprocessing configuration
type Config struct {
	MinCharge         int            // Lowest precursor charge searched
	MaxCharge         int            // Highest precursor charge searched
	IsotopeMinCharge  int            // Lowest fragment charge tried by Deisotope
	IsotopeMaxCharge  int            // Highest fragment charge tried by Deisotope
	MinPeptideLength  int            // Spectra with fewer than 2x this many peaks are skipped
	FragmentTolerance core.Tolerance // Isotope spacing tolerance
	MinIntensity      float64        // Peaks at or below this intensity after scaling are dropped
	NormalizeTo       float64        // Base peak intensity after scaling (0 = no scaling)
	MinIsotopePeaks   int            // Shortest accepted isotope chain
	MaxIsotopePeaks   int            // Longest isotope chain followed
	MakeSingleCharged bool           // Collapse chains to charge 1 equivalent m/z
	TopN              int            // Keep only top N most intense peaks (0 = no limit)
}

// DefaultConfig returns the settings used when no parameters file is given.
func DefaultConfig() Config {
	return Config{
		MinCharge:         3,
		MaxCharge:         7,
		IsotopeMinCharge:  1,
		IsotopeMaxCharge:  7,
		MinPeptideLength:  5,
		FragmentTolerance: core.Tolerance{Value: 0.3, Unit: core.Dalton},
		NormalizeTo:       1.0,
		MinIsotopePeaks:   3,
		MaxIsotopePeaks:   10,
		MakeSingleCharged: false,
		TopN:              500,
	}
}

// Skip explains why a spectrum was not returned by Apply.
type Skip int

const (
	Kept Skip = iota
	SkipCharge
	SkipTooFewPeaks
	SkipTooFewProcessed
)

func (s Skip) String() string {
	switch s {
	case Kept:
		return "kept"
	case SkipCharge:
		return "precursor charge out of range"
	case SkipTooFewPeaks:
		return "too few peaks"
	case SkipTooFewProcessed:
		return "too few peaks after deisotoping"
	default:
		return "unknown"
	}
}

// Apply preprocesses a copy of raw. The returned spectrum is nil unless
// the reason is Kept. raw itself is never modified. Applying the same
// Config to a kept spectrum returns the same peaks.
func (c *Config) Apply(raw *core.Spectrum) (*core.Spectrum, Skip) {
	if raw.Charge < c.MinCharge || raw.Charge > c.MaxCharge {
		return nil, SkipCharge
	}

	minPeaks := 2 * c.MinPeptideLength
	if len(raw.Peaks) == 0 || len(raw.Peaks) < minPeaks {
		return nil, SkipTooFewPeaks
	}

	spec := raw.Clone()
	if !spec.ArePeaksSorted() {
		spec.SortPeaks()
	}

	// Deisotoping sums chain intensities, so scaling and the intensity
	// cutoff come after it.
	spec.Peaks = RemoveLowIntensityPeaks(spec.Peaks, 0)
	spec.Peaks = c.Deisotope(spec.Peaks)
	Normalize(spec.Peaks, c.NormalizeTo)
	spec.Peaks = RemoveLowIntensityPeaks(spec.Peaks, c.MinIntensity)
	spec.Peaks = TopN(spec.Peaks, c.TopN)

	if len(spec.Peaks) == 0 || len(spec.Peaks) < minPeaks {
		return nil, SkipTooFewProcessed
	}
	return spec, Kept
}
