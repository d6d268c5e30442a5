// Package core provides the shared data model for xlsearch: spectra, peaks,
// peptides, modifications, mass tolerances and the chemistry they rely on.
package core

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// Spectrum represents a single observed MS/MS spectrum.
type Spectrum struct {
	// Required fields
	NativeID    string  // Identifier from the source file (TITLE, scan id)
	Index       int     // 0-based position in the input file
	Charge      int     // Precursor charge state
	PrecursorMZ float64 // Precursor m/z
	Peaks       []Peak  // Fragment peaks, ascending by m/z

	// Optional metadata
	RetentionTime *float64 // Seconds
	ScanNumber    int

	// Internal tracking
	SourceFile   string
	SourceFormat string // mgf
}

// Peak represents a single m/z, intensity pair with optional metadata.
type Peak struct {
	MZ         float64
	Intensity  float64
	Annotation string // Ion label for theoretical peaks (e.g., "alpha|ci$b3")
	Charge     int    // Fragment charge, 0 when unknown
}

// ValidationError represents an error found during spectrum validation.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error in %s: %s", e.Field, e.Message)
}

// Validate checks that a spectrum meets all requirements for searching.
func (s *Spectrum) Validate() error {
	var errs []string

	if s.Charge <= 0 {
		errs = append(errs, "charge must be positive")
	}
	if s.PrecursorMZ <= 0 || math.IsNaN(s.PrecursorMZ) || math.IsInf(s.PrecursorMZ, 0) {
		errs = append(errs, "precursor m/z must be positive")
	}

	for i, peak := range s.Peaks {
		if math.IsNaN(peak.MZ) || math.IsInf(peak.MZ, 0) {
			errs = append(errs, fmt.Sprintf("peak %d has invalid m/z", i))
		}
		if math.IsNaN(peak.Intensity) || math.IsInf(peak.Intensity, 0) {
			errs = append(errs, fmt.Sprintf("peak %d has invalid intensity", i))
		}
		if peak.MZ <= 0 {
			errs = append(errs, fmt.Sprintf("peak %d m/z must be positive", i))
		}
		if peak.Intensity < 0 {
			errs = append(errs, fmt.Sprintf("peak %d intensity must be non-negative", i))
		}
	}

	if !s.ArePeaksSorted() {
		errs = append(errs, "peaks must be sorted by m/z")
	}

	if len(errs) > 0 {
		return &ValidationError{
			Field:   s.Name(),
			Message: strings.Join(errs, "; "),
		}
	}

	return nil
}

// ArePeaksSorted checks if peaks are sorted by m/z in ascending order.
func (s *Spectrum) ArePeaksSorted() bool {
	return PeaksSorted(s.Peaks)
}

// SortPeaks sorts peaks by m/z in ascending order. Equal m/z keep their order.
func (s *Spectrum) SortPeaks() {
	SortPeaks(s.Peaks)
}

// PrecursorMass returns the neutral precursor mass (mz*z - z*proton).
func (s *Spectrum) PrecursorMass() float64 {
	z := float64(s.Charge)
	return s.PrecursorMZ*z - z*ProtonMass
}

// TotalIntensity returns the summed intensity of all peaks.
func (s *Spectrum) TotalIntensity() float64 {
	total := 0.0
	for _, p := range s.Peaks {
		total += p.Intensity
	}
	return total
}

// Clone returns a deep copy of the spectrum.
func (s *Spectrum) Clone() *Spectrum {
	c := *s
	c.Peaks = make([]Peak, len(s.Peaks))
	copy(c.Peaks, s.Peaks)
	if s.RetentionTime != nil {
		rt := *s.RetentionTime
		c.RetentionTime = &rt
	}
	return &c
}

// Name returns the spectrum name in format "NativeID/Charge"
func (s *Spectrum) Name() string {
	id := s.NativeID
	if id == "" {
		id = fmt.Sprintf("index=%d", s.Index)
	}
	return fmt.Sprintf("%s/%d", id, s.Charge)
}

// PeaksSorted reports whether peaks are ascending by m/z.
func PeaksSorted(peaks []Peak) bool {
	for i := 1; i < len(peaks); i++ {
		if peaks[i].MZ < peaks[i-1].MZ {
			return false
		}
	}
	return true
}

// SortPeaks sorts a peak slice by m/z, stable on ties.
func SortPeaks(peaks []Peak) {
	sort.SliceStable(peaks, func(i, j int) bool {
		return peaks[i].MZ < peaks[j].MZ
	})
}
