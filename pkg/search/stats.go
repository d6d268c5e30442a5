package search

import (
	"fmt"
	"io"
)

// Stats counts what happened to spectra and candidates during a run.
// Each worker keeps its own Stats; they are merged once the pool drains.
type Stats struct {
	SpectraRead                 int // spectra passed to Run
	SkippedCharge               int // precursor charge outside the configured range
	SkippedTooFewPeaks          int // raw peak count below 2x min peptide length
	SkippedTooFewPeaksProcessed int // too few peaks left after preprocessing
	Searched                    int // spectra that reached candidate generation
	NoCandidates                int // searched spectra with no candidate in the mass window
	Candidates                  int // candidates generated, all spectra
	MaxCandidates               int // most candidates for a single spectrum
	UnlinkablePairs             int // mass-matched pairs with no linkable residue combination
	EmptyTheoretical            int // candidates skipped for an empty alpha ion series
	Unmatched                   int // candidates with no matched fragment peak
	DoubleEmissions             int // peptides emitted as both mono-link and loop-link
	TimedOut                    int // spectra whose scoring hit the per-spectrum timeout
	Matches                     int // ranked matches returned
}

// Merge adds o into s.
func (s *Stats) Merge(o Stats) {
	s.SpectraRead += o.SpectraRead
	s.SkippedCharge += o.SkippedCharge
	s.SkippedTooFewPeaks += o.SkippedTooFewPeaks
	s.SkippedTooFewPeaksProcessed += o.SkippedTooFewPeaksProcessed
	s.Searched += o.Searched
	s.NoCandidates += o.NoCandidates
	s.Candidates += o.Candidates
	if o.MaxCandidates > s.MaxCandidates {
		s.MaxCandidates = o.MaxCandidates
	}
	s.UnlinkablePairs += o.UnlinkablePairs
	s.EmptyTheoretical += o.EmptyTheoretical
	s.Unmatched += o.Unmatched
	s.DoubleEmissions += o.DoubleEmissions
	s.TimedOut += o.TimedOut
	s.Matches += o.Matches
}

// Skipped returns the number of spectra filtered out before searching.
func (s Stats) Skipped() int {
	return s.SkippedCharge + s.SkippedTooFewPeaks + s.SkippedTooFewPeaksProcessed
}

// Print writes a human readable summary.
func (s Stats) Print(w io.Writer) {
	fmt.Fprintf(w, "Spectra read: %d\n", s.SpectraRead)
	fmt.Fprintf(w, "Spectra searched: %d\n", s.Searched)
	if n := s.Skipped(); n > 0 {
		fmt.Fprintf(w, "Skipped: %d spectra (charge %d, too few peaks %d, too few after preprocessing %d)\n",
			n, s.SkippedCharge, s.SkippedTooFewPeaks, s.SkippedTooFewPeaksProcessed)
	}
	if s.NoCandidates > 0 {
		fmt.Fprintf(w, "Spectra without candidates: %d\n", s.NoCandidates)
	}
	fmt.Fprintf(w, "Candidates scored: %d (max %d per spectrum)\n", s.Candidates, s.MaxCandidates)
	if s.EmptyTheoretical > 0 {
		fmt.Fprintf(w, "Candidates without theoretical ions: %d\n", s.EmptyTheoretical)
	}
	if s.UnlinkablePairs > 0 {
		fmt.Fprintf(w, "Pairs without linkable residues: %d\n", s.UnlinkablePairs)
	}
	if s.DoubleEmissions > 0 {
		fmt.Fprintf(w, "Peptides searched as both mono-link and loop-link: %d\n", s.DoubleEmissions)
	}
	if s.TimedOut > 0 {
		fmt.Fprintf(w, "Spectra cut short by timeout: %d\n", s.TimedOut)
	}
	fmt.Fprintf(w, "Matches reported: %d\n", s.Matches)
}
