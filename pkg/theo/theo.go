// Package theo generates labelled theoretical b/y fragment spectra for
// linked peptides.
package theo

import (
	"fmt"

	"github.com/ChrisMcGann/xlsearch/pkg/core"
)

// Site is the linked residue on a peptide. Loop-links also set Partner,
// the second linked residue; otherwise Partner is -1.
type Site struct {
	Pos     int
	Partner int
}

// Single returns a Site for a peptide linked at one residue.
func Single(pos int) Site {
	return Site{Pos: pos, Partner: -1}
}

func (s Site) bounds(n int) (int, int) {
	lo, hi := s.Pos, s.Pos
	if s.Partner >= 0 {
		if s.Partner < lo {
			lo = s.Partner
		}
		if s.Partner > hi {
			hi = s.Partner
		}
	}
	if lo < 0 || hi >= n {
		panic(fmt.Sprintf("theo: link site %+v outside peptide of length %d", s, n))
	}
	return lo, hi
}

// Generator builds b and y ion ladders. Every peak has unit intensity.
type Generator struct{}

// CommonIons returns the fragments of p that do not contain the link,
// at charges 1..maxCharge, sorted by m/z.
func (Generator) CommonIons(p core.Peptide, site Site, alpha bool, maxCharge int) []core.Peak {
	n := p.Len()
	lo, hi := site.bounds(n)
	return ladder(p, alpha, "ci", 0, 1, maxCharge,
		func(i int) bool { return i <= lo },
		func(i int) bool { return n-i > hi })
}

// CrossLinkIons returns the fragments of p that carry the link. Each one
// also carries the rest of the linked product, precursorMass - p.Mass.
// Charges run from minCharge to maxCharge; peaks are sorted by m/z.
func (Generator) CrossLinkIons(p core.Peptide, site Site, precursorMass float64, alpha bool, minCharge, maxCharge int) []core.Peak {
	n := p.Len()
	lo, hi := site.bounds(n)
	return ladder(p, alpha, "xi", precursorMass-p.Mass, minCharge, maxCharge,
		func(i int) bool { return i > hi },
		func(i int) bool { return n-i <= lo })
}

// ladder emits b_i, covering residues [0, i), and y_i, covering [n-i, n),
// for 1 <= i < n wherever keepB or keepY allows.
func ladder(p core.Peptide, alpha bool, series string, extra float64, minCharge, maxCharge int, keepB, keepY func(int) bool) []core.Peak {
	chain := "beta"
	if alpha {
		chain = "alpha"
	}
	if minCharge < 1 {
		minCharge = 1
	}

	residues := p.ResidueMasses()
	n := len(residues)
	prefix := make([]float64, n+1)
	for i, m := range residues {
		prefix[i+1] = prefix[i] + m
	}

	var peaks []core.Peak
	for z := minCharge; z <= maxCharge; z++ {
		for i := 1; i < n; i++ {
			if keepB(i) {
				peaks = append(peaks, core.Peak{
					MZ:         core.MZ(prefix[i]+extra, z),
					Intensity:  1,
					Charge:     z,
					Annotation: fmt.Sprintf("%s|%s$b%d", chain, series, i),
				})
			}
			if keepY(i) {
				peaks = append(peaks, core.Peak{
					MZ:         core.MZ(prefix[n]-prefix[n-i]+core.WaterMass+extra, z),
					Intensity:  1,
					Charge:     z,
					Annotation: fmt.Sprintf("%s|%s$y%d", chain, series, i),
				})
			}
		}
	}

	core.SortPeaks(peaks)
	return peaks
}
