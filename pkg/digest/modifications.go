package digest

import (
	"sort"

	"github.com/ChrisMcGann/xlsearch/pkg/core"
)

// Expander applies fixed modifications and enumerates variable ones.
type Expander struct {
	Fixed       []core.ModSpec
	Variable    []core.ModSpec
	MaxVariable int // variable modifications per peptide
}

type site struct {
	pos  int
	spec core.ModSpec
}

// Apply returns every modified form of seq. Fixed modifications go on
// every matching site; variable modifications are combined up to
// MaxVariable at a time, at most one per position and never on a
// position that already carries a fixed modification. The unmodified
// variable form comes first.
func (e Expander) Apply(seq string) []core.Peptide {
	var fixed []core.Modification
	taken := make(map[int]bool)
	for pos := -1; pos <= len(seq); pos++ {
		for _, spec := range e.Fixed {
			if spec.Matches(seq, pos) {
				fixed = append(fixed, core.Modification{Mass: spec.Mass, Position: pos, Name: spec.Name})
				taken[pos] = true
				break
			}
		}
	}

	var sites []site
	for pos := -1; pos <= len(seq); pos++ {
		if taken[pos] {
			continue
		}
		for _, spec := range e.Variable {
			if spec.Matches(seq, pos) {
				sites = append(sites, site{pos: pos, spec: spec})
			}
		}
	}

	var peptides []core.Peptide
	var chosen []site
	var walk func(from int)
	walk = func(from int) {
		mods := make([]core.Modification, 0, len(fixed)+len(chosen))
		mods = append(mods, fixed...)
		for _, s := range chosen {
			mods = append(mods, core.Modification{Mass: s.spec.Mass, Position: s.pos, Name: s.spec.Name})
		}
		sort.SliceStable(mods, func(i, j int) bool { return mods[i].Position < mods[j].Position })
		if len(mods) == 0 {
			mods = nil
		}
		peptides = append(peptides, core.NewPeptide(seq, mods))

		if len(chosen) >= e.MaxVariable {
			return
		}
		for i := from; i < len(sites); i++ {
			if len(chosen) > 0 && chosen[len(chosen)-1].pos == sites[i].pos {
				continue
			}
			chosen = append(chosen, sites[i])
			walk(i + 1)
			chosen = chosen[:len(chosen)-1]
		}
	}
	walk(0)

	return peptides
}
