// Package rank orders scored candidates for one spectrum and assigns
// 1-based ranks.
package rank

import (
	"sort"

	"github.com/ChrisMcGann/xlsearch/pkg/candidate"
	"github.com/ChrisMcGann/xlsearch/pkg/score"
)

// Annotation is one matched fragment peak.
type Annotation struct {
	Label     string
	MZ        float64
	Intensity float64
	Charge    int
}

// Scored is a candidate with its scores against a spectrum.
type Scored struct {
	Candidate   candidate.Candidate
	Score       float64
	Terms       score.Terms
	Annotations []Annotation
}

// Match is a ranked candidate.
type Match struct {
	Scored
	Rank int
}

// Rank sorts scored by descending score and keeps the first topN
// (all when topN <= 0). Equal scores keep their input order, so ranking
// is deterministic for a deterministic candidate order. Annotations are
// sorted and de-duplicated.
func Rank(scored []Scored, topN int) []Match {
	ordered := make([]Scored, len(scored))
	copy(ordered, scored)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Score > ordered[j].Score
	})

	if topN > 0 && len(ordered) > topN {
		ordered = ordered[:topN]
	}

	out := make([]Match, len(ordered))
	for i, s := range ordered {
		s.Annotations = Dedup(s.Annotations)
		out[i] = Match{Scored: s, Rank: i + 1}
	}
	return out
}

// Dedup returns annotations sorted by m/z, then label, charge and
// intensity, with exact duplicates removed. The input is not modified.
func Dedup(in []Annotation) []Annotation {
	if len(in) == 0 {
		return nil
	}
	out := make([]Annotation, len(in))
	copy(out, in)
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.MZ != b.MZ {
			return a.MZ < b.MZ
		}
		if a.Label != b.Label {
			return a.Label < b.Label
		}
		if a.Charge != b.Charge {
			return a.Charge < b.Charge
		}
		return a.Intensity < b.Intensity
	})

	n := 1
	for i := 1; i < len(out); i++ {
		if out[i] != out[n-1] {
			out[n] = out[i]
			n++
		}
	}
	return out[:n]
}
