// Package digest provides in-silico protein digestion and modification
// expansion for building the peptide mass index.
package digest

import (
	"fmt"
	"sort"
	"strings"
)

// Enzyme describes where a protease cleaves.
type Enzyme struct {
	Name         string
	CleaveAfter  string // residues whose C-terminal bond is cleaved
	CleaveBefore string // residues whose N-terminal bond is cleaved
	NotBefore    string // no cleavage when the next residue is one of these
}

var enzymes = map[string]Enzyme{
	"trypsin":   {Name: "Trypsin", CleaveAfter: "KR", NotBefore: "P"},
	"trypsin/p": {Name: "Trypsin/P", CleaveAfter: "KR"},
	"lys-c":     {Name: "Lys-C", CleaveAfter: "K", NotBefore: "P"},
	"arg-c":     {Name: "Arg-C", CleaveAfter: "R", NotBefore: "P"},
	"asp-n":     {Name: "Asp-N", CleaveBefore: "D"},
}

// LookupEnzyme returns the enzyme with the given (case-insensitive) name.
func LookupEnzyme(name string) (Enzyme, error) {
	e, ok := enzymes[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return Enzyme{}, fmt.Errorf("unknown enzyme '%s', must be one of %s", name, strings.Join(EnzymeNames(), ", "))
	}
	return e, nil
}

// EnzymeNames lists the supported enzymes.
func EnzymeNames() []string {
	var names []string
	for _, e := range enzymes {
		names = append(names, e.Name)
	}
	sort.Strings(names)
	return names
}

// cleavesAt reports whether the bond between seq[i-1] and seq[i] is cut.
func (e Enzyme) cleavesAt(seq string, i int) bool {
	if strings.IndexByte(e.NotBefore, seq[i]) >= 0 {
		return false
	}
	return strings.IndexByte(e.CleaveAfter, seq[i-1]) >= 0 ||
		strings.IndexByte(e.CleaveBefore, seq[i]) >= 0
}

// Span is a substring view [Start, End) into a protein sequence.
type Span struct {
	Start, End int
}

// Len returns the span length.
func (s Span) Len() int {
	return s.End - s.Start
}

// Digester cuts protein sequences into peptides.
type Digester struct {
	Enzyme          Enzyme
	MissedCleavages int
	MinLength       int
	MaxLength       int // 0 = no limit
}

// Digest returns every peptide span with at most MissedCleavages internal
// cleavage sites and a length within bounds, ordered by start then end.
func (d Digester) Digest(seq string) []Span {
	sites := []int{0}
	for i := 1; i < len(seq); i++ {
		if d.Enzyme.cleavesAt(seq, i) {
			sites = append(sites, i)
		}
	}
	sites = append(sites, len(seq))

	var spans []Span
	for i := 0; i < len(sites)-1; i++ {
		for m := 0; m <= d.MissedCleavages && i+m+1 < len(sites); m++ {
			s := Span{Start: sites[i], End: sites[i+m+1]}
			if s.Len() < d.MinLength {
				continue
			}
			if d.MaxLength > 0 && s.Len() > d.MaxLength {
				break
			}
			spans = append(spans, s)
		}
	}
	return spans
}
