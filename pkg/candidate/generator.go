package candidate

import (
	"sort"
	"strings"

	"github.com/ChrisMcGann/xlsearch/pkg/core"
	"github.com/ChrisMcGann/xlsearch/pkg/index"
)

// Config describes the linker and how precursor masses are matched.
type Config struct {
	LinkerName     string
	LinkerMass     float64
	MonoLinkMasses []float64
	Residues1      string // residues the first arm can attach to
	Residues2      string // residues the second arm can attach to
	NTermLinker    bool   // protein N-terminal residue is linkable
	CTermLinker    bool   // protein C-terminal residue is linkable
	Tolerance      core.Tolerance
	// Corrections are the isotope peaks n tried as monoisotopic precursor
	// mass m - n*(C13-C12). Later entries win when a product matches more
	// than one corrected mass. Empty means {0}.
	Corrections []int
}

func (c Config) corrections() []int {
	if len(c.Corrections) == 0 {
		return []int{0}
	}
	return c.Corrections
}

// Corrected returns precursorMass shifted down by n isotope peaks.
func Corrected(precursorMass float64, n int) float64 {
	return precursorMass - float64(n)*core.C13C12MassDiff
}

// Precursor is one entry of the mass-window list: a pair of index entries
// or a single entry carrying a mono-link or loop-link.
type Precursor struct {
	Mass  float64
	Kind  Kind
	First int // index entry
	Other int // second index entry for KindCross, else -1
	Mono  int // MonoLinkMasses index for KindMono, else -1
}

// Generator holds the global, read-only mass-window list.
type Generator struct {
	index      *index.Index
	cfg        Config
	precursors []Precursor
}

// NewGenerator enumerates every pair and single-peptide product whose mass
// is within tolerance of at least one corrected precursor mass. The result
// is sorted by mass and shared read-only by all Generate calls.
func NewGenerator(ix *index.Index, precursorMasses []float64, cfg Config) *Generator {
	g := &Generator{index: ix, cfg: cfg}
	var masses []float64
	for _, m := range precursorMasses {
		for _, n := range cfg.corrections() {
			masses = append(masses, Corrected(m, n))
		}
	}
	g.precursors = g.enumerate(masses)
	return g
}

// Precursors returns the mass-window list. Callers must not modify it.
func (g *Generator) Precursors() []Precursor {
	return g.precursors
}

func (g *Generator) enumerate(precursorMasses []float64) []Precursor {
	if len(precursorMasses) == 0 || g.index.Len() == 0 {
		return nil
	}
	masses := precursorMasses
	sort.Float64s(masses)

	tol := g.cfg.Tolerance
	minMass := masses[0] - tol.Window(masses[0])
	maxMass := masses[len(masses)-1] + tol.Window(masses[len(masses)-1])

	observed := func(m float64) bool {
		lo, hi := m-tol.Value, m+tol.Value
		if tol.IsPPM() {
			t := tol.Value * 1e-6
			lo, hi = m/(1+t), m/(1-t)
		}
		i := sort.SearchFloat64s(masses, lo)
		return i < len(masses) && masses[i] <= hi
	}

	var out []Precursor
	entries := g.index.Entries()
	for i, e := range entries {
		for k, mono := range g.cfg.MonoLinkMasses {
			if m := e.Mass() + mono; observed(m) {
				out = append(out, Precursor{Mass: m, Kind: KindMono, First: i, Other: -1, Mono: k})
			}
		}
		if m := e.Mass() + g.cfg.LinkerMass; observed(m) && len(g.loopSites(e)) > 0 {
			out = append(out, Precursor{Mass: m, Kind: KindLoop, First: i, Other: -1, Mono: -1})
		}

		rest := e.Mass() + g.cfg.LinkerMass
		start, _ := g.index.Range(minMass-rest, maxMass)
		if start < i {
			start = i
		}
		for j := start; j < len(entries); j++ {
			m := rest + entries[j].Mass()
			if m > maxMass {
				break
			}
			if observed(m) {
				out = append(out, Precursor{Mass: m, Kind: KindCross, First: i, Other: j, Mono: -1})
			}
		}
	}

	sort.SliceStable(out, func(a, b int) bool {
		if out[a].Mass != out[b].Mass {
			return out[a].Mass < out[b].Mass
		}
		if out[a].Kind != out[b].Kind {
			return out[a].Kind < out[b].Kind
		}
		if out[a].First != out[b].First {
			return out[a].First < out[b].First
		}
		if out[a].Other != out[b].Other {
			return out[a].Other < out[b].Other
		}
		return out[a].Mono < out[b].Mono
	})
	return out
}

// Lookup returns the precursors within tolerance of mass.
func (g *Generator) Lookup(mass float64) []Precursor {
	lo, hi := g.window(mass)
	return g.precursors[lo:hi]
}

func (g *Generator) window(mass float64) (int, int) {
	eps := g.cfg.Tolerance.Window(mass)
	lo := sort.Search(len(g.precursors), func(i int) bool { return g.precursors[i].Mass >= mass-eps })
	hi := sort.Search(len(g.precursors), func(i int) bool { return g.precursors[i].Mass > mass+eps })
	return lo, hi
}

// Result is the outcome of Generate for one precursor mass.
type Result struct {
	Candidates      []Candidate
	Precursors      int // mass-window hits
	UnlinkablePairs int // pairs with no residue combination
	DoubleEmissions int // peptides emitted as both mono-link and loop-link
}

// Generate looks up the mass window around every corrected precursorMass
// and expands every hit into concrete link placements, tagged with the
// correction it matched. A peptide whose mono-link and loop-link masses
// both fall in a window yields both kinds.
func (g *Generator) Generate(precursorMass float64) Result {
	matched := make(map[int]int) // precursor list index -> correction
	for _, n := range g.cfg.corrections() {
		lo, hi := g.window(Corrected(precursorMass, n))
		for i := lo; i < hi; i++ {
			matched[i] = n
		}
	}
	hits := make([]int, 0, len(matched))
	for i := range matched {
		hits = append(hits, i)
	}
	sort.Ints(hits)
	res := Result{Precursors: len(hits)}

	mono := make(map[int]bool)
	loop := make(map[int]bool)
	for _, i := range hits {
		p := g.precursors[i]
		expanded := g.Expand(p)
		for k := range expanded {
			expanded[k].Correction = matched[i]
		}
		switch p.Kind {
		case KindCross:
			if len(expanded) == 0 {
				res.UnlinkablePairs++
			}
		case KindMono:
			mono[p.First] = true
		case KindLoop:
			loop[p.First] = true
		}
		res.Candidates = append(res.Candidates, expanded...)
	}
	for i := range loop {
		if mono[i] {
			res.DoubleEmissions++
		}
	}
	return res
}

// Expand places the linker on every allowed residue combination of p.
func (g *Generator) Expand(p Precursor) []Candidate {
	switch p.Kind {
	case KindCross:
		return g.expandCross(g.index.At(p.First), g.index.At(p.Other), p.First == p.Other)
	case KindMono:
		return g.expandMono(g.index.At(p.First), g.cfg.MonoLinkMasses[p.Mono])
	case KindLoop:
		return g.expandLoop(g.index.At(p.First))
	default:
		panic("candidate: unknown precursor kind " + p.Kind.String())
	}
}

func (g *Generator) expandCross(a, b index.Entry, homodimer bool) []Candidate {
	if !canonical(a.Peptide, b.Peptide) {
		a, b = b, a
	}

	var out []Candidate
	seen := make(map[[2]int]bool)
	add := func(alphaSites, betaSites []int) {
		for _, pa := range alphaSites {
			for _, pb := range betaSites {
				if homodimer && pa > pb {
					continue
				}
				key := [2]int{pa, pb}
				if seen[key] {
					continue
				}
				seen[key] = true
				out = append(out, Candidate{
					Link:       Cross{Alpha: a.Peptide, Beta: b.Peptide, AlphaPos: pa, BetaPos: pb},
					LinkerMass: g.cfg.LinkerMass,
					LinkerName: g.cfg.LinkerName,
					Decoys:     decoys(a) + decoys(b),
				})
			}
		}
	}

	add(g.linkSites(a, g.cfg.Residues1), g.linkSites(b, g.cfg.Residues2))
	if g.cfg.Residues1 != g.cfg.Residues2 {
		add(g.linkSites(a, g.cfg.Residues2), g.linkSites(b, g.cfg.Residues1))
	}
	return out
}

func (g *Generator) expandMono(e index.Entry, mass float64) []Candidate {
	var out []Candidate
	for _, pos := range g.linkSites(e, g.cfg.Residues1+g.cfg.Residues2) {
		out = append(out, Candidate{
			Link:       Mono{Peptide: e.Peptide, Pos: pos},
			LinkerMass: mass,
			LinkerName: g.cfg.LinkerName,
			Decoys:     decoys(e),
		})
	}
	return out
}

func (g *Generator) expandLoop(e index.Entry) []Candidate {
	var out []Candidate
	for _, s := range g.loopSites(e) {
		out = append(out, Candidate{
			Link:       Loop{Peptide: e.Peptide, PosA: s[0], PosB: s[1]},
			LinkerMass: g.cfg.LinkerMass,
			LinkerName: g.cfg.LinkerName,
			Decoys:     decoys(e),
		})
	}
	return out
}

// loopSites returns residue pairs a < b where one arm fits each residue set.
func (g *Generator) loopSites(e index.Entry) [][2]int {
	first := siteSet(g.linkSites(e, g.cfg.Residues1))
	second := siteSet(g.linkSites(e, g.cfg.Residues2))

	var out [][2]int
	for a := 0; a < e.Peptide.Len(); a++ {
		for b := a + 1; b < e.Peptide.Len(); b++ {
			if (first[a] && second[b]) || (second[a] && first[b]) {
				out = append(out, [2]int{a, b})
			}
		}
	}
	return out
}

// linkSites returns the sorted positions of e that can carry a linker arm
// reacting with residues, including linkable protein termini.
func (g *Generator) linkSites(e index.Entry, residues string) []int {
	seq := e.Peptide.Sequence
	var sites []int
	for i := 0; i < len(seq); i++ {
		if strings.IndexByte(residues, seq[i]) >= 0 ||
			(i == 0 && g.cfg.NTermLinker && e.Position.Has(index.NTerm)) ||
			(i == len(seq)-1 && g.cfg.CTermLinker && e.Position.Has(index.CTerm)) {
			sites = append(sites, i)
		}
	}
	return sites
}

func siteSet(sites []int) map[int]bool {
	set := make(map[int]bool, len(sites))
	for _, s := range sites {
		set[s] = true
	}
	return set
}

func decoys(e index.Entry) int {
	if e.Decoy {
		return 1
	}
	return 0
}
