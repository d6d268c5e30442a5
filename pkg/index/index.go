// Package index builds the peptide mass index: every linkable, modified
// peptide of a protein database, sorted ascending by mass.
package index

import (
	"sort"
	"strings"

	"github.com/ChrisMcGann/xlsearch/pkg/core"
	"github.com/ChrisMcGann/xlsearch/pkg/digest"
)

// PositionClass is where a peptide sits in its protein. A peptide found in
// several proteins carries the union of its positions.
type PositionClass int

const (
	Internal PositionClass = 0
	NTerm    PositionClass = 1 << 0
	CTerm    PositionClass = 1 << 1
)

// Has reports whether p includes the terminus t.
func (p PositionClass) Has(t PositionClass) bool {
	return p&t != 0
}

func (p PositionClass) String() string {
	switch p {
	case NTerm:
		return "N_TERM"
	case CTerm:
		return "C_TERM"
	case NTerm | CTerm:
		return "N_TERM|C_TERM"
	default:
		return "INTERNAL"
	}
}

// Protein is one database entry.
type Protein struct {
	ID       string
	Sequence string
}

// Entry is one modified peptide variant.
type Entry struct {
	Peptide  core.Peptide
	Position PositionClass
	Protein  string // first protein the peptide was found in
	Decoy    bool   // found only in decoy proteins
}

// Mass returns the peptide's neutral monoisotopic mass.
func (e Entry) Mass() float64 {
	return e.Peptide.Mass
}

// Digester splits a protein sequence into peptide spans.
type Digester interface {
	Digest(seq string) []digest.Span
}

// Modifier expands a peptide sequence into its modified variants.
type Modifier interface {
	Apply(seq string) []core.Peptide
}

// Config controls which digested peptides enter the index.
type Config struct {
	MinLength   int
	Residues1   string // residues the first linker arm can attach to
	Residues2   string // residues the second linker arm can attach to
	NTermLinker bool   // protein N-terminus is linkable
	CTermLinker bool   // protein C-terminus is linkable
	DecoyString string // marks decoy protein accessions, "" disables decoys
	DecoyPrefix bool   // DecoyString is a prefix, otherwise a suffix
}

// IsDecoy reports whether a protein accession marks a decoy protein.
func (c Config) IsDecoy(accession string) bool {
	switch {
	case c.DecoyString == "":
		return false
	case c.DecoyPrefix:
		return strings.HasPrefix(accession, c.DecoyString)
	default:
		return strings.HasSuffix(accession, c.DecoyString)
	}
}

// Stats counts what happened to digested peptides.
type Stats struct {
	Proteins       int
	Digested       int
	InvalidResidue int
	NotLinkable    int
	Duplicates     int
	Entries        int
	Decoys         int // entries found only in decoy proteins
}

// Index is a mass-sorted, read-only list of peptide entries.
type Index struct {
	entries []Entry
}

// Build digests proteins, drops peptides that contain invalid residues or
// cannot carry the linker, expands modifications once per distinct
// sequence and sorts the result by mass (ties by modified sequence).
// Repeated sequences merge their position classes, and stay decoys only
// if every protein they occur in is a decoy.
func Build(proteins []Protein, d Digester, m Modifier, cfg Config) (*Index, Stats) {
	var stats Stats
	seen := make(map[string][]int) // sequence -> its entries
	linkable := cfg.Residues1 + cfg.Residues2
	var entries []Entry

	for _, prot := range proteins {
		stats.Proteins++
		seq := strings.ToUpper(prot.Sequence)
		decoy := cfg.IsDecoy(prot.ID)

		for _, span := range d.Digest(seq) {
			stats.Digested++
			if span.Len() < cfg.MinLength {
				continue
			}
			pep := seq[span.Start:span.End]

			if !validResidues(pep) {
				stats.InvalidResidue++
				continue
			}

			pos := Internal
			if span.Start == 0 {
				pos |= NTerm
			}
			if span.End == len(seq) {
				pos |= CTerm
			}

			if !strings.ContainsAny(pep, linkable) &&
				!(cfg.NTermLinker && pos.Has(NTerm)) &&
				!(cfg.CTermLinker && pos.Has(CTerm)) {
				stats.NotLinkable++
				continue
			}

			if idx, ok := seen[pep]; ok {
				stats.Duplicates++
				for _, k := range idx {
					entries[k].Position |= pos
					entries[k].Decoy = entries[k].Decoy && decoy
				}
				continue
			}

			var idx []int
			for _, variant := range m.Apply(pep) {
				idx = append(idx, len(entries))
				entries = append(entries, Entry{Peptide: variant, Position: pos, Protein: prot.ID, Decoy: decoy})
			}
			seen[pep] = idx
		}
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Peptide.Mass != entries[j].Peptide.Mass {
			return entries[i].Peptide.Mass < entries[j].Peptide.Mass
		}
		return entries[i].Peptide.String() < entries[j].Peptide.String()
	})

	stats.Entries = len(entries)
	for _, e := range entries {
		if e.Decoy {
			stats.Decoys++
		}
	}
	return &Index{entries: entries}, stats
}

// New wraps entries that are already sorted by mass.
func New(entries []Entry) *Index {
	return &Index{entries: entries}
}

func validResidues(seq string) bool {
	for i := 0; i < len(seq); i++ {
		if !core.IsValidResidue(seq[i]) {
			return false
		}
	}
	return true
}

// Len returns the number of entries.
func (ix *Index) Len() int {
	return len(ix.entries)
}

// At returns entry i.
func (ix *Index) At(i int) Entry {
	return ix.entries[i]
}

// Entries returns the sorted entries. Callers must not modify the slice.
func (ix *Index) Entries() []Entry {
	return ix.entries
}

// Range returns the half-open index range of entries with lo <= mass <= hi.
func (ix *Index) Range(lo, hi float64) (int, int) {
	start := sort.Search(len(ix.entries), func(i int) bool { return ix.entries[i].Peptide.Mass >= lo })
	end := sort.Search(len(ix.entries), func(i int) bool { return ix.entries[i].Peptide.Mass > hi })
	return start, end
}
