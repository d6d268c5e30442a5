// Package candidate enumerates cross-link candidates for a precursor mass:
// peptide pairs joined by a linker, and single peptides carrying a
// mono-link or a loop-link.
package candidate

import (
	"fmt"

	"github.com/ChrisMcGann/xlsearch/pkg/core"
)

// Kind is the linker variant of a candidate.
type Kind int

const (
	KindCross Kind = iota
	KindMono
	KindLoop
)

func (k Kind) String() string {
	switch k {
	case KindCross:
		return "cross"
	case KindMono:
		return "mono"
	case KindLoop:
		return "loop"
	default:
		return "unknown"
	}
}

// Link is one of Cross, Mono or Loop.
type Link interface {
	Kind() Kind
	isLink()
}

// Cross joins residue AlphaPos of Alpha to residue BetaPos of Beta.
// Alpha is the longer peptide, or the heavier one at equal length.
type Cross struct {
	Alpha, Beta       core.Peptide
	AlphaPos, BetaPos int
}

// Mono is a peptide with a linker attached at Pos and a free second arm.
type Mono struct {
	Peptide core.Peptide
	Pos     int
}

// Loop joins residues PosA < PosB of the same peptide.
type Loop struct {
	Peptide    core.Peptide
	PosA, PosB int
}

func (Cross) Kind() Kind { return KindCross }
func (Mono) Kind() Kind  { return KindMono }
func (Loop) Kind() Kind  { return KindLoop }

func (Cross) isLink() {}
func (Mono) isLink()  {}
func (Loop) isLink()  {}

// Candidate is a concrete cross-link placement to score against a spectrum.
type Candidate struct {
	Link       Link
	LinkerMass float64 // linker mass, or the mono-link mass for Mono
	LinkerName string
	Correction int // isotope peaks subtracted from the precursor mass
	Decoys     int // chains taken from decoy proteins
}

// IsDecoy reports whether any chain comes from a decoy protein.
func (c Candidate) IsDecoy() bool {
	return c.Decoys > 0
}

// Kind returns the linker variant.
func (c Candidate) Kind() Kind {
	return c.Link.Kind()
}

// Alpha returns the alpha (or only) peptide.
func (c Candidate) Alpha() core.Peptide {
	switch l := c.Link.(type) {
	case Cross:
		return l.Alpha
	case Mono:
		return l.Peptide
	case Loop:
		return l.Peptide
	default:
		panic(fmt.Sprintf("candidate: unknown link type %T", c.Link))
	}
}

// Beta returns the beta peptide of a cross-link.
func (c Candidate) Beta() (core.Peptide, bool) {
	if l, ok := c.Link.(Cross); ok {
		return l.Beta, true
	}
	return core.Peptide{}, false
}

// Positions returns the two link positions. For Cross they are on alpha
// and beta, for Loop both are on the peptide, for Mono the second is -1.
func (c Candidate) Positions() (int, int) {
	switch l := c.Link.(type) {
	case Cross:
		return l.AlphaPos, l.BetaPos
	case Mono:
		return l.Pos, -1
	case Loop:
		return l.PosA, l.PosB
	default:
		panic(fmt.Sprintf("candidate: unknown link type %T", c.Link))
	}
}

// Mass returns the neutral mass of the linked product.
func (c Candidate) Mass() float64 {
	mass := c.Alpha().Mass + c.LinkerMass
	if beta, ok := c.Beta(); ok {
		mass += beta.Mass
	}
	return mass
}

// String renders the candidate in the usual "ALPHA-BETA-a1-b2" notation
// with 1-based positions.
func (c Candidate) String() string {
	switch l := c.Link.(type) {
	case Cross:
		return fmt.Sprintf("%s-%s-a%d-b%d", l.Alpha, l.Beta, l.AlphaPos+1, l.BetaPos+1)
	case Mono:
		return fmt.Sprintf("%s-%d-%.4f", l.Peptide, l.Pos+1, c.LinkerMass)
	case Loop:
		return fmt.Sprintf("%s-%d-%d", l.Peptide, l.PosA+1, l.PosB+1)
	default:
		panic(fmt.Sprintf("candidate: unknown link type %T", c.Link))
	}
}

// canonical reports whether a should be alpha over b: longer first, then heavier.
func canonical(a, b core.Peptide) bool {
	if a.Len() != b.Len() {
		return a.Len() > b.Len()
	}
	return a.Mass >= b.Mass
}
