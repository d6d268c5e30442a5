package core

import (
	"fmt"
	"strings"
)

// Modification represents a peptide modification with position and mass shift.
type Modification struct {
	Mass     float64
	Position int    // 0-based position; -1 for N-term, len(seq) for C-term
	Name     string // Modification name (e.g., "Carbamidomethyl", "Oxidation")
}

// Peptide is a (possibly modified) peptide sequence with its neutral mass.
type Peptide struct {
	Sequence      string
	Modifications []Modification
	Mass          float64
}

// NewPeptide builds a peptide and computes its monoisotopic neutral mass.
func NewPeptide(sequence string, mods []Modification) Peptide {
	return Peptide{
		Sequence:      sequence,
		Modifications: mods,
		Mass:          CalculateNeutralMass(sequence, mods),
	}
}

// Len returns the number of residues.
func (p Peptide) Len() int {
	return len(p.Sequence)
}

// ResidueMasses returns per-residue masses with modifications folded in.
// Terminal modifications are added to the first and last residue.
func (p Peptide) ResidueMasses() []float64 {
	masses := make([]float64, len(p.Sequence))
	for i := 0; i < len(p.Sequence); i++ {
		masses[i], _ = ResidueMass(p.Sequence[i])
	}
	if len(masses) == 0 {
		return masses
	}
	for _, mod := range p.Modifications {
		switch {
		case mod.Position < 0:
			masses[0] += mod.Mass
		case mod.Position >= len(masses):
			masses[len(masses)-1] += mod.Mass
		default:
			masses[mod.Position] += mod.Mass
		}
	}
	return masses
}

// ModString returns modifications in format "mass@pos;mass@pos;..."
func (p Peptide) ModString() string {
	if len(p.Modifications) == 0 {
		return ""
	}

	var parts []string
	for _, mod := range p.Modifications {
		parts = append(parts, fmt.Sprintf("%.6f@%d", mod.Mass, mod.Position))
	}
	return strings.Join(parts, ";")
}

// String returns the modified sequence, e.g. "PEPM(Oxidation)TIDEK".
func (p Peptide) String() string {
	if len(p.Modifications) == 0 {
		return p.Sequence
	}

	byPos := make(map[int][]string)
	for _, mod := range p.Modifications {
		name := mod.Name
		if name == "" {
			name = fmt.Sprintf("%+.4f", mod.Mass)
		}
		byPos[mod.Position] = append(byPos[mod.Position], name)
	}

	var b strings.Builder
	for _, name := range byPos[-1] {
		fmt.Fprintf(&b, "(%s)", name)
	}
	if len(byPos[-1]) > 0 {
		b.WriteByte('.')
	}
	for i := 0; i < len(p.Sequence); i++ {
		b.WriteByte(p.Sequence[i])
		for _, name := range byPos[i] {
			fmt.Fprintf(&b, "(%s)", name)
		}
	}
	if names := byPos[len(p.Sequence)]; len(names) > 0 {
		b.WriteByte('.')
		for _, name := range names {
			fmt.Fprintf(&b, "(%s)", name)
		}
	}
	return b.String()
}
