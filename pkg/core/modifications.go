package core

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
)

// Terminal site names accepted in modification specificities.
const (
	SiteNTerm = "N-term"
	SiteCTerm = "C-term"
)

// ModDef is a named mass shift with its default residue specificity.
type ModDef struct {
	Name     string
	Mass     float64
	Residues string // e.g. "M", "STY", "N-term"
}

// ModSpec is one concrete modification site: a residue or a peptide terminus.
type ModSpec struct {
	Name    string
	Mass    float64
	Residue byte // 0 for terminal specs
	NTerm   bool
	CTerm   bool
}

// String renders the modification as "Name (X)".
func (s ModSpec) String() string {
	switch {
	case s.NTerm:
		return fmt.Sprintf("%s (%s)", s.Name, SiteNTerm)
	case s.CTerm:
		return fmt.Sprintf("%s (%s)", s.Name, SiteCTerm)
	default:
		return fmt.Sprintf("%s (%c)", s.Name, s.Residue)
	}
}

// ModDatabase stores modification definitions
type ModDatabase struct {
	mods map[string]ModDef
}

// NewModDatabase creates an empty modification database
func NewModDatabase() *ModDatabase {
	return &ModDatabase{
		mods: make(map[string]ModDef),
	}
}

// LoadFromCSV loads modifications from a CSV file (format: mod,massshift,aa)
func (db *ModDatabase) LoadFromCSV(r io.Reader) error {
	scanner := bufio.NewScanner(r)

	// header line
	scanner.Scan()

	lineNum := 1
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		parts := strings.Split(line, ",")
		if len(parts) < 2 {
			return fmt.Errorf("line %d: invalid format, expected at least 2 comma-separated fields", lineNum)
		}

		name := strings.TrimSpace(parts[0])
		massStr := strings.TrimSpace(parts[1])

		mass, err := strconv.ParseFloat(massStr, 64)
		if err != nil {
			return fmt.Errorf("line %d: invalid mass value '%s': %w", lineNum, massStr, err)
		}

		residues := ""
		if len(parts) >= 3 {
			residues = strings.TrimSpace(parts[2])
		}
		db.Add(name, mass, residues)
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("error reading CSV: %w", err)
	}

	return nil
}

// GetMass returns the mass shift for a modification name
func (db *ModDatabase) GetMass(name string) (float64, bool) {
	def, ok := db.mods[name]
	return def.Mass, ok
}

// Get returns the full definition for a modification name.
func (db *ModDatabase) Get(name string) (ModDef, bool) {
	def, ok := db.mods[name]
	return def, ok
}

// Add adds or updates a modification
func (db *ModDatabase) Add(name string, mass float64, residues string) {
	db.mods[name] = ModDef{Name: name, Mass: mass, Residues: residues}
}

// Names returns the known modification names in sorted order.
func (db *ModDatabase) Names() []string {
	names := make([]string, 0, len(db.mods))
	for name := range db.mods {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ParseSpec parses a modification specificity such as "Oxidation (M)",
// "Phospho (STY)", "Acetyl (N-term)" or "Carbamidomethyl@C". The name may
// also be a literal mass shift. Without explicit sites the database
// default specificity is used. One ModSpec is returned per site.
func (db *ModDatabase) ParseSpec(spec string) ([]ModSpec, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return nil, fmt.Errorf("empty modification specification")
	}

	name, sites := spec, ""
	if i := strings.Index(spec, "@"); i >= 0 {
		name, sites = spec[:i], spec[i+1:]
	} else if i := strings.Index(spec, "("); i >= 0 {
		if !strings.HasSuffix(spec, ")") {
			return nil, fmt.Errorf("invalid modification format '%s', expected 'Name (sites)'", spec)
		}
		name, sites = spec[:i], spec[i+1:len(spec)-1]
	}
	name = strings.TrimSpace(name)
	sites = strings.TrimSpace(sites)

	mass, err := strconv.ParseFloat(name, 64)
	if err != nil {
		def, ok := db.mods[name]
		if !ok {
			return nil, fmt.Errorf("unknown modification '%s'", name)
		}
		mass = def.Mass
		if sites == "" {
			sites = def.Residues
		}
	}
	if sites == "" {
		return nil, fmt.Errorf("modification '%s' has no site specificity", name)
	}

	switch strings.ToLower(sites) {
	case "n-term", "nterm", "protein n-term":
		return []ModSpec{{Name: name, Mass: mass, NTerm: true}}, nil
	case "c-term", "cterm", "protein c-term":
		return []ModSpec{{Name: name, Mass: mass, CTerm: true}}, nil
	}

	var specs []ModSpec
	for i := 0; i < len(sites); i++ {
		aa := sites[i]
		if !IsValidResidue(aa) {
			return nil, fmt.Errorf("invalid residue '%c' in modification '%s'", aa, spec)
		}
		specs = append(specs, ModSpec{Name: name, Mass: mass, Residue: aa})
	}
	return specs, nil
}

// Matches reports whether the modification can sit at position pos of sequence.
func (s ModSpec) Matches(sequence string, pos int) bool {
	switch {
	case s.NTerm:
		return pos == -1
	case s.CTerm:
		return pos == len(sequence)
	default:
		return pos >= 0 && pos < len(sequence) && sequence[pos] == s.Residue
	}
}

// DefaultModDatabase returns a ModDatabase pre-loaded with common modifications
func DefaultModDatabase() *ModDatabase {
	db := NewModDatabase()

	// Common modifications from unimod
	db.Add("Acetyl", 42.010565, SiteNTerm)
	db.Add("Amidated", -0.984016, SiteCTerm)
	db.Add("Carbamidomethyl", 57.021464, "C")
	db.Add("Carbamyl", 43.005814, SiteNTerm)
	db.Add("Carboxymethyl", 58.005479, "C")
	db.Add("Deamidated", 0.984016, "NQ")
	db.Add("Dimethyl", 28.0313, "K")
	db.Add("Gln->pyro-Glu", -17.026549, "Q")
	db.Add("Glu->pyro-Glu", -18.010565, "E")
	db.Add("Methyl", 14.01565, "KR")
	db.Add("Methylthio", 45.987721, "C")
	db.Add("NIPCAM", 99.068414, "C")
	db.Add("Oxidation", 15.994915, "M")
	db.Add("Phospho", 79.966331, "STY")
	db.Add("Propionamide", 71.037114, "C")
	db.Add("Trimethyl", 42.04695, "K")
	db.Add("TMT6plex", 229.162932, "K")
	db.Add("TMTPro", 304.207146, "K")

	// Hydrolyzed and amidated linker remnants
	db.Add("Xlink:DSS[156]", 156.078644, "K")
	db.Add("Xlink:DSS[155]", 155.094629, "K")
	db.Add("Xlink:BS3[156]", 156.078644, "K")
	db.Add("Xlink:DSSO[176]", 176.014330, "K")

	return db
}
