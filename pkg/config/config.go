// Package config holds the search parameters. Values are unmarshalled
// from Viper, which merges defaults, an optional parameters file and
// command line flags (see cmd/xlsearch).
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ChrisMcGann/xlsearch/pkg/candidate"
	"github.com/ChrisMcGann/xlsearch/pkg/core"
	"github.com/ChrisMcGann/xlsearch/pkg/digest"
	"github.com/ChrisMcGann/xlsearch/pkg/index"
	"github.com/ChrisMcGann/xlsearch/pkg/preprocess"
	"github.com/ChrisMcGann/xlsearch/pkg/search"
	"github.com/spf13/viper"
)

// PrecursorConfig settings about precursor ions
type PrecursorConfig struct {
	// width of the precursor mass window
	Tolerance float64 `mapstructure:"tolerance"`
	// unit of Tolerance, ppm or Da
	Unit string `mapstructure:"unit"`
	// precursor charges outside [MinCharge, MaxCharge] are skipped
	MinCharge int `mapstructure:"min-charge"`
	MaxCharge int `mapstructure:"max-charge"`
	// isotope peaks n tried as monoisotopic mass m - n*(C13-C12), later entries preferred
	Corrections []int `mapstructure:"corrections"`
}

// FragmentConfig settings about fragment matching
type FragmentConfig struct {
	// tolerance for common ions
	Tolerance float64 `mapstructure:"tolerance"`
	// tolerance for cross-link ions
	XLinkTolerance float64 `mapstructure:"tolerance-xlinks"`
	// unit of both tolerances
	Unit string `mapstructure:"unit"`
	// min/max intensity ratio a matched peak pair must exceed, 0 disables
	IntensityCutoff float64 `mapstructure:"intensity-cutoff"`
}

// DigestConfig settings about the in silico digestion
type DigestConfig struct {
	Enzyme          string `mapstructure:"enzyme"`
	MissedCleavages int    `mapstructure:"missed-cleavages"`
	MinLength       int    `mapstructure:"min-length"`
	MaxLength       int    `mapstructure:"max-length"`

	// modifications as "Name (sites)", e.g. "Carbamidomethyl (C)"
	Fixed    []string `mapstructure:"fixed"`
	Variable []string `mapstructure:"variable"`
	// variable modifications allowed per peptide
	MaxVariable int `mapstructure:"max-variable"`
	// optional CSV (mod,massshift,aa) extending the built-in modifications
	ModsFile string `mapstructure:"mods-file"`

	// marks decoy protein accessions, empty disables decoys
	DecoyString string `mapstructure:"decoy-string"`
	// DecoyString is a prefix of the accession, otherwise a suffix
	DecoyPrefix bool `mapstructure:"decoy-prefix"`
}

// LinkerConfig describes the cross-linker
type LinkerConfig struct {
	Name string  `mapstructure:"name"`
	Mass float64 `mapstructure:"mass"`
	// masses of the linker attached to a single peptide
	MonoLinkMasses []float64 `mapstructure:"mono-link-masses"`
	// residues each arm can attach to
	Residues1 string `mapstructure:"residues1"`
	Residues2 string `mapstructure:"residues2"`
	// whether protein termini are linkable
	NTerm bool `mapstructure:"n-term"`
	CTerm bool `mapstructure:"c-term"`
}

// DeisotopeConfig settings for spectrum preprocessing
type DeisotopeConfig struct {
	// fragment charges tried for isotope clusters
	MinCharge       int     `mapstructure:"min-charge"`
	MaxCharge       int     `mapstructure:"max-charge"`
	MinIsotopePeaks int     `mapstructure:"min-isotope-peaks"`
	MaxIsotopePeaks int     `mapstructure:"max-isotope-peaks"`
	SingleCharged   bool    `mapstructure:"single-charged"`
	MinIntensity    float64 `mapstructure:"min-intensity"`
	TopN            int     `mapstructure:"top-n"`
}

// SearchConfig settings for the search run
type SearchConfig struct {
	// worker goroutines, 0 uses every CPU
	Threads int `mapstructure:"threads"`
	// scoring budget per spectrum, 0 disables it
	SpectrumTimeout time.Duration `mapstructure:"spectrum-timeout"`
}

// ReportConfig settings about reported matches
type ReportConfig struct {
	TopHits int `mapstructure:"top-hits"`
}

// Config is the root-level settings struct
type Config struct {
	Precursor PrecursorConfig `mapstructure:"precursor"`
	Fragment  FragmentConfig  `mapstructure:"fragment"`
	Digest    DigestConfig    `mapstructure:"digest"`
	Linker    LinkerConfig    `mapstructure:"linker"`
	Deisotope DeisotopeConfig `mapstructure:"deisotope"`
	Search    SearchConfig    `mapstructure:"search"`
	Report    ReportConfig    `mapstructure:"report"`
}

// SetDefaults registers the default value of every key on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("precursor.tolerance", 10.0)
	v.SetDefault("precursor.unit", "ppm")
	v.SetDefault("precursor.min-charge", 3)
	v.SetDefault("precursor.max-charge", 7)
	v.SetDefault("precursor.corrections", []int{2, 1, 0})

	v.SetDefault("fragment.tolerance", 0.2)
	v.SetDefault("fragment.tolerance-xlinks", 0.3)
	v.SetDefault("fragment.unit", "da")
	v.SetDefault("fragment.intensity-cutoff", 0.0)

	v.SetDefault("digest.enzyme", "trypsin")
	v.SetDefault("digest.missed-cleavages", 2)
	v.SetDefault("digest.min-length", 5)
	v.SetDefault("digest.max-length", 50)
	v.SetDefault("digest.fixed", []string{"Carbamidomethyl (C)"})
	v.SetDefault("digest.variable", []string{"Oxidation (M)"})
	v.SetDefault("digest.max-variable", 2)
	v.SetDefault("digest.mods-file", "")
	v.SetDefault("digest.decoy-string", "decoy")
	v.SetDefault("digest.decoy-prefix", true)

	v.SetDefault("linker.name", "DSS")
	v.SetDefault("linker.mass", 138.0680796)
	v.SetDefault("linker.mono-link-masses", []float64{156.07864431, 155.094628715})
	v.SetDefault("linker.residues1", "K")
	v.SetDefault("linker.residues2", "K")
	v.SetDefault("linker.n-term", true)
	v.SetDefault("linker.c-term", false)

	v.SetDefault("deisotope.min-charge", 1)
	v.SetDefault("deisotope.max-charge", 7)
	v.SetDefault("deisotope.min-isotope-peaks", 3)
	v.SetDefault("deisotope.max-isotope-peaks", 10)
	v.SetDefault("deisotope.single-charged", false)
	v.SetDefault("deisotope.min-intensity", 0.0)
	v.SetDefault("deisotope.top-n", 500)

	v.SetDefault("search.threads", 0)
	v.SetDefault("search.spectrum-timeout", time.Duration(0))

	v.SetDefault("report.top-hits", 5)
}

// Load reads the optional parameters file at path into v and returns the
// validated configuration. Defaults must already be registered on v.
func Load(v *viper.Viper, path string) (Config, error) {
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("failed to read parameters file: %w", err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unable to decode parameters: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Validate reports every inconsistent setting.
func (c Config) Validate() error {
	var errs []error
	check := func(ok bool, format string, args ...interface{}) {
		if !ok {
			errs = append(errs, fmt.Errorf(format, args...))
		}
	}

	_, err := core.ParseUnit(c.Precursor.Unit)
	check(err == nil, "precursor.unit: unknown unit '%s'", c.Precursor.Unit)
	_, err = core.ParseUnit(c.Fragment.Unit)
	check(err == nil, "fragment.unit: unknown unit '%s'", c.Fragment.Unit)
	check(c.Precursor.Tolerance > 0, "precursor.tolerance must be positive, got %g", c.Precursor.Tolerance)
	check(c.Fragment.Tolerance > 0, "fragment.tolerance must be positive, got %g", c.Fragment.Tolerance)
	check(c.Fragment.XLinkTolerance > 0, "fragment.tolerance-xlinks must be positive, got %g", c.Fragment.XLinkTolerance)
	check(c.Fragment.IntensityCutoff >= 0 && c.Fragment.IntensityCutoff < 1,
		"fragment.intensity-cutoff must be in [0, 1), got %g", c.Fragment.IntensityCutoff)

	check(c.Precursor.MinCharge >= 1, "precursor.min-charge must be at least 1, got %d", c.Precursor.MinCharge)
	check(c.Precursor.MinCharge <= c.Precursor.MaxCharge,
		"precursor.min-charge %d exceeds max-charge %d", c.Precursor.MinCharge, c.Precursor.MaxCharge)

	for _, n := range c.Precursor.Corrections {
		check(n >= 0, "precursor.corrections must not be negative, got %d", n)
	}

	_, err = digest.LookupEnzyme(c.Digest.Enzyme)
	check(err == nil, "digest.enzyme: %v", err)
	check(c.Digest.MissedCleavages >= 0, "digest.missed-cleavages must not be negative, got %d", c.Digest.MissedCleavages)
	check(c.Digest.MinLength >= 1, "digest.min-length must be at least 1, got %d", c.Digest.MinLength)
	check(c.Digest.MaxLength == 0 || c.Digest.MaxLength >= c.Digest.MinLength,
		"digest.max-length %d is below min-length %d", c.Digest.MaxLength, c.Digest.MinLength)
	check(c.Digest.MaxVariable >= 0, "digest.max-variable must not be negative, got %d", c.Digest.MaxVariable)

	check(c.Linker.Mass > 0, "linker.mass must be positive, got %g", c.Linker.Mass)
	check(validResidues(c.Linker.Residues1), "linker.residues1: invalid residue set '%s'", c.Linker.Residues1)
	check(validResidues(c.Linker.Residues2), "linker.residues2: invalid residue set '%s'", c.Linker.Residues2)

	check(c.Deisotope.MinCharge >= 1, "deisotope.min-charge must be at least 1, got %d", c.Deisotope.MinCharge)
	check(c.Deisotope.MinCharge <= c.Deisotope.MaxCharge,
		"deisotope.min-charge %d exceeds max-charge %d", c.Deisotope.MinCharge, c.Deisotope.MaxCharge)
	check(c.Deisotope.MinIntensity >= 0, "deisotope.min-intensity must not be negative, got %g", c.Deisotope.MinIntensity)
	check(c.Deisotope.MinIsotopePeaks >= 1, "deisotope.min-isotope-peaks must be at least 1, got %d", c.Deisotope.MinIsotopePeaks)
	check(c.Deisotope.MaxIsotopePeaks >= c.Deisotope.MinIsotopePeaks,
		"deisotope.max-isotope-peaks %d is below min-isotope-peaks %d", c.Deisotope.MaxIsotopePeaks, c.Deisotope.MinIsotopePeaks)
	check(c.Deisotope.TopN >= 0, "deisotope.top-n must not be negative, got %d", c.Deisotope.TopN)

	check(c.Search.Threads >= 0, "search.threads must not be negative, got %d", c.Search.Threads)
	check(c.Search.SpectrumTimeout >= 0, "search.spectrum-timeout must not be negative, got %s", c.Search.SpectrumTimeout)
	check(c.Report.TopHits >= 1, "report.top-hits must be at least 1, got %d", c.Report.TopHits)

	return errors.Join(errs...)
}

func validResidues(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if !core.IsValidResidue(s[i]) {
			return false
		}
	}
	return true
}

func tolerance(value float64, unit string) core.Tolerance {
	u, _ := core.ParseUnit(unit)
	return core.Tolerance{Value: value, Unit: u}
}

// ModDatabase returns the built-in modifications extended by ModsFile.
func (c Config) ModDatabase() (*core.ModDatabase, error) {
	db := core.DefaultModDatabase()
	if c.Digest.ModsFile == "" {
		return db, nil
	}

	f, err := os.Open(c.Digest.ModsFile)
	if err != nil {
		return nil, fmt.Errorf("failed to open modifications file: %w", err)
	}
	defer f.Close()

	if err := db.LoadFromCSV(f); err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", c.Digest.ModsFile, err)
	}
	return db, nil
}

// Digester returns the protein digester.
func (c Config) Digester() (digest.Digester, error) {
	enzyme, err := digest.LookupEnzyme(c.Digest.Enzyme)
	if err != nil {
		return digest.Digester{}, err
	}
	return digest.Digester{
		Enzyme:          enzyme,
		MissedCleavages: c.Digest.MissedCleavages,
		MinLength:       c.Digest.MinLength,
		MaxLength:       c.Digest.MaxLength,
	}, nil
}

// Expander resolves the fixed and variable modifications against db.
func (c Config) Expander(db *core.ModDatabase) (digest.Expander, error) {
	parse := func(specs []string) ([]core.ModSpec, error) {
		var out []core.ModSpec
		for _, s := range specs {
			if strings.TrimSpace(s) == "" {
				continue
			}
			parsed, err := db.ParseSpec(s)
			if err != nil {
				return nil, err
			}
			out = append(out, parsed...)
		}
		return out, nil
	}

	fixed, err := parse(c.Digest.Fixed)
	if err != nil {
		return digest.Expander{}, fmt.Errorf("fixed modifications: %w", err)
	}
	variable, err := parse(c.Digest.Variable)
	if err != nil {
		return digest.Expander{}, fmt.Errorf("variable modifications: %w", err)
	}
	return digest.Expander{Fixed: fixed, Variable: variable, MaxVariable: c.Digest.MaxVariable}, nil
}

// Index returns the peptide mass index settings.
func (c Config) Index() index.Config {
	return index.Config{
		MinLength:   c.Digest.MinLength,
		Residues1:   c.Linker.Residues1,
		Residues2:   c.Linker.Residues2,
		NTermLinker: c.Linker.NTerm,
		CTermLinker: c.Linker.CTerm,
		DecoyString: c.Digest.DecoyString,
		DecoyPrefix: c.Digest.DecoyPrefix,
	}
}

// Preprocess returns the spectrum preprocessing settings.
func (c Config) Preprocess() preprocess.Config {
	p := preprocess.DefaultConfig()
	p.MinCharge = c.Precursor.MinCharge
	p.MaxCharge = c.Precursor.MaxCharge
	p.IsotopeMinCharge = c.Deisotope.MinCharge
	p.IsotopeMaxCharge = c.Deisotope.MaxCharge
	p.MinPeptideLength = c.Digest.MinLength
	p.FragmentTolerance = tolerance(c.Fragment.XLinkTolerance, c.Fragment.Unit)
	p.MinIntensity = c.Deisotope.MinIntensity
	p.MinIsotopePeaks = c.Deisotope.MinIsotopePeaks
	p.MaxIsotopePeaks = c.Deisotope.MaxIsotopePeaks
	p.MakeSingleCharged = c.Deisotope.SingleCharged
	p.TopN = c.Deisotope.TopN
	return p
}

// SearchOptions returns the engine options.
func (c Config) SearchOptions() search.Options {
	opt := search.DefaultOptions()
	opt.Preprocess = c.Preprocess()
	opt.Candidates = candidate.Config{
		LinkerName:     c.Linker.Name,
		LinkerMass:     c.Linker.Mass,
		MonoLinkMasses: c.Linker.MonoLinkMasses,
		Residues1:      c.Linker.Residues1,
		Residues2:      c.Linker.Residues2,
		NTermLinker:    c.Linker.NTerm,
		CTermLinker:    c.Linker.CTerm,
		Tolerance:      tolerance(c.Precursor.Tolerance, c.Precursor.Unit),
		Corrections:    c.Precursor.Corrections,
	}
	opt.CommonTolerance = tolerance(c.Fragment.Tolerance, c.Fragment.Unit)
	opt.XLinkTolerance = tolerance(c.Fragment.XLinkTolerance, c.Fragment.Unit)
	opt.IntensityCutoff = c.Fragment.IntensityCutoff
	opt.TopHits = c.Report.TopHits
	opt.Threads = c.Search.Threads
	opt.SpectrumTimeout = c.Search.SpectrumTimeout
	return opt
}
