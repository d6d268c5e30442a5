package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ChrisMcGann/xlsearch/pkg/core"
	"github.com/spf13/viper"
)

func defaults() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	return v
}

func TestLoadDefaults(t *testing.T) {
	c, err := Load(defaults(), "")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	opt := c.SearchOptions()
	if opt.Candidates.Tolerance != (core.Tolerance{Value: 10, Unit: core.PPM}) {
		t.Errorf("precursor tolerance = %v", opt.Candidates.Tolerance)
	}
	if opt.CommonTolerance != (core.Tolerance{Value: 0.2, Unit: core.Dalton}) {
		t.Errorf("common tolerance = %v", opt.CommonTolerance)
	}
	if opt.XLinkTolerance.Value != 0.3 {
		t.Errorf("cross-link tolerance = %v", opt.XLinkTolerance)
	}
	if len(opt.Candidates.MonoLinkMasses) != 2 {
		t.Errorf("mono-link masses = %v", opt.Candidates.MonoLinkMasses)
	}
	if opt.Preprocess.MinCharge != 3 || opt.Preprocess.MaxCharge != 7 || opt.Preprocess.MinPeptideLength != 5 {
		t.Errorf("preprocess = %+v", opt.Preprocess)
	}
	if opt.TopHits != 5 {
		t.Errorf("top hits = %d, want 5", opt.TopHits)
	}
	if got := opt.Candidates.Corrections; len(got) != 3 || got[0] != 2 || got[2] != 0 {
		t.Errorf("corrections = %v, want [2 1 0]", got)
	}
	if opt.Preprocess.IsotopeMinCharge != 1 || opt.Preprocess.IsotopeMaxCharge != 7 {
		t.Errorf("isotope charges = %d..%d, want 1..7", opt.Preprocess.IsotopeMinCharge, opt.Preprocess.IsotopeMaxCharge)
	}
	if opt.Preprocess.FragmentTolerance != opt.XLinkTolerance {
		t.Errorf("deisotoping tolerance = %v, want the cross-link tolerance %v", opt.Preprocess.FragmentTolerance, opt.XLinkTolerance)
	}
	if ix := c.Index(); ix.DecoyString != "decoy" || !ix.DecoyPrefix {
		t.Errorf("decoys = %q prefix %v", ix.DecoyString, ix.DecoyPrefix)
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "params.yaml")
	params := `
precursor:
  tolerance: 5
  min-charge: 2
  corrections: [1, 0]
digest:
  decoy-string: _rev
  decoy-prefix: false
deisotope:
  max-charge: 4
fragment:
  unit: ppm
  tolerance: 15
  tolerance-xlinks: 20
linker:
  name: BS3
  residues1: KSTY
search:
  spectrum-timeout: 30s
report:
  top-hits: 1
`
	if err := os.WriteFile(path, []byte(params), 0o644); err != nil {
		t.Fatal(err)
	}

	c, err := Load(defaults(), path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	opt := c.SearchOptions()
	tests := []struct {
		name string
		ok   bool
	}{
		{"precursor tolerance", opt.Candidates.Tolerance.Value == 5},
		{"min charge", opt.Preprocess.MinCharge == 2},
		{"corrections", len(opt.Candidates.Corrections) == 2 && opt.Candidates.Corrections[0] == 1},
		{"decoy suffix", c.Index().IsDecoy("P1_rev") && !c.Index().IsDecoy("_revP1")},
		{"isotope max charge", opt.Preprocess.IsotopeMaxCharge == 4},
		{"fragment ppm", opt.CommonTolerance == core.Tolerance{Value: 15, Unit: core.PPM}},
		{"xlink ppm", opt.XLinkTolerance == core.Tolerance{Value: 20, Unit: core.PPM}},
		{"linker name", opt.Candidates.LinkerName == "BS3"},
		{"residues1", opt.Candidates.Residues1 == "KSTY"},
		{"residues2 default", opt.Candidates.Residues2 == "K"},
		{"timeout", opt.SpectrumTimeout == 30*time.Second},
		{"top hits", opt.TopHits == 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !tt.ok {
				t.Errorf("%s not applied: %+v", tt.name, c)
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(defaults(), filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Load() of a missing file returned nil error")
	}
}

func TestValidate(t *testing.T) {
	base, err := Load(defaults(), "")
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name   string
		modify func(*Config)
		want   []string
	}{
		{"valid", func(*Config) {}, nil},
		{"charge range", func(c *Config) { c.Precursor.MinCharge = 5; c.Precursor.MaxCharge = 4 }, []string{"min-charge 5 exceeds max-charge 4"}},
		{"unit", func(c *Config) { c.Fragment.Unit = "mmu" }, []string{"fragment.unit"}},
		{"tolerance", func(c *Config) { c.Precursor.Tolerance = 0 }, []string{"precursor.tolerance"}},
		{"enzyme", func(c *Config) { c.Digest.Enzyme = "pepsin" }, []string{"digest.enzyme"}},
		{"residues", func(c *Config) { c.Linker.Residues2 = "" }, []string{"linker.residues2"}},
		{"corrections", func(c *Config) { c.Precursor.Corrections = []int{1, -1} }, []string{"precursor.corrections"}},
		{"isotope charges", func(c *Config) { c.Deisotope.MinCharge = 0 }, []string{"deisotope.min-charge"}},
		{"several", func(c *Config) {
			c.Linker.Residues1 = "K1"
			c.Report.TopHits = 0
		}, []string{"linker.residues1", "report.top-hits"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := base
			tt.modify(&c)
			err := c.Validate()
			if len(tt.want) == 0 {
				if err != nil {
					t.Errorf("Validate() error = %v", err)
				}
				return
			}
			if err == nil {
				t.Fatal("Validate() returned nil error")
			}
			for _, w := range tt.want {
				if !strings.Contains(err.Error(), w) {
					t.Errorf("Validate() error %q does not mention %q", err, w)
				}
			}
		})
	}
}

func TestExpander(t *testing.T) {
	c, err := Load(defaults(), "")
	if err != nil {
		t.Fatal(err)
	}
	db, err := c.ModDatabase()
	if err != nil {
		t.Fatal(err)
	}

	e, err := c.Expander(db)
	if err != nil {
		t.Fatalf("Expander() error = %v", err)
	}
	if len(e.Fixed) != 1 || e.Fixed[0].Residue != 'C' {
		t.Errorf("fixed = %v", e.Fixed)
	}
	if len(e.Variable) != 1 || e.Variable[0].Residue != 'M' {
		t.Errorf("variable = %v", e.Variable)
	}

	c.Digest.Variable = []string{"NotAMod (K)"}
	if _, err := c.Expander(db); err == nil {
		t.Error("Expander() with unknown modification returned nil error")
	}
}

func TestModDatabaseFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mods.csv")
	if err := os.WriteFile(path, []byte("mod,massshift,aa\nXlink:Custom,100.5,K\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	c, err := Load(defaults(), "")
	if err != nil {
		t.Fatal(err)
	}
	c.Digest.ModsFile = path

	db, err := c.ModDatabase()
	if err != nil {
		t.Fatalf("ModDatabase() error = %v", err)
	}
	if m, ok := db.GetMass("Xlink:Custom"); !ok || m != 100.5 {
		t.Errorf("GetMass(Xlink:Custom) = %v, %v", m, ok)
	}
}
