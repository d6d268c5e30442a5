package digest

import (
	"math"
	"testing"

	"github.com/ChrisMcGann/xlsearch/pkg/core"
)

func TestDigest(t *testing.T) {
	trypsin, err := LookupEnzyme("Trypsin")
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		d    Digester
		seq  string
		want []string
	}{
		{
			name: "no missed cleavages",
			d:    Digester{Enzyme: trypsin, MinLength: 1},
			seq:  "AAKBBRCCKPDD",
			want: []string{"AAK", "BBR", "CCKPDD"},
		},
		{
			name: "one missed cleavage",
			d:    Digester{Enzyme: trypsin, MissedCleavages: 1, MinLength: 1},
			seq:  "AAKBBRCC",
			want: []string{"AAK", "AAKBBR", "BBR", "BBRCC", "CC"},
		},
		{
			name: "length bounds",
			d:    Digester{Enzyme: trypsin, MissedCleavages: 1, MinLength: 3, MaxLength: 5},
			seq:  "AAKBBRCC",
			want: []string{"AAK", "BBR", "BBRCC"},
		},
		{
			name: "no sites",
			d:    Digester{Enzyme: trypsin, MinLength: 1},
			seq:  "PEPTIDE",
			want: []string{"PEPTIDE"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spans := tt.d.Digest(tt.seq)
			if len(spans) != len(tt.want) {
				t.Fatalf("Digest() returned %d peptides, want %d: %v", len(spans), len(tt.want), spans)
			}
			for i, s := range spans {
				if got := tt.seq[s.Start:s.End]; got != tt.want[i] {
					t.Errorf("peptide %d = %s, want %s", i, got, tt.want[i])
				}
			}
		})
	}
}

func TestLookupEnzymeUnknown(t *testing.T) {
	if _, err := LookupEnzyme("pepsin"); err == nil {
		t.Error("LookupEnzyme(pepsin) expected error")
	}
}

func TestExpanderApply(t *testing.T) {
	db := core.DefaultModDatabase()
	cam, _ := db.ParseSpec("Carbamidomethyl (C)")
	ox, _ := db.ParseSpec("Oxidation (M)")

	tests := []struct {
		name        string
		e           Expander
		seq         string
		wantVariant int
	}{
		{"fixed only", Expander{Fixed: cam}, "PECMK", 1},
		{"one variable site", Expander{Fixed: cam, Variable: ox, MaxVariable: 2}, "PECMK", 2},
		{"two variable sites capped", Expander{Variable: ox, MaxVariable: 1}, "MAMK", 3},
		{"two variable sites", Expander{Variable: ox, MaxVariable: 2}, "MAMK", 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.e.Apply(tt.seq)
			if len(got) != tt.wantVariant {
				t.Fatalf("Apply() returned %d variants, want %d", len(got), tt.wantVariant)
			}
			base := core.CalculateNeutralMass(tt.seq, nil)
			if len(tt.e.Fixed) > 0 {
				if math.Abs(got[0].Mass-(base+57.021464)) > 1e-6 {
					t.Errorf("fixed variant mass = %.6f, want %.6f", got[0].Mass, base+57.021464)
				}
			} else if math.Abs(got[0].Mass-base) > 1e-9 {
				t.Errorf("first variant should be unmodified, mass %.6f", got[0].Mass)
			}
		})
	}
}
