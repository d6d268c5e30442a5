package mgf

import (
	"strings"
	"testing"
)

const twoSpectra = `# exported peak list
COM=test run
BEGIN IONS
TITLE=run1.1000.1000.3
PEPMASS=612.3321 15023.5
CHARGE=3+
RTINSECONDS=1534.2
SCANS=1000
300.5 10.0
150.25 20.0
450.75 5.5 2+
END IONS

BEGIN IONS
TITLE=run1.1001.1001.4
PEPMASS=733.1
CHARGE=2+ and 4+
101.1	1
END IONS
`

func TestReader(t *testing.T) {
	r := NewReader(strings.NewReader(twoSpectra), "run1.mgf")

	spectra, err := r.ReadAll()
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	if len(spectra) != 2 {
		t.Fatalf("read %d spectra, want 2", len(spectra))
	}

	s := spectra[0]
	tests := []struct {
		name string
		ok   bool
	}{
		{"title", s.NativeID == "run1.1000.1000.3"},
		{"index", s.Index == 0 && spectra[1].Index == 1},
		{"precursor", s.PrecursorMZ == 612.3321},
		{"charge", s.Charge == 3},
		{"retention time", s.RetentionTime != nil && *s.RetentionTime == 1534.2},
		{"scan", s.ScanNumber == 1000},
		{"source", s.SourceFile == "run1.mgf" && s.SourceFormat == "mgf"},
		{"peak count", len(s.Peaks) == 3},
		{"sorted", s.ArePeaksSorted() && s.Peaks[0].MZ == 150.25},
		{"peak charge", s.Peaks[2].Charge == 2},
		{"first listed charge", spectra[1].Charge == 2},
		{"tab separated peak", len(spectra[1].Peaks) == 1 && spectra[1].Peaks[0].MZ == 101.1},
		{"no retention time", spectra[1].RetentionTime == nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !tt.ok {
				t.Errorf("%s mismatch: %+v", tt.name, spectra)
			}
		})
	}
}

func TestReaderErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"bad peak", "BEGIN IONS\nPEPMASS=500\n100.0 abc\nEND IONS\n", "line 3"},
		{"bad charge", "BEGIN IONS\nCHARGE=x+\nEND IONS\n", "invalid CHARGE"},
		{"unterminated", "BEGIN IONS\nPEPMASS=500\n100 1\n", "missing END IONS"},
		{"nested", "BEGIN IONS\nBEGIN IONS\n", "inside an open spectrum"},
		{"stray end", "END IONS\n", "without BEGIN IONS"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewReader(strings.NewReader(tt.input), "")
			for r.Next() {
			}
			if r.Err() == nil || !strings.Contains(r.Err().Error(), tt.want) {
				t.Errorf("Err() = %v, want mention of %q", r.Err(), tt.want)
			}
		})
	}
}

func TestParseCharge(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"3+", 3}, {"2-", 2}, {"4", 4}, {"+2", 2}, {"2+, 3+", 2},
	}
	for _, tt := range tests {
		got, err := ParseCharge(tt.in)
		if err != nil || got != tt.want {
			t.Errorf("ParseCharge(%q) = %d, %v, want %d", tt.in, got, err, tt.want)
		}
	}
	if _, err := ParseCharge(""); err == nil {
		t.Error("ParseCharge(\"\") returned nil error")
	}
}
