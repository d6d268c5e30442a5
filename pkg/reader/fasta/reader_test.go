package fasta

import (
	"compress/gzip"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const proteins = `>sp|P02769|ALBU_BOVIN Serum albumin
MKWVTFISLL
lllfssaysr
; comment line
>sp|P00761|TRYP_PIG
IVGGYTCAAN*
>empty
`

func TestReader(t *testing.T) {
	r := NewReader(strings.NewReader(proteins))

	var got []Record
	for r.Next() {
		got = append(got, r.Record())
	}
	if err := r.Err(); err != nil {
		t.Fatalf("Err() = %v", err)
	}

	want := []Record{
		{ID: "sp|P02769|ALBU_BOVIN", Description: "Serum albumin", Sequence: "MKWVTFISLLLLLFSSAYSR"},
		{ID: "sp|P00761|TRYP_PIG", Sequence: "IVGGYTCAAN"},
		{ID: "empty"},
	}
	if len(got) != len(want) {
		t.Fatalf("read %d records, want %d: %+v", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("record %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestReaderNoTrailingNewline(t *testing.T) {
	r := NewReader(strings.NewReader(">p1\nPEPTIDEK"))
	proteins, err := r.ReadProteins()
	if err != nil {
		t.Fatal(err)
	}
	if len(proteins) != 1 || proteins[0].ID != "p1" || proteins[0].Sequence != "PEPTIDEK" {
		t.Errorf("ReadProteins() = %+v", proteins)
	}
}

func TestReaderErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"sequence before header", "PEPTIDE\n>p1\nK\n", "line 1"},
		{"empty header", ">\nPEPTIDE\n", "empty FASTA header"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewReader(strings.NewReader(tt.input))
			for r.Next() {
			}
			if r.Err() == nil || !strings.Contains(r.Err().Error(), tt.want) {
				t.Errorf("Err() = %v, want mention of %q", r.Err(), tt.want)
			}
		})
	}
}

func TestOpenGzip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db.fasta.gz")
	fh, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	gw := gzip.NewWriter(fh)
	if _, err := gw.Write([]byte(proteins)); err != nil {
		t.Fatalf("write gz: %v", err)
	}
	gw.Close()
	fh.Close()

	rc, err := Open(path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer rc.Close()

	got, err := NewReader(rc).ReadProteins()
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 3 {
		t.Errorf("read %d proteins from gzip, want 3", len(got))
	}
}
