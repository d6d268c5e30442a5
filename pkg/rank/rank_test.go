package rank

import (
	"testing"

	"github.com/ChrisMcGann/xlsearch/pkg/candidate"
	"github.com/ChrisMcGann/xlsearch/pkg/core"
)

func mono(seq string) candidate.Candidate {
	return candidate.Candidate{Link: candidate.Mono{Peptide: core.NewPeptide(seq, nil), Pos: 0}}
}

func TestRank(t *testing.T) {
	scored := []Scored{
		{Candidate: mono("KA"), Score: 1.5},
		{Candidate: mono("KB"), Score: 9.0},
		{Candidate: mono("KC"), Score: 4.2},
		{Candidate: mono("KD"), Score: 9.0},
		{Candidate: mono("KE"), Score: 0},
	}

	tests := []struct {
		name string
		topN int
		want []string
	}{
		{"all", 0, []string{"KB", "KD", "KC", "KA", "KE"}},
		{"top three", 3, []string{"KB", "KD", "KC"}},
		{"top more than available", 10, []string{"KB", "KD", "KC", "KA", "KE"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Rank(scored, tt.topN)
			if len(got) != len(tt.want) {
				t.Fatalf("Rank() returned %d matches, want %d", len(got), len(tt.want))
			}
			for i, m := range got {
				if seq := m.Candidate.Alpha().Sequence; seq != tt.want[i] {
					t.Errorf("rank %d = %s, want %s", i+1, seq, tt.want[i])
				}
				if m.Rank != i+1 {
					t.Errorf("match %d has rank %d", i, m.Rank)
				}
				if i > 0 && got[i-1].Score < m.Score {
					t.Errorf("scores not descending at rank %d", m.Rank)
				}
			}
		})
	}

	if scored[0].Candidate.Alpha().Sequence != "KA" {
		t.Error("Rank() reordered its input")
	}
}

func TestRankEmpty(t *testing.T) {
	if got := Rank(nil, 5); len(got) != 0 {
		t.Errorf("Rank(nil) = %v, want empty", got)
	}
}

func TestDedup(t *testing.T) {
	in := []Annotation{
		{Label: "alpha|ci$b3", MZ: 300.1, Intensity: 1, Charge: 1},
		{Label: "alpha|ci$b2", MZ: 200.1, Intensity: 1, Charge: 1},
		{Label: "alpha|ci$b3", MZ: 300.1, Intensity: 1, Charge: 1},
		{Label: "beta|ci$y2", MZ: 200.1, Intensity: 1, Charge: 1},
	}

	got := Dedup(in)
	want := []string{"alpha|ci$b2", "beta|ci$y2", "alpha|ci$b3"}
	if len(got) != len(want) {
		t.Fatalf("Dedup() returned %d annotations, want %d: %+v", len(got), len(want), got)
	}
	for i, a := range got {
		if a.Label != want[i] {
			t.Errorf("annotation %d = %s, want %s", i, a.Label, want[i])
		}
	}
	if in[0].Label != "alpha|ci$b3" {
		t.Error("Dedup() modified its input")
	}
}
