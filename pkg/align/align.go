// Package align matches theoretical fragment peaks to observed peaks.
//
// With an absolute tolerance a banded dynamic program finds the cheapest
// monotonic alignment, where a match costs the m/z difference and skipping
// a peak costs the tolerance. With a ppm tolerance each theoretical peak
// is matched to its nearest remaining observed peak.
package align

import (
	"math"
	"sort"

	"github.com/ChrisMcGann/xlsearch/pkg/core"
)

// Pair links theoretical peak Theo to observed peak Obs.
type Pair struct {
	Theo, Obs int
}

// Options controls what counts as a match.
type Options struct {
	Tolerance       core.Tolerance
	IntensityCutoff float64 // min/max intensity ratio must exceed this (0 = off)
}

type step uint8

const (
	stepDiag step = iota
	stepUp
	stepLeft
)

// row holds the computed band [start, start+len(cost)) of one DP row.
type row struct {
	start int
	cost  []float64
	back  []step
}

func (r *row) reset(start int) {
	r.start = start
	r.cost = r.cost[:0]
	r.back = r.back[:0]
}

func (r *row) at(j int) (float64, step, bool) {
	k := j - r.start
	if k < 0 || k >= len(r.cost) {
		return 0, 0, false
	}
	return r.cost[k], r.back[k], true
}

// Aligner reuses DP buffers across calls. It is not safe for concurrent use.
type Aligner struct {
	rows    []row
	removed []bool
}

// Align aligns theo against obs with a throwaway Aligner.
func Align(theo, obs []core.Peak, opt Options) []Pair {
	var a Aligner
	return a.Align(theo, obs, opt)
}

// Align returns the matched peak pairs, strictly increasing in both
// indices. Both spectra must be sorted by m/z; unsorted input panics.
func (a *Aligner) Align(theo, obs []core.Peak, opt Options) []Pair {
	if !core.PeaksSorted(theo) {
		panic("align: theoretical spectrum is not sorted by m/z")
	}
	if !core.PeaksSorted(obs) {
		panic("align: observed spectrum is not sorted by m/z")
	}
	if len(theo) == 0 || len(obs) == 0 {
		return nil
	}
	if opt.Tolerance.IsPPM() {
		return a.nearest(theo, obs, opt)
	}
	return a.banded(theo, obs, opt)
}

func compatible(t, o core.Peak, cutoff float64) bool {
	if t.Charge != 0 && o.Charge != 0 && t.Charge != o.Charge {
		return false
	}
	if cutoff > 0 {
		lo := math.Min(t.Intensity, o.Intensity)
		hi := math.Max(t.Intensity, o.Intensity)
		if hi <= 0 || lo/hi <= cutoff {
			return false
		}
	}
	return true
}

func (a *Aligner) banded(theo, obs []core.Peak, opt Options) []Pair {
	n, m := len(theo), len(obs)
	tol := opt.Tolerance.Value

	if cap(a.rows) < n+1 {
		a.rows = make([]row, n+1)
	}
	a.rows = a.rows[:n+1]

	// cost looks up a filled cell; row 0 and column 0 hold gap costs
	cost := func(i, j int) (float64, bool) {
		switch {
		case i == 0:
			return float64(j) * tol, true
		case j == 0:
			return float64(i) * tol, true
		}
		c, _, ok := a.rows[i].at(j)
		return c, ok
	}

	leftPtr := 1
	lastI, lastJ := 0, 0

	for i := 1; i <= n; i++ {
		r := &a.rows[i]
		r.reset(leftPtr)
		pos1 := theo[i-1].MZ

		for j := leftPtr; j <= m; j++ {
			pos2 := obs[j-1].MZ
			diff := math.Abs(pos1 - pos2)

			offBand := false
			if pos2 > pos1 && diff >= tol && i < n && j < m && theo[i].MZ < pos2 {
				offBand = true
			}
			if pos1 > pos2 && diff >= tol && j > leftPtr+1 {
				leftPtr++
			}

			align := diff
			if c, ok := cost(i-1, j-1); ok {
				align += c
			} else {
				align += float64(i-1+j-1) * tol
			}
			up := tol
			if c, ok := cost(i, j-1); ok {
				up += c
			} else {
				up += float64(i+j-1) * tol
			}
			left := tol
			if c, ok := cost(i-1, j); ok {
				left += c
			} else {
				left += float64(i-1+j) * tol
			}

			switch {
			case align <= up && align <= left && diff < tol && compatible(theo[i-1], obs[j-1], opt.IntensityCutoff):
				r.cost = append(r.cost, align)
				r.back = append(r.back, stepDiag)
				lastI, lastJ = i, j
			case up <= left:
				r.cost = append(r.cost, up)
				r.back = append(r.back, stepUp)
			default:
				r.cost = append(r.cost, left)
				r.back = append(r.back, stepLeft)
			}

			if offBand {
				break
			}
		}
	}

	var pairs []Pair
	i, j := lastI, lastJ
	for i >= 1 && j >= 1 {
		_, s, ok := a.rows[i].at(j)
		if !ok {
			break
		}
		switch s {
		case stepDiag:
			pairs = append(pairs, Pair{Theo: i - 1, Obs: j - 1})
			i, j = i-1, j-1
		case stepUp:
			j--
		default:
			i--
		}
	}

	for l, r := 0, len(pairs)-1; l < r; l, r = l+1, r-1 {
		pairs[l], pairs[r] = pairs[r], pairs[l]
	}
	return pairs
}

// nearest matches each theoretical peak to the closest observed peak to the
// right of the previous match. A peak within tolerance that fails the
// intensity check is removed and the theoretical peak is retried.
func (a *Aligner) nearest(theo, obs []core.Peak, opt Options) []Pair {
	if cap(a.removed) < len(obs) {
		a.removed = make([]bool, len(obs))
	}
	a.removed = a.removed[:len(obs)]
	for i := range a.removed {
		a.removed[i] = false
	}

	var pairs []Pair
	lastJ := -1
	for i := 0; i < len(theo); i++ {
		mz := theo[i].MZ
		window := opt.Tolerance.Window(mz)

		for {
			j := a.closest(obs, mz, lastJ+1)
			if j < 0 || math.Abs(obs[j].MZ-mz) > window {
				break
			}
			t, o := theo[i], obs[j]
			if t.Charge != 0 && o.Charge != 0 && t.Charge != o.Charge {
				break
			}
			if !compatible(t, o, opt.IntensityCutoff) {
				a.removed[j] = true
				continue
			}
			pairs = append(pairs, Pair{Theo: i, Obs: j})
			lastJ = j
			break
		}
	}
	return pairs
}

// closest returns the index of the non-removed peak in obs[from:] nearest to
// mz, preferring the lower m/z on ties, or -1 if none is left.
func (a *Aligner) closest(obs []core.Peak, mz float64, from int) int {
	k := from + sort.Search(len(obs)-from, func(i int) bool { return obs[from+i].MZ >= mz })

	left := -1
	for l := k - 1; l >= from; l-- {
		if !a.removed[l] {
			left = l
			break
		}
	}
	right := -1
	for r := k; r < len(obs); r++ {
		if !a.removed[r] {
			right = r
			break
		}
	}

	switch {
	case left < 0:
		return right
	case right < 0:
		return left
	case mz-obs[left].MZ <= obs[right].MZ-mz:
		return left
	default:
		return right
	}
}
